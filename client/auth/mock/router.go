package mock

import (
	"net/http"
	"strings"
)

// Handler routes HTTP requests to the appropriate mock API endpoints.
type Handler struct {
	// Server is the mock API server with endpoint handlers.
	Server *APIService
}

// ServeHTTP dispatches incoming HTTP requests based on URL path.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, h.Server.BasePath)
	switch path {
	case h.Server.RefreshPath:
		h.Server.refreshCalls.Add(1)
		h.dispatch(w, r, h.Server.RefreshHandler, h.Server.defaultRefreshHandler)
	case "/auth/login":
		h.dispatch(w, r, h.Server.LoginHandler, h.Server.defaultLoginHandler)
	case "/auth/register":
		h.dispatch(w, r, h.Server.RegisterHandler, h.Server.defaultRegisterHandler)
	case "/auth/logout":
		h.Server.logoutCalls.Add(1)
		h.dispatch(w, r, h.Server.LogoutHandler, h.Server.defaultLogoutHandler)
	case "/resource":
		h.dispatch(w, r, h.Server.ResourceHandler, h.Server.defaultResourceHandler)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, custom, fallback http.HandlerFunc) {
	if custom != nil {
		custom(w, r)
		return
	}
	fallback(w, r)
}
