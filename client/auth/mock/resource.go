package mock

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// defaultResourceHandler simulates a protected resource at /resource, POST bodies are echoed back
func (m *APIService) defaultResourceHandler(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		writeDetail(w, http.StatusBadRequest, "Invalid authorization header")
		return
	}
	claims, err := m.verifyJWT(parts[1], accessTokenType)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	data := map[string]interface{}{"subject": claims["sub"]}
	if r.Method == http.MethodPost || r.Method == http.MethodPut {
		body, _ := io.ReadAll(r.Body)
		var echo interface{}
		if err := json.Unmarshal(body, &echo); err == nil {
			data["echo"] = echo
		}
	}
	writeSuccess(w, data, "This is a protected resource")
}
