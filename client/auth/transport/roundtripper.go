package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/viant/authhttp/client/auth/store"
)

const defaultRefreshTimeout = 30 * time.Second

// RoundTripper attaches the stored bearer token and coordinates token refresh on authentication failure.
type RoundTripper struct {
	store          store.Store
	refresher      Refresher
	refreshURL     string
	refreshPath    string
	transport      http.RoundTripper
	sessionExpired func(err error)
	authFailure    func(resp *http.Response) bool
	refreshTimeout time.Duration
	logger         *slog.Logger
	state          refreshState
}

func New(options ...Option) (*RoundTripper, error) {
	ret := &RoundTripper{
		transport:      http.DefaultTransport,
		store:          store.NewMemoryStore(),
		authFailure:    isUnauthorized,
		refreshTimeout: defaultRefreshTimeout,
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	if ret.refresher == nil && ret.refreshURL != "" {
		// refresh calls bypass the coordinator so they never recurse into it
		ret.refresher = NewEndpointRefresher(ret.refreshURL, ret.refreshPath, &http.Client{Transport: ret.transport})
	}
	return ret, nil
}

func (r *RoundTripper) Store() store.Store {
	return r.store
}

// Refreshing reports whether a refresh cycle is in flight
func (r *RoundTripper) Refreshing() bool {
	r.state.mux.Lock()
	defer r.state.mux.Unlock()
	return r.state.cycle != nil
}

func (r *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	requestID := req.Header.Get(HeaderRequestID)
	if requestID == "" {
		if requestID = getRequestID(ctx); requestID == "" {
			requestID = uuid.NewString()
		}
	}
	body, err := bufferBody(req)
	if err != nil {
		return nil, err
	}

	// 1) Send with the current access token, unauthenticated if there is none.
	accessToken, _, err := r.store.AccessToken(ctx)
	if err != nil {
		return nil, &StoreError{Err: err}
	}
	first, err := attempt(req, body, accessToken, requestID)
	if err != nil {
		return nil, err
	}
	resp, err := r.transport.RoundTrip(first)
	if err != nil {
		return nil, err
	}

	// 2) Anything but an authentication failure goes back untouched.
	if !r.authFailure(resp) || skipRefresh(ctx) {
		return resp, nil
	}
	discard(resp)
	r.logger.Debug("authentication rejected",
		slog.String("request_id", requestID),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Any("err", ErrAuthenticationExpired))

	// 3) Start or join the refresh cycle.
	accessToken, err = r.awaitToken(ctx, accessToken, requestID)
	if err != nil {
		return nil, err
	}

	// 4) Replay exactly once; a second rejection is the caller's to handle.
	retry, err := attempt(req, body, accessToken, requestID)
	if err != nil {
		return nil, err
	}
	markReplayed(ctx)
	return r.transport.RoundTrip(retry)
}

func isUnauthorized(resp *http.Response) bool {
	return resp.StatusCode == http.StatusUnauthorized
}
