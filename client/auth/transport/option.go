package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/viant/authhttp/client/auth/store"
)

type Option func(*RoundTripper)

// WithStore sets store
func WithStore(store store.Store) Option {
	return func(t *RoundTripper) {
		t.store = store
	}
}

// WithTransport sets the underlying transport executing requests
func WithTransport(transport http.RoundTripper) Option {
	return func(t *RoundTripper) {
		t.transport = transport
	}
}

// WithRefresher sets the refresher used to obtain a new token pair
func WithRefresher(refresher Refresher) Option {
	return func(t *RoundTripper) {
		t.refresher = refresher
	}
}

// WithRefreshURL sets the API base URL used by the default endpoint refresher
func WithRefreshURL(baseURL string) Option {
	return func(t *RoundTripper) {
		t.refreshURL = baseURL
	}
}

// WithRefreshPath sets the refresh endpoint path of the default endpoint refresher
func WithRefreshPath(path string) Option {
	return func(t *RoundTripper) {
		t.refreshPath = path
	}
}

// WithSessionExpired sets the callback invoked once per failed refresh cycle,
// after every waiter of that cycle has received the failure
func WithSessionExpired(fn func(err error)) Option {
	return func(t *RoundTripper) {
		t.sessionExpired = fn
	}
}

// WithAuthFailure overrides authentication failure detection, 401 by default
func WithAuthFailure(fn func(resp *http.Response) bool) Option {
	return func(t *RoundTripper) {
		t.authFailure = fn
	}
}

// WithRefreshTimeout bounds a single refresh call
func WithRefreshTimeout(timeout time.Duration) Option {
	return func(t *RoundTripper) {
		t.refreshTimeout = timeout
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(t *RoundTripper) {
		t.logger = logger
	}
}
