package mock

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultBasePath is the API prefix served by the mock
	DefaultBasePath = "/api/v1"
	// DefaultRefreshPath is the refresh endpoint relative to BasePath
	DefaultRefreshPath = "/auth/refresh"
)

// APIService is a test server that simulates the authentication API and one protected resource
type APIService struct {
	PrivateKey *rsa.PrivateKey
	Issuer     string
	BasePath   string
	// RefreshPath is where token rotation is served, relative to BasePath
	RefreshPath string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	// RefreshDelay slows down /auth/refresh so concurrent callers pile up
	RefreshDelay time.Duration

	LoginHandler    func(w http.ResponseWriter, r *http.Request)
	RegisterHandler func(w http.ResponseWriter, r *http.Request)
	RefreshHandler  func(w http.ResponseWriter, r *http.Request)
	LogoutHandler   func(w http.ResponseWriter, r *http.Request)
	ResourceHandler func(w http.ResponseWriter, r *http.Request)

	mux           sync.RWMutex
	users         map[string]string
	accessTokens  map[string]bool
	refreshTokens map[string]bool
	refreshCalls  atomic.Int32
	logoutCalls   atomic.Int32
}

type Option func(*APIService)

// WithUser registers a user that can log in
func WithUser(email, password string) Option {
	return func(s *APIService) {
		s.users[email] = password
	}
}

// WithBasePath sets API prefix
func WithBasePath(basePath string) Option {
	return func(s *APIService) {
		s.BasePath = basePath
	}
}

// WithRefreshPath serves token rotation under path instead of DefaultRefreshPath
func WithRefreshPath(path string) Option {
	return func(s *APIService) {
		s.RefreshPath = path
	}
}

// WithRefreshDelay delays every refresh response
func WithRefreshDelay(delay time.Duration) Option {
	return func(s *APIService) {
		s.RefreshDelay = delay
	}
}

// NewAPIService creates a new mock API server
func NewAPIService(opts ...Option) (*APIService, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %v", err)
	}
	service := &APIService{
		PrivateKey:    privateKey,
		BasePath:      DefaultBasePath,
		RefreshPath:   DefaultRefreshPath,
		AccessTTL:     30 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		users:         map[string]string{},
		accessTokens:  map[string]bool{},
		refreshTokens: map[string]bool{},
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Register registers HTTP handlers for all mock endpoints onto the given ServeMux.
func (m *APIService) Register(mux *http.ServeMux) {
	mux.Handle("/", &Handler{Server: m})
}

// Handler returns an http.Handler for all mock endpoints, suitable for any HTTP server.
func (m *APIService) Handler() http.Handler {
	mux := http.NewServeMux()
	m.Register(mux)
	return mux
}

// Expire invalidates every access token issued so far
func (m *APIService) Expire() {
	m.mux.Lock()
	defer m.mux.Unlock()
	for id := range m.accessTokens {
		m.accessTokens[id] = false
	}
}

// RevokeAll invalidates every refresh token issued so far
func (m *APIService) RevokeAll() {
	m.mux.Lock()
	defer m.mux.Unlock()
	for id := range m.refreshTokens {
		m.refreshTokens[id] = false
	}
}

// RefreshCalls returns number of /auth/refresh requests served
func (m *APIService) RefreshCalls() int {
	return int(m.refreshCalls.Load())
}

// LogoutCalls returns number of /auth/logout requests served
func (m *APIService) LogoutCalls() int {
	return int(m.logoutCalls.Load())
}
