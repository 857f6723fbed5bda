package store

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/oauth2"
)

var (
	// ErrInvalidTokenPair is returned when Set is called with an empty access or refresh token.
	ErrInvalidTokenPair = errors.New("token pair requires both access and refresh token")
	// ErrNoToken is returned by TokenSource when the store holds no access token.
	ErrNoToken = errors.New("no access token")
)

// TokenPair represents access and refresh token issued together
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Valid returns true when both halves are present
func (p *TokenPair) Valid() bool {
	return p != nil && p.AccessToken != "" && p.RefreshToken != ""
}

// Token returns oauth2 token view of the pair
func (p *TokenPair) Token() *oauth2.Token {
	if p == nil {
		return nil
	}
	return &oauth2.Token{
		TokenType:    "Bearer",
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
	}
}

// Store is a pluggable persistence layer for the current token pair.
// Both tokens are either present or absent; Set and Clear replace them together.
// A read error means the backend could not answer, it never stands for "no tokens".
type Store interface {
	AccessToken(ctx context.Context) (string, bool, error)
	RefreshToken(ctx context.Context) (string, bool, error)
	Set(ctx context.Context, access, refresh string) error
	Clear(ctx context.Context) error
}

type MemoryStoreOption func(*memoryStore)

// WithTokenPair seeds the store with a token pair
func WithTokenPair(access, refresh string) MemoryStoreOption {
	return func(m *memoryStore) {
		pair := &TokenPair{AccessToken: access, RefreshToken: refresh}
		if pair.Valid() {
			m.pair.Store(pair)
		}
	}
}

// memoryStore keeps an immutable pair behind an atomic pointer, a nil pointer means no tokens.
type memoryStore struct {
	pair atomic.Pointer[TokenPair]
}

func (m *memoryStore) AccessToken(_ context.Context) (string, bool, error) {
	if pair := m.pair.Load(); pair != nil {
		return pair.AccessToken, true, nil
	}
	return "", false, nil
}

func (m *memoryStore) RefreshToken(_ context.Context) (string, bool, error) {
	if pair := m.pair.Load(); pair != nil {
		return pair.RefreshToken, true, nil
	}
	return "", false, nil
}

func (m *memoryStore) Set(_ context.Context, access, refresh string) error {
	pair := &TokenPair{AccessToken: access, RefreshToken: refresh}
	if !pair.Valid() {
		return ErrInvalidTokenPair
	}
	m.pair.Store(pair)
	return nil
}

func (m *memoryStore) Clear(_ context.Context) error {
	m.pair.Store(nil)
	return nil
}

func NewMemoryStore(options ...MemoryStoreOption) Store {
	return newMemoryStore(options...)
}

func newMemoryStore(options ...MemoryStoreOption) *memoryStore {
	ret := &memoryStore{}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}
