package store

import (
	"context"

	"golang.org/x/oauth2"
)

type tokenSource struct {
	ctx   context.Context
	store Store
}

// Token returns the current access token held by the store
func (t *tokenSource) Token() (*oauth2.Token, error) {
	access, ok, err := t.store.AccessToken(t.ctx)
	if err != nil {
		return nil, err
	}
	if !ok || access == "" {
		return nil, ErrNoToken
	}
	refresh, _, err := t.store.RefreshToken(t.ctx)
	if err != nil {
		return nil, err
	}
	return (&TokenPair{AccessToken: access, RefreshToken: refresh}).Token(), nil
}

// TokenSource exposes the store to oauth2 consumers, every call reads the latest pair.
func TokenSource(ctx context.Context, store Store) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, store: store}
}
