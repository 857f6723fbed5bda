package transport

import (
	"context"
	"sync/atomic"
)

type (
	contextKey string
)

const (
	// ContextSkipRefreshKey marks a request whose authentication failure must be returned as-is.
	ContextSkipRefreshKey contextKey = "skipRefresh"
	// ContextRequestIDKey carries the request id used for the X-Request-Id header.
	ContextRequestIDKey contextKey = "requestID"
	// ContextReplayKey carries the *Replay marked when a request is re-sent with a refreshed token.
	ContextReplayKey contextKey = "replay"
)

// Replay records whether the round tripper re-sent a request after a token refresh
type Replay struct {
	replayed atomic.Bool
}

// Replayed reports whether the request went out a second time
func (r *Replay) Replayed() bool {
	return r != nil && r.replayed.Load()
}

// WithReplay returns a context whose requests report their replay on the returned Replay
func WithReplay(ctx context.Context) (context.Context, *Replay) {
	replay := &Replay{}
	return context.WithValue(ctx, ContextReplayKey, replay), replay
}

// WithoutRefresh returns a context under which authentication failures do not
// enter the refresh protocol, e.g. a login call rejecting bad credentials.
func WithoutRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, ContextSkipRefreshKey, true)
}

// WithRequestID returns a context carrying the request id to send
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextRequestIDKey, id)
}

func skipRefresh(ctx context.Context) bool {
	if v := ctx.Value(ContextSkipRefreshKey); v != nil {
		skip, _ := v.(bool)
		return skip
	}
	return false
}

func getRequestID(ctx context.Context) string {
	if v := ctx.Value(ContextRequestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func markReplayed(ctx context.Context) {
	if replay, ok := ctx.Value(ContextReplayKey).(*Replay); ok {
		replay.replayed.Store(true)
	}
}
