package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/viant/authhttp/client/auth/store"
)

// outcome is delivered exactly once to every waiter of a refresh cycle.
type outcome struct {
	token string
	err   error
}

// cycle is a refresh in flight; waiters are settled in arrival order.
type cycle struct {
	waiters []chan outcome
}

// refreshState is Idle when cycle is nil and Refreshing otherwise.
// mux covers check, transition, store update and waiter hand-off.
type refreshState struct {
	mux   sync.Mutex
	cycle *cycle
}

// awaitToken returns the access token to replay a rejected request with.
// sent is the access token the request was rejected with.
func (r *RoundTripper) awaitToken(ctx context.Context, sent, requestID string) (string, error) {
	waiter := make(chan outcome, 1)

	r.state.mux.Lock()
	if r.state.cycle == nil {
		current, ok, err := r.store.AccessToken(ctx)
		if err != nil {
			r.state.mux.Unlock()
			return "", &StoreError{Err: err}
		}
		// a cycle settled between our send and now, the token we hold is already stale
		if ok && current != sent {
			r.state.mux.Unlock()
			return current, nil
		}
		r.state.cycle = &cycle{waiters: []chan outcome{waiter}}
		r.state.mux.Unlock()
		go r.refresh(context.WithoutCancel(ctx), requestID)
	} else {
		r.state.cycle.waiters = append(r.state.cycle.waiters, waiter)
		r.state.mux.Unlock()
	}

	select {
	case result := <-waiter:
		return result.token, result.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// refresh runs one cycle and settles all its waiters with the same outcome.
func (r *RoundTripper) refresh(ctx context.Context, requestID string) {
	ctx, cancel := context.WithTimeout(ctx, r.refreshTimeout)
	defer cancel()
	started := time.Now()
	r.logger.Debug("token refresh started", slog.String("request_id", requestID))

	pair, err := r.obtain(ctx)
	var storeErr *StoreError
	unavailable := errors.As(err, &storeErr)

	r.state.mux.Lock()
	if err == nil {
		if err = r.store.Set(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
			err = fmt.Errorf("failed to store refreshed token: %w", err)
		}
	}
	if err != nil && !unavailable {
		err = &RefreshError{Cause: err}
		if clearErr := r.store.Clear(ctx); clearErr != nil {
			r.logger.Warn("failed to clear credentials", slog.String("err", clearErr.Error()))
		}
	}
	settled := r.state.cycle
	r.state.cycle = nil
	r.state.mux.Unlock()

	switch {
	case unavailable:
		// store failures leave the session untouched
		r.logger.Warn("token refresh skipped",
			slog.String("request_id", requestID),
			slog.Int("waiters", len(settled.waiters)),
			slog.String("err", err.Error()))
		settled.settle(outcome{err: err})
	case err != nil:
		r.logger.Warn("token refresh failed",
			slog.String("request_id", requestID),
			slog.Int("waiters", len(settled.waiters)),
			slog.Duration("dur", time.Since(started)),
			slog.String("err", err.Error()))
		settled.settle(outcome{err: err})
		r.expire(err)
	default:
		r.logger.Debug("token refresh completed",
			slog.String("request_id", requestID),
			slog.Int("waiters", len(settled.waiters)),
			slog.Duration("dur", time.Since(started)))
		settled.settle(outcome{token: pair.AccessToken})
	}
}

// expire signals the session expiry once waiters are released; a slow or
// panicking listener only holds up this goroutine.
func (r *RoundTripper) expire(err error) {
	if r.sessionExpired == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("session expired listener panicked", slog.Any("panic", p))
		}
	}()
	r.sessionExpired(err)
}

// settle hands the outcome to every waiter in arrival order
func (c *cycle) settle(result outcome) {
	for _, waiter := range c.waiters {
		waiter <- result
	}
}

func (r *RoundTripper) obtain(ctx context.Context) (*store.TokenPair, error) {
	refreshToken, ok, err := r.store.RefreshToken(ctx)
	if err != nil {
		return nil, &StoreError{Err: err}
	}
	if !ok || refreshToken == "" {
		return nil, ErrMissingRefreshToken
	}
	if r.refresher == nil {
		return nil, ErrRefresherNotConfigured
	}
	pair, err := r.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if !pair.Valid() {
		return nil, store.ErrInvalidTokenPair
	}
	return pair, nil
}
