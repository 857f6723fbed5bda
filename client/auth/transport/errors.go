package transport

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuthenticationExpired classifies a request rejected with an authentication failure.
	// It is recovered locally and only reaches callers wrapped in a RefreshError.
	ErrAuthenticationExpired = errors.New("authentication expired")
	// ErrRefreshFailed matches every RefreshError.
	ErrRefreshFailed = errors.New("token refresh failed")
	// ErrMissingRefreshToken is the refresh failure cause when the store holds no refresh token.
	ErrMissingRefreshToken = errors.New("missing refresh token")
	// ErrRetryExhausted describes a request that failed authentication again after its one retry.
	ErrRetryExhausted = errors.New("authentication rejected after token refresh")
	// ErrRefresherNotConfigured is the refresh failure cause when no refresher was set up.
	ErrRefresherNotConfigured = errors.New("token refresher not configured")
)

// RefreshError is returned to every request waiting on a refresh cycle that failed.
type RefreshError struct {
	Cause error
}

func (e *RefreshError) Error() string {
	if e.Cause == nil {
		return ErrRefreshFailed.Error()
	}
	return ErrRefreshFailed.Error() + ": " + e.Cause.Error()
}

func (e *RefreshError) Unwrap() error {
	return e.Cause
}

func (e *RefreshError) Is(target error) bool {
	return target == ErrRefreshFailed
}

// StoreError reports a token store that could not be read. The request fails
// like any transport error: no refresh cycle starts and the store is left as is.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string {
	return "token store unavailable: " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// StatusError reports a non-2xx answer from the refresh endpoint.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
}
