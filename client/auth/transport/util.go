package transport

import (
	"bytes"
	"io"
	"net/http"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-Id"
	bearerPrefix        = "Bearer "
	maxDrainBytes       = 4 << 10
)

// bodyFunc returns a fresh reader over the buffered request body
type bodyFunc func() (io.ReadCloser, error)

// bufferBody reads and closes the request body so it can be sent twice
func bufferBody(r *http.Request) (bodyFunc, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	defer r.Body.Close()
	buf, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(buf)), nil
	}, nil
}

// attempt clones the caller request, never mutating the original headers
func attempt(r *http.Request, body bodyFunc, accessToken, requestID string) (*http.Request, error) {
	cloned := r.Clone(r.Context())
	if body != nil {
		rc, err := body()
		if err != nil {
			return nil, err
		}
		cloned.Body = rc
		cloned.GetBody = body
	}
	if accessToken != "" {
		cloned.Header.Set(HeaderAuthorization, bearerPrefix+accessToken)
	}
	if requestID != "" {
		cloned.Header.Set(HeaderRequestID, requestID)
	}
	return cloned, nil
}

// discard drains a little of the body for connection reuse and closes it
func discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	_ = resp.Body.Close()
}
