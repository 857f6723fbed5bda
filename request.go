package authhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/viant/afs/url"
	authtransport "github.com/viant/authhttp/client/auth/transport"
)

// Request describes one API call; Path is relative to ClientOptions.BaseURL
type Request struct {
	Method string
	Path   string
	Header http.Header
	Query  neturl.Values
	// Body is sent as is when []byte or io.Reader, JSON encoded otherwise
	Body interface{}
	// SkipRefresh returns an authentication failure as is, without refreshing tokens
	SkipRefresh bool
}

// Envelope is the API result wrapper
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Errors  json.RawMessage `json:"errors,omitempty"`
	Detail  json.RawMessage `json:"detail,omitempty"`
}

// Response represents API response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Envelope
}

// Decode unmarshals envelope data into dest
func (r *Response) Decode(dest interface{}) error {
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return fmt.Errorf("response has no data")
	}
	return json.Unmarshal(r.Data, dest)
}

// StatusError represents a non 2xx API response
type StatusError struct {
	StatusCode int
	Message    string
	Errors     json.RawMessage
	// Retried is set when a 401 came back from the replay with a refreshed token
	Retried bool
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrRetryExhausted && e.Retried
}

func newStatusError(response *Response, replayed bool) *StatusError {
	ret := &StatusError{
		StatusCode: response.StatusCode,
		Message:    response.Message,
		Errors:     response.Errors,
		Retried:    response.StatusCode == http.StatusUnauthorized && replayed,
	}
	if ret.Message == "" && len(response.Detail) > 0 {
		var detail string
		if json.Unmarshal(response.Detail, &detail) == nil {
			ret.Message = detail
		} else {
			ret.Message = string(response.Detail)
		}
	}
	return ret
}

// Send executes request, non 2xx responses are returned together with a *StatusError
func (c *Client) Send(ctx context.Context, request *Request) (*Response, error) {
	ctx, replay := authtransport.WithReplay(ctx)
	httpRequest, err := c.newHTTPRequest(ctx, request)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	resp, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	c.logger.Debug("http",
		slog.String("method", httpRequest.Method),
		slog.String("path", httpRequest.URL.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("dur", time.Since(started)))

	response := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}
	// non JSON bodies are kept raw
	_ = json.Unmarshal(data, &response.Envelope)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return response, newStatusError(response, replay.Replayed())
	}
	return response, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, request *Request) (*http.Request, error) {
	method := request.Method
	if method == "" {
		method = http.MethodGet
	}
	URL := url.Join(c.options.BaseURL, strings.TrimLeft(request.Path, "/"))
	if len(request.Query) > 0 {
		URL += "?" + request.Query.Encode()
	}
	var body io.Reader
	isJSON := false
	switch actual := request.Body.(type) {
	case nil:
	case []byte:
		body = bytes.NewReader(actual)
	case io.Reader:
		body = actual
	default:
		data, err := json.Marshal(actual)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
		isJSON = true
	}
	if request.SkipRefresh {
		ctx = authtransport.WithoutRefresh(ctx)
	}
	httpRequest, err := http.NewRequestWithContext(ctx, method, URL, body)
	if err != nil {
		return nil, err
	}
	for k, values := range request.Header {
		for _, v := range values {
			httpRequest.Header.Add(k, v)
		}
	}
	if isJSON && httpRequest.Header.Get("Content-Type") == "" {
		httpRequest.Header.Set("Content-Type", "application/json")
	}
	httpRequest.Header.Set("Accept", "application/json")
	return httpRequest, nil
}

// Get sends GET request
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Send(ctx, &Request{Method: http.MethodGet, Path: path})
}

// Post sends POST request with JSON body
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Send(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put sends PUT request with JSON body
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Send(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Delete sends DELETE request
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Send(ctx, &Request{Method: http.MethodDelete, Path: path})
}
