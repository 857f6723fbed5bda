package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/viant/afs/url"
	"github.com/viant/authhttp/client/auth/store"
	"golang.org/x/oauth2"
)

// RefreshPath is the default refresh endpoint path relative to the API base URL
const RefreshPath = "/auth/refresh"

const maxErrorBodyBytes = 64 << 10

// Refresher exchanges a refresh token for a new token pair
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*store.TokenPair, error)
}

// RefresherFunc adapts a function to Refresher
type RefresherFunc func(ctx context.Context, refreshToken string) (*store.TokenPair, error)

func (f RefresherFunc) Refresh(ctx context.Context, refreshToken string) (*store.TokenPair, error) {
	return f(ctx, refreshToken)
}

// EndpointRefresher calls POST <base><path> with {"refresh_token": ...}
// and expects the new pair wrapped in the API result envelope under "data".
type EndpointRefresher struct {
	URL    string
	Client *http.Client
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    *store.TokenPair `json:"data"`
}

// NewEndpointRefresher creates a refresher for path of the API rooted at baseURL, RefreshPath when path is empty
func NewEndpointRefresher(baseURL, path string, client *http.Client) *EndpointRefresher {
	if client == nil {
		client = http.DefaultClient
	}
	if path == "" {
		path = RefreshPath
	}
	return &EndpointRefresher{URL: url.Join(baseURL, strings.TrimLeft(path, "/")), Client: client}
}

func (e *EndpointRefresher) Refresh(ctx context.Context, refreshToken string) (*store.TokenPair, error) {
	payload, err := json.Marshal(&refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}
	var result refreshResponse
	if err = json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("invalid refresh response: %w", err)
	}
	if !result.Data.Valid() {
		return nil, errors.New("refresh response missing access_token or refresh_token")
	}
	return result.Data, nil
}

// errorMessage extracts the message of an API error body, FastAPI style detail included
func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Detail  any    `json:"detail"`
	}
	if json.Unmarshal(data, &body) != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	if detail, ok := body.Detail.(string); ok {
		return detail
	}
	return ""
}

// OAuth2Refresher runs the standard OAuth2 refresh_token grant against Config.Endpoint.TokenURL
type OAuth2Refresher struct {
	Config *oauth2.Config
	Client *http.Client
}

func (o *OAuth2Refresher) Refresh(ctx context.Context, refreshToken string) (*store.TokenPair, error) {
	if o.Client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.Client)
	}
	refreshed, err := o.Config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, err
	}
	// preserve refresh token if provider omitted it
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = refreshToken
	}
	return &store.TokenPair{AccessToken: refreshed.AccessToken, RefreshToken: refreshed.RefreshToken}, nil
}
