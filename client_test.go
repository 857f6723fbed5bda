package authhttp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/authhttp/client/auth/mock"
)

const (
	testEmail    = "user@example.com"
	testPassword = "correct-password-123"
)

func newTestClient(t *testing.T, opts ...mock.Option) (*Client, *mock.HTTPTestServer, *atomic.Int32) {
	t.Helper()
	server, err := mock.NewHTTPTestServer(append([]mock.Option{mock.WithUser(testEmail, testPassword)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(server.Close)

	expired := &atomic.Int32{}
	client, err := New(context.Background(), &ClientOptions{BaseURL: server.BaseURL, Timeout: 10 * time.Second},
		WithSessionExpired(func(err error) { expired.Add(1) }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, server, expired
}

func authenticated(t *testing.T, client *Client) bool {
	t.Helper()
	ok, err := client.Authenticated(context.Background())
	require.NoError(t, err)
	return ok
}

func TestClient_LoginAndSend(t *testing.T) {
	ctx := context.Background()
	client, server, expired := newTestClient(t)

	assert.False(t, authenticated(t, client))
	tokens, err := client.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)
	assert.Equal(t, "bearer", tokens.TokenType)
	assert.True(t, authenticated(t, client))

	resp, err := client.Get(ctx, "/resource")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, resp.Success)
	var data struct {
		Subject string `json:"subject"`
	}
	require.NoError(t, resp.Decode(&data))
	assert.Equal(t, testEmail, data.Subject)
	assert.Equal(t, 0, server.RefreshCalls())
	assert.EqualValues(t, 0, expired.Load())
}

func TestClient_LoginRejected(t *testing.T) {
	ctx := context.Background()
	client, server, expired := newTestClient(t)

	_, err := client.Login(ctx, testEmail, "wrong-password-000")
	require.Error(t, err)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Equal(t, "Invalid credentials", statusErr.Message)
	assert.NotErrorIs(t, err, ErrRetryExhausted)
	assert.Equal(t, 0, server.RefreshCalls(), "bad credentials must not trigger a refresh")
	assert.EqualValues(t, 0, expired.Load())
	assert.False(t, authenticated(t, client))
}

func TestClient_RefreshesExpiredToken(t *testing.T) {
	ctx := context.Background()
	client, server, expired := newTestClient(t)
	_, err := client.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)
	before, _, err := client.Store().AccessToken(ctx)
	require.NoError(t, err)

	server.Expire()
	resp, err := client.Post(ctx, "/resource", map[string]string{"symptoms": "cough"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var data struct {
		Echo map[string]string `json:"echo"`
	}
	require.NoError(t, resp.Decode(&data))
	assert.Equal(t, "cough", data.Echo["symptoms"], "replayed request must carry the original body")

	after, _, err := client.Store().AccessToken(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
	assert.Equal(t, 1, server.RefreshCalls())
	assert.EqualValues(t, 0, expired.Load())
}

func TestClient_ConcurrentExpiryRefreshesOnce(t *testing.T) {
	ctx := context.Background()
	client, server, expired := newTestClient(t, mock.WithRefreshDelay(100*time.Millisecond))
	_, err := client.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)
	server.Expire()

	const requests = 10
	var wg sync.WaitGroup
	errs := make(chan error, requests)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Get(ctx, "/resource")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, server.RefreshCalls())
	assert.EqualValues(t, 0, expired.Load())
}

func TestClient_SessionExpired(t *testing.T) {
	ctx := context.Background()
	client, server, expired := newTestClient(t)
	notified := make(chan error, 2)
	client.OnSessionExpired(func(err error) { notified <- err })
	_, err := client.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	server.Expire()
	server.RevokeAll()
	_, err = client.Get(ctx, "/resource")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.ErrorIs(t, <-notified, ErrRefreshFailed)
	assert.EqualValues(t, 1, expired.Load())
	assert.False(t, authenticated(t, client))
	assert.Equal(t, 1, server.RefreshCalls())

	// logged out state: no refresh token, refresh short-circuits
	_, err = client.Get(ctx, "/resource")
	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.ErrorIs(t, <-notified, ErrRefreshFailed)
	assert.Equal(t, 1, server.RefreshCalls())
	assert.EqualValues(t, 2, expired.Load())
}

func TestClient_RetryExhausted(t *testing.T) {
	ctx := context.Background()
	client, server, expired := newTestClient(t)
	var calls atomic.Int32
	server.ResourceHandler = func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Invalid token"}`))
	}
	_, err := client.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	resp, err := client.Get(ctx, "/resource")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.EqualValues(t, 2, calls.Load())
	assert.Equal(t, 1, server.RefreshCalls())
	assert.EqualValues(t, 0, expired.Load())
	assert.True(t, authenticated(t, client), "refresh succeeded so the new pair is kept")
}

func TestClient_Logout(t *testing.T) {
	ctx := context.Background()
	client, server, _ := newTestClient(t)
	_, err := client.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)
	refreshToken, _, err := client.Store().RefreshToken(ctx)
	require.NoError(t, err)

	require.NoError(t, client.Logout(ctx))
	assert.False(t, authenticated(t, client))
	assert.Equal(t, 1, server.LogoutCalls())

	// the revoked refresh token can no longer be used
	require.NoError(t, client.Store().Set(ctx, "stale", refreshToken))
	_, err = client.Get(ctx, "/resource")
	assert.ErrorIs(t, err, ErrRefreshFailed)

	// logout without a session does not call the API
	require.NoError(t, client.Logout(ctx))
	assert.Equal(t, 1, server.LogoutCalls())
}

func TestClient_Register(t *testing.T) {
	ctx := context.Background()
	client, _, _ := newTestClient(t)
	age := 42
	resp, err := client.Register(ctx, &Registration{Email: "new@example.com", Password: "new-password-123", Age: &age})
	require.NoError(t, err)
	assert.Equal(t, "Registered successfully", resp.Message)
	assert.False(t, authenticated(t, client))

	_, err = client.Register(ctx, &Registration{Email: "new@example.com", Password: "new-password-123"})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, "Email already registered", statusErr.Message)

	_, err = client.Login(ctx, "new@example.com", "new-password-123")
	require.NoError(t, err)
}

func TestClient_SessionListenersDoNotHoldRequests(t *testing.T) {
	ctx := context.Background()
	client, server, expired := newTestClient(t)
	blocked := make(chan error)
	client.OnSessionExpired(func(err error) { panic("listener failure") })
	client.OnSessionExpired(func(err error) { blocked <- err })
	_, err := client.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)
	server.Expire()
	server.RevokeAll()

	done := make(chan error, 1)
	go func() {
		_, err := client.Get(ctx, "/resource")
		done <- err
	}()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrRefreshFailed)
	case <-time.After(2 * time.Second):
		t.Fatal("request still waiting on a session expired listener")
	}
	// a panicking listener does not stop the ones after it
	select {
	case err := <-blocked:
		assert.ErrorIs(t, err, ErrRefreshFailed)
	case <-time.After(2 * time.Second):
		t.Fatal("session expired listener was not called")
	}
	assert.EqualValues(t, 1, expired.Load())
}

func TestClient_RefreshPath(t *testing.T) {
	ctx := context.Background()
	server, err := mock.NewHTTPTestServer(mock.WithUser(testEmail, testPassword), mock.WithRefreshPath("/session/renew"))
	require.NoError(t, err)
	t.Cleanup(server.Close)

	var testCases = []struct {
		description string
		refreshPath string
		expectErr   bool
	}{
		{description: "configured path", refreshPath: "/session/renew"},
		{description: "default path is not served", expectErr: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			client, err := New(ctx, &ClientOptions{BaseURL: server.BaseURL, RefreshPath: testCase.refreshPath})
			require.NoError(t, err)
			defer client.Close()
			_, err = client.Login(ctx, testEmail, testPassword)
			require.NoError(t, err)
			calls := server.RefreshCalls()

			server.Expire()
			resp, err := client.Get(ctx, "/resource")
			if testCase.expectErr {
				assert.ErrorIs(t, err, ErrRefreshFailed)
				assert.Equal(t, calls, server.RefreshCalls())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, calls+1, server.RefreshCalls())
		})
	}
}

func TestClient_OAuth2Refresh(t *testing.T) {
	ctx := context.Background()
	var grants atomic.Int32
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("grant_type") != "refresh_token" || r.Form.Get("refresh_token") != "R1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		grants.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"A2","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(tokenServer.Close)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer A2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"ok":true}}`))
	}))
	t.Cleanup(api.Close)

	client, err := New(ctx, &ClientOptions{
		BaseURL: api.URL,
		OAuth2:  OAuth2Options{TokenURL: tokenServer.URL, ClientID: "cli"},
	})
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.Store().Set(ctx, "A1", "R1"))

	resp, err := client.Get(ctx, "/entries")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.EqualValues(t, 1, grants.Load())

	token, err := client.TokenSource(ctx).Token()
	require.NoError(t, err)
	assert.Equal(t, "A2", token.AccessToken)
	assert.Equal(t, "R1", token.RefreshToken, "refresh token kept when the provider omits it")
}

func TestStatusError_Retried(t *testing.T) {
	var testCases = []struct {
		description string
		status      int
		replayed    bool
		expect      bool
	}{
		{description: "rejected after replay", status: http.StatusUnauthorized, replayed: true, expect: true},
		{description: "rejected without replay", status: http.StatusUnauthorized},
		{description: "other status after replay", status: http.StatusForbidden, replayed: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			err := newStatusError(&Response{StatusCode: testCase.status}, testCase.replayed)
			assert.Equal(t, testCase.expect, err.Retried)
			assert.Equal(t, testCase.expect, errors.Is(err, ErrRetryExhausted))
		})
	}
}
