package authhttp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// Tokens represents login result
type Tokens struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

// Registration represents a new account
type Registration struct {
	Email           string   `json:"email"`
	Password        string   `json:"password"`
	Age             *int     `json:"age,omitempty"`
	Sex             string   `json:"sex,omitempty"`
	Height          *float64 `json:"height,omitempty"`
	Weight          *float64 `json:"weight,omitempty"`
	KnownConditions []string `json:"known_conditions,omitempty"`
	Medications     []string `json:"medications,omitempty"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Login exchanges credentials for a token pair and stores it
func (c *Client) Login(ctx context.Context, email, password string) (*Tokens, error) {
	resp, err := c.Send(ctx, &Request{
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Body:        &credentials{Email: email, Password: password},
		SkipRefresh: true,
	})
	if err != nil {
		return nil, err
	}
	tokens := &Tokens{}
	if err = resp.Decode(tokens); err != nil {
		return nil, fmt.Errorf("invalid login response: %w", err)
	}
	if err = c.store.Set(ctx, tokens.AccessToken, tokens.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to store tokens: %w", err)
	}
	return tokens, nil
}

// Register creates an account, it does not log in
func (c *Client) Register(ctx context.Context, registration *Registration) (*Response, error) {
	return c.Send(ctx, &Request{
		Method:      http.MethodPost,
		Path:        "/auth/register",
		Body:        registration,
		SkipRefresh: true,
	})
}

// Logout revokes the refresh token on a best effort basis and always clears the store
func (c *Client) Logout(ctx context.Context) error {
	refreshToken, ok, err := c.store.RefreshToken(ctx)
	if err != nil {
		c.logger.Warn("failed to read refresh token", slog.String("err", err.Error()))
	}
	if ok {
		_, err := c.Send(ctx, &Request{
			Method:      http.MethodPost,
			Path:        "/auth/logout",
			Body:        &logoutRequest{RefreshToken: refreshToken},
			SkipRefresh: true,
		})
		if err != nil {
			c.logger.Warn("logout call failed", slog.String("err", err.Error()))
		}
	}
	return c.store.Clear(ctx)
}

// Authenticated reports whether an access token is stored
func (c *Client) Authenticated(ctx context.Context) (bool, error) {
	token, ok, err := c.store.AccessToken(ctx)
	if err != nil {
		return false, err
	}
	return ok && token != "", nil
}
