package mock

import (
	"encoding/json"
	"net/http"
	"time"
)

type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Errors  interface{} `json:"errors,omitempty"`
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func writeSuccess(w http.ResponseWriter, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(&envelope{Success: true, Message: message, Data: data})
}

// writeDetail mimics the error body of the real backend
func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

func (m *APIService) issueTokens(subject string) (*tokenResponse, error) {
	accessToken, err := m.createJWT(subject, accessTokenType, m.AccessTTL)
	if err != nil {
		return nil, err
	}
	refreshToken, err := m.createJWT(subject, refreshTokenType, m.RefreshTTL)
	if err != nil {
		return nil, err
	}
	return &tokenResponse{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		TokenType:        "bearer",
		ExpiresInSeconds: int(m.AccessTTL / time.Second),
	}, nil
}

// defaultLoginHandler handles /auth/login requests
func (m *APIService) defaultLoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeDetail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var input credentials
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	m.mux.RLock()
	password, ok := m.users[input.Email]
	m.mux.RUnlock()
	if !ok || password != input.Password {
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	tokens, err := m.issueTokens(input.Email)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeSuccess(w, tokens, "Login successful")
}

// defaultRegisterHandler handles /auth/register requests
func (m *APIService) defaultRegisterHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeDetail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var input credentials
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Email == "" || len(input.Password) < 8 {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid registration")
		return
	}
	m.mux.Lock()
	if _, exists := m.users[input.Email]; exists {
		m.mux.Unlock()
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	m.users[input.Email] = input.Password
	count := len(m.users)
	m.mux.Unlock()
	writeSuccess(w, map[string]interface{}{"id": count, "email": input.Email}, "Registered successfully")
}

// defaultRefreshHandler rotates a refresh token, the presented one is revoked
func (m *APIService) defaultRefreshHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeDetail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if m.RefreshDelay > 0 {
		time.Sleep(m.RefreshDelay)
	}
	var input refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	claims, err := m.verifyJWT(input.RefreshToken, refreshTokenType)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Refresh token expired or revoked")
		return
	}
	m.revoke(claims)
	subject, _ := claims["sub"].(string)
	tokens, err := m.issueTokens(subject)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeSuccess(w, tokens, "Token refreshed")
}

// defaultLogoutHandler revokes the presented refresh token, it always succeeds
func (m *APIService) defaultLogoutHandler(w http.ResponseWriter, r *http.Request) {
	var input refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err == nil {
		if claims, err := m.verifyJWT(input.RefreshToken, refreshTokenType); err == nil {
			m.revoke(claims)
		}
	}
	writeSuccess(w, nil, "Logged out")
}
