package mock

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	accessTokenType  = "access"
	refreshTokenType = "refresh"
)

// createJWT creates a signed JWT for subject with the given type and expiry, registering its jti
func (m *APIService) createJWT(subject, tokenType string, expiry time.Duration) (string, error) {
	now := time.Now()
	jti := uuid.NewString()
	claims := jwt.MapClaims{
		"iss":  m.Issuer,
		"sub":  subject,
		"exp":  now.Add(expiry).Unix(),
		"iat":  now.Unix(),
		"jti":  jti,
		"type": tokenType,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(m.PrivateKey)
	if err != nil {
		return "", err
	}
	m.mux.Lock()
	defer m.mux.Unlock()
	if tokenType == refreshTokenType {
		m.refreshTokens[jti] = true
	} else {
		m.accessTokens[jti] = true
	}
	return signed, nil
}

// verifyJWT parses a token signed by this server and checks its type and that it was not revoked
func (m *APIService) verifyJWT(tokenString, tokenType string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &m.PrivateKey.PublicKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}
	if claims["type"] != tokenType {
		return nil, errors.New("invalid token type")
	}
	jti, _ := claims["jti"].(string)
	m.mux.RLock()
	defer m.mux.RUnlock()
	active := m.accessTokens[jti]
	if tokenType == refreshTokenType {
		active = m.refreshTokens[jti]
	}
	if !active {
		return nil, errors.New("token expired or revoked")
	}
	return claims, nil
}

// revoke marks a refresh token as used
func (m *APIService) revoke(claims jwt.MapClaims) {
	jti, _ := claims["jti"].(string)
	m.mux.Lock()
	defer m.mux.Unlock()
	m.refreshTokens[jti] = false
}
