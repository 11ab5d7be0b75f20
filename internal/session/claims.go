package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrOpaqueToken means the token is not a JWT and carries no claims.
	ErrOpaqueToken = errors.New("token is not a JWT")
	// ErrNoToken means there is no session.
	ErrNoToken = errors.New("no token")
)

// Claims is the readable part of the backend's access token.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token's expiry lies before now. Tokens
// without an expiry never expire.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Claims decodes the token without verifying its signature. The signing key
// belongs to the backend; the client only reads subject and expiry for
// display.
func (s *Session) Claims() (Claims, error) {
	token := s.Token()
	if token == "" {
		return Claims{}, ErrNoToken
	}
	return parseClaims(token)
}

func parseClaims(token string) (Claims, error) {
	var registered jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &registered); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrOpaqueToken, err)
	}
	claims := Claims{Subject: registered.Subject}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}
	return claims, nil
}
