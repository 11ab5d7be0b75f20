package api

import (
	"context"
	"fmt"
	"net/http"
)

// Login exchanges credentials for an access token. The backend expects an
// OAuth2 password form, so the body is multipart rather than JSON.
func (c *Client) Login(ctx context.Context, req LoginRequest) (AuthResponse, error) {
	body, err := newMultipartBody([]formField{
		{name: "username", value: req.Username},
		{name: "password", value: req.Password},
	}, nil)
	if err != nil {
		return AuthResponse{}, fmt.Errorf("encode login: %w", err)
	}
	var payload AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &payload); err != nil {
		return AuthResponse{}, err
	}
	return payload, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (User, error) {
	var payload User
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", req, &payload); err != nil {
		return User{}, err
	}
	return payload, nil
}
