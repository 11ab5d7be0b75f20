// Package session owns the bearer token.
//
// Session is the only writer of the persisted token. It logs in and out,
// reacts to the API client's unauthorized event, and keeps its in-memory copy
// aligned with storage when another process changes the state file.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/lovary/lovary/internal/api"
	"github.com/lovary/lovary/internal/prefs"
	"github.com/lovary/lovary/internal/router"
)

// ErrSessionChanged is returned by Login when a logout happened while the
// login request was in flight. The stale result is discarded.
var ErrSessionChanged = errors.New("session changed during login")

// AuthAPI is the subset of the API client the session needs.
type AuthAPI interface {
	Login(ctx context.Context, req api.LoginRequest) (api.AuthResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (api.User, error)
}

// Navigator moves the UI between routes.
type Navigator interface {
	Push(path string)
	CurrentPath() string
}

// Session holds the current token.
type Session struct {
	auth    AuthAPI
	storage prefs.Storage
	nav     Navigator
	logger  *zap.Logger

	mu    sync.Mutex
	token string
	// epoch increments whenever the token is dropped so in-flight logins can tell they
	// were overtaken.
	epoch uint64
}

// New returns a Session whose token is initialised from storage.
func New(auth AuthAPI, storage prefs.Storage, nav Navigator, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		auth:    auth,
		storage: storage,
		nav:     nav,
		logger:  logger,
		token:   prefs.Token(storage),
	}
}

// Login exchanges credentials for a token, persists it and navigates to the
// diary. On failure nothing is changed.
func (s *Session) Login(ctx context.Context, email, password string) error {
	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	resp, err := s.auth.Login(ctx, api.LoginRequest{
		Username: strings.TrimSpace(email),
		Password: password,
	})
	if err != nil {
		s.logger.Info("login failed", zap.Error(err))
		return fmt.Errorf("login: %w", err)
	}
	token := strings.TrimSpace(resp.AccessToken)
	if token == "" {
		return fmt.Errorf("login: empty access token")
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		s.logger.Info("discarding login overtaken by logout")
		return ErrSessionChanged
	}
	if err := s.storage.Set(prefs.TokenKey, token); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("persist token: %w", err)
	}
	s.token = token
	s.mu.Unlock()

	s.logger.Info("logged in")
	s.navigate(router.PathDiary)
	return nil
}

// Register creates the account and then logs in with the same credentials.
func (s *Session) Register(ctx context.Context, email, password, name string) error {
	user, err := s.auth.Register(ctx, api.RegisterRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
		Name:     strings.TrimSpace(name),
	})
	if err != nil {
		s.logger.Info("register failed", zap.Error(err))
		return fmt.Errorf("register: %w", err)
	}
	s.logger.Info("registered", zap.Int64("user_id", user.ID))
	return s.Login(ctx, email, password)
}

// Logout clears the token everywhere and returns to the landing route.
// It never fails; a storage error is only logged.
func (s *Session) Logout() {
	s.mu.Lock()
	s.token = ""
	s.epoch++
	if err := s.storage.Remove(prefs.TokenKey); err != nil {
		s.logger.Warn("remove token", zap.Error(err))
	}
	s.mu.Unlock()

	s.logger.Info("logged out")
	s.navigate(router.PathHome)
}

// IsAuthenticated reports whether a token is held.
func (s *Session) IsAuthenticated() bool {
	return s.Token() != ""
}

// Token returns the in-memory token.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// HandleUnauthorized implements api.UnauthorizedHandler. Outside the login
// and register screens it drops the token and forces the login route.
// Logins already in flight are discarded, as with Logout.
func (s *Session) HandleUnauthorized(ctx context.Context) {
	if s.nav != nil && router.IsAuthRoute(s.nav.CurrentPath()) {
		s.logger.Debug("unauthorized on auth route, not redirecting")
		return
	}

	s.mu.Lock()
	s.token = ""
	s.epoch++
	if err := s.storage.Remove(prefs.TokenKey); err != nil {
		s.logger.Warn("remove token", zap.Error(err))
	}
	s.mu.Unlock()

	s.logger.Info("session expired, redirecting to login")
	s.navigate(router.PathLogin)
}

// Sync reloads the token from storage and reports whether it changed.
// A token that disappeared is treated like a logout for in-flight logins.
func (s *Session) Sync() bool {
	stored := prefs.Token(s.storage)

	s.mu.Lock()
	defer s.mu.Unlock()
	if stored == s.token {
		return false
	}
	if stored == "" {
		s.epoch++
	}
	s.token = stored
	s.logger.Info("token changed on disk", zap.Bool("authenticated", stored != ""))
	return true
}

func (s *Session) navigate(path string) {
	if s.nav != nil {
		s.nav.Push(path)
	}
}
