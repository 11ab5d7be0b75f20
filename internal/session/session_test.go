package session

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lovary/lovary/internal/api"
	"github.com/lovary/lovary/internal/prefs"
	"github.com/lovary/lovary/internal/router"
)

type fakeAuth struct {
	mu          sync.Mutex
	token       string
	loginErr    error
	registerErr error
	logins      []api.LoginRequest
	registers   []api.RegisterRequest
	// block, when set, holds Login until it is closed.
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeAuth) Login(ctx context.Context, req api.LoginRequest) (api.AuthResponse, error) {
	f.mu.Lock()
	f.logins = append(f.logins, req)
	block, entered := f.block, f.entered
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if f.loginErr != nil {
		return api.AuthResponse{}, f.loginErr
	}
	return api.AuthResponse{AccessToken: f.token, TokenType: "bearer"}, nil
}

func (f *fakeAuth) Register(ctx context.Context, req api.RegisterRequest) (api.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registers = append(f.registers, req)
	if f.registerErr != nil {
		return api.User{}, f.registerErr
	}
	return api.User{ID: 1, Email: req.Email}, nil
}

type failingStore struct{ prefs.Storage }

func (failingStore) Remove(string) error { return errors.New("disk full") }

func TestLogin_PersistsTokenAndNavigatesToDiary(t *testing.T) {
	store := prefs.NewMemoryStore()
	nav := router.New(store, nil)
	auth := &fakeAuth{token: "tok123"}
	s := New(auth, store, nav, nil)

	require.NoError(t, s.Login(context.Background(), " a@x.com ", "pw"))

	assert.Equal(t, "tok123", prefs.Token(store))
	assert.Equal(t, "tok123", s.Token())
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, router.PathDiary, nav.CurrentPath())
	require.Len(t, auth.logins, 1)
	assert.Equal(t, api.LoginRequest{Username: "a@x.com", Password: "pw"}, auth.logins[0])
}

func TestLogin_FailureLeavesStateUntouched(t *testing.T) {
	store := prefs.NewMemoryStore()
	nav := router.New(store, nil)
	nav.Push(router.PathLogin)
	boom := &api.APIError{Method: "POST", Path: "/api/auth/login", StatusCode: 401, Detail: "Incorrect email or password"}
	s := New(&fakeAuth{loginErr: boom}, store, nav, nil)

	err := s.Login(context.Background(), "a@x.com", "bad")
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, prefs.Token(store))
	assert.Equal(t, router.PathLogin, nav.CurrentPath())
}

func TestRegister_LogsInWithSameCredentials(t *testing.T) {
	store := prefs.NewMemoryStore()
	nav := router.New(store, nil)
	auth := &fakeAuth{token: "tok-new"}
	s := New(auth, store, nav, nil)

	require.NoError(t, s.Register(context.Background(), "b@x.com", "pw2", "B"))

	require.Len(t, auth.registers, 1)
	assert.Equal(t, api.RegisterRequest{Email: "b@x.com", Password: "pw2", Name: "B"}, auth.registers[0])
	require.Len(t, auth.logins, 1)
	assert.Equal(t, "b@x.com", auth.logins[0].Username)
	assert.Equal(t, "tok-new", prefs.Token(store))
	assert.Equal(t, router.PathDiary, nav.CurrentPath())
}

func TestRegister_FailureSkipsLogin(t *testing.T) {
	store := prefs.NewMemoryStore()
	auth := &fakeAuth{token: "tok", registerErr: errors.New("Email already registered")}
	s := New(auth, store, router.New(store, nil), nil)

	err := s.Register(context.Background(), "b@x.com", "pw", "B")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Email already registered")
	assert.Empty(t, auth.logins)
	assert.Empty(t, prefs.Token(store))
}

func TestLogout_AlwaysClearsAndNeverFails(t *testing.T) {
	for _, initial := range []string{"", "tok123"} {
		store := prefs.NewMemoryStore()
		if initial != "" {
			require.NoError(t, store.Set(prefs.TokenKey, initial))
		}
		nav := router.New(store, nil)
		nav.Push(router.PathProfile)
		s := New(&fakeAuth{}, store, nav, nil)

		s.Logout()

		assert.Empty(t, s.Token(), "initial=%q", initial)
		assert.Empty(t, prefs.Token(store), "initial=%q", initial)
		assert.Equal(t, router.PathHome, nav.CurrentPath(), "initial=%q", initial)
	}
}

func TestLogout_StorageErrorIsSwallowed(t *testing.T) {
	mem := prefs.NewMemoryStore()
	require.NoError(t, mem.Set(prefs.TokenKey, "tok"))
	s := New(&fakeAuth{}, failingStore{mem}, nil, nil)

	assert.NotPanics(t, s.Logout)
	assert.False(t, s.IsAuthenticated())
}

func TestHandleUnauthorized_RedirectsOutsideAuthRoutes(t *testing.T) {
	store := prefs.NewMemoryStore()
	require.NoError(t, store.Set(prefs.TokenKey, "tok123"))
	nav := router.New(store, nil)
	nav.Push(router.PathProfile)
	require.Equal(t, router.PathProfile, nav.CurrentPath())
	s := New(&fakeAuth{}, store, nav, nil)

	s.HandleUnauthorized(context.Background())

	assert.Empty(t, prefs.Token(store))
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, router.PathLogin, nav.CurrentPath())
}

func TestHandleUnauthorized_IgnoredOnAuthRoutes(t *testing.T) {
	for _, path := range []string{router.PathLogin, router.PathRegister} {
		store := prefs.NewMemoryStore()
		nav := router.New(store, nil)
		nav.Push(path)
		// A stale token written after navigation must survive.
		require.NoError(t, store.Set(prefs.TokenKey, "stale"))
		s := New(&fakeAuth{}, store, nav, nil)

		var pushes int
		nav.Subscribe(func(router.Route) { pushes++ })
		s.HandleUnauthorized(context.Background())

		assert.Equal(t, "stale", prefs.Token(store), path)
		assert.Equal(t, path, nav.CurrentPath(), path)
		assert.Zero(t, pushes, path)
	}
}

func TestLogin_DiscardedWhenLogoutHappensInFlight(t *testing.T) {
	store := prefs.NewMemoryStore()
	nav := router.New(store, nil)
	auth := &fakeAuth{token: "late", block: make(chan struct{}), entered: make(chan struct{}, 1)}
	s := New(auth, store, nav, nil)

	done := make(chan error, 1)
	go func() { done <- s.Login(context.Background(), "a@x.com", "pw") }()

	select {
	case <-auth.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("login never reached the auth API")
	}
	s.Logout()
	close(auth.block)

	err := <-done
	assert.ErrorIs(t, err, ErrSessionChanged)
	assert.Empty(t, prefs.Token(store))
	assert.Equal(t, router.PathHome, nav.CurrentPath())
}

func TestLogin_DiscardedWhenSessionExpiresInFlight(t *testing.T) {
	store := prefs.NewMemoryStore()
	require.NoError(t, store.Set(prefs.TokenKey, "old"))
	nav := router.New(store, nil)
	nav.Push(router.PathDiary)
	auth := &fakeAuth{token: "late", block: make(chan struct{}), entered: make(chan struct{}, 1)}
	s := New(auth, store, nav, nil)

	done := make(chan error, 1)
	go func() { done <- s.Login(context.Background(), "a@x.com", "pw") }()

	select {
	case <-auth.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("login never reached the auth API")
	}
	s.HandleUnauthorized(context.Background())
	close(auth.block)

	err := <-done
	assert.ErrorIs(t, err, ErrSessionChanged)
	assert.Empty(t, prefs.Token(store))
	assert.Equal(t, router.PathLogin, nav.CurrentPath())
}

func TestSync_FollowsExternalChanges(t *testing.T) {
	store := prefs.NewMemoryStore()
	s := New(&fakeAuth{}, store, nil, nil)

	assert.False(t, s.Sync())

	require.NoError(t, store.Set(prefs.TokenKey, "from-other-process"))
	assert.True(t, s.Sync())
	assert.Equal(t, "from-other-process", s.Token())

	require.NoError(t, store.Remove(prefs.TokenKey))
	assert.True(t, s.Sync())
	assert.False(t, s.IsAuthenticated())
}

func TestClaims(t *testing.T) {
	store := prefs.NewMemoryStore()
	s := New(&fakeAuth{}, store, nil, nil)

	_, err := s.Claims()
	assert.ErrorIs(t, err, ErrNoToken)

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "a@x.com",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	require.NoError(t, store.Set(prefs.TokenKey, signed))
	require.True(t, s.Sync())

	claims, err := s.Claims()
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Subject)
	assert.True(t, claims.ExpiresAt.Equal(exp))
	assert.False(t, claims.Expired(time.Now()))
	assert.True(t, claims.Expired(exp.Add(time.Minute)))

	require.NoError(t, store.Set(prefs.TokenKey, "tok123"))
	require.True(t, s.Sync())
	_, err = s.Claims()
	assert.ErrorIs(t, err, ErrOpaqueToken)
}

// End to end through the real client: login, bearer on the next call, and a
// 401 on a protected route.
func TestSession_WithClient(t *testing.T) {
	var mu sync.Mutex
	var authHeaders []string
	expired := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/auth/login":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if r.FormValue("username") != "a@x.com" || r.FormValue("password") != "pw" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"detail":"Incorrect email or password"}`)
				return
			}
			_, _ = io.WriteString(w, `{"access_token":"tok123","token_type":"bearer"}`)
		case "/api/users/me":
			mu.Lock()
			authHeaders = append(authHeaders, r.Header.Get("Authorization"))
			isExpired := expired
			mu.Unlock()
			if isExpired {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"detail":"Could not validate credentials"}`)
				return
			}
			_, _ = io.WriteString(w, `{"id":1,"email":"a@x.com","created_at":"2024-05-01T10:00:00"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	store := prefs.NewMemoryStore()
	nav := router.New(store, nil)
	client, err := api.NewClient(server.URL, api.WithTokenSource(store))
	require.NoError(t, err)
	s := New(client, store, nav, nil)
	client.OnUnauthorized(s)
	ctx := context.Background()

	// A rejected login on /login keeps the user there.
	nav.Push(router.PathLogin)
	require.Error(t, s.Login(ctx, "a@x.com", "wrong"))
	assert.Equal(t, router.PathLogin, nav.CurrentPath())

	require.NoError(t, s.Login(ctx, "a@x.com", "pw"))
	assert.Equal(t, "tok123", prefs.Token(store))
	assert.Equal(t, router.PathDiary, nav.CurrentPath())

	_, err = client.Me(ctx)
	require.NoError(t, err)

	nav.Push(router.PathProfile)
	mu.Lock()
	expired = true
	mu.Unlock()
	_, err = client.Me(ctx)
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Empty(t, prefs.Token(store))
	assert.Equal(t, router.PathLogin, nav.CurrentPath())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Bearer tok123", "Bearer tok123"}, authHeaders)
}
