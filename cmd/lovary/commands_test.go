package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.FormValue("username") != "ana@example.com" || r.FormValue("password") != "s3cret pw" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Incorrect email or password"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"tok123","token_type":"bearer"}`))
	})
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok123" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"detail":"Not authenticated"}`))
				return
			}
			h(w, r)
		}
	}
	mux.HandleFunc("GET /api/users/me", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":1,"email":"ana@example.com","name":"Ana","partner_id":null,"created_at":"2024-01-01T00:00:00"}`))
	}))
	mux.HandleFunc("GET /api/diary/my", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":5,"title":"First day","content":"hello","author_id":1,"created_at":"2024-05-01T12:00:00","is_read_by_partner":true}]`))
	}))
	mux.HandleFunc("POST /api/anniversary/", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":3,"date":"2024-02-14","name":"First date","user_id":1,"partner_id":0}`))
	}))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeTestConfig(t *testing.T, apiURL string) (configPath, statePath string) {
	t.Helper()
	dir := t.TempDir()
	statePath = filepath.Join(dir, "state.toml")
	configPath = filepath.Join(dir, "config.toml")
	content := fmt.Sprintf("api_url = %q\nstate_path = %q\nlog_dir = %q\n",
		apiURL, statePath, filepath.Join(dir, "logs"))
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath, statePath
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoginWhoamiLogout(t *testing.T) {
	srv := newBackend(t)
	configPath, statePath := writeTestConfig(t, srv.URL)

	out, err := execute(t, "s3cret pw\n", "--config", configPath, "login", "--email", "ana@example.com")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "Logged in as Ana") {
		t.Fatalf("login output = %q", out)
	}
	state, err := os.ReadFile(statePath)
	if err != nil || !strings.Contains(string(state), "tok123") {
		t.Fatalf("state file = %q (%v), want stored token", state, err)
	}

	out, err = execute(t, "", "--config", configPath, "whoami")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(out, "Ana <ana@example.com>") || !strings.Contains(out, "partner: none") {
		t.Fatalf("whoami output = %q", out)
	}

	out, err = execute(t, "", "--config", configPath, "diary", "list")
	if err != nil {
		t.Fatalf("diary list: %v", err)
	}
	if !strings.Contains(out, "First day") || !strings.Contains(out, "2024-05-01") {
		t.Fatalf("diary list output = %q", out)
	}

	if _, err := execute(t, "", "--config", configPath, "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := execute(t, "", "--config", configPath, "whoami"); err == nil || !strings.Contains(err.Error(), "not logged in") {
		t.Fatalf("whoami after logout error = %v, want not logged in", err)
	}
}

func TestLoginFailureShowsDetail(t *testing.T) {
	srv := newBackend(t)
	configPath, statePath := writeTestConfig(t, srv.URL)

	_, err := execute(t, "wrong\n", "--config", configPath, "login", "--email", "ana@example.com")
	if err == nil || !strings.Contains(err.Error(), "Incorrect email or password") {
		t.Fatalf("login error = %v, want backend detail", err)
	}
	if data, _ := os.ReadFile(statePath); strings.Contains(string(data), "token") {
		t.Fatalf("state file = %q, want no token", data)
	}
}

func TestFailedLoginKeepsStoredSession(t *testing.T) {
	srv := newBackend(t)
	configPath, statePath := writeTestConfig(t, srv.URL)

	if _, err := execute(t, "s3cret pw\n", "--config", configPath, "login", "-e", "ana@example.com"); err != nil {
		t.Fatalf("login: %v", err)
	}
	before, err := os.ReadFile(statePath)
	if err != nil {
		t.Fatalf("read state: %v", err)
	}

	if _, err := execute(t, "wrong\n", "--config", configPath, "login", "-e", "ana@example.com"); err == nil {
		t.Fatalf("login with wrong password succeeded")
	}
	after, err := os.ReadFile(statePath)
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	if string(after) != string(before) {
		t.Fatalf("state file = %q, want %q", after, before)
	}

	out, err := execute(t, "", "--config", configPath, "whoami")
	if err != nil {
		t.Fatalf("whoami after failed login: %v", err)
	}
	if !strings.Contains(out, "Ana <ana@example.com>") {
		t.Fatalf("whoami output = %q", out)
	}
}

func TestAnniversaryAdd(t *testing.T) {
	srv := newBackend(t)
	configPath, _ := writeTestConfig(t, srv.URL)

	if _, err := execute(t, "s3cret pw\n", "--config", configPath, "login", "-e", "ana@example.com"); err != nil {
		t.Fatalf("login: %v", err)
	}
	out, err := execute(t, "", "--config", configPath, "anniversary", "add", "2024-02-14", "First", "date")
	if err != nil {
		t.Fatalf("anniversary add: %v", err)
	}
	if !strings.Contains(out, "Saved First date on 2024-02-14") {
		t.Fatalf("output = %q", out)
	}
}

func TestArgumentValidation(t *testing.T) {
	configPath, _ := writeTestConfig(t, "http://localhost:1")

	if _, err := execute(t, "", "--config", configPath, "diary", "day", "May 1"); err == nil {
		t.Fatalf("diary day accepted a malformed date")
	}
	if _, err := execute(t, "", "--config", configPath, "partner", "accept", "abc"); err == nil {
		t.Fatalf("partner accept accepted a non-numeric id")
	}
	if _, err := execute(t, "", "--config", configPath, "diary", "write", "--title", "t"); err == nil {
		t.Fatalf("diary write accepted an empty body")
	}
}
