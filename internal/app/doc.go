// Package app provides the orchestration layer for lovary.
//
// # Overview
//
// This package wires configuration, logging, token storage, the API client,
// the router, the session, the background poller and the UI together. It is
// the composition root shared by the TUI and the one-shot CLI commands.
//
// # Wiring
//
//	┌──────────────┐
//	│   Open()     │
//	└──────┬───────┘
//	       ├─────> config.Load()         Read ~/.config/lovary/config.toml
//	       ├─────> logging.New()         Rotating JSON log with token redaction
//	       ├─────> prefs.NewFileStore()  Token and theme state file
//	       ├─────> api.NewClient()       Bearer token read from storage per request
//	       ├─────> router.New()          Guarded navigation
//	       └─────> session.New()         Subscribed to the client's 401 event
//
//	Run() additionally:
//	       ├─────> WatchState()          Follow logins/logouts from other processes
//	       ├─────> StartPoller()         Profile, partner requests, partner entries
//	       └─────> ui.Run()              Start TUI (blocks)
//
// # Polling Behavior
//
// The poller refreshes the shared state.Store every PollInterval (default 30
// seconds) while a token is held, and clears it when the session ends. After
// consecutive failures the delay doubles up to five minutes. Views can ask
// for an immediate refresh after a mutation.
//
// # Error Handling
//
// Fatal errors (returned from Open or Run):
//   - config file present but unreadable or invalid
//   - log directory or API URL unusable
//
// Recoverable errors (logged, surfaced in the UI):
//   - refresh failures, network timeouts
//   - a 401, which ends the session and lands on the login route
package app
