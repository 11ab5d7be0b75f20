// Package ui provides the terminal user interface for lovary.
//
// # Architecture Overview
//
// The UI is a single Bubble Tea model. Each router path mounts one view:
//
//   - /: home, a greeting and the way in
//   - /login and /register: credential forms backed by the session
//   - /diary: month calendar, day detail, entry lists and the compose form
//   - /profile: account details and partner requests
//
// Navigation always goes through the router so the auth guard runs. The
// model never switches views on its own: it pushes a path from a command and
// mounts whatever route the router settles on, which arrives as a message
// via the router subscription installed in Run.
//
// # Data Flow
//
//  1. The poller refreshes state.Store in the background.
//  2. A tick copies the latest snapshot into the model.
//  3. Views call the Backend from commands and fold results back in Update.
//  4. A 401 anywhere clears the session and the router lands on /login.
//
// # Overlays
//
//   - ?: key reference
//   - L: activity log, a tail of this client's own log file
//   - confirmation dialogs for destructive actions
//
// The theme is cycled with T and remembered in the state file.
package ui
