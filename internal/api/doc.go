// Package api provides an HTTP client for the couple-diary backend.
//
// # Overview
//
// Client wraps net/http with the behaviour every call shares, and one file per
// backend resource maps typed Go calls onto exact REST endpoints:
//
//   - client.go: request pipeline (token, content type, 401 event, decoding)
//   - auth.go: /api/auth (login, register)
//   - users.go: /api/users (profile, search, partner pairing, push, account)
//   - diary.go: /api/diary (write, edit, lists, month and day views)
//   - anniversary.go: /api/anniversary
//   - photos.go: /api/photos (monthly couple photo)
//   - types.go: data structures mirroring the backend schemas
//
// # Request Pipeline
//
// Every request:
//   - Reads the bearer token from the configured prefs.Storage (never cached)
//     and sends Authorization: Bearer <token> when one exists
//   - Sends Content-Type: application/json, except for multipart bodies,
//     which keep the writer's boundary-aware multipart/form-data type
//   - Sets Accept, User-Agent and a fresh X-Request-ID
//
// Multipart is used for login (OAuth2 password form), diary creation with
// photos and the monthly photo upload. Everything else is JSON.
//
// # Unauthorized Responses
//
// A 401 response emits the client's "unauthorized" event: the registered
// UnauthorizedHandler is called before the error is returned. The handler
// (the session) decides whether to clear the token and redirect; the client
// itself holds no navigation policy and never swallows the error.
//
// # Error Handling
//
//   - Network errors: "execute request: ..."
//   - HTTP errors: *APIError with the FastAPI detail, e.g.
//     "api POST /api/auth/login returned status 401: Incorrect email or password"
//   - Deserialization errors: "decode response: ..."
//   - Schema violations: "invalid response: ..." (go-playground/validator)
//
// errors.Is(err, ErrUnauthorized) and errors.Is(err, ErrNotFound) match the
// corresponding statuses.
//
// # Design Rationale
//
//   - No caching, no retries, no pagination: every call is fire-once
//   - No cancellation beyond the caller's context
//
// The Client is safe for concurrent use.
package api
