// Package config handles loading and parsing lovary's configuration file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/lovary/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing/empty, use defaults
//  5. LOVARY_API_URL, when non-blank, overrides api_url in every case
//
// # Default Values
//
//   - Config file: ~/.config/lovary/config.toml
//   - API base URL: http://localhost:8000
//   - State file: ~/.config/lovary/state.toml (holds the session token)
//   - Log directory: ~/.local/share/lovary/logs
//   - Log level: info
//   - Request timeout: 10s
//   - Poll interval: 30s
//
// # TOML Format
//
//	api_url = "https://api.example.com"
//	state_path = "~/.config/lovary/state.toml"
//	log_dir = "~/.local/share/lovary/logs"
//	log_level = "debug"
//	request_timeout = 10
//	poll_interval = 30
//
// All fields are optional. Tilde expansion is performed on paths.
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read errors (except os.ErrNotExist, which triggers defaults)
//   - TOML parsing errors
//
// Missing config files are NOT an error. lovary works against a local
// backend without any configuration.
package config
