// Package config loads seer's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/seer/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. Empty fields use defaults
//  5. SEER_API_URL, SEER_LOG_LEVEL, SEER_TOKEN_STORE and SEER_REDIS_ADDR
//     override whatever the file says
//
// # Default Values
//
//   - api_url: http://localhost:8000
//   - request_timeout: 30s
//   - poll_interval: 2s
//   - token_store: file (also memory or redis)
//   - token_file: ~/.config/seer/tokens.toml
//   - redis_addr: 127.0.0.1:6379, redis_key: seer:tokens
//   - log_level: info
//   - log_file: ~/.local/state/seer/seer.log
//
// # Example
//
//	api_url = "https://fortune.example.com"
//	poll_interval = "5s"
//	token_store = "redis"
//	redis_addr = "cache.internal:6379"
//
// Durations use Go syntax ("500ms", "2s"). Invalid durations, unknown token
// stores and unknown log levels are errors rather than silent defaults.
//
// # Path Expansion
//
// Paths starting with ~ are expanded to the user's home directory and made
// absolute.
package config
