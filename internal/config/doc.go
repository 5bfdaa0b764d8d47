// Package config handles configuration loading for coven-session.
//
// # Configuration File
//
// YAML by default; a path ending in .toml is read as TOML. Without a file,
// Default() supplies every value.
//
// # Environment Variable Expansion
//
// Values can reference environment variables:
//
//	storage:
//	  workdir: "${COVEN_SESSION_DIR}"
//
// # Sections
//
//	storage:
//	  workdir: "~/.local/share/coven/sessions"  # <workdir>/<name>.session
//	  driver: "sqlite"                          # sqlite (pure Go) or sqlite3 (cgo)
//	  busy_timeout: "1s"                        # wait for SQLite locks
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
//	metrics:
//	  enabled: false
package config
