// Package logging provides structured logging for the psico client.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the session, gateway and UI layers.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Rotating file output via lumberjack
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stderr"   # stdout, stderr, file
//	  file:
//	    path: "./logs/psico.log"
//	    max_size: 10     # megabytes
//	    max_backups: 3
//	    max_age: 28      # days
//
// # Security
//
// Never log bearer tokens or passwords. Log the username and the
// outcome of a login, not the credential or the token it produced.
package logging
