// Package session holds the client's bearer token and reads identity
// claims out of it.
//
// The token is opaque to the client: its payload is decoded for UI
// routing only and its signature is never checked. Persistence goes
// through the Storage interface, backed by SQLite in normal runs and by
// memory in tests.
package session
