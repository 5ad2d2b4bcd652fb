// Package gateway performs the client's calls to the psico backend:
// the credential exchange that opens a session and the public account
// registration endpoints.
//
// A successful Authenticate writes the issued token into the
// session.TokenStore before returning. Logout is local only.
//
// WithAudit adds an activity trail; write failures there never fail a call.
package gateway
