package session

import "github.com/nerrad567/psico-client/internal/infrastructure/logging"

// Session is the single owner of session state for the process.
//
// It is built once at startup and handed by reference to the gateway,
// the access guard and the UI. Downstream features only need IsLoggedIn,
// Role and Logout.
type Session struct {
	store   *TokenStore
	decoder *Decoder
}

// New creates a Session over store.
func New(store *TokenStore, logger *logging.Logger) *Session {
	return &Session{
		store:   store,
		decoder: NewDecoder(logger),
	}
}

// IsLoggedIn reports whether a token is currently held.
// It is re-read from the store on every call.
func (s *Session) IsLoggedIn() bool {
	return s.store.HasToken()
}

// Role decodes the current token and returns its role.
// No session, an undecodable token and an unknown role all report false.
func (s *Session) Role() (Role, bool) {
	token, ok := s.store.Get()
	if !ok {
		return "", false
	}
	return s.decoder.Role(token)
}

// Claims decodes the current token.
func (s *Session) Claims() (Claims, bool) {
	token, ok := s.store.Get()
	if !ok {
		return nil, false
	}
	return s.decoder.Decode(token)
}

// Logout ends the session locally. The backend is not contacted.
func (s *Session) Logout() {
	s.store.Clear()
}

// Store returns the underlying TokenStore.
func (s *Session) Store() *TokenStore {
	return s.store
}
