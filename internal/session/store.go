package session

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/psico-client/internal/infrastructure/logging"
)

// storageTimeout bounds each durable write or erase.
const storageTimeout = 5 * time.Second

// TokenStore holds the current session token for the whole process.
//
// Reads are served from memory and never wait on storage. Writes update
// memory first, then persist synchronously. Storage failures are logged
// and the value stays in memory only.
//
// Thread Safety:
//   - All methods are safe for concurrent use. A reader sees either the
//     previous token or the new one, never a partial write.
type TokenStore struct {
	mu    sync.RWMutex
	token string

	// persistMu orders storage writes so the durable value always matches
	// the last in-memory value, without holding mu across I/O.
	persistMu sync.Mutex
	storage   Storage
	logger    *logging.Logger
}

// NewTokenStore creates a TokenStore and loads any persisted token once.
//
// storage may be nil, in which case the store is memory-only. A failed
// load is logged and the store starts empty.
func NewTokenStore(ctx context.Context, storage Storage, logger *logging.Logger) *TokenStore {
	if logger == nil {
		logger = logging.Discard()
	}

	s := &TokenStore{
		storage: storage,
		logger:  logger.With("component", "token_store"),
	}

	if storage == nil {
		return s
	}

	token, found, err := storage.Load(ctx, StorageKey)
	switch {
	case err != nil:
		s.logger.Warn("loading persisted session failed, starting without one", "error", err)
	case found && token != "":
		s.token = token
		s.logger.Debug("restored persisted session")
	}

	return s
}

// Get returns the current token, or false when no session is active.
func (s *TokenStore) Get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// HasToken reports whether a non-empty token is held.
func (s *TokenStore) HasToken() bool {
	_, ok := s.Get()
	return ok
}

// Set replaces the current token and persists it. An empty token is
// equivalent to Clear.
func (s *TokenStore) Set(token string) {
	if token == "" {
		s.Clear()
		return
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if s.storage == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	if err := s.storage.Save(ctx, StorageKey, token); err != nil {
		s.logger.Warn("persisting session failed, keeping it in memory only", "error", err)
	}
}

// Clear drops the current token from memory and storage.
func (s *TokenStore) Clear() {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	if s.storage == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	if err := s.storage.Delete(ctx, StorageKey); err != nil {
		s.logger.Warn("erasing persisted session failed", "error", err)
	}
}
