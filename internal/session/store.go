// Package session holds the current authentication credential. The
// credential is persisted to a file so it survives restarts, the terminal
// equivalent of browser local storage. There is no expiry logic: a stale
// credential is only discovered when a REST call fails with 401.
package session

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type Store struct {
	mu     sync.Mutex
	path   string
	cred   string
	loaded bool
}

// NewStore creates a store backed by the given file path. The file is
// read lazily on first access.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Credential returns the current credential, or "" when logged out.
func (s *Store) Credential() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		if data, err := os.ReadFile(s.path); err == nil {
			s.cred = strings.TrimSpace(string(data))
		}
		s.loaded = true
	}
	return s.cred
}

// SetCredential persists a new credential. An empty credential logs the
// user out and removes the persisted file.
func (s *Store) SetCredential(cred string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cred = cred
	s.loaded = true

	if cred == "" {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(cred), 0o600)
}
