// Package inmemory provides a fixture implementation of every repository,
// selected at startup for development and tests. Semantics mirror the
// PostgreSQL implementations, including ownership checks and the sentinel
// errors, so services and handlers behave identically on either backend.
package inmemory

import (
	"sync"

	"github.com/akarpovs/docsync/internal/server/models"
)

// Store is the shared mutable state behind the in-memory repositories.
// A single mutex covers all tables; the version ledger relies on it to make
// read-max-then-insert atomic.
type Store struct {
	mu sync.Mutex

	documents   map[string]*models.Document
	versions    map[string][]*models.DocumentVersion // by document id
	syncLog     map[string][]*models.SyncLogEntry    // by document id
	credentials map[string]*models.DropboxCredential // by user id
	projects    map[string]*models.Project
	links       map[string]map[string]string // document id -> project id -> user id
	profiles    map[string]string            // user id -> display name
}

func NewStore() *Store {
	return &Store{
		documents:   make(map[string]*models.Document),
		versions:    make(map[string][]*models.DocumentVersion),
		syncLog:     make(map[string][]*models.SyncLogEntry),
		credentials: make(map[string]*models.DropboxCredential),
		projects:    make(map[string]*models.Project),
		links:       make(map[string]map[string]string),
		profiles:    make(map[string]string),
	}
}

// SetProfile registers a display name for a user, used when listing versions.
func (s *Store) SetProfile(userID, displayName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[userID] = displayName
}
