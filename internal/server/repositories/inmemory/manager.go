package inmemory

import (
	"context"
	"database/sql"

	"github.com/akarpovs/docsync/internal/dbx"
	"github.com/akarpovs/docsync/internal/server/repositories/credentials"
	"github.com/akarpovs/docsync/internal/server/repositories/documents"
	"github.com/akarpovs/docsync/internal/server/repositories/projects"
	"github.com/akarpovs/docsync/internal/server/repositories/synclog"
	"github.com/akarpovs/docsync/internal/server/repositories/versions"
)

// Manager vends in-memory repositories sharing one Store. The DBTX handle is
// ignored; transactional grouping is a no-op on this backend.
type Manager struct {
	store *Store
}

func NewManager(store *Store) *Manager {
	if store == nil {
		store = NewStore()
	}
	return &Manager{store: store}
}

// Store exposes the backing store, mainly for test fixtures.
func (m *Manager) Store() *Store { return m.store }

func (m *Manager) Documents(db dbx.DBTX) documents.Repository {
	return &documentsRepo{s: m.store}
}

func (m *Manager) Versions(db dbx.DBTX) versions.Repository {
	return &versionsRepo{s: m.store}
}

func (m *Manager) SyncLog(db dbx.DBTX) synclog.Repository {
	return &syncLogRepo{s: m.store}
}

func (m *Manager) Credentials(db dbx.DBTX) credentials.Repository {
	return &credentialsRepo{s: m.store}
}

func (m *Manager) Projects(db dbx.DBTX) projects.Repository {
	return &projectsRepo{s: m.store}
}

// RunMigrations is a no-op: the in-memory backend has no schema.
func (m *Manager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}
