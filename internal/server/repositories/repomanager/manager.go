// Package repomanager defines the factory that hands out repositories bound
// to a database handle, so services can run several repositories inside one
// transaction by passing the same DBTX to each.
package repomanager

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

// RepositoryManager vends repositories bound to the provided DBTX and
// exposes a schema migration hook.
type RepositoryManager interface {
	Documents(db dbx.DBTX) documents.Repository
	Versions(db dbx.DBTX) versions.Repository
	SyncLog(db dbx.DBTX) synclog.Repository
	Credentials(db dbx.DBTX) credentials.Repository
	Projects(db dbx.DBTX) projects.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
