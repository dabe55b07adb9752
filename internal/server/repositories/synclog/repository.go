package synclog

import (
	"context"

	"github.com/akarpovs/docsync/internal/server/models"
)

// Repository is the append-only sync audit log.
type Repository interface {
	Append(ctx context.Context, e *models.SyncLogEntry) error
	ListRecent(ctx context.Context, documentID, userID string, limit int) ([]*models.SyncLogEntry, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}
