package versions

import (
	"context"

	"github.com/akarpovs/docsync/internal/server/models"
)

// Repository is the append-only version ledger. Create assigns the next
// version number atomically; callers retry on ErrVersionConflict when two
// concurrent uploads collide on the same number.
type Repository interface {
	Create(ctx context.Context, v *models.DocumentVersion) error
	ListByDocument(ctx context.Context, documentID string) ([]*models.DocumentVersion, error)
	GetByNumber(ctx context.Context, documentID string, number int64) (*models.DocumentVersion, error)
	GetLatest(ctx context.Context, documentID string) (*models.DocumentVersion, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}
