package documents

import (
	"context"
	"time"

	"github.com/akarpovs/docsync/internal/server/models"
)

// Repository is the document registry plus the project link table, which is
// owned here because links never outlive their document.
type Repository interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id, userID string) (*models.Document, error)
	List(ctx context.Context, userID string) ([]*models.Document, error)
	UpdateMetadata(ctx context.Context, id, userID, name, description string) error
	UpdatePointer(ctx context.Context, id, userID, remotePath string, size int64, syncedAt time.Time) error
	Delete(ctx context.Context, id, userID string) error

	ReplaceProjectLinks(ctx context.Context, documentID, userID string, projectIDs []string) error
	ListProjectIDs(ctx context.Context, documentID string) ([]string, error)
	DeleteProjectLinks(ctx context.Context, documentID string) error
}
