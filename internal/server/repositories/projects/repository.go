package projects

import (
	"context"

	"github.com/akarpovs/docsync/internal/server/models"
)

// Repository manages project rows. Document links live with the documents
// repository; the FK cascade removes links when a project is deleted.
type Repository interface {
	Create(ctx context.Context, p *models.Project) error
	GetByID(ctx context.Context, id, userID string) (*models.Project, error)
	List(ctx context.Context, userID string) ([]*models.Project, error)
	Update(ctx context.Context, p *models.Project) error
	Delete(ctx context.Context, id, userID string) error
}
