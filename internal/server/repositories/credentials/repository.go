package credentials

import (
	"context"

	"github.com/akarpovs/docsync/internal/server/models"
)

// Repository is the token store adapter: exactly one provider credential per
// user, replaced wholesale on refresh or re-consent.
type Repository interface {
	Upsert(ctx context.Context, c *models.DropboxCredential) error
	GetByUser(ctx context.Context, userID string) (*models.DropboxCredential, error)
	DeleteByUser(ctx context.Context, userID string) error
}
