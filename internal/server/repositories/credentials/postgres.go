// Package credentials provides the PostgreSQL-backed OAuth credential store.
package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akarpovs/docsync/internal/common"
	"github.com/akarpovs/docsync/internal/dbx"
	"github.com/akarpovs/docsync/internal/server/models"
)

// PostgresRepository implements the credential store over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert replaces the user's credential row wholesale. The user_id primary
// key guarantees a single row per user; the statement's row-level atomicity
// is what keeps concurrent refreshes from interleaving half-written state.
func (r *PostgresRepository) Upsert(ctx context.Context, c *models.DropboxCredential) error {
	query := `
		INSERT INTO dropbox_auth (user_id, access_token, refresh_token, account_id, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (user_id)
		DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			account_id = EXCLUDED.account_id,
			expires_at = EXCLUDED.expires_at,
			updated_at = now();
	`
	res, err := r.db.ExecContext(ctx, query,
		c.UserID, c.AccessToken, c.RefreshToken, c.AccountID, c.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}

// GetByUser returns the credential row for userID, or common.ErrorNotFound.
func (r *PostgresRepository) GetByUser(ctx context.Context, userID string) (*models.DropboxCredential, error) {
	query := `
		SELECT user_id, access_token, refresh_token, account_id, expires_at, updated_at
		FROM dropbox_auth
		WHERE user_id = $1
	`
	c := &models.DropboxCredential{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&c.UserID, &c.AccessToken, &c.RefreshToken, &c.AccountID, &c.ExpiresAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

// DeleteByUser removes the credential row. Deleting an absent row is not an
// error: revoke must always leave the row gone.
func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM dropbox_auth WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
