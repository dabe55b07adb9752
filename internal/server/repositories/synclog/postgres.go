// Package synclog provides the PostgreSQL-backed sync audit log.
package synclog

import (
	"context"
	"fmt"

	"github.com/akarpovs/docsync/internal/dbx"
	"github.com/akarpovs/docsync/internal/server/models"
)

// PostgresRepository implements the audit log over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append inserts one audit record.
func (r *PostgresRepository) Append(ctx context.Context, e *models.SyncLogEntry) error {
	query := `
		INSERT INTO document_sync_log (id, document_id, operation, status, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, e.ID, e.DocumentID, e.Operation, e.Status, e.UserID).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListRecent returns up to limit audit records for the document owned by
// userID, newest first.
func (r *PostgresRepository) ListRecent(ctx context.Context, documentID, userID string, limit int) ([]*models.SyncLogEntry, error) {
	query := `
		SELECT id, document_id, operation, status, user_id, created_at
		FROM document_sync_log
		WHERE document_id = $1 AND user_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, documentID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select sync log: %w", err)
	}
	defer rows.Close()

	var result []*models.SyncLogEntry
	for rows.Next() {
		var item models.SyncLogEntry
		if err := rows.Scan(&item.ID, &item.DocumentID, &item.Operation, &item.Status, &item.UserID, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteByDocument removes all audit records of the document.
func (r *PostgresRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM document_sync_log WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
