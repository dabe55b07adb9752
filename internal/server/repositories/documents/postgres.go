// Package documents provides the PostgreSQL-backed document registry.
package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/akarpovs/docsync/internal/common"
	"github.com/akarpovs/docsync/internal/dbx"
	"github.com/akarpovs/docsync/internal/server/models"
)

// PostgresRepository implements the document registry over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new document row.
func (r *PostgresRepository) Create(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (id, user_id, name, description, mime_type, size, remote_path, is_synced, last_synced)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		doc.ID, doc.UserID, doc.Name, doc.Description, doc.MimeType,
		doc.Size, doc.RemotePath, doc.IsSynced, doc.LastSynced,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByID returns the document with id owned by userID, or
// common.ErrorNotFound. A document owned by another user is not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id, userID string) (*models.Document, error) {
	query := `
		SELECT id, user_id, name, description, mime_type, size, remote_path, is_synced, last_synced, created_at, updated_at
		FROM documents
		WHERE id = $1 AND user_id = $2
	`
	doc := &models.Document{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&doc.ID, &doc.UserID, &doc.Name, &doc.Description, &doc.MimeType,
		&doc.Size, &doc.RemotePath, &doc.IsSynced, &doc.LastSynced,
		&doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc, nil
}

// List returns all documents owned by userID, newest first.
func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*models.Document, error) {
	query := `
		SELECT id, user_id, name, description, mime_type, size, remote_path, is_synced, last_synced, created_at, updated_at
		FROM documents
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select documents: %w", err)
	}
	defer rows.Close()

	var result []*models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(
			&doc.ID, &doc.UserID, &doc.Name, &doc.Description, &doc.MimeType,
			&doc.Size, &doc.RemotePath, &doc.IsSynced, &doc.LastSynced,
			&doc.CreatedAt, &doc.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateMetadata changes name and description. common.ErrorNotFound when the
// document does not exist or is not owned by userID.
func (r *PostgresRepository) UpdateMetadata(ctx context.Context, id, userID, name, description string) error {
	query := `
		UPDATE documents SET name = $3, description = $4, updated_at = now()
		WHERE id = $1 AND user_id = $2
	`
	return r.execExpectingOne(ctx, query, id, userID, name, description)
}

// UpdatePointer moves the registry pointer to the latest version: remote
// path, size, sync flag and timestamp all advance together.
func (r *PostgresRepository) UpdatePointer(ctx context.Context, id, userID, remotePath string, size int64, syncedAt time.Time) error {
	query := `
		UPDATE documents
		SET remote_path = $3, size = $4, is_synced = TRUE, last_synced = $5, updated_at = now()
		WHERE id = $1 AND user_id = $2
	`
	return r.execExpectingOne(ctx, query, id, userID, remotePath, size, syncedAt)
}

// Delete removes the document row itself. Cascaded child rows are handled by
// the service (and by FK constraints as a backstop).
func (r *PostgresRepository) Delete(ctx context.Context, id, userID string) error {
	query := `DELETE FROM documents WHERE id = $1 AND user_id = $2`
	return r.execExpectingOne(ctx, query, id, userID)
}

// ReplaceProjectLinks swaps the document's project tag set for projectIDs.
func (r *PostgresRepository) ReplaceProjectLinks(ctx context.Context, documentID, userID string, projectIDs []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM document_projects WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	query := `INSERT INTO document_projects (document_id, project_id, user_id) VALUES ($1, $2, $3)`
	for _, pid := range projectIDs {
		if _, err := r.db.ExecContext(ctx, query, documentID, pid, userID); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

// ListProjectIDs returns the ids of projects the document is linked to.
func (r *PostgresRepository) ListProjectIDs(ctx context.Context, documentID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT project_id FROM document_projects WHERE document_id = $1`, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to select project links: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteProjectLinks removes all project links of the document.
func (r *PostgresRepository) DeleteProjectLinks(ctx context.Context, documentID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM document_projects WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) execExpectingOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
