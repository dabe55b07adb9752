// Package versions provides the PostgreSQL-backed version ledger.
package versions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akarpovs/docsync/internal/common"
	"github.com/akarpovs/docsync/internal/dbx"
	"github.com/akarpovs/docsync/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// PostgresRepository implements the version ledger over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a version row, assigning version_number = max(existing)+1
// in the same statement. The UNIQUE (document_id, version_number) constraint
// closes the race between concurrent inserts: the loser gets
// common.ErrVersionConflict and should retry, which re-reads the max.
func (r *PostgresRepository) Create(ctx context.Context, v *models.DocumentVersion) error {
	query := `
		INSERT INTO document_versions (id, document_id, version_number, remote_path, size, created_by)
		SELECT $1, $2, COALESCE(MAX(version_number), 0) + 1, $3, $4, $5
		FROM document_versions
		WHERE document_id = $2
		RETURNING version_number, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		v.ID, v.DocumentID, v.RemotePath, v.Size, v.CreatedBy,
	).Scan(&v.VersionNumber, &v.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return common.ErrVersionConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListByDocument returns all versions for the document, most recent first,
// each enriched with the uploader's display name from the profiles table.
// Uploaders without a profile show as "Unknown User".
func (r *PostgresRepository) ListByDocument(ctx context.Context, documentID string) ([]*models.DocumentVersion, error) {
	query := `
		SELECT v.id, v.document_id, v.version_number, v.remote_path, v.size, v.created_by, v.created_at,
		       COALESCE(p.display_name, 'Unknown User')
		FROM document_versions v
		LEFT JOIN profiles p ON p.user_id = v.created_by
		WHERE v.document_id = $1
		ORDER BY v.version_number DESC
	`
	rows, err := r.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to select versions: %w", err)
	}
	defer rows.Close()

	var result []*models.DocumentVersion
	for rows.Next() {
		var item models.DocumentVersion
		if err := rows.Scan(
			&item.ID, &item.DocumentID, &item.VersionNumber, &item.RemotePath,
			&item.Size, &item.CreatedBy, &item.CreatedAt, &item.UploaderName,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByNumber returns a single version of the document, or common.ErrorNotFound.
func (r *PostgresRepository) GetByNumber(ctx context.Context, documentID string, number int64) (*models.DocumentVersion, error) {
	query := `
		SELECT id, document_id, version_number, remote_path, size, created_by, created_at
		FROM document_versions
		WHERE document_id = $1 AND version_number = $2
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, documentID, number))
}

// GetLatest returns the highest-numbered version, or common.ErrorNotFound
// when the document has no versions yet.
func (r *PostgresRepository) GetLatest(ctx context.Context, documentID string) (*models.DocumentVersion, error) {
	query := `
		SELECT id, document_id, version_number, remote_path, size, created_by, created_at
		FROM document_versions
		WHERE document_id = $1
		ORDER BY version_number DESC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, documentID))
}

// DeleteByDocument removes all versions of the document.
func (r *PostgresRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM document_versions WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.DocumentVersion, error) {
	v := &models.DocumentVersion{}
	err := row.Scan(&v.ID, &v.DocumentID, &v.VersionNumber, &v.RemotePath, &v.Size, &v.CreatedBy, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}
