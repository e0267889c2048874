package postgres

import (
	"context"
	"database/sql"

	"doclib/internal/model"
	"doclib/internal/repository"
)

// DownloadPostgres is a PostgreSQL implementation of repository.DownloadRepository.
type DownloadPostgres struct {
	db *sql.DB
}

// NewDownloadPostgres creates a new DownloadPostgres repository.
func NewDownloadPostgres(db *sql.DB) *DownloadPostgres {
	return &DownloadPostgres{db: db}
}

var _ repository.DownloadRepository = (*DownloadPostgres)(nil)

// Record inserts a download entry.
func (r *DownloadPostgres) Record(ctx context.Context, userID, documentID string) error {
	const q = `INSERT INTO document_downloads (user_id, document_id) VALUES ($1, $2)`
	_, err := r.db.ExecContext(ctx, q, userID, documentID)
	return err
}

// ListByUser returns the user's most recent downloads, newest first.
func (r *DownloadPostgres) ListByUser(ctx context.Context, userID string, limit int) ([]model.DownloadRecord, error) {
	const q = `SELECT id, user_id, document_id, downloaded_at FROM document_downloads
		WHERE user_id = $1
		ORDER BY downloaded_at DESC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DownloadRecord, 0)
	for rows.Next() {
		var d model.DownloadRecord
		if err := rows.Scan(&d.ID, &d.UserID, &d.DocumentID, &d.DownloadedAt); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}
