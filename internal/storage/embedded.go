package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"
)

// embeddedBackend serves object bytes from the document_blobs table,
// co-located with the metadata store. Bytes are written by the repository
// inside the transaction that commits the document record; this backend
// covers read, probe and release. Presigning is meaningless here and
// returns ErrUnsupported.
type embeddedBackend struct {
	db *sql.DB
}

// NewEmbedded creates the embedded backend over the shared Postgres handle.
func NewEmbedded(db *sql.DB) (Backend, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle is required")
	}
	return &embeddedBackend{db: db}, nil
}

func (e *embeddedBackend) Read(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	const q = `SELECT content, content_type, size, created_at FROM document_blobs WHERE key = $1`
	var (
		content     []byte
		contentType string
		size        int64
		createdAt   time.Time
	)
	err := e.db.QueryRowContext(ctx, q, key).Scan(&content, &contentType, &size, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ObjectInfo{}, ErrNotFound
		}
		return nil, ObjectInfo{}, err
	}
	info := ObjectInfo{
		Key:          key,
		Size:         size,
		ContentType:  contentType,
		LastModified: createdAt,
	}
	return io.NopCloser(bytes.NewReader(content)), info, nil
}

func (e *embeddedBackend) Delete(ctx context.Context, key string) error {
	const q = `DELETE FROM document_blobs WHERE key = $1`
	_, err := e.db.ExecContext(ctx, q, key)
	return err
}

func (e *embeddedBackend) Exists(ctx context.Context, key string) (bool, error) {
	const q = `SELECT 1 FROM document_blobs WHERE key = $1`
	var one int
	err := e.db.QueryRowContext(ctx, q, key).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (e *embeddedBackend) PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (PresignedUpload, error) {
	return PresignedUpload{}, ErrUnsupported
}

func (e *embeddedBackend) PresignGet(ctx context.Context, key string, expiry time.Duration, opt PresignGetOptions) (string, error) {
	return "", ErrUnsupported
}
