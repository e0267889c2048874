package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"doclib/internal/model"
	"doclib/internal/repository"
)

const documentColumns = `id, filename, content_type, size, storage_backend, storage_key,
		category_id, subcategory_id, uploaded_by, position, created_at`

// scopePredicate matches documents inside one ordering scope. IS NOT DISTINCT
// FROM makes the NULL subcategory (category root scope) comparable with
// a plain parameter.
const scopePredicate = `category_id = $1 AND subcategory_id IS NOT DISTINCT FROM $2`

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries. Mutations that touch scope
// positions run in a transaction so scopes stay densely numbered.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

func scanDocument(s interface{ Scan(...any) error }) (*model.Document, error) {
	var (
		d     model.Document
		subID sql.NullInt64
	)
	if err := s.Scan(
		&d.ID,
		&d.Filename,
		&d.ContentType,
		&d.Size,
		&d.StorageBackend,
		&d.StorageKey,
		&d.CategoryID,
		&subID,
		&d.UploadedBy,
		&d.Position,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	if subID.Valid {
		v := subID.Int64
		d.SubcategoryID = &v
	}
	return &d, nil
}

func subcategoryParam(scope model.Scope) any {
	if scope.SubcategoryID == nil {
		return nil
	}
	return *scope.SubcategoryID
}

// rowQuerier is satisfied by both *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertDocument(ctx context.Context, q rowQuerier, doc *model.Document) (*model.Document, error) {
	const stmt = `
		INSERT INTO documents (id, filename, content_type, size, storage_backend, storage_key,
			category_id, subcategory_id, uploaded_by, position, created_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9,
			(SELECT COALESCE(MAX(position), -1) + 1 FROM documents
			 WHERE category_id = $7 AND subcategory_id IS NOT DISTINCT FROM $8),
			$10
		RETURNING ` + documentColumns
	row := q.QueryRowContext(ctx, stmt,
		doc.ID,
		doc.Filename,
		doc.ContentType,
		doc.Size,
		doc.StorageBackend,
		doc.StorageKey,
		doc.CategoryID,
		subcategoryParam(doc.Scope()),
		doc.UploadedBy,
		doc.CreatedAt,
	)
	return scanDocument(row)
}

// Create inserts a new document appended at the end of its scope's order.
// The position subquery assigns the next dense slot; the caller serializes
// concurrent appends to the same scope.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	return insertDocument(ctx, r.db, doc)
}

// CreateWithBlob appends the document and stores its content bytes in the
// same transaction, so a failure on either side leaves neither a blob
// without a record nor a record without a blob.
func (r *DocumentPostgres) CreateWithBlob(ctx context.Context, doc *model.Document, content []byte) (*model.Document, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const blob = `
		INSERT INTO document_blobs (key, content, content_type, size, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE
		SET content = EXCLUDED.content, content_type = EXCLUDED.content_type,
		    size = EXCLUDED.size, created_at = EXCLUDED.created_at
	`
	if _, err := tx.ExecContext(ctx, blob, doc.StorageKey, content, doc.ContentType, len(content), doc.CreatedAt); err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}

	stored, err := insertDocument(ctx, tx, doc)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return stored, nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// ListByScope returns the scope's documents ordered by position, ties broken
// by creation time.
func (r *DocumentPostgres) ListByScope(ctx context.Context, scope model.Scope) ([]model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents
		WHERE ` + scopePredicate + `
		ORDER BY position ASC, created_at ASC`
	rows, err := r.db.QueryContext(ctx, q, scope.CategoryID, subcategoryParam(scope))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Delete removes a document and renumbers its scope in one transaction.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) (*model.Document, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const del = `DELETE FROM documents WHERE id = $1 RETURNING ` + documentColumns
	doc, err := scanDocument(tx.QueryRowContext(ctx, del, id))
	if err != nil {
		return nil, err
	}
	if err := renumberScope(ctx, tx, doc.Scope()); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return doc, nil
}

// ReassignScope moves a document to a new scope: appended at the end of the
// new order, with the old scope renumbered, in one transaction.
func (r *DocumentPostgres) ReassignScope(ctx context.Context, id string, scope model.Scope) (*model.Document, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const lock = `SELECT category_id, subcategory_id FROM documents WHERE id = $1 FOR UPDATE`
	var (
		oldCategoryID int64
		oldSubID      sql.NullInt64
	)
	if err := tx.QueryRowContext(ctx, lock, id).Scan(&oldCategoryID, &oldSubID); err != nil {
		return nil, err
	}
	oldScope := model.Scope{CategoryID: oldCategoryID}
	if oldSubID.Valid {
		v := oldSubID.Int64
		oldScope.SubcategoryID = &v
	}

	const move = `
		UPDATE documents SET category_id = $2, subcategory_id = $3,
			position = (SELECT COALESCE(MAX(position), -1) + 1 FROM documents
				WHERE category_id = $2 AND subcategory_id IS NOT DISTINCT FROM $3 AND id <> $1)
		WHERE id = $1
		RETURNING ` + documentColumns
	doc, err := scanDocument(tx.QueryRowContext(ctx, move, id, scope.CategoryID, subcategoryParam(scope)))
	if err != nil {
		return nil, err
	}
	if err := renumberScope(ctx, tx, oldScope); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Reorder rewrites a scope's positions in the submitted order. The member
// rows are locked for the duration of the transaction; a membership mismatch
// aborts with ErrScopeMembersChanged and writes nothing.
func (r *DocumentPostgres) Reorder(ctx context.Context, scope model.Scope, orderedIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const lock = `SELECT id FROM documents WHERE ` + scopePredicate + ` FOR UPDATE`
	rows, err := tx.QueryContext(ctx, lock, scope.CategoryID, subcategoryParam(scope))
	if err != nil {
		return err
	}
	current := make([]string, 0, len(orderedIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		current = append(current, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	if !sameIDSet(current, orderedIDs) {
		return repository.ErrScopeMembersChanged
	}

	const update = `UPDATE documents SET position = $1 WHERE id = $2`
	for pos, id := range orderedIDs {
		res, err := tx.ExecContext(ctx, update, pos, id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n != 1 {
			return fmt.Errorf("reorder touched %d rows for id %s", n, id)
		}
	}
	return tx.Commit()
}

// renumberScope rewrites positions densely 0..n-1 preserving the current
// order (position, then creation time).
func renumberScope(ctx context.Context, tx *sql.Tx, scope model.Scope) error {
	const q = `
		UPDATE documents d SET position = t.rn - 1
		FROM (
			SELECT id, row_number() OVER (ORDER BY position ASC, created_at ASC) AS rn
			FROM documents
			WHERE ` + scopePredicate + `
		) t
		WHERE d.id = t.id`
	_, err := tx.ExecContext(ctx, q, scope.CategoryID, subcategoryParam(scope))
	return err
}

// sameIDSet reports whether a and b contain exactly the same ids, regardless
// of order. Duplicate ids never match because the counts must agree.
func sameIDSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		seen[id]--
		if seen[id] < 0 {
			return false
		}
	}
	return true
}
