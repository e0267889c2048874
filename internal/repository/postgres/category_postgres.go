package postgres

import (
	"context"
	"database/sql"

	"doclib/internal/model"
	"doclib/internal/repository"
)

// CategoryPostgres is a PostgreSQL implementation of repository.CategoryRepository.
type CategoryPostgres struct {
	db *sql.DB
}

// NewCategoryPostgres creates a new CategoryPostgres repository.
func NewCategoryPostgres(db *sql.DB) *CategoryPostgres {
	return &CategoryPostgres{db: db}
}

var _ repository.CategoryRepository = (*CategoryPostgres)(nil)

// FindCategory fetches a category by id.
func (r *CategoryPostgres) FindCategory(ctx context.Context, id int64) (*model.Category, error) {
	const q = `SELECT id, name, position, created_at FROM categories WHERE id = $1`
	var c model.Category
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.Name, &c.Position, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// FindSubcategory fetches a subcategory by id.
func (r *CategoryPostgres) FindSubcategory(ctx context.Context, id int64) (*model.SubCategory, error) {
	const q = `SELECT id, category_id, name, position, created_at FROM subcategories WHERE id = $1`
	var s model.SubCategory
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.CategoryID, &s.Name, &s.Position, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// ResolveScope validates category existence and subcategory membership.
func (r *CategoryPostgres) ResolveScope(ctx context.Context, categoryID int64, subcategoryID *int64) (*model.Category, *model.SubCategory, error) {
	category, err := r.FindCategory(ctx, categoryID)
	if err != nil {
		return nil, nil, err
	}
	if subcategoryID == nil {
		return category, nil, nil
	}

	const q = `SELECT id, category_id, name, position, created_at FROM subcategories
		WHERE id = $1 AND category_id = $2`
	var s model.SubCategory
	if err := r.db.QueryRowContext(ctx, q, *subcategoryID, categoryID).
		Scan(&s.ID, &s.CategoryID, &s.Name, &s.Position, &s.CreatedAt); err != nil {
		return nil, nil, err
	}
	return category, &s, nil
}

// DeleteCategoryCascade removes the category, its subcategories and every
// contained document in one transaction, returning the released storage keys.
// Download history rows go with their documents via ON DELETE CASCADE.
func (r *CategoryPostgres) DeleteCategoryCascade(ctx context.Context, id int64) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Lock the category row so concurrent cascades on the same id serialize.
	const lock = `SELECT id FROM categories WHERE id = $1 FOR UPDATE`
	var locked int64
	if err := tx.QueryRowContext(ctx, lock, id).Scan(&locked); err != nil {
		return nil, err
	}

	const delDocs = `DELETE FROM documents WHERE category_id = $1 RETURNING storage_key`
	keys, err := collectKeys(ctx, tx, delDocs, id)
	if err != nil {
		return nil, err
	}

	const delSubs = `DELETE FROM subcategories WHERE category_id = $1`
	if _, err := tx.ExecContext(ctx, delSubs, id); err != nil {
		return nil, err
	}
	const delCat = `DELETE FROM categories WHERE id = $1`
	if _, err := tx.ExecContext(ctx, delCat, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return keys, nil
}

// DeleteSubcategoryCascade removes the subcategory and its documents in one
// transaction, returning the released storage keys.
func (r *CategoryPostgres) DeleteSubcategoryCascade(ctx context.Context, id int64) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const lock = `SELECT id FROM subcategories WHERE id = $1 FOR UPDATE`
	var locked int64
	if err := tx.QueryRowContext(ctx, lock, id).Scan(&locked); err != nil {
		return nil, err
	}

	const delDocs = `DELETE FROM documents WHERE subcategory_id = $1 RETURNING storage_key`
	keys, err := collectKeys(ctx, tx, delDocs, id)
	if err != nil {
		return nil, err
	}

	const delSub = `DELETE FROM subcategories WHERE id = $1`
	if _, err := tx.ExecContext(ctx, delSub, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return keys, nil
}

func collectKeys(ctx context.Context, tx *sql.Tx, query string, arg any) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
