package repository

import (
	"context"

	"doclib/internal/model"
)

// CategoryRepository exposes the category/subcategory lookups and the
// cascading deletes the document core needs. Category CRUD itself lives
// elsewhere.
type CategoryRepository interface {
	// FindCategory returns a category by id, or sql.ErrNoRows.
	FindCategory(ctx context.Context, id int64) (*model.Category, error)

	// FindSubcategory returns a subcategory by id, or sql.ErrNoRows.
	FindSubcategory(ctx context.Context, id int64) (*model.SubCategory, error)

	// ResolveScope validates that the category exists and, when a subcategory
	// id is given, that it belongs to the category. Returns sql.ErrNoRows when
	// either check fails.
	ResolveScope(ctx context.Context, categoryID int64, subcategoryID *int64) (*model.Category, *model.SubCategory, error)

	// DeleteCategoryCascade removes a category, its subcategories and every
	// contained document in one transaction. Returns the storage keys of the
	// removed documents so the caller can release the underlying objects.
	DeleteCategoryCascade(ctx context.Context, id int64) ([]string, error)

	// DeleteSubcategoryCascade removes a subcategory and its documents in one
	// transaction, returning the released storage keys.
	DeleteSubcategoryCascade(ctx context.Context, id int64) ([]string, error)
}

// DownloadRepository records and lists document download history.
type DownloadRepository interface {
	// Record inserts a download entry for an authenticated user.
	Record(ctx context.Context, userID, documentID string) error

	// ListByUser returns the user's most recent downloads, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]model.DownloadRecord, error)
}
