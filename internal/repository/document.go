package repository

import (
	"context"

	"doclib/internal/model"
)

// DocumentRepository defines data access for documents using SQL queries only.
// Position bookkeeping (append, renumber, conditional reorder) happens inside
// repository transactions so every mutation leaves each scope densely numbered
// 0..n-1; everything else is strictly persistence.
type DocumentRepository interface {
	// Create inserts a new document record appended at the end of its scope's
	// order (position = current member count). The caller provides ID and
	// CreatedAt. Returns the stored document including the assigned position.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// CreateWithBlob inserts the document record and its content bytes in one
	// transaction. Either both rows land or neither does; used when the
	// object store is the embedded blob table.
	CreateWithBlob(ctx context.Context, doc *model.Document, content []byte) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// ListByScope returns the scope's documents ordered by position ascending,
	// ties broken by creation time.
	ListByScope(ctx context.Context, scope model.Scope) ([]model.Document, error)

	// Delete removes a document and renumbers the remaining scope members in
	// one transaction. Returns the deleted document so the caller can release
	// the stored object. Returns sql.ErrNoRows if the document does not exist.
	Delete(ctx context.Context, id string) (*model.Document, error)

	// ReassignScope moves a document into a new scope, appending it at the end
	// of the new order and renumbering the old scope, in one transaction.
	ReassignScope(ctx context.Context, id string, scope model.Scope) (*model.Document, error)

	// Reorder rewrites the scope's positions densely (0..n-1) in the submitted
	// order within one transaction. The current member rows are locked and the
	// id sets compared first; ErrScopeMembersChanged is returned (and nothing
	// written) when they differ.
	Reorder(ctx context.Context, scope model.Scope, orderedIDs []string) error
}
