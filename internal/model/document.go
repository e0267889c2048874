package model

import "time"

// Backend identifies which storage implementation owns a document's bytes.
// The storage key format is backend-specific and must never be reinterpreted
// across backends.
type Backend string

const (
	// BackendEmbedded keeps object bytes co-located with metadata in Postgres.
	BackendEmbedded Backend = "embedded"
	// BackendS3 keeps object bytes in an S3-compatible store reached through
	// presigned URLs.
	BackendS3 Backend = "s3"
)

// Document represents a stored file in the library.
// Position is the manual display order within the document's scope: dense,
// zero-based and unique per (category, subcategory) pair.
type Document struct {
	ID             string    `json:"id"`
	Filename       string    `json:"filename"`
	ContentType    string    `json:"content_type"`
	Size           int64     `json:"size"`
	StorageBackend Backend   `json:"storage_backend"`
	StorageKey     string    `json:"storage_key"`
	CategoryID     int64     `json:"category_id"`
	SubcategoryID  *int64    `json:"subcategory_id,omitempty"`
	UploadedBy     string    `json:"uploaded_by"`
	Position       int       `json:"position"`
	CreatedAt      time.Time `json:"created_at"`
}

// Scope returns the ordering namespace this document belongs to.
func (d *Document) Scope() Scope {
	return Scope{CategoryID: d.CategoryID, SubcategoryID: d.SubcategoryID}
}

// Category groups documents and subcategories.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// SubCategory belongs to exactly one category.
type SubCategory struct {
	ID         int64     `json:"id"`
	CategoryID int64     `json:"category_id"`
	Name       string    `json:"name"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"created_at"`
}

// DownloadRecord tracks a document download by an authenticated identity.
type DownloadRecord struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	DocumentID   string    `json:"document_id"`
	DownloadedAt time.Time `json:"downloaded_at"`
}
