package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log"
	"time"

	"doclib/internal/gate"
	"doclib/internal/model"
	"doclib/internal/repository"
	"doclib/internal/storage"
)

// ScopeListing is a scope's documents together with its resolved labels.
type ScopeListing struct {
	Category    *model.Category    `json:"category"`
	Subcategory *model.SubCategory `json:"subcategory,omitempty"`
	Documents   []model.Document   `json:"documents"`
	Total       int                `json:"total"`
}

// DownloadResult is either a presigned URL redirect (external backend) or the
// streamed content itself (embedded backend). Exactly one of URL and Content
// is set.
type DownloadResult struct {
	URL     string
	Content io.ReadCloser
	Info    storage.ObjectInfo
	Doc     *model.Document
}

// DocumentService covers document reads, deletes, scope moves and the
// category/subcategory cascade deletes.
type DocumentService interface {
	// ListScope returns the documents of one scope in display order.
	ListScope(ctx context.Context, identity model.Identity, scope model.Scope) (*ScopeListing, error)
	// Get returns a single document.
	Get(ctx context.Context, identity model.Identity, id string) (*model.Document, error)
	// Delete removes a document's record, then releases its stored object.
	Delete(ctx context.Context, identity model.Identity, id string) error
	// Reassign moves a document into another scope, appended at the end.
	Reassign(ctx context.Context, identity model.Identity, id string, target model.Scope) (*model.Document, error)
	// DeleteCategory removes a category with everything underneath it.
	DeleteCategory(ctx context.Context, identity model.Identity, id int64) error
	// DeleteSubcategory removes a subcategory and its documents.
	DeleteSubcategory(ctx context.Context, identity model.Identity, id int64) error
	// Download resolves a document to either a presigned URL or its content,
	// recording the access. Disposition is attachment.
	Download(ctx context.Context, identity model.Identity, id string) (*DownloadResult, error)
	// View is Download with inline disposition for in-browser rendering.
	View(ctx context.Context, identity model.Identity, id string) (*DownloadResult, error)
	// History returns the caller's recent downloads, newest first.
	History(ctx context.Context, identity model.Identity, limit int) ([]model.DownloadRecord, error)
}

type documentService struct {
	store      storage.Backend
	docs       repository.DocumentRepository
	categories repository.CategoryRepository
	downloads  repository.DownloadRepository
	locks      *ScopeLocks
	presignExp time.Duration
}

// NewDocumentService wires document reads and destructive operations.
func NewDocumentService(store storage.Backend, docs repository.DocumentRepository, categories repository.CategoryRepository, downloads repository.DownloadRepository, locks *ScopeLocks, presignExpiry time.Duration) DocumentService {
	return &documentService{
		store:      store,
		docs:       docs,
		categories: categories,
		downloads:  downloads,
		locks:      locks,
		presignExp: presignExpiry,
	}
}

func (s *documentService) ListScope(ctx context.Context, identity model.Identity, scope model.Scope) (*ScopeListing, error) {
	if err := gate.RequireAuthenticated(identity); err != nil {
		return nil, err
	}
	cat, sub, err := s.categories.ResolveScope(ctx, scope.CategoryID, scope.SubcategoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	docs, err := s.docs.ListByScope(ctx, scope)
	if err != nil {
		return nil, err
	}
	return &ScopeListing{
		Category:    cat,
		Subcategory: sub,
		Documents:   docs,
		Total:       len(docs),
	}, nil
}

func (s *documentService) Get(ctx context.Context, identity model.Identity, id string) (*model.Document, error) {
	if err := gate.RequireAuthenticated(identity); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Delete(ctx context.Context, identity model.Identity, id string) error {
	if err := gate.RequireOperator(identity); err != nil {
		return err
	}
	if id == "" {
		return ErrIDRequired
	}
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	unlock := s.locks.Lock(doc.Scope().Key())
	defer unlock()

	// Record first, release after, same as the cascade paths. A record must
	// never point at an already-released object; a leftover object from a
	// failed release is only unreferenced garbage.
	if _, err := s.docs.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if err := s.store.Delete(ctx, doc.StorageKey); err != nil {
		log.Printf("document: storage release failed for key %s: %v", doc.StorageKey, err)
	}
	return nil
}

func (s *documentService) Reassign(ctx context.Context, identity model.Identity, id string, target model.Scope) (*model.Document, error) {
	if err := gate.RequireOperator(identity); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if _, _, err := s.categories.ResolveScope(ctx, target.CategoryID, target.SubcategoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	unlock := s.locks.LockAll(doc.Scope().Key(), target.Key())
	defer unlock()

	moved, err := s.docs.ReassignScope(ctx, id, target)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return moved, nil
}

func (s *documentService) DeleteCategory(ctx context.Context, identity model.Identity, id int64) error {
	if err := gate.RequireOperator(identity); err != nil {
		return err
	}
	keys, err := s.categories.DeleteCategoryCascade(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	s.releaseKeys(ctx, keys)
	return nil
}

func (s *documentService) DeleteSubcategory(ctx context.Context, identity model.Identity, id int64) error {
	if err := gate.RequireOperator(identity); err != nil {
		return err
	}
	keys, err := s.categories.DeleteSubcategoryCascade(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	s.releaseKeys(ctx, keys)
	return nil
}

// releaseKeys removes the stored objects of an already-committed cascade.
// Failures are logged, not propagated: the metadata is gone and the request
// has succeeded from the caller's point of view.
func (s *documentService) releaseKeys(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			log.Printf("document: cascade storage delete failed for key %s: %v", key, err)
		}
	}
}

const defaultHistoryLimit = 20

func (s *documentService) History(ctx context.Context, identity model.Identity, limit int) ([]model.DownloadRecord, error) {
	if err := gate.RequireAuthenticated(identity); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.downloads.ListByUser(ctx, identity.UserID, limit)
}

func (s *documentService) Download(ctx context.Context, identity model.Identity, id string) (*DownloadResult, error) {
	return s.resolveContent(ctx, identity, id, false)
}

func (s *documentService) View(ctx context.Context, identity model.Identity, id string) (*DownloadResult, error) {
	return s.resolveContent(ctx, identity, id, true)
}

func (s *documentService) resolveContent(ctx context.Context, identity model.Identity, id string, inline bool) (*DownloadResult, error) {
	if err := gate.RequireAuthenticated(identity); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.downloads.Record(ctx, identity.UserID, doc.ID); err != nil {
		// History is best effort; never block the download on it.
		log.Printf("document: download record failed for %s: %v", doc.ID, err)
	}

	opt := storage.PresignGetOptions{
		Filename:    doc.Filename,
		ContentType: doc.ContentType,
		Inline:      inline,
	}
	presignCtx, cancel := context.WithTimeout(ctx, backendCallTimeout)
	defer cancel()
	url, err := s.store.PresignGet(presignCtx, doc.StorageKey, s.presignExp, opt)
	switch {
	case err == nil:
		return &DownloadResult{URL: url, Doc: doc}, nil
	case errors.Is(err, storage.ErrUnsupported):
		// Embedded backend: stream the bytes ourselves.
	default:
		log.Printf("document: presign get failed for key %s: %v", doc.StorageKey, err)
		return nil, ErrBackendUnavailable
	}

	rc, info, err := s.store.Read(ctx, doc.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrBackendUnavailable
	}
	return &DownloadResult{Content: rc, Info: info, Doc: doc}, nil
}
