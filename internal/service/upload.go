package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"doclib/internal/config"
	"doclib/internal/gate"
	"doclib/internal/model"
	"doclib/internal/repository"
	"doclib/internal/storage"
)

// backendCallTimeout bounds every synchronous storage backend call made on
// the request path (presign, existence probe). Slow backends surface as
// ErrBackendUnavailable instead of hanging the request.
const backendCallTimeout = 10 * time.Second

// UploadRequest describes a single-shot embedded upload.
type UploadRequest struct {
	Filename      string
	ContentType   string
	Size          int64
	CategoryID    int64
	SubcategoryID *int64
	Reader        io.Reader
}

// InitUploadRequest describes the first half of the direct upload protocol:
// declare metadata, receive a presigned URL.
type InitUploadRequest struct {
	Filename      string
	ContentType   string
	Size          int64
	CategoryID    int64
	SubcategoryID *int64
}

// InitUploadResult is what the client needs to transfer bytes directly to
// the external backend, plus the key it must echo back at finalize.
type InitUploadResult struct {
	UploadURL  string            `json:"upload_url"`
	Headers    map[string]string `json:"headers,omitempty"`
	StorageKey string            `json:"storage_key"`
	ExpiresAt  time.Time         `json:"expires_at"`
}

// FinalizeUploadRequest echoes the init metadata back together with the
// storage key; any disagreement with the recorded session fails the finalize.
type FinalizeUploadRequest struct {
	StorageKey    string
	Filename      string
	ContentType   string
	Size          int64
	CategoryID    int64
	SubcategoryID *int64
}

// UploadService implements both upload paths: the single-shot embedded
// upload and the init/finalize presigned protocol for the external backend.
// Exactly one of the two is live per deployment, decided by configuration.
type UploadService interface {
	// Upload stores content and metadata in one transaction (embedded
	// backend only).
	Upload(ctx context.Context, identity model.Identity, req UploadRequest) (*model.Document, error)
	// InitDirectUpload validates metadata, reserves a storage key, presigns
	// an upload URL and opens an upload session (external backend only).
	InitDirectUpload(ctx context.Context, identity model.Identity, req InitUploadRequest) (*InitUploadResult, error)
	// FinalizeDirectUpload consumes the upload session, verifies the object
	// arrived, and commits the document record. The session is consumed even
	// when finalize fails afterwards; the client restarts from init.
	FinalizeDirectUpload(ctx context.Context, identity model.Identity, req FinalizeUploadRequest) (*model.Document, error)
}

type uploadService struct {
	store      storage.Backend
	docs       repository.DocumentRepository
	categories repository.CategoryRepository
	sessions   *sessionStore
	locks      *ScopeLocks
	cfg        config.StorageConfig
	backend    model.Backend
	now        func() time.Time
}

// NewUploadService wires the upload paths for the configured backend.
func NewUploadService(store storage.Backend, docs repository.DocumentRepository, categories repository.CategoryRepository, locks *ScopeLocks, cfg config.StorageConfig) UploadService {
	return &uploadService{
		store:      store,
		docs:       docs,
		categories: categories,
		sessions:   newSessionStore(),
		locks:      locks,
		cfg:        cfg,
		backend:    model.Backend(cfg.Backend),
		now:        time.Now,
	}
}

// validateMetadata applies the declared-size and content-type policy shared
// by both upload paths, and confirms the target scope exists.
func (s *uploadService) validateMetadata(ctx context.Context, filename, contentType string, size int64, categoryID int64, subcategoryID *int64) error {
	if filename == "" {
		return ErrIDRequired
	}
	if size <= 0 {
		return ErrEmptyFile
	}
	if size > s.cfg.MaxUploadBytes {
		return ErrPayloadTooLarge
	}
	if !s.cfg.AllowsContentType(contentType) {
		return ErrUnsupportedMediaType
	}
	if _, _, err := s.categories.ResolveScope(ctx, categoryID, subcategoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *uploadService) Upload(ctx context.Context, identity model.Identity, req UploadRequest) (*model.Document, error) {
	if err := gate.RequireOperator(identity); err != nil {
		return nil, err
	}
	if s.backend != model.BackendEmbedded {
		return nil, ErrDirectUploadOnly
	}
	if req.Reader == nil {
		return nil, ErrReaderNil
	}
	if err := s.validateMetadata(ctx, req.Filename, req.ContentType, req.Size, req.CategoryID, req.SubcategoryID); err != nil {
		return nil, err
	}

	content, err := io.ReadAll(req.Reader)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	if int64(len(content)) != req.Size {
		return nil, ErrMetadataMismatch
	}

	doc := &model.Document{
		ID:             uuid.NewString(),
		Filename:       req.Filename,
		ContentType:    req.ContentType,
		Size:           int64(len(content)),
		StorageBackend: s.backend,
		StorageKey:     storage.GenerateKey(req.Filename),
		CategoryID:     req.CategoryID,
		SubcategoryID:  req.SubcategoryID,
		UploadedBy:     identity.UserID,
		CreatedAt:      s.now().UTC(),
	}

	scope := doc.Scope()
	unlock := s.locks.Lock(scope.Key())
	defer unlock()

	// Bytes and record commit in one transaction; a failure leaves neither.
	return s.docs.CreateWithBlob(ctx, doc, content)
}

func (s *uploadService) InitDirectUpload(ctx context.Context, identity model.Identity, req InitUploadRequest) (*InitUploadResult, error) {
	if err := gate.RequireOperator(identity); err != nil {
		return nil, err
	}
	if s.backend != model.BackendS3 {
		return nil, ErrDirectUploadUnavailable
	}
	if err := s.validateMetadata(ctx, req.Filename, req.ContentType, req.Size, req.CategoryID, req.SubcategoryID); err != nil {
		return nil, err
	}

	key := storage.GenerateKey(req.Filename)
	expiry := time.Duration(s.cfg.PresignExpirySec) * time.Second

	presignCtx, cancel := context.WithTimeout(ctx, backendCallTimeout)
	defer cancel()
	presigned, err := s.store.PresignPut(presignCtx, key, req.ContentType, expiry)
	if err != nil {
		log.Printf("upload: presign put failed for key %s: %v", key, err)
		return nil, ErrBackendUnavailable
	}

	expiresAt := s.now().Add(expiry)
	s.sessions.Add(UploadSession{
		StorageKey:    key,
		Filename:      req.Filename,
		ContentType:   req.ContentType,
		DeclaredSize:  req.Size,
		CategoryID:    req.CategoryID,
		SubcategoryID: req.SubcategoryID,
		ExpiresAt:     expiresAt,
	})

	return &InitUploadResult{
		UploadURL:  presigned.URL,
		Headers:    presigned.Headers,
		StorageKey: key,
		ExpiresAt:  expiresAt,
	}, nil
}

func (s *uploadService) FinalizeDirectUpload(ctx context.Context, identity model.Identity, req FinalizeUploadRequest) (*model.Document, error) {
	if err := gate.RequireOperator(identity); err != nil {
		return nil, err
	}
	if s.backend != model.BackendS3 {
		return nil, ErrDirectUploadUnavailable
	}
	if !storage.ValidKey(req.StorageKey) {
		return nil, ErrSessionNotFound
	}

	sess, ok := s.sessions.Consume(req.StorageKey)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if req.Filename != sess.Filename ||
		req.ContentType != sess.ContentType ||
		req.Size != sess.DeclaredSize ||
		req.CategoryID != sess.CategoryID ||
		!sameSubcategory(req.SubcategoryID, sess.SubcategoryID) {
		return nil, ErrMetadataMismatch
	}
	// The scope could have been deleted while the client was transferring.
	if _, _, err := s.categories.ResolveScope(ctx, sess.CategoryID, sess.SubcategoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMetadataMismatch
		}
		return nil, err
	}

	probeCtx, cancel := context.WithTimeout(ctx, backendCallTimeout)
	defer cancel()
	exists, err := s.store.Exists(probeCtx, sess.StorageKey)
	if err != nil {
		log.Printf("upload: existence probe failed for key %s: %v", sess.StorageKey, err)
		return nil, ErrBackendUnavailable
	}
	if !exists {
		return nil, ErrObjectMissing
	}

	doc := &model.Document{
		ID:             uuid.NewString(),
		Filename:       sess.Filename,
		ContentType:    sess.ContentType,
		Size:           sess.DeclaredSize,
		StorageBackend: s.backend,
		StorageKey:     sess.StorageKey,
		CategoryID:     sess.CategoryID,
		SubcategoryID:  sess.SubcategoryID,
		UploadedBy:     identity.UserID,
		CreatedAt:      s.now().UTC(),
	}

	scope := doc.Scope()
	unlock := s.locks.Lock(scope.Key())
	defer unlock()

	return s.docs.Create(ctx, doc)
}

func sameSubcategory(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
