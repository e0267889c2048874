package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"doclib/internal/config"
	"doclib/internal/gate"
	"doclib/internal/model"
	repomocks "doclib/internal/repository/mocks"
	"doclib/internal/storage"
	storagemocks "doclib/internal/storage/mocks"
)

var (
	operator = model.Identity{UserID: "op-1", Role: model.RoleOperator}
	reader   = model.Identity{UserID: "user-1", Role: model.RoleUser}
)

func storageCfg(backend string) config.StorageConfig {
	return config.StorageConfig{
		Backend:          backend,
		PresignExpirySec: 900,
		MaxUploadBytes:   25_000_000,
		AllowedContentTypes: []string{
			"application/pdf",
			"text/plain",
		},
	}
}

func newTestUploadService(backend string, store *storagemocks.MockBackend, docs *repomocks.MockDocumentRepository, cats *repomocks.MockCategoryRepository) *uploadService {
	svc := NewUploadService(store, docs, cats, NewScopeLocks(), storageCfg(backend))
	return svc.(*uploadService)
}

func generatedKey(key string) bool {
	return strings.HasPrefix(key, storage.KeyPrefix)
}

func TestUploadEmbedded(t *testing.T) {
	store := new(storagemocks.MockBackend)
	docs := new(repomocks.MockDocumentRepository)
	cats := new(repomocks.MockCategoryRepository)
	svc := newTestUploadService("embedded", store, docs, cats)

	cats.On("ResolveScope", mock.Anything, int64(1), (*int64)(nil)).
		Return(&model.Category{ID: 1, Name: "Reports"}, nil, nil)
	docs.On("CreateWithBlob", mock.Anything, mock.MatchedBy(func(d *model.Document) bool {
		return d.Filename == "notes.txt" &&
			d.StorageBackend == model.BackendEmbedded &&
			d.Size == 11 &&
			d.UploadedBy == "op-1" &&
			generatedKey(d.StorageKey)
	}), []byte("hello world")).Return(&model.Document{ID: "doc-1", Position: 3}, nil)

	doc, err := svc.Upload(context.Background(), operator, UploadRequest{
		Filename:    "notes.txt",
		ContentType: "text/plain",
		Size:        11,
		CategoryID:  1,
		Reader:      strings.NewReader("hello world"),
	})

	require.NoError(t, err)
	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, 3, doc.Position)
	store.AssertExpectations(t)
	docs.AssertExpectations(t)
}

func TestUploadCreateFailureTouchesNoStorage(t *testing.T) {
	store := new(storagemocks.MockBackend)
	docs := new(repomocks.MockDocumentRepository)
	cats := new(repomocks.MockCategoryRepository)
	svc := newTestUploadService("embedded", store, docs, cats)

	cats.On("ResolveScope", mock.Anything, int64(1), (*int64)(nil)).
		Return(&model.Category{ID: 1}, nil, nil)
	docs.On("CreateWithBlob", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("insert failed"))

	_, err := svc.Upload(context.Background(), operator, UploadRequest{
		Filename:    "notes.txt",
		ContentType: "text/plain",
		Size:        11,
		CategoryID:  1,
		Reader:      strings.NewReader("hello world"),
	})

	assert.Error(t, err)
	// The repository transaction owns both writes; the backend sees nothing.
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestUploadDeclaredSizeMismatch(t *testing.T) {
	store := new(storagemocks.MockBackend)
	docs := new(repomocks.MockDocumentRepository)
	cats := new(repomocks.MockCategoryRepository)
	svc := newTestUploadService("embedded", store, docs, cats)

	cats.On("ResolveScope", mock.Anything, int64(1), (*int64)(nil)).
		Return(&model.Category{ID: 1}, nil, nil)

	_, err := svc.Upload(context.Background(), operator, UploadRequest{
		Filename:    "notes.txt",
		ContentType: "text/plain",
		Size:        5,
		CategoryID:  1,
		Reader:      strings.NewReader("hello world"),
	})

	assert.ErrorIs(t, err, ErrMetadataMismatch)
	docs.AssertNotCalled(t, "CreateWithBlob", mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadRejectedWhenExternalBackendActive(t *testing.T) {
	svc := newTestUploadService("s3", new(storagemocks.MockBackend), new(repomocks.MockDocumentRepository), new(repomocks.MockCategoryRepository))

	_, err := svc.Upload(context.Background(), operator, UploadRequest{
		Filename:    "notes.txt",
		ContentType: "text/plain",
		Size:        11,
		CategoryID:  1,
		Reader:      strings.NewReader("hello"),
	})

	assert.ErrorIs(t, err, ErrDirectUploadOnly)
}

func TestUploadValidation(t *testing.T) {
	tests := []struct {
		name string
		req  UploadRequest
		want error
	}{
		{
			name: "empty file",
			req:  UploadRequest{Filename: "a.txt", ContentType: "text/plain", Size: 0, CategoryID: 1, Reader: strings.NewReader("")},
			want: ErrEmptyFile,
		},
		{
			name: "too large",
			req:  UploadRequest{Filename: "a.txt", ContentType: "text/plain", Size: 26_000_000, CategoryID: 1, Reader: strings.NewReader("x")},
			want: ErrPayloadTooLarge,
		},
		{
			name: "unsupported type",
			req:  UploadRequest{Filename: "a.zip", ContentType: "application/zip", Size: 10, CategoryID: 1, Reader: strings.NewReader("x")},
			want: ErrUnsupportedMediaType,
		},
		{
			name: "missing filename",
			req:  UploadRequest{ContentType: "text/plain", Size: 10, CategoryID: 1, Reader: strings.NewReader("x")},
			want: ErrIDRequired,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestUploadService("embedded", new(storagemocks.MockBackend), new(repomocks.MockDocumentRepository), new(repomocks.MockCategoryRepository))
			_, err := svc.Upload(context.Background(), operator, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUploadGate(t *testing.T) {
	svc := newTestUploadService("embedded", new(storagemocks.MockBackend), new(repomocks.MockDocumentRepository), new(repomocks.MockCategoryRepository))

	_, err := svc.Upload(context.Background(), model.Identity{}, UploadRequest{})
	assert.ErrorIs(t, err, gate.ErrUnauthorized)

	_, err = svc.Upload(context.Background(), reader, UploadRequest{})
	assert.ErrorIs(t, err, gate.ErrForbidden)
}

func TestInitDirectUpload(t *testing.T) {
	store := new(storagemocks.MockBackend)
	docs := new(repomocks.MockDocumentRepository)
	cats := new(repomocks.MockCategoryRepository)
	svc := newTestUploadService("s3", store, docs, cats)

	now := time.Now()
	svc.now = func() time.Time { return now }

	subID := int64(7)
	cats.On("ResolveScope", mock.Anything, int64(1), &subID).
		Return(&model.Category{ID: 1}, &model.SubCategory{ID: 7, CategoryID: 1}, nil)
	store.On("PresignPut", mock.Anything, mock.MatchedBy(generatedKey), "application/pdf", 900*time.Second).
		Return(storage.PresignedUpload{
			URL:     "https://minio.local/bucket/key?sig=abc",
			Headers: map[string]string{"Content-Type": "application/pdf"},
		}, nil)

	res, err := svc.InitDirectUpload(context.Background(), operator, InitUploadRequest{
		Filename:      "report.pdf",
		ContentType:   "application/pdf",
		Size:          1024,
		CategoryID:    1,
		SubcategoryID: &subID,
	})

	require.NoError(t, err)
	assert.Equal(t, "https://minio.local/bucket/key?sig=abc", res.UploadURL)
	assert.True(t, generatedKey(res.StorageKey))
	assert.Equal(t, now.Add(900*time.Second), res.ExpiresAt)
	assert.Equal(t, 1, svc.sessions.Len())
}

func TestInitDirectUploadValidatesBeforePresign(t *testing.T) {
	store := new(storagemocks.MockBackend)
	cats := new(repomocks.MockCategoryRepository)
	svc := newTestUploadService("s3", store, new(repomocks.MockDocumentRepository), cats)

	_, err := svc.InitDirectUpload(context.Background(), operator, InitUploadRequest{
		Filename:    "huge.pdf",
		ContentType: "application/pdf",
		Size:        26_000_000,
		CategoryID:  1,
	})

	assert.ErrorIs(t, err, ErrPayloadTooLarge)
	store.AssertNotCalled(t, "PresignPut", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 0, svc.sessions.Len())
}

func TestInitDirectUploadBackendFailure(t *testing.T) {
	store := new(storagemocks.MockBackend)
	cats := new(repomocks.MockCategoryRepository)
	svc := newTestUploadService("s3", store, new(repomocks.MockDocumentRepository), cats)

	cats.On("ResolveScope", mock.Anything, int64(1), (*int64)(nil)).
		Return(&model.Category{ID: 1}, nil, nil)
	store.On("PresignPut", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(storage.PresignedUpload{}, errors.New("connection refused"))

	_, err := svc.InitDirectUpload(context.Background(), operator, InitUploadRequest{
		Filename:    "report.pdf",
		ContentType: "application/pdf",
		Size:        1024,
		CategoryID:  1,
	})

	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Equal(t, 0, svc.sessions.Len())
}

func TestInitDirectUploadUnavailableOnEmbedded(t *testing.T) {
	svc := newTestUploadService("embedded", new(storagemocks.MockBackend), new(repomocks.MockDocumentRepository), new(repomocks.MockCategoryRepository))

	_, err := svc.InitDirectUpload(context.Background(), operator, InitUploadRequest{
		Filename:    "report.pdf",
		ContentType: "application/pdf",
		Size:        1024,
		CategoryID:  1,
	})

	assert.ErrorIs(t, err, ErrDirectUploadUnavailable)
}

func initSession(t *testing.T, svc *uploadService, store *storagemocks.MockBackend, cats *repomocks.MockCategoryRepository) FinalizeUploadRequest {
	t.Helper()
	cats.On("ResolveScope", mock.Anything, int64(1), (*int64)(nil)).
		Return(&model.Category{ID: 1}, nil, nil)
	store.On("PresignPut", mock.Anything, mock.MatchedBy(generatedKey), "application/pdf", mock.Anything).
		Return(storage.PresignedUpload{URL: "https://minio.local/put"}, nil)

	res, err := svc.InitDirectUpload(context.Background(), operator, InitUploadRequest{
		Filename:    "report.pdf",
		ContentType: "application/pdf",
		Size:        1024,
		CategoryID:  1,
	})
	require.NoError(t, err)

	return FinalizeUploadRequest{
		StorageKey:  res.StorageKey,
		Filename:    "report.pdf",
		ContentType: "application/pdf",
		Size:        1024,
		CategoryID:  1,
	}
}

func TestFinalizeDirectUpload(t *testing.T) {
	store := new(storagemocks.MockBackend)
	docs := new(repomocks.MockDocumentRepository)
	cats := new(repomocks.MockCategoryRepository)
	svc := newTestUploadService("s3", store, docs, cats)

	finalize := initSession(t, svc, store, cats)

	store.On("Exists", mock.Anything, finalize.StorageKey).Return(true, nil)
	docs.On("Create", mock.Anything, mock.MatchedBy(func(d *model.Document) bool {
		return d.StorageKey == finalize.StorageKey &&
			d.StorageBackend == model.BackendS3 &&
			d.Size == 1024
	})).Return(&model.Document{ID: "doc-9", Position: 0}, nil)

	doc, err := svc.FinalizeDirectUpload(context.Background(), operator, finalize)

	require.NoError(t, err)
	assert.Equal(t, "doc-9", doc.ID)
	assert.Equal(t, 0, svc.sessions.Len())

	// The session is gone; a replayed finalize cannot commit twice.
	_, err = svc.FinalizeDirectUpload(context.Background(), operator, finalize)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestFinalizeDirectUploadExpiredSession(t *testing.T) {
	store := new(storagemocks.MockBackend)
	cats := new(repomocks.MockCategoryRepository)
	svc := newTestUploadService("s3", store, new(repomocks.MockDocumentRepository), cats)

	now := time.Now()
	svc.now = func() time.Time { return now }
	svc.sessions.now = func() time.Time { return now }

	finalize := initSession(t, svc, store, cats)

	now = now.Add(901 * time.Second)
	_, err := svc.FinalizeDirectUpload(context.Background(), operator, finalize)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestFinalizeDirectUploadMetadataMismatch(t *testing.T) {
	store := new(storagemocks.MockBackend)
	cats := new(repomocks.MockCategoryRepository)
	svc := newTestUploadService("s3", store, new(repomocks.MockDocumentRepository), cats)

	finalize := initSession(t, svc, store, cats)
	finalize.Size = 2048

	_, err := svc.FinalizeDirectUpload(context.Background(), operator, finalize)
	assert.ErrorIs(t, err, ErrMetadataMismatch)

	// The mismatching finalize still consumed the session.
	assert.Equal(t, 0, svc.sessions.Len())
}

func TestFinalizeDirectUploadObjectMissing(t *testing.T) {
	store := new(storagemocks.MockBackend)
	cats := new(repomocks.MockCategoryRepository)
	svc := newTestUploadService("s3", store, new(repomocks.MockDocumentRepository), cats)

	finalize := initSession(t, svc, store, cats)

	store.On("Exists", mock.Anything, finalize.StorageKey).Return(false, nil)

	_, err := svc.FinalizeDirectUpload(context.Background(), operator, finalize)
	assert.ErrorIs(t, err, ErrObjectMissing)
}

func TestFinalizeDirectUploadProbeFailure(t *testing.T) {
	store := new(storagemocks.MockBackend)
	cats := new(repomocks.MockCategoryRepository)
	svc := newTestUploadService("s3", store, new(repomocks.MockDocumentRepository), cats)

	finalize := initSession(t, svc, store, cats)

	store.On("Exists", mock.Anything, finalize.StorageKey).
		Return(false, errors.New("connection reset"))

	_, err := svc.FinalizeDirectUpload(context.Background(), operator, finalize)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestFinalizeDirectUploadUnknownKey(t *testing.T) {
	svc := newTestUploadService("s3", new(storagemocks.MockBackend), new(repomocks.MockDocumentRepository), new(repomocks.MockCategoryRepository))

	_, err := svc.FinalizeDirectUpload(context.Background(), operator, FinalizeUploadRequest{
		StorageKey: "documents/abc-report.pdf",
	})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Keys outside the generated namespace never match a session either.
	_, err = svc.FinalizeDirectUpload(context.Background(), operator, FinalizeUploadRequest{
		StorageKey: "../../etc/passwd",
	})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
