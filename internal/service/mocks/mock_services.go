package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"doclib/internal/model"
	"doclib/internal/service"
)

type MockUploadService struct {
	mock.Mock
}

func (m *MockUploadService) Upload(ctx context.Context, identity model.Identity, req service.UploadRequest) (*model.Document, error) {
	args := m.Called(ctx, identity, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockUploadService) InitDirectUpload(ctx context.Context, identity model.Identity, req service.InitUploadRequest) (*service.InitUploadResult, error) {
	args := m.Called(ctx, identity, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.InitUploadResult), args.Error(1)
}

func (m *MockUploadService) FinalizeDirectUpload(ctx context.Context, identity model.Identity, req service.FinalizeUploadRequest) (*model.Document, error) {
	args := m.Called(ctx, identity, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) ListScope(ctx context.Context, identity model.Identity, scope model.Scope) (*service.ScopeListing, error) {
	args := m.Called(ctx, identity, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ScopeListing), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, identity model.Identity, id string) (*model.Document, error) {
	args := m.Called(ctx, identity, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, identity model.Identity, id string) error {
	args := m.Called(ctx, identity, id)
	return args.Error(0)
}

func (m *MockDocumentService) Reassign(ctx context.Context, identity model.Identity, id string, target model.Scope) (*model.Document, error) {
	args := m.Called(ctx, identity, id, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) DeleteCategory(ctx context.Context, identity model.Identity, id int64) error {
	args := m.Called(ctx, identity, id)
	return args.Error(0)
}

func (m *MockDocumentService) DeleteSubcategory(ctx context.Context, identity model.Identity, id int64) error {
	args := m.Called(ctx, identity, id)
	return args.Error(0)
}

func (m *MockDocumentService) Download(ctx context.Context, identity model.Identity, id string) (*service.DownloadResult, error) {
	args := m.Called(ctx, identity, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DownloadResult), args.Error(1)
}

func (m *MockDocumentService) View(ctx context.Context, identity model.Identity, id string) (*service.DownloadResult, error) {
	args := m.Called(ctx, identity, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DownloadResult), args.Error(1)
}

func (m *MockDocumentService) History(ctx context.Context, identity model.Identity, limit int) ([]model.DownloadRecord, error) {
	args := m.Called(ctx, identity, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DownloadRecord), args.Error(1)
}

type MockReorderService struct {
	mock.Mock
}

func (m *MockReorderService) Reorder(ctx context.Context, identity model.Identity, scope model.Scope, orderedIDs []string) error {
	args := m.Called(ctx, identity, scope, orderedIDs)
	return args.Error(0)
}
