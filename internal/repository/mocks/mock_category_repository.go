package mocks

import (
	"context"

	"doclib/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) FindCategory(ctx context.Context, id int64) (*model.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindSubcategory(ctx context.Context, id int64) (*model.SubCategory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SubCategory), args.Error(1)
}

func (m *MockCategoryRepository) ResolveScope(ctx context.Context, categoryID int64, subcategoryID *int64) (*model.Category, *model.SubCategory, error) {
	args := m.Called(ctx, categoryID, subcategoryID)
	var (
		cat *model.Category
		sub *model.SubCategory
	)
	if v := args.Get(0); v != nil {
		cat = v.(*model.Category)
	}
	if v := args.Get(1); v != nil {
		sub = v.(*model.SubCategory)
	}
	return cat, sub, args.Error(2)
}

func (m *MockCategoryRepository) DeleteCategoryCascade(ctx context.Context, id int64) ([]string, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCategoryRepository) DeleteSubcategoryCascade(ctx context.Context, id int64) ([]string, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockDownloadRepository struct {
	mock.Mock
}

func (m *MockDownloadRepository) Record(ctx context.Context, userID, documentID string) error {
	args := m.Called(ctx, userID, documentID)
	return args.Error(0)
}

func (m *MockDownloadRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.DownloadRecord, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DownloadRecord), args.Error(1)
}
