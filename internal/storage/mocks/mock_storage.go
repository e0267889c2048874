package mocks

import (
	"context"
	"io"
	"time"

	"doclib/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Read(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, key)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Get(1).(storage.ObjectInfo), args.Error(2)
}

func (m *MockBackend) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockBackend) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackend) PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (storage.PresignedUpload, error) {
	args := m.Called(ctx, key, contentType, expiry)
	return args.Get(0).(storage.PresignedUpload), args.Error(1)
}

func (m *MockBackend) PresignGet(ctx context.Context, key string, expiry time.Duration, opt storage.PresignGetOptions) (string, error) {
	args := m.Called(ctx, key, expiry, opt)
	return args.String(0), args.Error(1)
}
