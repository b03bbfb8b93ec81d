package mocks

import (
	"context"
	"time"

	"docbin/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockTreeRepository struct {
	mock.Mock
}

func (m *MockTreeRepository) FindFolder(ctx context.Context, id string) (*model.Folder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Folder), args.Error(1)
}

func (m *MockTreeRepository) FindFile(ctx context.Context, id string) (*model.File, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockTreeRepository) ListChildFolders(ctx context.Context, parentID string) ([]model.Folder, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Folder), args.Error(1)
}

func (m *MockTreeRepository) ListFolderFiles(ctx context.Context, folderID string) ([]model.File, error) {
	args := m.Called(ctx, folderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.File), args.Error(1)
}

func (m *MockTreeRepository) UpdateFolderLifecycle(ctx context.Context, id string, l model.Lifecycle) error {
	args := m.Called(ctx, id, l)
	return args.Error(0)
}

func (m *MockTreeRepository) UpdateFileLifecycle(ctx context.Context, id string, l model.Lifecycle) error {
	args := m.Called(ctx, id, l)
	return args.Error(0)
}

func (m *MockTreeRepository) DeleteFolder(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTreeRepository) DeleteFile(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTreeRepository) ListBinnedFolders(ctx context.Context) ([]model.Folder, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Folder), args.Error(1)
}

func (m *MockTreeRepository) ListBinnedFiles(ctx context.Context) ([]model.File, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.File), args.Error(1)
}

func (m *MockTreeRepository) ListExpiredFolders(ctx context.Context, now time.Time) ([]model.Folder, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Folder), args.Error(1)
}

func (m *MockTreeRepository) ListExpiredFiles(ctx context.Context, now time.Time) ([]model.File, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.File), args.Error(1)
}
