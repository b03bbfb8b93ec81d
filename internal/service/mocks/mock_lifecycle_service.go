package mocks

import (
	"context"

	"docbin/internal/model"
	"docbin/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockLifecycleService struct {
	mock.Mock
}

func (m *MockLifecycleService) cascade(args mock.Arguments) (*service.CascadeResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CascadeResult), args.Error(1)
}

func (m *MockLifecycleService) BinFile(ctx context.Context, actor service.Actor, id string) (*service.CascadeResult, error) {
	return m.cascade(m.Called(ctx, actor, id))
}

func (m *MockLifecycleService) BinFolder(ctx context.Context, actor service.Actor, id string) (*service.CascadeResult, error) {
	return m.cascade(m.Called(ctx, actor, id))
}

func (m *MockLifecycleService) RestoreFile(ctx context.Context, actor service.Actor, id string) (*service.CascadeResult, error) {
	return m.cascade(m.Called(ctx, actor, id))
}

func (m *MockLifecycleService) RestoreFolder(ctx context.Context, actor service.Actor, id string) (*service.CascadeResult, error) {
	return m.cascade(m.Called(ctx, actor, id))
}

func (m *MockLifecycleService) PurgeFile(ctx context.Context, actor service.Actor, id string) (*service.CascadeResult, error) {
	return m.cascade(m.Called(ctx, actor, id))
}

func (m *MockLifecycleService) PurgeFolder(ctx context.Context, actor service.Actor, id string) (*service.CascadeResult, error) {
	return m.cascade(m.Called(ctx, actor, id))
}

func (m *MockLifecycleService) ListBinned(ctx context.Context) ([]model.BinnedItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.BinnedItem), args.Error(1)
}

func (m *MockLifecycleService) GetFolder(ctx context.Context, id string) (*model.Folder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Folder), args.Error(1)
}

func (m *MockLifecycleService) GetFile(ctx context.Context, id string) (*model.File, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}
