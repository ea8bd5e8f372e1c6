package integration

import (
	"context"

	"github.com/gearsync/backend/internal/domain/integration"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func newTestLogger() *zap.Logger {
	return zap.NewNop()
}

// MockSyncEventRepository is a mock implementation of SyncEventRepository
type MockSyncEventRepository struct {
	mock.Mock
}

func (m *MockSyncEventRepository) Append(ctx context.Context, events []*integration.SyncEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func (m *MockSyncEventRepository) SelectPending(ctx context.Context, filter integration.EventFilter) ([]integration.SyncEvent, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.SyncEvent), args.Error(1)
}

func (m *MockSyncEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.SyncEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncEvent), args.Error(1)
}

func (m *MockSyncEventRepository) List(ctx context.Context, filter integration.EventFilter, page, pageSize int) ([]integration.SyncEvent, int64, error) {
	args := m.Called(ctx, filter, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]integration.SyncEvent), args.Get(1).(int64), args.Error(2)
}

func (m *MockSyncEventRepository) MarkProcessed(ctx context.Context, id uuid.UUID, note string) error {
	args := m.Called(ctx, id, note)
	return args.Error(0)
}

func (m *MockSyncEventRepository) MarkError(ctx context.Context, id uuid.UUID, note string) error {
	args := m.Called(ctx, id, note)
	return args.Error(0)
}

func (m *MockSyncEventRepository) MarkIgnored(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSyncEventRepository) AttachLocalEntity(ctx context.Context, id uuid.UUID, localEntityID uuid.UUID) error {
	args := m.Called(ctx, id, localEntityID)
	return args.Error(0)
}

// MockCatalogRepository is a mock implementation of CatalogRepository
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) ListLocal(ctx context.Context, platform integration.PlatformCode) ([]integration.LocalListing, error) {
	args := m.Called(ctx, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.LocalListing), args.Error(1)
}

func (m *MockCatalogRepository) FindProductByID(ctx context.Context, id uuid.UUID) (*integration.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Product), args.Error(1)
}

func (m *MockCatalogRepository) FindProductBySKU(ctx context.Context, sku string) (*integration.Product, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Product), args.Error(1)
}

func (m *MockCatalogRepository) FindLinksByLocalEntity(ctx context.Context, localEntityID uuid.UUID) ([]integration.PlatformLink, error) {
	args := m.Called(ctx, localEntityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.PlatformLink), args.Error(1)
}

func (m *MockCatalogRepository) MarkEntitySold(ctx context.Context, localEntityID uuid.UUID) error {
	args := m.Called(ctx, localEntityID)
	return args.Error(0)
}

func (m *MockCatalogRepository) SaveProduct(ctx context.Context, product *integration.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockCatalogRepository) SaveLink(ctx context.Context, link *integration.PlatformLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

// MockPlatformAdapter is a mock implementation of PlatformAdapter
type MockPlatformAdapter struct {
	mock.Mock
	code integration.PlatformCode
}

func (m *MockPlatformAdapter) PlatformCode() integration.PlatformCode {
	return m.code
}

func (m *MockPlatformAdapter) ListCurrent(ctx context.Context) ([]integration.RemoteListing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.RemoteListing), args.Error(1)
}

func (m *MockPlatformAdapter) MarkSold(ctx context.Context, externalID string) (bool, error) {
	args := m.Called(ctx, externalID)
	return args.Bool(0), args.Error(1)
}

// MockPlatformRegistry is a mock implementation of PlatformRegistry
type MockPlatformRegistry struct {
	mock.Mock
}

func (m *MockPlatformRegistry) Adapter(code integration.PlatformCode) (integration.PlatformAdapter, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(integration.PlatformAdapter), args.Error(1)
}

func (m *MockPlatformRegistry) Codes() []integration.PlatformCode {
	args := m.Called()
	return args.Get(0).([]integration.PlatformCode)
}

// MockReconcileLock is a mock implementation of ReconcileLock
type MockReconcileLock struct {
	mock.Mock
}

func (m *MockReconcileLock) Acquire(ctx context.Context, scope string) (func(), error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}
