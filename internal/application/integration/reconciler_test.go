package integration

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gearsync/backend/internal/domain/integration"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pendingEvent(entityID *uuid.UUID, platform integration.PlatformCode, kind integration.DivergenceKind, newValue string, detectedAt time.Time, seq int64) integration.SyncEvent {
	return integration.SyncEvent{
		ID:            uuid.New(),
		Seq:           seq,
		SyncRunID:     uuid.New(),
		Platform:      platform,
		LocalEntityID: entityID,
		ExternalID:    "ext-" + platform.String(),
		Kind:          kind,
		NewValue:      newValue,
		Status:        integration.EventStatusPending,
		DetectedAt:    detectedAt,
	}
}

func entityLinks(entityID uuid.UUID) []integration.PlatformLink {
	return []integration.PlatformLink{
		{ID: uuid.New(), LocalEntityID: entityID, Platform: integration.PlatformCodeReverb, ExternalID: "rev-1", Status: integration.StatusLive},
		{ID: uuid.New(), LocalEntityID: entityID, Platform: integration.PlatformCodeShopify, ExternalID: "shp-1", Status: integration.StatusActive},
		{ID: uuid.New(), LocalEntityID: entityID, Platform: integration.PlatformCodeEbay, ExternalID: "eby-1", Status: integration.StatusActive},
	}
}

func newEngine(events *MockSyncEventRepository, catalog *MockCatalogRepository, registry *MockPlatformRegistry, lock *MockReconcileLock) *ReconciliationEngine {
	return NewReconciliationEngine(events, catalog, registry, lock, newTestLogger())
}

func grantLock(lock *MockReconcileLock, scope string) {
	lock.On("Acquire", mock.Anything, scope).Return(func() {}, nil)
}

func TestReconcile_FirstSoldSignalWins(t *testing.T) {
	events := new(MockSyncEventRepository)
	catalog := new(MockCatalogRepository)
	registry := new(MockPlatformRegistry)
	lock := new(MockReconcileLock)
	engine := newEngine(events, catalog, registry, lock)

	entityID := uuid.New()
	base := time.Now()
	first := pendingEvent(&entityID, integration.PlatformCodeReverb, integration.KindStatusChange, "ended", base, 1)
	second := pendingEvent(&entityID, integration.PlatformCodeEbay, integration.KindStatusChange, "sold", base.Add(time.Minute), 2)

	grantLock(lock, "all")
	events.On("SelectPending", mock.Anything, integration.EventFilter{}).Return([]integration.SyncEvent{first, second}, nil)
	catalog.On("FindLinksByLocalEntity", mock.Anything, entityID).Return(entityLinks(entityID), nil)

	shopify := &MockPlatformAdapter{code: integration.PlatformCodeShopify}
	shopify.On("MarkSold", mock.Anything, "shp-1").Return(true, nil)
	ebay := &MockPlatformAdapter{code: integration.PlatformCodeEbay}
	ebay.On("MarkSold", mock.Anything, "eby-1").Return(true, nil)
	registry.On("Adapter", integration.PlatformCodeShopify).Return(shopify, nil)
	registry.On("Adapter", integration.PlatformCodeEbay).Return(ebay, nil)

	catalog.On("MarkEntitySold", mock.Anything, entityID).Return(nil)
	events.On("MarkProcessed", mock.Anything, first.ID, mock.AnythingOfType("string")).Return(nil)
	events.On("MarkProcessed", mock.Anything, second.ID, mock.MatchedBy(func(note string) bool {
		return strings.Contains(note, "superseded")
	})).Return(nil)

	report, err := engine.Reconcile(context.Background(), integration.EventFilter{}, false)

	require.NoError(t, err)
	assert.Equal(t, 2, report.EventsSelected)
	assert.Equal(t, 1, report.GroupsProcessed)
	assert.Equal(t, 2, report.EventsProcessed)
	assert.Equal(t, 1, report.SoldWinners)
	require.Len(t, report.Propagations, 2)
	for _, p := range report.Propagations {
		assert.Equal(t, first.ID, p.WinnerEventID)
		assert.Equal(t, integration.PlatformCodeReverb, p.SourcePlatform)
		assert.True(t, p.OK)
	}

	// The winner's own platform must never receive a MarkSold call.
	registry.AssertNotCalled(t, "Adapter", integration.PlatformCodeReverb)
	shopify.AssertExpectations(t)
	ebay.AssertExpectations(t)
	catalog.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestReconcile_PartialPropagationFailure(t *testing.T) {
	events := new(MockSyncEventRepository)
	catalog := new(MockCatalogRepository)
	registry := new(MockPlatformRegistry)
	lock := new(MockReconcileLock)
	engine := newEngine(events, catalog, registry, lock)

	entityID := uuid.New()
	sold := pendingEvent(&entityID, integration.PlatformCodeReverb, integration.KindStatusChange, "sold", time.Now(), 1)

	grantLock(lock, "all")
	events.On("SelectPending", mock.Anything, integration.EventFilter{}).Return([]integration.SyncEvent{sold}, nil)
	catalog.On("FindLinksByLocalEntity", mock.Anything, entityID).Return(entityLinks(entityID), nil)

	shopify := &MockPlatformAdapter{code: integration.PlatformCodeShopify}
	shopify.On("MarkSold", mock.Anything, "shp-1").Return(false, errors.New("503 service unavailable"))
	ebay := &MockPlatformAdapter{code: integration.PlatformCodeEbay}
	ebay.On("MarkSold", mock.Anything, "eby-1").Return(true, nil)
	registry.On("Adapter", integration.PlatformCodeShopify).Return(shopify, nil)
	registry.On("Adapter", integration.PlatformCodeEbay).Return(ebay, nil)

	catalog.On("MarkEntitySold", mock.Anything, entityID).Return(nil)
	events.On("MarkProcessed", mock.Anything, sold.ID, mock.MatchedBy(func(note string) bool {
		return strings.Contains(note, "1 failed") && strings.Contains(note, "503")
	})).Return(nil)

	report, err := engine.Reconcile(context.Background(), integration.EventFilter{}, false)

	require.NoError(t, err)
	assert.Equal(t, 1, report.EventsProcessed)
	assert.Equal(t, 0, report.EventsErrored)
	require.Len(t, report.Propagations, 2)
	require.Len(t, report.PropagationFailures(), 1)
	assert.Equal(t, integration.PlatformCodeShopify, report.PropagationFailures()[0].TargetPlatform)
	events.AssertExpectations(t)
}

func TestReconcile_DryRunLeavesEventsPending(t *testing.T) {
	events := new(MockSyncEventRepository)
	catalog := new(MockCatalogRepository)
	registry := new(MockPlatformRegistry)
	lock := new(MockReconcileLock)
	engine := newEngine(events, catalog, registry, lock)

	entityID := uuid.New()
	sold := pendingEvent(&entityID, integration.PlatformCodeReverb, integration.KindStatusChange, "sold", time.Now(), 1)

	grantLock(lock, "all")
	events.On("SelectPending", mock.Anything, integration.EventFilter{}).Return([]integration.SyncEvent{sold}, nil)
	catalog.On("FindLinksByLocalEntity", mock.Anything, entityID).Return(entityLinks(entityID), nil)

	report, err := engine.Reconcile(context.Background(), integration.EventFilter{}, true)

	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.SoldWinners)
	assert.Equal(t, 1, report.EventsProcessed)
	assert.Len(t, report.Propagations, 2)

	registry.AssertNotCalled(t, "Adapter", mock.Anything)
	catalog.AssertNotCalled(t, "MarkEntitySold", mock.Anything, mock.Anything)
	events.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcile_RogueEventsLeftPending(t *testing.T) {
	events := new(MockSyncEventRepository)
	catalog := new(MockCatalogRepository)
	registry := new(MockPlatformRegistry)
	lock := new(MockReconcileLock)
	engine := newEngine(events, catalog, registry, lock)

	rogue := pendingEvent(nil, integration.PlatformCodeReverb, integration.KindNewListing, "Mystery Guitar", time.Now(), 1)

	grantLock(lock, "all")
	events.On("SelectPending", mock.Anything, integration.EventFilter{}).Return([]integration.SyncEvent{rogue}, nil)

	report, err := engine.Reconcile(context.Background(), integration.EventFilter{}, false)

	require.NoError(t, err)
	assert.Equal(t, 1, report.RogueEvents)
	assert.Equal(t, 0, report.GroupsProcessed)
	assert.Equal(t, 0, report.EventsProcessed)

	registry.AssertNotCalled(t, "Adapter", mock.Anything)
	events.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcile_GroupFailureIsolated(t *testing.T) {
	events := new(MockSyncEventRepository)
	catalog := new(MockCatalogRepository)
	registry := new(MockPlatformRegistry)
	lock := new(MockReconcileLock)
	engine := newEngine(events, catalog, registry, lock)

	brokenID := uuid.New()
	healthyID := uuid.New()
	base := time.Now()
	broken := pendingEvent(&brokenID, integration.PlatformCodeReverb, integration.KindStatusChange, "sold", base, 1)
	healthy := pendingEvent(&healthyID, integration.PlatformCodeShopify, integration.KindPriceChange, "1250.00", base.Add(time.Second), 2)

	grantLock(lock, "all")
	events.On("SelectPending", mock.Anything, integration.EventFilter{}).Return([]integration.SyncEvent{broken, healthy}, nil)

	catalog.On("FindLinksByLocalEntity", mock.Anything, brokenID).Return([]integration.PlatformLink{}, nil)
	catalog.On("MarkEntitySold", mock.Anything, brokenID).Return(errors.New("db connection lost"))
	events.On("MarkError", mock.Anything, broken.ID, mock.MatchedBy(func(note string) bool {
		return strings.Contains(note, "db connection lost")
	})).Return(nil)

	events.On("MarkProcessed", mock.Anything, healthy.ID, "").Return(nil)

	report, err := engine.Reconcile(context.Background(), integration.EventFilter{}, false)

	require.NoError(t, err)
	assert.Equal(t, 2, report.GroupsProcessed)
	assert.Equal(t, 1, report.EventsErrored)
	assert.Equal(t, 1, report.EventsProcessed)
	events.AssertExpectations(t)
}

func TestReconcile_MidGroupFailureCountsEachEventOnce(t *testing.T) {
	events := new(MockSyncEventRepository)
	catalog := new(MockCatalogRepository)
	registry := new(MockPlatformRegistry)
	lock := new(MockReconcileLock)
	engine := newEngine(events, catalog, registry, lock)

	entityID := uuid.New()
	base := time.Now()
	first := pendingEvent(&entityID, integration.PlatformCodeReverb, integration.KindStatusChange, "sold", base, 1)
	second := pendingEvent(&entityID, integration.PlatformCodeEbay, integration.KindStatusChange, "sold", base.Add(time.Minute), 2)
	third := pendingEvent(&entityID, integration.PlatformCodeShopify, integration.KindPriceChange, "1250.00", base.Add(2*time.Minute), 3)

	grantLock(lock, "all")
	events.On("SelectPending", mock.Anything, integration.EventFilter{}).Return([]integration.SyncEvent{first, second, third}, nil)
	catalog.On("FindLinksByLocalEntity", mock.Anything, entityID).Return([]integration.PlatformLink{}, nil)
	catalog.On("MarkEntitySold", mock.Anything, entityID).Return(nil)

	// The winner transitions, then the store fails on the second event.
	events.On("MarkProcessed", mock.Anything, first.ID, mock.AnythingOfType("string")).Return(nil)
	events.On("MarkProcessed", mock.Anything, second.ID, mock.AnythingOfType("string")).Return(errors.New("write timeout"))
	events.On("MarkError", mock.Anything, second.ID, mock.MatchedBy(func(note string) bool {
		return strings.Contains(note, "write timeout")
	})).Return(nil)
	events.On("MarkError", mock.Anything, third.ID, mock.MatchedBy(func(note string) bool {
		return strings.Contains(note, "write timeout")
	})).Return(nil)

	report, err := engine.Reconcile(context.Background(), integration.EventFilter{}, false)

	require.NoError(t, err)
	assert.Equal(t, 3, report.EventsSelected)
	assert.Equal(t, 1, report.GroupsProcessed)
	assert.Equal(t, 1, report.EventsProcessed)
	assert.Equal(t, 2, report.EventsErrored)
	assert.Equal(t, report.EventsSelected, report.EventsProcessed+report.EventsErrored)

	// The already-processed winner must not be error-marked afterwards.
	events.AssertNotCalled(t, "MarkError", mock.Anything, first.ID, mock.Anything)
	events.AssertExpectations(t)
}

func TestReconcile_LockContention(t *testing.T) {
	events := new(MockSyncEventRepository)
	catalog := new(MockCatalogRepository)
	registry := new(MockPlatformRegistry)
	lock := new(MockReconcileLock)
	engine := newEngine(events, catalog, registry, lock)

	lock.On("Acquire", mock.Anything, "all").Return(nil, integration.ErrReconcileInProgress)

	report, err := engine.Reconcile(context.Background(), integration.EventFilter{}, false)

	assert.Nil(t, report)
	assert.ErrorIs(t, err, integration.ErrReconcileInProgress)
	events.AssertNotCalled(t, "SelectPending", mock.Anything, mock.Anything)
}

func TestReconcile_SoldLikeSiblingsSkipped(t *testing.T) {
	events := new(MockSyncEventRepository)
	catalog := new(MockCatalogRepository)
	registry := new(MockPlatformRegistry)
	lock := new(MockReconcileLock)
	engine := newEngine(events, catalog, registry, lock)

	entityID := uuid.New()
	sold := pendingEvent(&entityID, integration.PlatformCodeReverb, integration.KindStatusChange, "sold", time.Now(), 1)
	links := []integration.PlatformLink{
		{ID: uuid.New(), LocalEntityID: entityID, Platform: integration.PlatformCodeReverb, ExternalID: "rev-1", Status: integration.StatusLive},
		{ID: uuid.New(), LocalEntityID: entityID, Platform: integration.PlatformCodeShopify, ExternalID: "shp-1", Status: integration.StatusSold},
	}

	grantLock(lock, "all")
	events.On("SelectPending", mock.Anything, integration.EventFilter{}).Return([]integration.SyncEvent{sold}, nil)
	catalog.On("FindLinksByLocalEntity", mock.Anything, entityID).Return(links, nil)
	catalog.On("MarkEntitySold", mock.Anything, entityID).Return(nil)
	events.On("MarkProcessed", mock.Anything, sold.ID, mock.AnythingOfType("string")).Return(nil)

	report, err := engine.Reconcile(context.Background(), integration.EventFilter{}, false)

	require.NoError(t, err)
	assert.Empty(t, report.Propagations)
	registry.AssertNotCalled(t, "Adapter", mock.Anything)
}
