package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/gearsync/backend/internal/domain/integration"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InboundSyncService runs the inbound half of a sync cycle: pull a platform
// snapshot, compare it to local belief, and append every divergence to the
// event log as a pending sync event.
type InboundSyncService struct {
	platforms integration.PlatformRegistry
	local     integration.LocalStateProvider
	events    integration.SyncEventRepository
	detector  *ChangeDetector
	logger    *zap.Logger
	now       func() time.Time
}

// NewInboundSyncService creates a new InboundSyncService
func NewInboundSyncService(
	platforms integration.PlatformRegistry,
	local integration.LocalStateProvider,
	events integration.SyncEventRepository,
	logger *zap.Logger,
) *InboundSyncService {
	return &InboundSyncService{
		platforms: platforms,
		local:     local,
		events:    events,
		detector:  NewChangeDetector(),
		logger:    logger,
		now:       time.Now,
	}
}

// RunOnce executes one detection pass for one platform. The pass never
// fails hard: transport and persistence errors end up in the report.
func (s *InboundSyncService) RunOnce(ctx context.Context, platform integration.PlatformCode) *integration.SyncRunReport {
	report := &integration.SyncRunReport{
		Platform:  platform,
		SyncRunID: uuid.New(),
		StartedAt: s.now(),
	}
	defer func() {
		report.CompletedAt = s.now()
	}()

	adapter, err := s.platforms.Adapter(platform)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
		return report
	}

	remote, err := adapter.ListCurrent(ctx)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("snapshot: %v", err))
		return report
	}
	report.RemoteCount = len(remote)

	local, err := s.local.ListLocal(ctx, platform)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("local state: %v", err))
		return report
	}
	report.LocalCount = len(local)

	records, detectErrs := s.detector.Detect(platform, remote, local)
	report.Divergences = records
	report.Errors = append(report.Errors, detectErrs...)

	if len(records) > 0 {
		detectedAt := s.now()
		events := make([]*integration.SyncEvent, 0, len(records))
		for _, rec := range records {
			events = append(events, integration.NewSyncEvent(report.SyncRunID, rec, detectedAt))
		}
		if err := s.events.Append(ctx, events); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("append events: %v", err))
		}
	}

	s.logger.Info("sync pass completed",
		zap.String("platform", platform.String()),
		zap.String("sync_run_id", report.SyncRunID.String()),
		zap.Int("remote_count", report.RemoteCount),
		zap.Int("local_count", report.LocalCount),
		zap.Int("divergences", len(report.Divergences)),
		zap.Int("errors", len(report.Errors)))

	return report
}

// RunAll executes one detection pass per configured platform, sequentially.
// A failing platform never blocks the others.
func (s *InboundSyncService) RunAll(ctx context.Context) map[integration.PlatformCode]*integration.SyncRunReport {
	reports := make(map[integration.PlatformCode]*integration.SyncRunReport)
	for _, code := range s.platforms.Codes() {
		reports[code] = s.RunOnce(ctx, code)
	}
	return reports
}
