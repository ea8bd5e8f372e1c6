package scheduler

import (
	"context"
	"fmt"
	"strings"

	appintegration "github.com/gearsync/backend/internal/application/integration"
)

// InboundSyncExecutor runs detection passes through the inbound sync service.
type InboundSyncExecutor struct {
	inbound *appintegration.InboundSyncService
}

var _ SyncExecutor = (*InboundSyncExecutor)(nil)

// NewInboundSyncExecutor creates a new InboundSyncExecutor
func NewInboundSyncExecutor(inbound *appintegration.InboundSyncService) *InboundSyncExecutor {
	return &InboundSyncExecutor{inbound: inbound}
}

// Execute runs one detection pass. A pass that never obtained a snapshot
// is a hard failure so the scheduler retries it; a pass with partial
// errors completed its useful work and is not retried.
func (e *InboundSyncExecutor) Execute(ctx context.Context, job *SyncJob) error {
	report := e.inbound.RunOnce(ctx, job.Platform)

	if report.RemoteCount == 0 && len(report.Errors) > 0 {
		return fmt.Errorf("sync pass aborted: %s", strings.Join(report.Errors, "; "))
	}

	job.Complete(report)
	return nil
}
