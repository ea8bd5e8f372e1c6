package integration

import (
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// SyncRunReport
// ---------------------------------------------------------------------------

// SyncRunReport summarizes one inbound detection pass for one platform.
// Reports are ephemeral; the durable record of a run is its sync events.
type SyncRunReport struct {
	// Platform is the marketplace the pass ran against
	Platform PlatformCode
	// SyncRunID groups the events appended by this pass
	SyncRunID uuid.UUID
	// StartedAt is when the pass began
	StartedAt time.Time
	// CompletedAt is when the pass finished
	CompletedAt time.Time
	// RemoteCount is the number of remote listings compared
	RemoteCount int
	// LocalCount is the number of local listings compared
	LocalCount int
	// Divergences are the records produced by the change detector
	Divergences []DivergenceRecord
	// Errors collects transport and per-category detection failures
	Errors []string
}

// HasErrors returns true when the pass recorded any failure
func (r *SyncRunReport) HasErrors() bool {
	return len(r.Errors) > 0
}

// ---------------------------------------------------------------------------
// ReconciliationReport
// ---------------------------------------------------------------------------

// PropagationResult records one MarkSold attempt against one platform.
type PropagationResult struct {
	// LocalEntityID is the entity the sold signal belongs to
	LocalEntityID uuid.UUID
	// WinnerEventID is the arbitration-winning sold event
	WinnerEventID uuid.UUID
	// SourcePlatform is the platform that reported the sale
	SourcePlatform PlatformCode
	// TargetPlatform is the platform that received the MarkSold call
	TargetPlatform PlatformCode
	// ExternalID is the target listing identifier
	ExternalID string
	// OK is true when the platform accepted the call
	OK bool
	// Error is the failure text, empty on success
	Error string
}

// ReconciliationReport summarizes one reconciliation invocation.
type ReconciliationReport struct {
	// Scope names the selection criteria used
	Scope string
	// DryRun is true when side effects were simulated
	DryRun bool
	// StartedAt is when reconciliation began
	StartedAt time.Time
	// CompletedAt is when reconciliation finished
	CompletedAt time.Time
	// EventsSelected is the number of pending events matched
	EventsSelected int
	// GroupsProcessed is the number of local-entity groups walked
	GroupsProcessed int
	// EventsProcessed is the number of events marked processed
	EventsProcessed int
	// EventsErrored is the number of events marked error
	EventsErrored int
	// RogueEvents is the number of unlinked events left pending for
	// manual consolidation
	RogueEvents int
	// SoldWinners is the number of groups with a winning sold signal
	SoldWinners int
	// Propagations lists every MarkSold attempt, successful or not
	Propagations []PropagationResult
}

// PropagationFailures returns the failed MarkSold attempts
func (r *ReconciliationReport) PropagationFailures() []PropagationResult {
	failures := make([]PropagationResult, 0)
	for _, p := range r.Propagations {
		if !p.OK || p.Error != "" {
			failures = append(failures, p)
		}
	}
	return failures
}
