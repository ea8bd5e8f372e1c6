package integration

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gearsync/backend/internal/domain/integration"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReconciliationEngine arbitrates pending sync events and pushes winning
// sold signals out to the sibling platforms of the affected entity.
type ReconciliationEngine struct {
	events    integration.SyncEventRepository
	catalog   integration.CatalogRepository
	platforms integration.PlatformRegistry
	lock      integration.ReconcileLock
	logger    *zap.Logger
}

// NewReconciliationEngine creates a new ReconciliationEngine
func NewReconciliationEngine(
	events integration.SyncEventRepository,
	catalog integration.CatalogRepository,
	platforms integration.PlatformRegistry,
	lock integration.ReconcileLock,
	logger *zap.Logger,
) *ReconciliationEngine {
	return &ReconciliationEngine{
		events:    events,
		catalog:   catalog,
		platforms: platforms,
		lock:      lock,
		logger:    logger,
	}
}

// Reconcile selects outstanding events matching the filter (pending plus
// previously errored ones, so re-running retries failures), groups them by
// local entity, arbitrates sold signals first-detected-wins, and propagates
// each winner to the entity's other platform links. Rogue events are counted and
// left pending for manual consolidation. With dryRun set the same path runs
// but adapter calls and catalog writes are suppressed.
func (e *ReconciliationEngine) Reconcile(
	ctx context.Context,
	filter integration.EventFilter,
	dryRun bool,
) (*integration.ReconciliationReport, error) {
	scope := filter.Scope()

	release, err := e.lock.Acquire(ctx, scope)
	if err != nil {
		return nil, err
	}
	defer release()

	report := &integration.ReconciliationReport{
		Scope:     scope,
		DryRun:    dryRun,
		StartedAt: time.Now(),
	}

	pending, err := e.events.SelectPending(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("integration: select pending events: %w", err)
	}
	report.EventsSelected = len(pending)

	groups := make(map[uuid.UUID][]integration.SyncEvent)
	order := make([]uuid.UUID, 0)
	for _, ev := range pending {
		if ev.IsRogue() {
			report.RogueEvents++
			continue
		}
		entityID := *ev.LocalEntityID
		if _, seen := groups[entityID]; !seen {
			order = append(order, entityID)
		}
		groups[entityID] = append(groups[entityID], ev)
	}

	for _, entityID := range order {
		group := groups[entityID]
		report.GroupsProcessed++

		if remaining, err := e.reconcileGroup(ctx, entityID, group, dryRun, report); err != nil {
			e.logger.Error("reconciliation group failed",
				zap.String("local_entity_id", entityID.String()),
				zap.Error(err))
			e.markGroupError(ctx, remaining, err, dryRun, report)
		}
	}

	report.CompletedAt = time.Now()

	e.logger.Info("reconciliation completed",
		zap.String("scope", scope),
		zap.Bool("dry_run", dryRun),
		zap.Int("events_selected", report.EventsSelected),
		zap.Int("groups_processed", report.GroupsProcessed),
		zap.Int("events_processed", report.EventsProcessed),
		zap.Int("events_errored", report.EventsErrored),
		zap.Int("rogue_events", report.RogueEvents),
		zap.Int("sold_winners", report.SoldWinners))

	return report, nil
}

// reconcileGroup processes every pending event of one local entity. On
// failure it returns the events that had not yet transitioned, so the caller
// error-marks only those; events already marked processed stay processed.
func (e *ReconciliationEngine) reconcileGroup(
	ctx context.Context,
	entityID uuid.UUID,
	group []integration.SyncEvent,
	dryRun bool,
	report *integration.ReconciliationReport,
) ([]integration.SyncEvent, error) {
	// SelectPending already orders by (DetectedAt, Seq); re-sorting keeps the
	// arbitration correct even against a repository that forgets to.
	sort.SliceStable(group, func(i, j int) bool {
		if group[i].DetectedAt.Equal(group[j].DetectedAt) {
			return group[i].Seq < group[j].Seq
		}
		return group[i].DetectedAt.Before(group[j].DetectedAt)
	})

	var winner *integration.SyncEvent
	for i := range group {
		if group[i].IsSoldSignal() {
			winner = &group[i]
			break
		}
	}

	winnerNote := ""
	if winner != nil {
		report.SoldWinners++
		results := e.propagateSold(ctx, entityID, winner, dryRun, report)
		winnerNote = propagationNote(results, dryRun)

		if !dryRun {
			if err := e.catalog.MarkEntitySold(ctx, entityID); err != nil {
				return group, fmt.Errorf("mark entity sold: %w", err)
			}
		}
	}

	for i := range group {
		ev := &group[i]
		note := ""
		switch {
		case winner != nil && ev.ID == winner.ID:
			note = winnerNote
		case winner != nil && ev.IsSoldSignal():
			note = fmt.Sprintf("superseded by event %s from %s", winner.ID, winner.Platform)
		}
		if !dryRun {
			if err := e.events.MarkProcessed(ctx, ev.ID, note); err != nil {
				return group[i:], fmt.Errorf("mark event %s processed: %w", ev.ID, err)
			}
		}
		report.EventsProcessed++
	}

	return nil, nil
}

// propagateSold issues one MarkSold call per sibling platform link of the
// entity. A per-platform failure is recorded and does not block the rest.
func (e *ReconciliationEngine) propagateSold(
	ctx context.Context,
	entityID uuid.UUID,
	winner *integration.SyncEvent,
	dryRun bool,
	report *integration.ReconciliationReport,
) []integration.PropagationResult {
	links, err := e.catalog.FindLinksByLocalEntity(ctx, entityID)
	if err != nil {
		result := integration.PropagationResult{
			LocalEntityID:  entityID,
			WinnerEventID:  winner.ID,
			SourcePlatform: winner.Platform,
			OK:             false,
			Error:          fmt.Sprintf("load platform links: %v", err),
		}
		report.Propagations = append(report.Propagations, result)
		return []integration.PropagationResult{result}
	}

	results := make([]integration.PropagationResult, 0, len(links))
	for _, link := range links {
		if link.Platform == winner.Platform {
			continue
		}
		if link.Status.IsSoldLike() {
			continue
		}

		result := integration.PropagationResult{
			LocalEntityID:  entityID,
			WinnerEventID:  winner.ID,
			SourcePlatform: winner.Platform,
			TargetPlatform: link.Platform,
			ExternalID:     link.ExternalID,
		}

		if dryRun {
			result.OK = true
			results = append(results, result)
			report.Propagations = append(report.Propagations, result)
			continue
		}

		adapter, err := e.platforms.Adapter(link.Platform)
		if err != nil {
			result.Error = err.Error()
		} else if ok, err := adapter.MarkSold(ctx, link.ExternalID); err != nil {
			result.Error = err.Error()
		} else {
			result.OK = ok
		}

		if result.Error != "" {
			e.logger.Warn("sold propagation failed",
				zap.String("local_entity_id", entityID.String()),
				zap.String("target_platform", link.Platform.String()),
				zap.String("external_id", link.ExternalID),
				zap.String("error", result.Error))
		}

		results = append(results, result)
		report.Propagations = append(report.Propagations, result)
	}

	return results
}

// markGroupError marks the not-yet-processed events of a failed group as
// error so they stay visible and reprocessable.
func (e *ReconciliationEngine) markGroupError(
	ctx context.Context,
	group []integration.SyncEvent,
	groupErr error,
	dryRun bool,
	report *integration.ReconciliationReport,
) {
	for _, ev := range group {
		if !dryRun {
			if err := e.events.MarkError(ctx, ev.ID, groupErr.Error()); err != nil {
				e.logger.Error("failed to mark event error",
					zap.String("event_id", ev.ID.String()),
					zap.Error(err))
			}
		}
		report.EventsErrored++
	}
}

func propagationNote(results []integration.PropagationResult, dryRun bool) string {
	if dryRun {
		return fmt.Sprintf("dry run: %d propagation(s) simulated", len(results))
	}
	succeeded := 0
	failed := make([]string, 0)
	for _, r := range results {
		if r.OK && r.Error == "" {
			succeeded++
			continue
		}
		target := r.TargetPlatform.String()
		if target == "" {
			target = "links"
		}
		failed = append(failed, fmt.Sprintf("%s: %s", target, r.Error))
	}
	if len(failed) == 0 {
		if succeeded == 0 {
			return "sold signal accepted, no sibling listings to update"
		}
		return fmt.Sprintf("propagated to %d platform(s)", succeeded)
	}
	note := fmt.Sprintf("propagated to %d platform(s), %d failed", succeeded, len(failed))
	for _, f := range failed {
		note += "; " + f
	}
	return note
}
