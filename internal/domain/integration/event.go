package integration

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// EventStatus
// ---------------------------------------------------------------------------

// EventStatus represents the processing status of a sync event
type EventStatus string

const (
	// EventStatusPending indicates the event awaits reconciliation
	EventStatusPending EventStatus = "PENDING"
	// EventStatusProcessed indicates the event was arbitrated and, if
	// needed, propagated
	EventStatusProcessed EventStatus = "PROCESSED"
	// EventStatusIgnored indicates arbitration decided no action was needed
	EventStatusIgnored EventStatus = "IGNORED"
	// EventStatusError indicates processing failed; the event stays
	// reprocessable by re-running reconciliation
	EventStatusError EventStatus = "ERROR"
)

// IsValid returns true if the status is valid
func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusPending, EventStatusProcessed, EventStatusIgnored, EventStatusError:
		return true
	default:
		return false
	}
}

// String returns the string representation of EventStatus
func (s EventStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// SyncEvent
// ---------------------------------------------------------------------------

// SyncEvent is the durable, append-only record of one detected divergence.
// Events are immutable except for Status, ProcessedAt, Notes, and the single
// rogue-relink path that sets LocalEntityID on a previously unmatched event.
// Events are never physically deleted; the log is the permanent audit trail.
type SyncEvent struct {
	// ID is the unique identifier of the event
	ID uuid.UUID
	// Seq is the monotonic append order, assigned by the event log.
	// It breaks DetectedAt ties during arbitration.
	Seq int64
	// SyncRunID groups every divergence from one scheduler invocation
	SyncRunID uuid.UUID
	// Platform identifies the marketplace the divergence came from
	Platform PlatformCode
	// LocalEntityID is the local product, nil for rogue listings
	LocalEntityID *uuid.UUID
	// LocalLinkID is the platform link record id, nil for rogue listings
	LocalLinkID *uuid.UUID
	// ExternalID is the platform's listing identifier
	ExternalID string
	// SKU is the merchant SKU when known
	SKU string
	// Kind classifies the divergence
	Kind DivergenceKind
	// Field names the diverging field
	Field string
	// OldValue is the locally believed value at detection time
	OldValue string
	// NewValue is the value the platform reported
	NewValue string
	// Confidence is the informational detection confidence
	Confidence float64
	// RequiresPropagation was computed at detection time
	RequiresPropagation bool
	// Status is the processing status
	Status EventStatus
	// DetectedAt is when the divergence was detected
	DetectedAt time.Time
	// ProcessedAt is when the event left pending, nil while pending
	ProcessedAt *time.Time
	// Notes carries error messages and reconciliation commentary
	Notes string
}

// NewSyncEvent creates a pending sync event from a divergence record.
func NewSyncEvent(runID uuid.UUID, rec DivergenceRecord, detectedAt time.Time) *SyncEvent {
	return &SyncEvent{
		ID:                  uuid.New(),
		SyncRunID:           runID,
		Platform:            rec.Platform,
		LocalEntityID:       rec.LocalEntityID,
		LocalLinkID:         rec.LocalLinkID,
		ExternalID:          rec.ExternalID,
		SKU:                 rec.SKU,
		Kind:                rec.Kind,
		Field:               rec.Field,
		OldValue:            rec.OldValue,
		NewValue:            rec.NewValue,
		Confidence:          rec.Confidence,
		RequiresPropagation: rec.RequiresPropagation,
		Status:              EventStatusPending,
		DetectedAt:          detectedAt,
	}
}

// IsRogue returns true when the event has no local entity
func (e *SyncEvent) IsRogue() bool {
	return e.LocalEntityID == nil
}

// IsSoldSignal returns true when this event is a status change whose new
// value normalizes to a sold-like status.
func (e *SyncEvent) IsSoldSignal() bool {
	return e.Kind == KindStatusChange && NormalizeStatus(e.NewValue).IsSoldLike()
}

// MarkProcessed transitions the event to processed
func (e *SyncEvent) MarkProcessed(note string) {
	now := time.Now()
	e.Status = EventStatusProcessed
	e.ProcessedAt = &now
	e.appendNote(note)
}

// MarkIgnored transitions the event to ignored
func (e *SyncEvent) MarkIgnored() {
	now := time.Now()
	e.Status = EventStatusIgnored
	e.ProcessedAt = &now
}

// MarkError transitions the event to error with the failure text
func (e *SyncEvent) MarkError(note string) {
	now := time.Now()
	e.Status = EventStatusError
	e.ProcessedAt = &now
	e.appendNote(note)
}

func (e *SyncEvent) appendNote(note string) {
	if note == "" {
		return
	}
	if e.Notes == "" {
		e.Notes = note
		return
	}
	e.Notes = e.Notes + "; " + note
}

// ---------------------------------------------------------------------------
// EventFilter
// ---------------------------------------------------------------------------

// EventFilter selects sync events for reconciliation or listing.
// A zero filter selects everything in scope.
type EventFilter struct {
	// RunID selects events of one sync run (optional)
	RunID *uuid.UUID
	// SKU selects events for one SKU, joined through the local entity (optional)
	SKU *string
	// Kind selects events of one divergence kind (optional)
	Kind *DivergenceKind
	// Platform selects events from one marketplace (optional, listing only)
	Platform *PlatformCode
	// Status selects events in one processing status (optional, listing only)
	Status *EventStatus
}

// Scope returns the lock scope key for this selection. Unconstrained
// selections share a single global scope so two broad reconciliations
// cannot claim the same pending events.
func (f EventFilter) Scope() string {
	parts := make([]string, 0, 3)
	if f.RunID != nil {
		parts = append(parts, "run:"+f.RunID.String())
	}
	if f.SKU != nil {
		parts = append(parts, "sku:"+*f.SKU)
	}
	if f.Kind != nil {
		parts = append(parts, "kind:"+f.Kind.String())
	}
	if len(parts) == 0 {
		return "all"
	}
	return strings.Join(parts, "|")
}

// ---------------------------------------------------------------------------
// SyncEventRepository Interface
// ---------------------------------------------------------------------------

// SyncEventRepository defines the append-only event log.
type SyncEventRepository interface {
	// Append persists new events and assigns each its Seq in batch order
	Append(ctx context.Context, events []*SyncEvent) error

	// SelectPending returns pending and errored events matching the filter,
	// ordered by DetectedAt ascending then Seq ascending. This ordering is
	// load-bearing for first-detected-wins arbitration. Errored events are
	// included so re-running reconciliation retries them.
	SelectPending(ctx context.Context, filter EventFilter) ([]SyncEvent, error)

	// FindByID returns one event
	FindByID(ctx context.Context, id uuid.UUID) (*SyncEvent, error)

	// List returns events matching the filter with pagination, newest first
	List(ctx context.Context, filter EventFilter, page, pageSize int) ([]SyncEvent, int64, error)

	// MarkProcessed transitions a pending or errored event to processed
	MarkProcessed(ctx context.Context, id uuid.UUID, note string) error

	// MarkError transitions a pending or errored event to error with the
	// failure text
	MarkError(ctx context.Context, id uuid.UUID, note string) error

	// MarkIgnored transitions a pending or errored event to ignored
	MarkIgnored(ctx context.Context, id uuid.UUID) error

	// AttachLocalEntity links a rogue event to a local entity. This is the
	// only path that mutates LocalEntityID; it fails on non-rogue events.
	AttachLocalEntity(ctx context.Context, id uuid.UUID, localEntityID uuid.UUID) error
}
