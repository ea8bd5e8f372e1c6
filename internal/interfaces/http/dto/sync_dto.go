package dto

import (
	"time"

	"github.com/gearsync/backend/internal/domain/integration"
)

// TriggerSyncRequest asks for a detection pass. An empty platform means
// every configured platform.
type TriggerSyncRequest struct {
	Platform string `json:"platform"`
}

// SyncRunReportResponse is the outcome of one detection pass
type SyncRunReportResponse struct {
	Platform    string    `json:"platform"`
	SyncRunID   string    `json:"sync_run_id"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	RemoteCount int       `json:"remote_count"`
	LocalCount  int       `json:"local_count"`
	Divergences int       `json:"divergences"`
	Errors      []string  `json:"errors,omitempty"`
}

// NewSyncRunReportResponse maps a run report to its response shape
func NewSyncRunReportResponse(report *integration.SyncRunReport) SyncRunReportResponse {
	return SyncRunReportResponse{
		Platform:    report.Platform.String(),
		SyncRunID:   report.SyncRunID.String(),
		StartedAt:   report.StartedAt,
		CompletedAt: report.CompletedAt,
		RemoteCount: report.RemoteCount,
		LocalCount:  report.LocalCount,
		Divergences: len(report.Divergences),
		Errors:      report.Errors,
	}
}

// ReconcileRequest selects pending events and runs arbitration over them
type ReconcileRequest struct {
	RunID  string `json:"run_id"`
	SKU    string `json:"sku"`
	Kind   string `json:"kind"`
	DryRun bool   `json:"dry_run"`
}

// PropagationResultResponse is one MarkSold attempt against one platform
type PropagationResultResponse struct {
	LocalEntityID  string `json:"local_entity_id"`
	WinnerEventID  string `json:"winner_event_id"`
	SourcePlatform string `json:"source_platform"`
	TargetPlatform string `json:"target_platform"`
	ExternalID     string `json:"external_id"`
	OK             bool   `json:"ok"`
	Error          string `json:"error,omitempty"`
}

// ReconciliationReportResponse is the outcome of one reconciliation run
type ReconciliationReportResponse struct {
	Scope           string                      `json:"scope"`
	DryRun          bool                        `json:"dry_run"`
	StartedAt       time.Time                   `json:"started_at"`
	CompletedAt     time.Time                   `json:"completed_at"`
	EventsSelected  int                         `json:"events_selected"`
	GroupsProcessed int                         `json:"groups_processed"`
	EventsProcessed int                         `json:"events_processed"`
	EventsErrored   int                         `json:"events_errored"`
	RogueEvents     int                         `json:"rogue_events"`
	SoldWinners     int                         `json:"sold_winners"`
	Propagations    []PropagationResultResponse `json:"propagations"`
}

// NewReconciliationReportResponse maps a reconciliation report to its response shape
func NewReconciliationReportResponse(report *integration.ReconciliationReport) ReconciliationReportResponse {
	propagations := make([]PropagationResultResponse, 0, len(report.Propagations))
	for _, p := range report.Propagations {
		propagations = append(propagations, PropagationResultResponse{
			LocalEntityID:  p.LocalEntityID.String(),
			WinnerEventID:  p.WinnerEventID.String(),
			SourcePlatform: p.SourcePlatform.String(),
			TargetPlatform: p.TargetPlatform.String(),
			ExternalID:     p.ExternalID,
			OK:             p.OK,
			Error:          p.Error,
		})
	}
	return ReconciliationReportResponse{
		Scope:           report.Scope,
		DryRun:          report.DryRun,
		StartedAt:       report.StartedAt,
		CompletedAt:     report.CompletedAt,
		EventsSelected:  report.EventsSelected,
		GroupsProcessed: report.GroupsProcessed,
		EventsProcessed: report.EventsProcessed,
		EventsErrored:   report.EventsErrored,
		RogueEvents:     report.RogueEvents,
		SoldWinners:     report.SoldWinners,
		Propagations:    propagations,
	}
}

// ListEventsRequest carries the event log query parameters
type ListEventsRequest struct {
	RunID    string `form:"run_id"`
	SKU      string `form:"sku"`
	Kind     string `form:"kind"`
	Platform string `form:"platform"`
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// SyncEventResponse is one event log entry
type SyncEventResponse struct {
	ID                  string     `json:"id"`
	Seq                 int64      `json:"seq"`
	SyncRunID           string     `json:"sync_run_id"`
	Platform            string     `json:"platform"`
	LocalEntityID       *string    `json:"local_entity_id,omitempty"`
	ExternalID          string     `json:"external_id"`
	SKU                 string     `json:"sku,omitempty"`
	Kind                string     `json:"kind"`
	Field               string     `json:"field"`
	OldValue            string     `json:"old_value"`
	NewValue            string     `json:"new_value"`
	Confidence          float64    `json:"confidence"`
	RequiresPropagation bool       `json:"requires_propagation"`
	Status              string     `json:"status"`
	DetectedAt          time.Time  `json:"detected_at"`
	ProcessedAt         *time.Time `json:"processed_at,omitempty"`
	Notes               string     `json:"notes,omitempty"`
}

// NewSyncEventResponse maps a sync event to its response shape
func NewSyncEventResponse(event *integration.SyncEvent) SyncEventResponse {
	resp := SyncEventResponse{
		ID:                  event.ID.String(),
		Seq:                 event.Seq,
		SyncRunID:           event.SyncRunID.String(),
		Platform:            event.Platform.String(),
		ExternalID:          event.ExternalID,
		SKU:                 event.SKU,
		Kind:                event.Kind.String(),
		Field:               event.Field,
		OldValue:            event.OldValue,
		NewValue:            event.NewValue,
		Confidence:          event.Confidence,
		RequiresPropagation: event.RequiresPropagation,
		Status:              event.Status.String(),
		DetectedAt:          event.DetectedAt,
		ProcessedAt:         event.ProcessedAt,
		Notes:               event.Notes,
	}
	if event.LocalEntityID != nil {
		id := event.LocalEntityID.String()
		resp.LocalEntityID = &id
	}
	return resp
}

// NewSyncEventListResponse maps a page of events
func NewSyncEventListResponse(events []integration.SyncEvent) []SyncEventResponse {
	out := make([]SyncEventResponse, 0, len(events))
	for i := range events {
		out = append(out, NewSyncEventResponse(&events[i]))
	}
	return out
}

// LinkEventRequest attaches a rogue event to a local product
type LinkEventRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
}

// SyncJobResponse is one scheduler job history entry
type SyncJobResponse struct {
	ID          string     `json:"id"`
	Platform    string     `json:"platform"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	RetryCount  int        `json:"retry_count"`
	RemoteCount int        `json:"remote_count"`
	Divergences int        `json:"divergences"`
}
