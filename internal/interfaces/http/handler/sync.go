package handler

import (
	"errors"

	appintegration "github.com/gearsync/backend/internal/application/integration"
	"github.com/gearsync/backend/internal/domain/integration"
	"github.com/gearsync/backend/internal/infrastructure/scheduler"
	"github.com/gearsync/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SyncHandler exposes the sync engine: detection passes, the event log,
// rogue event consolidation, and reconciliation runs.
type SyncHandler struct {
	BaseHandler
	inbound    *appintegration.InboundSyncService
	reconciler *appintegration.ReconciliationEngine
	events     *appintegration.SyncEventService
	jobs       *scheduler.CatalogSyncScheduler
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(
	inbound *appintegration.InboundSyncService,
	reconciler *appintegration.ReconciliationEngine,
	events *appintegration.SyncEventService,
	jobs *scheduler.CatalogSyncScheduler,
) *SyncHandler {
	return &SyncHandler{
		inbound:    inbound,
		reconciler: reconciler,
		events:     events,
		jobs:       jobs,
	}
}

// RegisterRoutes registers sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.POST("/runs", h.TriggerRun)
		sync.POST("/reconcile", h.Reconcile)
		sync.GET("/events", h.ListEvents)
		sync.GET("/events/:id", h.GetEvent)
		sync.POST("/events/:id/link", h.LinkEvent)
		sync.GET("/jobs", h.ListJobs)
	}
}

// TriggerRun runs a detection pass immediately. An empty platform runs
// every configured platform.
func (h *SyncHandler) TriggerRun(c *gin.Context) {
	// An empty body is a run-everything request.
	var req dto.TriggerSyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, "invalid request body")
			return
		}
	}

	if req.Platform == "" {
		reports := h.inbound.RunAll(c.Request.Context())
		out := make([]dto.SyncRunReportResponse, 0, len(reports))
		for _, report := range reports {
			out = append(out, dto.NewSyncRunReportResponse(report))
		}
		h.Success(c, out)
		return
	}

	platform, err := integration.ParsePlatformCode(req.Platform)
	if err != nil {
		h.BadRequest(c, "unknown platform: "+req.Platform)
		return
	}

	report := h.inbound.RunOnce(c.Request.Context(), platform)
	h.Success(c, dto.NewSyncRunReportResponse(report))
}

// Reconcile arbitrates and propagates pending events in the selected scope.
func (h *SyncHandler) Reconcile(c *gin.Context) {
	// An empty body reconciles the full pending backlog.
	var req dto.ReconcileRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, "invalid request body")
			return
		}
	}

	filter, ok := h.buildFilter(c, req)
	if !ok {
		return
	}

	report, err := h.reconciler.Reconcile(c.Request.Context(), filter, req.DryRun)
	if err != nil {
		if errors.Is(err, integration.ErrReconcileInProgress) {
			h.Conflict(c, dto.ErrCodeReconcileInProgress, err.Error())
			return
		}
		h.InternalError(c, err.Error())
		return
	}

	h.Success(c, dto.NewReconciliationReportResponse(report))
}

// ListEvents returns event log entries, newest first.
func (h *SyncHandler) ListEvents(c *gin.Context) {
	var req dto.ListEventsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "invalid query parameters")
		return
	}

	filter, ok := h.buildFilter(c, dto.ReconcileRequest{RunID: req.RunID, SKU: req.SKU, Kind: req.Kind})
	if !ok {
		return
	}

	if req.Platform != "" {
		platform, err := integration.ParsePlatformCode(req.Platform)
		if err != nil {
			h.BadRequest(c, "unknown platform: "+req.Platform)
			return
		}
		filter.Platform = &platform
	}
	if req.Status != "" {
		status := integration.EventStatus(req.Status)
		if !status.IsValid() {
			h.BadRequest(c, "unknown event status: "+req.Status)
			return
		}
		filter.Status = &status
	}

	events, total, err := h.events.ListEvents(c.Request.Context(), filter, req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	h.SuccessWithMeta(c, dto.NewSyncEventListResponse(events), total, page, pageSize)
}

// GetEvent returns one event log entry.
func (h *SyncHandler) GetEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid event id")
		return
	}

	event, err := h.events.GetEvent(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, integration.ErrEventNotFound) {
			h.NotFound(c, "event not found")
			return
		}
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.NewSyncEventResponse(event))
}

// LinkEvent attaches a rogue event to a local product.
func (h *SyncHandler) LinkEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid event id")
		return
	}

	var req dto.LinkEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "product_id is required")
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		h.BadRequest(c, "invalid product id")
		return
	}

	event, err := h.events.LinkRogueEvent(c.Request.Context(), id, productID)
	if err != nil {
		switch {
		case errors.Is(err, integration.ErrEventNotFound):
			h.NotFound(c, "event not found")
		case errors.Is(err, integration.ErrEntityNotFound):
			h.NotFound(c, "product not found")
		case errors.Is(err, integration.ErrEventNotRogue):
			h.UnprocessableEntity(c, dto.ErrCodeInvalidState, "event is already linked to a product")
		default:
			h.HandleError(c, err)
		}
		return
	}

	h.Success(c, dto.NewSyncEventResponse(event))
}

// ListJobs returns recent scheduler job history.
func (h *SyncHandler) ListJobs(c *gin.Context) {
	jobs := h.jobs.GetJobHistory(50)

	out := make([]dto.SyncJobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, dto.SyncJobResponse{
			ID:          job.ID.String(),
			Platform:    job.Platform.String(),
			Status:      string(job.Status),
			Error:       job.Error,
			StartedAt:   job.StartedAt,
			CompletedAt: job.CompletedAt,
			RetryCount:  job.RetryCount,
			RemoteCount: job.RemoteCount,
			Divergences: job.DivergenceCount,
		})
	}
	h.Success(c, out)
}

// buildFilter parses the shared run/sku/kind selection. It writes the error
// response itself and reports success through the second return value.
func (h *SyncHandler) buildFilter(c *gin.Context, req dto.ReconcileRequest) (integration.EventFilter, bool) {
	var filter integration.EventFilter

	if req.RunID != "" {
		runID, err := uuid.Parse(req.RunID)
		if err != nil {
			h.BadRequest(c, "invalid run id")
			return filter, false
		}
		filter.RunID = &runID
	}
	if req.SKU != "" {
		sku := req.SKU
		filter.SKU = &sku
	}
	if req.Kind != "" {
		kind := integration.DivergenceKind(req.Kind)
		if !kind.IsValid() {
			h.BadRequest(c, "unknown divergence kind: "+req.Kind)
			return filter, false
		}
		filter.Kind = &kind
	}

	return filter, true
}
