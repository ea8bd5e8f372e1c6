package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/gearsync/backend/internal/domain/integration"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SyncEventService exposes the event log for inspection and handles the
// manual consolidation of rogue events.
type SyncEventService struct {
	events  integration.SyncEventRepository
	catalog integration.CatalogRepository
	logger  *zap.Logger
}

// NewSyncEventService creates a new SyncEventService
func NewSyncEventService(
	events integration.SyncEventRepository,
	catalog integration.CatalogRepository,
	logger *zap.Logger,
) *SyncEventService {
	return &SyncEventService{
		events:  events,
		catalog: catalog,
		logger:  logger,
	}
}

// ListEvents returns events matching the filter, newest first.
func (s *SyncEventService) ListEvents(
	ctx context.Context,
	filter integration.EventFilter,
	page, pageSize int,
) ([]integration.SyncEvent, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return s.events.List(ctx, filter, page, pageSize)
}

// GetEvent returns one event by id.
func (s *SyncEventService) GetEvent(ctx context.Context, id uuid.UUID) (*integration.SyncEvent, error) {
	return s.events.FindByID(ctx, id)
}

// LinkRogueEvent attaches a rogue event to a local product and records the
// platform link so future detection passes match the listing. This is the
// caller-supplied resolution path for listings of unknown provenance.
func (s *SyncEventService) LinkRogueEvent(
	ctx context.Context,
	eventID uuid.UUID,
	localEntityID uuid.UUID,
) (*integration.SyncEvent, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsRogue() {
		return nil, integration.ErrEventNotRogue
	}

	product, err := s.catalog.FindProductByID(ctx, localEntityID)
	if err != nil {
		return nil, err
	}

	if err := s.events.AttachLocalEntity(ctx, eventID, localEntityID); err != nil {
		return nil, err
	}

	links, err := s.catalog.FindLinksByLocalEntity(ctx, localEntityID)
	if err != nil {
		return nil, fmt.Errorf("integration: load platform links: %w", err)
	}
	for _, link := range links {
		if link.Platform == event.Platform && link.ExternalID == event.ExternalID {
			return s.events.FindByID(ctx, eventID)
		}
	}

	now := time.Now()
	link := &integration.PlatformLink{
		ID:            uuid.New(),
		LocalEntityID: localEntityID,
		Platform:      event.Platform,
		ExternalID:    event.ExternalID,
		SKU:           product.SKU,
		Title:         event.NewValue,
		Status:        integration.NormalizeStatus(event.NewValue),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if event.Kind == integration.KindNewListing {
		// A new-listing event carries the remote title in NewValue and no
		// trustworthy status yet.
		link.Status = integration.StatusUnknown
	}
	if err := s.catalog.SaveLink(ctx, link); err != nil {
		return nil, fmt.Errorf("integration: save platform link: %w", err)
	}

	s.logger.Info("rogue event linked",
		zap.String("event_id", eventID.String()),
		zap.String("local_entity_id", localEntityID.String()),
		zap.String("platform", event.Platform.String()),
		zap.String("external_id", event.ExternalID))

	return s.events.FindByID(ctx, eventID)
}
