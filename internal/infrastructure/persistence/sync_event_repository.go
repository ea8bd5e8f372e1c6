package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/gearsync/backend/internal/domain/integration"
	"github.com/gearsync/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSyncEventRepository implements SyncEventRepository using GORM
type GormSyncEventRepository struct {
	db *gorm.DB
}

// NewGormSyncEventRepository creates a new GormSyncEventRepository
func NewGormSyncEventRepository(db *gorm.DB) *GormSyncEventRepository {
	return &GormSyncEventRepository{db: db}
}

var _ integration.SyncEventRepository = (*GormSyncEventRepository)(nil)

// Append persists new events; Seq is assigned by the table's autoincrement
// key in batch order and written back into the domain objects.
func (r *GormSyncEventRepository) Append(ctx context.Context, events []*integration.SyncEvent) error {
	if len(events) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, event := range events {
			model := &models.SyncEventModel{}
			model.FromDomain(event)
			model.Seq = 0
			if err := tx.Create(model).Error; err != nil {
				return err
			}
			event.Seq = model.Seq
		}
		return nil
	})
}

// SelectPending returns pending and errored events matching the filter,
// ordered by detection time then append order. Errored events stay
// selectable so re-running reconciliation retries them.
func (r *GormSyncEventRepository) SelectPending(ctx context.Context, filter integration.EventFilter) ([]integration.SyncEvent, error) {
	query := r.db.WithContext(ctx).
		Model(&models.SyncEventModel{}).
		Where("status IN ?", []string{
			integration.EventStatusPending.String(),
			integration.EventStatusError.String(),
		})
	query = applyEventFilter(query, filter)

	var eventModels []models.SyncEventModel
	if err := query.Order("detected_at ASC, seq ASC").Find(&eventModels).Error; err != nil {
		return nil, err
	}

	events := make([]integration.SyncEvent, len(eventModels))
	for i, model := range eventModels {
		events[i] = *model.ToDomain()
	}
	return events, nil
}

// FindByID finds an event by its ID
func (r *GormSyncEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.SyncEvent, error) {
	var model models.SyncEventModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrEventNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns events matching the filter with pagination, newest first
func (r *GormSyncEventRepository) List(ctx context.Context, filter integration.EventFilter, page, pageSize int) ([]integration.SyncEvent, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SyncEventModel{})
	query = applyEventFilter(query, filter)
	if filter.Platform != nil {
		query = query.Where("platform = ?", filter.Platform.String())
	}
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var eventModels []models.SyncEventModel
	if err := query.
		Order("detected_at DESC, seq DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&eventModels).Error; err != nil {
		return nil, 0, err
	}

	events := make([]integration.SyncEvent, len(eventModels))
	for i, model := range eventModels {
		events[i] = *model.ToDomain()
	}
	return events, total, nil
}

// MarkProcessed transitions a pending or errored event to processed
func (r *GormSyncEventRepository) MarkProcessed(ctx context.Context, id uuid.UUID, note string) error {
	return r.transition(ctx, id, integration.EventStatusProcessed, note)
}

// MarkError transitions a pending or errored event to error with the
// failure text
func (r *GormSyncEventRepository) MarkError(ctx context.Context, id uuid.UUID, note string) error {
	return r.transition(ctx, id, integration.EventStatusError, note)
}

// MarkIgnored transitions a pending or errored event to ignored
func (r *GormSyncEventRepository) MarkIgnored(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, id, integration.EventStatusIgnored, "")
}

// AttachLocalEntity links a rogue event to a local entity
func (r *GormSyncEventRepository) AttachLocalEntity(ctx context.Context, id uuid.UUID, localEntityID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.SyncEventModel{}).
		Where("id = ? AND local_entity_id IS NULL", id).
		Update("local_entity_id", localEntityID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Either the event does not exist or it already has an entity.
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return integration.ErrEventNotRogue
	}
	return nil
}

// transition moves a pending or errored event into its next status,
// appending the note to any existing commentary. Processed and ignored
// are terminal; error is not, so a later run can retry the event.
func (r *GormSyncEventRepository) transition(ctx context.Context, id uuid.UUID, status integration.EventStatus, note string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.SyncEventModel
		if err := tx.First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return integration.ErrEventNotFound
			}
			return err
		}
		if model.Status != integration.EventStatusPending.String() &&
			model.Status != integration.EventStatusError.String() {
			return integration.ErrEventNotPending
		}

		event := model.ToDomain()
		switch status {
		case integration.EventStatusProcessed:
			event.MarkProcessed(note)
		case integration.EventStatusError:
			event.MarkError(note)
		case integration.EventStatusIgnored:
			event.MarkIgnored()
		default:
			return integration.ErrEventNotPending
		}

		now := time.Now()
		return tx.Model(&models.SyncEventModel{}).
			Where("seq = ?", model.Seq).
			Updates(map[string]any{
				"status":       event.Status.String(),
				"processed_at": now,
				"notes":        event.Notes,
			}).Error
	})
}

// applyEventFilter applies the shared RunID/SKU/Kind criteria. The SKU
// filter also matches events joined through the local entity, so events
// whose platform never reported the SKU are still selectable.
func applyEventFilter(query *gorm.DB, filter integration.EventFilter) *gorm.DB {
	if filter.RunID != nil {
		query = query.Where("sync_run_id = ?", *filter.RunID)
	}
	if filter.SKU != nil {
		query = query.Where(
			"sku = ? OR local_entity_id IN (SELECT id FROM products WHERE sku = ?)",
			*filter.SKU, *filter.SKU,
		)
	}
	if filter.Kind != nil {
		query = query.Where("kind = ?", filter.Kind.String())
	}
	return query
}
