package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/gearsync/backend/internal/domain/integration"
	"github.com/gearsync/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCatalogRepository implements CatalogRepository using GORM
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewGormCatalogRepository creates a new GormCatalogRepository
func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

var _ integration.CatalogRepository = (*GormCatalogRepository)(nil)

// ListLocal returns the locally believed listings for one platform
func (r *GormCatalogRepository) ListLocal(ctx context.Context, platform integration.PlatformCode) ([]integration.LocalListing, error) {
	var linkModels []models.PlatformLinkModel
	if err := r.db.WithContext(ctx).
		Where("platform = ?", platform.String()).
		Order("external_id ASC").
		Find(&linkModels).Error; err != nil {
		return nil, err
	}

	listings := make([]integration.LocalListing, len(linkModels))
	for i, model := range linkModels {
		listings[i] = model.ToDomain().ToLocalListing()
	}
	return listings, nil
}

// FindProductByID finds a product by its ID
func (r *GormCatalogRepository) FindProductByID(ctx context.Context, id uuid.UUID) (*integration.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrEntityNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindProductBySKU finds a product by SKU
func (r *GormCatalogRepository) FindProductBySKU(ctx context.Context, sku string) (*integration.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "sku = ?", sku).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrEntityNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindLinksByLocalEntity returns every platform link of one product
func (r *GormCatalogRepository) FindLinksByLocalEntity(ctx context.Context, localEntityID uuid.UUID) ([]integration.PlatformLink, error) {
	var linkModels []models.PlatformLinkModel
	if err := r.db.WithContext(ctx).
		Where("local_entity_id = ?", localEntityID).
		Order("platform ASC").
		Find(&linkModels).Error; err != nil {
		return nil, err
	}

	links := make([]integration.PlatformLink, len(linkModels))
	for i, model := range linkModels {
		links[i] = *model.ToDomain()
	}
	return links, nil
}

// MarkEntitySold freezes the product and its links to sold. Idempotent:
// marking an already-sold entity succeeds without touching rows again.
func (r *GormCatalogRepository) MarkEntitySold(ctx context.Context, localEntityID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.ProductModel
		if err := tx.First(&model, "id = ?", localEntityID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return integration.ErrEntityNotFound
			}
			return err
		}
		if model.Status == integration.StatusSold.String() {
			return nil
		}

		now := time.Now()
		if err := tx.Model(&models.ProductModel{}).
			Where("id = ?", localEntityID).
			Updates(map[string]any{
				"status":     integration.StatusSold.String(),
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		// Freeze the entity's links as well, so the next snapshot pass does
		// not re-detect the sold state as a divergence. Links already in a
		// sold-like state keep their status.
		return tx.Model(&models.PlatformLinkModel{}).
			Where("local_entity_id = ? AND status NOT IN ?", localEntityID, []string{
				integration.StatusSold.String(),
				integration.StatusEnded.String(),
				integration.StatusCompleted.String(),
			}).
			Updates(map[string]any{
				"status":     integration.StatusSold.String(),
				"updated_at": now,
			}).Error
	})
}

// SaveProduct creates or updates a product
func (r *GormCatalogRepository) SaveProduct(ctx context.Context, product *integration.Product) error {
	model := &models.ProductModel{}
	model.FromDomain(product)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

// SaveLink creates or updates a platform link
func (r *GormCatalogRepository) SaveLink(ctx context.Context, link *integration.PlatformLink) error {
	model := &models.PlatformLinkModel{}
	model.FromDomain(link)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}
