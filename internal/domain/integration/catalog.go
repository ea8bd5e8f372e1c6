package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Local Catalog Entities
// ---------------------------------------------------------------------------

// Product is the system-of-record row for one physical item, independent of
// any marketplace.
type Product struct {
	// ID is the local entity identifier
	ID uuid.UUID
	// SKU is the merchant SKU
	SKU string
	// Title is the canonical product title
	Title string
	// Status is the locally decided normalized status
	Status ListingStatus
	// Price is the canonical asking price
	Price decimal.NullDecimal
	// CreatedAt is when the product was created
	CreatedAt time.Time
	// UpdatedAt is when the product was last updated
	UpdatedAt time.Time
}

// PlatformLink ties a local product to one marketplace listing and carries
// the locally believed state of that listing.
type PlatformLink struct {
	// ID is the link record identifier
	ID uuid.UUID
	// LocalEntityID is the product this link belongs to
	LocalEntityID uuid.UUID
	// Platform identifies the marketplace
	Platform PlatformCode
	// ExternalID is the listing identifier on the platform
	ExternalID string
	// SKU is the local SKU, denormalized for lookup
	SKU string
	// Title is the locally believed listing title
	Title string
	// Status is the locally believed normalized status
	Status ListingStatus
	// Price is the locally believed listing price
	Price decimal.NullDecimal
	// CreatedAt is when the link was created
	CreatedAt time.Time
	// UpdatedAt is when the link was last updated
	UpdatedAt time.Time
}

// ToLocalListing converts the link into the detector's local snapshot shape.
func (l PlatformLink) ToLocalListing() LocalListing {
	return LocalListing{
		LocalEntityID: l.LocalEntityID,
		LinkID:        l.ID,
		ExternalID:    l.ExternalID,
		SKU:           l.SKU,
		Title:         l.Title,
		Status:        l.Status,
		Price:         l.Price,
	}
}

// ---------------------------------------------------------------------------
// CatalogRepository Interface
// ---------------------------------------------------------------------------

// CatalogRepository provides the local system-of-record state: the believed
// per-platform listings for detection, and the entity link graph for
// propagation.
type CatalogRepository interface {
	LocalStateProvider

	// FindProductByID returns one product
	FindProductByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindProductBySKU returns one product by SKU
	FindProductBySKU(ctx context.Context, sku string) (*Product, error)

	// FindLinksByLocalEntity returns every platform link of one product
	FindLinksByLocalEntity(ctx context.Context, localEntityID uuid.UUID) ([]PlatformLink, error)

	// MarkEntitySold freezes the local product status to sold. Called once
	// a sold signal wins arbitration; idempotent.
	MarkEntitySold(ctx context.Context, localEntityID uuid.UUID) error

	// SaveProduct creates or updates a product
	SaveProduct(ctx context.Context, product *Product) error

	// SaveLink creates or updates a platform link
	SaveLink(ctx context.Context, link *PlatformLink) error
}
