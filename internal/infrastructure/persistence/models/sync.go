package models

import (
	"time"

	"github.com/gearsync/backend/internal/domain/integration"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	ID        uuid.UUID           `gorm:"type:uuid;primary_key"`
	SKU       string              `gorm:"type:varchar(100);not null;uniqueIndex:idx_products_sku"`
	Title     string              `gorm:"type:varchar(255);not null"`
	Status    string              `gorm:"type:varchar(20);not null;default:'active'"`
	Price     decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	CreatedAt time.Time           `gorm:"not null"`
	UpdatedAt time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *integration.Product {
	return &integration.Product{
		ID:        m.ID,
		SKU:       m.SKU,
		Title:     m.Title,
		Status:    integration.ListingStatus(m.Status),
		Price:     m.Price,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *integration.Product) {
	m.ID = p.ID
	m.SKU = p.SKU
	m.Title = p.Title
	m.Status = p.Status.String()
	m.Price = p.Price
	m.CreatedAt = p.CreatedAt
	m.UpdatedAt = p.UpdatedAt
}

// PlatformLinkModel is the persistence model for the PlatformLink domain entity.
type PlatformLinkModel struct {
	ID            uuid.UUID           `gorm:"type:uuid;primary_key"`
	LocalEntityID uuid.UUID           `gorm:"type:uuid;not null;index:idx_platform_links_entity,priority:1"`
	Platform      string              `gorm:"type:varchar(20);not null;index:idx_platform_links_platform;uniqueIndex:idx_platform_links_platform_external,priority:1"`
	ExternalID    string              `gorm:"type:varchar(100);not null;uniqueIndex:idx_platform_links_platform_external,priority:2"`
	SKU           string              `gorm:"type:varchar(100);not null;index:idx_platform_links_sku"`
	Title         string              `gorm:"type:varchar(255)"`
	Status        string              `gorm:"type:varchar(20);not null;default:'unknown'"`
	Price         decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	CreatedAt     time.Time           `gorm:"not null"`
	UpdatedAt     time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PlatformLinkModel) TableName() string {
	return "platform_links"
}

// ToDomain converts the persistence model to a domain PlatformLink entity.
func (m *PlatformLinkModel) ToDomain() *integration.PlatformLink {
	return &integration.PlatformLink{
		ID:            m.ID,
		LocalEntityID: m.LocalEntityID,
		Platform:      integration.PlatformCode(m.Platform),
		ExternalID:    m.ExternalID,
		SKU:           m.SKU,
		Title:         m.Title,
		Status:        integration.ListingStatus(m.Status),
		Price:         m.Price,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain PlatformLink entity.
func (m *PlatformLinkModel) FromDomain(l *integration.PlatformLink) {
	m.ID = l.ID
	m.LocalEntityID = l.LocalEntityID
	m.Platform = l.Platform.String()
	m.ExternalID = l.ExternalID
	m.SKU = l.SKU
	m.Title = l.Title
	m.Status = l.Status.String()
	m.Price = l.Price
	m.CreatedAt = l.CreatedAt
	m.UpdatedAt = l.UpdatedAt
}

// SyncEventModel is the persistence model for the SyncEvent domain entity.
// Seq is the table's autoincrement primary key; it doubles as the append
// order the arbitration tie-break relies on.
type SyncEventModel struct {
	Seq                 int64      `gorm:"primaryKey;autoIncrement"`
	ID                  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_sync_events_id"`
	SyncRunID           uuid.UUID  `gorm:"type:uuid;not null;index:idx_sync_events_run"`
	Platform            string     `gorm:"type:varchar(20);not null;index:idx_sync_events_platform"`
	LocalEntityID       *uuid.UUID `gorm:"type:uuid;index:idx_sync_events_entity"`
	LocalLinkID         *uuid.UUID `gorm:"type:uuid"`
	ExternalID          string     `gorm:"type:varchar(100);not null"`
	SKU                 string     `gorm:"type:varchar(100);index:idx_sync_events_sku"`
	Kind                string     `gorm:"type:varchar(30);not null;index:idx_sync_events_kind"`
	Field               string     `gorm:"type:varchar(50)"`
	OldValue            string     `gorm:"type:text"`
	NewValue            string     `gorm:"type:text"`
	Confidence          float64    `gorm:"not null;default:0"`
	RequiresPropagation bool       `gorm:"not null;default:false"`
	Status              string     `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_sync_events_status"`
	DetectedAt          time.Time  `gorm:"not null;index:idx_sync_events_detected"`
	ProcessedAt         *time.Time
	Notes               string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (SyncEventModel) TableName() string {
	return "sync_events"
}

// ToDomain converts the persistence model to a domain SyncEvent entity.
func (m *SyncEventModel) ToDomain() *integration.SyncEvent {
	return &integration.SyncEvent{
		ID:                  m.ID,
		Seq:                 m.Seq,
		SyncRunID:           m.SyncRunID,
		Platform:            integration.PlatformCode(m.Platform),
		LocalEntityID:       m.LocalEntityID,
		LocalLinkID:         m.LocalLinkID,
		ExternalID:          m.ExternalID,
		SKU:                 m.SKU,
		Kind:                integration.DivergenceKind(m.Kind),
		Field:               m.Field,
		OldValue:            m.OldValue,
		NewValue:            m.NewValue,
		Confidence:          m.Confidence,
		RequiresPropagation: m.RequiresPropagation,
		Status:              integration.EventStatus(m.Status),
		DetectedAt:          m.DetectedAt,
		ProcessedAt:         m.ProcessedAt,
		Notes:               m.Notes,
	}
}

// FromDomain populates the persistence model from a domain SyncEvent entity.
func (m *SyncEventModel) FromDomain(e *integration.SyncEvent) {
	m.Seq = e.Seq
	m.ID = e.ID
	m.SyncRunID = e.SyncRunID
	m.Platform = e.Platform.String()
	m.LocalEntityID = e.LocalEntityID
	m.LocalLinkID = e.LocalLinkID
	m.ExternalID = e.ExternalID
	m.SKU = e.SKU
	m.Kind = e.Kind.String()
	m.Field = e.Field
	m.OldValue = e.OldValue
	m.NewValue = e.NewValue
	m.Confidence = e.Confidence
	m.RequiresPropagation = e.RequiresPropagation
	m.Status = e.Status.String()
	m.DetectedAt = e.DetectedAt
	m.ProcessedAt = e.ProcessedAt
	m.Notes = e.Notes
}
