package integration

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// DivergenceKind
// ---------------------------------------------------------------------------

// DivergenceKind classifies a detected difference between a platform's
// remote state and the local state for the same listing.
type DivergenceKind string

const (
	// KindStatusChange indicates the normalized listing status differs
	KindStatusChange DivergenceKind = "STATUS_CHANGE"
	// KindPriceChange indicates a significant price difference
	KindPriceChange DivergenceKind = "PRICE_CHANGE"
	// KindContentChange indicates the listing title differs
	KindContentChange DivergenceKind = "CONTENT_CHANGE"
	// KindNewListing indicates a remote listing unknown to the local catalog
	KindNewListing DivergenceKind = "NEW_LISTING"
	// KindRemovedListing indicates a local listing missing from the remote snapshot
	KindRemovedListing DivergenceKind = "REMOVED_LISTING"
)

// IsValid returns true if the kind is valid
func (k DivergenceKind) IsValid() bool {
	switch k {
	case KindStatusChange, KindPriceChange, KindContentChange, KindNewListing, KindRemovedListing:
		return true
	default:
		return false
	}
}

// String returns the string representation of DivergenceKind
func (k DivergenceKind) String() string {
	return string(k)
}

// ---------------------------------------------------------------------------
// DivergenceRecord
// ---------------------------------------------------------------------------

// DivergenceRecord is one detected difference between remote and local state.
// Records are ephemeral; they are persisted only as SyncEvents.
type DivergenceRecord struct {
	// Platform identifies the marketplace the snapshot came from
	Platform PlatformCode
	// ExternalID is the platform's listing identifier
	ExternalID string
	// LocalEntityID is the local product, nil for rogue listings
	LocalEntityID *uuid.UUID
	// LocalLinkID is the platform link record id, nil for rogue listings
	LocalLinkID *uuid.UUID
	// SKU is the merchant SKU when known
	SKU string
	// Kind classifies the divergence
	Kind DivergenceKind
	// Field names the diverging field
	Field string
	// OldValue is the locally believed value
	OldValue string
	// NewValue is the value the platform reported
	NewValue string
	// Confidence is an informational 0..1 detection confidence
	Confidence float64
	// RequiresPropagation is computed at detection time from the
	// propagation policy; it never changes afterwards
	RequiresPropagation bool
}

// IsRogue returns true when the divergence could not be matched to a
// local entity.
func (r DivergenceRecord) IsRogue() bool {
	return r.LocalEntityID == nil
}

// ---------------------------------------------------------------------------
// Detection policy
// ---------------------------------------------------------------------------

// ShouldPropagateStatus decides whether a status divergence must be pushed
// back out to the other platforms. Terminal statuses always propagate. A
// revert from a terminal status back to a live one is an anomaly that is
// surfaced for propagation rather than silently dropped.
func ShouldPropagateStatus(oldStatus, newStatus ListingStatus) bool {
	switch newStatus {
	case StatusSold, StatusEnded, StatusCompleted, StatusInactive:
		return true
	}
	if (oldStatus == StatusSold || oldStatus == StatusEnded) && newStatus.IsLiveLike() {
		return true
	}
	return false
}

// onePriceUnit is the minimum absolute price movement worth reporting.
var onePriceUnit = decimal.NewFromInt(1)

// onePercent is the relative movement threshold.
var onePercent = decimal.New(1, -2)

// IsSignificantPriceChange reports whether the difference between the local
// and remote price clears the larger of a one-currency-unit floor and 1% of
// the local price. Movements of exactly one unit count when the percentage
// threshold is the smaller bound; a movement exactly at 1% does not.
func IsSignificantPriceChange(local, remote decimal.Decimal) bool {
	diff := remote.Sub(local).Abs()
	return diff.GreaterThanOrEqual(onePriceUnit) && diff.GreaterThan(local.Mul(onePercent))
}
