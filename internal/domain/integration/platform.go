package integration

import (
	"errors"
	"strings"
)

// ---------------------------------------------------------------------------
// Marketplace Errors
// ---------------------------------------------------------------------------

var (
	// Platform errors
	ErrPlatformNotConfigured   = errors.New("integration: platform not configured")
	ErrPlatformRequestFailed   = errors.New("integration: platform request failed")
	ErrPlatformInvalidResponse = errors.New("integration: invalid platform response")
	ErrPlatformRateLimited     = errors.New("integration: platform rate limited")
	ErrInvalidPlatformCode     = errors.New("integration: invalid platform code")

	// Sync event errors
	ErrEventNotFound   = errors.New("integration: sync event not found")
	ErrEventNotPending = errors.New("integration: sync event is not pending")
	ErrEventNotRogue   = errors.New("integration: sync event is already linked to a local entity")

	// Local catalog errors
	ErrEntityNotFound = errors.New("integration: local entity not found")
	ErrLinkNotFound   = errors.New("integration: platform link not found")

	// Reconciliation errors
	ErrReconcileInProgress = errors.New("integration: reconciliation already in progress for this scope")
)

// ---------------------------------------------------------------------------
// PlatformCode represents an external marketplace
// ---------------------------------------------------------------------------

// PlatformCode represents an external marketplace the catalog is listed on
type PlatformCode string

const (
	// PlatformCodeReverb represents the Reverb marketplace
	PlatformCodeReverb PlatformCode = "REVERB"
	// PlatformCodeShopify represents a Shopify storefront
	PlatformCodeShopify PlatformCode = "SHOPIFY"
	// PlatformCodeEbay represents the eBay marketplace
	PlatformCodeEbay PlatformCode = "EBAY"
	// PlatformCodeVintageAndRare represents the Vintage & Rare marketplace
	PlatformCodeVintageAndRare PlatformCode = "VINTAGEANDRARE"
)

// AllPlatformCodes returns the closed set of supported platform codes
// in a stable order.
func AllPlatformCodes() []PlatformCode {
	return []PlatformCode{
		PlatformCodeReverb,
		PlatformCodeShopify,
		PlatformCodeEbay,
		PlatformCodeVintageAndRare,
	}
}

// ParsePlatformCode parses a raw string into a PlatformCode
func ParsePlatformCode(raw string) (PlatformCode, error) {
	code := PlatformCode(strings.ToUpper(strings.TrimSpace(raw)))
	if !code.IsValid() {
		return "", ErrInvalidPlatformCode
	}
	return code, nil
}

// IsValid returns true if the platform code is valid
func (c PlatformCode) IsValid() bool {
	switch c {
	case PlatformCodeReverb, PlatformCodeShopify, PlatformCodeEbay, PlatformCodeVintageAndRare:
		return true
	default:
		return false
	}
}

// String returns the string representation of PlatformCode
func (c PlatformCode) String() string {
	return string(c)
}

// DisplayName returns a human-readable name for the platform
func (c PlatformCode) DisplayName() string {
	switch c {
	case PlatformCodeReverb:
		return "Reverb"
	case PlatformCodeShopify:
		return "Shopify"
	case PlatformCodeEbay:
		return "eBay"
	case PlatformCodeVintageAndRare:
		return "Vintage & Rare"
	default:
		return string(c)
	}
}

// ---------------------------------------------------------------------------
// ListingStatus represents the normalized lifecycle state of a listing
// ---------------------------------------------------------------------------

// ListingStatus is the normalized status vocabulary shared across platforms.
// Each marketplace has its own raw status strings; NormalizeStatus maps them
// into this closed set before any comparison or arbitration happens.
type ListingStatus string

const (
	StatusActive    ListingStatus = "active"
	StatusLive      ListingStatus = "live"
	StatusSold      ListingStatus = "sold"
	StatusEnded     ListingStatus = "ended"
	StatusCompleted ListingStatus = "completed"
	StatusInactive  ListingStatus = "inactive"
	StatusDraft     ListingStatus = "draft"
	StatusUnknown   ListingStatus = "unknown"
)

// NormalizeStatus maps a raw platform status string into the shared vocabulary.
// Unrecognized values map to StatusUnknown rather than erroring; callers treat
// unknown as not comparable and skip it rather than report a phantom change.
func NormalizeStatus(raw string) ListingStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active", "publish", "published":
		return StatusActive
	case "live":
		return StatusLive
	case "sold", "sold out", "soldout", "sold_out":
		return StatusSold
	case "ended", "archived", "endedwithsales", "endedwithoutsales":
		return StatusEnded
	case "completed", "complete":
		return StatusCompleted
	case "inactive", "suspended", "hidden", "unpublished":
		return StatusInactive
	case "draft":
		return StatusDraft
	case "":
		return StatusUnknown
	default:
		return StatusUnknown
	}
}

// IsValid returns true if the status belongs to the normalized vocabulary
func (s ListingStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusLive, StatusSold, StatusEnded,
		StatusCompleted, StatusInactive, StatusDraft, StatusUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation of ListingStatus
func (s ListingStatus) String() string {
	return string(s)
}

// IsSoldLike returns true for statuses that mean the item is no longer
// purchasable because it sold or was taken down as sold elsewhere.
func (s ListingStatus) IsSoldLike() bool {
	switch s {
	case StatusSold, StatusEnded, StatusCompleted:
		return true
	default:
		return false
	}
}

// IsLiveLike returns true for statuses that mean the item is purchasable.
func (s ListingStatus) IsLiveLike() bool {
	return s == StatusActive || s == StatusLive
}
