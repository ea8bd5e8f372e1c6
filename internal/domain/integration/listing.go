package integration

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Listing Value Objects
// ---------------------------------------------------------------------------

// RemoteListing represents a listing as reported by a marketplace snapshot.
type RemoteListing struct {
	// ExternalID is the listing identifier on the platform
	ExternalID string
	// SKU is the merchant SKU if the platform knows it
	SKU string
	// Title is the listing title
	Title string
	// RawStatus is the platform's own status string, before normalization
	RawStatus string
	// Price is the listing price; invalid when the platform reported none
	Price decimal.NullDecimal
	// Currency is the listing currency code
	Currency string
	// URL is the public listing URL
	URL string
	// Fields carries platform-specific attributes that have no shared shape
	Fields map[string]string
}

// LocalListing represents the locally believed state of one platform listing,
// joined to the local entity it belongs to.
type LocalListing struct {
	// LocalEntityID is the system-of-record product this listing belongs to
	LocalEntityID uuid.UUID
	// LinkID is the platform link record id
	LinkID uuid.UUID
	// ExternalID is the listing identifier on the platform
	ExternalID string
	// SKU is the local SKU
	SKU string
	// Title is the locally believed title
	Title string
	// Status is the locally believed normalized status
	Status ListingStatus
	// Price is the locally believed price; invalid when unknown
	Price decimal.NullDecimal
}

// ---------------------------------------------------------------------------
// Per-platform field extraction
// ---------------------------------------------------------------------------

// ListingNormalizer extracts the comparable fields from a RemoteListing.
// Status, price and title live in different raw fields per platform; each
// platform in the closed set gets one normalizer implementation instead of
// ad hoc string-keyed dispatch.
type ListingNormalizer interface {
	// Platform returns the platform this normalizer handles
	Platform() PlatformCode

	// Status returns the normalized listing status
	Status(l RemoteListing) ListingStatus

	// Price returns the listing price, invalid when missing or unparseable
	Price(l RemoteListing) decimal.NullDecimal

	// Title returns the trimmed listing title
	Title(l RemoteListing) string
}

// NormalizerFor returns the normalizer for the given platform code.
func NormalizerFor(code PlatformCode) (ListingNormalizer, bool) {
	switch code {
	case PlatformCodeReverb:
		return reverbNormalizer{}, true
	case PlatformCodeShopify:
		return shopifyNormalizer{}, true
	case PlatformCodeEbay:
		return ebayNormalizer{}, true
	case PlatformCodeVintageAndRare:
		return vintageAndRareNormalizer{}, true
	default:
		return nil, false
	}
}

// ParsePrice parses a raw price string into a decimal.
// Missing or malformed values report ok=false instead of erroring.
func ParsePrice(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

type baseNormalizer struct{}

func (baseNormalizer) Title(l RemoteListing) string {
	return strings.TrimSpace(l.Title)
}

func (baseNormalizer) Price(l RemoteListing) decimal.NullDecimal {
	return l.Price
}

// reverbNormalizer handles Reverb listings. Reverb reports the lifecycle
// state in a "state" field; the snapshot adapter copies it into RawStatus
// but older payloads only carry it in the field bag.
type reverbNormalizer struct{ baseNormalizer }

func (reverbNormalizer) Platform() PlatformCode { return PlatformCodeReverb }

func (reverbNormalizer) Status(l RemoteListing) ListingStatus {
	if l.RawStatus != "" {
		return NormalizeStatus(l.RawStatus)
	}
	return NormalizeStatus(l.Fields["state"])
}

// shopifyNormalizer handles Shopify products, which report status as
// active/draft/archived and price on the first variant.
type shopifyNormalizer struct{ baseNormalizer }

func (shopifyNormalizer) Platform() PlatformCode { return PlatformCodeShopify }

func (shopifyNormalizer) Status(l RemoteListing) ListingStatus {
	if l.RawStatus != "" {
		return NormalizeStatus(l.RawStatus)
	}
	return NormalizeStatus(l.Fields["status"])
}

func (shopifyNormalizer) Price(l RemoteListing) decimal.NullDecimal {
	if l.Price.Valid {
		return l.Price
	}
	if d, ok := ParsePrice(l.Fields["variant_price"]); ok {
		return decimal.NullDecimal{Decimal: d, Valid: true}
	}
	return decimal.NullDecimal{}
}

// ebayNormalizer handles eBay listings, which report a SellingState such as
// Active or EndedWithSales.
type ebayNormalizer struct{ baseNormalizer }

func (ebayNormalizer) Platform() PlatformCode { return PlatformCodeEbay }

func (ebayNormalizer) Status(l RemoteListing) ListingStatus {
	if l.RawStatus != "" {
		return NormalizeStatus(l.RawStatus)
	}
	return NormalizeStatus(l.Fields["selling_state"])
}

// vintageAndRareNormalizer handles Vintage & Rare listings, which report a
// plain show/sold flag.
type vintageAndRareNormalizer struct{ baseNormalizer }

func (vintageAndRareNormalizer) Platform() PlatformCode { return PlatformCodeVintageAndRare }

func (vintageAndRareNormalizer) Status(l RemoteListing) ListingStatus {
	if l.RawStatus != "" {
		return NormalizeStatus(l.RawStatus)
	}
	if l.Fields["sold"] == "yes" {
		return StatusSold
	}
	return NormalizeStatus(l.Fields["status"])
}
