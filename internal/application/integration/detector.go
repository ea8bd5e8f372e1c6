package integration

import (
	"fmt"
	"strings"

	"github.com/gearsync/backend/internal/domain/integration"
	"github.com/shopspring/decimal"
)

// ChangeDetector compares a platform snapshot against the locally believed
// state and produces divergence records. Detection is pure: it never touches
// storage or the network, so the same inputs always yield the same records.
type ChangeDetector struct{}

// NewChangeDetector creates a new ChangeDetector
func NewChangeDetector() *ChangeDetector {
	return &ChangeDetector{}
}

// Detect runs every detection category in a fixed order: status changes,
// price changes, content changes, new listings, removed listings. A failure
// inside one category is captured and the remaining categories still run.
func (d *ChangeDetector) Detect(
	platform integration.PlatformCode,
	remote []integration.RemoteListing,
	local []integration.LocalListing,
) ([]integration.DivergenceRecord, []string) {
	normalizer, ok := integration.NormalizerFor(platform)
	if !ok {
		return nil, []string{fmt.Sprintf("no normalizer for platform %s", platform)}
	}

	remoteByID := make(map[string]integration.RemoteListing, len(remote))
	for _, r := range remote {
		remoteByID[r.ExternalID] = r
	}
	localByID := make(map[string]integration.LocalListing, len(local))
	for _, l := range local {
		localByID[l.ExternalID] = l
	}

	records := make([]integration.DivergenceRecord, 0)
	errs := make([]string, 0)

	categories := []struct {
		name string
		run  func() []integration.DivergenceRecord
	}{
		{"status", func() []integration.DivergenceRecord {
			return d.detectStatusChanges(platform, normalizer, local, remoteByID)
		}},
		{"price", func() []integration.DivergenceRecord {
			return d.detectPriceChanges(platform, normalizer, local, remoteByID)
		}},
		{"content", func() []integration.DivergenceRecord {
			return d.detectContentChanges(platform, normalizer, local, remoteByID)
		}},
		{"new", func() []integration.DivergenceRecord {
			return d.detectNewListings(platform, normalizer, remote, localByID)
		}},
		{"removed", func() []integration.DivergenceRecord {
			return d.detectRemovedListings(platform, local, remoteByID)
		}},
	}

	for _, cat := range categories {
		recs, err := runCategory(cat.run)
		if err != "" {
			errs = append(errs, fmt.Sprintf("%s detection: %s", cat.name, err))
			continue
		}
		records = append(records, recs...)
	}

	return records, errs
}

// runCategory isolates one detection category so a panic in its comparison
// logic does not abort the rest of the pass.
func runCategory(run func() []integration.DivergenceRecord) (recs []integration.DivergenceRecord, errText string) {
	defer func() {
		if r := recover(); r != nil {
			recs = nil
			errText = fmt.Sprint(r)
		}
	}()
	return run(), ""
}

func (d *ChangeDetector) detectStatusChanges(
	platform integration.PlatformCode,
	normalizer integration.ListingNormalizer,
	local []integration.LocalListing,
	remoteByID map[string]integration.RemoteListing,
) []integration.DivergenceRecord {
	records := make([]integration.DivergenceRecord, 0)
	for _, l := range local {
		r, ok := remoteByID[l.ExternalID]
		if !ok {
			continue
		}
		remoteStatus := normalizer.Status(r)
		if remoteStatus == integration.StatusUnknown || remoteStatus == l.Status {
			continue
		}
		entityID := l.LocalEntityID
		linkID := l.LinkID
		records = append(records, integration.DivergenceRecord{
			Platform:            platform,
			ExternalID:          l.ExternalID,
			LocalEntityID:       &entityID,
			LocalLinkID:         &linkID,
			SKU:                 l.SKU,
			Kind:                integration.KindStatusChange,
			Field:               "status",
			OldValue:            l.Status.String(),
			NewValue:            remoteStatus.String(),
			Confidence:          1.0,
			RequiresPropagation: integration.ShouldPropagateStatus(l.Status, remoteStatus),
		})
	}
	return records
}

func (d *ChangeDetector) detectPriceChanges(
	platform integration.PlatformCode,
	normalizer integration.ListingNormalizer,
	local []integration.LocalListing,
	remoteByID map[string]integration.RemoteListing,
) []integration.DivergenceRecord {
	records := make([]integration.DivergenceRecord, 0)
	for _, l := range local {
		r, ok := remoteByID[l.ExternalID]
		if !ok {
			continue
		}
		remotePrice := normalizer.Price(r)
		if !remotePrice.Valid || !l.Price.Valid {
			continue
		}
		if !integration.IsSignificantPriceChange(l.Price.Decimal, remotePrice.Decimal) {
			continue
		}
		entityID := l.LocalEntityID
		linkID := l.LinkID
		records = append(records, integration.DivergenceRecord{
			Platform:            platform,
			ExternalID:          l.ExternalID,
			LocalEntityID:       &entityID,
			LocalLinkID:         &linkID,
			SKU:                 l.SKU,
			Kind:                integration.KindPriceChange,
			Field:               "price",
			OldValue:            formatPrice(l.Price.Decimal),
			NewValue:            formatPrice(remotePrice.Decimal),
			Confidence:          1.0,
			RequiresPropagation: false,
		})
	}
	return records
}

func (d *ChangeDetector) detectContentChanges(
	platform integration.PlatformCode,
	normalizer integration.ListingNormalizer,
	local []integration.LocalListing,
	remoteByID map[string]integration.RemoteListing,
) []integration.DivergenceRecord {
	records := make([]integration.DivergenceRecord, 0)
	for _, l := range local {
		r, ok := remoteByID[l.ExternalID]
		if !ok {
			continue
		}
		// Both sides are compared trimmed so whitespace-only edits stay quiet.
		// An empty remote title against a titled local listing is still a
		// real divergence and gets reported.
		localTitle := strings.TrimSpace(l.Title)
		remoteTitle := strings.TrimSpace(normalizer.Title(r))
		if remoteTitle == localTitle {
			continue
		}
		entityID := l.LocalEntityID
		linkID := l.LinkID
		records = append(records, integration.DivergenceRecord{
			Platform:            platform,
			ExternalID:          l.ExternalID,
			LocalEntityID:       &entityID,
			LocalLinkID:         &linkID,
			SKU:                 l.SKU,
			Kind:                integration.KindContentChange,
			Field:               "title",
			OldValue:            localTitle,
			NewValue:            remoteTitle,
			Confidence:          0.9,
			RequiresPropagation: false,
		})
	}
	return records
}

func (d *ChangeDetector) detectNewListings(
	platform integration.PlatformCode,
	normalizer integration.ListingNormalizer,
	remote []integration.RemoteListing,
	localByID map[string]integration.LocalListing,
) []integration.DivergenceRecord {
	records := make([]integration.DivergenceRecord, 0)
	for _, r := range remote {
		if _, ok := localByID[r.ExternalID]; ok {
			continue
		}
		records = append(records, integration.DivergenceRecord{
			Platform:            platform,
			ExternalID:          r.ExternalID,
			SKU:                 r.SKU,
			Kind:                integration.KindNewListing,
			Field:               "listing",
			NewValue:            normalizer.Title(r),
			Confidence:          0.5,
			RequiresPropagation: false,
		})
	}
	return records
}

func (d *ChangeDetector) detectRemovedListings(
	platform integration.PlatformCode,
	local []integration.LocalListing,
	remoteByID map[string]integration.RemoteListing,
) []integration.DivergenceRecord {
	records := make([]integration.DivergenceRecord, 0)
	for _, l := range local {
		if _, ok := remoteByID[l.ExternalID]; ok {
			continue
		}
		if l.Status.IsSoldLike() {
			// The platform pruned a listing we already know is finished.
			continue
		}
		entityID := l.LocalEntityID
		linkID := l.LinkID
		records = append(records, integration.DivergenceRecord{
			Platform:            platform,
			ExternalID:          l.ExternalID,
			LocalEntityID:       &entityID,
			LocalLinkID:         &linkID,
			SKU:                 l.SKU,
			Kind:                integration.KindRemovedListing,
			Field:               "listing",
			OldValue:            l.Status.String(),
			NewValue:            integration.StatusEnded.String(),
			Confidence:          0.8,
			RequiresPropagation: true,
		})
	}
	return records
}

func formatPrice(d decimal.Decimal) string {
	return d.StringFixed(2)
}
