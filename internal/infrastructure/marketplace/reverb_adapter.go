package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gearsync/backend/internal/domain/integration"
	"github.com/gearsync/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReverbAdapter implements the platform ports against the Reverb API.
type ReverbAdapter struct {
	cfg           config.ReverbConfig
	httpClient    *http.Client
	retry         integration.RetryPolicy
	detailWorkers int
	logger        *zap.Logger
}

// NewReverbAdapter creates a new ReverbAdapter
func NewReverbAdapter(cfg config.ReverbConfig, detailWorkers int, logger *zap.Logger) (*ReverbAdapter, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: reverb base URL missing", integration.ErrPlatformNotConfigured)
	}
	if cfg.APIToken == "" {
		return nil, fmt.Errorf("%w: reverb API token missing", integration.ErrPlatformNotConfigured)
	}
	if detailWorkers < 1 {
		detailWorkers = 1
	}
	return &ReverbAdapter{
		cfg:           cfg,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		retry:         integration.DefaultRetryPolicy(),
		detailWorkers: detailWorkers,
		logger:        logger.Named("reverb"),
	}, nil
}

var _ integration.PlatformAdapter = (*ReverbAdapter)(nil)
var _ integration.DetailFetcher = (*ReverbAdapter)(nil)

// PlatformCode returns the platform code this adapter handles
func (a *ReverbAdapter) PlatformCode() integration.PlatformCode {
	return integration.PlatformCodeReverb
}

// ListCurrent pulls every listing of the shop, walking the paginated index.
// Listings the index returns without a price are hydrated through the
// detail endpoint with bounded concurrency.
func (a *ReverbAdapter) ListCurrent(ctx context.Context) ([]integration.RemoteListing, error) {
	listings := make([]integration.RemoteListing, 0)
	incomplete := make([]int, 0)

	page := 1
	for {
		path := fmt.Sprintf("/my/listings?state=all&per_page=%d&page=%d", a.cfg.PageSize, page)
		body, err := a.doRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}

		var resp reverbListingsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: reverb listings page %d: %v", integration.ErrPlatformInvalidResponse, page, err)
		}

		for _, item := range resp.Listings {
			listing := convertReverbListing(item)
			if !listing.Price.Valid {
				incomplete = append(incomplete, len(listings))
			}
			listings = append(listings, listing)
		}

		if resp.TotalPages == 0 || page >= resp.TotalPages || len(resp.Listings) == 0 {
			break
		}
		page++
	}

	if len(incomplete) > 0 {
		ids := make([]string, len(incomplete))
		for i, idx := range incomplete {
			ids[i] = listings[idx].ExternalID
		}
		detailed, err := fetchDetailedBatch(ctx, a, ids, a.detailWorkers)
		if err != nil {
			a.logger.Warn("detail hydration incomplete", zap.Int("listings", len(ids)), zap.Error(err))
		}
		for i, idx := range incomplete {
			if detailed[i].ExternalID != "" {
				listings[idx] = detailed[i]
			}
		}
	}

	return listings, nil
}

// FetchDetailed loads a single listing in full.
func (a *ReverbAdapter) FetchDetailed(ctx context.Context, listingID string) (integration.RemoteListing, error) {
	body, err := a.doRequest(ctx, http.MethodGet, "/listings/"+listingID, nil)
	if err != nil {
		return integration.RemoteListing{}, err
	}

	var item reverbListing
	if err := json.Unmarshal(body, &item); err != nil {
		return integration.RemoteListing{}, fmt.Errorf("%w: reverb listing %s: %v", integration.ErrPlatformInvalidResponse, listingID, err)
	}
	return convertReverbListing(item), nil
}

// MarkSold ends the listing on Reverb. Ending a listing that is already
// ended reports ok without an error.
func (a *ReverbAdapter) MarkSold(ctx context.Context, externalID string) (bool, error) {
	payload := map[string]string{"reason": "reverb_sale"}
	body, err := a.doRequest(ctx, http.MethodPut, "/my/listings/"+externalID+"/state/end", payload)
	if err != nil {
		return false, err
	}

	var resp reverbStateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false, fmt.Errorf("%w: reverb end listing %s: %v", integration.ErrPlatformInvalidResponse, externalID, err)
	}

	a.logger.Info("listing ended",
		zap.String("external_id", externalID),
		zap.String("state", resp.State.Slug))
	return true, nil
}

// doRequest executes one Reverb API call with auth headers and retries.
func (a *ReverbAdapter) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var responseBody []byte

	err := doWithRetry(ctx, a.retry, func() (int, error) {
		var reqBody io.Reader
		if payload != nil {
			raw, err := json.Marshal(payload)
			if err != nil {
				return 0, fmt.Errorf("reverb: failed to marshal request: %w", err)
			}
			reqBody = bytes.NewReader(raw)
		}

		req, err := http.NewRequestWithContext(ctx, method, a.cfg.BaseURL+path, reqBody)
		if err != nil {
			return 0, fmt.Errorf("reverb: failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+a.cfg.APIToken)
		req.Header.Set("Accept", "application/hal+json")
		req.Header.Set("Accept-Version", "3.0")
		if payload != nil {
			req.Header.Set("Content-Type", "application/hal+json")
		}

		resp, err := a.httpClient.Do(req)
		if err != nil {
			return 0, fmt.Errorf("reverb: request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if err != nil {
			return resp.StatusCode, fmt.Errorf("reverb: failed to read response: %w", err)
		}
		if resp.StatusCode >= 400 {
			return resp.StatusCode, statusError("reverb", resp.StatusCode)
		}

		responseBody = body
		return resp.StatusCode, nil
	})
	if err != nil {
		return nil, err
	}
	return responseBody, nil
}

// convertReverbListing maps a Reverb API listing to the shared shape.
func convertReverbListing(item reverbListing) integration.RemoteListing {
	listing := integration.RemoteListing{
		ExternalID: strconv.FormatInt(item.ID, 10),
		SKU:        item.SKU,
		Title:      item.Title,
		RawStatus:  item.State.Slug,
		Currency:   item.Price.Currency,
		URL:        item.Links.Web.Href,
		Fields: map[string]string{
			"state": item.State.Slug,
		},
	}
	if d, ok := integration.ParsePrice(item.Price.Amount); ok {
		listing.Price = decimal.NullDecimal{Decimal: d, Valid: true}
	}
	return listing
}
