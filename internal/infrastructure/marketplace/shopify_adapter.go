package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gearsync/backend/internal/domain/integration"
	"github.com/gearsync/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ShopifyAdapter implements the platform ports against the Shopify Admin API.
type ShopifyAdapter struct {
	cfg        config.ShopifyConfig
	baseURL    string
	httpClient *http.Client
	retry      integration.RetryPolicy
	logger     *zap.Logger
}

// NewShopifyAdapter creates a new ShopifyAdapter
func NewShopifyAdapter(cfg config.ShopifyConfig, logger *zap.Logger) (*ShopifyAdapter, error) {
	if cfg.ShopDomain == "" {
		return nil, fmt.Errorf("%w: shopify shop domain missing", integration.ErrPlatformNotConfigured)
	}
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("%w: shopify access token missing", integration.ErrPlatformNotConfigured)
	}

	domain := cfg.ShopDomain
	if !strings.Contains(domain, "://") {
		domain = "https://" + domain
	}

	return &ShopifyAdapter{
		cfg:        cfg,
		baseURL:    fmt.Sprintf("%s/admin/api/%s", domain, cfg.APIVersion),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retry:      integration.DefaultRetryPolicy(),
		logger:     logger.Named("shopify"),
	}, nil
}

var _ integration.PlatformAdapter = (*ShopifyAdapter)(nil)
var _ integration.DetailFetcher = (*ShopifyAdapter)(nil)

// PlatformCode returns the platform code this adapter handles
func (a *ShopifyAdapter) PlatformCode() integration.PlatformCode {
	return integration.PlatformCodeShopify
}

// ListCurrent pulls every product of the shop using since_id pagination,
// which stays stable while products are created or archived mid-walk.
func (a *ShopifyAdapter) ListCurrent(ctx context.Context) ([]integration.RemoteListing, error) {
	listings := make([]integration.RemoteListing, 0)

	sinceID := int64(0)
	for {
		path := fmt.Sprintf("/products.json?status=any&limit=%d&since_id=%d", a.cfg.PageSize, sinceID)
		body, err := a.doRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}

		var resp shopifyProductsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: shopify products since %d: %v", integration.ErrPlatformInvalidResponse, sinceID, err)
		}
		if len(resp.Products) == 0 {
			break
		}

		for _, product := range resp.Products {
			listings = append(listings, convertShopifyProduct(product))
			if product.ID > sinceID {
				sinceID = product.ID
			}
		}

		if len(resp.Products) < a.cfg.PageSize {
			break
		}
	}

	return listings, nil
}

// FetchDetailed loads a single product in full.
func (a *ShopifyAdapter) FetchDetailed(ctx context.Context, productID string) (integration.RemoteListing, error) {
	body, err := a.doRequest(ctx, http.MethodGet, "/products/"+productID+".json", nil)
	if err != nil {
		return integration.RemoteListing{}, err
	}

	var resp shopifyProductResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return integration.RemoteListing{}, fmt.Errorf("%w: shopify product %s: %v", integration.ErrPlatformInvalidResponse, productID, err)
	}
	return convertShopifyProduct(resp.Product), nil
}

// MarkSold archives the product so the storefront stops offering it.
func (a *ShopifyAdapter) MarkSold(ctx context.Context, externalID string) (bool, error) {
	id, err := strconv.ParseInt(externalID, 10, 64)
	if err != nil {
		return false, fmt.Errorf("%w: shopify product id %q", integration.ErrPlatformInvalidResponse, externalID)
	}

	payload := map[string]any{
		"product": map[string]any{
			"id":     id,
			"status": "archived",
		},
	}
	body, err := a.doRequest(ctx, http.MethodPut, "/products/"+externalID+".json", payload)
	if err != nil {
		return false, err
	}

	var resp shopifyProductResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false, fmt.Errorf("%w: shopify archive %s: %v", integration.ErrPlatformInvalidResponse, externalID, err)
	}

	a.logger.Info("product archived",
		zap.String("external_id", externalID),
		zap.String("status", resp.Product.Status))
	return true, nil
}

// doRequest executes one Shopify Admin API call with auth headers and retries.
func (a *ShopifyAdapter) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var responseBody []byte

	err := doWithRetry(ctx, a.retry, func() (int, error) {
		var reqBody io.Reader
		if payload != nil {
			raw, err := json.Marshal(payload)
			if err != nil {
				return 0, fmt.Errorf("shopify: failed to marshal request: %w", err)
			}
			reqBody = bytes.NewReader(raw)
		}

		req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reqBody)
		if err != nil {
			return 0, fmt.Errorf("shopify: failed to create request: %w", err)
		}
		req.Header.Set("X-Shopify-Access-Token", a.cfg.AccessToken)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := a.httpClient.Do(req)
		if err != nil {
			return 0, fmt.Errorf("shopify: request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if err != nil {
			return resp.StatusCode, fmt.Errorf("shopify: failed to read response: %w", err)
		}
		if resp.StatusCode >= 400 {
			return resp.StatusCode, statusError("shopify", resp.StatusCode)
		}

		responseBody = body
		return resp.StatusCode, nil
	})
	if err != nil {
		return nil, err
	}
	return responseBody, nil
}

// convertShopifyProduct maps a Shopify product to the shared shape. The
// first variant carries the SKU and price the catalog tracks.
func convertShopifyProduct(product shopifyProduct) integration.RemoteListing {
	listing := integration.RemoteListing{
		ExternalID: strconv.FormatInt(product.ID, 10),
		Title:      product.Title,
		RawStatus:  product.Status,
		Fields: map[string]string{
			"status": product.Status,
		},
	}
	if len(product.Variants) > 0 {
		variant := product.Variants[0]
		listing.SKU = variant.SKU
		listing.Fields["variant_price"] = variant.Price
		if d, ok := integration.ParsePrice(variant.Price); ok {
			listing.Price = decimal.NullDecimal{Decimal: d, Valid: true}
		}
	}
	return listing
}
