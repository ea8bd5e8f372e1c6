package marketplace

// shopifyProduct is one product as returned by the Shopify Admin API.
type shopifyProduct struct {
	ID       int64            `json:"id"`
	Title    string           `json:"title"`
	Status   string           `json:"status"`
	Variants []shopifyVariant `json:"variants"`
}

// shopifyVariant carries the price and SKU; the first variant is the one
// the catalog tracks.
type shopifyVariant struct {
	ID    int64  `json:"id"`
	SKU   string `json:"sku"`
	Price string `json:"price"`
}

// shopifyProductsResponse is one page of the products index.
type shopifyProductsResponse struct {
	Products []shopifyProduct `json:"products"`
}

// shopifyProductResponse wraps a single product payload.
type shopifyProductResponse struct {
	Product shopifyProduct `json:"product"`
}
