package marketplace

// reverbListing is one listing as returned by the Reverb listings API.
type reverbListing struct {
	ID    int64  `json:"id"`
	SKU   string `json:"sku"`
	Title string `json:"title"`
	State struct {
		Slug string `json:"slug"`
	} `json:"state"`
	Price struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	} `json:"price"`
	Links struct {
		Web struct {
			Href string `json:"href"`
		} `json:"web"`
	} `json:"_links"`
}

// reverbListingsResponse is one page of the listings index.
type reverbListingsResponse struct {
	Total       int64           `json:"total"`
	CurrentPage int             `json:"current_page"`
	TotalPages  int             `json:"total_pages"`
	Listings    []reverbListing `json:"listings"`
}

// reverbStateResponse is the response of a listing state transition.
type reverbStateResponse struct {
	Message string `json:"message"`
	State   struct {
		Slug string `json:"slug"`
	} `json:"state"`
}
