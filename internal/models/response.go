package models

type SearchMetadata struct {
	TotalResults   int   `json:"total_results"`
	ItinerariesRaw int   `json:"itineraries_received"`
	Discarded      int   `json:"itineraries_discarded"`
	SearchTimeMs   int64 `json:"search_time_ms"`
	CacheHit       bool  `json:"cache_hit"`
}

type SearchCriteria struct {
	Origin      string         `json:"origin"`
	Destination string         `json:"destination"`
	Date        string         `json:"date"`
	Filters     *SearchFilters `json:"filters,omitempty"`
	SortBy      string         `json:"sort_by"`
	SortOrder   string         `json:"sort_order"`
}

type SearchResponse struct {
	SearchCriteria SearchCriteria `json:"search_criteria"`
	Metadata       SearchMetadata `json:"metadata"`
	Routes         []Route        `json:"routes"`
}

type Money struct {
	Amount    float64 `json:"amount"`
	Formatted string  `json:"formatted"`
}

type QuoteResponse struct {
	RatePerKg float64 `json:"rate_per_kg"`
	WeightKg  float64 `json:"weight_kg"`
	TaxRate   float64 `json:"tax_rate"`
	Currency  string  `json:"currency"`
	Subtotal  Money   `json:"subtotal"`
	Tax       Money   `json:"tax"`
	Total     Money   `json:"total"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// RouteSet is what a search caches: the normalized routes plus how many
// itineraries the query service returned and how many were dropped.
type RouteSet struct {
	Routes    []Route `json:"routes"`
	Received  int     `json:"received"`
	Discarded int     `json:"discarded"`
}
