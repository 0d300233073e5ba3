package models

import "time"

type SearchFilters struct {
	PriceMax         *float64 `json:"price_max,omitempty"`
	MaxStops         *int     `json:"max_stops,omitempty"`
	Airlines         []string `json:"airlines,omitempty"`
	DepartureTimeMin *string  `json:"departure_time_min,omitempty"`
	DepartureTimeMax *string  `json:"departure_time_max,omitempty"`
	MaxDuration      *int     `json:"max_duration,omitempty"`
	MinAvailableKg   *float64 `json:"min_available_kg,omitempty"`
}

type SearchRequest struct {
	Origin      string         `json:"origin"`
	Destination string         `json:"destination"`
	Date        string         `json:"date"`
	Filters     *SearchFilters `json:"filters,omitempty"`
	SortBy      string         `json:"sort_by,omitempty"`
	SortOrder   string         `json:"sort_order,omitempty"`
}

func (r *SearchRequest) Validate() error {
	if r.Origin == "" {
		return ErrMissingOrigin
	}
	if r.Destination == "" {
		return ErrMissingDestination
	}
	if r.Date == "" {
		return ErrMissingDate
	}
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return ErrInvalidDate
	}
	if r.SortBy == "" {
		r.SortBy = "best_value"
	}
	if r.SortOrder == "" {
		r.SortOrder = "asc"
	}
	return nil
}

type QuoteRequest struct {
	RatePerKg float64 `json:"rate_per_kg" validate:"gt=0"`
	WeightKg  float64 `json:"weight_kg"`
}

// CreateBookingRequest is what the browser posts from the review panel. The
// legs are echoed back from the search response the user selected.
type CreateBookingRequest struct {
	Legs     []FlightLeg `json:"legs" validate:"required,min=1,dive"`
	Pieces   int         `json:"pieces" validate:"required,gt=0"`
	WeightKg float64     `json:"weight_kg" validate:"required,gt=0"`
}

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrMissingOrigin      ValidationError = "origin is required"
	ErrMissingDestination ValidationError = "destination is required"
	ErrMissingDate        ValidationError = "date is required"
	ErrInvalidDate        ValidationError = "date must be formatted as YYYY-MM-DD"
)
