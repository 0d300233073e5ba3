package models

import "time"

// FlightLeg is a single scheduled segment exactly as the route query service
// returns it. Timestamps stay as strings because the service emits naive UTC
// values that do not decode into time.Time directly.
type FlightLeg struct {
	ID                string  `json:"flight_id"`
	AirlineName       string  `json:"airline_name"`
	FlightNumber      string  `json:"flight_number"`
	Origin            string  `json:"origin"`
	Destination       string  `json:"destination"`
	DepartureDatetime string  `json:"departure_datetime"`
	ArrivalDatetime   string  `json:"arrival_datetime"`
	MaxWeightKg       float64 `json:"max_weight_kg"`
	BookedWeightKg    float64 `json:"booked_weight_kg"`
	BasePricePerKg    float64 `json:"base_price_per_kg"`
}

type RouteKind string

const (
	RouteDirect  RouteKind = "direct"
	RouteTransit RouteKind = "transit"
)

type Airline struct {
	Name         string `json:"name"`
	FlightNumber string `json:"flight_number"`
}

type Location struct {
	Airport   string     `json:"airport"`
	Time      *time.Time `json:"time,omitempty"`
	LocalTime string     `json:"local_time,omitempty"`
	Timezone  string     `json:"timezone"`
}

type Layover struct {
	Airport  string `json:"airport"`
	Duration int    `json:"duration_minutes"`
}

type Capacity struct {
	MaxKg       float64 `json:"max_kg"`
	BookedKg    float64 `json:"booked_kg"`
	AvailableKg float64 `json:"available_kg"`
}

type RouteLeg struct {
	ID              string   `json:"id"`
	Airline         Airline  `json:"airline"`
	Departure       Location `json:"departure"`
	Arrival         Location `json:"arrival"`
	DurationMinutes int      `json:"duration_minutes"`
	PricePerKg      float64  `json:"price_per_kg"`
	Capacity        Capacity `json:"capacity"`
}

// Route is a normalized itinerary. It is built once per search response and
// never mutated afterwards.
type Route struct {
	Kind                 RouteKind  `json:"kind"`
	Origin               string     `json:"origin"`
	Destination          string     `json:"destination"`
	Legs                 []RouteLeg `json:"legs"`
	Layovers             []Layover  `json:"layovers,omitempty"`
	TotalPrice           float64    `json:"total_price"`
	TotalDurationMinutes int        `json:"total_duration_minutes"`
	AvailableKg          float64    `json:"available_kg"`
	BestValueScore       float64    `json:"best_value_score,omitempty"`
}

func (r Route) Stops() int {
	if len(r.Legs) == 0 {
		return 0
	}
	return len(r.Legs) - 1
}

func (r Route) LegIDs() []string {
	ids := make([]string, len(r.Legs))
	for i, l := range r.Legs {
		ids[i] = l.ID
	}
	return ids
}

// DepartureTime is the first leg's departure, nil when the backend omitted it.
func (r Route) DepartureTime() *time.Time {
	if len(r.Legs) == 0 {
		return nil
	}
	return r.Legs[0].Departure.Time
}

func (r Route) ArrivalTime() *time.Time {
	if len(r.Legs) == 0 {
		return nil
	}
	return r.Legs[len(r.Legs)-1].Arrival.Time
}
