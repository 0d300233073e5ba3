// Package itinerary turns the flight legs returned by the route query service
// into display-ready routes.
package itinerary

import (
	"errors"
	"math"
	"time"

	"github.com/dharmasatrya/aircargo/internal/models"
	"github.com/dharmasatrya/aircargo/internal/timezone"
	"github.com/dharmasatrya/aircargo/pkg/currency"
)

var ErrEmptyRoute = errors.New("route has no legs")

// Normalize builds a Route from legs in the order given. Legs are expected to
// be connected (each destination is the next origin) but this is not checked.
//
// Missing or inverted timestamps never fail the call. A leg whose arrival is
// not after its departure gets a zero duration, and the route total falls
// back to the sum of leg durations when the end-to-end span is unavailable.
func Normalize(legs []models.FlightLeg) (models.Route, error) {
	if len(legs) == 0 {
		return models.Route{}, ErrEmptyRoute
	}

	route := models.Route{
		Kind:        models.RouteDirect,
		Origin:      legs[0].Origin,
		Destination: legs[len(legs)-1].Destination,
		Legs:        make([]models.RouteLeg, len(legs)),
	}
	if len(legs) > 1 {
		route.Kind = models.RouteTransit
	}

	rates := make([]float64, len(legs))
	var durationSum int
	minAvailable := math.Inf(1)

	for i, l := range legs {
		leg := normalizeLeg(l)
		route.Legs[i] = leg

		rates[i] = l.BasePricePerKg
		durationSum += leg.DurationMinutes
		if leg.Capacity.AvailableKg < minAvailable {
			minAvailable = leg.Capacity.AvailableKg
		}
	}

	route.TotalPrice = currency.RoundSum(rates...)
	route.AvailableKg = minAvailable
	route.Layovers = layovers(route.Legs)

	route.TotalDurationMinutes = durationSum
	first, last := route.DepartureTime(), route.ArrivalTime()
	if first != nil && last != nil {
		if span := last.Sub(*first); span >= 0 {
			route.TotalDurationMinutes = minutes(span)
		}
	}

	return route, nil
}

func normalizeLeg(l models.FlightLeg) models.RouteLeg {
	dep := parseInstant(l.DepartureDatetime)
	arr := parseInstant(l.ArrivalDatetime)

	leg := models.RouteLeg{
		ID: l.ID,
		Airline: models.Airline{
			Name:         l.AirlineName,
			FlightNumber: l.FlightNumber,
		},
		Departure:  location(l.Origin, dep),
		Arrival:    location(l.Destination, arr),
		PricePerKg: l.BasePricePerKg,
		Capacity: models.Capacity{
			MaxKg:       l.MaxWeightKg,
			BookedKg:    l.BookedWeightKg,
			AvailableKg: math.Max(0, l.MaxWeightKg-l.BookedWeightKg),
		},
	}

	if dep != nil && arr != nil {
		leg.DurationMinutes = minutes(arr.Sub(*dep))
	}
	return leg
}

func parseInstant(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := timezone.ParseTimestamp(s)
	if err != nil {
		return nil
	}
	return &t
}

func location(airport string, t *time.Time) models.Location {
	loc := models.Location{
		Airport:  airport,
		Time:     t,
		Timezone: timezone.GetTimezoneByAirport(airport),
	}
	if t != nil {
		loc.LocalTime = timezone.LocalClock(*t, airport)
	}
	return loc
}

// layovers reports the ground time at each connection. A connection whose
// next departure precedes the previous arrival is reported as zero.
func layovers(legs []models.RouteLeg) []models.Layover {
	if len(legs) < 2 {
		return nil
	}
	out := make([]models.Layover, 0, len(legs)-1)
	for i := 0; i < len(legs)-1; i++ {
		lay := models.Layover{Airport: legs[i].Arrival.Airport}
		arr, next := legs[i].Arrival.Time, legs[i+1].Departure.Time
		if arr != nil && next != nil {
			lay.Duration = minutes(next.Sub(*arr))
		}
		out = append(out, lay)
	}
	return out
}

func minutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}
