package ranking

import (
	"math"

	"github.com/dharmasatrya/aircargo/internal/models"
)

const (
	PriceWeight    = 0.4
	CapacityWeight = 0.25
	DurationWeight = 0.2
	LayoverWeight  = 0.15
)

// Bounds are the per-search maxima each route is measured against.
type Bounds struct {
	MaxPrice          float64
	MaxDuration       float64
	MaxAvailableKg    float64
	MaxLayoverMinutes float64
}

func BoundsOf(routes []models.Route) Bounds {
	var b Bounds
	for _, r := range routes {
		b.MaxPrice = math.Max(b.MaxPrice, r.TotalPrice)
		b.MaxDuration = math.Max(b.MaxDuration, float64(r.TotalDurationMinutes))
		b.MaxAvailableKg = math.Max(b.MaxAvailableKg, r.AvailableKg)
		b.MaxLayoverMinutes = math.Max(b.MaxLayoverMinutes, float64(layoverMinutes(r)))
	}
	return b
}

func CalculateScores(routes []models.Route) []models.Route {
	if len(routes) == 0 {
		return routes
	}

	bounds := BoundsOf(routes)

	result := make([]models.Route, len(routes))
	for i, r := range routes {
		result[i] = r
		result[i].BestValueScore = CalculateBestValue(r, bounds)
	}

	return result
}

// CalculateBestValue scores a route from 0 to 100, lower is better. Remaining
// capacity counts against the roomiest route in the search, so a nearly full
// route scores close to 100 on that term. Time spent on the ground counts
// against the longest total layover.
func CalculateBestValue(route models.Route, b Bounds) float64 {
	priceScore := share(route.TotalPrice, b.MaxPrice)
	durationScore := share(float64(route.TotalDurationMinutes), b.MaxDuration)
	layoverScore := share(float64(layoverMinutes(route)), b.MaxLayoverMinutes)

	capacityScore := 0.0
	if b.MaxAvailableKg > 0 {
		capacityScore = 100 - share(route.AvailableKg, b.MaxAvailableKg)
	}

	score := priceScore*PriceWeight +
		capacityScore*CapacityWeight +
		durationScore*DurationWeight +
		layoverScore*LayoverWeight

	return math.Round(score*100) / 100
}

func share(v, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return v / max * 100
}

func layoverMinutes(r models.Route) int {
	total := 0
	for _, l := range r.Layovers {
		total += l.Duration
	}
	return total
}
