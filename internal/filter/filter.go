package filter

import (
	"sort"
	"strings"
	"time"

	"github.com/dharmasatrya/aircargo/internal/models"
	"github.com/dharmasatrya/aircargo/internal/ranking"
	"github.com/dharmasatrya/aircargo/internal/timezone"
)

// Apply filters routes and sorts them. The input slice is not reordered.
func Apply(routes []models.Route, filters *models.SearchFilters, sortBy, sortOrder string) []models.Route {
	filtered := applyFilters(routes, filters)

	if strings.ToLower(sortBy) == "best_value" {
		filtered = ranking.CalculateScores(filtered)
	}

	sorted := applySort(filtered, sortBy, sortOrder)

	return sorted
}

func applyFilters(routes []models.Route, filters *models.SearchFilters) []models.Route {
	result := make([]models.Route, 0, len(routes))

	for _, r := range routes {
		if filters == nil || matchesFilters(r, filters) {
			result = append(result, r)
		}
	}

	return result
}

func matchesFilters(r models.Route, filters *models.SearchFilters) bool {
	if filters.PriceMax != nil && r.TotalPrice > *filters.PriceMax {
		return false
	}

	if filters.MaxStops != nil && r.Stops() > *filters.MaxStops {
		return false
	}

	if filters.MinAvailableKg != nil && r.AvailableKg < *filters.MinAvailableKg {
		return false
	}

	// Every leg must be flown by one of the requested airlines.
	if len(filters.Airlines) > 0 {
		for _, leg := range r.Legs {
			found := false
			for _, airline := range filters.Airlines {
				if strings.EqualFold(leg.Airline.Name, airline) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}

	if filters.DepartureTimeMin != nil || filters.DepartureTimeMax != nil {
		dep := r.DepartureTime()
		if dep == nil {
			return false
		}
		local := timezone.ConvertToTimezone(*dep, r.Origin)
		depTime := local.Hour()*60 + local.Minute()

		if filters.DepartureTimeMin != nil {
			if minTime, err := parseTimeOfDay(*filters.DepartureTimeMin); err == nil && depTime < minTime {
				return false
			}
		}
		if filters.DepartureTimeMax != nil {
			if maxTime, err := parseTimeOfDay(*filters.DepartureTimeMax); err == nil && depTime > maxTime {
				return false
			}
		}
	}

	if filters.MaxDuration != nil && r.TotalDurationMinutes > *filters.MaxDuration {
		return false
	}

	return true
}

func parseTimeOfDay(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func applySort(routes []models.Route, sortBy, sortOrder string) []models.Route {
	if len(routes) == 0 {
		return routes
	}

	ascending := strings.ToLower(sortOrder) != "desc"

	var less func(a, b models.Route) bool
	switch strings.ToLower(sortBy) {
	case "price":
		less = func(a, b models.Route) bool { return a.TotalPrice < b.TotalPrice }
	case "duration":
		less = func(a, b models.Route) bool { return a.TotalDurationMinutes < b.TotalDurationMinutes }
	case "departure":
		less = func(a, b models.Route) bool { return timeBefore(a.DepartureTime(), b.DepartureTime()) }
	case "arrival":
		less = func(a, b models.Route) bool { return timeBefore(a.ArrivalTime(), b.ArrivalTime()) }
	case "best_value":
		less = func(a, b models.Route) bool { return a.BestValueScore < b.BestValueScore }
	case "stops":
		less = func(a, b models.Route) bool { return a.Stops() < b.Stops() }
	case "capacity":
		less = func(a, b models.Route) bool { return a.AvailableKg < b.AvailableKg }
	default:
		// Default to price ascending
		sort.SliceStable(routes, func(i, j int) bool {
			return routes[i].TotalPrice < routes[j].TotalPrice
		})
		return routes
	}

	sort.SliceStable(routes, func(i, j int) bool {
		if ascending {
			return less(routes[i], routes[j])
		}
		return less(routes[j], routes[i])
	})

	return routes
}

// timeBefore orders missing timestamps last.
func timeBefore(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.Before(*b)
	}
}
