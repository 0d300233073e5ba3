package search

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/dharmasatrya/aircargo/internal/backend"
	"github.com/dharmasatrya/aircargo/internal/cache"
	"github.com/dharmasatrya/aircargo/internal/filter"
	"github.com/dharmasatrya/aircargo/internal/itinerary"
	"github.com/dharmasatrya/aircargo/internal/metrics"
	"github.com/dharmasatrya/aircargo/internal/models"
	"github.com/dharmasatrya/aircargo/internal/ratelimit"
)

// RouteSource is the route query service.
type RouteSource interface {
	SearchRoutes(ctx context.Context, origin, destination, date string) ([][]models.FlightLeg, error)
}

type Config struct {
	Timeout     time.Duration
	MaxRetries  int
	RetryDelays []time.Duration
}

func DefaultConfig() Config {
	return Config{
		Timeout:     5 * time.Second,
		MaxRetries:  2,
		RetryDelays: []time.Duration{100 * time.Millisecond, 300 * time.Millisecond},
	}
}

type Service struct {
	source  RouteSource
	cache   cache.Cache
	config  Config
	metrics *metrics.Metrics
}

type Result struct {
	Routes    []models.Route
	Received  int
	Discarded int
	CacheHit  bool
}

func NewService(source RouteSource, c cache.Cache, config Config, m *metrics.Metrics) *Service {
	if c == nil {
		c = cache.NewNoOpCache()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if len(config.RetryDelays) == 0 {
		config.RetryDelays = DefaultConfig().RetryDelays
	}
	return &Service{
		source:  source,
		cache:   c,
		config:  config,
		metrics: m,
	}
}

// Search answers a validated request: cached or freshly normalized routes,
// filtered and sorted.
func (s *Service) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	start := time.Now()

	req.Origin = strings.ToUpper(strings.TrimSpace(req.Origin))
	req.Destination = strings.ToUpper(strings.TrimSpace(req.Destination))

	result, err := s.Routes(ctx, req)
	if err != nil {
		return nil, err
	}

	routes := filter.Apply(result.Routes, req.Filters, req.SortBy, req.SortOrder)
	elapsed := time.Since(start)
	s.metrics.ObserveSearch(elapsed.Seconds(), result.CacheHit)

	return &models.SearchResponse{
		SearchCriteria: models.SearchCriteria{
			Origin:      req.Origin,
			Destination: req.Destination,
			Date:        req.Date,
			Filters:     req.Filters,
			SortBy:      req.SortBy,
			SortOrder:   req.SortOrder,
		},
		Metadata: models.SearchMetadata{
			TotalResults:   len(routes),
			ItinerariesRaw: result.Received,
			Discarded:      result.Discarded,
			SearchTimeMs:   elapsed.Milliseconds(),
			CacheHit:       result.CacheHit,
		},
		Routes: routes,
	}, nil
}

// Routes returns every normalizable itinerary for the request, unfiltered.
func (s *Service) Routes(ctx context.Context, req models.SearchRequest) (*Result, error) {
	if set, ok := s.cache.Get(ctx, req); ok {
		return &Result{
			Routes:    set.Routes,
			Received:  set.Received,
			Discarded: set.Discarded,
			CacheHit:  true,
		}, nil
	}

	searchCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	itineraries, err := s.fetchWithRetry(searchCtx, req)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Routes:   make([]models.Route, 0, len(itineraries)),
		Received: len(itineraries),
	}
	for i, legs := range itineraries {
		route, err := itinerary.Normalize(legs)
		if err != nil {
			log.Printf("Discarding itinerary %d for %s-%s: %v", i, req.Origin, req.Destination, err)
			result.Discarded++
			continue
		}
		result.Routes = append(result.Routes, route)
	}
	s.metrics.AddDiscarded(result.Discarded)

	set := models.RouteSet{
		Routes:    result.Routes,
		Received:  result.Received,
		Discarded: result.Discarded,
	}
	if err := s.cache.Set(ctx, req, set); err != nil {
		log.Printf("Failed to cache routes for %s-%s: %v", req.Origin, req.Destination, err)
	}

	return result, nil
}

func (s *Service) fetchWithRetry(ctx context.Context, req models.SearchRequest) ([][]models.FlightLeg, error) {
	var lastErr error

	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if attempt > 0 {
			delayIdx := attempt - 1
			if delayIdx >= len(s.config.RetryDelays) {
				delayIdx = len(s.config.RetryDelays) - 1
			}

			select {
			case <-time.After(s.config.RetryDelays[delayIdx]):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			s.metrics.IncRetry(ratelimit.EndpointRoutes)
		}

		itineraries, err := s.source.SearchRoutes(ctx, req.Origin, req.Destination, req.Date)
		if err == nil {
			return itineraries, nil
		}

		lastErr = err
		log.Printf("Route query %s-%s attempt %d failed: %v", req.Origin, req.Destination, attempt+1, err)
		if !retryable(err) {
			break
		}
	}

	return nil, lastErr
}

// retryable treats transport failures as transient. Replies from the API are
// retried only when they say so.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return true
}
