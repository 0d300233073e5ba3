package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aircargo"

// Metrics groups the gateway's collectors on a private registry. All methods
// are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	searchDuration  *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
	discarded       prometheus.Counter
	backendRetries  *prometheus.CounterVec
	bookingOutcomes *prometheus.CounterVec
	pendingResumes  prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		searchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "route_search_duration_seconds",
			Help:      "Time spent answering a route search.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"cache"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_cache_lookups_total",
			Help:      "Route cache lookups by result.",
		}, []string{"result"}),
		discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "itineraries_discarded_total",
			Help:      "Itineraries dropped because they could not be normalized.",
		}),
		backendRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_retries_total",
			Help:      "Retried calls to the cargo API by endpoint.",
		}, []string{"endpoint"}),
		bookingOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_outcomes_total",
			Help:      "Classified booking submission outcomes.",
		}, []string{"kind"}),
		pendingResumes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pending_bookings_resumed_total",
			Help:      "Pending bookings read back after sign-in.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.searchDuration,
		m.cacheLookups,
		m.discarded,
		m.backendRetries,
		m.bookingOutcomes,
		m.pendingResumes,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveSearch(seconds float64, cacheHit bool) {
	if m == nil {
		return
	}
	label := "miss"
	if cacheHit {
		label = "hit"
	}
	m.searchDuration.WithLabelValues(label).Observe(seconds)
	m.cacheLookups.WithLabelValues(label).Inc()
}

func (m *Metrics) AddDiscarded(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.discarded.Add(float64(n))
}

func (m *Metrics) IncRetry(endpoint string) {
	if m == nil {
		return
	}
	m.backendRetries.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) IncBookingOutcome(kind string) {
	if m == nil {
		return
	}
	m.bookingOutcomes.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncPendingResume() {
	if m == nil {
		return
	}
	m.pendingResumes.Inc()
}
