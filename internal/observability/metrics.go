package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for an indexing run.
type Metrics struct {
	PipelineRunning  prometheus.Gauge
	RunDuration      prometheus.Histogram
	EventsLoaded     prometheus.Gauge
	EventsResolved   *prometheus.CounterVec // labels: outcome={resolved,unresolved}
	EntriesPublished prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={reverse,search}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method={reverse,search}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={reverse,search}
	GeocodeEnabled     prometheus.Gauge
	RateLimitWait      prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "map_index",
			Name:      "pipeline_running",
			Help:      "1 while an indexing run is in progress, 0 otherwise.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "map_index",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete load-resolve-index run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		EventsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "map_index",
			Name:      "events_loaded",
			Help:      "Number of events loaded from the event source in the current run.",
		}),
		EventsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "map_index",
			Name:      "events_resolved_total",
			Help:      "Events processed by the address resolver, by outcome.",
		}, []string{"outcome"}),
		EntriesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "map_index",
			Name:      "entries_published_total",
			Help:      "Index entries written to the Kafka topic.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "map_index",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "map_index",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "map_index",
			Name:      "geocode_api_duration_seconds",
			Help:      "Nominatim API request duration in seconds, excluding rate-limit waits.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "map_index",
			Name:      "geocode_enabled",
			Help:      "1 when geocoding is enabled, 0 otherwise.",
		}),
		RateLimitWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "map_index",
			Name:      "rate_limit_wait_seconds",
			Help:      "Time spent waiting for the geocoding rate limiter.",
			Buckets:   []float64{0, 0.1, 0.25, 0.5, 0.75, 1, 2},
		}),
	}

	prometheus.MustRegister(
		m.PipelineRunning,
		m.RunDuration,
		m.EventsLoaded,
		m.EventsResolved,
		m.EntriesPublished,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
		m.RateLimitWait,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		PipelineRunning:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "map_index", Name: "pipeline_running"}),
		RunDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "map_index", Name: "run_duration_seconds"}),
		EventsLoaded:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "map_index", Name: "events_loaded"}),
		EventsResolved:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "map_index", Name: "events_resolved_total"}, []string{"outcome"}),
		EntriesPublished:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "map_index", Name: "entries_published_total"}),
		GeocodeRequests:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "map_index", Name: "geocode_requests_total"}, []string{"method", "outcome"}),
		GeocodeCache:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "map_index", Name: "geocode_cache_total"}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "map_index", Name: "geocode_api_duration_seconds"}, []string{"method"}),
		GeocodeEnabled:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "map_index", Name: "geocode_enabled"}),
		RateLimitWait:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "map_index", Name: "rate_limit_wait_seconds"}),
	}
}
