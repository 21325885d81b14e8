package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// event pipeline.
type Metrics struct {
	EventsIncluded *prometheus.CounterVec // labels: source
	EventsSkipped  *prometheus.CounterVec // labels: source, reason
	SourceErrors   *prometheus.CounterVec // labels: source
	SyncsTotal     prometheus.Counter
	SyncDuration   prometheus.Histogram
	SyncRunning    prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		EventsIncluded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "protest_map",
			Name:      "events_included_total",
			Help:      "Normalized events that passed classification and geocoding, by source.",
		}, []string{"source"}),
		EventsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "protest_map",
			Name:      "events_skipped_total",
			Help:      "Raw records excluded during normalization, by source and reason.",
		}, []string{"source", "reason"}),
		SourceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "protest_map",
			Name:      "source_errors_total",
			Help:      "Feed fetches or snapshot writes that failed, by source.",
		}, []string{"source"}),
		SyncsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "protest_map",
			Name:      "syncs_total",
			Help:      "Completed pipeline sync runs.",
		}),
		SyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "protest_map",
			Name:      "sync_duration_seconds",
			Help:      "Duration of a complete fetch-normalize-persist cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		SyncRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "protest_map",
			Name:      "sync_running",
			Help:      "1 while a sync run is in progress, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.EventsIncluded,
		m.EventsSkipped,
		m.SourceErrors,
		m.SyncsTotal,
		m.SyncDuration,
		m.SyncRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		EventsIncluded: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "protest_map", Name: "events_included_total"}, []string{"source"}),
		EventsSkipped:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "protest_map", Name: "events_skipped_total"}, []string{"source", "reason"}),
		SourceErrors:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "protest_map", Name: "source_errors_total"}, []string{"source"}),
		SyncsTotal:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "protest_map", Name: "syncs_total"}),
		SyncDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "protest_map", Name: "sync_duration_seconds"}),
		SyncRunning:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "protest_map", Name: "sync_running"}),
	}
}
