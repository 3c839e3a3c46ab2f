package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "covid_obce"

// Metrics holds the Prometheus counters, histograms, and gauges for the refresh pipeline.
type Metrics struct {
	Refreshes       *prometheus.CounterVec // labels: outcome={success,error,not_modified,empty}
	RowsConsumed    prometheus.Counter
	RowsSkipped     prometheus.Counter
	RefreshDuration prometheus.Histogram
	Districts       prometheus.Gauge
	Municipalities  prometheus.Gauge
	PipelineRunning prometheus.Gauge
	LastSuccess     prometheus.Gauge

	// Feed client metrics.
	FeedRequests        *prometheus.CounterVec // labels: outcome={success,not_modified,empty,error}
	FeedCache           *prometheus.CounterVec // labels: result={hit,miss}
	FeedRequestDuration prometheus.Histogram

	// Sink metrics.
	SnapshotsPublished *prometheus.CounterVec // labels: sink
	PublishErrors      *prometheus.CounterVec // labels: sink
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}

func newMetrics() *Metrics {
	return &Metrics{
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Refresh cycles by outcome.",
		}, []string{"outcome"}),
		RowsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_consumed_total",
			Help:      "Total feed rows aggregated into snapshots.",
		}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      "Total malformed feed rows left out of snapshots.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete fetch-aggregate-publish cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		Districts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "districts",
			Help:      "Districts in the latest snapshot.",
		}),
		Municipalities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "municipalities",
			Help:      "Municipalities in the latest snapshot.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the refresh loop is active, 0 when shut down.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last published snapshot.",
		}),
		FeedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_requests_total",
			Help:      "Upstream feed requests by outcome.",
		}, []string{"outcome"}),
		FeedCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_cache_total",
			Help:      "Conditional feed requests by cache result.",
		}, []string{"result"}),
		FeedRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_request_duration_seconds",
			Help:      "Upstream feed request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		SnapshotsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      "Snapshots handed to each sink.",
		}, []string{"sink"}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed snapshot publications per sink.",
		}, []string{"sink"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Refreshes,
		m.RowsConsumed,
		m.RowsSkipped,
		m.RefreshDuration,
		m.Districts,
		m.Municipalities,
		m.PipelineRunning,
		m.LastSuccess,
		m.FeedRequests,
		m.FeedCache,
		m.FeedRequestDuration,
		m.SnapshotsPublished,
		m.PublishErrors,
	}
}
