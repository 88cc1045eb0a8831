package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "geo_kpi"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Upstream KPI API metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: endpoint, outcome={success,error}
	UpstreamDuration *prometheus.HistogramVec // labels: endpoint
	UpstreamCache    *prometheus.CounterVec   // labels: result={hit,miss}

	// Page state metrics.
	GeoRowsDropped  prometheus.Counter
	FallbackServed  *prometheus.CounterVec // labels: reason={empty,unreachable}
	StaleResponses  *prometheus.CounterVec // labels: page
	PollerRunning   prometheus.Gauge
	PollDuration    prometheus.Histogram
	SnapshotEntries prometheus.Histogram

	// Snapshot publishing metrics.
	KafkaEnabled       prometheus.Gauge
	SnapshotsPublished prometheus.Counter
	MessagesProduced   prometheus.Counter
	PublishErrors      prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.UpstreamCache,
		m.GeoRowsDropped,
		m.FallbackServed,
		m.StaleResponses,
		m.PollerRunning,
		m.PollDuration,
		m.SnapshotEntries,
		m.KafkaEnabled,
		m.SnapshotsPublished,
		m.MessagesProduced,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}

	return &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      help("KPI API requests by endpoint and outcome."),
		}, []string{"endpoint", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      help("KPI API request duration in seconds."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"endpoint"}),
		UpstreamCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_cache_total",
			Help:      help("KPI API response cache lookups by result."),
		}, []string{"result"}),
		GeoRowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geo_rows_dropped_total",
			Help:      help("Geo feed rows rejected during normalization."),
		}),
		FallbackServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geo_fallback_served_total",
			Help:      help("Geo views served from sample data, by reason."),
		}, []string{"reason"}),
		StaleResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_responses_total",
			Help:      help("Upstream responses discarded because a newer request had started."),
		}, []string{"page"}),
		PollerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geo_poller_running",
			Help:      help("1 when the geo poller is active, 0 when shut down."),
		}),
		PollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geo_poll_duration_seconds",
			Help:      help("Duration of a complete geo refresh and publish cycle."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		SnapshotEntries: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geo_snapshot_entries",
			Help:      help("Number of countries per committed geo snapshot."),
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 150, 250},
		}),
		KafkaEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "kafka_enabled",
			Help:      help("1 when geo snapshot publishing is enabled, 0 otherwise."),
		}),
		SnapshotsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      help("Geo snapshots written to Kafka."),
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      help("Per-country messages written to the geo topic."),
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      help("Failed geo snapshot publishes."),
		}),
	}
}
