package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cable_health"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Kafka warning pipeline metrics.
	WarningsConsumed prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Warning feed metrics.
	FeedRequests *prometheus.CounterVec // labels: source={nga,kafka}, outcome={success,error}
	FeedDuration prometheus.Histogram

	// Signal cache and synthesis metrics.
	CacheLookups     *prometheus.CounterVec // labels: result={hit,miss,stale,negative}
	SynthesisResults *prometheus.CounterVec // labels: outcome={resolved,unresolved,unrelated}
	UnparseableDates prometheus.Counter
	SignalsByKind    *prometheus.CounterVec // labels: kind
	CablesByStatus   *prometheus.GaugeVec   // labels: status

	SnapshotsPublished prometheus.Counter
	WarningLogEntries  prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.WarningsConsumed,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.FeedRequests,
		m.FeedDuration,
		m.CacheLookups,
		m.SynthesisResults,
		m.UnparseableDates,
		m.SignalsByKind,
		m.CablesByStatus,
		m.SnapshotsPublished,
		m.WarningLogEntries,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
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
		WarningsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_consumed_total",
			Help:      help("Total warning messages read from the source topic."),
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      help("Total warning messages that could not be decoded."),
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      help("1 when the warning pipeline is active, 0 when shut down."),
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      help("Number of messages per batch extracted from Kafka."),
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      help("Duration of a complete batch extract-transform-load cycle."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		FeedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_requests_total",
			Help:      help("Warning feed fetches by source and outcome."),
		}, []string{"source", "outcome"}),
		FeedDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_request_duration_seconds",
			Help:      help("Warning feed fetch duration in seconds."),
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      help("Signal cache lookups by result."),
		}, []string{"result"}),
		SynthesisResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_warnings_total",
			Help:      help("Warnings seen during signal synthesis by outcome."),
		}, []string{"outcome"}),
		UnparseableDates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unparseable_issue_dates_total",
			Help:      help("Resolved warnings whose issue date could not be parsed."),
		}),
		SignalsByKind: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_synthesized_total",
			Help:      help("Signals synthesized by kind."),
		}, []string{"kind"}),
		CablesByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cables",
			Help:      help("Cables in the most recent health evaluation by status."),
		}, []string{"status"}),
		SnapshotsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      help("Health snapshots written to the sink topic."),
		}),
		WarningLogEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "warning_log_entries",
			Help:      help("Warnings held in the Kafka-fed warning log."),
		}),
	}
}
