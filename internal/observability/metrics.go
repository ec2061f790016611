package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cosmic_watch"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// NeoWs feed metrics.
	FeedRequests    *prometheus.CounterVec   // labels: endpoint={feed,lookup}, outcome={success,error,not_found}
	FeedCache       *prometheus.CounterVec   // labels: endpoint={feed,lookup}, result={hit,miss}
	FeedAPIDuration *prometheus.HistogramVec // labels: endpoint={feed,lookup}

	// Scoring metrics.
	ObjectsScored  *prometheus.CounterVec // labels: shape={feed,stored}
	RiskScores     prometheus.Histogram
	ScoreAnomalies *prometheus.CounterVec // labels: shape={feed,stored}

	// Watchlist metrics.
	WatchlistOps *prometheus.CounterVec // labels: op={list,add,remove}, outcome={success,duplicate,not_found,error}

	// Chat metrics.
	ChatClients  prometheus.Gauge
	ChatMessages prometheus.Counter
	ChatDropped  prometheus.Counter

	// Alert pipeline metrics.
	AlertsPublished   prometheus.Counter
	AlertScanDuration prometheus.Histogram
	AlertScanErrors   prometheus.Counter
	ScannerRunning    prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FeedRequests,
		m.FeedCache,
		m.FeedAPIDuration,
		m.ObjectsScored,
		m.RiskScores,
		m.ScoreAnomalies,
		m.WatchlistOps,
		m.ChatClients,
		m.ChatMessages,
		m.ChatDropped,
		m.AlertsPublished,
		m.AlertScanDuration,
		m.AlertScanErrors,
		m.ScannerRunning,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FeedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_requests_total",
			Help:      "NeoWs API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		FeedCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_cache_total",
			Help:      "NeoWs response cache lookups by endpoint and result.",
		}, []string{"endpoint", "result"}),
		FeedAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_api_duration_seconds",
			Help:      "NeoWs API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		ObjectsScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_scored_total",
			Help:      "Objects passed through the risk scorer by input shape.",
		}, []string{"shape"}),
		RiskScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "risk_score",
			Help:      "Distribution of computed risk scores.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		ScoreAnomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_anomalies_total",
			Help:      "Objects scored with at least one defaulted malformed reading.",
		}, []string{"shape"}),
		WatchlistOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watchlist_operations_total",
			Help:      "Watchlist operations by kind and outcome.",
		}, []string{"op", "outcome"}),
		ChatClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chat_clients",
			Help:      "Connected chat clients.",
		}),
		ChatMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_messages_total",
			Help:      "Chat messages accepted for broadcast.",
		}),
		ChatDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_dropped_total",
			Help:      "Chat deliveries dropped because a client queue was full.",
		}),
		AlertsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_published_total",
			Help:      "Hazard alerts written to the alert topic.",
		}),
		AlertScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "alert_scan_duration_seconds",
			Help:      "Duration of one fetch-score-publish alert scan.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		AlertScanErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_scan_errors_total",
			Help:      "Alert scans that failed to fetch or publish.",
		}),
		ScannerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alert_scanner_running",
			Help:      "1 when the alert scanner is active, 0 when shut down.",
		}),
	}
}
