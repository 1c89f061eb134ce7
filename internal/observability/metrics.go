// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Classification metrics
	ClassificationRuns     *prometheus.CounterVec
	ClassificationDuration prometheus.Histogram
	WalletsClassified      *prometheus.CounterVec
	CacheHits              prometheus.Counter
	CacheMisses            prometheus.Counter

	// Monitoring metrics
	TicksRun          prometheus.Counter
	WalletsChecked    prometheus.Counter
	WalletCheckErrors prometheus.Counter
	ActiveSessions    prometheus.Gauge

	// Alert metrics
	AlertsEmitted     *prometheus.CounterVec
	AlertsSuppressed  *prometheus.CounterVec
	ChannelSendErrors *prometheus.CounterVec

	// Gateway metrics
	GatewayCallLatency *prometheus.HistogramVec
	GatewayCallErrors  *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "holder_sentinel"
	}

	return &Metrics{
		// Classification metrics
		ClassificationRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "runs_total",
			Help:      "Total number of classification runs by network",
		}, []string{"network"}),
		ClassificationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "run_duration_seconds",
			Help:      "Classification run duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		WalletsClassified: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "wallets_classified_total",
			Help:      "Total number of wallets classified by role",
		}, []string{"role"}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "cache_hits_total",
			Help:      "Total number of classification cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "cache_misses_total",
			Help:      "Total number of classification cache misses",
		}),

		// Monitoring metrics
		TicksRun: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "ticks_total",
			Help:      "Total number of monitoring ticks run",
		}),
		WalletsChecked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "wallets_checked_total",
			Help:      "Total number of per-wallet balance checks",
		}),
		WalletCheckErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "wallet_check_errors_total",
			Help:      "Total number of failed per-wallet balance checks",
		}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "active_sessions",
			Help:      "Current number of active monitoring sessions",
		}),

		// Alert metrics
		AlertsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "emitted_total",
			Help:      "Total number of sell alerts emitted by wallet role",
		}, []string{"role"}),
		AlertsSuppressed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "suppressed_total",
			Help:      "Total number of sell candidates suppressed by reason",
		}, []string{"reason"}),
		ChannelSendErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "channel_send_errors_total",
			Help:      "Total number of alert channel delivery failures by channel",
		}, []string{"channel"}),

		// Gateway metrics
		GatewayCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "call_duration_seconds",
			Help:      "Ledger gateway call latency by method",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		GatewayCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "call_errors_total",
			Help:      "Total number of failed ledger gateway calls by method",
		}, []string{"method"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration by database and operation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors by database and operation",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordClassificationRun records one completed classification run.
func RecordClassificationRun(network string, seconds float64) {
	DefaultMetrics.ClassificationRuns.WithLabelValues(network).Inc()
	DefaultMetrics.ClassificationDuration.Observe(seconds)
}

// RecordWalletsClassified adds to the per-role classified-wallet counter.
func RecordWalletsClassified(role string, count int) {
	DefaultMetrics.WalletsClassified.WithLabelValues(role).Add(float64(count))
}

// RecordCacheLookup records a classification cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		DefaultMetrics.CacheHits.Inc()
	} else {
		DefaultMetrics.CacheMisses.Inc()
	}
}

// RecordTick records one monitoring tick with its check outcomes.
func RecordTick(walletsChecked, checkErrors int) {
	DefaultMetrics.TicksRun.Inc()
	DefaultMetrics.WalletsChecked.Add(float64(walletsChecked))
	DefaultMetrics.WalletCheckErrors.Add(float64(checkErrors))
}

// SetActiveSessions updates the active session gauge.
func SetActiveSessions(n int) {
	DefaultMetrics.ActiveSessions.Set(float64(n))
}

// RecordAlertEmitted increments the emitted-alert counter for a role.
func RecordAlertEmitted(role string) {
	DefaultMetrics.AlertsEmitted.WithLabelValues(role).Inc()
}

// RecordAlertSuppressed increments the suppressed-candidate counter.
func RecordAlertSuppressed(reason string) {
	DefaultMetrics.AlertsSuppressed.WithLabelValues(reason).Inc()
}

// RecordChannelSendError increments the delivery-failure counter for a channel.
func RecordChannelSendError(channel string) {
	DefaultMetrics.ChannelSendErrors.WithLabelValues(channel).Inc()
}

// RecordGatewayCall records gateway call latency and outcome.
func RecordGatewayCall(method string, seconds float64, err error) {
	DefaultMetrics.GatewayCallLatency.WithLabelValues(method).Observe(seconds)
	if err != nil {
		DefaultMetrics.GatewayCallErrors.WithLabelValues(method).Inc()
	}
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
