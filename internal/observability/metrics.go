// Package observability provides Prometheus metrics and the bot's stats counters.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "sol_bot"

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	TokensDetected  prometheus.Counter
	TokensMonitored prometheus.Counter
	TokensFiltered  *prometheus.CounterVec
	TokensRejected  prometheus.Counter
	TokensInvalid   prometheus.Counter

	// Monitor metrics
	ActiveMonitors      prometheus.Gauge
	TerminalTransitions *prometheus.CounterVec
	TaskLifetime        *prometheus.HistogramVec
	AlertsFired         *prometheus.CounterVec

	// Dry-run metrics
	DryRunTrades  *prometheus.CounterVec
	DryRunOutcome *prometheus.CounterVec
	OpenPositions prometheus.Gauge

	// Collaborator metrics
	OracleLatency       *prometheus.HistogramVec
	RPCCallLatency      *prometheus.HistogramVec
	CollaboratorErrors  *prometheus.CounterVec
	TicksDropped        prometheus.Counter
	TicksFlushed        prometheus.Counter
	FeedReconnects      prometheus.Counter
	LastEventReceivedTS prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics registers all metrics on reg. A nil reg gets a fresh private
// registry, which keeps tests independent of the global default.
func NewMetrics(namespace string, reg *prometheus.Registry) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// Ingestion metrics
		TokensDetected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "tokens_detected_total",
			Help:      "Total number of new-token notifications received",
		}),
		TokensMonitored: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "tokens_monitored_total",
			Help:      "Total number of tokens handed to a monitor task",
		}),
		TokensFiltered: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "tokens_filtered_total",
			Help:      "Total number of tokens dropped by a filter, by filter",
		}, []string{"filter"}),
		TokensRejected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "tokens_rejected_total",
			Help:      "Total number of tokens rejected because the monitor cap was reached",
		}),
		TokensInvalid: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "tokens_invalid_total",
			Help:      "Total number of notifications with a malformed mint address",
		}),

		// Monitor metrics
		ActiveMonitors: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "active",
			Help:      "Number of assets currently monitored",
		}),
		TerminalTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "terminal_transitions_total",
			Help:      "Monitor tasks finished, by terminal reason",
		}, []string{"reason"}),
		TaskLifetime: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "task_lifetime_seconds",
			Help:      "Monitor task lifetime in seconds, by terminal reason",
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 900, 1800, 3600},
		}, []string{"reason"}),
		AlertsFired: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "alerts_total",
			Help:      "Alerts fired, by rule",
		}, []string{"rule"}),

		// Dry-run metrics
		DryRunTrades: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dryrun",
			Name:      "trades_total",
			Help:      "Simulated trades, by side",
		}, []string{"side"}),
		DryRunOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dryrun",
			Name:      "outcomes_total",
			Help:      "Closed simulated positions, by outcome class",
		}, []string{"outcome"}),
		OpenPositions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dryrun",
			Name:      "open_positions",
			Help:      "Number of open simulated positions",
		}),

		// Collaborator metrics
		OracleLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "request_latency_seconds",
			Help:      "Price oracle request latency in seconds, by result",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		RPCCallLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		CollaboratorErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "collaborator_errors_total",
			Help:      "Failures of notify, persist and simulate calls",
		}, []string{"collaborator"}),
		TicksDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recorder",
			Name:      "ticks_dropped_total",
			Help:      "Price ticks dropped because the buffer was full",
		}),
		TicksFlushed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recorder",
			Name:      "ticks_flushed_total",
			Help:      "Price ticks written to the tick store",
		}),
		FeedReconnects: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "reconnects_total",
			Help:      "Feed websocket reconnect attempts",
		}),
		LastEventReceivedTS: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "last_event_timestamp",
			Help:      "Unix timestamp of the last new-token notification",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
