package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the agent.
type Metrics struct {
	CommandsTotal       *prometheus.CounterVec
	ApprovalEvents      *prometheus.CounterVec
	PendingApprovals    prometheus.Gauge
	ActiveConversations prometheus.Gauge
	ProviderErrors      *prometheus.CounterVec
	ExecutionLatency    prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		CommandsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Classified commands by intent kind.",
		}, []string{"intent"}),
		ApprovalEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "approval_events_total",
			Help:      "Approval lifecycle events by outcome.",
		}, []string{"event"}),
		PendingApprovals: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_approvals",
			Help:      "Number of approval requests currently awaiting a decision.",
		}),
		ActiveConversations: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_conversations",
			Help:      "Number of active per-user conversations.",
		}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "External provider errors by provider and operation.",
		}, []string{"provider", "op"}),
		ExecutionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "execution_latency_ms",
			Help:      "Latency of approved operation execution in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}),
	}
}

func (m *Metrics) ObserveExecutionLatency(d time.Duration) {
	m.ExecutionLatency.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
