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
	// Settlement metrics
	ClaimsSettled     prometheus.Counter
	ZeroClaims        prometheus.Counter
	UnitsClaimed      prometheus.Counter
	SettlementErrors  *prometheus.CounterVec
	LockTimeouts      prometheus.Counter
	ClockRollbacks    prometheus.Counter
	SettlementLatency prometheus.Histogram

	// Agent metrics
	AgentTicks      prometheus.Counter
	AgentActions    *prometheus.CounterVec
	AgentTickErrors prometheus.Counter
	ActiveAgents    prometheus.Gauge
	OrdersSubmitted prometheus.Counter

	// Sweep metrics
	CheckpointSweeps     prometheus.Counter
	CheckpointSweepFails prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered
// on the default registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "vesting_engine"
	}

	return &Metrics{
		ClaimsSettled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_settled_total",
			Help:      "Number of settlements that distributed a non-zero amount",
		}),
		ZeroClaims: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "zero_claims_total",
			Help:      "Number of settlement attempts that found zero accrual",
		}),
		UnitsClaimed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_claimed_total",
			Help:      "Total units converted into holdings",
		}),
		SettlementErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_errors_total",
			Help:      "Settlement failures by kind",
		}, []string{"kind"}),
		LockTimeouts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lock_timeouts_total",
			Help:      "Per-account lock acquisitions that timed out",
		}),
		ClockRollbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clock_rollbacks_total",
			Help:      "Accrual reads that observed the wall clock behind the checkpoint",
		}),
		SettlementLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settlement_duration_seconds",
			Help:      "Settlement duration including lock wait",
			Buckets:   prometheus.DefBuckets,
		}),
		AgentTicks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_ticks_total",
			Help:      "Agent scheduling ticks evaluated",
		}),
		AgentActions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_actions_total",
			Help:      "Agent actions taken by kind (claim, trade)",
		}, []string{"kind"}),
		AgentTickErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_tick_errors_total",
			Help:      "Agent ticks that failed and will retry on their next schedule",
		}),
		ActiveAgents: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_agents",
			Help:      "Agents currently scheduled",
		}),
		OrdersSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_submitted_total",
			Help:      "Orders handed off to the external trading engine",
		}),
		CheckpointSweeps: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkpoint_sweeps_total",
			Help:      "Completed checkpoint sweep runs",
		}),
		CheckpointSweepFails: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkpoint_sweep_failures_total",
			Help:      "Accounts that failed to persist during a sweep",
		}),
	}
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
