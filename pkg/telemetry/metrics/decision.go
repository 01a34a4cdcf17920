package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"arbiter-hq/arbiter/pkg/config"
)

// DecisionMetrics tracks policy decision throughput and latency.
//
// Metrics:
//   - arbiter_pdp_decisions_total: Decisions by policy set, verdict, and source
//   - arbiter_pdp_decision_duration_seconds: Decision latency by policy set
//   - arbiter_pdp_decision_errors_total: Failed decision requests by error type
type DecisionMetrics struct {
	decisionsTotal   *prometheus.CounterVec
	decisionDuration *prometheus.HistogramVec
	errorsTotal      *prometheus.CounterVec
}

// NewDecisionMetrics creates and registers decision metrics with the provided
// registry.
func NewDecisionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DecisionMetrics {
	dm := &DecisionMetrics{
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "decisions_total",
				Help:      "Total number of policy decisions",
			},
			[]string{"policy_set", "verdict", "source"},
		),

		decisionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "decision_duration_seconds",
				Help:      "Policy decision latency in seconds",
				Buckets:   cfg.DecisionDurationBuckets,
			},
			[]string{"policy_set"},
		),

		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "decision_errors_total",
				Help:      "Total number of decision requests that failed",
			},
			[]string{"policy_set", "error_type"},
		),
	}

	registry.MustRegister(
		dm.decisionsTotal,
		dm.decisionDuration,
		dm.errorsTotal,
	)
	return dm
}

// RecordDecision records a completed decision. The source label is "cache"
// for cache hits and "evaluation" for fresh evaluations.
func (dm *DecisionMetrics) RecordDecision(policySet, verdict string, duration time.Duration, cached bool) {
	source := "evaluation"
	if cached {
		source = "cache"
	}
	dm.decisionsTotal.WithLabelValues(policySet, verdict, source).Inc()
	dm.decisionDuration.WithLabelValues(policySet).Observe(duration.Seconds())
}

// RecordError records a decision request that produced no verdict.
func (dm *DecisionMetrics) RecordError(policySet, errorType string) {
	dm.errorsTotal.WithLabelValues(policySet, errorType).Inc()
}
