package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"arbiter-hq/arbiter/pkg/config"
)

// CompileMetrics tracks policy set compile outcomes across reloads.
//
// Metrics:
//   - arbiter_pdp_compiles_total: Compile attempts by policy set and status
//   - arbiter_pdp_policy_set_version: Currently published version per set
type CompileMetrics struct {
	compilesTotal *prometheus.CounterVec
	setVersion    *prometheus.GaugeVec
}

// NewCompileMetrics creates and registers compile metrics with the provided
// registry.
func NewCompileMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CompileMetrics {
	cm := &CompileMetrics{
		compilesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "compiles_total",
				Help:      "Total number of policy set compile attempts",
			},
			[]string{"policy_set", "status"},
		),

		setVersion: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "policy_set_version",
				Help:      "Currently published version of each policy set",
			},
			[]string{"policy_set"},
		),
	}

	registry.MustRegister(cm.compilesTotal, cm.setVersion)
	return cm
}

// RecordCompile records one compile attempt. On success the published
// version gauge is updated; on failure the gauge keeps reporting the version
// still serving.
func (cm *CompileMetrics) RecordCompile(policySet string, version int, err error) {
	if err != nil {
		cm.compilesTotal.WithLabelValues(policySet, "error").Inc()
		return
	}
	cm.compilesTotal.WithLabelValues(policySet, "success").Inc()
	cm.setVersion.WithLabelValues(policySet).Set(float64(version))
}
