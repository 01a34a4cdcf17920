// Package metrics exposes Prometheus metrics for the decision point:
// decision counts and latency, policy compile outcomes, and decision cache
// performance.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"arbiter-hq/arbiter/pkg/config"
)

// Collector owns the Prometheus registry and all metric subsystems, and is
// the single interface components record metrics through. A disabled
// collector turns every record call into a no-op.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	decisionMetrics *DecisionMetrics
	compileMetrics  *CompileMetrics
	cacheMetrics    *CacheMetrics
}

// NewCollector creates a metrics collector. If registry is nil a fresh
// registry is used.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.DecisionDurationBuckets) == 0 {
		cfg.DecisionDurationBuckets = []float64{
			0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1,
		}
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}
	c.decisionMetrics = NewDecisionMetrics(cfg, registry)
	c.compileMetrics = NewCompileMetrics(cfg, registry)
	c.cacheMetrics = NewCacheMetrics(cfg, registry)
	return c
}

// RecordDecision records a completed policy decision.
func (c *Collector) RecordDecision(policySet, verdict string, duration time.Duration, cached bool) {
	if !c.config.Enabled {
		return
	}
	c.decisionMetrics.RecordDecision(policySet, verdict, duration, cached)
}

// RecordDecisionError records a decision request that failed before a
// verdict could be produced.
func (c *Collector) RecordDecisionError(policySet, errorType string) {
	if !c.config.Enabled {
		return
	}
	c.decisionMetrics.RecordError(policySet, errorType)
}

// RecordCompile records a policy set compile attempt.
func (c *Collector) RecordCompile(policySet string, version int, err error) {
	if !c.config.Enabled {
		return
	}
	c.compileMetrics.RecordCompile(policySet, version, err)
}

// RecordCacheHit records a decision cache hit.
func (c *Collector) RecordCacheHit() {
	if !c.config.Enabled {
		return
	}
	c.cacheMetrics.RecordHit()
}

// RecordCacheMiss records a decision cache miss.
func (c *Collector) RecordCacheMiss() {
	if !c.config.Enabled {
		return
	}
	c.cacheMetrics.RecordMiss()
}

// UpdateCacheSize updates the current decision cache entry count.
func (c *Collector) UpdateCacheSize(size int) {
	if !c.config.Enabled {
		return
	}
	c.cacheMetrics.UpdateSize(size)
}

// Registry returns the Prometheus registry backing this collector, for
// mounting the /metrics endpoint:
//
//	http.Handle("/metrics", promhttp.HandlerFor(
//		collector.Registry(),
//		promhttp.HandlerOpts{},
//	))
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
