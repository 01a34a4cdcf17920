package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"arbiter-hq/arbiter/pkg/config"
)

// CacheMetrics tracks decision cache performance.
//
// Metrics:
//   - arbiter_pdp_cache_hits_total: Total decision cache hits
//   - arbiter_pdp_cache_misses_total: Total decision cache misses
//   - arbiter_pdp_cache_entries: Current number of cached decisions
//
// Hit rate is a PromQL concern:
//
//	rate(arbiter_pdp_cache_hits_total[5m]) /
//	(rate(arbiter_pdp_cache_hits_total[5m]) + rate(arbiter_pdp_cache_misses_total[5m]))
type CacheMetrics struct {
	hitsTotal   prometheus.Counter
	missesTotal prometheus.Counter
	entries     prometheus.Gauge
}

// NewCacheMetrics creates and registers cache metrics with the provided
// registry.
func NewCacheMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CacheMetrics {
	cm := &CacheMetrics{
		hitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "cache_hits_total",
			Help:      "Total number of decision cache hits",
		}),

		missesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "cache_misses_total",
			Help:      "Total number of decision cache misses",
		}),

		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "cache_entries",
			Help:      "Current number of cached decisions",
		}),
	}

	registry.MustRegister(cm.hitsTotal, cm.missesTotal, cm.entries)
	return cm
}

// RecordHit records a cache hit.
func (cm *CacheMetrics) RecordHit() {
	cm.hitsTotal.Inc()
}

// RecordMiss records a cache miss.
func (cm *CacheMetrics) RecordMiss() {
	cm.missesTotal.Inc()
}

// UpdateSize updates the current cache entry count.
func (cm *CacheMetrics) UpdateSize(size int) {
	cm.entries.Set(float64(size))
}
