// Package metrics exposes Prometheus instrumentation for the analysis
// worker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all the Prometheus metrics for the analysis worker.
type Metrics struct {
	JobsProcessedTotal      prometheus.Counter
	JobsFailedTotal         prometheus.Counter
	FindingsEmittedTotal    prometheus.Counter
	ValidationsTotal        prometheus.Counter
	ValidationFailuresTotal prometheus.Counter
	ScanCacheHitsTotal      prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all counters registered.
func NewMetrics() *Metrics {
	return &Metrics{
		JobsProcessedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "skilllens_jobs_processed_total",
			Help: "Total number of analyze jobs completed successfully",
		}),
		JobsFailedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "skilllens_jobs_failed_total",
			Help: "Total number of analyze jobs that failed",
		}),
		FindingsEmittedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "skilllens_findings_emitted_total",
			Help: "Total number of deterministic findings emitted",
		}),
		ValidationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "skilllens_validations_total",
			Help: "Total number of external validation calls attempted",
		}),
		ValidationFailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "skilllens_validation_failures_total",
			Help: "Total number of external validation calls that failed",
		}),
		ScanCacheHitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "skilllens_scan_cache_hits_total",
			Help: "Total number of scans served from the content-hash cache",
		}),
	}
}
