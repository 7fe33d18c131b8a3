package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the sync engine
type Metrics struct {
	PagesSyncedTotal   prometheus.CounterVec
	PagesSkippedTotal  prometheus.CounterVec
	PagesFailedTotal   prometheus.CounterVec
	RunsTotal          prometheus.CounterVec
	RunDurationSeconds prometheus.Histogram
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			PagesSyncedTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "analytics_sync_pages_synced_total",
					Help: "Pages whose snapshot was written this run",
				},
				[]string{"platform"},
			),
			PagesSkippedTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "analytics_sync_pages_skipped_total",
					Help: "Pages skipped, by reason (exists, unregistered_platform)",
				},
				[]string{"platform", "reason"},
			),
			PagesFailedTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "analytics_sync_pages_failed_total",
					Help: "Pages that failed, by error kind",
				},
				[]string{"platform", "kind"},
			),
			RunsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "analytics_sync_runs_total",
					Help: "Sync runs, by outcome",
				},
				[]string{"outcome"},
			),
			RunDurationSeconds: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "analytics_sync_run_duration_seconds",
					Help:    "Wall-clock duration of a full sync run",
					Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
				},
			),
		}
	})
	return instance
}

// Get returns the metrics singleton, initializing it on first use
func Get() *Metrics {
	return Initialize()
}
