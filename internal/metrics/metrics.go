// Package metrics holds the Prometheus metrics of the lifecycle core.
//
// A nil *Metrics is valid everywhere and records nothing, so components can run without metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the lifecycle counters and the sweep histogram.
type Metrics struct {
	Transitions        *prometheus.CounterVec // docbin_lifecycle_transitions_total{kind,action,outcome}
	DiskRemoveFailures prometheus.Counter     // docbin_disk_remove_failures_total
	SweepPurged        *prometheus.CounterVec // docbin_sweep_purged_total{kind}
	SweepDuration      prometheus.Histogram   // docbin_sweep_duration_seconds
}

// New registers the metrics on reg. Use a fresh registry per instance; registering twice panics.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docbin_lifecycle_transitions_total",
			Help: "Lifecycle transitions applied to folders and files, by outcome.",
		}, []string{"kind", "action", "outcome"}),
		DiskRemoveFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "docbin_disk_remove_failures_total",
			Help: "Disk removals that failed during purge and were left for out-of-band scavenging.",
		}),
		SweepPurged: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docbin_sweep_purged_total",
			Help: "Entities purged by the retention sweeper.",
		}, []string{"kind"}),
		SweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "docbin_sweep_duration_seconds",
			Help:    "Duration of retention sweeps.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Transition records one entity transition. outcome is "ok", "unchanged" or "failed".
func (m *Metrics) Transition(kind, action, outcome string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(kind, action, outcome).Inc()
}

// DiskRemoveFailed records a non-fatal disk removal failure.
func (m *Metrics) DiskRemoveFailed() {
	if m == nil {
		return
	}
	m.DiskRemoveFailures.Inc()
}

// Swept records the result of one sweep.
func (m *Metrics) Swept(folders, files int, took time.Duration) {
	if m == nil {
		return
	}
	m.SweepPurged.WithLabelValues("folder").Add(float64(folders))
	m.SweepPurged.WithLabelValues("file").Add(float64(files))
	m.SweepDuration.Observe(took.Seconds())
}
