package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Transition("folder", "bin", "ok")
	m.Transition("folder", "bin", "ok")
	m.DiskRemoveFailed()
	m.Swept(1, 2, time.Second)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Transitions.WithLabelValues("folder", "bin", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DiskRemoveFailures))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.SweepPurged.WithLabelValues("file")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.SweepDuration))
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Transition("file", "purge", "failed")
		m.DiskRemoveFailed()
		m.Swept(0, 0, 0)
	})
}
