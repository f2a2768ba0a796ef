package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveApplication("EXAMPLE-CREDENTIAL", "issued", 0.02)
	m.ObserveApplication("EXAMPLE-CREDENTIAL", "invalid_signature", 0.01)
	m.ObserveApplication("EXAMPLE-CREDENTIAL", "issued", 0.03)
	m.IncrementCacheHit()
	m.ObserveReconcile("success")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Applications.WithLabelValues("EXAMPLE-CREDENTIAL", "issued")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Applications.WithLabelValues("EXAMPLE-CREDENTIAL", "invalid_signature")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReconcileRuns.WithLabelValues("success")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveApplication("A", "issued", 1)
		m.ObserveResolution("key", "ok")
		m.IncrementCacheHit()
		m.IncrementCacheMiss()
		m.ObserveReconcile("failure")
		m.IncrementManifestsCreated()
		m.ObserveDWNRequest("records.create", "ok")
	})
}
