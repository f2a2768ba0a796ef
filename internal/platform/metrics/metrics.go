package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the issuer.
type Metrics struct {
	// Application pipeline
	Applications       *prometheus.CounterVec
	ApplicationLatency *prometheus.HistogramVec

	// DID resolution
	Resolutions *prometheus.CounterVec
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// DWN reconciliation
	ReconcileRuns    *prometheus.CounterVec
	ManifestsCreated prometheus.Counter
	DWNRequests      *prometheus.CounterVec
}

// New creates all metrics and registers them with reg.
// Tests pass prometheus.NewRegistry() to stay isolated from the default registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Applications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dcx_applications_total",
			Help: "Credential applications processed, labeled by credential type and outcome",
		}, []string{"credential_type", "outcome"}),
		ApplicationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dcx_application_latency_seconds",
			Help:    "End-to-end application pipeline latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"credential_type"}),
		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dcx_did_resolutions_total",
			Help: "DID resolutions, labeled by DID method and outcome",
		}, []string{"method", "outcome"}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "dcx_did_cache_hits_total",
			Help: "DID documents served from cache",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "dcx_did_cache_misses_total",
			Help: "DID documents not found in cache",
		}),
		ReconcileRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dcx_reconcile_runs_total",
			Help: "DWN reconciliation attempts, labeled by outcome",
		}, []string{"outcome"}),
		ManifestsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "dcx_manifests_created_total",
			Help: "Manifest records written to the DWN",
		}),
		DWNRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dcx_dwn_requests_total",
			Help: "DWN messages sent, labeled by operation and outcome",
		}, []string{"operation", "outcome"}),
	}
}

// ObserveApplication records one pipeline outcome. outcome is a domain error code or "issued".
func (m *Metrics) ObserveApplication(credentialType, outcome string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.Applications.WithLabelValues(credentialType, outcome).Inc()
	m.ApplicationLatency.WithLabelValues(credentialType).Observe(durationSeconds)
}

func (m *Metrics) ObserveResolution(method, outcome string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(method, outcome).Inc()
}

func (m *Metrics) IncrementCacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

func (m *Metrics) IncrementCacheMiss() {
	if m == nil {
		return
	}
	m.CacheMisses.Inc()
}

func (m *Metrics) ObserveReconcile(outcome string) {
	if m == nil {
		return
	}
	m.ReconcileRuns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementManifestsCreated() {
	if m == nil {
		return
	}
	m.ManifestsCreated.Inc()
}

func (m *Metrics) ObserveDWNRequest(operation, outcome string) {
	if m == nil {
		return
	}
	m.DWNRequests.WithLabelValues(operation, outcome).Inc()
}
