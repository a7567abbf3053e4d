package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Upstream provider and discovery pipeline metrics.
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nearby",
			Name:      "provider_requests_total",
			Help:      "Total number of upstream provider requests",
		},
		[]string{"provider", "operation", "status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nearby",
			Name:      "provider_request_duration_seconds",
			Help:      "Upstream provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"provider", "operation"},
	)

	ProviderErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nearby",
			Name:      "provider_errors_total",
			Help:      "Total upstream provider errors by class",
		},
		[]string{"provider", "operation", "error_type"},
	)

	CandidatesDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nearby",
			Name:      "candidates_dropped_total",
			Help:      "Provider records dropped for lacking coordinates",
		},
		[]string{"provider"},
	)

	DiscoveryRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nearby",
			Name:      "discovery_runs_total",
			Help:      "Finished discovery pipeline runs by final state",
		},
		[]string{"state", "error_type"},
	)

	DiscoveryResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "nearby",
			Name:      "discovery_results",
			Help:      "Number of records returned per successful run",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)
)

var providerOnce sync.Once

// RegisterProviderMetrics registers provider and pipeline metrics. Safe to call more than once.
func RegisterProviderMetrics() {
	providerOnce.Do(func() {
		prometheus.MustRegister(
			ProviderRequestsTotal,
			ProviderRequestDuration,
			ProviderErrorsTotal,
			CandidatesDroppedTotal,
			DiscoveryRunsTotal,
			DiscoveryResults,
		)
	})
}
