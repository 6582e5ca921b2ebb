package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Engine, push and cache Prometheus metrics.
var (
	EngineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mscatalog",
			Name:      "engine_requests_total",
			Help:      "Total number of search engine requests",
		},
		[]string{"op", "status"},
	)

	EngineRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mscatalog",
			Name:      "engine_request_duration_seconds",
			Help:      "Search engine request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"op"},
	)

	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "mscatalog",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	PushBatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mscatalog",
			Name:      "push_batches_total",
			Help:      "Total number of push commits",
		},
		[]string{"status"}, // "ok" / "error"
	)

	PushBatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mscatalog",
			Name:      "push_batch_duration_seconds",
			Help:      "Push commit duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	PushDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mscatalog",
			Name:      "push_documents_total",
			Help:      "Documents seen by the pusher by outcome",
		},
		[]string{"outcome"}, // "committed" or a skip reason
	)

	QueryCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mscatalog",
			Name:      "query_cache_total",
			Help:      "Query cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss" / "error"
	)
)

var registerOnce sync.Once

// RegisterCatalogMetrics registers the engine, push and cache metrics with the default
// registry. Safe to call more than once.
func RegisterCatalogMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			EngineRequestsTotal,
			EngineRequestDuration,
			BreakerState,
			PushBatchesTotal,
			PushBatchDuration,
			PushDocumentsTotal,
			QueryCacheTotal,
		)
	})
}
