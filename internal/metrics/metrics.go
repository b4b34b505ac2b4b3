// Package metrics defines the Prometheus instruments for tasksearch.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Embedding provider metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tasksearch",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tasksearch",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tasksearch",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)
)

// Search metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tasksearch",
			Name:      "search_requests_total",
			Help:      "Total hybrid search requests by outcome",
		},
		[]string{"outcome"}, // ranked, fallback, empty, error
	)

	SearchCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tasksearch",
			Name:      "search_candidates",
			Help:      "Number of candidates entering score fusion",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)
)

// Indexer metrics.
var (
	IndexOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tasksearch",
			Name:      "index_operations_total",
			Help:      "Total embedding index operations by result",
		},
		[]string{"op", "result"}, // op: index, remove; result: ok, error
	)

	IndexQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tasksearch",
			Name:      "index_queue_depth",
			Help:      "Tasks currently waiting for (re)indexing",
		},
	)
)

var registered bool

// Register registers all tasksearch metrics. Must be called once from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(
		EmbeddingRequestsTotal,
		EmbeddingRequestDuration,
		EmbeddingTokensTotal,
		SearchRequestsTotal,
		SearchCandidates,
		IndexOperationsTotal,
		IndexQueueDepth,
	)
	registered = true
}
