package metrics

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bioinsight/backend/pkg/circuitbreaker"
)

var (
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bioinsight_query_duration_seconds",
			Help:    "Query processing duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 300},
		},
		[]string{"phase"},
	)

	QueryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bioinsight_query_total",
			Help: "Total number of queries processed",
		},
		[]string{"status"},
	)

	ResolutionStage = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bioinsight_resolution_stage_total",
			Help: "Entities resolved per pipeline stage",
		},
		[]string{"entity", "stage"},
	)

	ConfidenceScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bioinsight_confidence_score",
			Help:    "Analysis confidence scores",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	EvidenceRecords = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bioinsight_evidence_records",
			Help:    "Deduplicated evidence records per analysis",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bioinsight_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bioinsight_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bioinsight_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	CorpusRecordsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bioinsight_corpus_records_ingested_total",
			Help: "Corpus records written to SQLite or the vector index",
		},
		[]string{"kind"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bioinsight_circuit_breaker_state",
			Help: "Circuit breaker state per backend (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

// ObserveBreaker is a circuitbreaker.Config.OnStateChange hook.
func ObserveBreaker(name string, _ circuitbreaker.State, to circuitbreaker.State) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(to))
}

var initOnce sync.Once

// Init registers the collectors with the default registry. Later calls are
// no-ops.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(QueryDuration)
		prometheus.MustRegister(QueryTotal)
		prometheus.MustRegister(ResolutionStage)
		prometheus.MustRegister(ConfidenceScore)
		prometheus.MustRegister(EvidenceRecords)
		prometheus.MustRegister(LLMTokensUsed)
		prometheus.MustRegister(CacheHits)
		prometheus.MustRegister(CacheMisses)
		prometheus.MustRegister(CorpusRecordsIngested)
		prometheus.MustRegister(CircuitBreakerState)
	})
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
