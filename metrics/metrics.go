package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bookfinder"

var (
	// Search pipeline
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total number of search requests by outcome",
		},
		[]string{"outcome"}, // "ok", "empty", "partial", "error", "invalid"
	)

	SearchStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_stage_duration_seconds",
			Help:      "Duration of each search pipeline stage in seconds",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"stage"}, // "lexical", "semantic", "fusion", "filter", "rerank", "total"
	)

	GeneratorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generator_failures_total",
			Help:      "Candidate generator failures by generator and kind",
		},
		[]string{"generator", "kind"}, // kind: "encoding", "index", "other"
	)

	CandidateCount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "candidates",
			Help:      "Number of candidates at each pipeline checkpoint",
			Buckets:   []float64{0, 1, 5, 10, 20, 40, 80, 160},
		},
		[]string{"checkpoint"}, // "lexical", "semantic", "fused", "filtered", "ranked"
	)

	FilterRollbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_rollbacks_total",
			Help:      "Filter stages skipped because they would have emptied the candidate set",
		},
		[]string{"stage"},
	)

	// Recommendations
	RecommendRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommend_requests_total",
			Help:      "Total number of recommendation requests",
		},
	)

	RecommendSeedsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommend_seeds_skipped_total",
			Help:      "Seeds dropped from recommendation requests by reason",
		},
		[]string{"reason"}, // "invalid", "no_vector", "lookup_error"
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_duration_seconds",
			Help:      "Recommendation request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// Result cache
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_cache_hits_total",
			Help:      "Total number of search result cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_cache_misses_total",
			Help:      "Total number of search result cache misses",
		},
	)

	// HTTP boundary
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	// Catalog loading
	CatalogItemsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_items_total",
			Help:      "Catalog records processed by the loader by result",
		},
		[]string{"result"}, // "loaded", "skipped", "failed"
	)
)

// RecordStage records the duration of one search pipeline stage.
func RecordStage(stage string, duration time.Duration) {
	SearchStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordCandidates records the candidate count at a pipeline checkpoint.
func RecordCandidates(checkpoint string, n int) {
	CandidateCount.WithLabelValues(checkpoint).Observe(float64(n))
}

// RecordGeneratorFailure counts a failed candidate generator.
func RecordGeneratorFailure(generator, kind string) {
	GeneratorFailures.WithLabelValues(generator, kind).Inc()
}

// RecordFilterRollback counts a filter stage that was skipped.
func RecordFilterRollback(stage string) {
	FilterRollbacks.WithLabelValues(stage).Inc()
}

// RecordSearch counts a finished search request.
func RecordSearch(outcome string, duration time.Duration) {
	SearchRequests.WithLabelValues(outcome).Inc()
	RecordStage("total", duration)
}

// RecordRecommend records a finished recommendation request.
func RecordRecommend(duration time.Duration) {
	RecommendRequests.Inc()
	RecommendDuration.Observe(duration.Seconds())
}

// RecordSeedSkipped counts a seed that contributed no neighbors.
func RecordSeedSkipped(reason string) {
	RecommendSeedsSkipped.WithLabelValues(reason).Inc()
}

// RecordCacheLookup counts a result cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		CacheHits.Inc()
	} else {
		CacheMisses.Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordCatalogItems counts catalog records processed by the loader.
func RecordCatalogItems(result string, n int) {
	if n > 0 {
		CatalogItemsLoaded.WithLabelValues(result).Add(float64(n))
	}
}
