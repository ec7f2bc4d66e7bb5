package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Query kinds used as metric label values.
const (
	QueryKindStatistics  = "statistics"
	QueryKindCorrelation = "correlation"
)

var (
	// DatasetsLoaded counts datasets parsed from scratch (cache misses
	// included, cache hits not).
	DatasetsLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wellwq",
		Name:      "datasets_loaded_total",
		Help:      "Number of datasets parsed and registered.",
	})

	// DatasetCacheHits counts uploads answered from the fingerprint cache.
	DatasetCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wellwq",
		Name:      "dataset_cache_hits_total",
		Help:      "Number of uploads served from the content-fingerprint cache.",
	})

	// QueriesTotal counts analytical queries by kind and outcome.
	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellwq",
		Name:      "queries_total",
		Help:      "Number of analytical queries by kind and status.",
	}, []string{"kind", "status"})

	// QueryDuration observes query latency by kind.
	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wellwq",
		Name:      "query_duration_seconds",
		Help:      "Latency of analytical queries.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})
)
