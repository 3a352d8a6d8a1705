// Package metrics defines Prometheus instrumentation for the reco engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PoolBuilds counts candidate pool builds.
	PoolBuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reco_pool_builds_total",
		Help: "Number of candidate pool builds.",
	})

	// PoolCacheHits counts candidate pool cache hits.
	PoolCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reco_pool_cache_hits_total",
		Help: "Number of candidate pool cache hits.",
	})

	// PoolCacheMisses counts candidate pool cache misses, including expiries
	// and explicit invalidations.
	PoolCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reco_pool_cache_misses_total",
		Help: "Number of candidate pool cache misses.",
	})

	// KeywordCacheHits counts keyword lookups answered from cache.
	KeywordCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reco_keyword_cache_hits_total",
		Help: "Number of keyword lookups answered from cache.",
	})

	// KeywordCacheMisses counts keyword lookups that went to the catalog.
	KeywordCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reco_keyword_cache_misses_total",
		Help: "Number of keyword lookups that required a catalog fetch.",
	})

	// CatalogFetchFailures counts failed catalog calls by endpoint.
	CatalogFetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reco_catalog_fetch_failures_total",
		Help: "Number of failed catalog fetches by endpoint.",
	}, []string{"endpoint"})

	// Recommendations counts recommendation requests by mood.
	Recommendations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reco_recommendations_total",
		Help: "Number of recommendation requests by mood.",
	}, []string{"mood"})
)
