package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IngestionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingestions_created_total",
		Help: "Total number of ingestions that created a new inventory part",
	})

	IngestionsExistingTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingestions_existing_total",
		Help: "Total number of ingestions resolved to an existing inventory part",
	})

	IngestionsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingestions_failed_total",
		Help: "Total number of failed ingestions",
	}, []string{"reason"})

	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supplier_cache_hits_total",
		Help: "Total number of supplier cache hits",
	}, []string{"supplier"})

	CacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supplier_cache_misses_total",
		Help: "Total number of supplier cache misses or expiries",
	}, []string{"supplier"})

	UpstreamCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supplier_upstream_calls_total",
		Help: "Total number of supplier upstream API calls",
	}, []string{"supplier"})

	UpstreamFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supplier_upstream_failures_total",
		Help: "Total number of failed supplier upstream API calls",
	}, []string{"supplier", "reason"})

	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "supplier_upstream_latency_seconds",
		Help:    "Latency of supplier upstream API calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"supplier"})

	ArtifactWarningsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artifact_warnings_total",
		Help: "Total number of non-fatal artifact attachment warnings",
	}, []string{"kind"})

	InventoryRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inventory_request_latency_seconds",
		Help:    "Latency of inventory store API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
