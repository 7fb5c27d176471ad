// Package observability provides Prometheus collectors and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidtube_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vidtube_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// MediaOperations counts media host calls by operation, resource type and outcome.
	MediaOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidtube_media_operations_total",
		Help: "Total number of media host operations",
	}, []string{"operation", "resource_type", "outcome"})

	// MediaOperationLatency records media host call latency.
	MediaOperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vidtube_media_operation_latency_seconds",
		Help:    "Media host operation latency in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"operation", "resource_type"})

	// CompensationFailures counts saga compensation steps that could not be completed.
	CompensationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidtube_compensation_failures_total",
		Help: "Total number of failed compensation steps by workflow and step",
	}, []string{"workflow", "step"})

	// EventsPublished counts domain events by type and outcome.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidtube_events_published_total",
		Help: "Total number of domain events handed to the broker",
	}, []string{"event_type", "outcome"})

	// CacheLookups counts cache-aside lookups by namespace and result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidtube_cache_lookups_total",
		Help: "Total number of cache lookups",
	}, []string{"namespace", "result"})
)

// ObserveQuery records the latency of a database query.
func ObserveQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		ObserveQuery(operation, table, start)
	}
}

// ObserveMedia records the outcome and latency of one media host call.
func ObserveMedia(operation, resourceType string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	MediaOperations.WithLabelValues(operation, resourceType, outcome).Inc()
	MediaOperationLatency.WithLabelValues(operation, resourceType).Observe(time.Since(start).Seconds())
}
