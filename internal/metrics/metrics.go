// Package metrics defines Prometheus metrics for the annotator.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "talon_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talon_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talon_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	ReadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talon_reads_total",
			Help: "Annotated reads by splice match status",
		},
		[]string{"status"},
	)

	ReadsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "talon_reads_skipped_total",
			Help: "Reads rejected before annotation",
		},
	)

	VerticesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "talon_vertices_created_total",
			Help: "Vertices minted by vertex searches",
		},
	)

	CheckpointQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "talon_checkpoint_queue_depth",
			Help: "Checkpoints waiting to be persisted",
		},
	)

	CheckpointDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "talon_checkpoint_duration_seconds",
			Help:    "Time to persist one checkpoint",
			Buckets: prometheus.DefBuckets,
		},
	)

	CatalogSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "talon_catalog_entities",
			Help: "Catalog entity count by kind",
		},
		[]string{"kind"},
	)

	InFlightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "talon_http_inflight_requests",
			Help: "Annotation requests admitted and not yet answered",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		ReadsTotal, ReadsSkipped, VerticesCreated,
		CheckpointQueueDepth, CheckpointDuration,
		CatalogSize, InFlightRequests,
	)
}
