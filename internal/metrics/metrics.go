package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Batch metrics
	BatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hsdest_batches_total",
			Help: "Total number of batches transformed",
		},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hsdest_batch_duration_seconds",
			Help:    "Duration of batch transformation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hsdest_items_total",
			Help: "Total number of batch items by outcome",
		},
		[]string{"outcome"},
	)

	TransformErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hsdest_transform_errors_total",
			Help: "Total number of dropped batch items by error kind",
		},
		[]string{"kind"},
	)

	// Schema metrics
	SchemaCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hsdest_schema_cache_lookups_total",
			Help: "Total number of property schema cache lookups",
		},
		[]string{"result"},
	)

	SchemaFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hsdest_schema_fetch_total",
			Help: "Total number of property schema fetches by HTTP status",
		},
		[]string{"code"},
	)

	SchemaFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hsdest_schema_fetch_duration_seconds",
			Help:    "Duration of property schema fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
