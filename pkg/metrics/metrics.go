// Package metrics provides Prometheus metrics for the Fern service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PlantsFetched tracks extraction outcomes per plant id attempt
	PlantsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "extract",
			Name:      "plants_total",
			Help:      "Total number of plant fetch attempts by outcome",
		},
		[]string{"outcome"},
	)

	// FetchDuration tracks individual plant fetch duration
	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "extract",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of individual plant API fetches in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// RowsLoaded tracks rows written to the store per table
	RowsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "load",
			Name:      "rows_total",
			Help:      "Total number of rows inserted or updated per table",
		},
		[]string{"table"},
	)

	// RowsSkipped tracks rows filtered out as already present per table
	RowsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "load",
			Name:      "rows_skipped_total",
			Help:      "Total number of incoming rows skipped because their key already exists",
		},
		[]string{"table"},
	)

	// LoadDuration tracks the duration of whole load transactions
	LoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "load",
			Name:      "duration_seconds",
			Help:      "Duration of load transactions in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	// PipelineRunsTotal tracks pipeline runs by status
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		},
		[]string{"status"},
	)

	// AlertsPublished tracks alert events published by emergency type
	AlertsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "alert",
			Name:      "published_total",
			Help:      "Total number of alert events published by emergency type",
		},
		[]string{"emergency_type"},
	)
)
