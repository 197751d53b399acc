// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prediction sources.
const (
	SourceHTTP   = "http"
	SourceWorker = "worker"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	ChurnPredictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "churn_predictions_total",
			Help: "Churn predictions produced, by risk tier",
		},
		[]string{"risk_level", "source"},
	)

	ChurnAlignmentFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "churn_input_alignment_failures_total",
			Help: "Client records rejected for missing model columns",
		},
		[]string{"source"},
	)

	ChurnPredictionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "churn_prediction_duration_seconds",
			Help:    "Time spent scoring and explaining one record",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		},
		[]string{"source"},
	)
)
