// Package metrics defines the Prometheus collectors for homography and batch
// processing and exports them to a node-exporter textfile.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/MeKo-Tech/quadcut/internal/linalg"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Status labels.
const (
	StatusOK           = "ok"
	StatusInvalidInput = "invalid_input"
	StatusSingular     = "singular"
	StatusError        = "error"
	StatusCanceled     = "canceled"
)

var (
	// Homography metrics
	homographyComputationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quadcut_homography_computations_total",
			Help: "Total number of homography computations",
		},
		[]string{"status"}, // status: ok, invalid_input, singular, error
	)

	solverDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quadcut_solver_duration_seconds",
			Help:    "Time spent building and solving one homography system",
			Buckets: prometheus.ExponentialBuckets(1e-7, 4, 10),
		},
	)

	// Batch metrics
	batchJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quadcut_batch_jobs_total",
			Help: "Total number of batch jobs processed",
		},
		[]string{"status"},
	)

	batchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quadcut_batch_duration_seconds",
			Help:    "Wall-clock duration of a batch run",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// StatusFor maps a computation error onto a status label.
func StatusFor(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, linalg.ErrSingularSystem):
		return StatusSingular
	case errors.Is(err, linalg.ErrInvalidInput):
		return StatusInvalidInput
	default:
		return StatusError
	}
}

// ObserveHomography records one homography computation.
func ObserveHomography(d time.Duration, err error) {
	homographyComputationsTotal.WithLabelValues(StatusFor(err)).Inc()
	solverDuration.Observe(d.Seconds())
}

// ObserveBatchJob records the outcome of one batch job.
func ObserveBatchJob(status string) {
	batchJobsTotal.WithLabelValues(status).Inc()
}

// ObserveBatch records the duration of a whole batch run.
func ObserveBatch(d time.Duration) {
	batchDuration.Observe(d.Seconds())
}

// WriteTextfile writes every registered metric to path in the Prometheus
// text exposition format. The file is written atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
