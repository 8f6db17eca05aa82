package scheduling

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/taskalign/taskalign/pkg/metrics"
)

const (
	schedulerSubsystem = "scheduler"

	outcomeLabel = "outcome"

	OutcomeCompleted = "completed"
	OutcomePartial   = "partial"
	OutcomeError     = "error"
)

var (
	DurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: schedulerSubsystem,
			Name:      "solve_duration_seconds",
			Help:      "Duration of full genetic solver runs in seconds.",
			Buckets:   metrics.DurationBuckets(),
		},
		[]string{outcomeLabel},
	)
	GenerationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: schedulerSubsystem,
			Name:      "generations_total",
			Help:      "Completed GA generations across all solves.",
		},
	)
	UnmetPieces = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: schedulerSubsystem,
			Name:      "unmet_pieces",
			Help:      "Total residual pieces per returned schedule.",
			Buckets:   []float64{0, 1, 10, 100, 1000, 10000, 100000},
		},
	)
)

func init() {
	metrics.Registry.MustRegister(DurationSeconds, GenerationsTotal, UnmetPieces)
}
