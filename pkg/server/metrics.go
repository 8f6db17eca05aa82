package server

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/taskalign/taskalign/pkg/metrics"
)

const httpSubsystem = "http"

var (
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: httpSubsystem,
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   metrics.DurationBuckets(),
		},
		[]string{"code", "method"},
	)
	solveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: httpSubsystem,
			Name:      "schedule_solve_seconds",
			Help:      "Time spent inside the scheduler per /schedule request, cache hits excluded.",
			Buckets:   metrics.DurationBuckets(),
		},
	)
	cacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: httpSubsystem,
			Name:      "schedule_cache_hits_total",
			Help:      "Responses served from the seeded-request cache.",
		},
	)
)

func init() {
	metrics.Registry.MustRegister(requestDuration, solveDuration, cacheHits)
}
