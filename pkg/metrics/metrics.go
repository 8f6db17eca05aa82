package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// Namespace prefixes every metric emitted by this repository.
	Namespace = "taskalign"
)

// Registry is the process-wide registry that pkg/scheduling and pkg/server
// register their collectors into. The server exposes it on /metrics.
var Registry = prometheus.NewRegistry()

// DurationBuckets returns a single centralized set of histogram buckets for
// measuring durations, from milliseconds up to multi-minute solves.
func DurationBuckets() []float64 {
	return []float64{
		0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5,
		1, 2.5, 5, 10, 20, 30, 60, 120, 300,
	}
}

// Measure returns a deferrable function that observes the elapsed time since
// the call on the given observer:
//
//	defer metrics.Measure(DurationSeconds.WithLabelValues(...))()
func Measure(observer prometheus.Observer) func() {
	start := time.Now()
	return func() {
		observer.Observe(time.Since(start).Seconds())
	}
}
