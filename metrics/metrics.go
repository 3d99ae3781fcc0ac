// Package metrics provides a unified interface for collecting engine
// metrics. The engine calls the collector on hot paths; implementations
// must be cheap and non-blocking.
package metrics

// Metric names emitted by the engine.
const (
	MetricHits         = "ringo_hits_total"
	MetricMisses       = "ringo_misses_total"
	MetricComputations = "ringo_computations_total"
	MetricStorageErrs  = "ringo_storage_errors_total"

	MetricComputeSeconds = "ringo_compute_duration_seconds"
)

// Collector receives engine metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
