package ringo

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/ringo/metrics"
)

// Ring is the binding produced by New: one wrapped computation plus its
// cache policy. All configuration is fixed at construction.
//
// Single-item flow per call: derive key -> storage verb -> decode/encode,
// optionally invoking the wrapped computation on miss. Each method is
// terminal in one pass; no verb ever retries.
type Ring[A, V any] struct {
	fn     Func[A, V]
	keys   keyBuilder[A]
	st     store[V]
	miss   V
	flavor Flavor
	log    Logger
	stats  metrics.Collector
	sf     *singleflight.Group // nil unless Options.SingleFlight
}

// Key exposes the derived cache key for an argument set. Deterministic:
// equal arguments always map to the same key.
func (r *Ring[A, V]) Key(args A) (string, error) {
	return r.keys.key(args)
}

// Get returns the cached value, or the configured miss value when the key
// is absent. It never invokes the wrapped computation.
func (r *Ring[A, V]) Get(ctx context.Context, args A) (V, error) {
	var zero V
	key, err := r.keys.key(args)
	if err != nil {
		return zero, err
	}
	v, err := r.st.get(ctx, key)
	switch {
	case err == nil:
		r.stats.IncCounter(metrics.MetricHits, 1)
		return v, nil
	case notFound(err):
		r.stats.IncCounter(metrics.MetricMisses, 1)
		return r.miss, nil
	default:
		r.stats.IncCounter(metrics.MetricStorageErrs, 1)
		return zero, err
	}
}

// Update always recomputes: it invokes the wrapped computation, stores the
// encoded result and returns it. Use for explicit refresh.
func (r *Ring[A, V]) Update(ctx context.Context, args A) (V, error) {
	var zero V
	key, err := r.keys.key(args)
	if err != nil {
		return zero, err
	}
	return r.computeAndStore(ctx, key, args)
}

// GetOrUpdate returns the cached value on hit; on miss it invokes the
// wrapped computation exactly once, stores the result and returns it.
//
// Not single-flight by default: two callers racing on the same absent key
// may both compute and both write, and the last writer's value persists in
// the backend. Set Options.SingleFlight to collapse concurrent misses.
func (r *Ring[A, V]) GetOrUpdate(ctx context.Context, args A) (V, error) {
	var zero V
	key, err := r.keys.key(args)
	if err != nil {
		return zero, err
	}
	v, err := r.st.get(ctx, key)
	if err == nil {
		r.stats.IncCounter(metrics.MetricHits, 1)
		return v, nil
	}
	if !notFound(err) {
		r.stats.IncCounter(metrics.MetricStorageErrs, 1)
		return zero, err
	}
	r.stats.IncCounter(metrics.MetricMisses, 1)
	r.log.Debug("miss; computing", Fields{"key": key})

	if r.sf != nil {
		got, err, _ := r.sf.Do(key, func() (any, error) {
			return r.computeAndStore(ctx, key, args)
		})
		if err != nil {
			return zero, err
		}
		return got.(V), nil
	}
	return r.computeAndStore(ctx, key, args)
}

// Set stores a caller-provided value under the arguments' key without
// invoking the computation.
func (r *Ring[A, V]) Set(ctx context.Context, args A, value V) error {
	key, err := r.keys.key(args)
	if err != nil {
		return err
	}
	return r.st.set(ctx, key, value)
}

// Delete removes the entry for the arguments' key.
func (r *Ring[A, V]) Delete(ctx context.Context, args A) error {
	key, err := r.keys.key(args)
	if err != nil {
		return err
	}
	return r.st.delete(ctx, key)
}

// Has reports whether an entry exists for the arguments' key.
func (r *Ring[A, V]) Has(ctx context.Context, args A) (bool, error) {
	key, err := r.keys.key(args)
	if err != nil {
		return false, err
	}
	return r.st.has(ctx, key)
}

// Touch resets the entry's expiration to the binding default.
func (r *Ring[A, V]) Touch(ctx context.Context, args A) error {
	key, err := r.keys.key(args)
	if err != nil {
		return err
	}
	return r.st.touch(ctx, key)
}

// Close releases the underlying adapter.
func (r *Ring[A, V]) Close(ctx context.Context) error {
	return r.st.adapter.Close(ctx)
}

// compute invokes the wrapped computation once and records it.
func (r *Ring[A, V]) compute(ctx context.Context, args A) (V, error) {
	start := time.Now()
	v, err := r.fn(ctx, args)
	r.stats.IncCounter(metrics.MetricComputations, 1)
	r.stats.ObserveHistogram(metrics.MetricComputeSeconds, time.Since(start).Seconds())
	return v, err
}

// computeAndStore writes only after the computation fully completes, so an
// abandoned call leaves the entry either written or untouched, never
// partial.
func (r *Ring[A, V]) computeAndStore(ctx context.Context, key string, args A) (V, error) {
	var zero V
	v, err := r.compute(ctx, args)
	if err != nil {
		return zero, err
	}
	if err := r.st.set(ctx, key, v); err != nil {
		return zero, err
	}
	return v, nil
}
