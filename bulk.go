package ringo

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/unkn0wn-root/ringo/metrics"
	"github.com/unkn0wn-root/ringo/storage"
)

// Bulk verbs operate on an ordered list of independent argument sets for
// the same wrapped computation. Returned slices always align with
// argsList: entry i belongs to argsList[i] regardless of how storage or
// the computations completed.
//
// Every bulk verb requires a storage.BulkAdapter; a single-item backend
// fails with storage.ErrNotImplemented immediately, never by iterating
// client-side.

// GetMany returns cached values aligned to argsList, with misses replaced
// by the configured miss value. One bulk read, zero computations.
func (r *Ring[A, V]) GetMany(ctx context.Context, argsList []A) ([]V, error) {
	keys, err := r.keys.keyMany(argsList)
	if err != nil {
		return nil, err
	}
	values, found, err := r.st.getMany(ctx, keys)
	if err != nil {
		return nil, err
	}
	var hits int64
	for i := range values {
		if found[i] {
			hits++
			continue
		}
		values[i] = r.miss
	}
	r.stats.IncCounter(metrics.MetricHits, hits)
	r.stats.IncCounter(metrics.MetricMisses, int64(len(values))-hits)
	return values, nil
}

// UpdateMany recomputes every entry and stores the batch with one bulk
// write. Results are in input order.
func (r *Ring[A, V]) UpdateMany(ctx context.Context, argsList []A) ([]V, error) {
	if r.st.bulk == nil {
		return nil, storage.ErrNotImplemented
	}
	keys, err := r.keys.keyMany(argsList)
	if err != nil {
		return nil, err
	}
	indices := make([]int, len(argsList))
	for i := range indices {
		indices[i] = i
	}
	values, err := r.computeMany(ctx, argsList, indices)
	if err != nil {
		return nil, err
	}
	if err := r.st.setMany(ctx, keys, values); err != nil {
		return nil, err
	}
	return values, nil
}

// GetOrUpdateMany reconciles partial hits: one bulk read, one computation
// per missing entry, and at most one bulk write for exactly the newly
// computed pairs. Hit values and fresh values land at their original
// indices; the result has the same length and order as argsList.
func (r *Ring[A, V]) GetOrUpdateMany(ctx context.Context, argsList []A) ([]V, error) {
	keys, err := r.keys.keyMany(argsList)
	if err != nil {
		return nil, err
	}
	values, found, err := r.st.getMany(ctx, keys)
	if err != nil {
		return nil, err
	}

	var missing []int
	for i := range found {
		if !found[i] {
			missing = append(missing, i)
		}
	}
	r.stats.IncCounter(metrics.MetricHits, int64(len(values)-len(missing)))
	r.stats.IncCounter(metrics.MetricMisses, int64(len(missing)))
	if len(missing) == 0 {
		return values, nil
	}
	r.log.Debug("bulk reconcile", Fields{
		"requested": len(argsList),
		"misses":    len(missing),
	})

	fresh, err := r.computeMany(ctx, argsList, missing)
	if err != nil {
		return nil, err
	}
	freshKeys := make([]string, len(missing))
	for j, i := range missing {
		freshKeys[j] = keys[i]
	}
	if err := r.st.setMany(ctx, freshKeys, fresh); err != nil {
		return nil, err
	}
	for j, i := range missing {
		values[i] = fresh[j]
	}
	return values, nil
}

// SetMany stores caller-provided values, keys derived in bulk, aligned to
// input order.
func (r *Ring[A, V]) SetMany(ctx context.Context, argsList []A, values []V) error {
	if len(argsList) != len(values) {
		return fmt.Errorf("ringo: SetMany: %d argument sets for %d values", len(argsList), len(values))
	}
	keys, err := r.keys.keyMany(argsList)
	if err != nil {
		return err
	}
	return r.st.setMany(ctx, keys, values)
}

// DeleteMany removes every entry in one bulk call.
func (r *Ring[A, V]) DeleteMany(ctx context.Context, argsList []A) error {
	keys, err := r.keys.keyMany(argsList)
	if err != nil {
		return err
	}
	return r.st.deleteMany(ctx, keys)
}

// HasMany reports existence per entry, aligned to input order.
func (r *Ring[A, V]) HasMany(ctx context.Context, argsList []A) ([]bool, error) {
	keys, err := r.keys.keyMany(argsList)
	if err != nil {
		return nil, err
	}
	return r.st.hasMany(ctx, keys)
}

// TouchMany resets every entry's expiration to the binding default.
func (r *Ring[A, V]) TouchMany(ctx context.Context, argsList []A) error {
	keys, err := r.keys.keyMany(argsList)
	if err != nil {
		return err
	}
	return r.st.touchMany(ctx, keys)
}

// computeMany invokes the computation for argsList[i] for each i in
// indices and returns results aligned to indices. A suspending binding
// dispatches concurrently; completion order never affects placement. A
// blocking binding runs sequentially in index order.
func (r *Ring[A, V]) computeMany(ctx context.Context, argsList []A, indices []int) ([]V, error) {
	out := make([]V, len(indices))
	if r.flavor == Suspending {
		g, gctx := errgroup.WithContext(ctx)
		for j, i := range indices {
			j, i := j, i
			g.Go(func() error {
				v, err := r.compute(gctx, argsList[i])
				if err != nil {
					return err
				}
				out[j] = v
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return out, nil
	}
	for j, i := range indices {
		v, err := r.compute(ctx, argsList[i])
		if err != nil {
			return nil, err
		}
		out[j] = v
	}
	return out, nil
}
