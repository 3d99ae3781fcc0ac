package ringo

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/ringo/codec"
	"github.com/unkn0wn-root/ringo/metrics"
	"github.com/unkn0wn-root/ringo/storage"
)

// Func is the wrapped computation: one argument set in, one value out.
// A is the argument type (typically a scalar or a small struct), V the
// computed value type.
type Func[A, V any] func(ctx context.Context, args A) (V, error)

// Flavor aliases the storage execution-model tag for ergonomic Options use.
type Flavor = storage.Flavor

const (
	Blocking   = storage.Blocking
	Suspending = storage.Suspending
)

// Options configure a binding. Only Adapter is required; everything else
// has a sensible default.
type Options[A, V any] struct {
	// Required
	Adapter storage.Adapter

	Codec codec.Codec[V] // nil => codec.JSON[V]

	KeyPrefix     string     // "" => derived from the function symbol
	KeyFunc       KeyFunc[A] // nil => canonical argument coercion
	IgnorableKeys []string   // struct fields excluded from key derivation

	Expire    time.Duration // entry expiration; 0 => persistent
	MissValue V             // returned by Get/GetMany on miss; zero V by default

	// Flavor declares the computation's execution model. It must match
	// the adapter's flavor or construction fails with *FlavorError.
	Flavor Flavor
	// Force accepts a flavor mismatch anyway. The binding then still
	// works, at the cost of blocked goroutines or wasted scheduling.
	Force bool

	DisableBulk bool // treat the adapter as single-item even if it has bulk verbs

	// SingleFlight collapses concurrent GetOrUpdate misses for the same
	// key into one computation. Off by default: the engine's documented
	// behavior is that racing misses may each compute and each write.
	SingleFlight bool

	Logger    Logger            // nil => NopLogger
	Collector metrics.Collector // nil => metrics.Noop
}

// New builds the binding ("ring") around fn. The returned Ring is
// immutable; it owns no goroutines and is safe for concurrent use.
func New[A, V any](fn Func[A, V], opts Options[A, V]) (*Ring[A, V], error) {
	if fn == nil {
		return nil, fmt.Errorf("ringo: function is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("ringo: storage adapter is required")
	}

	log := coalesce[Logger](opts.Logger, NopLogger{})
	if opts.Flavor != opts.Adapter.Flavor() {
		if !opts.Force {
			return nil, &FlavorError{Func: opts.Flavor, Storage: opts.Adapter.Flavor()}
		}
		log.Warn("flavor mismatch forced", Fields{
			"func":    opts.Flavor.String(),
			"storage": opts.Adapter.Flavor().String(),
		})
	}

	cd := opts.Codec
	if cd == nil {
		cd = codec.JSON[V]{}
	}
	kf := opts.KeyFunc
	if kf == nil {
		kf = defaultKeyFunc[A](opts.IgnorableKeys)
	}

	var bulk storage.BulkAdapter
	if !opts.DisableBulk {
		bulk, _ = opts.Adapter.(storage.BulkAdapter)
	}

	r := &Ring[A, V]{
		fn:     fn,
		keys:   keyBuilder[A]{prefix: coalesce(opts.KeyPrefix, funcPrefix(fn)), fn: kf},
		miss:   opts.MissValue,
		flavor: opts.Flavor,
		log:    log,
		stats:  opts.Collector,
		st: store[V]{
			adapter: opts.Adapter,
			bulk:    bulk,
			codec:   cd,
			expire:  opts.Expire,
		},
	}
	if r.stats == nil {
		r.stats = metrics.NewNoop()
	}
	if opts.SingleFlight {
		r.sf = new(singleflight.Group)
	}
	return r, nil
}
