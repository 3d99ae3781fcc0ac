// Package ringo is a generic memoization engine: it wraps a function with
// a pluggable key-value backend, derives deterministic cache keys from the
// call arguments, and mediates reads, writes and invalidation against the
// backend with strict miss/hit semantics. A multi-key bulk path reconciles
// partial hits with one bulk read, one computation per miss and at most
// one bulk write.
//
// Components:
//   - storage.Adapter: byte store verbs over a backend (memory, Redis,
//     BigCache, Ristretto). storage.BulkAdapter adds native multi-key verbs.
//   - codec.Codec[V]: (de)serializes V <-> []byte.
//   - Ring[A, V]: the binding produced by New; immutable after construction.
//
// Typical use:
//
//	fetch := func(ctx context.Context, id string) (User, error) { ... }
//	r, err := ringo.New(fetch, ringo.Options[string, User]{
//		Adapter:   memory.New(),
//		KeyPrefix: "user",
//		Expire:    10 * time.Minute,
//	})
//	u, err := r.GetOrUpdate(ctx, "u:1") // computes on miss, cached afterwards
//
// Concurrent misses for the same key may each compute and each write; the
// last writer's value persists in the backend. This weak-consistency
// trade-off is deliberate. Opt into per-key single-flight with
// Options.SingleFlight when duplicate computation is too expensive.
package ringo
