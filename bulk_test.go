package ringo

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/unkn0wn-root/ringo/storage"
)

// ==============================
// Bulk reconciliation
// ==============================

// TestGetOrUpdateManyPartialHits is the central reconciliation case:
// a1 and a3 cached, a2 missing => exactly one computation, one bulk read,
// one bulk write, results aligned to input order.
func TestGetOrUpdateManyPartialHits(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int64
	mp := newBulkMemAdapter(storage.Blocking)
	r := newTestRing(t, mp, &calls, nil)

	// warm a1 and a3
	if err := r.SetMany(ctx, []int{1, 3}, []int{2, 6}); err != nil {
		t.Fatalf("SetMany: %v", err)
	}
	readsBefore, writesBefore := mp.getManyCalls, mp.setManyCalls

	got, err := r.GetOrUpdateMany(ctx, []int{1, 2, 3})
	if err != nil {
		t.Fatalf("GetOrUpdateMany: %v", err)
	}
	if len(got) != 3 || got[0] != 2 || got[1] != 4 || got[2] != 6 {
		t.Fatalf("misaligned results: %v", got)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected exactly 1 computation, got %d", calls.Load())
	}
	if reads := mp.getManyCalls - readsBefore; reads != 1 {
		t.Fatalf("expected exactly 1 bulk read, got %d", reads)
	}
	if writes := mp.setManyCalls - writesBefore; writes != 1 {
		t.Fatalf("expected exactly 1 bulk write, got %d", writes)
	}
	// the write carried only the freshly computed pair
	wantKey, _ := r.Key(2)
	if len(mp.lastSetManyKeys) != 1 || mp.lastSetManyKeys[0] != wantKey {
		t.Fatalf("bulk write keys = %v, want [%s]", mp.lastSetManyKeys, wantKey)
	}

	// everything cached now: no further computations, no write
	got, err = r.GetOrUpdateMany(ctx, []int{1, 2, 3})
	if err != nil {
		t.Fatalf("GetOrUpdateMany all-hit: %v", err)
	}
	if got[0] != 2 || got[1] != 4 || got[2] != 6 {
		t.Fatalf("all-hit results: %v", got)
	}
	if calls.Load() != 1 {
		t.Fatalf("all-hit pass recomputed: %d", calls.Load())
	}
	if writes := mp.setManyCalls - writesBefore; writes != 1 {
		t.Fatalf("all-hit pass wrote: %d bulk writes total", writes)
	}
}

// TestGetOrUpdateManyAllMisses runs the reconciliation with an empty
// backend: every entry computes, one write for the full batch.
func TestGetOrUpdateManyAllMisses(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int64
	mp := newBulkMemAdapter(storage.Blocking)
	r := newTestRing(t, mp, &calls, nil)

	got, err := r.GetOrUpdateMany(ctx, []int{4, 5, 6})
	if err != nil {
		t.Fatalf("GetOrUpdateMany: %v", err)
	}
	if got[0] != 8 || got[1] != 10 || got[2] != 12 {
		t.Fatalf("results: %v", got)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 computations, got %d", calls.Load())
	}
	if mp.setManyCalls != 1 || len(mp.lastSetManyKeys) != 3 {
		t.Fatalf("expected one bulk write of 3 pairs; calls=%d keys=%v",
			mp.setManyCalls, mp.lastSetManyKeys)
	}
}

// TestGetManyAlignment: misses are replaced by the miss value at their
// original positions.
func TestGetManyAlignment(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int64
	mp := newBulkMemAdapter(storage.Blocking)
	r := newTestRing(t, mp, &calls, func(o *Options[int, int]) { o.MissValue = -1 })

	if err := r.SetMany(ctx, []int{2}, []int{4}); err != nil {
		t.Fatalf("SetMany: %v", err)
	}
	got, err := r.GetMany(ctx, []int{1, 2, 3})
	if err != nil {
		t.Fatalf("GetMany: %v", err)
	}
	if got[0] != -1 || got[1] != 4 || got[2] != -1 {
		t.Fatalf("alignment broken: %v", got)
	}
	if calls.Load() != 0 {
		t.Fatalf("GetMany computed: %d", calls.Load())
	}
}

// TestSetManyGetManyRoundTrip verifies order-aligned write-then-read.
func TestSetManyGetManyRoundTrip(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int64
	r := newTestRing(t, newBulkMemAdapter(storage.Blocking), &calls, nil)

	args := []int{10, 20, 30}
	vals := []int{100, 200, 300}
	if err := r.SetMany(ctx, args, vals); err != nil {
		t.Fatalf("SetMany: %v", err)
	}
	got, err := r.GetMany(ctx, args)
	if err != nil {
		t.Fatalf("GetMany: %v", err)
	}
	for i := range args {
		if got[i] != vals[i] {
			t.Fatalf("index %d: got %d want %d", i, got[i], vals[i])
		}
	}
}

func TestSetManyLengthMismatch(t *testing.T) {
	var calls atomic.Int64
	r := newTestRing(t, newBulkMemAdapter(storage.Blocking), &calls, nil)
	if err := r.SetMany(context.Background(), []int{1, 2}, []int{1}); err == nil {
		t.Fatalf("length mismatch accepted")
	}
}

// TestUpdateMany recomputes the whole batch with one bulk write.
func TestUpdateMany(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int64
	mp := newBulkMemAdapter(storage.Blocking)
	r := newTestRing(t, mp, &calls, nil)

	got, err := r.UpdateMany(ctx, []int{1, 2})
	if err != nil {
		t.Fatalf("UpdateMany: %v", err)
	}
	if got[0] != 2 || got[1] != 4 {
		t.Fatalf("results: %v", got)
	}
	if calls.Load() != 2 || mp.setManyCalls != 1 {
		t.Fatalf("computations=%d bulk writes=%d", calls.Load(), mp.setManyCalls)
	}

	// UpdateMany recomputes even when cached.
	if _, err := r.UpdateMany(ctx, []int{1, 2}); err != nil {
		t.Fatalf("UpdateMany again: %v", err)
	}
	if calls.Load() != 4 {
		t.Fatalf("expected recompute, got %d computations", calls.Load())
	}
}

// TestDeleteManyHasManyTouchMany covers the bulk pass-through verbs.
func TestDeleteManyHasManyTouchMany(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int64
	r := newTestRing(t, newBulkMemAdapter(storage.Blocking), &calls, nil)

	if err := r.SetMany(ctx, []int{1, 2, 3}, []int{2, 4, 6}); err != nil {
		t.Fatalf("SetMany: %v", err)
	}
	ok, err := r.HasMany(ctx, []int{1, 2, 4})
	if err != nil {
		t.Fatalf("HasMany: %v", err)
	}
	if !ok[0] || !ok[1] || ok[2] {
		t.Fatalf("HasMany alignment: %v", ok)
	}
	if err := r.TouchMany(ctx, []int{1, 2}); err != nil {
		t.Fatalf("TouchMany: %v", err)
	}
	if err := r.DeleteMany(ctx, []int{1, 3}); err != nil {
		t.Fatalf("DeleteMany: %v", err)
	}
	ok, _ = r.HasMany(ctx, []int{1, 2, 3})
	if ok[0] || !ok[1] || ok[2] {
		t.Fatalf("after DeleteMany: %v", ok)
	}
}

// ==============================
// Bulk capability contract
// ==============================

// TestBulkNotImplemented: a single-item backend fails bulk verbs with
// ErrNotImplemented before any computation or write happens.
func TestBulkNotImplemented(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int64
	mp := newMemAdapter(storage.Blocking) // no bulk verbs
	r := newTestRing(t, mp, &calls, nil)

	if _, err := r.GetMany(ctx, []int{1}); !errors.Is(err, storage.ErrNotImplemented) {
		t.Fatalf("GetMany: %v", err)
	}
	if _, err := r.GetOrUpdateMany(ctx, []int{1}); !errors.Is(err, storage.ErrNotImplemented) {
		t.Fatalf("GetOrUpdateMany: %v", err)
	}
	if _, err := r.UpdateMany(ctx, []int{1}); !errors.Is(err, storage.ErrNotImplemented) {
		t.Fatalf("UpdateMany: %v", err)
	}
	if err := r.SetMany(ctx, []int{1}, []int{2}); !errors.Is(err, storage.ErrNotImplemented) {
		t.Fatalf("SetMany: %v", err)
	}
	if err := r.DeleteMany(ctx, []int{1}); !errors.Is(err, storage.ErrNotImplemented) {
		t.Fatalf("DeleteMany: %v", err)
	}
	if calls.Load() != 0 || mp.sets != 0 {
		t.Fatalf("bulk failure had side effects: computations=%d sets=%d", calls.Load(), mp.sets)
	}

	// single-item verbs still work on the same binding
	if _, err := r.GetOrUpdate(ctx, 7); err != nil {
		t.Fatalf("GetOrUpdate: %v", err)
	}
}

// TestDisableBulk forces single-item mode even on a bulk-capable backend.
func TestDisableBulk(t *testing.T) {
	var calls atomic.Int64
	r := newTestRing(t, newBulkMemAdapter(storage.Blocking), &calls, func(o *Options[int, int]) {
		o.DisableBulk = true
	})
	if _, err := r.GetMany(context.Background(), []int{1}); !errors.Is(err, storage.ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
}

// ==============================
// Concurrent dispatch (suspending flavor)
// ==============================

// TestSuspendingDispatchOrder: computations run concurrently but results
// land at their original indices regardless of completion order.
func TestSuspendingDispatchOrder(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int64
	fn := func(_ context.Context, n int) (int, error) {
		calls.Add(1)
		// earlier entries finish last
		time.Sleep(time.Duration(40-10*n) * time.Millisecond)
		return n * 2, nil
	}
	r, err := New(fn, Options[int, int]{
		Adapter:   newBulkMemAdapter(storage.Suspending),
		KeyPrefix: "conc",
		Flavor:    Suspending,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := r.UpdateMany(ctx, []int{1, 2, 3})
	if err != nil {
		t.Fatalf("UpdateMany: %v", err)
	}
	if got[0] != 2 || got[1] != 4 || got[2] != 6 {
		t.Fatalf("completion order leaked into results: %v", got)
	}
	if calls.Load() != 3 {
		t.Fatalf("computations: %d", calls.Load())
	}
}

// TestSuspendingComputeErrorNoWrite: any failing computation aborts the
// batch before the bulk write is issued.
func TestSuspendingComputeErrorNoWrite(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	fn := func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n * 2, nil
	}
	mp := newBulkMemAdapter(storage.Suspending)
	r, err := New(fn, Options[int, int]{
		Adapter:   mp,
		KeyPrefix: "abort",
		Flavor:    Suspending,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := r.GetOrUpdateMany(ctx, []int{1, 2, 3}); !errors.Is(err, boom) {
		t.Fatalf("expected computation error, got %v", err)
	}
	if mp.setManyCalls != 0 {
		t.Fatalf("partial batch written: %d bulk writes", mp.setManyCalls)
	}
}
