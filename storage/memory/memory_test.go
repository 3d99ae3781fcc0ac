package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/unkn0wn-root/ringo/storage"
)

func TestSingleVerbs(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close(ctx)

	if _, err := s.GetValue(ctx, "k"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.SetValue(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	b, err := s.GetValue(ctx, "k")
	if err != nil || string(b) != "v" {
		t.Fatalf("GetValue: %q err=%v", b, err)
	}
	if ok, _ := s.HasValue(ctx, "k"); !ok {
		t.Fatalf("HasValue after set")
	}
	if err := s.DeleteValue(ctx, "k"); err != nil {
		t.Fatalf("DeleteValue: %v", err)
	}
	if ok, _ := s.HasValue(ctx, "k"); ok {
		t.Fatalf("HasValue after delete")
	}
}

func TestEmptyValueIsPresent(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.SetValue(ctx, "empty", nil, 0); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	b, err := s.GetValue(ctx, "empty")
	if err != nil {
		t.Fatalf("empty value read as miss: %v", err)
	}
	if b == nil || len(b) != 0 {
		t.Fatalf("expected non-nil empty slice, got %v", b)
	}
	vals, err := s.GetManyValues(ctx, []string{"empty", "absent"})
	if err != nil {
		t.Fatalf("GetManyValues: %v", err)
	}
	if vals[0] == nil {
		t.Fatalf("present empty value marked as miss")
	}
	if vals[1] != nil {
		t.Fatalf("absent key not marked as miss")
	}
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.SetValue(ctx, "ttl", []byte("v"), 20*time.Millisecond); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if ok, _ := s.HasValue(ctx, "ttl"); !ok {
		t.Fatalf("entry missing before expiry")
	}
	time.Sleep(30 * time.Millisecond)
	if _, err := s.GetValue(ctx, "ttl"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expired entry still readable: %v", err)
	}
}

func TestTouchExtendsAndPersists(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.SetValue(ctx, "k", []byte("v"), 20*time.Millisecond); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	// touch to persistent: the deadline is dropped
	if err := s.TouchValue(ctx, "k", 0); err != nil {
		t.Fatalf("TouchValue: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if ok, _ := s.HasValue(ctx, "k"); !ok {
		t.Fatalf("touched entry expired")
	}

	if err := s.TouchValue(ctx, "absent", time.Second); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("touch on absent key: %v", err)
	}
}

// TestConcurrentSetSurvivesLazyExpiry pins down the expiry re-check: a
// reader that finds an expired entry must not delete a fresh entry written
// between its read and its prune. The fresh persistent write has to win.
func TestConcurrentSetSurvivesLazyExpiry(t *testing.T) {
	ctx := context.Background()
	s := New()

	for i := 0; i < 1000; i++ {
		if err := s.SetValue(ctx, "k", []byte("stale"), time.Nanosecond); err != nil {
			t.Fatalf("SetValue: %v", err)
		}
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.GetValue(ctx, "k") // may observe the expired entry and prune
		}()
		go func() {
			defer wg.Done()
			if err := s.SetValue(ctx, "k", []byte("fresh"), 0); err != nil {
				t.Errorf("racing SetValue: %v", err)
			}
		}()
		wg.Wait()

		b, err := s.GetValue(ctx, "k")
		if err != nil || string(b) != "fresh" {
			t.Fatalf("iteration %d: persistent write lost: %q err=%v", i, b, err)
		}
	}
}

// TestReadsDoNotAliasStore: mutating a returned slice must not change what
// the next reader sees.
func TestReadsDoNotAliasStore(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.SetValue(ctx, "k", []byte("abc"), 0); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	b, err := s.GetValue(ctx, "k")
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	b[0] = 'x'
	again, err := s.GetValue(ctx, "k")
	if err != nil || string(again) != "abc" {
		t.Fatalf("stored bytes mutated through a read: %q err=%v", again, err)
	}

	vals, err := s.GetManyValues(ctx, []string{"k"})
	if err != nil {
		t.Fatalf("GetManyValues: %v", err)
	}
	vals[0][0] = 'y'
	again, _ = s.GetValue(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("stored bytes mutated through a bulk read: %q", again)
	}

	// the write path detaches too
	in := []byte("abc")
	if err := s.SetValue(ctx, "w", in, 0); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	in[0] = 'z'
	got, _ := s.GetValue(ctx, "w")
	if string(got) != "abc" {
		t.Fatalf("caller slice aliased into the store: %q", got)
	}
}

func TestBulkAlignment(t *testing.T) {
	ctx := context.Background()
	s := New()

	keys := []string{"a", "b", "c"}
	vals := [][]byte{[]byte("1"), []byte("2"), []byte("3")}
	if err := s.SetManyValues(ctx, keys, vals, 0); err != nil {
		t.Fatalf("SetManyValues: %v", err)
	}

	got, err := s.GetManyValues(ctx, []string{"c", "missing", "a"})
	if err != nil {
		t.Fatalf("GetManyValues: %v", err)
	}
	if string(got[0]) != "3" || got[1] != nil || string(got[2]) != "1" {
		t.Fatalf("alignment broken: %q", got)
	}

	ok, err := s.HasManyValues(ctx, []string{"a", "zz", "b"})
	if err != nil {
		t.Fatalf("HasManyValues: %v", err)
	}
	if !ok[0] || ok[1] || !ok[2] {
		t.Fatalf("HasManyValues alignment: %v", ok)
	}

	if err := s.DeleteManyValues(ctx, []string{"a", "b"}); err != nil {
		t.Fatalf("DeleteManyValues: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected one survivor, have %d", s.Len())
	}
}
