// Package memory provides an in-process, map-backed storage adapter with
// per-entry expiration and native bulk verbs. It is the reference backend:
// useful for tests, process-local memoization and as a template for new
// adapters.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/unkn0wn-root/ringo/storage"
)

type entry struct {
	value  []byte
	expiry time.Time // zero => persistent
}

// Memory is a storage.BulkAdapter over a plain map. Expired entries are
// dropped lazily on access; there is no background sweeper.
type Memory struct {
	mu sync.RWMutex
	m  map[string]entry
}

var _ storage.BulkAdapter = (*Memory)(nil)

func New() *Memory {
	return &Memory{m: make(map[string]entry)}
}

func (s *Memory) Flavor() storage.Flavor { return storage.Blocking }

// lookup returns a live entry, pruning it when expired.
// Callers must not hold the lock.
func (s *Memory) lookup(key string) (entry, bool) {
	s.mu.RLock()
	e, ok := s.m[key]
	s.mu.RUnlock()
	if !ok {
		return entry{}, false
	}
	if !e.expiry.IsZero() && time.Now().After(e.expiry) {
		// re-check under the write lock: a concurrent SetValue may have
		// replaced the entry since the read; only a still-expired entry
		// may be pruned.
		s.mu.Lock()
		cur, ok := s.m[key]
		if ok && !cur.expiry.IsZero() && time.Now().After(cur.expiry) {
			delete(s.m, key)
			ok = false
		}
		s.mu.Unlock()
		if !ok {
			return entry{}, false
		}
		return cur, true
	}
	return e, true
}

func deadline(expire time.Duration) time.Time {
	if expire <= 0 {
		return time.Time{}
	}
	return time.Now().Add(expire)
}

// clone detaches stored bytes from the map so callers cannot mutate the
// cache in place. Always non-nil, even for empty values.
func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (s *Memory) GetValue(_ context.Context, key string) ([]byte, error) {
	e, ok := s.lookup(key)
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clone(e.value), nil
}

func (s *Memory) SetValue(_ context.Context, key string, value []byte, expire time.Duration) error {
	s.mu.Lock()
	s.m[key] = entry{value: clone(value), expiry: deadline(expire)}
	s.mu.Unlock()
	return nil
}

func (s *Memory) DeleteValue(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
	return nil
}

func (s *Memory) HasValue(_ context.Context, key string) (bool, error) {
	_, ok := s.lookup(key)
	return ok, nil
}

func (s *Memory) TouchValue(_ context.Context, key string, expire time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[key]
	if !ok || (!e.expiry.IsZero() && time.Now().After(e.expiry)) {
		delete(s.m, key)
		return storage.ErrNotFound
	}
	e.expiry = deadline(expire)
	s.m[key] = e
	return nil
}

func (s *Memory) GetManyValues(ctx context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		e, ok := s.lookup(k)
		if !ok {
			continue // nil marks the miss
		}
		out[i] = clone(e.value)
	}
	return out, nil
}

func (s *Memory) SetManyValues(_ context.Context, keys []string, values [][]byte, expire time.Duration) error {
	exp := deadline(expire)
	s.mu.Lock()
	for i, k := range keys {
		s.m[k] = entry{value: clone(values[i]), expiry: exp}
	}
	s.mu.Unlock()
	return nil
}

func (s *Memory) DeleteManyValues(_ context.Context, keys []string) error {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.m, k)
	}
	s.mu.Unlock()
	return nil
}

func (s *Memory) HasManyValues(ctx context.Context, keys []string) ([]bool, error) {
	out := make([]bool, len(keys))
	for i, k := range keys {
		_, out[i] = s.lookup(k)
	}
	return out, nil
}

func (s *Memory) TouchManyValues(ctx context.Context, keys []string, expire time.Duration) error {
	for _, k := range keys {
		if err := s.TouchValue(ctx, k, expire); err != nil && err != storage.ErrNotFound {
			return err
		}
	}
	return nil
}

// Len reports the number of entries currently held, expired or not.
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

func (s *Memory) Close(_ context.Context) error {
	s.mu.Lock()
	s.m = make(map[string]entry)
	s.mu.Unlock()
	return nil
}
