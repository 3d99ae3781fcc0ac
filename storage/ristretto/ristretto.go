// Package ristretto adapts dgraph-io/ristretto to the ringo storage
// contract. Ristretto admission is asynchronous: a freshly set entry may
// not be readable until the internal buffers drain, and admission may drop
// writes under pressure. Both are acceptable for a cache adapter; the
// engine recomputes on miss. No native multi-key support, so the adapter
// is single-item only.
package ristretto

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/ringo/storage"
)

type Ristretto struct {
	c *rc.Cache
}

var _ storage.Adapter = (*Ristretto)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
}

func New(cfg Config) (*Ristretto, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Ristretto{c: c}, nil
}

func (s *Ristretto) Flavor() storage.Flavor { return storage.Blocking }

func (s *Ristretto) GetValue(_ context.Context, key string) ([]byte, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, storage.ErrNotFound
	}
	b, _ := v.([]byte)
	if b == nil {
		// drop unexpected entry shape
		s.c.Del(key)
		return nil, storage.ErrNotFound
	}
	return b, nil
}

func (s *Ristretto) SetValue(_ context.Context, key string, value []byte, expire time.Duration) error {
	if value == nil {
		value = []byte{}
	}
	if expire <= 0 {
		s.c.Set(key, value, int64(len(value)))
		return nil
	}
	s.c.SetWithTTL(key, value, int64(len(value)), expire)
	return nil
}

func (s *Ristretto) DeleteValue(_ context.Context, key string) error {
	s.c.Del(key)
	return nil
}

func (s *Ristretto) HasValue(ctx context.Context, key string) (bool, error) {
	_, err := s.GetValue(ctx, key)
	if err == storage.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// TouchValue is unsupported: ristretto cannot reset an entry's TTL in
// place without re-admitting the value.
func (s *Ristretto) TouchValue(context.Context, string, time.Duration) error {
	return storage.ErrInvalidOperation
}

// Wait blocks until buffered writes are applied. Exposed for tests and
// warm-up paths; not part of the storage contract.
func (s *Ristretto) Wait() { s.c.Wait() }

func (s *Ristretto) Close(_ context.Context) error {
	s.c.Wait()
	s.c.Close()
	return nil
}

// Metrics exposes ristretto's own counters (not part of the storage contract).
func (s *Ristretto) Metrics() *rc.Metrics { return s.c.Metrics }
