// Package bigcache adapts allegro/bigcache to the ringo storage contract.
//
// BigCache has no per-entry TTL (entries age out with the global
// LifeWindow) and no native multi-key commands, so TouchValue reports
// storage.ErrInvalidOperation and the adapter is single-item only: bulk
// verbs on a binding over this adapter fail with ErrNotImplemented.
package bigcache

import (
	"context"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/ringo/storage"
)

type BigCache struct {
	c *bc.BigCache
}

var _ storage.Adapter = (*BigCache)(nil)

type Config struct {
	LifeWindow         time.Duration
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
}

func New(cfg Config) (*BigCache, error) {
	conf := bc.DefaultConfig(cfg.LifeWindow)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.NewBigCache(conf)
	if err != nil {
		return nil, err
	}
	return &BigCache{c: c}, nil
}

func (s *BigCache) Flavor() storage.Flavor { return storage.Blocking }

func (s *BigCache) GetValue(_ context.Context, key string) ([]byte, error) {
	b, err := s.c.Get(key)
	if err == bc.ErrEntryNotFound {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if b == nil {
		b = []byte{}
	}
	return b, nil
}

// SetValue ignores expire: entries live for the configured LifeWindow.
func (s *BigCache) SetValue(_ context.Context, key string, value []byte, _ time.Duration) error {
	return s.c.Set(key, value)
}

func (s *BigCache) DeleteValue(_ context.Context, key string) error {
	if err := s.c.Delete(key); err != nil && err != bc.ErrEntryNotFound {
		return err
	}
	return nil
}

func (s *BigCache) HasValue(ctx context.Context, key string) (bool, error) {
	_, err := s.GetValue(ctx, key)
	if err == storage.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *BigCache) TouchValue(context.Context, string, time.Duration) error {
	return storage.ErrInvalidOperation
}

func (s *BigCache) Close(_ context.Context) error {
	return s.c.Close()
}
