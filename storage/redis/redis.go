// Package redis adapts a go-redis client to the ringo storage contract.
// All verbs including the bulk family are backed by native Redis commands:
// MGET for reads and a single pipelined MSET(+EXPIRE) round-trip for writes.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/ringo/storage"
)

var ErrNilClient = errors.New("redis adapter: nil client")

type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var _ storage.BulkAdapter = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this adapter exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

// Flavor is suspending: every verb is a network round-trip and honors ctx.
func (s *Redis) Flavor() storage.Flavor { return storage.Suspending }

func (s *Redis) GetValue(ctx context.Context, key string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err // transport/server error
	}
	if b == nil {
		b = []byte{}
	}
	return b, nil
}

func (s *Redis) SetValue(ctx context.Context, key string, value []byte, expire time.Duration) error {
	if expire <= 0 {
		expire = 0 // non-positive => no expiry per storage contract
	}
	return s.rdb.Set(ctx, key, value, expire).Err()
}

func (s *Redis) DeleteValue(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

func (s *Redis) HasValue(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// TouchValue requires a positive expire: Redis cannot "touch" an entry into
// persistence, so a persistent touch is rejected as invalid.
func (s *Redis) TouchValue(ctx context.Context, key string, expire time.Duration) error {
	if expire <= 0 {
		return storage.ErrInvalidOperation
	}
	return s.rdb.Expire(ctx, key, expire).Err()
}

func (s *Redis) GetManyValues(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(keys))
	for i, v := range vals {
		switch vv := v.(type) {
		case nil:
			// absent; leave nil as the miss marker
		case string:
			out[i] = []byte(vv)
		case []byte:
			if vv == nil {
				vv = []byte{}
			}
			out[i] = vv
		}
	}
	return out, nil
}

// SetManyValues issues one MSET; when an expiry is requested the MSET and
// the per-key EXPIREs share a single pipelined round-trip.
func (s *Redis) SetManyValues(ctx context.Context, keys []string, values [][]byte, expire time.Duration) error {
	if len(keys) == 0 {
		return nil
	}
	pairs := make([]interface{}, 0, len(keys)*2)
	for i, k := range keys {
		pairs = append(pairs, k, values[i])
	}
	if expire <= 0 {
		return s.rdb.MSet(ctx, pairs...).Err()
	}
	_, err := s.rdb.Pipelined(ctx, func(p goredis.Pipeliner) error {
		p.MSet(ctx, pairs...)
		for _, k := range keys {
			p.Expire(ctx, k, expire)
		}
		return nil
	})
	return err
}

func (s *Redis) DeleteManyValues(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

func (s *Redis) HasManyValues(ctx context.Context, keys []string) ([]bool, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	cmds := make([]*goredis.IntCmd, len(keys))
	_, err := s.rdb.Pipelined(ctx, func(p goredis.Pipeliner) error {
		for i, k := range keys {
			cmds[i] = p.Exists(ctx, k)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]bool, len(keys))
	for i, c := range cmds {
		out[i] = c.Val() > 0
	}
	return out, nil
}

func (s *Redis) TouchManyValues(ctx context.Context, keys []string, expire time.Duration) error {
	if expire <= 0 {
		return storage.ErrInvalidOperation
	}
	if len(keys) == 0 {
		return nil
	}
	_, err := s.rdb.Pipelined(ctx, func(p goredis.Pipeliner) error {
		for _, k := range keys {
			p.Expire(ctx, k, expire)
		}
		return nil
	})
	return err
}

// Close releases the underlying redis client only when this adapter owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (s *Redis) Close(context.Context) error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
