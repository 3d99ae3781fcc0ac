package ringo

import (
	"context"
	"errors"
	"time"

	"github.com/unkn0wn-root/ringo/codec"
	"github.com/unkn0wn-root/ringo/storage"
)

// store is the codec-aware verb layer between the binding and the raw
// adapter: decode on reads, encode on writes, expiration defaulting.
type store[V any] struct {
	adapter storage.Adapter
	bulk    storage.BulkAdapter // nil => bulk verbs fail with ErrNotImplemented
	codec   codec.Codec[V]
	expire  time.Duration // <= 0 => persistent
}

func (s *store[V]) get(ctx context.Context, key string) (V, error) {
	var zero V
	raw, err := s.adapter.GetValue(ctx, key)
	if err != nil {
		return zero, err
	}
	v, err := s.codec.Decode(raw)
	if err != nil {
		return zero, &DecodingError{Key: key, Err: err}
	}
	return v, nil
}

func (s *store[V]) set(ctx context.Context, key string, value V) error {
	raw, err := s.codec.Encode(value)
	if err != nil {
		return &EncodingError{Key: key, Err: err}
	}
	return s.adapter.SetValue(ctx, key, raw, s.expire)
}

func (s *store[V]) delete(ctx context.Context, key string) error {
	return s.adapter.DeleteValue(ctx, key)
}

func (s *store[V]) has(ctx context.Context, key string) (bool, error) {
	return s.adapter.HasValue(ctx, key)
}

func (s *store[V]) touch(ctx context.Context, key string) error {
	return s.adapter.TouchValue(ctx, key, s.expire)
}

// getMany returns decoded values aligned to keys, with found flags marking
// which entries were present. The flags are the engine's private miss
// marker during bulk reconciliation: a stored value can never alias them.
func (s *store[V]) getMany(ctx context.Context, keys []string) ([]V, []bool, error) {
	if s.bulk == nil {
		return nil, nil, storage.ErrNotImplemented
	}
	raws, err := s.bulk.GetManyValues(ctx, keys)
	if err != nil {
		return nil, nil, err
	}
	values := make([]V, len(keys))
	found := make([]bool, len(keys))
	for i, raw := range raws {
		if raw == nil {
			continue
		}
		v, err := s.codec.Decode(raw)
		if err != nil {
			return nil, nil, &DecodingError{Key: keys[i], Err: err}
		}
		values[i] = v
		found[i] = true
	}
	return values, found, nil
}

// setMany encodes every value before the first byte is written, so an
// encoding failure can never leave a partial batch behind.
func (s *store[V]) setMany(ctx context.Context, keys []string, values []V) error {
	if s.bulk == nil {
		return storage.ErrNotImplemented
	}
	raws := make([][]byte, len(values))
	for i, v := range values {
		raw, err := s.codec.Encode(v)
		if err != nil {
			return &EncodingError{Key: keys[i], Err: err}
		}
		raws[i] = raw
	}
	return s.bulk.SetManyValues(ctx, keys, raws, s.expire)
}

func (s *store[V]) deleteMany(ctx context.Context, keys []string) error {
	if s.bulk == nil {
		return storage.ErrNotImplemented
	}
	return s.bulk.DeleteManyValues(ctx, keys)
}

func (s *store[V]) hasMany(ctx context.Context, keys []string) ([]bool, error) {
	if s.bulk == nil {
		return nil, storage.ErrNotImplemented
	}
	return s.bulk.HasManyValues(ctx, keys)
}

func (s *store[V]) touchMany(ctx context.Context, keys []string) error {
	if s.bulk == nil {
		return storage.ErrNotImplemented
	}
	return s.bulk.TouchManyValues(ctx, keys, s.expire)
}

// notFound reports whether err is the adapter's absence signal.
func notFound(err error) bool { return errors.Is(err, storage.ErrNotFound) }
