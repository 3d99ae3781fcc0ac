// Package storage defines the backend abstraction used by ringo.
//
// An Adapter exposes raw byte verbs over a concrete key-value backend.
// Implementations MUST be byte-for-byte transparent: GetValue must return
// exactly the same []byte that was previously passed to SetValue for a key
// (no prepended/appended metadata, no re-encoding, no mutation). Value
// (de)serialization is the codec's job, never the adapter's.
//
// Absence is signalled with ErrNotFound; every other backend error is
// propagated unchanged. Adapters never retry.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound reports an absent key. The engine recovers it locally
	// (miss value or recomputation); adapters must return it for "key
	// absent" outcomes only, never for transport or server failures.
	ErrNotFound = errors.New("ringo: not found")

	// ErrNotImplemented reports that a backend has no native multi-key
	// support. Bulk verbs must fail with it instead of silently iterating.
	ErrNotImplemented = errors.New("ringo: bulk operation not implemented")

	// ErrInvalidOperation reports a verb the backend cannot express, e.g.
	// touch on a store without per-entry expiration.
	ErrInvalidOperation = errors.New("ringo: invalid operation for backend")
)

// Flavor is the declared execution model of an adapter or a wrapped
// computation. It is an explicit tag, never inferred at runtime.
type Flavor int

const (
	// Blocking adapters complete in-process; a call occupies its
	// goroutine until done and never waits on the network.
	Blocking Flavor = iota

	// Suspending adapters perform I/O and may park the calling goroutine
	// at storage boundaries. They must honor ctx cancellation there.
	Suspending
)

func (f Flavor) String() string {
	switch f {
	case Blocking:
		return "blocking"
	case Suspending:
		return "suspending"
	default:
		return "unknown"
	}
}

// Adapter is the single-item verb set over a backend. expire <= 0 means
// "no expiration" (persistent entry). Must be safe for concurrent use.
type Adapter interface {
	// Flavor reports the adapter's execution model.
	Flavor() Flavor

	// GetValue returns the stored bytes or ErrNotFound.
	GetValue(ctx context.Context, key string) ([]byte, error)

	// SetValue stores value under key with the given expiration.
	SetValue(ctx context.Context, key string, value []byte, expire time.Duration) error

	// DeleteValue removes a key. Deleting an absent key is not an error.
	DeleteValue(ctx context.Context, key string) error

	// HasValue reports whether key exists.
	HasValue(ctx context.Context, key string) (bool, error)

	// TouchValue resets the expiration of an existing entry.
	TouchValue(ctx context.Context, key string, expire time.Duration) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// BulkAdapter is the optional multi-key capability, discovered by type
// assertion at bind time. All slices are aligned to the input key order.
//
// GetManyValues marks absent entries with a nil slice; present entries are
// always non-nil (an empty stored value decodes as a zero-length, non-nil
// slice). That nil is the engine's private miss marker during bulk
// reconciliation.
type BulkAdapter interface {
	Adapter

	GetManyValues(ctx context.Context, keys []string) ([][]byte, error)
	SetManyValues(ctx context.Context, keys []string, values [][]byte, expire time.Duration) error
	DeleteManyValues(ctx context.Context, keys []string) error
	HasManyValues(ctx context.Context, keys []string) ([]bool, error)
	TouchManyValues(ctx context.Context, keys []string, expire time.Duration) error
}
