package ringo

import (
	"fmt"

	"github.com/unkn0wn-root/ringo/storage"
)

// FlavorError reports an execution-flavor mismatch between the wrapped
// computation and the storage adapter at binding time. Construction fails
// fast with it; set Options.Force to accept the mismatch anyway.
type FlavorError struct {
	Func    storage.Flavor
	Storage storage.Flavor
}

func (e *FlavorError) Error() string {
	return fmt.Sprintf(
		"ringo: %s function bound to %s storage; this may stall callers or waste the scheduler. "+
			"Set Options.Force to accept the risk", e.Func, e.Storage)
}

// EncodingError wraps a codec failure while encoding a computed value.
// Surfaced to the caller, never swallowed.
type EncodingError struct {
	Key string
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("ringo: encode %q: %v", e.Key, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// DecodingError wraps a codec failure while decoding a stored entry.
type DecodingError struct {
	Key string
	Err error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("ringo: decode %q: %v", e.Key, e.Err)
}

func (e *DecodingError) Unwrap() error { return e.Err }

// KeyError wraps a key-derivation failure for one argument set.
type KeyError struct {
	Prefix string
	Err    error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("ringo: derive key under %q: %v", e.Prefix, e.Err)
}

func (e *KeyError) Unwrap() error { return e.Err }
