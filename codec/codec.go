// Package codec defines the coder contract used by ringo and ships
// implementations for common serialization formats.
//
// A codec must form a pure round-trip pair: Decode(Encode(v)) == v for
// every value the wrapped computation may return. Codecs hold no state
// beyond configuration and never touch storage.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
