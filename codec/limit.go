package codec

import "fmt"

// Limit wraps another codec to cap the permitted payload size at Decode
// time. Encode is forwarded to Inner unchanged. MaxDecode <= 0 disables
// the cap.
//
// Typical use: guard against oversized entries coming back from a shared
// backend that other writers can reach.
type Limit[V any] struct {
	// Inner is the underlying codec. It must be set.
	Inner Codec[V]
	// MaxDecode is the maximum permitted payload length in bytes. Longer
	// payloads fail without invoking Inner.
	MaxDecode int
}

func (c Limit[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }
func (c Limit[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, fmt.Errorf("payload too large: %d > %d", len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
