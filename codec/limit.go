package codec

import "fmt"

// Limit wraps another codec and refuses to decode payloads larger than Max
// bytes. Encode is forwarded unchanged. Max <= 0 disables the check.
//
// Descriptors are small; a peer announcing a huge one is broken or hostile.
type Limit[V any] struct {
	Inner Codec[V]
	Max   int
}

func (c Limit[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }
func (c Limit[V]) Decode(b []byte) (V, error) {
	if c.Max > 0 && len(b) > c.Max {
		var zero V
		return zero, fmt.Errorf("codec: payload too large: %d > %d", len(b), c.Max)
	}
	return c.Inner.Decode(b)
}
