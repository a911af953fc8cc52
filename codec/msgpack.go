package codec

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack is a Codec that serializes values using vmihailenco/msgpack/v5.
// The zero value is ready to use. Use `msgpack:"name"` tags to pin field
// names shared with non-Go peers.
//
// Integers are written in their smallest form, which keeps small descriptors
// small. Unknown fields are an error unless Lenient is set, so a peer running
// a newer descriptor version is noticed rather than half-understood.
type Msgpack[V any] struct {
	Lenient bool
}

var _ Codec[struct{}] = Msgpack[struct{}]{}

func (Msgpack[V]) Encode(v V) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c Msgpack[V]) Decode(b []byte) (V, error) {
	var v V
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields(!c.Lenient)
	err := dec.Decode(&v)
	return v, err
}
