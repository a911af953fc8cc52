// Package codec serializes the out-of-band values of a depth stream, such as
// the stream descriptor exchanged once at session start. Depth frames
// themselves never go through a Codec; they use rvl/trvl.
package codec

// Codec encodes/decodes values V to []byte for transport.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
