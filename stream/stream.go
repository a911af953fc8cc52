// Package stream carries Temporal RVL frames between a capture device and a
// viewer.
//
// A Sender numbers frames, decides which are keyframes, encodes them and wraps
// each in a self-describing packet. A Receiver checks ordering, follows
// resolution changes and reconstructs depth frames, refusing to build on a
// broken history until the next keyframe arrives. A KeyframeCache keeps the
// latest keyframe and the diffs sent after it, so a receiver that joins
// mid-stream replays them and follows the live packets right away instead of
// waiting for the next keyframe.
//
// Moving packets between processes is left to the caller.
package stream

import (
	"errors"
	"fmt"
	"time"

	"github.com/unkn0wn-root/trvl"
	"github.com/unkn0wn-root/trvl/internal/wire"
)

const (
	defaultKeyframeTTL  = 10 * time.Second
	defaultGenRetention = 30 * 24 * time.Hour
	defaultSweep        = time.Hour
)

var (
	// ErrDesync means the receiver lost track of the encoder state (sequence
	// gap or undecodable frame) and is dropping frames until a keyframe.
	ErrDesync = errors.New("stream: desynchronized, waiting for keyframe")
	// ErrStale means the packet is not newer than the last applied one.
	ErrStale = errors.New("stream: stale frame")
	// ErrMethod means the packet uses an unknown compression method.
	ErrMethod = errors.New("stream: unknown compression method")
	// ErrDevice means the packet belongs to another device.
	ErrDevice = errors.New("stream: device mismatch")
)

// Header describes one packet: method, keyframe flag, device, sequence
// number and frame dimensions.
type Header = wire.Header

// Method selects how a stream's frames are compressed.
type Method byte

const (
	// MethodRVL compresses every frame on its own.
	MethodRVL Method = 1
	// MethodTemporalRVL sends keyframes plus diffs of hysteresis-filtered frames.
	MethodTemporalRVL Method = 2
)

func (m Method) Valid() bool { return m == MethodRVL || m == MethodTemporalRVL }

func (m Method) String() string {
	switch m {
	case MethodRVL:
		return "rvl"
	case MethodTemporalRVL:
		return "temporal-rvl"
	default:
		return fmt.Sprintf("method(%d)", byte(m))
	}
}

// ParseMethod accepts the names returned by Method.String.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "rvl":
		return MethodRVL, nil
	case "temporal-rvl", "trvl":
		return MethodTemporalRVL, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrMethod, s)
	}
}

// Options carry the collaborators shared by senders and receivers.
type Options struct {
	Logger trvl.Logger // if nil, trvl.NopLogger is used
	Hooks  trvl.Hooks  // if nil, trvl.NopHooks is used

	// Keyframes, when set, receives every keyframe a Sender produces and
	// serves Receiver.Bootstrap.
	Keyframes *KeyframeCache
}

func (o Options) logger() trvl.Logger { return coalesce[trvl.Logger](o.Logger, trvl.NopLogger{}) }
func (o Options) hooks() trvl.Hooks   { return coalesce[trvl.Hooks](o.Hooks, trvl.NopHooks{}) }

// Stats describe one sent frame.
type Stats struct {
	Seq          uint32
	Keyframe     bool
	RawBytes     int
	EncodedBytes int // payload only, without the packet header
	Ratio        float64
}

func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
