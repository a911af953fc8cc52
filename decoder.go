package trvl

import (
	"errors"
	"fmt"

	"github.com/unkn0wn-root/trvl/rvl"
)

// Decoder is the receiving half of a Temporal RVL stream. It is not safe for
// concurrent use; frames must be passed in the order they were encoded.
type Decoder struct {
	prev []uint16 // reconstructed frame, returned to callers
	next []uint16 // scratch: decoded keyframe or diff

	log   Logger
	hooks Hooks
}

func NewDecoder(frameSize int, opts Options) (*Decoder, error) {
	if frameSize <= 0 {
		return nil, fmt.Errorf("%w: frame size %d", ErrInvalidConfig, frameSize)
	}
	return &Decoder{
		prev:  make([]uint16, frameSize),
		next:  make([]uint16, frameSize),
		log:   opts.logger(),
		hooks: opts.hooks(),
	}, nil
}

func (d *Decoder) FrameSize() int { return len(d.prev) }

// Decode applies one encoded frame and returns the reconstructed depth frame.
// The returned slice is owned by the decoder and is only valid until the next
// call; copy it (or use DecodeInto) to keep it.
//
// A corrupt frame leaves the decoder state untouched and returns an error
// wrapping ErrCorrupt; one that holds more samples than FrameSize also wraps
// ErrSizeMismatch. Later non-keyframes then build on stale state, so the
// caller should wait for the next keyframe.
func (d *Decoder) Decode(data []byte, keyframe bool) ([]uint16, error) {
	if err := rvl.Decompress(data, d.next); err != nil {
		if errors.Is(err, rvl.ErrTrailingData) {
			// encoded for a larger frame
			d.hooks.FrameRejected("decode", "size_mismatch", err)
			d.log.Warn("frame larger than decoder", Fields{"samples": len(d.prev), "bytes": len(data)})
			return nil, fmt.Errorf("trvl: decode: %w: %w", ErrSizeMismatch, err)
		}
		d.hooks.FrameRejected("decode", "corrupt", err)
		d.log.Warn("corrupt frame", Fields{"keyframe": keyframe, "bytes": len(data), "err": err})
		return nil, fmt.Errorf("trvl: decode: %w", err)
	}

	if keyframe {
		d.prev, d.next = d.next, d.prev
		return d.prev, nil
	}
	for i, v := range d.next {
		d.prev[i] += v
	}
	return d.prev, nil
}

// DecodeInto is Decode copying the result into dst, which must hold exactly
// FrameSize samples.
func (d *Decoder) DecodeInto(dst []uint16, data []byte, keyframe bool) error {
	if len(dst) != len(d.prev) {
		err := &SizeMismatchError{Op: "decode", Want: len(d.prev), Got: len(dst)}
		d.hooks.FrameRejected("decode", "size_mismatch", err)
		return err
	}
	frame, err := d.Decode(data, keyframe)
	if err != nil {
		return err
	}
	copy(dst, frame)
	return nil
}

// Reset zeroes the reconstructed frame.
func (d *Decoder) Reset() {
	clear(d.prev)
}
