package trvl

import (
	"fmt"

	"github.com/unkn0wn-root/trvl/rvl"
)

type pixel struct {
	value      uint16 // last stable value; 0 = unset
	invalidRun uint32 // consecutive raw zeros since last stable
}

// update applies one raw observation and reports whether the pixel was reset
// by the invalid-run threshold.
func (p *pixel) update(raw, changeThreshold uint16, invalidThreshold uint32) (reset bool) {
	if p.value == 0 {
		// invalidRun deliberately survives the unset -> valid transition
		if raw > 0 {
			p.value = raw
		}
		return false
	}

	if raw == 0 {
		p.invalidRun++
		if p.invalidRun >= invalidThreshold {
			p.value = 0
			p.invalidRun = 0
			return true
		}
		return false
	}
	p.invalidRun = 0

	if absDiff(p.value, raw) > changeThreshold {
		p.value = raw
	}
	return false
}

// Encoder is the sending half of a Temporal RVL stream. It is not safe for
// concurrent use; frames must be passed in capture order.
type Encoder struct {
	pixels           []pixel
	diff             []uint16
	changeThreshold  uint16
	invalidThreshold uint32

	log   Logger
	hooks Hooks
}

// NewEncoder builds an encoder for frames of exactly frameSize samples.
// changeThreshold is the smallest change that replaces a held value;
// invalidThreshold is how many consecutive invalid readings reset a pixel.
// Neither is transmitted: the decoder only applies diffs.
func NewEncoder(frameSize int, changeThreshold uint16, invalidThreshold uint32, opts Options) (*Encoder, error) {
	if frameSize <= 0 {
		return nil, fmt.Errorf("%w: frame size %d", ErrInvalidConfig, frameSize)
	}
	return &Encoder{
		pixels:           make([]pixel, frameSize),
		diff:             make([]uint16, frameSize),
		changeThreshold:  changeThreshold,
		invalidThreshold: invalidThreshold,
		log:              opts.logger(),
		hooks:            opts.hooks(),
	}, nil
}

func (e *Encoder) FrameSize() int { return len(e.pixels) }

// Encode compresses frame into a new buffer owned by the caller. The frame
// must not be mutated while Encode runs.
func (e *Encoder) Encode(frame []uint16, keyframe bool) ([]byte, error) {
	return e.AppendEncode(make([]byte, 0, len(e.pixels)), frame, keyframe)
}

// AppendEncode is Encode appending to dst.
func (e *Encoder) AppendEncode(dst []byte, frame []uint16, keyframe bool) ([]byte, error) {
	if len(frame) != len(e.pixels) {
		err := &SizeMismatchError{Op: "encode", Want: len(e.pixels), Got: len(frame)}
		e.hooks.FrameRejected("encode", "size_mismatch", err)
		return dst, err
	}

	if keyframe {
		for i, raw := range frame {
			e.pixels[i].value = raw
			if raw == 0 {
				e.pixels[i].invalidRun = 1
			} else {
				e.pixels[i].invalidRun = 0
			}
		}
		out := rvl.AppendCompress(dst, frame)
		e.hooks.KeyframeEncoded(len(frame), len(out)-len(dst))
		e.log.Debug("keyframe encoded", Fields{"samples": len(frame), "bytes": len(out) - len(dst)})
		return out, nil
	}

	resets := 0
	for i, raw := range frame {
		p := &e.pixels[i]
		old := p.value
		if p.update(raw, e.changeThreshold, e.invalidThreshold) {
			resets++
		}
		e.diff[i] = p.value - old // wraps; the decoder adds with the same wrap
	}
	if resets > 0 {
		e.hooks.PixelsInvalidated(resets)
	}
	return rvl.AppendCompress(dst, e.diff), nil
}

// State returns a copy of every pixel's held value: the frame a decoder fed
// the same stream reconstructs.
func (e *Encoder) State() []uint16 {
	out := make([]uint16, len(e.pixels))
	for i := range e.pixels {
		out[i] = e.pixels[i].value
	}
	return out
}

// Reset forgets all pixel state. The next frame should be a keyframe.
func (e *Encoder) Reset() {
	clear(e.pixels)
	e.log.Debug("encoder reset", Fields{"samples": len(e.pixels)})
}
