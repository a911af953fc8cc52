package stream

import (
	"context"
	"fmt"

	"github.com/unkn0wn-root/trvl"
	"github.com/unkn0wn-root/trvl/internal/wire"
	"github.com/unkn0wn-root/trvl/rvl"
)

// Receiver reconstructs the depth frames of one device from its packets. It
// is not safe for concurrent use.
//
// Packets must be fed in arrival order. Older or repeated packets are dropped
// with ErrStale. After a sequence gap or an undecodable frame the receiver
// rejects Temporal RVL diffs with ErrDesync until a keyframe arrives.
type Receiver struct {
	device uint16

	method Method
	width  uint16
	height uint16
	dec    *trvl.Decoder // MethodTemporalRVL
	frame  []uint16      // MethodRVL

	last    uint32
	started bool
	synced  bool

	keyframes *KeyframeCache
	log       trvl.Logger
	hooks     trvl.Hooks
}

func NewReceiver(device uint16, opts Options) *Receiver {
	return &Receiver{
		device:    device,
		keyframes: opts.Keyframes,
		log:       opts.logger(),
		hooks:     opts.hooks(),
	}
}

// Reset forgets the sequence history, e.g. when a descriptor with a new
// session ID announces that the sender restarted. The next frame applied must
// be a keyframe.
func (r *Receiver) Reset() {
	r.last, r.started, r.synced = 0, false, false
}

// Synced reports whether the next Temporal RVL diff can be applied.
func (r *Receiver) Synced() bool { return r.synced }

// Receive parses packet and returns the reconstructed frame with its header.
// The frame is owned by the receiver and valid until the next call.
func (r *Receiver) Receive(packet []byte) ([]uint16, Header, error) {
	h, payload, err := wire.DecodePacket(packet)
	if err != nil {
		r.hooks.FrameRejected("receive", "corrupt", err)
		return nil, Header{}, fmt.Errorf("stream: receive: %w", err)
	}
	if h.Device != r.device {
		r.hooks.FrameRejected("receive", "device", ErrDevice)
		return nil, h, fmt.Errorf("%w: want %d, got %d", ErrDevice, r.device, h.Device)
	}
	m := Method(h.Method)
	if !m.Valid() {
		r.hooks.FrameRejected("receive", "method", ErrMethod)
		return nil, h, fmt.Errorf("%w: %d", ErrMethod, h.Method)
	}
	if h.Samples() == 0 {
		r.hooks.FrameRejected("receive", "corrupt", wire.ErrCorrupt)
		return nil, h, fmt.Errorf("stream: receive: empty frame %dx%d: %w", h.Width, h.Height, wire.ErrCorrupt)
	}

	if r.started && h.Seq <= r.last {
		r.hooks.StaleFrame(r.device, r.last, h.Seq)
		return nil, h, fmt.Errorf("%w: last %d, got %d", ErrStale, r.last, h.Seq)
	}
	want := r.last + 1
	gap := r.started && h.Seq != want
	r.last, r.started = h.Seq, true

	if !h.Keyframe {
		switch {
		case m != r.method || h.Width != r.width || h.Height != r.height:
			// geometry or method changed; only a keyframe can carry that
			r.desync(want, h.Seq)
			return nil, h, fmt.Errorf("%w: stream changed without a keyframe", ErrDesync)
		case gap:
			r.desync(want, h.Seq)
			return nil, h, fmt.Errorf("%w: sequence gap at %d", ErrDesync, h.Seq)
		case !r.synced:
			return nil, h, ErrDesync
		}
	}

	if err := r.ensure(m, h.Width, h.Height); err != nil {
		return nil, h, err
	}

	var frame []uint16
	if m == MethodTemporalRVL {
		frame, err = r.dec.Decode(payload, h.Keyframe)
	} else {
		err = rvl.Decompress(payload, r.frame)
		frame = r.frame
	}
	if err != nil {
		if m == MethodRVL {
			r.hooks.FrameRejected("receive", "corrupt", err)
			return nil, h, fmt.Errorf("stream: receive: %w", err)
		}
		r.desync(h.Seq, h.Seq)
		return nil, h, fmt.Errorf("%w: %w", ErrDesync, err)
	}

	if !r.synced {
		r.log.Info("receiver synchronized", trvl.Fields{"device": r.device, "seq": h.Seq})
	}
	r.synced = true
	return frame, h, nil
}

// desync records the loss of encoder state; the hook fires once per loss.
func (r *Receiver) desync(want, got uint32) {
	if !r.synced {
		return
	}
	r.synced = false
	r.hooks.Desync(r.device, want, got)
	r.log.Warn("receiver desynchronized", trvl.Fields{"device": r.device, "want_seq": want, "got_seq": got})
}

func (r *Receiver) ensure(m Method, width, height uint16) error {
	if m == r.method && width == r.width && height == r.height && (r.dec != nil || r.frame != nil) {
		return nil
	}
	n := int(width) * int(height)
	r.dec, r.frame = nil, nil
	if m == MethodTemporalRVL {
		dec, err := trvl.NewDecoder(n, trvl.Options{Logger: r.log, Hooks: r.hooks})
		if err != nil {
			return err
		}
		r.dec = dec
	} else {
		r.frame = make([]uint16, n)
	}
	if r.method != 0 {
		r.log.Info("receiver reconfigured", trvl.Fields{"device": r.device, "method": m.String(), "width": width, "height": height})
	}
	r.method, r.width, r.height = m, width, height
	return nil
}

// Bootstrap brings a receiver that is not in sync up to the live stream by
// replaying the cached keyframe and the diffs cached after it. Live packets
// the replay already covered are then dropped as stale and the next one
// applies normally. It reports whether a frame was applied and returns the
// newest one; a synced receiver or an empty cache yields (nil, false, nil).
func (r *Receiver) Bootstrap(ctx context.Context) ([]uint16, bool, error) {
	if r.keyframes == nil || r.synced {
		return nil, false, nil
	}
	chain, err := r.keyframes.Chain(ctx, r.device)
	if err != nil || len(chain) == 0 {
		return nil, false, err
	}

	// any sequence seen so far belongs to packets we could not use
	r.Reset()
	var frame []uint16
	for _, packet := range chain {
		if frame, _, err = r.Receive(packet); err != nil {
			return nil, false, fmt.Errorf("stream: bootstrap: %w", err)
		}
	}
	r.log.Debug("receiver bootstrapped", trvl.Fields{"device": r.device, "packets": len(chain), "seq": r.last})
	return frame, true, nil
}
