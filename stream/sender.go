package stream

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/trvl"
	"github.com/unkn0wn-root/trvl/internal/wire"
	"github.com/unkn0wn-root/trvl/rvl"
)

// Sender turns captured depth frames of one device into packets. It is not
// safe for concurrent use.
type Sender struct {
	cfg     Config
	method  Method
	session uuid.UUID

	sched *trvl.Scheduler
	enc   *trvl.Encoder // nil for MethodRVL
	buf   []byte

	keyframes *KeyframeCache
	published bool // session epoch started in the cache
	log       trvl.Logger
	hooks     trvl.Hooks
}

// NewSender validates cfg (after applying defaults) and starts a new session.
func NewSender(cfg Config, opts Options) (*Sender, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	method, _ := ParseMethod(cfg.Method)

	session, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("stream: session id: %w", err)
	}

	s := &Sender{
		cfg:       cfg,
		method:    method,
		session:   session,
		sched:     trvl.NewScheduler(cfg.KeyframeInterval),
		keyframes: opts.Keyframes,
		log:       opts.logger(),
		hooks:     opts.hooks(),
	}
	if err := s.rebuild(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sender) rebuild() error {
	n := s.cfg.Width * s.cfg.Height
	s.buf = make([]byte, 0, rvl.RepositoryBound(n))
	if s.method != MethodTemporalRVL {
		s.enc = nil
		return nil
	}
	enc, err := trvl.NewEncoder(n, s.cfg.ChangeThreshold, s.cfg.InvalidThreshold,
		trvl.Options{Logger: s.log, Hooks: s.hooks})
	if err != nil {
		return err
	}
	s.enc = enc
	return nil
}

// Info is the descriptor to announce to receivers before the first packet
// and again after Reconfigure.
func (s *Sender) Info() Info {
	return Info{
		SessionID:        s.session,
		Device:           s.cfg.Device,
		Width:            uint16(s.cfg.Width),
		Height:           uint16(s.cfg.Height),
		Method:           s.method,
		FPS:              s.cfg.FPS,
		KeyframeInterval: s.cfg.KeyframeInterval,
	}
}

// ForceKeyframe makes the next frame a keyframe, e.g. when a viewer asks to
// resynchronize.
func (s *Sender) ForceKeyframe() { s.sched.ForceKeyframe() }

// Send encodes frame and returns a packet owned by the caller. With a
// keyframe cache configured every packet is also published to it; a failed
// publish is logged and does not fail the frame.
func (s *Sender) Send(ctx context.Context, frame []uint16) ([]byte, Stats, error) {
	n := s.cfg.Width * s.cfg.Height
	if len(frame) != n {
		err := &trvl.SizeMismatchError{Op: "send", Want: n, Got: len(frame)}
		s.hooks.FrameRejected("send", "size_mismatch", err)
		return nil, Stats{}, err
	}

	seq, keyframe := s.sched.Next()

	var err error
	if s.enc != nil {
		s.buf, err = s.enc.AppendEncode(s.buf[:0], frame, keyframe)
		if err != nil {
			return nil, Stats{}, err
		}
	} else {
		s.buf = rvl.AppendCompress(s.buf[:0], frame)
	}

	// plain RVL frames never depend on earlier ones
	standalone := keyframe || s.method == MethodRVL
	h := Header{
		Method:   byte(s.method),
		Keyframe: standalone,
		Device:   s.cfg.Device,
		Seq:      seq,
		Width:    uint16(s.cfg.Width),
		Height:   uint16(s.cfg.Height),
	}
	packet := wire.EncodePacket(h, s.buf)

	if s.keyframes != nil {
		if err := s.publish(ctx, packet, standalone); err != nil {
			s.log.Warn("cache publish failed", trvl.Fields{"device": s.cfg.Device, "seq": seq, "keyframe": standalone, "err": err})
		}
	}

	st := Stats{
		Seq:          seq,
		Keyframe:     h.Keyframe,
		RawBytes:     2 * n,
		EncodedBytes: len(s.buf),
		Ratio:        rvl.Ratio(n, len(s.buf)),
	}
	return packet, st, nil
}

// publish hands packet to the keyframe cache: standalone packets replace the
// cached keyframe, diffs extend its chain. The first publish of a session
// starts a new epoch so diffs left by an earlier session with the same
// sequence numbers are never replayed.
func (s *Sender) publish(ctx context.Context, packet []byte, standalone bool) error {
	if !s.published {
		if _, err := s.keyframes.Invalidate(ctx, s.cfg.Device); err != nil {
			return err
		}
		s.published = true
	}
	if standalone {
		return s.keyframes.Put(ctx, s.cfg.Device, packet)
	}
	return s.keyframes.Append(ctx, s.cfg.Device, packet)
}

// Reconfigure switches to a new frame geometry. The encoder state is
// discarded, cached keyframes are invalidated and the next frame is a
// keyframe. The session ID is kept.
func (s *Sender) Reconfigure(ctx context.Context, width, height int) error {
	if err := validateSize(width, height); err != nil {
		return err
	}
	if width == s.cfg.Width && height == s.cfg.Height {
		return nil
	}

	s.cfg.Width, s.cfg.Height = width, height
	if err := s.rebuild(); err != nil {
		return err
	}
	s.sched.ForceKeyframe()

	if s.keyframes != nil {
		if _, err := s.keyframes.Invalidate(ctx, s.cfg.Device); err != nil {
			return fmt.Errorf("stream: reconfigure: %w", err)
		}
	}
	s.log.Info("stream reconfigured", trvl.Fields{"device": s.cfg.Device, "width": width, "height": height})
	return nil
}
