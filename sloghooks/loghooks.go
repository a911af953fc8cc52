// Package sloghooks implements trvl.Hooks on top of log/slog with optional
// sampling for the per-frame events.
package sloghooks

import (
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/trvl"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	KeyframeEvery   uint64
	InvalidateEvery uint64
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	keyframeCtr   atomic.Uint64
	invalidateCtr atomic.Uint64
}

var _ trvl.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) KeyframeEncoded(samples, encoded int) {
	if h.l == nil || !sample(h.opts.KeyframeEvery, &h.keyframeCtr) {
		return
	}
	h.l.Debug("trvl.keyframe_encoded",
		"samples", samples,
		"bytes", encoded)
}

func (h *Hooks) PixelsInvalidated(count int) {
	if h.l == nil || !sample(h.opts.InvalidateEvery, &h.invalidateCtr) {
		return
	}
	h.l.Debug("trvl.pixels_invalidated",
		"count", count)
}

func (h *Hooks) FrameRejected(op, reason string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("trvl.frame_rejected",
		"op", op,
		"reason", reason,
		"err", err)
}

func (h *Hooks) Desync(device uint16, want, got uint32) {
	if h.l == nil {
		return
	}
	h.l.Warn("trvl.desync",
		"device", device,
		"want_seq", want,
		"got_seq", got)
}

func (h *Hooks) StaleFrame(device uint16, last, got uint32) {
	if h.l == nil {
		return
	}
	h.l.Info("trvl.stale_frame",
		"device", device,
		"last_seq", last,
		"got_seq", got)
}

func (h *Hooks) KeyframeCacheMiss(device uint16, reason string) {
	if h.l == nil {
		return
	}
	h.l.Info("trvl.keyframe_cache_miss",
		"device", device,
		"reason", reason)
}
