package trvl

// Hooks are lightweight callbacks for high-signal codec and stream events.
// Implementations MUST be cheap and non-blocking: they run on the per-frame
// hot path.
type Hooks interface {
	// A keyframe was encoded. samples is the frame size, encoded the output size in bytes.
	KeyframeEncoded(samples, encoded int)

	// Pixels were reset to invalid on a non-keyframe after reaching InvalidThreshold.
	PixelsInvalidated(count int)

	// A frame was rejected.
	// reason ∈ {"size_mismatch", "corrupt", "device", "method"}
	FrameRejected(op, reason string, err error)

	// A receiver saw a sequence gap and now waits for a keyframe.
	Desync(device uint16, want, got uint32)

	// A receiver dropped a frame that was older than the last one applied.
	StaleFrame(device uint16, last, got uint32)

	// A late joiner found no usable cached keyframe.
	// reason ∈ {"miss", "corrupt", "stale_epoch", "error"}
	KeyframeCacheMiss(device uint16, reason string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) KeyframeEncoded(int, int)            {}
func (NopHooks) PixelsInvalidated(int)               {}
func (NopHooks) FrameRejected(string, string, error) {}
func (NopHooks) Desync(uint16, uint32, uint32)       {}
func (NopHooks) StaleFrame(uint16, uint32, uint32)   {}
func (NopHooks) KeyframeCacheMiss(uint16, string)    {}
