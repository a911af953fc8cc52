// Package asynchook moves trvl.Hooks calls off the frame path.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    KeyframeEvery: 30, // ~one line per 30 keyframes
//	})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	enc, _ := trvl.NewEncoder(w*h, 10, 2, trvl.Options{Hooks: hooks})
//
// Events are dropped when the queue is full; the encoder never waits.
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/trvl"
)

type Hooks struct {
	inner   trvl.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ trvl.Hooks = (*Hooks)(nil)

func New(inner trvl.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events fired after
// Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) KeyframeEncoded(s, e int) { h.try(func() { h.inner.KeyframeEncoded(s, e) }) }
func (h *Hooks) PixelsInvalidated(n int)  { h.try(func() { h.inner.PixelsInvalidated(n) }) }
func (h *Hooks) FrameRejected(op, r string, err error) {
	h.try(func() { h.inner.FrameRejected(op, r, err) })
}
func (h *Hooks) Desync(d uint16, want, got uint32) {
	h.try(func() { h.inner.Desync(d, want, got) })
}
func (h *Hooks) StaleFrame(d uint16, last, got uint32) {
	h.try(func() { h.inner.StaleFrame(d, last, got) })
}
func (h *Hooks) KeyframeCacheMiss(d uint16, r string) {
	h.try(func() { h.inner.KeyframeCacheMiss(d, r) })
}
