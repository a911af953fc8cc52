package asynchook

import (
	"sync"
	"testing"

	"github.com/unkn0wn-root/trvl"
)

type recorder struct {
	trvl.NopHooks
	mu        sync.Mutex
	keyframes int
	misses    []string
	block     chan struct{}
}

func (r *recorder) KeyframeEncoded(int, int) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	r.keyframes++
	r.mu.Unlock()
}

func (r *recorder) KeyframeCacheMiss(_ uint16, reason string) {
	r.mu.Lock()
	r.misses = append(r.misses, reason)
	r.mu.Unlock()
}

func TestDeliversAndDrainsOnClose(t *testing.T) {
	rec := &recorder{}
	h := New(rec, 2, 100)
	for i := 0; i < 10; i++ {
		h.KeyframeEncoded(4, 4)
	}
	h.KeyframeCacheMiss(1, "miss")
	h.Close()

	if rec.keyframes != 10 || len(rec.misses) != 1 {
		t.Fatalf("keyframes=%d misses=%v", rec.keyframes, rec.misses)
	}
	if h.Dropped() != 0 {
		t.Fatalf("dropped=%d want 0", h.Dropped())
	}
}

func TestDropsWhenFull(t *testing.T) {
	rec := &recorder{block: make(chan struct{})}
	h := New(rec, 1, 1)
	h.KeyframeEncoded(1, 1) // picked up by the worker, which blocks
	for i := 0; i < 10; i++ {
		h.KeyframeEncoded(1, 1)
	}
	close(rec.block)
	h.Close()
	if h.Dropped() == 0 {
		t.Fatalf("expected drops with a full queue")
	}
}

func TestFireAfterCloseIsDropped(t *testing.T) {
	h := New(&recorder{}, 1, 1)
	h.Close()
	h.Desync(0, 1, 2) // must not panic on closed channel
	if h.Dropped() != 1 {
		t.Fatalf("dropped=%d want 1", h.Dropped())
	}
}
