package nibble

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func mustReadVLE(t *testing.T, r *Reader) uint32 {
	t.Helper()
	v, err := r.ReadVLE()
	if err != nil {
		t.Fatalf("ReadVLE error: %v", err)
	}
	return v
}

func TestZeroIsSingleNibble(t *testing.T) {
	w := NewWriter(nil)
	w.WriteVLE(0)
	if w.Pending() != 1 {
		t.Fatalf("pending=%d want 1", w.Pending())
	}
	w.Flush()
	if got := w.Bytes(); !bytes.Equal(got, []byte{0, 0, 0, 0}) {
		t.Fatalf("got %x want 00000000", got)
	}
}

func TestWordLayout(t *testing.T) {
	// 1..8 fill exactly one word: nibbles 1,2,...,7 then 8 = 0x8 (cont) + 0x1.
	// That is 9 nibbles, so the second word holds a single left-aligned nibble.
	w := NewWriter(nil)
	for v := uint32(1); v <= 8; v++ {
		w.WriteVLE(v)
	}
	w.Flush()
	got := w.Bytes()
	// word0 = 0x12345678 -> LE bytes 78 56 34 12 ; word1 = 0x10000000 -> 00 00 00 10
	want := []byte{0x78, 0x56, 0x34, 0x12, 0x00, 0x00, 0x00, 0x10}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %x want %x", got, want)
	}
}

func TestFlushOnBoundaryIsNoop(t *testing.T) {
	w := NewWriter(nil)
	for i := 0; i < 8; i++ {
		w.WriteVLE(1)
	}
	w.Flush()
	if n := len(w.Bytes()); n != 4 {
		t.Fatalf("len=%d want 4", n)
	}
}

func TestVLERoundTrip(t *testing.T) {
	vals := []uint32{0, 1, 7, 8, 63, 64, 511, 512, 0xFFFF, 1 << 20, math.MaxUint32}
	w := NewWriter(nil)
	for _, v := range vals {
		w.WriteVLE(v)
	}
	w.Flush()

	r := NewReader(w.Bytes())
	for i, want := range vals {
		if got := mustReadVLE(t, r); got != want {
			t.Fatalf("value %d: got %d want %d", i, got, want)
		}
	}
}

func TestReaderShortBuffer(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03}) // not a whole word
	if _, err := r.ReadVLE(); !errors.Is(err, ErrShortBuffer) {
		t.Fatalf("expected ErrShortBuffer, got %v", err)
	}

	// Continuation bit set on the last nibble of the only word.
	r.Reset([]byte{0x88, 0x88, 0x88, 0x88})
	if _, err := r.ReadVLE(); !errors.Is(err, ErrShortBuffer) {
		t.Fatalf("expected ErrShortBuffer on dangling continuation, got %v", err)
	}
}

func TestReaderOverflow(t *testing.T) {
	// 16 continuation nibbles never terminate within the 11-nibble limit.
	b := []byte{0x99, 0x99, 0x99, 0x99, 0x99, 0x99, 0x99, 0x99}
	if _, err := NewReader(b).ReadVLE(); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestWriterResetReusesBuffer(t *testing.T) {
	buf := make([]byte, 0, 16)
	w := NewWriter(buf)
	w.WriteVLE(5)
	w.Reset(buf[:0])
	if w.Pending() != 0 || len(w.Bytes()) != 0 {
		t.Fatalf("reset did not clear state")
	}
	w.WriteVLE(3)
	w.Flush()
	if v := mustReadVLE(t, NewReader(w.Bytes())); v != 3 {
		t.Fatalf("got %d want 3", v)
	}
}

func TestReaderDrained(t *testing.T) {
	w := NewWriter(nil)
	w.WriteVLE(5)
	w.WriteVLE(9)
	w.Flush()
	b := w.Bytes()

	r := NewReader(b)
	if r.Drained() {
		t.Fatalf("drained before reading")
	}
	mustReadVLE(t, r)
	if r.Drained() {
		t.Fatalf("drained with a value left")
	}
	mustReadVLE(t, r)
	if !r.Drained() {
		t.Fatalf("only padding left, want drained")
	}

	r.Reset(append(append([]byte(nil), b...), 0, 0, 0, 0))
	mustReadVLE(t, r)
	mustReadVLE(t, r)
	if r.Drained() {
		t.Fatalf("a whole word remains, want not drained")
	}
}
