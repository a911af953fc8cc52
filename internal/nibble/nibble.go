// Package nibble implements the variable-length integer substrate of RVL.
//
// A value is split into 3-bit groups, least significant first. Each group is
// carried in the low 3 bits of a nibble; bit 3 is set when more groups follow.
// Nibbles are packed eight per 32-bit word, first nibble in the top bits, and
// every word is stored as 4 little-endian bytes.
package nibble

import (
	"encoding/binary"
	"errors"
)

const (
	nibblesPerWord = 8
	wordBytes      = 4

	// maxNibbles bounds a single value: 11 groups cover 33 bits.
	maxNibbles = 11
)

var (
	ErrShortBuffer = errors.New("nibble: buffer exhausted")
	ErrOverflow    = errors.New("nibble: value exceeds 32 bits")
)

// Writer packs nibbles into words. The zero value is ready to use.
type Writer struct {
	out     []byte
	word    uint32
	pending int
}

// NewWriter returns a Writer that appends to dst.
func NewWriter(dst []byte) *Writer {
	return &Writer{out: dst}
}

// Reset discards buffered state and starts appending to dst.
func (w *Writer) Reset(dst []byte) {
	w.out = dst
	w.word = 0
	w.pending = 0
}

func (w *Writer) WriteNibble(n uint8) {
	w.word = w.word<<4 | uint32(n&0xF)
	w.pending++
	if w.pending == nibblesPerWord {
		w.out = binary.LittleEndian.AppendUint32(w.out, w.word)
		w.word = 0
		w.pending = 0
	}
}

// WriteVLE appends v as a self-terminating nibble sequence. Zero is a single
// 0000 nibble.
func (w *Writer) WriteVLE(v uint32) {
	for {
		n := uint8(v & 0x7)
		v >>= 3
		if v != 0 {
			n |= 0x8
		}
		w.WriteNibble(n)
		if v == 0 {
			return
		}
	}
}

// Flush left-aligns a partially filled word and appends it. Flush on a word
// boundary is a no-op.
func (w *Writer) Flush() {
	if w.pending == 0 {
		return
	}
	w.out = binary.LittleEndian.AppendUint32(w.out, w.word<<(4*(nibblesPerWord-w.pending)))
	w.word = 0
	w.pending = 0
}

// Bytes returns everything appended so far. Call Flush first to include a
// partial word.
func (w *Writer) Bytes() []byte { return w.out }

// Pending reports how many nibbles are buffered in the current word.
func (w *Writer) Pending() int { return w.pending }

// Reader unpacks nibbles written by Writer. Trailing bytes that do not form a
// whole word are never read.
type Reader struct {
	in    []byte
	off   int
	word  uint32
	avail int
}

func NewReader(b []byte) *Reader {
	return &Reader{in: b}
}

// Reset rewinds the reader onto b.
func (r *Reader) Reset(b []byte) {
	r.in = b
	r.off = 0
	r.word = 0
	r.avail = 0
}

func (r *Reader) ReadNibble() (uint8, error) {
	if r.avail == 0 {
		if len(r.in)-r.off < wordBytes {
			return 0, ErrShortBuffer
		}
		r.word = binary.LittleEndian.Uint32(r.in[r.off : r.off+wordBytes])
		r.off += wordBytes
		r.avail = nibblesPerWord
	}
	n := uint8(r.word >> 28)
	r.word <<= 4
	r.avail--
	return n, nil
}

// ReadVLE decodes one value written by WriteVLE.
func (r *Reader) ReadVLE() (uint32, error) {
	var v uint64
	for i := 0; i < maxNibbles; i++ {
		n, err := r.ReadNibble()
		if err != nil {
			return 0, err
		}
		v |= uint64(n&0x7) << (3 * i)
		if n&0x8 == 0 {
			if v > 0xFFFFFFFF {
				return 0, ErrOverflow
			}
			return uint32(v), nil
		}
	}
	return 0, ErrOverflow
}

// Drained reports whether nothing but padding is left: the unread nibbles of
// the current word are zero and no whole word remains. Trailing bytes that do
// not form a word are ignored, as on every read.
func (r *Reader) Drained() bool {
	return r.word == 0 && len(r.in)-r.off < wordBytes
}

// Consumed reports how many input bytes have been pulled into words.
func (r *Reader) Consumed() int { return r.off }
