// Package rvl implements RVL, a lossless single-frame codec for 16-bit depth
// images (A. D. Wilson, "Fast Lossless Depth Image Compression", 2017).
//
// A frame is scanned as alternating runs: a run of zero (invalid) samples and
// a run of nonzero samples. Both run lengths are VLE-encoded; each nonzero
// sample is then written as the zig-zag mapped delta to the previous nonzero
// sample. The stream carries no sample count: the decoder is told how many
// samples to reconstruct.
//
// Compressed output is always a whole number of 32-bit words.
package rvl

import (
	"errors"
	"fmt"

	"github.com/unkn0wn-root/trvl/internal/nibble"
)

// ErrCorrupt reports an encoded frame that does not describe exactly the
// requested number of samples.
var (
	ErrCorrupt = errors.New("rvl: corrupt frame")

	// ErrTrailingData marks a frame that holds more samples than requested,
	// usually one encoded for a larger resolution.
	ErrTrailingData = errors.New("rvl: trailing data")
)

// Compress encodes samples into a freshly allocated buffer.
func Compress(samples []uint16) []byte {
	return AppendCompress(make([]byte, 0, RepositoryBound(len(samples))), samples)
}

// AppendCompress appends the encoding of samples to dst and returns the
// extended buffer.
func AppendCompress(dst []byte, samples []uint16) []byte {
	w := nibble.NewWriter(dst)
	var prev int16
	n := len(samples)
	i := 0
	for i < n {
		zeros := i
		for i < n && samples[i] == 0 {
			i++
		}
		w.WriteVLE(uint32(i - zeros))

		start := i
		for i < n && samples[i] != 0 {
			i++
		}
		w.WriteVLE(uint32(i - start))

		for _, s := range samples[start:i] {
			cur := int16(s)
			w.WriteVLE(uint32(zigzag(cur - prev)))
			prev = cur
		}
	}
	w.Flush()
	return w.Bytes()
}

// Decompress reconstructs len(out) samples from data. out is only written
// within bounds; on error its contents are unspecified.
//
// data must end right after the last sample, apart from word padding: a
// stream that encodes more samples than len(out) fails with an error that
// matches both ErrCorrupt and ErrTrailingData.
func Decompress(data []byte, out []uint16) error {
	r := nibble.NewReader(data)
	var prev int32
	left := len(out)
	i := 0
	for left > 0 {
		zeros, err := r.ReadVLE()
		if err != nil {
			return corrupt("zero run", i, err)
		}
		if int64(zeros) > int64(left) {
			return fmt.Errorf("%w: zero run of %d at sample %d overruns %d remaining", ErrCorrupt, zeros, i, left)
		}
		clear(out[i : i+int(zeros)])
		i += int(zeros)
		left -= int(zeros)

		nonzeros, err := r.ReadVLE()
		if err != nil {
			return corrupt("value run", i, err)
		}
		if int64(nonzeros) > int64(left) {
			return fmt.Errorf("%w: value run of %d at sample %d overruns %d remaining", ErrCorrupt, nonzeros, i, left)
		}
		if zeros == 0 && nonzeros == 0 {
			// an empty pair can never advance; the stream is garbage
			return fmt.Errorf("%w: empty run pair at sample %d", ErrCorrupt, i)
		}
		left -= int(nonzeros)
		for end := i + int(nonzeros); i < end; i++ {
			z, err := r.ReadVLE()
			if err != nil {
				return corrupt("value", i, err)
			}
			// 32-bit unzigzag so both 16- and 32-bit encoders decode alike
			cur := prev + unzigzag(z)
			out[i] = uint16(cur)
			prev = int32(int16(cur))
		}
	}
	if len(out) > 0 && !r.Drained() {
		return fmt.Errorf("%w: %w: data continues after %d samples", ErrCorrupt, ErrTrailingData, len(out))
	}
	return nil
}

func corrupt(what string, at int, err error) error {
	return fmt.Errorf("%w: reading %s at sample %d: %w", ErrCorrupt, what, at, err)
}

func zigzag(d int16) uint16 { return uint16((d << 1) ^ (d >> 15)) }

func unzigzag(z uint32) int32 { return int32(z>>1) ^ -int32(z&1) }

// MaxCompressedLen is the worst-case encoded size of n samples: at most six
// value nibbles and one run nibble per sample, plus two for the final pair.
func MaxCompressedLen(n int) int {
	if n <= 0 {
		return 0
	}
	nibbles := 7*n + 2
	return 4 * ((nibbles + 7) / 8)
}

// RepositoryBound is the customary output buffer size for a frame of n
// samples (the raw frame size). Real depth frames compress well below it;
// pathological inputs can exceed it, see MaxCompressedLen.
func RepositoryBound(n int) int { return 2 * n }

// Ratio returns raw frame bytes over encoded bytes.
func Ratio(samples, encoded int) float64 {
	if encoded == 0 {
		return 0
	}
	return float64(2*samples) / float64(encoded)
}
