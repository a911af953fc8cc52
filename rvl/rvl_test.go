package rvl

import (
	"encoding/binary"
	"errors"
	"math/rand"
	"slices"
	"testing"
)

func mustDecompress(t *testing.T, b []byte, n int) []uint16 {
	t.Helper()
	out := make([]uint16, n)
	if err := Decompress(b, out); err != nil {
		t.Fatalf("Decompress error: %v", err)
	}
	return out
}

func TestConcreteScenario(t *testing.T) {
	in := []uint16{0, 0, 0, 5, 5, 6, 0, 0}
	enc := Compress(in)
	if len(enc)%4 != 0 {
		t.Fatalf("encoded length %d is not word aligned", len(enc))
	}
	got := mustDecompress(t, enc, len(in))
	if !slices.Equal(got, in) {
		t.Fatalf("got %v want %v", got, in)
	}
}

func TestConcreteScenarioBytes(t *testing.T) {
	// zeros=3 | nonzeros=3 | zz(5)=10 -> 2,9 | zz(0)=0 | zz(1)=2 | zeros=2 | nonzeros=0
	// nibbles: 3 3 A 1 0 2 2 0 -> word 0x33A10220
	enc := Compress([]uint16{0, 0, 0, 5, 5, 6, 0, 0})
	if len(enc) != 4 {
		t.Fatalf("len=%d want 4", len(enc))
	}
	if w := binary.LittleEndian.Uint32(enc); w != 0x33A10220 {
		t.Fatalf("word=%08x want 33a10220", w)
	}
}

func TestRoundTripShapes(t *testing.T) {
	cases := map[string][]uint16{
		"empty":        nil,
		"single zero":  {0},
		"single value": {1234},
		"all max":      {65535, 65535, 65535},
		"extremes":     {1, 65535, 1, 32768, 32767, 0, 40000, 30000},
		"leading vals": {9, 9, 0, 0, 0, 0, 0, 0, 0, 0, 0, 3},
		"trailing 0":   {7, 0},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			got := mustDecompress(t, Compress(in), len(in))
			if !slices.Equal(got, in) {
				t.Fatalf("got %v want %v", got, in)
			}
		})
	}
}

func TestRoundTripRandomDepth(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 50; iter++ {
		n := rng.Intn(5000)
		in := make([]uint16, n)
		v := 800 + rng.Intn(400)
		for i := range in {
			switch {
			case rng.Intn(10) == 0:
				in[i] = 0
			case rng.Intn(50) == 0:
				in[i] = uint16(rng.Intn(65536))
			default:
				v += rng.Intn(9) - 4
				in[i] = uint16(v)
			}
		}
		got := mustDecompress(t, Compress(in), n)
		if !slices.Equal(got, in) {
			t.Fatalf("iteration %d: round trip mismatch", iter)
		}
	}
}

func TestAllZeroIsConstantSize(t *testing.T) {
	small := Compress(make([]uint16, 64))
	large := Compress(make([]uint16, 640*576))
	if len(small) != 4 || len(large) > 8 {
		t.Fatalf("all-zero frames should be tiny: small=%d large=%d", len(small), len(large))
	}
	got := mustDecompress(t, large, 640*576)
	for i, v := range got {
		if v != 0 {
			t.Fatalf("sample %d = %d want 0", i, v)
		}
	}
}

func TestSmallDeltasAroundOneNibblePerSample(t *testing.T) {
	const n = 4096
	in := make([]uint16, n)
	v := 1000
	for i := range in {
		v += i%7 - 3 // deltas in [-3, 3]
		in[i] = uint16(v)
	}
	enc := Compress(in)
	if len(enc) > n/2+16 {
		t.Fatalf("encoded %d bytes, want about %d", len(enc), n/2)
	}
	if got := mustDecompress(t, enc, n); !slices.Equal(got, in) {
		t.Fatalf("round trip mismatch")
	}
}

// Deltas up to 7 in magnitude zig-zag to values up to 14, which take two
// nibbles once they exceed 7. The output then sits between N/2 and N bytes,
// still well under the 2N raw bytes.
func TestDeltasUpToSeven(t *testing.T) {
	const n = 4096
	in := make([]uint16, n)
	v := 2000
	for i := range in {
		d := i%15 - 7 // deltas in [-7, 7]
		v += d
		in[i] = uint16(v)
	}
	enc := Compress(in)
	if len(enc) > n+16 {
		t.Fatalf("encoded %d bytes, want at most about %d", len(enc), n)
	}
	if len(enc) >= 2*n {
		t.Fatalf("no gain over raw: %d >= %d", len(enc), 2*n)
	}
	if got := mustDecompress(t, enc, n); !slices.Equal(got, in) {
		t.Fatalf("round trip mismatch")
	}
}

func TestWorstCaseWithinMaxCompressedLen(t *testing.T) {
	in := make([]uint16, 1000)
	for i := range in {
		if i%2 == 0 {
			in[i] = 1
		} else {
			in[i] = 40000
		}
	}
	enc := Compress(in)
	if len(enc) > MaxCompressedLen(len(in)) {
		t.Fatalf("encoded %d exceeds bound %d", len(enc), MaxCompressedLen(len(in)))
	}
	if got := mustDecompress(t, enc, len(in)); !slices.Equal(got, in) {
		t.Fatalf("round trip mismatch")
	}
}

func TestAppendCompressKeepsPrefix(t *testing.T) {
	prefix := []byte{0xAA, 0xBB}
	out := AppendCompress(append([]byte(nil), prefix...), []uint16{0, 3})
	if out[0] != 0xAA || out[1] != 0xBB {
		t.Fatalf("prefix clobbered: %x", out)
	}
	if got := mustDecompress(t, out[2:], 2); !slices.Equal(got, []uint16{0, 3}) {
		t.Fatalf("got %v", got)
	}
}

// legacyCompress mirrors encoders that zig-zag deltas in 32-bit arithmetic.
func legacyCompress(in []uint16) []byte {
	var words []uint32
	var word uint32
	written := 0
	put := func(v uint32) {
		for {
			nb := v & 7
			v >>= 3
			if v != 0 {
				nb |= 8
			}
			word = word<<4 | nb
			written++
			if written == 8 {
				words = append(words, word)
				word, written = 0, 0
			}
			if v == 0 {
				return
			}
		}
	}
	var prev int32
	for i := 0; i < len(in); {
		z := i
		for i < len(in) && in[i] == 0 {
			i++
		}
		put(uint32(i - z))
		s := i
		for i < len(in) && in[i] != 0 {
			i++
		}
		put(uint32(i - s))
		for _, v := range in[s:i] {
			cur := int32(int16(v))
			d := cur - prev
			put(uint32((d << 1) ^ (d >> 31)))
			prev = cur
		}
	}
	if written != 0 {
		words = append(words, word<<(4*(8-written)))
	}
	b := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(b[4*i:], w)
	}
	return b
}

func TestDecodesLegacy32BitZigzag(t *testing.T) {
	in := []uint16{40000, 30000, 0, 0, 65535, 1, 2, 0, 32768, 32767}
	got := mustDecompress(t, legacyCompress(in), len(in))
	if !slices.Equal(got, in) {
		t.Fatalf("got %v want %v", got, in)
	}
}

func TestCorruptRunOverrun(t *testing.T) {
	enc := Compress(make([]uint16, 100)) // zero run of 100
	out := make([]uint16, 10)
	err := Decompress(enc, out)
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestLargerFrameRejected(t *testing.T) {
	enc := Compress([]uint16{5, 5, 0, 0, 7, 7})
	// the first two samples end on a run boundary
	err := Decompress(enc, make([]uint16, 2))
	if !errors.Is(err, ErrCorrupt) || !errors.Is(err, ErrTrailingData) {
		t.Fatalf("expected ErrCorrupt+ErrTrailingData, got %v", err)
	}

	// a whole extra word is never padding
	padded := append(slices.Clone(enc), 0, 0, 0, 0)
	if err := Decompress(padded, make([]uint16, 6)); !errors.Is(err, ErrTrailingData) {
		t.Fatalf("extra word: expected ErrTrailingData, got %v", err)
	}

	// bytes short of a word are ignored
	ragged := append(slices.Clone(enc), 0xAB, 0xCD)
	got := mustDecompress(t, ragged, 6)
	if !slices.Equal(got, []uint16{5, 5, 0, 0, 7, 7}) {
		t.Fatalf("got %v", got)
	}
}

func TestExactFrameSizesAccepted(t *testing.T) {
	// every length exercises a different amount of word padding
	for n := 1; n <= 40; n++ {
		in := make([]uint16, n)
		for i := range in {
			if i%5 != 3 {
				in[i] = uint16(300 + 11*i)
			}
		}
		if got := mustDecompress(t, Compress(in), n); !slices.Equal(got, in) {
			t.Fatalf("n=%d: round trip mismatch", n)
		}
	}
}

func TestCorruptTruncated(t *testing.T) {
	in := make([]uint16, 64)
	for i := range in {
		in[i] = uint16(100 + i*37)
	}
	enc := Compress(in)
	err := Decompress(enc[:len(enc)-4], make([]uint16, len(in)))
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt on truncation, got %v", err)
	}
	if err := Decompress(nil, make([]uint16, 1)); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt on empty input, got %v", err)
	}
}

func TestCorruptEmptyPair(t *testing.T) {
	// word of all-zero nibbles: zeros=0, nonzeros=0 forever
	if err := Decompress([]byte{0, 0, 0, 0}, make([]uint16, 3)); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestZeroSamplesReadsNothing(t *testing.T) {
	if err := Decompress([]byte{0xFF}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRatio(t *testing.T) {
	if r := Ratio(100, 50); r != 4 {
		t.Fatalf("ratio=%v want 4", r)
	}
	if r := Ratio(100, 0); r != 0 {
		t.Fatalf("ratio=%v want 0", r)
	}
}
