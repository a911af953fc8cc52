package trvl

// Options carry the ambient collaborators of an Encoder or Decoder.
// The zero value is valid: logging and hooks are disabled.
type Options struct {
	Logger Logger // if nil, NopLogger is used
	Hooks  Hooks  // if nil, NopHooks is used
}

func (o Options) logger() Logger { return coalesce[Logger](o.Logger, NopLogger{}) }
func (o Options) hooks() Hooks   { return coalesce[Hooks](o.Hooks, NopHooks{}) }

// AbsDiff writes |a[i] - b[i]| into out, e.g. to visualise how far the
// decoded (held) frame is from the raw capture. All three must share a length.
func AbsDiff(a, b, out []uint16) error {
	if len(a) != len(b) {
		return &SizeMismatchError{Op: "absdiff", Want: len(a), Got: len(b)}
	}
	if len(out) != len(a) {
		return &SizeMismatchError{Op: "absdiff", Want: len(a), Got: len(out)}
	}
	for i := range a {
		out[i] = absDiff(a[i], b[i])
	}
	return nil
}

func absDiff(x, y uint16) uint16 {
	if x > y {
		return x - y
	}
	return y - x
}
