package trvl

import (
	"errors"
	"fmt"

	"github.com/unkn0wn-root/trvl/rvl"
)

var (
	ErrSizeMismatch  = errors.New("trvl: frame size mismatch")
	ErrInvalidConfig = errors.New("trvl: invalid configuration")

	// ErrCorrupt is rvl.ErrCorrupt; errors.Is matches either.
	ErrCorrupt = rvl.ErrCorrupt
)

// SizeMismatchError reports a frame or buffer whose sample count differs from
// the size the encoder/decoder was built for.
type SizeMismatchError struct {
	Op   string
	Want int
	Got  int
}

func (e *SizeMismatchError) Error() string {
	switch {
	case e.Op == "":
		return fmt.Sprintf("trvl: frame size mismatch: want %d samples, got %d", e.Want, e.Got)
	default:
		return fmt.Sprintf("trvl: %s: frame size mismatch: want %d samples, got %d", e.Op, e.Want, e.Got)
	}
}

func (e *SizeMismatchError) Unwrap() error { return ErrSizeMismatch }
