package trvl

const (
	// DefaultChangeThreshold is the jitter floor used by the reference streaming client.
	DefaultChangeThreshold uint16 = 10
	// DefaultInvalidThreshold resets a pixel after two invalid readings in a row.
	DefaultInvalidThreshold uint32 = 2
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
