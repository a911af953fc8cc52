// Package genstore keeps a generation counter per depth stream.
//
// A stream's generation is bumped whenever its encoding parameters change
// (resolution, compression method). Cached keyframes are stamped with the
// generation they were produced under and rejected once it moves on, so a
// late joiner never bootstraps from a frame of the wrong size.
package genstore

import (
	"context"
	"time"
)

// GenStore abstracts where generations live.
// Use LocalGenStore for a single process, or RedisGenStore when senders and
// receivers share keyframes across nodes.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(ctx context.Context, stream string) (uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, stream string) (uint64, error)
	// Cleanup prunes streams not bumped within retention (no-op for Redis).
	Cleanup(retention time.Duration)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}
