// Package provider defines the byte store behind the keyframe cache.
//
// The keyframe cache keeps the most recent keyframe packet of every stream,
// plus the diff packets sent after it, so that a receiver joining mid-stream
// can replay them and start decoding without waiting for the next scheduled
// keyframe.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly
// the []byte previously passed to Set for a key. Callers treat returned slices
// as read-only; in-process stores may hand out the stored slice itself. The "keyframe:<ns>:" keyspace
// is owned by the cache; foreign writes there are treated as corruption and
// deleted.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs. Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL. May ignore cost if unsupported.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key (best-effort).
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}
