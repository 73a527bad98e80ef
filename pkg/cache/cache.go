// Package cache stores serialized match results between runs.
//
// # Backends
//
//   - [NullCache]: never stores anything (caching disabled)
//   - [FileCache]: one JSON file per entry under a local directory
//   - [RedisCache]: a shared Redis instance, for the HTTP server
//
// All backends implement [Cache]. Values are opaque bytes; the pipeline
// stores JSON-encoded query results.
//
// # Keys
//
// A [Keyer] derives keys from the digests of the target set and the query
// plus every option that changes the result. Two runs share an entry only if
// they would compute the same result. [ScopedKeyer] prefixes every key to
// isolate namespaces that share one backend.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A missing or expired entry is reported
	// as ok == false with a nil error.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default entry lifetimes.
const (
	TTLMatch  = 7 * 24 * time.Hour
	TTLRender = 30 * 24 * time.Hour
)
