// Package cache stores rendered artifacts between runs.
//
// Converting an SVG to PNG or PDF shells out to rsvg-convert and dominates
// the cost of re-rendering an unchanged layout. Artifacts are keyed by the
// hash of the SVG they were produced from, so an identical layout reuses the
// previous conversion regardless of which run produced it.
package cache

import (
	"context"
	"time"
)

// TTLArtifact is how long converted artifacts are kept.
const TTLArtifact = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the stored data and whether the key was present and fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
	// Close releases resources held by the cache.
	Close() error
}

// ArtifactKey returns the cache key of a converted artifact.
func ArtifactKey(svgHash, format string, scale float64) string {
	return hashKey("artifact", svgHash, format, scale)
}
