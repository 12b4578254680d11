// Package cache provides a byte-oriented block cache for immutable blobs.
package cache

// Key identifies a cached block. Blobs are immutable, so a (path, offset)
// pair is stable for the lifetime of the blob.
type Key struct {
	Path   string
	Offset uint64
}

// BlockCache is a cache for immutable blob blocks.
// Returned slices must be treated as read-only.
type BlockCache interface {
	// Get returns a cached block. ok=false if missing.
	Get(key Key) (b []byte, ok bool)

	// Set caches a block. The cache retains b; the caller must not
	// mutate it afterwards.
	Set(key Key, b []byte)

	// Invalidate removes entries matching the predicate.
	Invalidate(predicate func(key Key) bool)

	// Stats returns hit/miss counters.
	Stats() (hits, misses int64)
}
