package keyset

import (
	"bytes"

	"github.com/cespare/xxhash/v2"
)

// mapEntry pairs a key with its value. The 64-bit hash lives in the
// bucket map key, so entries within one bucket share the same hash and
// only differ in key bytes (a true hash collision).
type mapEntry[V any] struct {
	key []byte
	val V
}

// Map is a hash-caching associative container from byte-string keys to
// values of type V. Duplicate keys overwrite; Put returns the previous
// value if one was present. Iteration order is unspecified.
//
// Map is not safe for concurrent use.
type Map[V any] struct {
	seed    uint64
	buckets map[uint64][]mapEntry[V]
	n       int
}

// NewMap creates an empty Map with the default (zero) seed.
func NewMap[V any]() *Map[V] {
	return NewSeededMap[V](0)
}

// NewSeededMap creates an empty Map whose hash function is decorrelated
// from the default one by seed.
func NewSeededMap[V any](seed uint64) *Map[V] {
	return &Map[V]{
		seed:    seed,
		buckets: make(map[uint64][]mapEntry[V]),
	}
}

// NewSeededMapSized creates a seeded Map with capacity for n entries.
func NewSeededMapSized[V any](seed uint64, n int) *Map[V] {
	return &Map[V]{
		seed:    seed,
		buckets: make(map[uint64][]mapEntry[V], n),
	}
}

// Hash returns the seeded hash of key. The value is stable for the
// lifetime of the Map and can be reused with the *Hashed methods to
// avoid recomputation.
func (m *Map[V]) Hash(key []byte) uint64 {
	h := xxhash.Sum64(key)
	if m.seed != 0 {
		h = mix64(h ^ m.seed)
	}
	return h
}

// Put inserts or replaces the value for key.
// It returns the previous value and whether one was replaced.
func (m *Map[V]) Put(key []byte, val V) (prev V, replaced bool) {
	return m.PutHashed(key, m.Hash(key), val)
}

// PutHashed is Put with a precomputed hash. The hash must have been
// produced by this Map's Hash method.
func (m *Map[V]) PutHashed(key []byte, hash uint64, val V) (prev V, replaced bool) {
	bucket := m.buckets[hash]
	for i := range bucket {
		if bytes.Equal(bucket[i].key, key) {
			prev = bucket[i].val
			bucket[i].val = val
			return prev, true
		}
	}
	// Keys are copied on first insert: callers commonly reuse the
	// backing buffer for the next chunk of keys.
	owned := make([]byte, len(key))
	copy(owned, key)
	m.buckets[hash] = append(bucket, mapEntry[V]{key: owned, val: val})
	m.n++
	return prev, false
}

// Get returns the value stored for key.
func (m *Map[V]) Get(key []byte) (V, bool) {
	return m.GetHashed(key, m.Hash(key))
}

// GetHashed is Get with a precomputed hash.
func (m *Map[V]) GetHashed(key []byte, hash uint64) (V, bool) {
	for _, e := range m.buckets[hash] {
		if bytes.Equal(e.key, key) {
			return e.val, true
		}
	}
	var zero V
	return zero, false
}

// Delete removes key from the map and reports whether it was present.
func (m *Map[V]) Delete(key []byte) bool {
	hash := m.Hash(key)
	bucket := m.buckets[hash]
	for i := range bucket {
		if bytes.Equal(bucket[i].key, key) {
			last := len(bucket) - 1
			bucket[i] = bucket[last]
			bucket = bucket[:last]
			if len(bucket) == 0 {
				delete(m.buckets, hash)
			} else {
				m.buckets[hash] = bucket
			}
			m.n--
			return true
		}
	}
	return false
}

// Len returns the number of entries.
func (m *Map[V]) Len() int {
	return m.n
}

// Seed returns the seed the map was created with.
func (m *Map[V]) Seed() uint64 {
	return m.seed
}

// Range calls fn for each entry until fn returns false.
// The key slice must not be mutated or retained.
func (m *Map[V]) Range(fn func(key []byte, val V) bool) {
	for _, bucket := range m.buckets {
		for _, e := range bucket {
			if !fn(e.key, e.val) {
				return
			}
		}
	}
}

// mix64 is the splitmix64 finalizer. It spreads the seed through all
// hash bits so seeded containers do not share collision patterns.
func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
