// Package pkindex implements the primary key index of a tablet: a map
// from encoded primary key bytes to the row's current physical location.
//
// The index exists in memory while a tablet is hot and can be persisted
// as a compressed snapshot through FileStore. During recovery a fresh
// private index is rebuilt from the immutable rowset data.
package pkindex

import (
	"github.com/hupe1980/lakego/keyset"
	"github.com/hupe1980/lakego/model"
)

// Index maps encoded primary keys to row locations.
//
// Index is not safe for concurrent mutation; recovery builds one under
// exclusive access and hands it over only after commit.
type Index struct {
	m *keyset.Map[model.RowLocation]
}

// New creates an empty Index.
func New() *Index {
	return NewSeeded(0)
}

// NewSeeded creates an empty Index with a seeded key hash. Processes
// holding many tablet indexes built from similar key data use distinct
// seeds to avoid correlated collisions across tablets.
func NewSeeded(seed uint64) *Index {
	return &Index{m: keyset.NewSeededMap[model.RowLocation](seed)}
}

// Hash returns the index's hash of key, for reuse with Upsert and
// GetHashed.
func (idx *Index) Hash(key []byte) uint64 {
	return idx.m.Hash(key)
}

// Upsert inserts or replaces the location for key and returns the
// previous location if one was present. hash must come from Hash.
func (idx *Index) Upsert(key []byte, hash uint64, loc model.RowLocation) (prev model.RowLocation, replaced bool) {
	return idx.m.PutHashed(key, hash, loc)
}

// Get returns the current location for key.
func (idx *Index) Get(key []byte) (model.RowLocation, bool) {
	return idx.m.Get(key)
}

// GetHashed is Get with a precomputed hash.
func (idx *Index) GetHashed(key []byte, hash uint64) (model.RowLocation, bool) {
	return idx.m.GetHashed(key, hash)
}

// Len returns the number of distinct keys.
func (idx *Index) Len() int {
	return idx.m.Len()
}

// Range calls fn for each entry until fn returns false.
// The key slice must not be mutated or retained.
func (idx *Index) Range(fn func(key []byte, loc model.RowLocation) bool) {
	idx.m.Range(fn)
}
