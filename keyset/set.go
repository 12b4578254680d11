package keyset

// Set is a hash-caching membership container for byte-string keys.
//
// Set is not safe for concurrent use.
type Set struct {
	m *Map[struct{}]
}

// NewSet creates an empty Set with the default (zero) seed.
func NewSet() *Set {
	return &Set{m: NewMap[struct{}]()}
}

// NewSeededSet creates an empty Set whose hash function is decorrelated
// from the default one by seed.
func NewSeededSet(seed uint64) *Set {
	return &Set{m: NewSeededMap[struct{}](seed)}
}

// Add inserts key and reports whether it was newly added.
func (s *Set) Add(key []byte) bool {
	_, replaced := s.m.Put(key, struct{}{})
	return !replaced
}

// Contains reports whether key is in the set.
func (s *Set) Contains(key []byte) bool {
	_, ok := s.m.Get(key)
	return ok
}

// Remove deletes key and reports whether it was present.
func (s *Set) Remove(key []byte) bool {
	return s.m.Delete(key)
}

// Len returns the number of keys.
func (s *Set) Len() int {
	return s.m.Len()
}
