package keyset

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_PutGet(t *testing.T) {
	m := NewMap[int]()

	prev, replaced := m.Put([]byte("a"), 1)
	assert.False(t, replaced)
	assert.Equal(t, 0, prev)

	prev, replaced = m.Put([]byte("a"), 2)
	assert.True(t, replaced)
	assert.Equal(t, 1, prev)

	v, ok := m.Get([]byte("a"))
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, m.Len())

	_, ok = m.Get([]byte("b"))
	assert.False(t, ok)
}

func TestMap_KeyIsCopied(t *testing.T) {
	m := NewMap[int]()

	key := []byte("reused")
	m.Put(key, 1)

	// Mutating the caller's buffer must not affect the stored key.
	key[0] = 'X'

	_, ok := m.Get([]byte("reused"))
	assert.True(t, ok)
	_, ok = m.Get(key)
	assert.False(t, ok)
}

func TestMap_Delete(t *testing.T) {
	m := NewMap[string]()

	m.Put([]byte("k1"), "v1")
	m.Put([]byte("k2"), "v2")

	assert.True(t, m.Delete([]byte("k1")))
	assert.False(t, m.Delete([]byte("k1")))
	assert.Equal(t, 1, m.Len())

	_, ok := m.Get([]byte("k1"))
	assert.False(t, ok)
	_, ok = m.Get([]byte("k2"))
	assert.True(t, ok)
}

func TestMap_PutHashedReusesHash(t *testing.T) {
	m := NewMap[int]()

	key := []byte("cached-hash")
	h := m.Hash(key)

	m.PutHashed(key, h, 42)
	v, ok := m.GetHashed(key, h)
	require.True(t, ok)
	assert.Equal(t, 42, v)

	// The plain methods must agree with the precomputed-hash ones.
	v, ok = m.Get(key)
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestMap_SeedsDecorrelate(t *testing.T) {
	m1 := NewSeededMap[int](1)
	m2 := NewSeededMap[int](2)

	key := []byte("same-bytes")
	assert.NotEqual(t, m1.Hash(key), m2.Hash(key))

	// Both still behave as regular maps.
	m1.Put(key, 1)
	m2.Put(key, 2)
	v1, _ := m1.Get(key)
	v2, _ := m2.Get(key)
	assert.Equal(t, 1, v1)
	assert.Equal(t, 2, v2)
}

func TestMap_HashCollision(t *testing.T) {
	m := NewMap[int]()

	// Force two distinct keys into the same bucket by inserting with an
	// identical (fabricated) hash. Byte comparison must disambiguate.
	m.PutHashed([]byte("left"), 7, 1)
	m.PutHashed([]byte("right"), 7, 2)
	assert.Equal(t, 2, m.Len())

	v, ok := m.GetHashed([]byte("left"), 7)
	require.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = m.GetHashed([]byte("right"), 7)
	require.True(t, ok)
	assert.Equal(t, 2, v)

	prev, replaced := m.PutHashed([]byte("right"), 7, 3)
	assert.True(t, replaced)
	assert.Equal(t, 2, prev)
	assert.Equal(t, 2, m.Len())
}

func TestMap_Range(t *testing.T) {
	m := NewMap[int]()
	for i := 0; i < 100; i++ {
		m.Put([]byte(fmt.Sprintf("key-%03d", i)), i)
	}

	seen := make(map[string]int)
	m.Range(func(key []byte, val int) bool {
		seen[string(key)] = val
		return true
	})
	require.Len(t, seen, 100)
	assert.Equal(t, 42, seen["key-042"])
}

func TestSet_Basics(t *testing.T) {
	s := NewSet()

	assert.True(t, s.Add([]byte("a")))
	assert.False(t, s.Add([]byte("a")))
	assert.True(t, s.Contains([]byte("a")))
	assert.False(t, s.Contains([]byte("b")))
	assert.Equal(t, 1, s.Len())

	assert.True(t, s.Remove([]byte("a")))
	assert.False(t, s.Remove([]byte("a")))
	assert.Equal(t, 0, s.Len())
}

func BenchmarkMap_Put(b *testing.B) {
	keys := make([][]byte, 1024)
	for i := range keys {
		keys[i] = []byte(fmt.Sprintf("bench-key-%d", i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := NewMap[int]()
		for j, k := range keys {
			m.Put(k, j)
		}
	}
}
