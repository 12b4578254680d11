package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// LRU implements BlockCache with byte-bounded LRU eviction.
type LRU struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[Key]*list.Element
	evictList *list.List

	hits   atomic.Int64
	misses atomic.Int64
}

type lruEntry struct {
	key   Key
	value []byte
}

// NewLRU creates an LRU cache bounded to capacity bytes.
func NewLRU(capacity int64) *LRU {
	return &LRU{
		capacity:  capacity,
		items:     make(map[Key]*list.Element),
		evictList: list.New(),
	}
}

// Get returns a cached block.
func (c *LRU) Get(key Key) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(el)
		return el.Value.(*lruEntry).value, true
	}
	c.misses.Add(1)
	return nil, false
}

// Set caches a block, evicting from the tail as needed.
func (c *LRU) Set(key Key, b []byte) {
	if int64(len(b)) > c.capacity {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		old := el.Value.(*lruEntry)
		c.size += int64(len(b)) - int64(len(old.value))
		old.value = b
		c.evictList.MoveToFront(el)
	} else {
		el := c.evictList.PushFront(&lruEntry{key: key, value: b})
		c.items[key] = el
		c.size += int64(len(b))
	}

	for c.size > c.capacity {
		tail := c.evictList.Back()
		if tail == nil {
			break
		}
		c.removeElement(tail)
	}
}

// Invalidate removes entries matching the predicate.
func (c *LRU) Invalidate(predicate func(key Key) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, el := range c.items {
		if predicate(key) {
			c.removeElement(el)
		}
	}
}

// Stats returns hit/miss counters.
func (c *LRU) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of cached blocks.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRU) removeElement(el *list.Element) {
	ent := el.Value.(*lruEntry)
	c.evictList.Remove(el)
	delete(c.items, ent.key)
	c.size -= int64(len(ent.value))
}
