package cache

import (
	"sync"
)

// LFU provides a thread-safe bounded map with least-frequently-used
// eviction. When an insert would exceed capacity, the entry with the
// lowest access count is dropped first.
type LFU[K comparable, V any] struct {
	mu       sync.Mutex
	data     map[K]V
	freq     map[K]uint64
	capacity int
}

// NewLFU creates a new LFU cache with the specified capacity.
// A capacity below 1 is treated as 1.
func NewLFU[K comparable, V any](capacity int) *LFU[K, V] {
	if capacity < 1 {
		capacity = 1
	}

	return &LFU[K, V]{
		data:     make(map[K]V, capacity),
		freq:     make(map[K]uint64, capacity),
		capacity: capacity,
	}
}

// Get retrieves a value from the cache, counting the access.
// Returns the value and whether it exists.
func (c *LFU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, exists := c.data[key]
	if !exists {
		var zero V
		return zero, false
	}

	c.freq[key]++

	return value, true
}

// Put adds or updates a value in the cache, evicting the least
// frequently used entry if the cache is at capacity.
func (c *LFU[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.data[key]; !exists && len(c.data) >= c.capacity {
		c.evictLocked()
	}

	c.data[key] = value
	c.freq[key]++
}

// Delete removes a key from the cache.
func (c *LFU[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)
	delete(c.freq, key)
}

// Clear removes every entry from the cache.
func (c *LFU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.data)
	clear(c.freq)
}

// Len returns the number of entries currently cached.
func (c *LFU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.data)
}

// evictLocked drops the entry with the lowest access count.
// Ties break on map iteration order, which is acceptable for a cache.
func (c *LFU[K, V]) evictLocked() {
	var (
		victim  K
		minFreq uint64
		found   bool
	)

	for key, freq := range c.freq {
		if !found || freq < minFreq {
			victim = key
			minFreq = freq
			found = true
		}
	}

	if found {
		delete(c.data, victim)
		delete(c.freq, victim)
	}
}
