// Package cache memoizes per-view results until the active filter changes.
package cache

// Stats reports cache effectiveness since creation.
type Stats struct {
	Hits          int
	Misses        int
	Invalidations int
}

// Cache maps a key to its last computed value. Entries never expire on their own;
// Invalidate drops all of them at once. A Cache is not safe for concurrent use.
type Cache[K comparable, V any] struct {
	entries map[K]V
	stats   Stats
}

// New returns an empty cache.
func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{entries: make(map[K]V)}
}

// Get returns the cached value for key without computing it.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	v, ok := c.entries[key]
	return v, ok
}

// GetOrCompute returns the cached value for key, calling compute and storing its result on a miss.
// It is the only operation that adds entries.
func (c *Cache[K, V]) GetOrCompute(key K, compute func() V) V {
	if v, ok := c.entries[key]; ok {
		c.stats.Hits++
		return v
	}
	c.stats.Misses++
	v := compute()
	c.entries[key] = v
	return v
}

// Invalidate removes every entry.
func (c *Cache[K, V]) Invalidate() {
	clear(c.entries)
	c.stats.Invalidations++
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	return len(c.entries)
}

// Stats returns hit, miss and invalidation counters.
func (c *Cache[K, V]) Stats() Stats {
	return c.stats
}
