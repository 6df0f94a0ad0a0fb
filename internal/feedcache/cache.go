// Package feedcache implements the feed response cache: pure memoization of
// ranked feed pages keyed by query shape. Entries live for the lifetime of
// the process. There is no TTL, no size bound, and no invalidation on
// writes; a key, once computed, serves the same page forever.
package feedcache

import (
	"sync"

	"github.com/feedrank/feedrank/internal/domain"
	"github.com/feedrank/feedrank/internal/metrics"
)

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits   int64
	Misses int64
	Keys   int
}

// Cache is a thread-safe in-memory memoization cache for feed pages. It
// implements domain.FeedCache.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*domain.FeedPage
	hits    int64
	misses  int64
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]*domain.FeedPage),
	}
}

// Get retrieves the page memoized under key.
func (c *Cache) Get(key string) (*domain.FeedPage, bool) {
	c.mu.RLock()
	page, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		metrics.CacheMisses.Inc()
		return nil, false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	metrics.CacheHits.Inc()
	return page, true
}

// Put memoizes page under key. Concurrent writers for the same key are
// last-writer-wins; both compute equivalent pages.
func (c *Cache) Put(key string, page *domain.FeedPage) {
	c.mu.Lock()
	c.entries[key] = page
	size := len(c.entries)
	c.mu.Unlock()
	metrics.CacheSize.Set(float64(size))
}

// GetStats returns a snapshot of the cache counters.
func (c *Cache) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Hits:   c.hits,
		Misses: c.misses,
		Keys:   len(c.entries),
	}
}

var _ domain.FeedCache = (*Cache)(nil)
