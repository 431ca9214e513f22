package dao

import (
	"strings"
	"sync"
	"time"

	"github.com/rowscope/rowscope/internal/model1"
)

// DefaultCacheTTL is the default time-to-live for cached listings.
const DefaultCacheTTL = 30 * time.Second

type cacheEntry struct {
	rows      model1.Rows
	timestamp time.Time
}

// ResourceCache provides TTL-based caching for remote listings.
type ResourceCache struct {
	data map[string]cacheEntry
	ttl  time.Duration
	mx   sync.RWMutex
}

// NewResourceCache creates a new ResourceCache with the specified TTL.
func NewResourceCache(ttl time.Duration) *ResourceCache {
	return &ResourceCache{
		data: make(map[string]cacheEntry),
		ttl:  ttl,
	}
}

// Get retrieves cached rows for the given key.
// Returns false if the key is not found or the entry has expired.
func (c *ResourceCache) Get(key string) (model1.Rows, bool) {
	c.mx.RLock()
	defer c.mx.RUnlock()

	entry, ok := c.data[key]
	if !ok || time.Since(entry.timestamp) > c.ttl {
		return nil, false
	}

	return entry.rows, true
}

// Set stores rows in the cache with the given key.
func (c *ResourceCache) Set(key string, rows model1.Rows) {
	c.mx.Lock()
	defer c.mx.Unlock()

	c.data[key] = cacheEntry{
		rows:      rows,
		timestamp: time.Now(),
	}
}

// Invalidate removes a specific key from the cache.
func (c *ResourceCache) Invalidate(key string) {
	c.mx.Lock()
	defer c.mx.Unlock()

	delete(c.data, key)
}

// InvalidatePrefix removes all cache entries whose keys start with the given prefix.
func (c *ResourceCache) InvalidatePrefix(prefix string) {
	c.mx.Lock()
	defer c.mx.Unlock()

	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			delete(c.data, key)
		}
	}
}

// Clear removes all entries from the cache.
func (c *ResourceCache) Clear() {
	c.mx.Lock()
	defer c.mx.Unlock()

	c.data = make(map[string]cacheEntry)
}
