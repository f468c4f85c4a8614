package cache

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is an in-process TTL cache. It also remembers the last value
// written for each key so expired entries can still be served as stale.
type MemoryCache struct {
	cache *gocache.Cache

	mu        sync.RWMutex
	lastKnown map[string][]byte
}

// NewMemoryCache creates a new memory cache
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		cache:     gocache.New(defaultTTL, cleanupInterval),
		lastKnown: make(map[string][]byte),
	}
}

// Get retrieves a fresh value from the cache
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	if val, found := c.cache.Get(key); found {
		return val.([]byte), true
	}
	return nil, false
}

// GetStale retrieves the last value written for key, even if expired
func (c *MemoryCache) GetStale(key string) ([]byte, bool) {
	if val, ok := c.Get(key); ok {
		return val, true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.lastKnown[key]
	return val, ok
}

// Set stores a value with the given TTL (0 uses the default TTL)
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.cache.Set(key, value, ttl)

	c.mu.Lock()
	c.lastKnown[key] = value
	c.mu.Unlock()
	return nil
}

// Delete removes a value, including its stale copy
func (c *MemoryCache) Delete(key string) error {
	c.cache.Delete(key)
	c.mu.Lock()
	delete(c.lastKnown, key)
	c.mu.Unlock()
	return nil
}

// Clear removes all values
func (c *MemoryCache) Clear() error {
	c.cache.Flush()
	c.mu.Lock()
	c.lastKnown = make(map[string][]byte)
	c.mu.Unlock()
	return nil
}
