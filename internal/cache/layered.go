package cache

import (
	"errors"
	"time"
)

// LayeredCache checks a fast front cache before a persistent back cache
type LayeredCache struct {
	front Cache
	back  Cache
}

// NewLayeredCache creates a new layered cache (typically memory over disk or sqlite)
func NewLayeredCache(front, back Cache) *LayeredCache {
	return &LayeredCache{
		front: front,
		back:  back,
	}
}

// Get retrieves a value from the cache (checks front first, then back)
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.front.Get(key); found {
		return val, true
	}

	if val, found := c.back.Get(key); found {
		// Promote with the front layer's default TTL
		_ = c.front.Set(key, val, 0)
		return val, true
	}

	return nil, false
}

// GetStale returns the freshest copy either layer can serve, ignoring expiry
func (c *LayeredCache) GetStale(key string) ([]byte, bool) {
	if val, ok := c.Get(key); ok {
		return val, true
	}
	for _, layer := range []Cache{c.front, c.back} {
		if sr, ok := layer.(StaleReader); ok {
			if val, found := sr.GetStale(key); found {
				return val, true
			}
		}
	}
	return nil, false
}

// Purge drops long-expired entries from the persistent layer
func (c *LayeredCache) Purge(cutoff time.Time) (int64, error) {
	if p, ok := c.back.(Purger); ok {
		return p.Purge(cutoff)
	}
	return 0, nil
}

// Set stores a value in both layers
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.front.Set(key, value, ttl); err != nil {
		return err
	}
	return c.back.Set(key, value, ttl)
}

// Delete removes a value from both layers
func (c *LayeredCache) Delete(key string) error {
	return errors.Join(c.front.Delete(key), c.back.Delete(key))
}

// Clear removes all values from both layers
func (c *LayeredCache) Clear() error {
	return errors.Join(c.front.Clear(), c.back.Clear())
}
