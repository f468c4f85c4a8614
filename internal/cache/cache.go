package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/promessa/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// StaleReader is implemented by caches that can return an entry after it
// has expired. Adapters use it to serve last-known data when a source is down.
type StaleReader interface {
	GetStale(key string) ([]byte, bool)
}

// Purger is implemented by persistent caches that can drop long-expired entries
type Purger interface {
	Purge(cutoff time.Time) (int64, error)
}

// CacheKey builds a namespaced key from its parts. Parts are hashed so the
// key is safe to use as a file name.
func CacheKey(namespace string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.ToLower(strings.Join(parts, "\x1f"))))
	return "promessa:v1:" + namespace + ":" + hex.EncodeToString(hash[:16])
}

// GetJSON reads and decodes a fresh entry
func GetJSON[T any](c Cache, key string) (T, bool) {
	var v T
	data, ok := c.Get(key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false
	}
	return v, true
}

// GetStaleJSON reads and decodes an entry regardless of expiry.
// It returns false when c cannot serve stale entries.
func GetStaleJSON[T any](c Cache, key string) (T, bool) {
	var v T
	sr, ok := c.(StaleReader)
	if !ok {
		return v, false
	}
	data, ok := sr.GetStale(key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false
	}
	return v, true
}

// SetJSON encodes and stores v
func SetJSON(c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	return c.Set(key, data, ttl)
}

// New builds the cache selected by cfg
func New(cfg model.CacheConfig) (Cache, error) {
	if !cfg.Enabled {
		return Nop{}, nil
	}

	switch strings.ToLower(cfg.Backend) {
	case "memory":
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute), nil
	case "disk":
		return NewDiskCache(cfg.Dir, cfg.DiskTTL), nil
	case "sqlite":
		return NewSQLiteCache(cfg.Dir+"/cache.db", cfg.DiskTTL)
	case "layered", "":
		return NewLayeredCache(
			NewMemoryCache(cfg.MemoryTTL, 10*time.Minute),
			NewDiskCache(cfg.Dir, cfg.DiskTTL),
		), nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s (supported: memory, disk, sqlite, layered)", cfg.Backend)
	}
}

// Nop is a cache that stores nothing
type Nop struct{}

func (Nop) Get(string) ([]byte, bool)               { return nil, false }
func (Nop) Set(string, []byte, time.Duration) error { return nil }
func (Nop) Delete(string) error                     { return nil }
func (Nop) Clear() error                            { return nil }
