package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	expires_at INTEGER NOT NULL
)`

// SQLiteCache persists entries in a single SQLite file. Expired rows are kept
// for stale reads until overwritten or cleared.
type SQLiteCache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLiteCache opens (or creates) the database at path
func NewSQLiteCache(path string, ttl time.Duration) (*SQLiteCache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY between our own goroutines.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteCache{db: db, ttl: ttl, now: time.Now}, nil
}

// Get retrieves a fresh value
func (c *SQLiteCache) Get(key string) ([]byte, bool) {
	data, expiresAt, ok := c.lookup(key)
	if !ok || c.now().UnixNano() > expiresAt {
		return nil, false
	}
	return data, true
}

// GetStale retrieves a value regardless of expiry
func (c *SQLiteCache) GetStale(key string) ([]byte, bool) {
	data, _, ok := c.lookup(key)
	return data, ok
}

func (c *SQLiteCache) lookup(key string) ([]byte, int64, bool) {
	var data []byte
	var expiresAt int64
	err := c.db.QueryRow(`SELECT data, expires_at FROM cache_entries WHERE key = ?`, key).Scan(&data, &expiresAt)
	if err != nil {
		return nil, 0, false
	}
	return data, expiresAt, true
}

// Set stores a value, replacing any previous entry
func (c *SQLiteCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}
	expiresAt := c.now().Add(ttl).UnixNano()

	_, err := c.db.Exec(`
		INSERT INTO cache_entries (key, data, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`,
		key, value, expiresAt)
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Delete removes a value
func (c *SQLiteCache) Delete(key string) error {
	if _, err := c.db.Exec(`DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

// Clear removes every entry
func (c *SQLiteCache) Clear() error {
	if _, err := c.db.Exec(`DELETE FROM cache_entries`); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// Purge deletes entries that expired before cutoff and reports how many were removed
func (c *SQLiteCache) Purge(cutoff time.Time) (int64, error) {
	res, err := c.db.Exec(`DELETE FROM cache_entries WHERE expires_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the database handle
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
