package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"partflow/internal/models"
)

// FileCache keeps one JSON file per (supplier, key) in a flat directory.
// It assumes a single writer at a time; concurrent writes of the same part
// are last-write-wins, which is harmless because the values differ only in
// fetch timestamp.
type FileCache struct {
	dir string
}

// NewFileCache creates the cache directory if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileCache{dir: dir}, nil
}

// Get reads the entry for (supplier, key). Absence is not an error.
func (c *FileCache) Get(supplier, key string) (models.CacheEntry, bool, error) {
	data, err := os.ReadFile(c.path(supplier, key))
	if os.IsNotExist(err) {
		return models.CacheEntry{}, false, nil
	}
	if err != nil {
		return models.CacheEntry{}, false, fmt.Errorf("cache read failed: %w", err)
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// A corrupt file is treated as a miss; the next Put repairs it.
		return models.CacheEntry{}, false, nil
	}
	return entry, true, nil
}

// Put overwrites the entry for (supplier, key).
func (c *FileCache) Put(supplier, key string, entry models.CacheEntry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	if err := os.WriteFile(c.path(supplier, key), data, 0o644); err != nil {
		return fmt.Errorf("cache write failed: %w", err)
	}
	return nil
}

// Purge removes the entry for (supplier, key) if present.
func (c *FileCache) Purge(supplier, key string) error {
	err := os.Remove(c.path(supplier, key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (c *FileCache) path(supplier, key string) string {
	return filepath.Join(c.dir, sanitize(supplier)+"_"+sanitize(key)+".json")
}

// sanitize maps a query key onto a safe flat filename.
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
