// Package cache stores supplier lookup results between ingestions so the
// gateway makes at most one upstream call per part within the validity
// window.
package cache

import "partflow/internal/models"

// Cache is the part-cache contract shared by the file and redis backends.
// Keys are (supplier, query key) pairs; values carry the fetched part and
// its fetch timestamp.
type Cache interface {
	Get(supplier, key string) (models.CacheEntry, bool, error)
	Put(supplier, key string, entry models.CacheEntry) error
	Purge(supplier, key string) error
}
