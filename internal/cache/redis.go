package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"partflow/internal/models"
)

// RedisCache is the shared-bench alternative to the file cache: several
// workstations pointed at one redis see each other's lookups. Entries expire
// server-side at the validity window.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache connects and pings within a short timeout.
func NewRedisCache(addr, password string, db, validDays int) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisCache{
		rdb: rdb,
		ttl: time.Duration(validDays) * 24 * time.Hour,
	}, nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

// Get reads the entry for (supplier, key). Absence is not an error.
func (c *RedisCache) Get(supplier, key string) (models.CacheEntry, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := c.rdb.Get(ctx, cacheKey(supplier, key)).Bytes()
	if err == redis.Nil {
		return models.CacheEntry{}, false, nil
	}
	if err != nil {
		return models.CacheEntry{}, false, fmt.Errorf("redis get failed: %w", err)
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return models.CacheEntry{}, false, nil
	}
	return entry, true, nil
}

// Put overwrites the entry for (supplier, key) with the validity TTL.
func (c *RedisCache) Put(supplier, key string, entry models.CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.rdb.Set(ctx, cacheKey(supplier, key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Purge removes the entry for (supplier, key).
func (c *RedisCache) Purge(supplier, key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return c.rdb.Del(ctx, cacheKey(supplier, key)).Err()
}

func cacheKey(supplier, key string) string {
	return fmt.Sprintf("part:%s:%s", supplier, key)
}
