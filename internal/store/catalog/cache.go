// Package catalog holds the versioned Redis cache in front of public catalog
// reads (book and author listings). Invalidation is a single INCR of the
// version key; stale entries expire on their own TTL.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const versionKey = "cat:ver"

// Cache is request-scoped: no PINGs, warn once per request, no retry storms.
type Cache struct {
	rdb     *redis.Client
	enabled bool
	warned  bool
	prefix  string
	ttl     time.Duration
	shortTO time.Duration // per cache op
}

// New builds a request-scoped cache wrapper. The key prefix embeds the
// current version ("cat:v{N}:"), so a BumpVersion makes every older key
// invisible.
func New(rdb *redis.Client) *Cache {
	if rdb == nil || os.Getenv("CATALOG_DISABLE_CACHE") == "1" {
		return &Cache{enabled: false}
	}

	ttl := 10 * time.Minute
	if v := os.Getenv("CATALOG_CACHE_TTL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			ttl = time.Duration(secs) * time.Second
		}
	}
	shortTO := opTimeout()

	var prefix string
	{
		ctx, cancel := context.WithTimeout(context.Background(), shortTO)
		defer cancel()
		ver, err := rdb.Get(ctx, versionKey).Int64()
		if err != nil {
			// A missing counter must read below the first INCR result (1),
			// otherwise the first write after a cold start would not roll
			// the prefix forward. Outages land here too; Get/Set fail open.
			ver = 0
		}
		prefix = versionPrefix(ver)
	}

	return &Cache{rdb: rdb, enabled: true, prefix: prefix, ttl: ttl, shortTO: shortTO}
}

func versionPrefix(ver int64) string {
	return fmt.Sprintf("cat:v%d:", ver)
}

func opTimeout() time.Duration {
	shortTO := 150 * time.Millisecond
	if v := os.Getenv("CATALOG_CACHE_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			shortTO = time.Duration(ms) * time.Millisecond
		}
	}
	return shortTO
}

// Get unmarshals the cached value for key into dst. Returns false on miss,
// disabled cache, or any Redis error (fail-open).
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	if !c.enabled {
		return false
	}
	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, c.shortTO)
	defer cancel()

	raw, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		c.warnOnce("cache get failed: %v; bypassing cache for this request", err)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.warnOnce("cache entry corrupt for %q: %v", key, err)
		return false
	}
	return true
}

// Set stores v under key with the cache's TTL. Best effort.
func (c *Cache) Set(ctx context.Context, key string, v any) {
	if !c.enabled {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, c.shortTO)
	defer cancel()

	if err := c.rdb.SetEx(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		c.warnOnce("cache set failed: %v (muted next)", err)
	}
}

func (c *Cache) warnOnce(format string, args ...any) {
	if c.warned {
		return
	}
	c.warned = true
	log.Printf("[catalog][cache] "+format, args...)
}

// BumpVersion increments cat:ver. Call AFTER a committed write to books,
// authors, or libraries. Safe no-op when rdb is nil.
func BumpVersion(ctx context.Context, rdb *redis.Client) error {
	if rdb == nil {
		return nil
	}
	cctx, cancel := context.WithTimeout(ctx, opTimeout())
	defer cancel()
	if _, err := rdb.Incr(cctx, versionKey).Result(); err != nil {
		return fmt.Errorf("bump version failed: %w", err)
	}
	return nil
}
