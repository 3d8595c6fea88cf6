package tracker

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Sprint generation is the one expensive call in this server, so its
// results get 2-tier caching: L1 in-memory + optional L2 Redis. L1 is
// lost on restart, L2 survives.
var sprintCache *tieredCache

var (
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
)

type tieredCache struct {
	l1              sync.Map      // key → *cacheEntry
	rdb             *redis.Client // nil if Redis unavailable
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
}

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// InitCache sets up the 2-tier cache. Call after Init().
// redisURL can be empty to disable L2.
func InitCache(redisURL string, ttl time.Duration, maxEntries int, cleanupInterval time.Duration) {
	c := &tieredCache{ttl: ttl, maxEntries: maxEntries, cleanupInterval: cleanupInterval}

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			slog.Warn("cache: invalid redis URL, L2 disabled", slog.Any("error", err))
		} else {
			rdb := redis.NewClient(opts)
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := rdb.Ping(ctx).Err(); err != nil {
				slog.Warn("cache: redis unreachable, L2 disabled", slog.Any("error", err))
			} else {
				c.rdb = rdb
				slog.Info("cache: L2 redis connected", slog.String("addr", opts.Addr))
			}
		}
	}

	sprintCache = c
	slog.Info("cache: initialized",
		slog.Duration("ttl", ttl),
		slog.Bool("redis", c.rdb != nil),
		slog.Int("max_entries", maxEntries))

	go c.cleanupLoop()
}

// CacheKey builds a deterministic cache key from parts.
func CacheKey(parts ...string) string {
	joined := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(joined))
	return fmt.Sprintf("gp:%x", hash[:12])
}

// CacheGetJSON tries L1, then L2, decoding into T. On L2 hit, populates L1.
func CacheGetJSON[T any](ctx context.Context, key string) (T, bool) {
	var zero T
	if sprintCache == nil {
		cacheMisses.Add(1)
		return zero, false
	}

	if val, ok := sprintCache.l1.Load(key); ok {
		entry := val.(*cacheEntry)
		if time.Now().Before(entry.expiresAt) {
			var out T
			if json.Unmarshal(entry.data, &out) == nil {
				cacheHits.Add(1)
				return out, true
			}
		}
		sprintCache.l1.Delete(key) // expired or corrupt
	}

	if sprintCache.rdb != nil {
		data, err := sprintCache.rdb.Get(ctx, key).Bytes()
		if err == nil {
			var out T
			if json.Unmarshal(data, &out) == nil {
				cacheHits.Add(1)
				sprintCache.l1.Store(key, &cacheEntry{
					data:      data,
					expiresAt: time.Now().Add(sprintCache.ttl),
				})
				return out, true
			}
		}
	}

	cacheMisses.Add(1)
	return zero, false
}

// CacheSetJSON stores value in both L1 and L2.
func CacheSetJSON[T any](ctx context.Context, key string, value T) {
	if sprintCache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}

	sprintCache.evictIfNeeded()

	sprintCache.l1.Store(key, &cacheEntry{
		data:      data,
		expiresAt: time.Now().Add(sprintCache.ttl),
	})

	if sprintCache.rdb != nil {
		if err := sprintCache.rdb.Set(ctx, key, data, sprintCache.ttl).Err(); err != nil {
			slog.Debug("cache: L2 set failed", slog.Any("error", err))
		}
	}
}

// CacheStats returns current cache hit/miss counters.
func CacheStats() (hits, misses int64) {
	return cacheHits.Load(), cacheMisses.Load()
}

// evictIfNeeded removes entries when L1 exceeds maxEntries: expired
// entries first, then the oldest until under the limit.
func (c *tieredCache) evictIfNeeded() {
	if c.maxEntries <= 0 {
		return
	}

	count := 0
	c.l1.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count < c.maxEntries {
		return
	}

	now := time.Now()
	c.l1.Range(func(key, val any) bool {
		if entry, ok := val.(*cacheEntry); ok && now.After(entry.expiresAt) {
			c.l1.Delete(key)
			count--
		}
		return count >= c.maxEntries
	})
	if count < c.maxEntries {
		return
	}

	for count >= c.maxEntries {
		var oldestKey any
		oldestAt := now.Add(time.Hour) // far future
		c.l1.Range(func(key, val any) bool {
			if entry, ok := val.(*cacheEntry); ok && entry.expiresAt.Before(oldestAt) {
				oldestKey = key
				oldestAt = entry.expiresAt
			}
			return true
		})
		if oldestKey == nil {
			return
		}
		c.l1.Delete(oldestKey)
		count--
	}
}

// cleanupLoop periodically drops expired L1 entries.
func (c *tieredCache) cleanupLoop() {
	interval := c.cleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	for range time.Tick(interval) {
		now := time.Now()
		c.l1.Range(func(key, val any) bool {
			if entry, ok := val.(*cacheEntry); ok && now.After(entry.expiresAt) {
				c.l1.Delete(key)
			}
			return true
		})
	}
}
