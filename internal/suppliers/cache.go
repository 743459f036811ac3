package suppliers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/Stan-lee13/auracart-ng/pkg/logger"
	"github.com/Stan-lee13/auracart-ng/pkg/metrics"
	"github.com/Stan-lee13/auracart-ng/pkg/redis"
)

// Cache stores serialized supplier responses keyed by supplier, operation and
// request parameters. Injected into the manager so tests can swap it out.
type Cache interface {
	Get(ctx context.Context, supplier, operation, params string) ([]byte, bool)
	Set(ctx context.Context, supplier, operation, params string, value []byte)
}

type keyBuilder interface {
	CacheKey(parts ...string) string
}

type redisCacheStore interface {
	redis.KVStore
	keyBuilder
}

// RedisCache is the production Cache backed by the shared Redis client.
type RedisCache struct {
	store   redisCacheStore
	ttl     time.Duration
	logg    *logger.Logger
	metrics *metrics.SupplierMetrics
}

// NewRedisCache builds a TTL cache on the provided Redis client.
func NewRedisCache(store redisCacheStore, ttl time.Duration, logg *logger.Logger, sm *metrics.SupplierMetrics) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{store: store, ttl: ttl, logg: logg, metrics: sm}
}

// Get returns the cached bytes for the request, if present.
func (c *RedisCache) Get(ctx context.Context, supplier, operation, params string) ([]byte, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}
	value, err := c.store.Get(ctx, c.key(supplier, operation, params))
	if err != nil {
		if !redis.IsNil(err) && c.logg != nil {
			c.logg.Warn(c.logg.WithSupplier(ctx, supplier), "supplier cache read failed")
		}
		return nil, false
	}
	c.metrics.IncCacheHit(supplier, operation)
	return []byte(value), true
}

// Set stores the response bytes with the configured TTL. Failures are logged
// and swallowed; the cache is best effort.
func (c *RedisCache) Set(ctx context.Context, supplier, operation, params string, value []byte) {
	if c == nil || c.store == nil {
		return
	}
	if err := c.store.Set(ctx, c.key(supplier, operation, params), string(value), c.ttl); err != nil && c.logg != nil {
		c.logg.Warn(c.logg.WithSupplier(ctx, supplier), "supplier cache write failed")
	}
}

func (c *RedisCache) key(supplier, operation, params string) string {
	digest := sha256.Sum256([]byte(params))
	return c.store.CacheKey(supplier, operation, hex.EncodeToString(digest[:8]))
}

// CacheParams serializes arbitrary request parameters into a stable cache key component.
func CacheParams(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(data)
}
