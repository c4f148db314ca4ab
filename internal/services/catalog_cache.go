package services

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"repairlog/internal/config"
	"repairlog/internal/observability"
	contextutils "repairlog/internal/utils"

	"github.com/redis/go-redis/v9"
)

// CatalogCache caches catalogue listings in Redis. The catalogues change
// rarely relative to how often the wizard reads them, so each listing is
// cached whole under a product-scoped key and invalidated on any write.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *observability.Logger
}

// NewCatalogCache connects to Redis using the cache configuration. Returns
// nil (no error) when caching is disabled so callers can treat the cache as
// optional.
func NewCatalogCache(cfg *config.Config, logger *observability.Logger) (*CatalogCache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	if logger == nil {
		panic("NewCatalogCache: logger is nil")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.Addr,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to connect to redis")
	}

	ttl := cfg.Cache.TTL
	if ttl <= 0 {
		ttl = config.DefaultCatalogCacheTTL
	}

	return &CatalogCache{client: client, ttl: ttl, logger: logger}, nil
}

// Close closes the Redis connection.
func (c *CatalogCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

func catalogCacheKey(kind string, productID int) string {
	return fmt.Sprintf("repairlog:catalog:%s:%d", kind, productID)
}

// get unmarshals the cached listing into dest. A nil cache, a miss, and a
// Redis failure all report false; cache trouble must never fail a read.
func (c *CatalogCache) get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil {
		return false
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn(ctx, "Catalog cache read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		return false
	}
	if err := decodeCachedListing(payload, dest); err != nil {
		c.logger.Warn(ctx, "Catalog cache entry corrupt, dropping", map[string]interface{}{
			"key": key,
		})
		c.client.Del(ctx, key)
		return false
	}
	return true
}

// decodeCachedListing decodes into a fresh value and assigns through dest
// only when the whole payload decoded. encoding/json keeps filling the
// destination past a type error, so decoding straight into the caller's
// slice would leave it partially populated on failure.
func decodeCachedListing(payload []byte, dest interface{}) error {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return contextutils.ErrorWithContextf("cache destination must be a non-nil pointer")
	}
	fresh := reflect.New(v.Type().Elem())
	if err := json.Unmarshal(payload, fresh.Interface()); err != nil {
		return err
	}
	v.Elem().Set(fresh.Elem())
	return nil
}

func (c *CatalogCache) set(ctx context.Context, key string, value interface{}) {
	if c == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn(ctx, "Catalog cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

// invalidate drops every cached listing of the given kind. Writes are rare
// enough that scanning the keyspace is acceptable.
func (c *CatalogCache) invalidate(ctx context.Context, kind string) {
	if c == nil {
		return
	}
	pattern := fmt.Sprintf("repairlog:catalog:%s:*", kind)
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		c.client.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn(ctx, "Catalog cache invalidation failed", map[string]interface{}{
			"pattern": pattern,
			"error":   err.Error(),
		})
	}
}
