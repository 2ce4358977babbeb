package warehouse

import (
	"context"
	"time"

	"insightai-be/internal/pkg/logger"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const schemaCacheKey = "insightai:schema"

// CachedSchemaProvider keeps the rendered schema in process memory and, when a
// redis client is configured, shares it between instances. The schema is
// fetched from the inner provider only when both tiers miss.
type CachedSchemaProvider struct {
	inner  SchemaProvider
	local  *cache.Cache
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.ILogger
}

func NewCachedSchemaProvider(inner SchemaProvider, rdb *redis.Client, ttl time.Duration, log logger.ILogger) *CachedSchemaProvider {
	return &CachedSchemaProvider{
		inner:  inner,
		local:  cache.New(ttl, 2*ttl),
		rdb:    rdb,
		ttl:    ttl,
		logger: log,
	}
}

func (c *CachedSchemaProvider) Schema(ctx context.Context) (string, error) {
	// 1. Process memory
	if x, found := c.local.Get(schemaCacheKey); found {
		return x.(string), nil
	}

	// 2. Shared cache
	if c.rdb != nil {
		val, err := c.rdb.Get(ctx, schemaCacheKey).Result()
		switch {
		case err == nil:
			c.local.Set(schemaCacheKey, val, cache.DefaultExpiration)
			return val, nil
		case err != redis.Nil:
			c.logger.Warn("SchemaCache", "Redis read failed, falling back to database", map[string]interface{}{"error": err.Error()})
		}
	}

	// 3. Source of truth
	schema, err := c.inner.Schema(ctx)
	if err != nil {
		return "", err
	}

	c.local.Set(schemaCacheKey, schema, cache.DefaultExpiration)
	if c.rdb != nil {
		if err := c.rdb.Set(ctx, schemaCacheKey, schema, c.ttl).Err(); err != nil {
			c.logger.Warn("SchemaCache", "Redis write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return schema, nil
}

// Invalidate drops both tiers so the next call re-reads the catalog.
func (c *CachedSchemaProvider) Invalidate(ctx context.Context) {
	c.local.Delete(schemaCacheKey)
	if c.rdb != nil {
		c.rdb.Del(ctx, schemaCacheKey)
	}
}
