package cart

import (
	"context"

	"github.com/craftmarket/storefront-backend/pkg/logger"
	"github.com/craftmarket/storefront-backend/pkg/redis"
)

// CacheRevalidator drops the cached product view after a cart mutation so the
// storefront re-renders stock counts. Invalidation is advisory: a miss here
// only delays a re-render, so failures are logged at warn and not surfaced.
type CacheRevalidator struct {
	client *redis.Client
	log    *logger.Logger
}

// NewCacheRevalidator builds a revalidator backed by the shared Redis client.
func NewCacheRevalidator(client *redis.Client, log *logger.Logger) *CacheRevalidator {
	return &CacheRevalidator{client: client, log: log}
}

// InvalidateProduct removes the cached page for the product slug.
func (c *CacheRevalidator) InvalidateProduct(ctx context.Context, slug string) {
	if c == nil || c.client == nil || slug == "" {
		return
	}
	if err := c.client.Del(ctx, c.client.ProductCacheKey(slug)); err != nil && c.log != nil {
		ctx = c.log.WithFields(ctx, map[string]any{"slug": slug, "error": err.Error()})
		c.log.Warn(ctx, "product cache invalidation failed")
	}
}
