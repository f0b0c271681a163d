package cart

import (
	"context"
	"errors"
	"time"

	"github.com/craftmarket/storefront-backend/pkg/redis"
)

// RedisMergeGuard flags merge attempts in Redis keyed by the access token id.
// The flag lives as long as the token, so one token triggers at most one
// merge no matter how many requests present it.
type RedisMergeGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisMergeGuard builds the guard. The TTL should match the access token
// lifetime.
func NewRedisMergeGuard(client *redis.Client, ttl time.Duration) (*RedisMergeGuard, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	if ttl <= 0 {
		return nil, errors.New("merge guard ttl must be positive")
	}
	return &RedisMergeGuard{client: client, ttl: ttl}, nil
}

// TryAcquire sets the merge flag for the access id. It returns false when the
// flag already existed.
func (g *RedisMergeGuard) TryAcquire(ctx context.Context, accessID string) (bool, error) {
	if accessID == "" {
		return false, errors.New("access id required")
	}
	return g.client.SetNX(ctx, g.client.CartMergeKey(accessID), "1", g.ttl)
}
