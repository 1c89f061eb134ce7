package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"holder-sentinel/internal/domain"
)

// ResultCache caches classification results per token so repeated dashboard
// requests do not re-hit the ledger gateway.
type ResultCache interface {
	Get(ctx context.Context, tokenAddress string, network domain.Network) (*domain.ClassificationResult, bool)
	Set(ctx context.Context, r *domain.ClassificationResult, ttl time.Duration)
}

// RedisCache implements ResultCache on Redis with JSON values.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a cache backed by the given Redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Compile-time interface check.
var _ ResultCache = (*RedisCache)(nil)

func cacheKey(tokenAddress string, network domain.Network) string {
	return fmt.Sprintf("classification:%s:%s", network, tokenAddress)
}

// Get retrieves a cached result. A miss or decode failure reports not-found.
func (c *RedisCache) Get(ctx context.Context, tokenAddress string, network domain.Network) (*domain.ClassificationResult, bool) {
	data, err := c.client.Get(ctx, cacheKey(tokenAddress, network)).Bytes()
	if err != nil {
		return nil, false
	}

	var result domain.ClassificationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}
	return &result, true
}

// Set stores a result with the given TTL. Failures are ignored; the cache
// is an optimization, not a source of truth.
func (c *RedisCache) Set(ctx context.Context, r *domain.ClassificationResult, ttl time.Duration) {
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	c.client.Set(ctx, cacheKey(r.TokenAddress, r.Network), data, ttl)
}
