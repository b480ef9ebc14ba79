package kvstore

import (
	"context"
	"time"

	"github.com/wonny/aegis-screener/pkg/redis"
)

// Redis stores values in Redis under "<prefix>:cache:<key>" with native TTL.
type Redis struct {
	client *redis.Client
	cache  *redis.Cache
}

// NewRedis wraps an existing Redis client
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{
		client: client,
		cache:  redis.NewCache(client, prefix),
	}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return r.cache.Get(ctx, key)
}

func (r *Redis) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return r.cache.Set(ctx, key, value, ttl)
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.cache.Delete(ctx, key)
}

func (r *Redis) Close() error {
	return r.client.Close()
}
