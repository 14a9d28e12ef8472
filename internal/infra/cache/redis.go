package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces every cached provider response in Redis.
const KeyPrefix = "paisu:response:"

// RedisStore is a Redis-backed response cache for setups that share one
// cache across machines. Entries never expire; the provider responses
// being cached are historical and immutable.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get returns the cached value for key.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, KeyPrefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get cached response: %w", err)
	}
	return value, true, nil
}

// Put stores value under key without expiration.
func (s *RedisStore) Put(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, KeyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set cached response: %w", err)
	}
	return nil
}
