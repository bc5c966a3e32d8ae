package kv

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"counselhub/utils"
)

// RedisStore backs the Store port with a Redis client. An optional TTL is
// applied to every Set, which lets the session store lean on Redis expiry as
// a second line of defense behind the application-level 24-hour check.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// NewSessionRedisStore backs the port with the shared session cache client.
func NewSessionRedisStore(ttl time.Duration) *RedisStore {
	return NewRedisStore(utils.GetSessionCacheClient(), ttl)
}

// NewCacheRedisStore backs the port with the shared generic cache client,
// for durable values like the request list.
func NewCacheRedisStore() *RedisStore {
	return NewRedisStore(utils.GetCacheClient(), 0)
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", NotFoundError{Key: key}
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, key, value, s.ttl).Err()
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
