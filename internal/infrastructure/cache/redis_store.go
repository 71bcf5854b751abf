package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/autopecas/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

const redisConnectTimeout = 5 * time.Second

// RedisStore implements Store using Redis. Keys are namespaced with a prefix.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisClient creates a client for cfg and verifies the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisStoreWithClient creates a store on a shared client.
// The caller retains ownership of the client.
func NewRedisStoreWithClient(client *redis.Client, keyPrefix string) *RedisStore {
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisStore) key(k string) string {
	return s.keyPrefix + k
}

// Get returns the cached bytes
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %q from Redis: %w", key, err)
	}
	return data, true, nil
}

// Set stores value with ttl
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %q in Redis: %w", key, err)
	}
	return nil
}

// Delete removes key
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete %q from Redis: %w", key, err)
	}
	return nil
}

// Close is a no-op; the shared client is closed by its owner
func (s *RedisStore) Close() error {
	return nil
}

var _ Store = (*RedisStore)(nil)
