package cache

import (
	"context"
	"fmt"

	"github.com/autopecas/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StoreFactory creates the shared cache store based on configuration
type StoreFactory struct {
	cacheConfig           config.CacheConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory store when Redis is unavailable.
// Default is cache.use_fallback.
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		cacheConfig:           cacheCfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: cacheCfg.UseFallback,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateMemoryStore creates the in-process store used as L1 and as fallback.
// In-memory entries are not shared across instances, so each replica seeds its own.
func (f *StoreFactory) CreateMemoryStore() *MemoryStore {
	return NewMemoryStore(f.cacheConfig.L1TTL, f.cacheConfig.L1Cleanup)
}

// CreateStore returns a tiered Redis-backed store when Redis is enabled and reachable,
// otherwise an in-memory store if fallback is allowed. The Redis client, when one was
// created, is returned for health checks and must be closed by the caller.
func (f *StoreFactory) CreateStore(ctx context.Context) (Store, *redis.Client, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory cache store")
		return f.CreateMemoryStore(), nil, nil
	}

	client, err := NewRedisClient(ctx, f.redisConfig)
	if err == nil {
		f.logger.Info("Using tiered Redis cache store", zap.String("addr", f.redisConfig.Addr()))
		l2 := NewRedisStoreWithClient(client, f.cacheConfig.KeyPrefix)
		return NewTieredStore(f.CreateMemoryStore(), l2, f.cacheConfig.L1TTL, f.logger), client, nil
	}

	if !f.allowInMemoryFallback {
		return nil, nil, fmt.Errorf("Redis required for cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory cache store. "+
		"Catalog caches will not be shared between instances.",
		zap.Error(err),
	)
	return f.CreateMemoryStore(), nil, nil
}
