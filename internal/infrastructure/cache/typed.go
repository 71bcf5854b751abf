package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Observer is notified of typed cache lookups
type Observer interface {
	CacheHit(ctx context.Context, name string)
	CacheMiss(ctx context.Context, name string)
}

// Typed stores JSON-encoded values of one type under a name-scoped key space.
// Store errors are logged and treated as misses; a cache never fails a request.
type Typed[T any] struct {
	name     string
	store    Store
	ttl      time.Duration
	logger   *zap.Logger
	observer Observer
}

// NewTyped creates a typed view over store. Keys are stored as "<name>:<key>".
func NewTyped[T any](store Store, name string, ttl time.Duration, logger *zap.Logger, observer Observer) *Typed[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Typed[T]{name: name, store: store, ttl: ttl, logger: logger, observer: observer}
}

// Name returns the key space name
func (c *Typed[T]) Name() string {
	return c.name
}

func (c *Typed[T]) key(k string) string {
	return c.name + ":" + k
}

// Get returns the cached value for key
func (c *Typed[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T
	data, ok, err := c.store.Get(ctx, c.key(key))
	if err != nil {
		c.logger.Warn("Cache read failed", zap.String("cache", c.name), zap.String("key", key), zap.Error(err))
	}
	if err != nil || !ok {
		c.miss(ctx)
		return zero, false
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn("Cache entry undecodable", zap.String("cache", c.name), zap.String("key", key), zap.Error(err))
		c.miss(ctx)
		return zero, false
	}
	if c.observer != nil {
		c.observer.CacheHit(ctx, c.name)
	}
	return v, true
}

// Set stores value under key
func (c *Typed[T]) Set(ctx context.Context, key string, value T) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Cache entry unencodable", zap.String("cache", c.name), zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, c.key(key), data, c.ttl); err != nil {
		c.logger.Warn("Cache write failed", zap.String("cache", c.name), zap.String("key", key), zap.Error(err))
	}
}

// SetMany stores every entry of values
func (c *Typed[T]) SetMany(ctx context.Context, values map[string]T) {
	for k, v := range values {
		c.Set(ctx, k, v)
	}
}

// Delete removes key
func (c *Typed[T]) Delete(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, c.key(key)); err != nil {
		c.logger.Warn("Cache delete failed", zap.String("cache", c.name), zap.String("key", key), zap.Error(err))
	}
}

func (c *Typed[T]) miss(ctx context.Context) {
	if c.observer != nil {
		c.observer.CacheMiss(ctx, c.name)
	}
}
