package cache

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// TieredStore implements a two-tier cache.
// L1: in-process MemoryStore (fast, local to the instance)
// L2: RedisStore (shared across instances)
// Reads go L1 then L2 and backfill L1; writes go to both tiers.
type TieredStore struct {
	l1     Store
	l2     Store
	l1TTL  time.Duration
	logger *zap.Logger

	l1Hits   int64
	l2Hits   int64
	l2Misses int64
}

// NewTieredStore creates a tiered store. l1TTL caps how long an entry lives in L1.
func NewTieredStore(l1, l2 Store, l1TTL time.Duration, logger *zap.Logger) *TieredStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TieredStore{l1: l1, l2: l2, l1TTL: l1TTL, logger: logger}
}

// Get reads L1, then L2. An L2 error is returned only after L1 missed.
func (c *TieredStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok, err := c.l1.Get(ctx, key); err == nil && ok {
		atomic.AddInt64(&c.l1Hits, 1)
		return v, true, nil
	}

	v, ok, err := c.l2.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		atomic.AddInt64(&c.l2Misses, 1)
		return nil, false, nil
	}
	atomic.AddInt64(&c.l2Hits, 1)
	if err := c.l1.Set(ctx, key, v, c.l1TTL); err != nil {
		c.logger.Warn("Failed to populate L1 cache", zap.String("key", key), zap.Error(err))
	}
	return v, true, nil
}

// Set writes L2 then L1. The L1 entry never outlives the L2 one.
func (c *TieredStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.l2.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	l1TTL := c.l1TTL
	if ttl > 0 && ttl < l1TTL {
		l1TTL = ttl
	}
	if err := c.l1.Set(ctx, key, value, l1TTL); err != nil {
		c.logger.Warn("Failed to set L1 cache", zap.String("key", key), zap.Error(err))
	}
	return nil
}

// Delete removes key from both tiers
func (c *TieredStore) Delete(ctx context.Context, key string) error {
	if err := c.l2.Delete(ctx, key); err != nil {
		return err
	}
	return c.l1.Delete(ctx, key)
}

// Close closes both tiers, returning the last error
func (c *TieredStore) Close() error {
	var lastErr error
	if err := c.l2.Close(); err != nil {
		lastErr = err
	}
	if err := c.l1.Close(); err != nil {
		lastErr = err
	}
	return lastErr
}

// Stats holds tier hit counters
type Stats struct {
	L1Hits   int64 `json:"l1_hits"`
	L2Hits   int64 `json:"l2_hits"`
	L2Misses int64 `json:"l2_misses"`
}

// Stats returns a snapshot of the hit counters
func (c *TieredStore) Stats() Stats {
	return Stats{
		L1Hits:   atomic.LoadInt64(&c.l1Hits),
		L2Hits:   atomic.LoadInt64(&c.l2Hits),
		L2Misses: atomic.LoadInt64(&c.l2Misses),
	}
}

var _ Store = (*TieredStore)(nil)
