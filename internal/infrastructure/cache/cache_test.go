package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/autopecas/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// failingStore always errors, standing in for an unreachable Redis
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("redis: connection refused")
}
func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("redis: connection refused")
}
func (failingStore) Delete(context.Context, string) error { return nil }
func (failingStore) Close() error                         { return nil }

type countingObserver struct {
	mu     sync.Mutex
	hits   map[string]int
	misses map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{hits: map[string]int{}, misses: map[string]int{}}
}

func (o *countingObserver) CacheHit(_ context.Context, name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hits[name]++
}

func (o *countingObserver) CacheMiss(_ context.Context, name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.misses[name]++
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute, time.Minute)

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 0))
	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Delete(ctx, "k"))
	_, ok, _ = s.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute, time.Minute)

	require.NoError(t, s.Set(ctx, "short", []byte("v"), 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)

	_, ok, err := s.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTieredStore(t *testing.T) {
	ctx := context.Background()

	t.Run("backfills L1 from L2", func(t *testing.T) {
		l1 := NewMemoryStore(time.Minute, time.Minute)
		l2 := NewMemoryStore(time.Minute, time.Minute)
		tiered := NewTieredStore(l1, l2, time.Minute, nil)

		require.NoError(t, l2.Set(ctx, "sku", []byte("1"), time.Minute))

		v, ok, err := tiered.Get(ctx, "sku")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte("1"), v)

		_, ok, _ = l1.Get(ctx, "sku")
		assert.True(t, ok)

		_, _, _ = tiered.Get(ctx, "sku")
		_, _, _ = tiered.Get(ctx, "other")
		assert.Equal(t, Stats{L1Hits: 1, L2Hits: 1, L2Misses: 1}, tiered.Stats())
	})

	t.Run("set writes both tiers and delete clears both", func(t *testing.T) {
		l1 := NewMemoryStore(time.Minute, time.Minute)
		l2 := NewMemoryStore(time.Minute, time.Minute)
		tiered := NewTieredStore(l1, l2, time.Minute, nil)

		require.NoError(t, tiered.Set(ctx, "sku", []byte("x"), time.Minute))
		_, ok1, _ := l1.Get(ctx, "sku")
		_, ok2, _ := l2.Get(ctx, "sku")
		assert.True(t, ok1)
		assert.True(t, ok2)

		require.NoError(t, tiered.Delete(ctx, "sku"))
		_, ok1, _ = l1.Get(ctx, "sku")
		_, ok2, _ = l2.Get(ctx, "sku")
		assert.False(t, ok1)
		assert.False(t, ok2)
	})

	t.Run("L2 failure surfaces on miss", func(t *testing.T) {
		tiered := NewTieredStore(NewMemoryStore(time.Minute, time.Minute), failingStore{}, time.Minute, nil)

		_, _, err := tiered.Get(ctx, "sku")
		assert.Error(t, err)
		assert.Error(t, tiered.Set(ctx, "sku", []byte("x"), time.Minute))
	})
}

func TestTyped(t *testing.T) {
	ctx := context.Background()

	type price struct {
		SKU   string `json:"sku"`
		Price string `json:"price"`
	}

	t.Run("round trips values and reports hits and misses", func(t *testing.T) {
		obs := newCountingObserver()
		c := NewTyped[price](NewMemoryStore(time.Minute, time.Minute), "price", time.Minute, nil, obs)

		_, ok := c.Get(ctx, "A1")
		assert.False(t, ok)

		c.SetMany(ctx, map[string]price{"A1": {SKU: "A1", Price: "10.50"}, "B2": {SKU: "B2", Price: "3"}})

		got, ok := c.Get(ctx, "A1")
		require.True(t, ok)
		assert.Equal(t, "10.50", got.Price)

		c.Delete(ctx, "A1")
		_, ok = c.Get(ctx, "A1")
		assert.False(t, ok)

		assert.Equal(t, 1, obs.hits["price"])
		assert.Equal(t, 2, obs.misses["price"])
	})

	t.Run("namespaces keys by name", func(t *testing.T) {
		store := NewMemoryStore(time.Minute, time.Minute)
		prices := NewTyped[price](store, "price", time.Minute, nil, nil)
		balances := NewTyped[price](store, "balance", time.Minute, nil, nil)

		prices.Set(ctx, "A1", price{SKU: "A1"})
		_, ok := balances.Get(ctx, "A1")
		assert.False(t, ok)
	})

	t.Run("store failures degrade to misses and are logged", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		c := NewTyped[price](failingStore{}, "price", time.Minute, zap.New(core), nil)

		c.Set(ctx, "A1", price{SKU: "A1"})
		_, ok := c.Get(ctx, "A1")
		assert.False(t, ok)

		assert.Equal(t, 1, logs.FilterMessage("Cache write failed").Len())
		assert.Equal(t, 1, logs.FilterMessage("Cache read failed").Len())
	})
}

func TestStoreFactory_CreateStore(t *testing.T) {
	ctx := context.Background()
	cacheCfg := config.CacheConfig{KeyPrefix: "autopecas:", L1TTL: time.Second, L1Cleanup: time.Second, UseFallback: true}

	t.Run("uses memory store when Redis disabled", func(t *testing.T) {
		store, client, err := NewStoreFactory(cacheCfg, config.RedisConfig{Enabled: false}).CreateStore(ctx)
		require.NoError(t, err)
		assert.Nil(t, client)
		assert.IsType(t, &MemoryStore{}, store)
	})

	unreachable := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	t.Run("falls back to memory when Redis unreachable", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		f := NewStoreFactory(cacheCfg, unreachable, WithLogger(zap.New(core)))

		store, client, err := f.CreateStore(ctx)
		require.NoError(t, err)
		assert.Nil(t, client)
		assert.IsType(t, &MemoryStore{}, store)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("fails when fallback disabled", func(t *testing.T) {
		f := NewStoreFactory(cacheCfg, unreachable, WithInMemoryFallback(false))

		_, _, err := f.CreateStore(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Redis required")
	})
}
