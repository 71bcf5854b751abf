package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Constants for in-memory cache configuration
const (
	defaultMemoryTTL       = time.Minute
	defaultCleanupInterval = 30 * time.Second
)

// MemoryStore implements Store on top of go-cache.
// It serves as the L1 tier and as the fallback when Redis is unavailable.
type MemoryStore struct {
	items *gocache.Cache
}

// NewMemoryStore creates an in-memory store. Zero durations use the defaults.
func NewMemoryStore(defaultTTL, cleanupInterval time.Duration) *MemoryStore {
	if defaultTTL <= 0 {
		defaultTTL = defaultMemoryTTL
	}
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	}
	return &MemoryStore{items: gocache.New(defaultTTL, cleanupInterval)}
}

// Get returns a copy-free view of the cached bytes
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.items.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	return b, ok, nil
}

// Set stores value for ttl; a non-positive ttl uses the store default
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	s.items.Set(key, value, ttl)
	return nil
}

// Delete removes key
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.items.Delete(key)
	return nil
}

// Len returns the number of entries, including expired ones not yet cleaned up
func (s *MemoryStore) Len() int {
	return s.items.ItemCount()
}

// Close drops all entries
func (s *MemoryStore) Close() error {
	s.items.Flush()
	return nil
}

var _ Store = (*MemoryStore)(nil)
