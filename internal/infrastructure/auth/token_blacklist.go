package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/autopecas/backend/internal/infrastructure/cache"
)

// TokenBlacklist invalidates access tokens before they expire (logout)
type TokenBlacklist interface {
	// Revoke blacklists a token ID until ttl elapses
	Revoke(ctx context.Context, jti string, ttl time.Duration) error

	// IsRevoked checks if a token ID is blacklisted
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// StoreTokenBlacklist keeps revoked token IDs in a cache.Store, so it follows
// the cache tiering: Redis when available, process memory otherwise.
type StoreTokenBlacklist struct {
	store     cache.Store
	keyPrefix string
}

// NewStoreTokenBlacklist creates a blacklist on the given store
func NewStoreTokenBlacklist(store cache.Store) *StoreTokenBlacklist {
	return &StoreTokenBlacklist{store: store, keyPrefix: "token:blacklist:"}
}

// Revoke adds the JTI with the remaining token lifetime as TTL
func (b *StoreTokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.store.Set(ctx, b.keyPrefix+jti, []byte("1"), ttl); err != nil {
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}
	return nil
}

// IsRevoked checks if the JTI is blacklisted
func (b *StoreTokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, ok, err := b.store.Get(ctx, b.keyPrefix+jti)
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return ok, nil
}

var _ TokenBlacklist = (*StoreTokenBlacklist)(nil)
