// Package cache adds a Redis read-aside layer in front of the token store.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tinywideclouds/go-notification-relay/pkg/dispatch"
)

// CacheClient defines the subset of Redis commands we need.
type CacheClient interface {
	// Get decodes the cached value into dest, or returns ErrMiss.
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// CachedTokenStore decorates a TokenStore with read-aside caching.
// Every write goes to the real store first and then drops the user's key.
//
// Clients may also register tokens by writing to the backing store directly,
// which never touches the cache. An empty set is therefore never cached, and
// the ttl bounds how long a newly registered device can be missed.
type CachedTokenStore struct {
	realStore dispatch.TokenStore
	cache     CacheClient
	ttl       time.Duration
	logger    *slog.Logger
}

func NewCachedTokenStore(realStore dispatch.TokenStore, cache CacheClient, ttl time.Duration, logger *slog.Logger) *CachedTokenStore {
	return &CachedTokenStore{
		realStore: realStore,
		cache:     cache,
		ttl:       ttl,
		logger:    logger.With("component", "CachedTokenStore"),
	}
}

func (s *CachedTokenStore) Tokens(ctx context.Context, userID string) ([]string, error) {
	key := s.cacheKey(userID)

	var cached []string
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	fresh, err := s.realStore.Tokens(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(fresh) == 0 {
		return fresh, nil
	}

	// Caching is an optimization; a Redis outage falls back to Firestore.
	if err := s.cache.Set(ctx, key, fresh, s.ttl); err != nil {
		s.logger.Debug("Failed to populate token cache", "user_id", userID, "err", err)
	}
	return fresh, nil
}

// DeleteTokens must clear the cache so pruned tokens are not served again.
func (s *CachedTokenStore) DeleteTokens(ctx context.Context, userID string, tokens []string) error {
	if err := s.realStore.DeleteTokens(ctx, userID, tokens); err != nil {
		return err
	}
	return s.invalidate(ctx, userID)
}

func (s *CachedTokenStore) RegisterToken(ctx context.Context, userID string, token string) error {
	if err := s.realStore.RegisterToken(ctx, userID, token); err != nil {
		return err
	}
	return s.invalidate(ctx, userID)
}

func (s *CachedTokenStore) invalidate(ctx context.Context, userID string) error {
	if err := s.cache.Del(ctx, s.cacheKey(userID)); err != nil {
		return fmt.Errorf("%w: %w", dispatch.ErrStaleCache, err)
	}
	return nil
}

func (s *CachedTokenStore) cacheKey(userID string) string {
	return fmt.Sprintf("relay:tokens:%s", userID)
}
