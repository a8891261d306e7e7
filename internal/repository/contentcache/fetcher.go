// Package contentcache decorates a content fetcher with a key-value cache.
package contentcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/permaloom/weavefeed/internal/db"
)

const cacheKeyPrefix = "weavefeed:content:"

// DefaultTTL bounds cache growth. Ledger payloads are immutable, so the TTL
// exists for eviction, not coherence.
const DefaultTTL = 24 * time.Hour

// fetcher is the consumer interface for the upstream content source.
type fetcher interface {
	FetchContent(ctx context.Context, id string) ([]byte, error)
}

// store is the consumer interface for the content cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedFetcher caches transaction payloads in a key-value store.
type CachedFetcher struct {
	inner      fetcher
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner fetcher,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedFetcher {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedFetcher{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// FetchContent returns a cached payload or calls the upstream fetcher.
// Only successful fetches are cached; misses of the ledger itself (not found,
// gateway faults) pass through untouched.
func (c *CachedFetcher) FetchContent(ctx context.Context, id string) ([]byte, error) {
	key := cacheKey(id)

	if data, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return data, nil
	}

	c.incCache("miss")

	data, err := c.inner.FetchContent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch upstream: %w", err)
	}

	c.putToCache(ctx, key, data)
	return data, nil
}

func (c *CachedFetcher) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// cacheKey derives the storage key. Transaction IDs are already content
// addresses, so no extra hashing is needed.
func cacheKey(id string) string {
	return cacheKeyPrefix + id
}

func (c *CachedFetcher) getFromCache(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached payload", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}
	return data, true
}

func (c *CachedFetcher) putToCache(ctx context.Context, key string, data []byte) {
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache payload", zap.String("key", key), zap.Error(err))
	}
}
