package contentcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/permaloom/weavefeed/internal/db"
)

type mockFetcher struct {
	data  []byte
	err   error
	calls int
}

func (m *mockFetcher) FetchContent(_ context.Context, _ string) ([]byte, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.data, nil
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCachedFetcher(t *testing.T, inner *mockFetcher) (*CachedFetcher, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	cf := New(inner, ms, 0, nil, zap.NewNop())
	return cf, ms
}
