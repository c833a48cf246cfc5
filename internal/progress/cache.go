package progress

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ledgerKeyPrefix = "ledger:"
	ledgerCacheTTL  = 15 * time.Minute
)

// LedgerCache is the subset of the Redis client the cached store uses.
type LedgerCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CachedStore is a Redis read-through cache in front of another Store.
// Only the raw ledger is cached, never derived aggregates, and the entry is
// dropped on every toggle. A failed invalidation marks the key dirty: reads
// bypass the cache for that key until a later delete succeeds, so a stale
// entry is never served after a write. Other cache failures degrade to the
// inner store.
type CachedStore struct {
	inner  Store
	client LedgerCache

	mu    sync.Mutex
	dirty map[string]struct{}
}

// NewCachedStore wraps a Store with a Redis cache.
func NewCachedStore(inner Store, client LedgerCache) *CachedStore {
	return &CachedStore{inner: inner, client: client, dirty: make(map[string]struct{})}
}

func (s *CachedStore) Get(ctx context.Context, userKey string) (*Ledger, error) {
	key := ledgerKeyPrefix + userKey

	if s.isDirty(key) {
		if err := s.client.Del(ctx, key).Err(); err != nil {
			slog.Warn("ledger cache still unavailable, bypassing", "user_key", userKey, "error", err)
			return s.inner.Get(ctx, userKey)
		}
		s.clearDirty(key)
	}

	data, err := s.client.Get(ctx, key).Result()
	if err == nil {
		var ledger Ledger
		if err := json.Unmarshal([]byte(data), &ledger); err == nil {
			return &ledger, nil
		}
		slog.Warn("dropping undecodable cached ledger", "user_key", userKey)
		s.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		slog.Warn("ledger cache read failed, falling through", "error", err)
	}

	ledger, err := s.inner.Get(ctx, userKey)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(ledger); err == nil {
		if err := s.client.Set(ctx, key, data, ledgerCacheTTL).Err(); err != nil {
			slog.Warn("ledger cache write failed", "error", err)
		}
	}
	return ledger, nil
}

func (s *CachedStore) Toggle(ctx context.Context, userKey, questionID string, solved bool) (*Ledger, error) {
	ledger, err := s.inner.Toggle(ctx, userKey, questionID, solved)
	if err != nil {
		return nil, err
	}

	key := ledgerKeyPrefix + userKey
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.markDirty(key)
		slog.Warn("ledger cache invalidation failed, bypassing cache for key",
			"user_key", userKey, "error", err)
	} else {
		s.clearDirty(key)
	}
	return ledger, nil
}

func (s *CachedStore) isDirty(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.dirty[key]
	return ok
}

func (s *CachedStore) markDirty(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty[key] = struct{}{}
}

func (s *CachedStore) clearDirty(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.dirty, key)
}
