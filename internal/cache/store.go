package cache

import (
	"context"
	"sync"
	"time"

	"postline/internal/observability"

	"github.com/redis/go-redis/v9"
)

// PageStore holds rendered response bodies keyed by request path.
type PageStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte, ttl time.Duration) error
	// TTL reports the remaining lifetime of key, or zero when absent.
	TTL(ctx context.Context, key string) (time.Duration, error)
	Clear(ctx context.Context) error
}

// RedisPageStore keeps pages in Redis under a namespace so Clear does not
// touch unrelated keys.
type RedisPageStore struct {
	rdb       *redis.Client
	namespace string
}

// NewRedisPageStore returns a store writing keys as namespace+key.
func NewRedisPageStore(rdb *redis.Client, namespace string) *RedisPageStore {
	if namespace == "" {
		namespace = "postline:"
	}
	return &RedisPageStore{rdb: rdb, namespace: namespace}
}

func (s *RedisPageStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := observability.StartCacheSpan(ctx, "redis", "get")
	b, err := s.rdb.Get(ctx, s.namespace+key).Bytes()
	if err == redis.Nil {
		span.End(nil)
		return nil, false, nil
	}
	span.End(err)
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *RedisPageStore) Set(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	ctx, span := observability.StartCacheSpan(ctx, "redis", "set")
	err := s.rdb.Set(ctx, s.namespace+key, body, ttl).Err()
	span.End(err)
	return err
}

func (s *RedisPageStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := s.rdb.PTTL(ctx, s.namespace+key).Result()
	if err != nil {
		return 0, err
	}
	// -2 means missing, -1 means no expiry.
	if d < 0 {
		return 0, nil
	}
	return d, nil
}

// Clear removes every key in the namespace using SCAN batches.
func (s *RedisPageStore) Clear(ctx context.Context) error {
	ctx, span := observability.StartCacheSpan(ctx, "redis", "clear")
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, s.namespace+"*", 200).Result()
		if err != nil {
			span.End(err)
			return err
		}
		if len(keys) > 0 {
			pipe := s.rdb.Pipeline()
			pipe.Del(ctx, keys...)
			if _, err := pipe.Exec(ctx); err != nil {
				span.End(err)
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	span.End(nil)
	return nil
}

type memoryEntry struct {
	body    []byte
	expires time.Time
}

// MemoryPageStore is an in-process PageStore used when Redis is unavailable
// and in tests.
type MemoryPageStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryPageStore() *MemoryPageStore {
	return &MemoryPageStore{entries: make(map[string]memoryEntry), now: time.Now}
}

// WithClock overrides the time source.
func (s *MemoryPageStore) WithClock(now func() time.Time) *MemoryPageStore {
	s.now = now
	return s
}

func (s *MemoryPageStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !s.now().Before(e.expires) {
		delete(s.entries, key)
		return nil, false, nil
	}
	out := make([]byte, len(e.body))
	copy(out, e.body)
	return out, true, nil
}

func (s *MemoryPageStore) Set(_ context.Context, key string, body []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	stored := make([]byte, len(body))
	copy(stored, body)
	s.mu.Lock()
	s.entries[key] = memoryEntry{body: stored, expires: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryPageStore) TTL(_ context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return 0, nil
	}
	left := e.expires.Sub(s.now())
	if left <= 0 {
		return 0, nil
	}
	return left, nil
}

func (s *MemoryPageStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]memoryEntry)
	s.mu.Unlock()
	return nil
}
