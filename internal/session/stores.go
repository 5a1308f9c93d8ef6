package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"koalbot_console/internal/services"
)

// RedisStore keeps profiles in Redis
type RedisStore struct {
	cache *services.RedisCache
}

// NewRedisStore creates a store backed by cache
func NewRedisStore(cache *services.RedisCache) *RedisStore {
	return &RedisStore{cache: cache}
}

func (s *RedisStore) Load(ctx context.Context, key string) (Profile, error) {
	var p Profile
	if err := s.cache.Get(ctx, key, &p); err != nil {
		if errors.Is(err, services.ErrCacheMiss) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	return p, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, p Profile, ttl time.Duration) error {
	return s.cache.Set(ctx, key, p, ttl)
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	return s.cache.Delete(ctx, keys...)
}

type memoryEntry struct {
	profile Profile
	expires time.Time
}

// MemoryStore keeps profiles in process memory. Used when no Redis is configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Load(_ context.Context, key string) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return Profile{}, ErrNotFound
	}
	if !e.expires.IsZero() && s.now().After(e.expires) {
		delete(s.entries, key)
		return Profile{}, ErrNotFound
	}
	return e.profile, nil
}

func (s *MemoryStore) Save(_ context.Context, key string, p Profile, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := memoryEntry{profile: p}
	if ttl > 0 {
		e.expires = s.now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.entries, k)
	}
	return nil
}
