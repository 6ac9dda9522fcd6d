package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"katiba-reader-be/internal/pkg/logger"
)

// MemoryStore is an in-process Store used when no Redis URL is configured
// (local development, tests). Values are kept as JSON bytes so behaviour
// matches the Redis backend, including the copy-on-read semantics.
type MemoryStore struct {
	cache *gocache.Cache
	log   logger.ILogger

	mu sync.Mutex // serializes Increment read-modify-write
}

func NewMemoryStore(log logger.ILogger) *MemoryStore {
	// Default expiration 1 hour, purge every 10 minutes
	s := &MemoryStore{
		cache: gocache.New(1*time.Hour, 10*time.Minute),
		log:   log,
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string, dest interface{}) bool {
	raw, found := s.cache.Get(key)
	if !found {
		return false
	}
	data, ok := raw.([]byte)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		s.log.Warn("cache", "cached payload unmarshal failed, treating as miss", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}
	return true
}

func (s *MemoryStore) Set(_ context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		s.log.Warn("cache", "cache value marshal failed, skipping write", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return
	}
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	s.cache.Set(key, data, ttl)
}

func (s *MemoryStore) SetBackground(key string, value interface{}, ttl time.Duration) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		s.Set(ctx, key, value, ttl)
	}()
}

func (s *MemoryStore) Delete(_ context.Context, key string) {
	s.cache.Delete(key)
}

func (s *MemoryStore) ClearPattern(_ context.Context, prefix string) int {
	var deleted int
	for key := range s.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Delete(key)
			deleted++
		}
	}
	return deleted
}

func (s *MemoryStore) Increment(_ context.Context, key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	if raw, found := s.cache.Get(key); found {
		if data, ok := raw.([]byte); ok {
			_ = json.Unmarshal(data, &n)
		}
	}
	n++
	data, _ := json.Marshal(n)
	s.cache.Set(key, data, gocache.NoExpiration)
	return n
}
