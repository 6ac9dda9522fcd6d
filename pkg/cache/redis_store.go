package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"katiba-reader-be/internal/pkg/logger"
)

// RedisStore backs the cache-aside layer with Redis. Values are stored as
// JSON so entries survive process restarts and are shared across replicas.
type RedisStore struct {
	client *redis.Client
	log    logger.ILogger
}

func NewRedisStore(client *redis.Client, log logger.ILogger) *RedisStore {
	return &RedisStore{
		client: client,
		log:    log,
	}
}

func (s *RedisStore) Get(ctx context.Context, key string, dest interface{}) bool {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn("cache", "redis get failed, treating as miss", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
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

func (s *RedisStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		s.log.Warn("cache", "cache value marshal failed, skipping write", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		s.log.Warn("cache", "redis set failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

func (s *RedisStore) SetBackground(key string, value interface{}, ttl time.Duration) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		s.Set(ctx, key, value, ttl)
	}()
}

func (s *RedisStore) Delete(ctx context.Context, key string) {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.log.Warn("cache", "redis delete failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

func (s *RedisStore) ClearPattern(ctx context.Context, prefix string) int {
	var deleted int
	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= 100 {
			deleted += s.deleteBatch(ctx, batch)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		s.log.Warn("cache", "redis scan failed", map[string]interface{}{
			"prefix": prefix,
			"error":  err.Error(),
		})
	}
	if len(batch) > 0 {
		deleted += s.deleteBatch(ctx, batch)
	}
	return deleted
}

func (s *RedisStore) deleteBatch(ctx context.Context, keys []string) int {
	n, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		s.log.Warn("cache", "redis batch delete failed", map[string]interface{}{
			"error": err.Error(),
		})
		return 0
	}
	return int(n)
}

func (s *RedisStore) Increment(ctx context.Context, key string) int64 {
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		s.log.Warn("cache", "redis increment failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return 0
	}
	return n
}
