package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"event-registration/internal/config"

	"github.com/go-redis/redis/v8"
)

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr, password string, db int) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisCache{
		client: rdb,
	}
}

func NewRedisCacheWithConfig(cfg *config.CacheConfig) *RedisCache {
	return NewRedisCache(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), cfg.Password, cfg.DB)
}

// GetClient exposes the underlying client for repositories built on redis
func (r *RedisCache) GetClient() redis.UniversalClient {
	return r.client
}

// GetJSON fetches a key and unmarshals it into dest. Returns redis.Nil via
// the wrapped error when the key is absent.
func (r *RedisCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("cache key %s not found: %w", key, err)
		}
		return fmt.Errorf("failed to get key %s from cache: %w", key, err)
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("failed to unmarshal cached value for %s: %w", key, err)
	}
	return nil
}

// SetJSON marshals value and stores it under key with the given TTL
func (r *RedisCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, string(data), ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s in cache: %w", key, err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
