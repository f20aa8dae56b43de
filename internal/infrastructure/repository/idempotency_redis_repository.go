package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "event-registration/internal/domain/registration"

	"github.com/go-redis/redis/v8"
)

var ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")

var _ domain.IdempotencyRepository = (*RedisIdempotencyRepository)(nil)

// RedisIdempotencyRepository stores processed registration request keys in
// redis so identical retries replay the stored response.
type RedisIdempotencyRepository struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisIdempotencyRepository(client redis.UniversalClient) *RedisIdempotencyRepository {
	return &RedisIdempotencyRepository{
		client: client,
		prefix: "idempotency_key:",
		ttl:    24 * time.Hour,
	}
}

func (r *RedisIdempotencyRepository) Create(ctx context.Context, key *domain.IdempotencyKey) error {
	data, err := json.Marshal(key)
	if err != nil {
		return fmt.Errorf("failed to marshal idempotency key: %w", err)
	}

	if err := r.client.Set(ctx, r.redisKey(key.Key), string(data), r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotency key in redis: %w", err)
	}
	return nil
}

func (r *RedisIdempotencyRepository) GetByKey(ctx context.Context, key string) (*domain.IdempotencyKey, error) {
	val, err := r.client.Get(ctx, r.redisKey(key)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrIdempotencyKeyNotFound
		}
		return nil, fmt.Errorf("failed to get idempotency key from redis: %w", err)
	}

	var idempotencyKey domain.IdempotencyKey
	if err := json.Unmarshal([]byte(val), &idempotencyKey); err != nil {
		return nil, fmt.Errorf("failed to unmarshal idempotency key: %w", err)
	}
	return &idempotencyKey, nil
}

func (r *RedisIdempotencyRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete idempotency key from redis: %w", err)
	}
	return nil
}

func (r *RedisIdempotencyRepository) redisKey(key string) string {
	return r.prefix + key
}
