package repository

import (
	"context"
	"sync"

	domain "event-registration/internal/domain/registration"
)

var _ domain.IdempotencyRepository = (*MemoryIdempotencyRepository)(nil)

// MemoryIdempotencyRepository is the redis idempotency store's in-memory
// counterpart, for tests and local development.
type MemoryIdempotencyRepository struct {
	mu   sync.RWMutex
	keys map[string]*domain.IdempotencyKey
}

func NewMemoryIdempotencyRepository() *MemoryIdempotencyRepository {
	return &MemoryIdempotencyRepository{
		keys: make(map[string]*domain.IdempotencyKey),
	}
}

func (r *MemoryIdempotencyRepository) Create(ctx context.Context, key *domain.IdempotencyKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *key
	r.keys[key.Key] = &copied
	return nil
}

func (r *MemoryIdempotencyRepository) GetByKey(ctx context.Context, key string) (*domain.IdempotencyKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.keys[key]
	if !ok {
		return nil, ErrIdempotencyKeyNotFound
	}
	copied := *stored
	return &copied, nil
}

func (r *MemoryIdempotencyRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keys, key)
	return nil
}
