package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"bookstore/models"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore remembers the session created for an idempotency key.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*models.CheckoutSession, bool, error)
	Put(ctx context.Context, key string, s *models.CheckoutSession, ttl time.Duration) error
}

type RedisIdempotency struct {
	client *redis.Client
}

func NewRedisIdempotency(client *redis.Client) *RedisIdempotency {
	return &RedisIdempotency{client: client}
}

func idempotencyKey(key string) string {
	return "checkout:idempotency:" + key
}

func (r *RedisIdempotency) Get(ctx context.Context, key string) (*models.CheckoutSession, bool, error) {
	data, err := r.client.Get(ctx, idempotencyKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var s models.CheckoutSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false, fmt.Errorf("unmarshal checkout session failed: %w", err)
	}
	return &s, true, nil
}

func (r *RedisIdempotency) Put(ctx context.Context, key string, s *models.CheckoutSession, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal checkout session failed: %w", err)
	}
	if err := r.client.Set(ctx, idempotencyKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

type memoryEntry struct {
	session   models.CheckoutSession
	expiresAt time.Time
}

type MemoryIdempotency struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryIdempotency() *MemoryIdempotency {
	return &MemoryIdempotency{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryIdempotency) Get(ctx context.Context, key string) (*models.CheckoutSession, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return nil, false, nil
	}
	s := e.session
	return &s, true, nil
}

func (m *MemoryIdempotency) Put(ctx context.Context, key string, s *models.CheckoutSession, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
		}
	}
	m.entries[key] = memoryEntry{session: *s, expiresAt: now.Add(ttl)}
	return nil
}
