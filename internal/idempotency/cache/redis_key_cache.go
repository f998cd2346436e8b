// Package cache provides a Redis read-through cache in front of the idempotency key
// repository. The database stays authoritative: a cache miss or a Redis error always
// falls through to the repository.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/allisson/orderflow/internal/idempotency/domain"
)

const keyPrefix = "orderflow:idempotency:"

// Repository is the authoritative idempotency key store.
type Repository interface {
	Get(ctx context.Context, key string) (*domain.Key, error)
	Create(ctx context.Context, k *domain.Key) error
}

// CachedRepository serves completed keys from Redis.
type CachedRepository struct {
	next   Repository
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedRepository wraps next with a Redis cache.
func NewCachedRepository(
	next Repository,
	client redis.UniversalClient,
	ttl time.Duration,
	logger *slog.Logger,
) *CachedRepository {
	return &CachedRepository{next: next, client: client, ttl: ttl, logger: logger}
}

// Connect creates a Redis client and verifies the connection.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Get returns the cached key when present and otherwise reads the repository, caching
// what it finds.
func (r *CachedRepository) Get(ctx context.Context, key string) (*domain.Key, error) {
	raw, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	switch {
	case err == nil:
		var k domain.Key
		if jsonErr := json.Unmarshal(raw, &k); jsonErr == nil {
			return &k, nil
		}
		r.warn("discarding corrupt cached idempotency key", key, nil)
	case !errors.Is(err, redis.Nil):
		r.warn("idempotency cache read failed", key, err)
	}

	k, err := r.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(k); err == nil {
		if err := r.client.Set(ctx, keyPrefix+key, raw, r.ttl).Err(); err != nil {
			r.warn("idempotency cache write failed", key, err)
		}
	}
	return k, nil
}

// Create delegates to the repository. The key is cached on its first read, after the
// creating transaction has committed.
func (r *CachedRepository) Create(ctx context.Context, k *domain.Key) error {
	return r.next.Create(ctx, k)
}

func (r *CachedRepository) warn(msg, key string, err error) {
	if r.logger == nil {
		return
	}
	attrs := []any{slog.String("idempotency_key", key)}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	r.logger.Warn(msg, attrs...)
}
