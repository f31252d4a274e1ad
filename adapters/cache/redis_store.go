package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jacobmr/teslatracker/ports"
	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis implementation of the NonceStore interface
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a new Redis nonce store
func NewRedisStore(client *redis.Client, ttl time.Duration) ports.NonceStore {
	return &RedisStore{
		client: client,
		prefix: DefaultPrefix,
		ttl:    ttl,
	}
}

// Issue generates a nonce and records it with the configured TTL
func (s *RedisStore) Issue(ctx context.Context) (string, error) {
	nonce, err := newNonce()
	if err != nil {
		return "", err
	}

	if err := s.client.Set(ctx, s.prefix+nonce, "1", s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store state nonce: %w", err)
	}

	return nonce, nil
}

// Consume atomically checks for the nonce and removes it. GETDEL is a single
// operation, so two concurrent callbacks presenting the same nonce can never
// both observe it as present.
func (s *RedisStore) Consume(ctx context.Context, nonce string) (bool, error) {
	_, err := s.client.GetDel(ctx, s.prefix+nonce).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to consume state nonce: %w", err)
	}

	return true, nil
}
