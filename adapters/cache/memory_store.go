package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jacobmr/teslatracker/ports"
)

// MemoryStore is an in-memory implementation of the NonceStore interface
type MemoryStore struct {
	nonces map[string]time.Time
	ttl    time.Duration
	mu     sync.Mutex
}

// NewMemoryStore creates a new in-memory nonce store
func NewMemoryStore(ttl time.Duration) ports.NonceStore {
	return &MemoryStore{
		nonces: make(map[string]time.Time),
		ttl:    ttl,
	}
}

// Issue generates a nonce and records its expiry
func (s *MemoryStore) Issue(ctx context.Context) (string, error) {
	nonce, err := newNonce()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonces[nonce] = time.Now().Add(s.ttl)

	return nonce, nil
}

// Consume checks for the nonce and removes it under a single lock, so only
// one caller can ever observe it as present. Expired entries count as absent.
func (s *MemoryStore) Consume(ctx context.Context, nonce string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, exists := s.nonces[nonce]
	if !exists {
		return false, nil
	}

	delete(s.nonces, nonce)

	if time.Now().After(expiry) {
		return false, nil
	}

	return true, nil
}
