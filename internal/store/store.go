// Package store persists small string values, such as the rotating Strava
// refresh token, across stateless invocations.
package store

import (
	"context"
	"sync"
)

// RefreshTokenKey is the key under which the current refresh token is kept.
const RefreshTokenKey = "strava_refresh_token"

// TokenStore is a key-value store. Get reports ok=false when the key is absent.
// There is no transactional guarantee between a Get and a later Set.
type TokenStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// MemoryStore keeps values in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
