package repository

import (
	"context"
	"sync"
)

type configKey struct {
	path, scope, scopeCode string
}

// MemoryConfigRepository is a process-local ConfigRepository, used for
// development and tests.
type MemoryConfigRepository struct {
	mu     sync.RWMutex
	values map[configKey]string
}

var _ ConfigRepository = (*MemoryConfigRepository)(nil)

// NewMemoryConfigRepository creates an empty in-memory config store.
func NewMemoryConfigRepository() *MemoryConfigRepository {
	return &MemoryConfigRepository{values: make(map[configKey]string)}
}

// Get returns the value stored at (path, scope, scopeCode).
func (r *MemoryConfigRepository) Get(ctx context.Context, path, scope, scopeCode string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.values[configKey{path, scope, scopeCode}]
	return v, ok, nil
}

// Save stores value at (path, scope, scopeCode).
func (r *MemoryConfigRepository) Save(ctx context.Context, path, value, scope, scopeCode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values[configKey{path, scope, scopeCode}] = value
	return nil
}

// Close is a no-op.
func (r *MemoryConfigRepository) Close() error {
	return nil
}
