package credentials

import (
	"context"
	"sync"
)

// MemoryRepository keeps values in a map guarded by a mutex.
type MemoryRepository struct {
	mu     sync.RWMutex
	values map[Key]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{values: make(map[Key]string)}
}

func (m *MemoryRepository) Get(_ context.Context, key Key) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryRepository) Set(_ context.Context, key Key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, keys ...Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// Len reports how many keys are stored.
func (m *MemoryRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
