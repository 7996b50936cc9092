package swssdb

import (
	"context"
	"sync"
)

// MemStore is an in-memory Conn. It stands in for a switch database in tests
// and counts reads per key so callers can assert what was queried.
type MemStore struct {
	mu     sync.RWMutex
	hashes map[string]map[string]string
	reads  map[string]int
	down   bool
}

// NewMemStore creates an empty in-memory store
func NewMemStore() *MemStore {
	return &MemStore{
		hashes: make(map[string]map[string]string),
		reads:  make(map[string]int),
	}
}

// GetAll returns a copy of the hash at key
func (m *MemStore) GetAll(ctx context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, ErrConnection
	}
	m.reads[key]++
	result := make(map[string]string, len(m.hashes[key]))
	for k, v := range m.hashes[key] {
		result[k] = v
	}
	return result, nil
}

// SetFields merges fields into the hash at key
func (m *MemStore) SetFields(ctx context.Context, key string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return ErrConnection
	}
	if len(fields) == 0 {
		return nil
	}
	h, exists := m.hashes[key]
	if !exists {
		h = make(map[string]string, len(fields))
		m.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

// DeleteField removes a single field, dropping the key when it becomes empty
func (m *MemStore) DeleteField(key, field string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, exists := m.hashes[key]; exists {
		delete(h, field)
		if len(h) == 0 {
			delete(m.hashes, key)
		}
	}
}

// Delete removes key
func (m *MemStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return ErrConnection
	}
	delete(m.hashes, key)
	return nil
}

// Ping fails only when the store was marked down
func (m *MemStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.down {
		return ErrConnection
	}
	return nil
}

// Close is a no-op
func (m *MemStore) Close() error {
	return nil
}

// SetDown makes every following operation fail with ErrConnection
func (m *MemStore) SetDown(down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.down = down
}

// Exists reports whether key holds a hash
func (m *MemStore) Exists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.hashes[key]
	return exists
}

// Calls returns how many times key was read with GetAll
func (m *MemStore) Calls(key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reads[key]
}

// Keys returns the number of stored hashes
func (m *MemStore) Keys() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hashes)
}
