// ABOUTME: In-memory KV implementation for unit tests
// ABOUTME: Map-backed, safe for concurrent use, no persistence

package storage

import (
	"context"
	"sync"
)

// MemKV is a map-backed KV for tests.
type MemKV struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemKV creates an empty in-memory KV store.
func NewMemKV() *MemKV {
	return &MemKV{records: make(map[string][]byte)}
}

// Get returns the record for key, or ErrNotFound.
func (m *MemKV) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set stores value under key.
func (m *MemKV) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	m.records[key] = stored
	return nil
}

// Delete removes the record for key.
func (m *MemKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, key)
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemKV) Close() error {
	return nil
}

// Keys returns the stored keys. Test helper.
func (m *MemKV) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.records))
	for k := range m.records {
		keys = append(keys, k)
	}
	return keys
}
