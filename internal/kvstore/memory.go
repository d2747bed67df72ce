package kvstore

import (
	"fmt"
	"slices"
	"sync"

	"keepsake/internal/keepsake"
)

// MemoryBackend keeps values in memory for the life of the process. It
// serves as the session-scoped fallback store and as a test backend.
// An optional byte budget makes it reject writes like a full browser store.
// This implementation is safe for concurrent use.
type MemoryBackend struct {
	mu       sync.RWMutex
	data     map[string][]byte
	maxBytes int64
	used     int64
}

var _ keepsake.Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates an empty backend. maxBytes <= 0 means unlimited;
// otherwise the sum of key and value lengths may not exceed it.
func NewMemoryBackend(maxBytes int64) *MemoryBackend {
	return &MemoryBackend{
		data:     make(map[string][]byte),
		maxBytes: maxBytes,
	}
}

func entrySize(key string, value []byte) int64 {
	return int64(len(key) + len(value))
}

func (m *MemoryBackend) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, keepsake.ErrKeyNotFound
	}
	return slices.Clone(v), nil
}

func (m *MemoryBackend) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.used + entrySize(key, value)
	if old, ok := m.data[key]; ok {
		used -= entrySize(key, old)
	}
	if m.maxBytes > 0 && used > m.maxBytes {
		return fmt.Errorf("writing %s (%d bytes, budget %d): %w", key, len(value), m.maxBytes, keepsake.ErrQuotaExceeded)
	}
	m.data[key] = slices.Clone(value)
	m.used = used
	return nil
}

func (m *MemoryBackend) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.data[key]; ok {
		m.used -= entrySize(key, old)
		delete(m.data, key)
	}
	return nil
}

func (m *MemoryBackend) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

// Used returns the bytes currently counted against the budget.
func (m *MemoryBackend) Used() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.used
}
