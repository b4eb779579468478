package storage

import (
	"sync"
)

// MemoryNamespace is an in-memory Namespace. Keys enumerate in insertion
// order. It is safe for concurrent use.
type MemoryNamespace struct {
	mu    sync.RWMutex
	data  map[string]string
	keys  []string
	used  int64
	quota int64 // 0 means unlimited
}

// NewMemoryNamespace creates an empty in-memory namespace. A positive quota
// caps the total bytes of keys and values it will hold.
func NewMemoryNamespace(quota int64) *MemoryNamespace {
	return &MemoryNamespace{
		data:  make(map[string]string),
		quota: quota,
	}
}

// GetItem returns the value stored at key.
func (m *MemoryNamespace) GetItem(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.data[key]
	return value, ok, nil
}

// SetItem stores value at key. A write that would exceed the quota fails with
// ErrQuotaExceeded and leaves the previous value in place.
func (m *MemoryNamespace) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, exists := m.data[key]
	used := m.used
	if exists {
		used -= entrySize(key, old)
	}
	need := entrySize(key, value)
	if m.quota > 0 && used+need > m.quota {
		return quotaError(need, m.quota)
	}

	if !exists {
		m.keys = append(m.keys, key)
	}
	m.data[key] = value
	m.used = used + need
	return nil
}

// RemoveItem deletes key if present.
func (m *MemoryNamespace) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, exists := m.data[key]
	if !exists {
		return nil
	}
	delete(m.data, key)
	m.used -= entrySize(key, value)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return nil
}

// Clear removes every entry.
func (m *MemoryNamespace) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[string]string)
	m.keys = nil
	m.used = 0
	return nil
}

// Length returns the number of entries.
func (m *MemoryNamespace) Length() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keys), nil
}

// Key returns the index-th key in insertion order.
func (m *MemoryNamespace) Key(index int) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if index < 0 || index >= len(m.keys) {
		return "", false, nil
	}
	return m.keys[index], true, nil
}

// Entries returns a snapshot of every entry.
func (m *MemoryNamespace) Entries() ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]Entry, 0, len(m.keys))
	for _, k := range m.keys {
		entries = append(entries, Entry{Key: k, Value: m.data[k]})
	}
	return entries, nil
}

// usage returns the bytes currently counted against the quota.
func (m *MemoryNamespace) usage() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.used
}
