// Package memtable provides the in-memory, key-sorted write buffer that
// sits in front of the storage engine's segment files. Every write lands
// here first; once the buffer reaches its configured capacity, the engine
// flushes it to a new segment and clears it.
package memtable

import (
	"slices"
	"sync"

	"github.com/kraytos17/kv-db/internal/kv"
)

// MemTable is an ordered map from key to value, bounded by a configurable
// maximum entry count. Ordering is lexicographic (ordinal) comparison of
// keys, matching the on-disk segment sort invariant.
type MemTable struct {
	mu      sync.RWMutex
	entries map[string]string
	maxSize int
}

// New creates an empty MemTable bounded at maxSize entries.
func New(maxSize int) *MemTable {
	return &MemTable{entries: make(map[string]string), maxSize: maxSize}
}

// Insert records key -> value, overwriting any prior value for key. value
// may be kv.Tombstone.
func (m *MemTable) Insert(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
}

// Contains reports whether key is present, including when it maps to
// kv.Tombstone.
func (m *MemTable) Contains(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[key]
	return ok
}

// Get returns the value currently stored for key, which may be
// kv.Tombstone, and whether key is present at all.
func (m *MemTable) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.entries[key]
	return value, ok
}

// CapacityReached reports whether the number of entries has reached the
// configured maximum. Capacity is advisory: the caller (the engine) is
// responsible for triggering a flush in response.
func (m *MemTable) CapacityReached() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries) >= m.maxSize
}

// Len returns the current number of entries.
func (m *MemTable) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Clear empties the MemTable.
func (m *MemTable) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.entries)
}

// All returns every entry currently buffered, in ascending ordinal key
// order, suitable for writing straight into a new segment on flush.
func (m *MemTable) All() []kv.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	out := make([]kv.Entry, len(keys))
	for i, key := range keys {
		out[i] = kv.Entry{Key: key, Value: m.entries[key]}
	}
	return out
}
