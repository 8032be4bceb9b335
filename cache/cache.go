// Package cache holds the single-slot cache in front of the global feed
// rendering. There is one slot for the whole process, no key per page or
// per filter; any post mutation clears it wholesale.
package cache

import "sync"

// Cache is the feed cache contract: get the slot, fill it, or clear it.
// A read racing a concurrent invalidation may repopulate the slot with a
// stale rendering; that window is accepted.
type Cache interface {
	Get() ([]byte, bool)
	Set(value []byte)
	Invalidate()
}

// Memory is an in-process Cache guarding its slot with a mutex.
type Memory struct {
	mu   sync.RWMutex
	slot []byte
	full bool
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{}
}

// Get returns the cached value, or false on a miss.
func (m *Memory) Get() ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.full {
		return nil, false
	}
	return m.slot, true
}

// Set fills the slot.
func (m *Memory) Set(value []byte) {
	m.mu.Lock()
	m.slot = value
	m.full = true
	m.mu.Unlock()
}

// Invalidate empties the slot.
func (m *Memory) Invalidate() {
	m.mu.Lock()
	m.slot = nil
	m.full = false
	m.mu.Unlock()
}
