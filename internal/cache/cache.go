// Package cache memoizes URL validity checks for the lifetime of a resolution run, with an
// optional Redis backend shared across runs.
package cache

import (
	"context"
	"sync"
)

// DefaultCapacity is the entry limit for Memory when none is given.
const DefaultCapacity = 4096

// ValidityCache remembers whether a URL passed a validity probe.
type ValidityCache interface {
	// Get reports the cached verdict and whether one was found.
	Get(ctx context.Context, url string) (valid bool, found bool)
	// Put stores a verdict. Implementations may silently decline to store it.
	Put(ctx context.Context, url string, valid bool)
}

// Memory is a bounded in-process map. Entries are never evicted: once full, new verdicts
// are not stored and the caller simply probes again.
type Memory struct {
	mu       sync.RWMutex
	entries  map[string]bool
	capacity int
}

// NewMemory creates a Memory cache holding at most capacity entries.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{entries: make(map[string]bool), capacity: capacity}
}

func (m *Memory) Get(_ context.Context, url string) (bool, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[url]
	return v, ok
}

func (m *Memory) Put(_ context.Context, url string, valid bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[url]; !exists && len(m.entries) >= m.capacity {
		return
	}
	m.entries[url] = valid
}

// Len returns the number of stored verdicts.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
