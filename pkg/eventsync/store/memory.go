package store

import (
	"context"
	"sync"

	"github.com/randalmurphal/eventsync/pkg/eventsync/event"
)

// MemoryStore is an in-memory event store for testing and simulation.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	totals map[event.Name]int64
	calls  int64
	closed bool
}

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory event store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		totals: make(map[event.Name]int64),
	}
}

// ApplyIncrement implements Store.
func (m *MemoryStore) ApplyIncrement(_ context.Context, name event.Name, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	m.totals[name] += amount
	m.calls++
	return nil
}

// Count implements Store.
func (m *MemoryStore) Count(_ context.Context, name event.Name) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, ErrStoreClosed
	}
	return m.totals[name], nil
}

// Totals returns a copy of every stored total, keyed by name.
func (m *MemoryStore) Totals(_ context.Context) (map[event.Name]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	totals := make(map[event.Name]int64, len(m.totals))
	for name, total := range m.totals {
		totals[name] = total
	}
	return totals, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.totals = nil
	return nil
}

// Applied returns how many increments were applied successfully.
// Useful for testing.
func (m *MemoryStore) Applied() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}
