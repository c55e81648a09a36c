// Package stats holds the local, in-memory tally of handled events.
package stats

import (
	"sync"

	"github.com/randalmurphal/eventsync/pkg/eventsync/event"
)

// Aggregator counts occurrences per event name.
// It is the source of truth for local counts and is safe for concurrent use.
type Aggregator struct {
	mu     sync.RWMutex
	counts map[event.Name]int64
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		counts: make(map[event.Name]int64),
	}
}

// Increment adds one to the count for name and returns the new count.
func (a *Aggregator) Increment(name event.Name) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.counts[name]++
	return a.counts[name]
}

// Count returns the count for name, or 0 if it was never incremented.
func (a *Aggregator) Count(name event.Name) int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.counts[name]
}

// Snapshot returns a copy of all counts.
func (a *Aggregator) Snapshot() map[event.Name]int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(map[event.Name]int64, len(a.counts))
	for name, n := range a.counts {
		out[name] = n
	}
	return out
}
