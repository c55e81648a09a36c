// Package divergence records increments that never reached the durable store.
//
// When a sync attempt gives up or is rejected, the local count keeps the
// increment while the durable total does not. The ledger makes that gap
// visible and attributable per occurrence. It is a record only: nothing
// dequeues or replays entries.
package divergence

import (
	"context"
	"sync"
	"time"

	"github.com/randalmurphal/eventsync/pkg/eventsync/event"
)

// Entry describes one increment that the durable store never applied.
type Entry struct {
	OccurrenceID string
	Name         event.Name
	Amount       int64
	Attempts     int    // store calls made
	Outcome      string // "gave_up" or "rejected"
	Error        string
	FailedAt     time.Time
}

// Ledger records divergence entries.
// Implementations must be safe for concurrent use.
type Ledger interface {
	// Record adds an entry.
	Record(ctx context.Context, entry Entry) error

	// List returns up to limit of the most recent entries, oldest first.
	// limit <= 0 returns every retained entry.
	List(ctx context.Context, limit int) ([]Entry, error)

	// Count returns the number of entries ever recorded.
	Count(ctx context.Context) (int, error)

	// CountByName returns the number of entries ever recorded per name.
	CountByName(ctx context.Context) (map[event.Name]int, error)
}

// MemoryConfig configures a MemoryLedger.
type MemoryConfig struct {
	// MaxEntries bounds how many entries List can return. Older entries
	// are evicted but still counted.
	// Default: 10000
	MaxEntries int

	// OnRecord is called after an entry is added.
	OnRecord func(Entry)
}

// DefaultMemoryConfig provides reasonable defaults.
var DefaultMemoryConfig = MemoryConfig{
	MaxEntries: 10000,
}

// MemoryLedger is an in-memory Ledger.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries []Entry
	total   int
	byName  map[event.Name]int
	cfg     MemoryConfig
}

// Compile-time interface check.
var _ Ledger = (*MemoryLedger)(nil)

// NewMemoryLedger creates an in-memory ledger.
func NewMemoryLedger(cfg MemoryConfig) *MemoryLedger {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMemoryConfig.MaxEntries
	}
	return &MemoryLedger{
		byName: make(map[event.Name]int),
		cfg:    cfg,
	}
}

// Record implements Ledger.
func (l *MemoryLedger) Record(_ context.Context, entry Entry) error {
	if entry.FailedAt.IsZero() {
		entry.FailedAt = time.Now().UTC()
	}

	l.mu.Lock()
	if len(l.entries) >= l.cfg.MaxEntries {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:len(l.entries)-1]
	}
	l.entries = append(l.entries, entry)
	l.total++
	l.byName[entry.Name]++
	l.mu.Unlock()

	if l.cfg.OnRecord != nil {
		l.cfg.OnRecord(entry)
	}
	return nil
}

// List implements Ledger.
func (l *MemoryLedger) List(_ context.Context, limit int) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	start := 0
	if limit > 0 && limit < len(l.entries) {
		start = len(l.entries) - limit
	}
	out := make([]Entry, len(l.entries)-start)
	copy(out, l.entries[start:])
	return out, nil
}

// Count implements Ledger.
func (l *MemoryLedger) Count(_ context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total, nil
}

// CountByName implements Ledger.
func (l *MemoryLedger) CountByName(_ context.Context) (map[event.Name]int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	counts := make(map[event.Name]int, len(l.byName))
	for name, n := range l.byName {
		counts[name] = n
	}
	return counts, nil
}
