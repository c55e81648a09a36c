// Package store provides durable storage for per-name event totals.
//
// A Store sums increments: ApplyIncrement(name, n) adds n to the stored
// total, so applying increments in any order yields the same result.
// Client is the side the sync engine talks to; it validates input and
// categorizes store failures for the retry policy.
package store

import (
	"context"
	"errors"

	"github.com/randalmurphal/eventsync/pkg/eventsync/event"
)

// Store persists event totals.
// Implementations must be safe for concurrent use.
type Store interface {
	// ApplyIncrement adds amount to the stored total for name.
	ApplyIncrement(ctx context.Context, name event.Name, amount int64) error

	// Count returns the stored total for name.
	// Returns 0 (not error) for a name that was never incremented.
	Count(ctx context.Context, name event.Name) (int64, error)

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for store operations.
var (
	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("event store closed")

	// ErrSimulatedFailure is the cause of failures injected by Delayed.
	ErrSimulatedFailure = errors.New("simulated store failure")
)
