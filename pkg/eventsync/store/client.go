package store

import (
	"context"
	"errors"

	"github.com/randalmurphal/eventsync/pkg/eventsync/event"
	syncerrors "github.com/randalmurphal/eventsync/pkg/eventsync/errors"
)

// Client is the durable-store side of the sync engine.
//
// Apply rejects malformed increments before any I/O and marks every
// uncategorized store failure as transient, so the retry policy sees a
// consistent error taxonomy whatever the backing store returns.
type Client struct {
	store Store
}

// NewClient creates a client over s.
func NewClient(s Store) *Client {
	return &Client{store: s}
}

// Apply adds amount to the durable total for name.
// Its signature matches retry.ApplyFunc.
func (c *Client) Apply(ctx context.Context, name event.Name, amount int64) error {
	if !name.Valid() {
		return &syncerrors.InvalidIncrementError{Name: name.String(), Amount: amount, Message: "unknown event name"}
	}
	if amount <= 0 {
		return &syncerrors.InvalidIncrementError{Name: name.String(), Amount: amount, Message: "amount must be positive"}
	}

	err := c.store.ApplyIncrement(ctx, name, amount)
	if err == nil {
		return nil
	}

	var categorized *syncerrors.CategorizedError
	var transient *syncerrors.TransientStoreError
	if errors.As(err, &categorized) || errors.As(err, &transient) {
		return err
	}
	if errors.Is(err, ErrStoreClosed) {
		return syncerrors.Permanent(err, "apply increment")
	}
	return &syncerrors.TransientStoreError{Name: name.String(), Amount: amount, Err: err}
}

// Count returns the durable total for name.
func (c *Client) Count(ctx context.Context, name event.Name) (int64, error) {
	return c.store.Count(ctx, name)
}

// Store returns the underlying store.
func (c *Client) Store() Store {
	return c.store
}
