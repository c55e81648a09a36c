// Package errors provides error categorization for the sync pipeline.
//
// The package separates failures by how they should be handled:
//   - Transient: the durable store was slow or overloaded, retry with backoff
//   - Permanent: the request itself is wrong, retrying cannot help
//
// Retry exhaustion and configuration errors get their own types so callers
// can match them with errors.Is and errors.As.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Category represents how an error should be handled.
type Category int

const (
	// CategoryTransient indicates retry will likely help.
	// Examples: store overload, simulated latency faults, timeouts.
	CategoryTransient Category = iota

	// CategoryPermanent indicates retry won't help.
	// Examples: invalid increment amount, unknown event name.
	CategoryPermanent
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTransient:
		return "transient"
	case CategoryPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// CategorizedError wraps an error with its category and context.
type CategorizedError struct {
	// Err is the underlying error.
	Err error

	// Category indicates how this error should be handled.
	Category Category

	// Retries is the number of attempts that have been made.
	Retries int

	// Context describes what operation was being attempted.
	Context string
}

// Error implements the error interface.
func (e *CategorizedError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (category: %s, attempts: %d)",
			e.Context, e.Err, e.Category, e.Retries)
	}
	return fmt.Sprintf("%s (category: %s, attempts: %d)",
		e.Err, e.Category, e.Retries)
}

// Unwrap returns the underlying error.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// NewCategorized creates a new categorized error.
func NewCategorized(err error, category Category, context string) *CategorizedError {
	return &CategorizedError{
		Err:      err,
		Category: category,
		Context:  context,
	}
}

// Transient creates a transient error.
func Transient(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryTransient, context)
}

// Permanent creates a permanent error.
func Permanent(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryPermanent, context)
}

// Categorize determines how an error should be handled.
//
// Store failures are transient unless something marked them otherwise.
// Errors nobody classified are treated as transient too: the durable store
// is the only thing the sync loop calls, and its contract says its
// failures are overload faults.
func Categorize(err error) Category {
	if err == nil {
		return CategoryPermanent // shouldn't happen, fail safe
	}

	// Check for already-categorized errors
	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr.Category
	}

	var storeErr *TransientStoreError
	if errors.As(err, &storeErr) {
		return CategoryTransient
	}

	var incErr *InvalidIncrementError
	if errors.As(err, &incErr) {
		return CategoryPermanent
	}

	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return CategoryPermanent
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, errors.ErrUnsupported) {
		return CategoryPermanent
	}

	return CategoryTransient
}

// IsRetryable reports whether the error should be retried.
func IsRetryable(err error) bool {
	return Categorize(err) == CategoryTransient
}
