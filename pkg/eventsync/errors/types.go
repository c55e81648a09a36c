package errors

import (
	"errors"
	"fmt"
)

// ErrRetryExhausted is the sentinel matched by RetryExhaustedError.
var ErrRetryExhausted = errors.New("retry budget exhausted")

// TransientStoreError indicates the durable store rejected an increment
// because of overload or a latency fault. Always retryable.
type TransientStoreError struct {
	Name   string
	Amount int64
	Err    error
}

// Error implements the error interface.
func (e *TransientStoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("store rejected %s+%d: %v", e.Name, e.Amount, e.Err)
	}
	return fmt.Sprintf("store rejected %s+%d", e.Name, e.Amount)
}

// Unwrap returns the underlying error.
func (e *TransientStoreError) Unwrap() error {
	return e.Err
}

// RetryExhaustedError is the terminal error of a sync attempt that used
// its whole retry budget. The local count is not rolled back.
type RetryExhaustedError struct {
	Name     string
	Attempts int
	Last     error
}

// Error implements the error interface.
func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("failed to sync %s after %d attempts: %v", e.Name, e.Attempts, e.Last)
}

// Unwrap returns both the sentinel and the last store error.
func (e *RetryExhaustedError) Unwrap() []error {
	return []error{ErrRetryExhausted, e.Last}
}

// InvalidIncrementError indicates an increment that no store should accept.
type InvalidIncrementError struct {
	Name    string
	Amount  int64
	Message string
}

// Error implements the error interface.
func (e *InvalidIncrementError) Error() string {
	return fmt.Sprintf("invalid increment %s+%d: %s", e.Name, e.Amount, e.Message)
}

// ConfigError indicates invalid configuration detected at construction time.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}
