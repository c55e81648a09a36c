package retry

import (
	"math"
	"time"

	syncerrors "github.com/randalmurphal/eventsync/pkg/eventsync/errors"
)

// Policy configures bounded retry with capped exponential backoff.
// Policies are values: share them freely, nothing mutates them.
type Policy struct {
	// MaxRetries is the maximum number of store calls for one increment,
	// including the first.
	MaxRetries int

	// InitialDelay is the wait after the first failure.
	InitialDelay time.Duration

	// MaxDelay caps every wait.
	MaxDelay time.Duration

	// BackoffMultiplier is applied to the delay after each wait.
	// Must be >= 1 so delays never shrink.
	BackoffMultiplier float64
}

// DefaultPolicy is the standard retry configuration.
var DefaultPolicy = Policy{
	MaxRetries:        5,
	InitialDelay:      100 * time.Millisecond,
	MaxDelay:          2 * time.Second,
	BackoffMultiplier: 2.0,
}

// PolicyOption configures a Policy.
type PolicyOption func(*Policy)

// WithMaxRetries sets the maximum number of store calls.
func WithMaxRetries(n int) PolicyOption {
	return func(p *Policy) {
		p.MaxRetries = n
	}
}

// WithInitialDelay sets the first backoff wait.
func WithInitialDelay(d time.Duration) PolicyOption {
	return func(p *Policy) {
		p.InitialDelay = d
	}
}

// WithMaxDelay sets the backoff cap.
func WithMaxDelay(d time.Duration) PolicyOption {
	return func(p *Policy) {
		p.MaxDelay = d
	}
}

// WithBackoffMultiplier sets the backoff growth factor.
func WithBackoffMultiplier(f float64) PolicyOption {
	return func(p *Policy) {
		p.BackoffMultiplier = f
	}
}

// NewPolicy creates a policy from DefaultPolicy and the given options.
// It returns a *errors.ConfigError if the result is invalid.
func NewPolicy(opts ...PolicyOption) (Policy, error) {
	p := DefaultPolicy
	for _, opt := range opts {
		opt(&p)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate checks the policy for configuration errors.
func (p Policy) Validate() error {
	switch {
	case p.MaxRetries < 1:
		return &syncerrors.ConfigError{Field: "max_retries", Message: "must be at least 1"}
	case p.InitialDelay < 0:
		return &syncerrors.ConfigError{Field: "initial_delay", Message: "cannot be negative"}
	case p.MaxDelay < p.InitialDelay:
		return &syncerrors.ConfigError{Field: "max_delay", Message: "must be >= initial_delay"}
	case math.IsNaN(p.BackoffMultiplier) || p.BackoffMultiplier < 1:
		return &syncerrors.ConfigError{Field: "backoff_multiplier", Message: "must be >= 1"}
	}
	return nil
}

// NextDelay returns min(d*BackoffMultiplier, MaxDelay) without overflowing.
func (p Policy) NextDelay(d time.Duration) time.Duration {
	next := float64(d) * p.BackoffMultiplier
	if next >= float64(p.MaxDelay) || next > math.MaxInt64 {
		return p.MaxDelay
	}
	return time.Duration(next)
}

// DelayAt returns the wait before retry i+1, which is
// min(InitialDelay * BackoffMultiplier^i, MaxDelay).
func (p Policy) DelayAt(i int) time.Duration {
	d := p.InitialDelay
	for range i {
		d = p.NextDelay(d)
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}
