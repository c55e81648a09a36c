package store

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/randalmurphal/eventsync/pkg/eventsync/event"
	syncerrors "github.com/randalmurphal/eventsync/pkg/eventsync/errors"
)

// DelayedConfig configures fault injection for Delayed.
type DelayedConfig struct {
	// FailureRate is the probability in [0, 1] that a call fails.
	FailureRate float64

	// MaxLatency bounds the random latency added before every call.
	// Zero disables latency.
	MaxLatency time.Duration

	// Rand is the random source. Nil uses a randomly seeded PCG.
	Rand *rand.Rand
}

// Delayed wraps a Store with random latency and random transient failures.
//
// Each ApplyIncrement first waits a random duration in [0, MaxLatency),
// then either fails with a *errors.TransientStoreError (probability
// FailureRate) without touching the inner store, or forwards the call.
// Count and Close are forwarded unchanged.
type Delayed struct {
	inner       Store
	failureRate float64
	maxLatency  time.Duration

	mu  sync.Mutex // guards rng; *rand.Rand is not safe for concurrent use
	rng *rand.Rand
}

// Compile-time interface check.
var _ Store = (*Delayed)(nil)

// NewDelayed wraps inner with fault injection.
func NewDelayed(inner Store, cfg DelayedConfig) (*Delayed, error) {
	if inner == nil {
		return nil, &syncerrors.ConfigError{Field: "store", Message: "inner store is required"}
	}
	if math.IsNaN(cfg.FailureRate) || cfg.FailureRate < 0 || cfg.FailureRate > 1 {
		return nil, &syncerrors.ConfigError{Field: "failure_rate", Message: "must be within [0, 1]"}
	}
	if cfg.MaxLatency < 0 {
		return nil, &syncerrors.ConfigError{Field: "max_latency", Message: "cannot be negative"}
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &Delayed{
		inner:       inner,
		failureRate: cfg.FailureRate,
		maxLatency:  cfg.MaxLatency,
		rng:         rng,
	}, nil
}

// ApplyIncrement implements Store.
func (d *Delayed) ApplyIncrement(ctx context.Context, name event.Name, amount int64) error {
	latency, fail := d.roll()

	if latency > 0 {
		timer := time.NewTimer(latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return &syncerrors.TransientStoreError{Name: name.String(), Amount: amount, Err: ctx.Err()}
		case <-timer.C:
		}
	}

	if fail {
		return &syncerrors.TransientStoreError{Name: name.String(), Amount: amount, Err: ErrSimulatedFailure}
	}
	return d.inner.ApplyIncrement(ctx, name, amount)
}

// roll draws the latency and failure decision for one call.
func (d *Delayed) roll() (time.Duration, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var latency time.Duration
	if d.maxLatency > 0 {
		latency = time.Duration(d.rng.Int64N(int64(d.maxLatency)))
	}
	return latency, d.rng.Float64() < d.failureRate
}

// Count implements Store.
func (d *Delayed) Count(ctx context.Context, name event.Name) (int64, error) {
	return d.inner.Count(ctx, name)
}

// Close implements Store.
func (d *Delayed) Close() error {
	return d.inner.Close()
}

// Inner returns the wrapped store.
func (d *Delayed) Inner() Store {
	return d.inner
}
