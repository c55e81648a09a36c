package event

import (
	"context"
	"math/rand/v2"
	"time"
)

// TriggerConfig configures TriggerRandomly.
type TriggerConfig struct {
	// MaxCount is the number of times fn is called.
	MaxCount int

	// MaxInterval bounds the random pause before each call.
	// Zero means no pause.
	MaxInterval time.Duration

	// Intn overrides the random source, mainly for tests.
	// It must return a value in [0, n).
	Intn func(n int64) int64
}

// TriggerRandomly calls fn MaxCount times, pausing a random duration in
// [0, MaxInterval) before each call. It returns the number of calls made,
// which is less than MaxCount only if ctx was cancelled.
func TriggerRandomly(ctx context.Context, cfg TriggerConfig, fn func()) int {
	intn := cfg.Intn
	if intn == nil {
		intn = rand.Int64N
	}

	calls := 0
	for calls < cfg.MaxCount {
		if cfg.MaxInterval > 0 {
			pause := time.Duration(intn(int64(cfg.MaxInterval)))
			timer := time.NewTimer(pause)
			select {
			case <-ctx.Done():
				timer.Stop()
				return calls
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			return calls
		}

		fn()
		calls++
	}
	return calls
}
