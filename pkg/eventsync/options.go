package eventsync

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/eventsync/pkg/eventsync/divergence"
	"github.com/randalmurphal/eventsync/pkg/eventsync/observability"
	"github.com/randalmurphal/eventsync/pkg/eventsync/retry"
)

// handlerConfig holds handler construction settings.
type handlerConfig struct {
	policy  retry.Policy
	sleeper retry.Sleeper
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	ledger  divergence.Ledger
	baseCtx context.Context
}

// defaultHandlerConfig returns the default handler configuration.
func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		policy:  retry.DefaultPolicy,
		sleeper: retry.TimerSleeper{},
		logger:  slog.Default(),
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
		baseCtx: context.Background(),
	}
}

// Option configures a Handler.
type Option func(*handlerConfig)

// WithPolicy sets the retry policy for store synchronization.
// Default: retry.DefaultPolicy (5 calls, 100ms doubling to 2s)
//
// The policy is validated by New; an invalid policy fails construction.
func WithPolicy(p retry.Policy) Option {
	return func(c *handlerConfig) {
		c.policy = p
	}
}

// WithSleeper sets how backoff waits are served.
// Tests pass a sleeper that records waits without blocking.
func WithSleeper(s retry.Sleeper) Option {
	return func(c *handlerConfig) {
		if s != nil {
			c.sleeper = s
		}
	}
}

// WithLogger sets the logger used for retry and outcome logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *handlerConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
//
// Example:
//
//	handler, err := eventsync.New(emitter, client,
//	    eventsync.WithMetrics(observability.NewMetricsRecorder()))
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *handlerConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithSpanManager sets the span manager.
func WithSpanManager(m observability.SpanManager) Option {
	return func(c *handlerConfig) {
		if m != nil {
			c.spans = m
		}
	}
}

// WithLedger sets where abandoned increments are recorded.
// Default: an in-memory ledger.
func WithLedger(l divergence.Ledger) Option {
	return func(c *handlerConfig) {
		c.ledger = l
	}
}

// WithBaseContext sets the parent context of every sync attempt.
// Default: context.Background()
//
// Event intake never cancels a sync. Cancelling this context is a
// shutdown signal: attempts waiting on backoff stop and give up.
func WithBaseContext(ctx context.Context) Option {
	return func(c *handlerConfig) {
		if ctx != nil {
			c.baseCtx = ctx
		}
	}
}
