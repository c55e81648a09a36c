package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/eventsync/pkg/eventsync/event"
	syncerrors "github.com/randalmurphal/eventsync/pkg/eventsync/errors"
	"github.com/randalmurphal/eventsync/pkg/eventsync/observability"
)

// ApplyFunc applies one increment to the durable store.
type ApplyFunc func(ctx context.Context, name event.Name, amount int64) error

// OutcomeKind classifies how a sync attempt ended.
type OutcomeKind int

const (
	// OutcomeSuccess means the store applied the increment.
	OutcomeSuccess OutcomeKind = iota

	// OutcomeGaveUp means every allowed store call failed.
	OutcomeGaveUp

	// OutcomeRejected means the store returned a non-retryable error.
	OutcomeRejected
)

// String returns the outcome name used in logs and metric attributes.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeGaveUp:
		return "gave_up"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of Engine.Sync.
type Outcome struct {
	Kind OutcomeKind

	// Attempts is the number of store calls made.
	Attempts int

	// Err is nil on success. For GaveUp it is a *errors.RetryExhaustedError
	// (or the context error if shutdown interrupted a backoff wait).
	Err error

	// Delays lists every backoff wait actually served, in order.
	Delays []time.Duration

	// Duration is the wall time from first store call to outcome.
	Duration time.Duration
}

// Engine drives bounded-retry synchronization of single increments.
//
// The engine holds only the immutable policy and injected collaborators.
// Every Sync call builds its own Attempt, so concurrent calls never see
// each other's retry state.
type Engine struct {
	policy  Policy
	apply   ApplyFunc
	sleeper Sleeper
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	onRetry func(a Attempt, wait time.Duration, err error)
	onDone  func(name event.Name, out Outcome)
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithSleeper sets how the engine waits between retries.
// Default: TimerSleeper.
func WithSleeper(s Sleeper) EngineOption {
	return func(e *Engine) {
		e.sleeper = s
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.MetricsRecorder) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithSpanManager sets the span manager.
func WithSpanManager(m observability.SpanManager) EngineOption {
	return func(e *Engine) {
		e.spans = m
	}
}

// WithOnRetry sets a callback invoked before each backoff wait.
func WithOnRetry(fn func(a Attempt, wait time.Duration, err error)) EngineOption {
	return func(e *Engine) {
		e.onRetry = fn
	}
}

// WithOnDone sets a callback invoked with every terminal outcome.
func WithOnDone(fn func(name event.Name, out Outcome)) EngineOption {
	return func(e *Engine) {
		e.onDone = fn
	}
}

// NewEngine creates an engine. It fails fast on an invalid policy or a
// missing apply function.
func NewEngine(policy Policy, apply ApplyFunc, opts ...EngineOption) (*Engine, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if apply == nil {
		return nil, &syncerrors.ConfigError{Field: "apply", Message: "apply function is required"}
	}

	e := &Engine{
		policy:  policy,
		apply:   apply,
		sleeper: TimerSleeper{},
		logger:  slog.Default(),
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Policy returns the engine's retry policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Sync applies amount to name in the durable store, retrying transient
// failures with capped exponential backoff until MaxRetries calls fail.
//
// Sync never returns an error; failures end up in the Outcome. An
// occurrence ID carried by ctx (see observability.ContextWithOccurrence)
// is attached to logs and spans.
func (e *Engine) Sync(ctx context.Context, name event.Name, amount int64) Outcome {
	done := observability.TimedOperation()
	start := time.Now()

	occurrenceID := observability.OccurrenceFromContext(ctx)
	logger := observability.EnrichLogger(e.logger, occurrenceID, name.String())
	ctx, span := e.spans.StartSyncSpan(ctx, name.String(), occurrenceID)

	attempt := NewAttempt(e.policy, name, amount)
	var delays []time.Duration

	finish := func(out Outcome) Outcome {
		out.Delays = delays
		out.Duration = time.Since(start)

		switch out.Kind {
		case OutcomeSuccess:
			observability.LogSyncSucceeded(logger, out.Attempts, done())
		case OutcomeGaveUp:
			observability.LogSyncGaveUp(logger, out.Attempts, out.Err)
		case OutcomeRejected:
			observability.LogSyncRejected(logger, out.Attempts, out.Err)
		}

		e.metrics.RecordSyncOutcome(ctx, name.String(), out.Kind.String(), out.Duration)
		e.spans.EndSpanWithError(span, out.Err)
		if e.onDone != nil {
			e.onDone(name, out)
		}
		return out
	}

	for {
		err := e.apply(ctx, name, amount)
		e.metrics.RecordStoreCall(ctx, name.String(), err)

		tr := Step(e.policy, attempt, err)
		attempt = tr.Attempt

		switch tr.State {
		case StateSuccess:
			return finish(Outcome{Kind: OutcomeSuccess, Attempts: attempt.Attempts + 1})

		case StateGaveUp:
			return finish(Outcome{
				Kind:     OutcomeGaveUp,
				Attempts: attempt.Attempts,
				Err: &syncerrors.RetryExhaustedError{
					Name:     name.String(),
					Attempts: attempt.Attempts,
					Last:     tr.Err,
				},
			})

		case StateRejected:
			return finish(Outcome{
				Kind:     OutcomeRejected,
				Attempts: attempt.Attempts,
				Err:      tr.Err,
			})
		}

		// StateRetrying
		observability.LogSyncRetry(logger, attempt.Attempts, tr.Wait, tr.Err)
		e.metrics.RecordRetry(ctx, name.String(), tr.Wait)
		e.spans.AddSpanEvent(ctx, "retry",
			attribute.Int("attempt", attempt.Attempts),
			attribute.Int64("delay_ms", tr.Wait.Milliseconds()),
		)
		if e.onRetry != nil {
			e.onRetry(attempt, tr.Wait, tr.Err)
		}

		if err := e.sleeper.Sleep(ctx, tr.Wait); err != nil {
			return finish(Outcome{
				Kind:     OutcomeGaveUp,
				Attempts: attempt.Attempts,
				Err: syncerrors.Permanent(
					fmt.Errorf("backoff after attempt %d: %w", attempt.Attempts, err),
					"sync aborted",
				),
			})
		}
		delays = append(delays, tr.Wait)
	}
}
