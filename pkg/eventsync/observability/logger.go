// Package observability provides structured logging, metrics, and tracing
// for the sync pipeline.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds occurrence context to a logger.
// Returns a new logger with occurrence_id and event fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, occ.ID, "A")
//	enriched.Info("syncing") // includes occurrence_id, event
func EnrichLogger(logger *slog.Logger, occurrenceID, name string) *slog.Logger {
	if logger == nil {
		return nil
	}
	if occurrenceID == "" {
		return logger.With(slog.String("event", name))
	}
	return logger.With(
		slog.String("occurrence_id", occurrenceID),
		slog.String("event", name),
	)
}

// LogSyncRetry logs a failed store call that will be retried.
func LogSyncRetry(logger *slog.Logger, attempt int, delay time.Duration, err error) {
	if logger == nil {
		return
	}
	logger.Warn("sync retry scheduled",
		slog.Int("attempt", attempt),
		slog.Float64("delay_ms", durationMs(delay)),
		slog.String("error", err.Error()),
	)
}

// LogSyncSucceeded logs a sync attempt that reached the store.
func LogSyncSucceeded(logger *slog.Logger, attempts int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("sync succeeded",
		slog.Int("attempts", attempts),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogSyncGaveUp logs a sync attempt that exhausted its retry budget.
// The local count keeps the increment; the durable count never sees it.
func LogSyncGaveUp(logger *slog.Logger, attempts int, err error) {
	if logger == nil {
		return
	}
	logger.Error("sync gave up",
		slog.Int("attempts", attempts),
		slog.String("error", err.Error()),
	)
}

// LogSyncRejected logs a sync attempt stopped by a non-retryable error.
func LogSyncRejected(logger *slog.Logger, attempts int, err error) {
	if logger == nil {
		return
	}
	logger.Error("sync rejected",
		slog.Int("attempts", attempts),
		slog.String("error", err.Error()),
	)
}

// LogDivergenceRecordError logs a failure to record a divergence entry (non-fatal).
func LogDivergenceRecordError(logger *slog.Logger, err error) {
	if logger == nil {
		return
	}
	logger.Warn("divergence record failed",
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return durationMs(time.Since(start))
	}
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
