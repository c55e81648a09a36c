package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records eventsync metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordEventHandled records an occurrence counted locally.
	RecordEventHandled(ctx context.Context, name string)

	// RecordStoreCall records one call to the durable store and whether it failed.
	RecordStoreCall(ctx context.Context, name string, err error)

	// RecordRetry records a backoff wait before the next store call.
	RecordRetry(ctx context.Context, name string, delay time.Duration)

	// RecordSyncOutcome records the terminal outcome of a sync attempt.
	RecordSyncOutcome(ctx context.Context, name, outcome string, duration time.Duration)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	eventsHandled metric.Int64Counter
	storeCalls    metric.Int64Counter
	storeErrors   metric.Int64Counter
	retries       metric.Int64Counter
	backoff       metric.Float64Histogram
	outcomes      metric.Int64Counter
	syncLatency   metric.Float64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics(otel.Meter("eventsync"))
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates the instruments on the given meter.
func newOtelMetrics(meter metric.Meter) (*otelMetrics, error) {
	eventsHandled, err := meter.Int64Counter("eventsync.events.handled",
		metric.WithDescription("Number of occurrences counted locally"),
	)
	if err != nil {
		return nil, err
	}

	storeCalls, err := meter.Int64Counter("eventsync.sync.attempts",
		metric.WithDescription("Number of durable store calls"),
	)
	if err != nil {
		return nil, err
	}

	storeErrors, err := meter.Int64Counter("eventsync.sync.errors",
		metric.WithDescription("Number of failed durable store calls"),
	)
	if err != nil {
		return nil, err
	}

	retries, err := meter.Int64Counter("eventsync.sync.retries",
		metric.WithDescription("Number of backoff waits before a retry"),
	)
	if err != nil {
		return nil, err
	}

	backoff, err := meter.Float64Histogram("eventsync.sync.backoff_ms",
		metric.WithDescription("Backoff delay before a retry in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	outcomes, err := meter.Int64Counter("eventsync.sync.outcomes",
		metric.WithDescription("Terminal sync outcomes"),
	)
	if err != nil {
		return nil, err
	}

	syncLatency, err := meter.Float64Histogram("eventsync.sync.latency_ms",
		metric.WithDescription("Time from first store call to terminal outcome in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		eventsHandled: eventsHandled,
		storeCalls:    storeCalls,
		storeErrors:   storeErrors,
		retries:       retries,
		backoff:       backoff,
		outcomes:      outcomes,
		syncLatency:   syncLatency,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// NewMetricsRecorderFromMeter returns a MetricsRecorder bound to a specific meter.
// Unlike NewMetricsRecorder, the instruments are not shared process-wide.
func NewMetricsRecorderFromMeter(meter metric.Meter) (MetricsRecorder, error) {
	m, err := newOtelMetrics(meter)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordEventHandled records an occurrence counted locally.
func (m *otelMetrics) RecordEventHandled(ctx context.Context, name string) {
	m.eventsHandled.Add(ctx, 1, metric.WithAttributes(attribute.String("event", name)))
}

// RecordStoreCall records one durable store call.
func (m *otelMetrics) RecordStoreCall(ctx context.Context, name string, err error) {
	attrs := metric.WithAttributes(attribute.String("event", name))
	m.storeCalls.Add(ctx, 1, attrs)
	if err != nil {
		m.storeErrors.Add(ctx, 1, attrs)
	}
}

// RecordRetry records a backoff wait.
func (m *otelMetrics) RecordRetry(ctx context.Context, name string, delay time.Duration) {
	attrs := metric.WithAttributes(attribute.String("event", name))
	m.retries.Add(ctx, 1, attrs)
	m.backoff.Record(ctx, durationMs(delay), attrs)
}

// RecordSyncOutcome records a terminal outcome.
func (m *otelMetrics) RecordSyncOutcome(ctx context.Context, name, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("event", name),
		attribute.String("outcome", outcome),
	)
	m.outcomes.Add(ctx, 1, attrs)
	m.syncLatency.Record(ctx, durationMs(duration), attrs)
}
