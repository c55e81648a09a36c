package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
// Use when metrics are disabled to avoid overhead.
type NoopMetrics struct{}

// Compile-time interface check.
var _ MetricsRecorder = NoopMetrics{}

// RecordEventHandled does nothing.
func (NoopMetrics) RecordEventHandled(_ context.Context, _ string) {}

// RecordStoreCall does nothing.
func (NoopMetrics) RecordStoreCall(_ context.Context, _ string, _ error) {}

// RecordRetry does nothing.
func (NoopMetrics) RecordRetry(_ context.Context, _ string, _ time.Duration) {}

// RecordSyncOutcome does nothing.
func (NoopMetrics) RecordSyncOutcome(_ context.Context, _, _ string, _ time.Duration) {}

// NoopSpanManager is a SpanManager that does nothing.
// Use when tracing is disabled to avoid overhead.
type NoopSpanManager struct{}

// Compile-time interface check.
var _ SpanManager = NoopSpanManager{}

// noopSpan is a span that does nothing.
var noopSpan = noop.Span{}

// StartSyncSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartSyncSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(_ trace.Span, _ error) {}

// AddSpanEvent does nothing.
func (NoopSpanManager) AddSpanEvent(_ context.Context, _ string, _ ...attribute.KeyValue) {}
