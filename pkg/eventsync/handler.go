package eventsync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/randalmurphal/eventsync/pkg/eventsync/divergence"
	"github.com/randalmurphal/eventsync/pkg/eventsync/event"
	syncerrors "github.com/randalmurphal/eventsync/pkg/eventsync/errors"
	"github.com/randalmurphal/eventsync/pkg/eventsync/observability"
	"github.com/randalmurphal/eventsync/pkg/eventsync/retry"
	"github.com/randalmurphal/eventsync/pkg/eventsync/stats"
)

// Applier pushes one increment to the durable store.
// *store.Client implements it.
type Applier interface {
	Apply(ctx context.Context, name event.Name, amount int64) error
}

// OutcomeTally counts terminal sync outcomes.
type OutcomeTally struct {
	Success  int64
	GaveUp   int64
	Rejected int64
}

// Total returns the number of finished syncs.
func (t OutcomeTally) Total() int64 {
	return t.Success + t.GaveUp + t.Rejected
}

// Handler counts events locally and mirrors each one to a durable store.
//
// Every occurrence increments the local count before OnEvent returns. The
// durable write runs in its own goroutine with bounded retry, so a slow or
// failing store never delays intake. An increment whose sync gives up
// stays counted locally and is recorded in the divergence ledger.
type Handler struct {
	local   *stats.Aggregator
	engine  *retry.Engine
	ledger  divergence.Ledger
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	baseCtx context.Context

	subs      []event.Subscription
	closeOnce sync.Once

	wg       sync.WaitGroup
	inFlight atomic.Int64
	success  atomic.Int64
	gaveUp   atomic.Int64
	rejected atomic.Int64
}

// New creates a handler and subscribes it to every known event name on
// source. It fails fast on an invalid retry policy.
func New(source event.Source, client Applier, opts ...Option) (*Handler, error) {
	if source == nil {
		return nil, &syncerrors.ConfigError{Field: "source", Message: "event source is required"}
	}
	if client == nil {
		return nil, &syncerrors.ConfigError{Field: "client", Message: "store client is required"}
	}

	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.ledger == nil {
		cfg.ledger = divergence.NewMemoryLedger(divergence.DefaultMemoryConfig)
	}

	engine, err := retry.NewEngine(cfg.policy, client.Apply,
		retry.WithSleeper(cfg.sleeper),
		retry.WithLogger(cfg.logger),
		retry.WithMetrics(cfg.metrics),
		retry.WithSpanManager(cfg.spans),
	)
	if err != nil {
		return nil, err
	}

	h := &Handler{
		local:   stats.NewAggregator(),
		engine:  engine,
		ledger:  cfg.ledger,
		logger:  cfg.logger,
		metrics: cfg.metrics,
		baseCtx: cfg.baseCtx,
	}

	for _, name := range event.Names() {
		sub, err := source.Subscribe(name, h.OnEvent)
		if err != nil {
			h.unsubscribe()
			return nil, err
		}
		h.subs = append(h.subs, sub)
	}

	return h, nil
}

// OnEvent handles one occurrence. It increments the local count, starts
// the durable sync in the background and returns without waiting for it.
func (h *Handler) OnEvent(occ event.Occurrence) {
	h.local.Increment(occ.Name)
	h.metrics.RecordEventHandled(h.baseCtx, occ.Name.String())

	h.wg.Add(1)
	h.inFlight.Add(1)
	go func() {
		defer h.wg.Done()
		defer h.inFlight.Add(-1)
		h.sync(occ)
	}()
}

// sync pushes one increment and accounts for the outcome.
func (h *Handler) sync(occ event.Occurrence) {
	ctx := observability.ContextWithOccurrence(h.baseCtx, occ.ID)
	out := h.engine.Sync(ctx, occ.Name, 1)

	switch out.Kind {
	case retry.OutcomeSuccess:
		h.success.Add(1)
		return
	case retry.OutcomeGaveUp:
		h.gaveUp.Add(1)
	case retry.OutcomeRejected:
		h.rejected.Add(1)
	}

	entry := divergence.Entry{
		OccurrenceID: occ.ID,
		Name:         occ.Name,
		Amount:       1,
		Attempts:     out.Attempts,
		Outcome:      out.Kind.String(),
		FailedAt:     time.Now().UTC(),
	}
	if out.Err != nil {
		entry.Error = out.Err.Error()
	}

	// Recording must succeed even when shutdown cancelled the attempt.
	if err := h.ledger.Record(context.WithoutCancel(ctx), entry); err != nil {
		observability.LogDivergenceRecordError(
			observability.EnrichLogger(h.logger, occ.ID, occ.Name.String()), err)
	}
}

// Count returns the local count for name.
func (h *Handler) Count(name event.Name) int64 {
	return h.local.Count(name)
}

// Snapshot returns a copy of every local count.
func (h *Handler) Snapshot() map[event.Name]int64 {
	return h.local.Snapshot()
}

// InFlight returns the number of syncs still running.
func (h *Handler) InFlight() int64 {
	return h.inFlight.Load()
}

// Outcomes returns the tally of finished syncs.
func (h *Handler) Outcomes() OutcomeTally {
	return OutcomeTally{
		Success:  h.success.Load(),
		GaveUp:   h.gaveUp.Load(),
		Rejected: h.rejected.Load(),
	}
}

// Ledger returns the divergence ledger.
func (h *Handler) Ledger() divergence.Ledger {
	return h.ledger
}

// Policy returns the retry policy in use.
func (h *Handler) Policy() retry.Policy {
	return h.engine.Policy()
}

// Wait blocks until every in-flight sync has reached a terminal outcome.
func (h *Handler) Wait() {
	h.wg.Wait()
}

// WaitContext is Wait bounded by ctx.
func (h *Handler) WaitContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Join(ErrWaitAborted, ctx.Err())
	}
}

// Close unsubscribes from the source and waits for in-flight syncs.
// Safe to call more than once.
func (h *Handler) Close() error {
	h.closeOnce.Do(h.unsubscribe)
	h.wg.Wait()
	return nil
}

func (h *Handler) unsubscribe() {
	for _, sub := range h.subs {
		sub.Unsubscribe()
	}
	h.subs = nil
}
