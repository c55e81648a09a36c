package benchmarks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/randalmurphal/eventsync/pkg/eventsync"
	"github.com/randalmurphal/eventsync/pkg/eventsync/event"
	syncerrors "github.com/randalmurphal/eventsync/pkg/eventsync/errors"
	"github.com/randalmurphal/eventsync/pkg/eventsync/retry"
	"github.com/randalmurphal/eventsync/pkg/eventsync/store"
)

var noSleep = retry.SleeperFunc(func(context.Context, time.Duration) error { return nil })

var errOverloaded = &syncerrors.TransientStoreError{Name: "A", Amount: 1, Err: errors.New("overloaded")}

// BenchmarkStep measures one state machine transition.
func BenchmarkStep(b *testing.B) {
	p := retry.DefaultPolicy
	a := retry.NewAttempt(p, event.NameA, 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = retry.Step(p, a, errOverloaded)
	}
}

// BenchmarkSync_FirstTry measures a sync that succeeds immediately.
func BenchmarkSync_FirstTry(b *testing.B) {
	ctx := context.Background()
	engine, err := retry.NewEngine(retry.DefaultPolicy,
		func(context.Context, event.Name, int64) error { return nil },
		retry.WithSleeper(noSleep))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = engine.Sync(ctx, event.NameA, 1)
	}
}

// BenchmarkSync_GiveUp measures a sync that spends its whole budget.
func BenchmarkSync_GiveUp(b *testing.B) {
	ctx := context.Background()
	engine, err := retry.NewEngine(retry.DefaultPolicy,
		func(context.Context, event.Name, int64) error { return errOverloaded },
		retry.WithSleeper(noSleep))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = engine.Sync(ctx, event.NameA, 1)
	}
}

// BenchmarkHandler_Emit measures intake latency: local increment plus
// launching the background sync.
func BenchmarkHandler_Emit(b *testing.B) {
	emitter := event.NewEmitter()
	handler, err := eventsync.New(emitter, store.NewClient(store.NewMemoryStore()),
		eventsync.WithSleeper(noSleep))
	if err != nil {
		b.Fatal(err)
	}
	defer handler.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = emitter.Emit(nameFor(i))
	}
	b.StopTimer()
	handler.Wait()
}
