package retry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/randalmurphal/eventsync/pkg/eventsync/event"
	syncerrors "github.com/randalmurphal/eventsync/pkg/eventsync/errors"
	"github.com/randalmurphal/eventsync/pkg/eventsync/observability"
)

// recordingSleeper records waits without blocking.
type recordingSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *recordingSleeper) total() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum time.Duration
	for _, w := range s.waits {
		sum += w
	}
	return sum
}

// failingApply fails the first n calls, then succeeds.
func failingApply(n int) (ApplyFunc, *atomic.Int32) {
	var calls atomic.Int32
	return func(_ context.Context, name event.Name, amount int64) error {
		c := calls.Add(1)
		if int(c) <= n {
			return &syncerrors.TransientStoreError{Name: name.String(), Amount: amount, Err: errors.New("overloaded")}
		}
		return nil
	}, &calls
}

func newTestEngine(t *testing.T, apply ApplyFunc, opts ...EngineOption) (*Engine, *recordingSleeper) {
	t.Helper()
	sleeper := &recordingSleeper{}
	opts = append([]EngineOption{WithSleeper(sleeper)}, opts...)
	e, err := NewEngine(testPolicy(), apply, opts...)
	require.NoError(t, err)
	return e, sleeper
}

func TestNewEngine_Validation(t *testing.T) {
	_, err := NewEngine(Policy{}, func(context.Context, event.Name, int64) error { return nil })
	var cfgErr *syncerrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "max_retries", cfgErr.Field)

	_, err = NewEngine(DefaultPolicy, nil)
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "apply", cfgErr.Field)
}

func TestSync_SuccessFirstTry(t *testing.T) {
	apply, calls := failingApply(0)
	e, sleeper := newTestEngine(t, apply)

	out := e.Sync(context.Background(), event.NameA, 1)

	assert.Equal(t, OutcomeSuccess, out.Kind)
	assert.Equal(t, 1, out.Attempts)
	assert.NoError(t, out.Err)
	assert.Empty(t, out.Delays)
	assert.Equal(t, int32(1), calls.Load())
	assert.Zero(t, sleeper.total())
}

func TestSync_RecoversAfterFailures(t *testing.T) {
	p := testPolicy()
	for k := 1; k < p.MaxRetries; k++ {
		apply, calls := failingApply(k)
		e, sleeper := newTestEngine(t, apply)

		out := e.Sync(context.Background(), event.NameA, 1)

		require.Equal(t, OutcomeSuccess, out.Kind, "k=%d", k)
		assert.Equal(t, k+1, out.Attempts)
		assert.Equal(t, int32(k+1), calls.Load())
		require.Len(t, out.Delays, k)

		var want time.Duration
		for i := range k {
			assert.Equal(t, p.DelayAt(i), out.Delays[i])
			want += p.DelayAt(i)
		}
		assert.Equal(t, want, sleeper.total())
	}
}

func TestSync_GivesUpAfterBudget(t *testing.T) {
	apply, calls := failingApply(1 << 30)
	e, sleeper := newTestEngine(t, apply)

	out := e.Sync(context.Background(), event.NameB, 1)

	p := testPolicy()
	assert.Equal(t, OutcomeGaveUp, out.Kind)
	assert.Equal(t, p.MaxRetries, out.Attempts)
	assert.Equal(t, int32(p.MaxRetries), calls.Load())
	assert.Len(t, out.Delays, p.MaxRetries-1)
	assert.Len(t, sleeper.waits, p.MaxRetries-1)

	require.Error(t, out.Err)
	assert.ErrorIs(t, out.Err, syncerrors.ErrRetryExhausted)
	var exhausted *syncerrors.RetryExhaustedError
	require.ErrorAs(t, out.Err, &exhausted)
	assert.Equal(t, "B", exhausted.Name)
	assert.Equal(t, p.MaxRetries, exhausted.Attempts)
	assert.Contains(t, out.Err.Error(), "failed to sync B after 5 attempts")
}

func TestSync_DelaysCappedAndNonDecreasing(t *testing.T) {
	apply, _ := failingApply(1 << 30)
	p := Policy{
		MaxRetries:        8,
		InitialDelay:      10 * time.Millisecond,
		MaxDelay:          50 * time.Millisecond,
		BackoffMultiplier: 2,
	}
	e, err := NewEngine(p, apply, WithSleeper(&recordingSleeper{}))
	require.NoError(t, err)

	out := e.Sync(context.Background(), event.NameA, 1)

	require.Len(t, out.Delays, 7)
	for i, d := range out.Delays {
		assert.LessOrEqual(t, d, p.MaxDelay)
		if i > 0 {
			assert.GreaterOrEqual(t, d, out.Delays[i-1])
		}
	}
	assert.Equal(t, p.MaxDelay, out.Delays[len(out.Delays)-1])
}

func TestSync_PermanentErrorRejected(t *testing.T) {
	var calls atomic.Int32
	apply := func(_ context.Context, name event.Name, amount int64) error {
		calls.Add(1)
		return &syncerrors.InvalidIncrementError{Name: name.String(), Amount: amount, Message: "amount must be positive"}
	}
	e, sleeper := newTestEngine(t, apply)

	out := e.Sync(context.Background(), event.NameA, 0)

	assert.Equal(t, OutcomeRejected, out.Kind)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, sleeper.waits)
	var invalid *syncerrors.InvalidIncrementError
	assert.ErrorAs(t, out.Err, &invalid)
}

func TestSync_ContextCancelledDuringBackoff(t *testing.T) {
	apply, calls := failingApply(1 << 30)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e, _ := newTestEngine(t, apply)
	out := e.Sync(ctx, event.NameA, 1)

	assert.Equal(t, OutcomeGaveUp, out.Kind)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, int32(1), calls.Load())
	assert.ErrorIs(t, out.Err, context.Canceled)
	assert.Empty(t, out.Delays)
}

func TestSync_ConcurrentAttemptsIndependent(t *testing.T) {
	// Every sync fails its first two calls regardless of interleaving.
	var mu sync.Mutex
	failures := map[string]int{}
	apply := func(ctx context.Context, _ event.Name, _ int64) error {
		id := observability.OccurrenceFromContext(ctx)
		mu.Lock()
		defer mu.Unlock()
		if failures[id] < 2 {
			failures[id]++
			return &syncerrors.TransientStoreError{Name: "A", Amount: 1}
		}
		return nil
	}
	e, _ := newTestEngine(t, apply)

	const n = 50
	outcomes := make([]Outcome, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx := observability.ContextWithOccurrence(context.Background(), event.NewOccurrence(event.NameA).ID)
			outcomes[i] = e.Sync(ctx, event.NameA, 1)
		}(i)
	}
	wg.Wait()

	p := testPolicy()
	for _, out := range outcomes {
		assert.Equal(t, OutcomeSuccess, out.Kind)
		assert.Equal(t, 3, out.Attempts)
		assert.Equal(t, []time.Duration{p.DelayAt(0), p.DelayAt(1)}, out.Delays)
	}
}

func TestSync_Callbacks(t *testing.T) {
	apply, _ := failingApply(2)

	var retries []int
	var done []Outcome
	e, _ := newTestEngine(t, apply,
		WithOnRetry(func(a Attempt, _ time.Duration, err error) {
			retries = append(retries, a.Attempts)
			assert.Error(t, err)
		}),
		WithOnDone(func(name event.Name, out Outcome) {
			assert.Equal(t, event.NameA, name)
			done = append(done, out)
		}),
	)

	e.Sync(context.Background(), event.NameA, 1)

	assert.Equal(t, []int{1, 2}, retries)
	require.Len(t, done, 1)
	assert.Equal(t, OutcomeSuccess, done[0].Kind)
}

func TestSync_Span(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	apply, _ := failingApply(1)
	e, _ := newTestEngine(t, apply,
		WithSpanManager(observability.NewSpanManagerFromTracer(tp.Tracer("test"))))

	e.Sync(observability.ContextWithOccurrence(context.Background(), "occ-1"), event.NameA, 1)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "eventsync.sync", spans[0].Name)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "retry", spans[0].Events[0].Name)
}

func TestTimerSleeper(t *testing.T) {
	var s TimerSleeper

	start := time.Now()
	require.NoError(t, s.Sleep(context.Background(), 5*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Sleep(ctx, time.Hour), context.Canceled)
}

func TestOutcomeKind_String(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "gave_up", OutcomeGaveUp.String())
	assert.Equal(t, "rejected", OutcomeRejected.String())
	assert.Equal(t, "unknown", OutcomeKind(42).String())
}
