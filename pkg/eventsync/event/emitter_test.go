package event_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/randalmurphal/eventsync/pkg/eventsync/event"
)

func TestEmitterDeliversSynchronously(t *testing.T) {
	emitter := event.NewEmitter()
	defer emitter.Close()

	var received []event.Occurrence
	sub, err := emitter.Subscribe(event.NameA, func(occ event.Occurrence) {
		received = append(received, occ)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sub.Unsubscribe()

	occ, err := emitter.Emit(event.NameA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// No sleep: delivery happens before Emit returns.
	if len(received) != 1 {
		t.Fatalf("expected 1 received occurrence, got %d", len(received))
	}
	if received[0].ID != occ.ID {
		t.Errorf("expected delivered ID %s, got %s", occ.ID, received[0].ID)
	}

	// Non-matching name
	if _, err := emitter.Emit(event.NameB); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(received) != 1 {
		t.Errorf("expected still 1 received occurrence, got %d", len(received))
	}
	if emitter.Emitted() != 2 {
		t.Errorf("expected 2 emitted, got %d", emitter.Emitted())
	}
}

func TestEmitterSubscriptionOrder(t *testing.T) {
	emitter := event.NewEmitter()

	var order []int
	for i := 0; i < 3; i++ {
		if _, err := emitter.Subscribe(event.NameB, func(event.Occurrence) {
			order = append(order, i)
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	emitter.Emit(event.NameB)

	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Errorf("expected callbacks in subscription order, got %v", order)
	}
	if emitter.Subscribers(event.NameB) != 3 {
		t.Errorf("expected 3 subscribers, got %d", emitter.Subscribers(event.NameB))
	}
}

func TestEmitterUnsubscribe(t *testing.T) {
	emitter := event.NewEmitter()

	var received atomic.Int32
	sub, err := emitter.Subscribe(event.NameA, func(event.Occurrence) {
		received.Add(1)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	emitter.Emit(event.NameA)
	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent
	emitter.Emit(event.NameA)

	if received.Load() != 1 {
		t.Errorf("expected 1 event, got %d", received.Load())
	}
	if emitter.Subscribers(event.NameA) != 0 {
		t.Errorf("expected no subscribers, got %d", emitter.Subscribers(event.NameA))
	}
}

func TestEmitterUnsubscribeDuringEmit(t *testing.T) {
	emitter := event.NewEmitter()

	var calls atomic.Int32
	var sub event.Subscription
	sub, _ = emitter.Subscribe(event.NameA, func(event.Occurrence) {
		calls.Add(1)
		sub.Unsubscribe()
	})

	emitter.Emit(event.NameA)
	emitter.Emit(event.NameA)

	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestEmitterRejectsUnknownName(t *testing.T) {
	emitter := event.NewEmitter()

	if _, err := emitter.Subscribe("Z", func(event.Occurrence) {}); !errors.Is(err, event.ErrUnknownName) {
		t.Errorf("expected ErrUnknownName from Subscribe, got %v", err)
	}
	if _, err := emitter.Emit("Z"); !errors.Is(err, event.ErrUnknownName) {
		t.Errorf("expected ErrUnknownName from Emit, got %v", err)
	}
}

func TestEmitterClose(t *testing.T) {
	emitter := event.NewEmitter()

	var received atomic.Int32
	emitter.Subscribe(event.NameA, func(event.Occurrence) {
		received.Add(1)
	})

	if err := emitter.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := emitter.Close(); err != nil {
		t.Fatalf("second close should be a no-op, got %v", err)
	}

	if _, err := emitter.Emit(event.NameA); !errors.Is(err, event.ErrEmitterClosed) {
		t.Errorf("expected ErrEmitterClosed, got %v", err)
	}
	if _, err := emitter.Subscribe(event.NameA, func(event.Occurrence) {}); !errors.Is(err, event.ErrEmitterClosed) {
		t.Errorf("expected ErrEmitterClosed, got %v", err)
	}
	if received.Load() != 0 {
		t.Errorf("expected no deliveries after close, got %d", received.Load())
	}
}

func TestTriggerRandomly(t *testing.T) {
	var calls atomic.Int32
	var pauses []int64

	n := event.TriggerRandomly(context.Background(), event.TriggerConfig{
		MaxCount:    5,
		MaxInterval: time.Millisecond,
		Intn: func(n int64) int64 {
			pauses = append(pauses, n)
			return 0
		},
	}, func() { calls.Add(1) })

	if n != 5 || calls.Load() != 5 {
		t.Errorf("expected 5 calls, got n=%d calls=%d", n, calls.Load())
	}
	if len(pauses) != 5 || pauses[0] != int64(time.Millisecond) {
		t.Errorf("expected 5 random pauses bounded by 1ms, got %v", pauses)
	}
}

func TestTriggerRandomlyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := event.TriggerRandomly(ctx, event.TriggerConfig{MaxCount: 10}, func() {
		t.Error("fn should not run after cancellation")
	})
	if n != 0 {
		t.Errorf("expected 0 calls, got %d", n)
	}
}

func TestTriggerRandomlyStopsMidway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	n := event.TriggerRandomly(ctx, event.TriggerConfig{MaxCount: 10}, func() {
		calls++
		if calls == 3 {
			cancel()
		}
	})
	if n != 3 {
		t.Errorf("expected 3 calls before cancellation, got %d", n)
	}
}
