/*
Package eventsync keeps a local event count and mirrors it to a durable
store without letting the store slow down event intake.

# Overview

A Handler subscribes to an event.Source. For every occurrence it:

 1. increments the in-memory count for the event name, synchronously;
 2. starts a background sync that pushes "+1" to the durable store,
    retrying transient failures with capped exponential backoff.

The local count is authoritative. When a sync exhausts its retry budget
the increment stays counted locally, the durable total stays one lower,
and the gap is written to a divergence.Ledger. Nothing replays it.

# Basic Usage

	emitter := event.NewEmitter()
	client := store.NewClient(store.NewMemoryStore())

	handler, err := eventsync.New(emitter, client,
	    eventsync.WithPolicy(retry.DefaultPolicy),
	    eventsync.WithLogger(logger),
	)
	if err != nil {
	    log.Fatal(err)
	}
	defer handler.Close()

	emitter.Emit(event.NameA)
	handler.Count(event.NameA) // 1, immediately

# Shutdown

Close unsubscribes and waits for every running sync to reach a terminal
outcome. WithBaseContext supplies a context whose cancellation cuts
pending backoff waits short.

# Observability

Retries log at Warn, give-ups at Error. WithMetrics and WithSpanManager
attach OpenTelemetry instruments; both default to no-ops.
*/
package eventsync
