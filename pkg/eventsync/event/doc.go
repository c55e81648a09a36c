// Package event provides the event source side of eventsync.
//
// # Names and Occurrences
//
// Event names form a closed set (NameA, NameB). Each emission produces an
// Occurrence carrying a UUID, the name, and a timestamp. The ID follows the
// occurrence through logs, spans, and the divergence ledger.
//
//	occ := event.NewOccurrence(event.NameA)
//	fmt.Println(occ.ID, occ.Name)
//
// # Emitter
//
// Emitter is a synchronous in-memory source. Emit calls every callback
// subscribed to the name before it returns:
//
//	emitter := event.NewEmitter()
//	sub, err := emitter.Subscribe(event.NameA, func(occ event.Occurrence) {
//	    // must not block for long
//	})
//	defer sub.Unsubscribe()
//
//	emitter.Emit(event.NameA)
//
// # Random Triggering
//
// TriggerRandomly drives a source at random intervals up to a fixed count,
// the way the simulation produces load:
//
//	event.TriggerRandomly(ctx, event.TriggerConfig{
//	    MaxCount:    1000,
//	    MaxInterval: 10 * time.Millisecond,
//	}, func() { emitter.Emit(event.NameA) })
package event
