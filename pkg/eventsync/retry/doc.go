// Package retry implements bounded retry with capped exponential backoff
// for pushing single increments to a durable store.
//
// The package separates the decision logic from the waiting:
//
//   - Policy holds the immutable retry configuration.
//   - Step is a pure transition function over an Attempt value.
//   - Engine runs the loop, calling an ApplyFunc and a Sleeper.
//
// Each Engine.Sync call owns its own Attempt, so any number of syncs may
// run concurrently on one Engine:
//
//	engine, err := retry.NewEngine(retry.DefaultPolicy, client.Apply)
//	if err != nil {
//	    return err
//	}
//	out := engine.Sync(ctx, event.NameA, 1)
//	if out.Kind != retry.OutcomeSuccess {
//	    // local and durable totals now diverge by one
//	}
//
// Tests inject a Sleeper that records waits instead of blocking, which
// makes retry trajectories deterministic.
package retry
