package retry

import (
	"time"

	"github.com/randalmurphal/eventsync/pkg/eventsync/event"
	syncerrors "github.com/randalmurphal/eventsync/pkg/eventsync/errors"
)

// Attempt is the private retry context of one increment.
// Each Sync call owns exactly one Attempt value; it is never shared.
type Attempt struct {
	Name     event.Name
	Amount   int64
	Attempts int           // failed store calls so far
	Delay    time.Duration // wait before the next retry
}

// NewAttempt creates the initial retry context for an increment.
func NewAttempt(p Policy, name event.Name, amount int64) Attempt {
	return Attempt{
		Name:   name,
		Amount: amount,
		Delay:  p.InitialDelay,
	}
}

// State is a node of the sync state machine.
type State int

const (
	// StatePending means the next store call has not happened yet.
	StatePending State = iota

	// StateRetrying means the last call failed and another is scheduled.
	StateRetrying

	// StateSuccess is terminal: the store applied the increment.
	StateSuccess

	// StateGaveUp is terminal: the retry budget is spent.
	StateGaveUp

	// StateRejected is terminal: the store returned a non-retryable error.
	StateRejected
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRetrying:
		return "retrying"
	case StateSuccess:
		return "success"
	case StateGaveUp:
		return "gave_up"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further store calls follow this state.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateGaveUp || s == StateRejected
}

// Transition is the result of feeding one store call result into Step.
type Transition struct {
	// State is the state entered.
	State State

	// Attempt is the retry context after the transition.
	Attempt Attempt

	// Wait is how long to suspend before the next call (StateRetrying only).
	Wait time.Duration

	// Err is the store error that caused the transition, if any.
	Err error
}

// Step advances the state machine by one store call result.
//
// Step is pure: it reads the policy and the given attempt and returns a new
// attempt value, so every transition can be tested without timers or I/O.
func Step(p Policy, a Attempt, err error) Transition {
	if err == nil {
		return Transition{State: StateSuccess, Attempt: a}
	}

	a.Attempts++

	if !syncerrors.IsRetryable(err) {
		return Transition{State: StateRejected, Attempt: a, Err: err}
	}

	if a.Attempts >= p.MaxRetries {
		return Transition{State: StateGaveUp, Attempt: a, Err: err}
	}

	wait := a.Delay
	a.Delay = p.NextDelay(a.Delay)
	return Transition{State: StateRetrying, Attempt: a, Wait: wait, Err: err}
}
