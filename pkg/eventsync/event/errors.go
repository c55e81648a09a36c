package event

import "errors"

// Sentinel errors for event sources.
var (
	// ErrUnknownName indicates a name outside the known set.
	ErrUnknownName = errors.New("unknown event name")

	// ErrEmitterClosed indicates Emit or Subscribe was called after Close.
	ErrEmitterClosed = errors.New("emitter closed")
)
