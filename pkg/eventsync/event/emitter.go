package event

import (
	"sync"
	"sync/atomic"
)

// Source lets consumers register callbacks for named events.
type Source interface {
	// Subscribe registers a callback for one event name.
	Subscribe(name Name, cb Callback) (Subscription, error)
}

// Subscription represents an active subscription.
type Subscription interface {
	// Unsubscribe removes the subscription. Safe to call more than once.
	Unsubscribe()
}

// Emitter is an in-memory event source.
//
// Emit invokes every callback subscribed to the name synchronously, in
// subscription order, before returning. Callbacks that need to do slow
// work must hand it off themselves.
type Emitter struct {
	mu     sync.RWMutex
	byName map[Name][]*subscription

	nextID  atomic.Int64
	emitted atomic.Int64
	closed  atomic.Bool
}

// Compile-time interface check.
var _ Source = (*Emitter)(nil)

// NewEmitter creates an empty emitter.
func NewEmitter() *Emitter {
	return &Emitter{
		byName: make(map[Name][]*subscription),
	}
}

// subscription is an internal subscription implementation.
type subscription struct {
	id      int64
	name    Name
	cb      Callback
	emitter *Emitter
	once    sync.Once
}

// Subscribe registers cb for name.
func (e *Emitter) Subscribe(name Name, cb Callback) (Subscription, error) {
	if e.closed.Load() {
		return nil, ErrEmitterClosed
	}
	if !name.Valid() {
		return nil, ErrUnknownName
	}

	sub := &subscription{
		id:      e.nextID.Add(1),
		name:    name,
		cb:      cb,
		emitter: e,
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.byName[name] = append(e.byName[name], sub)

	return sub, nil
}

// Emit creates an occurrence of name and delivers it to all subscribers.
// It returns the delivered occurrence.
func (e *Emitter) Emit(name Name) (Occurrence, error) {
	return e.EmitOccurrence(NewOccurrence(name))
}

// EmitOccurrence delivers an existing occurrence to all subscribers of its name.
func (e *Emitter) EmitOccurrence(occ Occurrence) (Occurrence, error) {
	if e.closed.Load() {
		return occ, ErrEmitterClosed
	}
	if !occ.Name.Valid() {
		return occ, ErrUnknownName
	}

	// Snapshot so callbacks can subscribe or unsubscribe without deadlocking.
	e.mu.RLock()
	subs := make([]*subscription, len(e.byName[occ.Name]))
	copy(subs, e.byName[occ.Name])
	e.mu.RUnlock()

	e.emitted.Add(1)
	for _, sub := range subs {
		sub.cb(occ)
	}
	return occ, nil
}

// Emitted returns the total number of occurrences emitted.
func (e *Emitter) Emitted() int64 {
	return e.emitted.Load()
}

// Subscribers returns the number of callbacks registered for name.
func (e *Emitter) Subscribers(name Name) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.byName[name])
}

// Close stops the emitter. Later Emit and Subscribe calls fail.
func (e *Emitter) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil // Already closed
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.byName = make(map[Name][]*subscription)
	return nil
}

// Unsubscribe removes the subscription.
func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.emitter.mu.Lock()
		defer s.emitter.mu.Unlock()

		subs := s.emitter.byName[s.name]
		for i, other := range subs {
			if other.id == s.id {
				s.emitter.byName[s.name] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	})
}
