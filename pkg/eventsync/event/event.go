package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Name identifies a kind of event. The set of names is closed.
type Name string

// Known event names.
const (
	NameA Name = "A"
	NameB Name = "B"
)

var knownNames = []Name{NameA, NameB}

// Names returns every known event name in declaration order.
// The returned slice is a copy.
func Names() []Name {
	out := make([]Name, len(knownNames))
	copy(out, knownNames)
	return out
}

// Valid reports whether n is one of the known names.
func (n Name) Valid() bool {
	for _, known := range knownNames {
		if n == known {
			return true
		}
	}
	return false
}

// String returns the name as a string.
func (n Name) String() string {
	return string(n)
}

// ParseName converts s to a Name, rejecting unknown names.
func ParseName(s string) (Name, error) {
	n := Name(s)
	if !n.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownName, s)
	}
	return n, nil
}

// Occurrence is one emission of a named event.
// Occurrences are immutable once created.
type Occurrence struct {
	ID        string    `json:"id"`
	Name      Name      `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

// OccurrenceOption configures occurrence creation.
type OccurrenceOption func(*Occurrence)

// WithOccurrenceID sets a specific ID (default: auto-generated UUID).
func WithOccurrenceID(id string) OccurrenceOption {
	return func(o *Occurrence) {
		o.ID = id
	}
}

// WithTimestamp sets a specific timestamp (default: time.Now()).
func WithTimestamp(t time.Time) OccurrenceOption {
	return func(o *Occurrence) {
		o.Timestamp = t
	}
}

// NewOccurrence creates an occurrence of the named event.
func NewOccurrence(name Name, opts ...OccurrenceOption) Occurrence {
	occ := Occurrence{
		ID:        uuid.New().String(),
		Name:      name,
		Timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(&occ)
	}
	return occ
}

// Callback receives occurrences for a subscribed name.
type Callback func(Occurrence)
