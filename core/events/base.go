package events

import "time"

// Kind names an engine event. The panel switches on it to decide which part
// of the conversation view to refresh.
type Kind string

// Event is anything the conversation engine reports to the panel: panel and
// voice mode changes, transcripts, streamed replies and playback progress.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the fields every engine event shares. Concrete events embed
// it and are built through their New constructors.
type Base struct {
	kind      Kind
	timestamp time.Time
}

// NewBase stamps an event of the given kind with the time it was raised on
// the engine goroutine.
func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

// Timestamp is when the engine raised the event, not when the panel
// received it.
func (b Base) Timestamp() time.Time {
	return b.timestamp
}
