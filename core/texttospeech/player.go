package texttospeech

import "context"

// SpeechPlayer synthesizes and plays one utterance at a time.
//
// Speak returns once synthesis has been requested. Lifecycle events carry
// the utterance id passed to Speak. Cancel stops the current utterance
// without emitting further events for it. Subscribers may be called from
// any goroutine.
type SpeechPlayer interface {
	Speak(ctx context.Context, utteranceID, text string) error
	Cancel() error
	Subscribe(handler func(Event)) (unsubscribe func())
}

type EventKind string

const (
	EventStarted EventKind = "started"
	EventEnded   EventKind = "ended"
	EventFailed  EventKind = "failed"
)

type Event struct {
	Kind        EventKind
	UtteranceID string
	Err         error
}

func NewStartedEvent(utteranceID string) Event {
	return Event{Kind: EventStarted, UtteranceID: utteranceID}
}

func NewEndedEvent(utteranceID string) Event {
	return Event{Kind: EventEnded, UtteranceID: utteranceID}
}

func NewFailedEvent(utteranceID string, err error) Event {
	return Event{Kind: EventFailed, UtteranceID: utteranceID, Err: err}
}
