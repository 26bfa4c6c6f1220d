package speechtotext

import "context"

// RecognitionSession is a continuous speech recognizer.
//
// Start on a running session is a no-op. Every successful start is followed
// by exactly one EventEnded, preceded by an EventFailed when the session
// stopped because of an error. Subscribers may be called from any goroutine.
type RecognitionSession interface {
	Start(ctx context.Context) error
	// Stop ends the session after pending audio has been recognized.
	Stop() error
	// Abort ends the session immediately and discards pending audio.
	Abort() error
	Subscribe(handler func(Event)) (unsubscribe func())
}

type EventKind string

const (
	EventResult EventKind = "result"
	EventEnded  EventKind = "ended"
	EventFailed EventKind = "failed"
)

// Event is a recognition session lifecycle or result event.
type Event struct {
	Kind EventKind
	// Transcript is the recognized text of the current utterance so far.
	Transcript string
	IsFinal    bool
	Error      ErrorCode
}

func NewResultEvent(transcript string, isFinal bool) Event {
	return Event{Kind: EventResult, Transcript: transcript, IsFinal: isFinal}
}

func NewEndedEvent() Event {
	return Event{Kind: EventEnded}
}

func NewFailedEvent(code ErrorCode) Event {
	return Event{Kind: EventFailed, Error: code}
}
