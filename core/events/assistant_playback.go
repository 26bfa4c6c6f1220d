package events

const (
	// KindAssistantPlaybackStarted identifies an utterance becoming audible.
	KindAssistantPlaybackStarted Kind = "assistant_playback.started"
	// KindAssistantPlaybackEnded identifies the playback completion milestone.
	KindAssistantPlaybackEnded Kind = "assistant_playback.ended"
)

// AssistantPlaybackStarted marks the start of an utterance.
type AssistantPlaybackStarted struct {
	Base
	UtteranceID string
}

// NewAssistantPlaybackStarted creates an assistant playback started event.
func NewAssistantPlaybackStarted(utteranceID string) AssistantPlaybackStarted {
	return AssistantPlaybackStarted{Base: NewBase(KindAssistantPlaybackStarted), UtteranceID: utteranceID}
}

// AssistantPlaybackEnded marks the end of an utterance. Cancelled is set when
// playback was cut short, Err when synthesis failed.
type AssistantPlaybackEnded struct {
	Base
	UtteranceID string
	Cancelled   bool
	Err         error
}

// NewAssistantPlaybackEnded creates an assistant playback ended event.
func NewAssistantPlaybackEnded(utteranceID string, cancelled bool, err error) AssistantPlaybackEnded {
	return AssistantPlaybackEnded{
		Base:        NewBase(KindAssistantPlaybackEnded),
		UtteranceID: utteranceID,
		Cancelled:   cancelled,
		Err:         err,
	}
}
