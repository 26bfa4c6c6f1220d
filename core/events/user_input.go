package events

const (
	// KindVoiceModeChanged identifies hands-free mode toggles.
	KindVoiceModeChanged Kind = "user_input.voice_mode_changed"
	// KindListeningChanged identifies speech capture starting or stopping.
	KindListeningChanged Kind = "user_input.listening_changed"
	// KindUserTranscriptUpdated identifies mutable transcript snapshots.
	KindUserTranscriptUpdated Kind = "user_input.transcript_updated"
	// KindAdvisoryUpdated identifies capture advisory changes.
	KindAdvisoryUpdated Kind = "user_input.advisory_updated"
	// KindUtteranceBuffered identifies utterances parked for later dispatch.
	KindUtteranceBuffered Kind = "user_input.utterance_buffered"
	// KindUtteranceDiscarded identifies utterances dropped while busy.
	KindUtteranceDiscarded Kind = "user_input.utterance_discarded"
)

// VoiceModeChanged carries the new hands-free mode state.
type VoiceModeChanged struct {
	Base
	Enabled bool
}

// NewVoiceModeChanged creates a voice mode changed event.
func NewVoiceModeChanged(enabled bool) VoiceModeChanged {
	return VoiceModeChanged{Base: NewBase(KindVoiceModeChanged), Enabled: enabled}
}

// ListeningChanged carries the new speech capture state.
type ListeningChanged struct {
	Base
	Listening bool
}

// NewListeningChanged creates a listening changed event.
func NewListeningChanged(listening bool) ListeningChanged {
	return ListeningChanged{Base: NewBase(KindListeningChanged), Listening: listening}
}

// UserTranscriptUpdated carries the latest recognized text of the current
// utterance.
type UserTranscriptUpdated struct {
	Base
	Transcript string
	IsFinal    bool
}

// NewUserTranscriptUpdated creates a transcript updated event.
func NewUserTranscriptUpdated(transcript string, isFinal bool) UserTranscriptUpdated {
	return UserTranscriptUpdated{Base: NewBase(KindUserTranscriptUpdated), Transcript: transcript, IsFinal: isFinal}
}

// AdvisoryUpdated carries the capture advisory shown to the user. An empty
// Advisory clears it.
type AdvisoryUpdated struct {
	Base
	Advisory string
}

// NewAdvisoryUpdated creates an advisory updated event.
func NewAdvisoryUpdated(advisory string) AdvisoryUpdated {
	return AdvisoryUpdated{Base: NewBase(KindAdvisoryUpdated), Advisory: advisory}
}

// UtteranceBuffered carries the utterance held in the single pending slot.
type UtteranceBuffered struct {
	Base
	Text   string
	Reason string
}

// NewUtteranceBuffered creates an utterance buffered event.
func NewUtteranceBuffered(text, reason string) UtteranceBuffered {
	return UtteranceBuffered{Base: NewBase(KindUtteranceBuffered), Text: text, Reason: reason}
}

// UtteranceDiscarded carries an utterance that was dropped.
type UtteranceDiscarded struct {
	Base
	Text string
}

// NewUtteranceDiscarded creates an utterance discarded event.
func NewUtteranceDiscarded(text string) UtteranceDiscarded {
	return UtteranceDiscarded{Base: NewBase(KindUtteranceDiscarded), Text: text}
}
