package orchestration

import (
	"github.com/koscakluka/ema-dashboard/core/llms"
	"github.com/koscakluka/ema-dashboard/core/telemetry"
)

type Mode string

const (
	ModeIdle          Mode = "idle"
	ModeListening     Mode = "listening"
	ModeSpeaking      Mode = "speaking"
	ModeAwaitingReply Mode = "awaiting_reply"
)

// ApologyMessage replaces a reply whose chat call failed.
const ApologyMessage = "抱歉，发生了错误，请稍后再试。"

type Message struct {
	ID      string
	Role    llms.Role
	Content string
}

// engineState is owned by the engine goroutine.
type engineState struct {
	messages []Message

	open             bool
	voiceModeEnabled bool
	listening        bool
	speaking         bool
	inFlight         bool

	pendingTranscript string
	transcript        string
	advisory          string

	snapshot   telemetry.Snapshot
	lastUpdate string

	// streamingID is the id of the assistant message the in-flight call is
	// appending to, empty until its first fragment arrives.
	streamingID string
	// replyDiscarded drops the rest of the in-flight reply after Clear.
	replyDiscarded bool
}

// mode derives the single visible mode. Listening and speaking may overlap
// physically, so the higher priority one wins.
func (s *engineState) mode() Mode {
	switch {
	case !s.open:
		return ModeIdle
	case s.inFlight:
		return ModeAwaitingReply
	case s.speaking:
		return ModeSpeaking
	case s.listening:
		return ModeListening
	default:
		return ModeIdle
	}
}

func (s *engineState) dataReady() bool {
	return s.snapshot != nil && s.lastUpdate != "" && len(s.snapshot) > 0
}

func (s *engineState) busy() bool {
	return s.inFlight || s.speaking
}

// resetSession clears everything scoped to one opening of the panel. The
// message log and any in-flight call survive.
func (s *engineState) resetSession() {
	s.open = false
	s.voiceModeEnabled = false
	s.listening = false
	s.speaking = false
	s.pendingTranscript = ""
	s.transcript = ""
	s.advisory = ""
}

func (s *engineState) trailingStreamingMessage() *Message {
	if s.streamingID == "" || len(s.messages) == 0 {
		return nil
	}
	last := &s.messages[len(s.messages)-1]
	if last.ID != s.streamingID || last.Role != llms.RoleAssistant {
		return nil
	}
	return last
}

// ConversationV1 is a point-in-time copy of the engine state for rendering.
type ConversationV1 struct {
	Messages          []Message
	Mode              Mode
	Open              bool
	VoiceModeEnabled  bool
	Listening         bool
	Speaking          bool
	AwaitingReply     bool
	PendingTranscript string
	Transcript        string
	Advisory          string
	DataReady         bool
	LastUpdate        string
}

func (s *engineState) snapshotV1() ConversationV1 {
	messages := make([]Message, len(s.messages))
	copy(messages, s.messages)

	return ConversationV1{
		Messages:          messages,
		Mode:              s.mode(),
		Open:              s.open,
		VoiceModeEnabled:  s.voiceModeEnabled,
		Listening:         s.listening,
		Speaking:          s.speaking,
		AwaitingReply:     s.inFlight,
		PendingTranscript: s.pendingTranscript,
		Transcript:        s.transcript,
		Advisory:          s.advisory,
		DataReady:         s.dataReady(),
		LastUpdate:        s.lastUpdate,
	}
}
