package orchestration

import (
	"context"
	"iter"
	"time"

	"github.com/koscakluka/ema-dashboard/core/chat"
	events "github.com/koscakluka/ema-dashboard/core/events"
	"github.com/koscakluka/ema-dashboard/core/speechtotext"
	"github.com/koscakluka/ema-dashboard/core/texttospeech"
)

type EngineOption func(*Engine)

// ChatTransport streams the assistant's reply to a chat request. Fragments
// are yielded in receive order; a non-nil error ends the stream.
type ChatTransport interface {
	StreamReply(ctx context.Context, request chat.Request) iter.Seq2[string, error]
}

func WithChatTransport(transport ChatTransport) EngineOption {
	return func(e *Engine) {
		e.transport = transport
	}
}

// WithRecognitionSession sets the session the panel listens with in voice
// mode.
func WithRecognitionSession(session speechtotext.RecognitionSession) EngineOption {
	return func(e *Engine) {
		e.capture.session = session
	}
}

func WithSpeechPlayer(player texttospeech.SpeechPlayer) EngineOption {
	return func(e *Engine) {
		e.playback.player = player
	}
}

// WithWakeListener lets the engine suspend wake-phrase detection while the
// panel is open. A wake phrase opens the panel in voice mode.
func WithWakeListener(listener *WakeListener) EngineOption {
	return func(e *Engine) {
		e.wake = listener
	}
}

func WithEventHandler(handler func(events.Event)) EngineOption {
	return func(e *Engine) {
		e.emitter = newEventEmitter(handler)
	}
}

// WithOpenRefresh sets a hook asking the telemetry source for fresh data
// whenever the panel opens.
func WithOpenRefresh(refresh func()) EngineOption {
	return func(e *Engine) {
		e.onOpenRefresh = refresh
	}
}

func WithSilenceDelay(delay time.Duration) EngineOption {
	return func(e *Engine) {
		if delay > 0 {
			e.arbiter.SilenceDelay = delay
		}
	}
}

func WithExitPhrases(phrases Phrases) EngineOption {
	return func(e *Engine) {
		if len(phrases) > 0 {
			e.arbiter.ExitPhrases = phrases
		}
	}
}

// WithDebugPrompt asks the chat backend to log the prompt it builds.
func WithDebugPrompt(debug bool) EngineOption {
	return func(e *Engine) {
		e.debugPrompt = debug
	}
}

func WithClock(clock Clock) EngineOption {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}
