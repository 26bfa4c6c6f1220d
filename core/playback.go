package orchestration

import (
	"context"
	"strings"

	"github.com/google/uuid"
	events "github.com/koscakluka/ema-dashboard/core/events"
	"github.com/koscakluka/ema-dashboard/core/texttospeech"
)

var markdownReplacer = strings.NewReplacer("#", "", "*", "", "`", "")

// cleanForSpeech removes markdown symbols that would otherwise be read out.
func cleanForSpeech(text string) string {
	return strings.TrimSpace(markdownReplacer.Replace(text))
}

// speechPlayback tracks the single utterance the player may be working on.
// Player calls run in order on worker, so a cancel always reaches the player
// after the speak it supersedes.
type speechPlayback struct {
	player texttospeech.SpeechPlayer
	worker *engineRuntime

	current string
}

func (p *speechPlayback) isConfigured() bool {
	return p != nil && p.player != nil
}

// speak makes utteranceID current and queues it for the player. failed is
// called from the worker when the player rejects it.
func (p *speechPlayback) speak(ctx context.Context, utteranceID, text string, failed func(error)) {
	p.current = utteranceID
	player := p.player
	p.worker.post(func() {
		if err := player.Speak(ctx, utteranceID, text); err != nil {
			failed(err)
		}
	})
}

func (p *speechPlayback) cancel() (cancelled string) {
	if !p.isConfigured() || p.current == "" {
		return ""
	}

	cancelled = p.current
	p.current = ""
	player := p.player
	p.worker.post(func() {
		if err := player.Cancel(); err != nil {
			logger.Warn("failed to cancel speech playback", "error", err)
		}
	})
	return cancelled
}

func (p *speechPlayback) isCurrent(utteranceID string) bool {
	return p.current != "" && p.current == utteranceID
}

// speak hands text to the player, cutting off whatever is playing first.
func (e *Engine) speak(text string) {
	if !e.playback.isConfigured() {
		return
	}
	text = cleanForSpeech(text)
	if text == "" {
		return
	}

	e.stopSpeaking()

	utteranceID := uuid.NewString()
	e.playback.speak(e.ctx, utteranceID, text, func(err error) {
		e.runtime.post(func() {
			if !e.playback.isCurrent(utteranceID) {
				return
			}
			logger.Error("failed to start speech playback", "error", err, "utterance_id", utteranceID)
			e.finishPlayback(utteranceID, err)
		})
	})
}

func (e *Engine) stopSpeaking() {
	cancelled := e.playback.cancel()
	if e.state.speaking {
		e.state.speaking = false
		e.emit(events.NewAssistantPlaybackEnded(cancelled, true, nil))
	}
}

func (e *Engine) handlePlaybackEvent(event texttospeech.Event) {
	if !e.playback.isCurrent(event.UtteranceID) {
		return
	}

	switch event.Kind {
	case texttospeech.EventStarted:
		if !e.state.speaking {
			e.state.speaking = true
			e.emit(events.NewAssistantPlaybackStarted(event.UtteranceID))
		}
	case texttospeech.EventEnded:
		e.finishPlayback(event.UtteranceID, nil)
	case texttospeech.EventFailed:
		logger.Warn("speech playback failed", "error", event.Err, "utterance_id", event.UtteranceID)
		e.finishPlayback(event.UtteranceID, event.Err)
	}
}

// finishPlayback ends the current utterance and hands the turn back to the
// user when hands-free mode is on.
func (e *Engine) finishPlayback(utteranceID string, err error) {
	e.playback.current = ""
	e.state.speaking = false
	e.emit(events.NewAssistantPlaybackEnded(utteranceID, false, err))

	if e.state.open && e.state.voiceModeEnabled {
		e.startListening()
	}
}
