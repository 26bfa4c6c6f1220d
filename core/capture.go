package orchestration

import (
	"context"
	"math"
	"time"

	events "github.com/koscakluka/ema-dashboard/core/events"
	"github.com/koscakluka/ema-dashboard/core/speechtotext"
)

const (
	captureRestartDelay = 200 * time.Millisecond
	captureRetryDelay   = 800 * time.Millisecond
	voiceModeStartDelay = 500 * time.Millisecond
)

// speechCapture tracks the panel's recognition session. Session calls run in
// order on worker, so a slow connect never holds up the engine. active is set
// when a start is issued and cleared by the session's ended event or by a
// failed start, which keeps at most one session running.
type speechCapture struct {
	session speechtotext.RecognitionSession
	worker  *engineRuntime

	active  bool
	aborted bool
	attempt uint64
}

func (c *speechCapture) isConfigured() bool {
	return c != nil && c.session != nil
}

// start issues a session start unless one is already running. failed is
// called from the worker with the attempt number when the start errors.
func (c *speechCapture) start(ctx context.Context, failed func(attempt uint64, err error)) {
	if !c.isConfigured() || c.active {
		return
	}

	c.active = true
	c.aborted = false
	c.attempt++
	attempt, session := c.attempt, c.session
	c.worker.post(func() {
		if err := session.Start(ctx); err != nil {
			failed(attempt, err)
		}
	})
}

func (c *speechCapture) stop() {
	if !c.isConfigured() || !c.active {
		return
	}
	session := c.session
	c.worker.post(func() {
		if err := session.Stop(); err != nil {
			logger.Warn("failed to stop speech capture", "error", err)
		}
	})
}

func (c *speechCapture) abort() {
	if !c.isConfigured() || !c.active || c.aborted {
		return
	}
	c.aborted = true
	session := c.session
	c.worker.post(func() {
		if err := session.Abort(); err != nil {
			logger.Warn("failed to abort speech capture", "error", err)
		}
	})
}

// failed records that the given start attempt never produced a session. It
// reports false when the attempt is stale or was aborted meanwhile.
func (c *speechCapture) failed(attempt uint64) bool {
	if attempt != c.attempt || !c.active {
		return false
	}
	aborted := c.aborted
	c.active = false
	c.aborted = false
	return !aborted
}

// ended records the end of the running session and reports whether it had
// been aborted.
func (c *speechCapture) ended() (aborted bool) {
	aborted = c.aborted
	c.active = false
	c.aborted = false
	return aborted
}

func (e *Engine) startListening() {
	if !e.capture.isConfigured() || e.state.listening {
		return
	}

	e.state.listening = true
	e.state.transcript = ""
	e.retryUsed = false
	e.setAdvisory("")
	e.emit(events.NewListeningChanged(true))
	e.startCapture()
}

func (e *Engine) startCapture() {
	e.capture.start(e.ctx, func(attempt uint64, err error) {
		e.runtime.post(func() { e.onCaptureStartFailed(attempt, err) })
	})
}

// onCaptureStartFailed handles a session that could not connect the same way
// as a network error reported by a running one.
func (e *Engine) onCaptureStartFailed(attempt uint64, err error) {
	if !e.capture.failed(attempt) || !e.state.listening {
		return
	}
	logger.Error("failed to start speech capture", "error", err)
	e.onRecognitionFailed(speechtotext.ErrorNetwork)
}

func (e *Engine) stopListening() {
	e.cancelSilenceTimer()
	e.capture.stop()
	e.setListening(false)
}

func (e *Engine) abortListening() {
	e.cancelSilenceTimer()
	e.capture.abort()
	e.setListening(false)
}

func (e *Engine) setListening(listening bool) {
	if e.state.listening == listening {
		return
	}
	e.state.listening = listening
	e.emit(events.NewListeningChanged(listening))
}

func (e *Engine) setAdvisory(advisory string) {
	if e.state.advisory == advisory {
		return
	}
	e.state.advisory = advisory
	e.emit(events.NewAdvisoryUpdated(advisory))
}

func (e *Engine) handleRecognitionEvent(event speechtotext.Event) {
	switch event.Kind {
	case speechtotext.EventResult:
		e.onRecognitionResult(event)
	case speechtotext.EventEnded:
		e.onRecognitionEnded()
	case speechtotext.EventFailed:
		e.onRecognitionFailed(event.Error)
	}
}

func (e *Engine) onRecognitionResult(event speechtotext.Event) {
	if !e.state.open {
		return
	}

	e.state.transcript = event.Transcript
	e.retryUsed = false
	e.emit(events.NewUserTranscriptUpdated(event.Transcript, event.IsFinal))

	if e.state.listening {
		e.armSilenceTimer()
	}
}

func (e *Engine) onRecognitionEnded() {
	aborted := e.capture.ended()
	if e.state.listening {
		// Listening may have been switched back on while an aborted session
		// was still winding down.
		e.after(captureRestartDelay, e.restartCapture)
		return
	}
	if aborted {
		return
	}

	// The user switched the microphone off; whatever was heard last still
	// counts as an utterance.
	e.cancelSilenceTimer()
	transcript := e.state.transcript
	e.state.transcript = ""
	e.apply(e.arbiter.Decide(transcript, math.MaxInt64, e.state.busy()), false)
}

func (e *Engine) restartCapture() {
	if !e.state.listening {
		return
	}
	e.startCapture()
}

func (e *Engine) onRecognitionFailed(code speechtotext.ErrorCode) {
	if code.IsBenign() {
		return
	}
	logger.Warn("speech recognition error", "code", string(code), "listening", e.state.listening)

	if code.IsTransient() && !e.retryUsed {
		e.retryUsed = true
		e.setAdvisory(code.Advisory())
		e.after(captureRetryDelay, func() {
			if !e.state.listening {
				return
			}
			e.startCapture()
			e.setAdvisory("")
		})
		return
	}

	advisory := code.Advisory()
	if code.IsTransient() {
		advisory = speechtotext.AdvisoryUnavailable
	}
	e.setAdvisory(advisory)
	e.cancelSilenceTimer()
	e.setListening(false)
}

func (e *Engine) armSilenceTimer() {
	e.cancelSilenceTimer()
	e.lastHeardAt = e.clock.Now()
	e.silenceGeneration++
	generation := e.silenceGeneration
	e.silenceTimer = e.clock.AfterFunc(e.arbiter.SilenceDelay, func() {
		e.runtime.post(func() { e.onSilence(generation) })
	})
}

func (e *Engine) cancelSilenceTimer() {
	e.silenceGeneration++
	if e.silenceTimer != nil {
		e.silenceTimer.Stop()
		e.silenceTimer = nil
	}
}

func (e *Engine) onSilence(generation uint64) {
	if generation != e.silenceGeneration {
		return
	}
	e.silenceTimer = nil

	decision := e.arbiter.Decide(e.state.transcript, e.clock.Now().Sub(e.lastHeardAt), e.state.busy())
	if decision.Verdict == VerdictWait {
		e.armSilenceTimer()
		return
	}
	e.apply(decision, true)
}

// apply carries out a decision about a finished utterance. Exit phrases only
// close the panel while it is being spoken to.
func (e *Engine) apply(decision Decision, spoken bool) {
	switch decision.Verdict {
	case VerdictExit:
		e.state.transcript = ""
		if spoken {
			logger.Info("exit phrase recognized", "transcript", decision.Text)
			e.exitConversation()
		}
	case VerdictDiscard:
		logger.Info("discarding utterance while busy", "transcript", decision.Text, "mode", string(e.state.mode()))
		e.metrics.discarded.Add(e.ctx, 1)
		e.emit(events.NewUtteranceDiscarded(decision.Text))
	case VerdictDispatch:
		e.state.transcript = ""
		e.dispatch(decision.Text)
	}
}

// after runs f on the engine goroutine once d has elapsed.
func (e *Engine) after(d time.Duration, f func()) {
	e.clock.AfterFunc(d, func() { e.runtime.post(f) })
}
