package orchestration

import (
	"context"
	"sync"
	"time"

	events "github.com/koscakluka/ema-dashboard/core/events"
	"github.com/koscakluka/ema-dashboard/core/speechtotext"
	"github.com/koscakluka/ema-dashboard/core/telemetry"
	"github.com/koscakluka/ema-dashboard/core/texttospeech"
)

// Engine is the conversation state machine behind the assistant panel. It
// reconciles recognition, playback, streamed replies and user intents.
//
// All methods are safe for concurrent use. Intents are queued and applied in
// order on the engine goroutine; Snapshot waits for earlier intents to be
// applied.
type Engine struct {
	state engineState

	transport ChatTransport
	capture   speechCapture
	playback  speechPlayback
	wake      *WakeListener
	emitter   *eventEmitter
	arbiter   Arbiter
	clock     Clock
	metrics   engineMetrics

	debugPrompt   bool
	onOpenRefresh func()

	silenceTimer      Timer
	silenceGeneration uint64
	lastHeardAt       time.Time
	retryUsed         bool
	callSeq           uint64

	runtime *engineRuntime
	ctx     context.Context
	cancel  context.CancelFunc

	unsubscribe []func()
	closeOnce   sync.Once
}

func NewEngine(opts ...EngineOption) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	engine := &Engine{
		arbiter:  NewArbiter(),
		clock:    systemClock{},
		metrics:  newEngineMetrics(),
		runtime:  newEngineRuntime(),
		capture:  speechCapture{worker: newEngineRuntime()},
		playback: speechPlayback{worker: newEngineRuntime()},
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(engine)
	}

	if engine.wake != nil {
		engine.wake.setOnWake(func() { engine.Open(true) })
	}
	return engine
}

// Start runs the engine until Close is called or ctx is done.
func (e *Engine) Start(ctx context.Context) {
	if !e.runtime.start() {
		return
	}

	e.emitter.start()
	e.capture.worker.start()
	e.playback.worker.start()
	if e.capture.isConfigured() {
		e.unsubscribe = append(e.unsubscribe, e.capture.session.Subscribe(func(event speechtotext.Event) {
			e.runtime.post(func() { e.handleRecognitionEvent(event) })
		}))
	}
	if e.playback.isConfigured() {
		e.unsubscribe = append(e.unsubscribe, e.playback.player.Subscribe(func(event texttospeech.Event) {
			e.runtime.post(func() { e.handlePlaybackEvent(event) })
		}))
	}
	if e.wake != nil {
		if err := e.wake.Start(ctx); err != nil {
			logger.Warn("failed to start wake listener", "error", err)
		}
	}

	go func() {
		select {
		case <-ctx.Done():
			e.Close()
		case <-e.ctx.Done():
		}
	}()
}

// Close stops capture and playback, cancels any in-flight call and stops the
// engine goroutine.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.cancel()
		e.runtime.end()
		e.runtime.waitUntilEnded()

		for _, unsubscribe := range e.unsubscribe {
			unsubscribe()
		}
		e.cancelSilenceTimer()
		e.capture.abort()
		e.playback.cancel()
		e.capture.worker.finish()
		e.playback.worker.finish()
		if e.wake != nil {
			e.wake.Close()
		}
		e.emitter.close()
	})
}

// Open shows the panel. With voice set, hands-free mode is enabled and
// listening starts shortly after.
func (e *Engine) Open(voice bool) {
	e.runtime.post(func() { e.openPanel(voice) })
}

func (e *Engine) ClosePanel() {
	e.runtime.post(func() { e.closePanel(events.PanelCloseReasonUser) })
}

// ToggleVoice switches hands-free mode. It is refused until telemetry is
// available.
func (e *Engine) ToggleVoice() {
	e.runtime.post(e.toggleVoice)
}

// Submit sends typed text.
func (e *Engine) Submit(text string) {
	e.runtime.post(func() { e.dispatch(text) })
}

func (e *Engine) UpdateTelemetry(snapshot telemetry.Snapshot, lastUpdate string) {
	snapshot = snapshot.Clone()
	e.runtime.post(func() { e.updateTelemetry(snapshot, lastUpdate) })
}

// Clear empties the message log. Text still streaming for an in-flight call
// is dropped.
func (e *Engine) Clear() {
	e.runtime.post(e.clear)
}

func (e *Engine) Snapshot() ConversationV1 {
	var snapshot ConversationV1
	e.runtime.call(func() { snapshot = e.state.snapshotV1() })
	return snapshot
}

func (e *Engine) emit(event events.Event) {
	e.emitter.emit(event)
}

func (e *Engine) openPanel(voice bool) {
	if e.state.open {
		return
	}

	e.state.open = true
	if e.wake != nil {
		e.capture.worker.post(e.wake.Suspend)
	}
	if e.onOpenRefresh != nil {
		e.onOpenRefresh()
	}
	e.emit(events.NewPanelOpened(voice))

	if voice {
		e.setVoiceMode(true)
		e.after(voiceModeStartDelay, func() {
			if e.state.open && e.state.voiceModeEnabled {
				e.startListening()
			}
		})
	}
}

func (e *Engine) closePanel(reason events.PanelCloseReason) {
	if !e.state.open {
		return
	}

	e.abortListening()
	e.stopSpeaking()
	voiceModeWasEnabled := e.state.voiceModeEnabled
	e.state.resetSession()
	if voiceModeWasEnabled {
		e.emit(events.NewVoiceModeChanged(false))
	}
	if e.wake != nil {
		e.capture.worker.post(e.wake.Resume)
	}
	e.emit(events.NewPanelClosed(reason))
}

// exitConversation handles a spoken exit phrase.
func (e *Engine) exitConversation() {
	e.stopListening()
	e.setVoiceMode(false)
	e.stopSpeaking()
	e.closePanel(events.PanelCloseReasonExitPhrase)
}

func (e *Engine) toggleVoice() {
	if !e.state.open || !e.state.dataReady() {
		return
	}

	if e.state.listening || e.state.voiceModeEnabled {
		e.stopListening()
		e.setVoiceMode(false)
		e.stopSpeaking()
		return
	}

	e.setVoiceMode(true)
	e.startListening()
}

func (e *Engine) setVoiceMode(enabled bool) {
	if e.state.voiceModeEnabled == enabled {
		return
	}
	e.state.voiceModeEnabled = enabled
	e.emit(events.NewVoiceModeChanged(enabled))
}

func (e *Engine) updateTelemetry(snapshot telemetry.Snapshot, lastUpdate string) {
	wasReady := e.state.dataReady()
	e.state.snapshot = snapshot
	e.state.lastUpdate = lastUpdate

	if ready := e.state.dataReady(); ready != wasReady {
		e.emit(events.NewDataReadyChanged(ready))
		if ready {
			e.flushPending()
		}
	}
}

func (e *Engine) clear() {
	e.state.messages = nil
	if e.state.inFlight {
		e.state.replyDiscarded = true
	}
	e.state.streamingID = ""
	e.emit(events.NewConversationCleared())
}
