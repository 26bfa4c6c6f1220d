package orchestration

import (
	"context"
	"sync"

	"github.com/koscakluka/ema-dashboard/core/speechtotext"
)

// WakeListener listens for a wake phrase while the panel is closed. It runs
// its own recognition session, separate from the panel's, and only looks at
// final results.
type WakeListener struct {
	session speechtotext.RecognitionSession
	phrases Phrases

	mu          sync.Mutex
	ctx         context.Context
	onWake      func()
	started     bool
	running     bool
	suspended   bool
	closed      bool
	unsubscribe func()
}

type WakeListenerOption func(*WakeListener)

func WithWakePhrases(phrases Phrases) WakeListenerOption {
	return func(w *WakeListener) {
		if len(phrases) > 0 {
			w.phrases = phrases
		}
	}
}

func NewWakeListener(session speechtotext.RecognitionSession, opts ...WakeListenerOption) *WakeListener {
	listener := &WakeListener{
		session: session,
		phrases: DefaultWakePhrases,
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(listener)
	}
	return listener
}

func (w *WakeListener) setOnWake(onWake func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onWake = onWake
}

// Start subscribes to the session and begins listening unless suspended.
func (w *WakeListener) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.session == nil || w.started || w.closed {
		w.mu.Unlock()
		return nil
	}
	w.started = true
	w.ctx = ctx
	suspended := w.suspended
	w.mu.Unlock()

	unsubscribe := w.session.Subscribe(w.handle)
	w.mu.Lock()
	w.unsubscribe = unsubscribe
	w.mu.Unlock()

	if suspended {
		return nil
	}
	return w.startSession(ctx)
}

// startSession starts the session unless it is still running. A session that
// was stopped counts as running until its ended event arrives.
func (w *WakeListener) startSession(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.session.Start(ctx); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	return nil
}

// Suspend stops listening while the panel owns the microphone.
func (w *WakeListener) Suspend() {
	w.mu.Lock()
	if w.suspended {
		w.mu.Unlock()
		return
	}
	w.suspended = true
	running := w.started && !w.closed
	w.mu.Unlock()

	if running {
		if err := w.session.Stop(); err != nil {
			logger.Warn("failed to suspend wake listener", "error", err)
		}
	}
}

func (w *WakeListener) Resume() {
	w.mu.Lock()
	if !w.suspended {
		w.mu.Unlock()
		return
	}
	w.suspended = false
	running := w.started && !w.closed
	ctx := w.ctx
	w.mu.Unlock()

	if running {
		if err := w.startSession(ctx); err != nil {
			logger.Warn("failed to resume wake listener", "error", err)
		}
	}
}

func (w *WakeListener) Suspended() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.suspended
}

func (w *WakeListener) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	unsubscribe := w.unsubscribe
	started := w.started
	w.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if started {
		if err := w.session.Abort(); err != nil {
			logger.Warn("failed to close wake listener", "error", err)
		}
	}
}

func (w *WakeListener) handle(event speechtotext.Event) {
	w.mu.Lock()
	if event.Kind == speechtotext.EventEnded {
		w.running = false
	}
	active := !w.suspended && !w.closed
	onWake := w.onWake
	ctx := w.ctx
	w.mu.Unlock()

	if !active {
		return
	}

	switch event.Kind {
	case speechtotext.EventResult:
		if !event.IsFinal || !w.phrases.Match(event.Transcript) {
			return
		}
		logger.Info("wake phrase recognized", "transcript", event.Transcript)
		if onWake != nil {
			onWake()
		}
	case speechtotext.EventEnded:
		if err := w.startSession(ctx); err != nil {
			logger.Warn("failed to restart wake listener", "error", err)
		}
	case speechtotext.EventFailed:
		logger.Debug("wake listener recognition error", "code", string(event.Error))
	}
}
