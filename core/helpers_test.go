package orchestration

import (
	"context"
	"iter"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/koscakluka/ema-dashboard/core/chat"
	events "github.com/koscakluka/ema-dashboard/core/events"
	"github.com/koscakluka/ema-dashboard/core/speechtotext"
	"github.com/koscakluka/ema-dashboard/core/telemetry"
	"github.com/koscakluka/ema-dashboard/core/texttospeech"
	"github.com/koscakluka/ema-dashboard/internal/utils"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	timer := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, timer)
	return timer
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward and fires every timer that became due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	due := []*fakeTimer{}
	remaining := []*fakeTimer{}
	for _, timer := range c.timers {
		switch {
		case timer.stopped || timer.fired:
		case !timer.at.After(c.now):
			timer.fired = true
			due = append(due, timer)
		default:
			remaining = append(remaining, timer)
		}
	}
	c.timers = remaining
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, timer := range due {
		timer.f()
	}
}

type recognitionStub struct {
	mu       sync.Mutex
	starts   int
	stops    int
	aborts   int
	startErr error

	listeners utils.Listeners[speechtotext.Event]
}

func (s *recognitionStub) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts++
	return s.startErr
}

func (s *recognitionStub) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	return nil
}

func (s *recognitionStub) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aborts++
	return nil
}

func (s *recognitionStub) Subscribe(handler func(speechtotext.Event)) func() {
	return s.listeners.Add(handler)
}

func (s *recognitionStub) emit(event speechtotext.Event) {
	s.listeners.Emit(event)
}

func (s *recognitionStub) setStartErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startErr = err
}

func (s *recognitionStub) counts() (starts, stops, aborts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts, s.stops, s.aborts
}

// playerStub records player calls. When gate is set Speak holds on to the
// caller until the gate is closed, the way a slow connect would.
type playerStub struct {
	mu    sync.Mutex
	calls []string
	ids   []string
	gate  chan struct{}

	listeners utils.Listeners[texttospeech.Event]
}

func (p *playerStub) Speak(ctx context.Context, utteranceID, text string) error {
	p.mu.Lock()
	p.calls = append(p.calls, "speak:"+text)
	p.ids = append(p.ids, utteranceID)
	gate := p.gate
	p.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (p *playerStub) Cancel() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "cancel")
	return nil
}

func (p *playerStub) Subscribe(handler func(texttospeech.Event)) func() {
	return p.listeners.Add(handler)
}

func (p *playerStub) emit(event texttospeech.Event) {
	p.listeners.Emit(event)
}

func (p *playerStub) callLog() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *playerStub) utteranceIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.ids...)
}

// transportStub answers every call with the fragments returned by reply.
// When gate is set each call waits for a value (or its closing) before
// streaming.
type transportStub struct {
	mu       sync.Mutex
	requests []chat.Request
	reply    func(call int, request chat.Request) ([]string, error)
	gate     chan struct{}
}

func newTransportStub(fragments ...string) *transportStub {
	return &transportStub{reply: func(int, chat.Request) ([]string, error) { return fragments, nil }}
}

func (s *transportStub) StreamReply(ctx context.Context, request chat.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		s.mu.Lock()
		s.requests = append(s.requests, request)
		call := len(s.requests)
		gate := s.gate
		reply := s.reply
		s.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-ctx.Done():
				yield("", ctx.Err())
				return
			}
		}

		fragments, err := reply(call, request)
		for _, fragment := range fragments {
			if !yield(fragment, nil) {
				return
			}
		}
		if err != nil {
			yield("", err)
		}
	}
}

func (s *transportStub) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *transportStub) request(i int) chat.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[i]
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) record(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

func (r *eventRecorder) has(kind events.Kind) bool {
	for _, event := range r.all() {
		if event.Kind() == kind {
			return true
		}
	}
	return false
}

func newTestEngine(t *testing.T, opts ...EngineOption) (*Engine, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	engine := NewEngine(append([]EngineOption{WithClock(clock)}, opts...)...)
	engine.Start(context.Background())
	t.Cleanup(engine.Close)
	return engine, clock
}

func testSnapshot() telemetry.Snapshot {
	return telemetry.Snapshot{
		"光伏站点A": {telemetry.LabelCurrentPower: "850kW", telemetry.LabelStatus: "在线"},
	}
}

func waitFor(t *testing.T, description string, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", description)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func waitForState(t *testing.T, engine *Engine, description string, condition func(ConversationV1) bool) ConversationV1 {
	t.Helper()
	var state ConversationV1
	waitFor(t, description, func() bool {
		state = engine.Snapshot()
		return condition(state)
	})
	return state
}

// openListening opens the panel with telemetry loaded and voice mode on.
func openListening(t *testing.T, engine *Engine) {
	t.Helper()
	engine.UpdateTelemetry(testSnapshot(), "12:00:00")
	engine.Open(false)
	engine.ToggleVoice()
	waitForState(t, engine, "listening", func(s ConversationV1) bool { return s.Listening && s.VoiceModeEnabled })
}
