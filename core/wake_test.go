package orchestration

import (
	"sync/atomic"
	"testing"

	"github.com/koscakluka/ema-dashboard/core/speechtotext"
)

func TestWakeListenerReactsToFinalResultsOnly(t *testing.T) {
	session := &recognitionStub{}
	listener := NewWakeListener(session)
	var wakes atomic.Int32
	listener.setOnWake(func() { wakes.Add(1) })

	if err := listener.Start(t.Context()); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	defer listener.Close()

	session.emit(speechtotext.NewResultEvent("你好小鑫", false))
	session.emit(speechtotext.NewResultEvent("今天天气不错", true))
	if wakes.Load() != 0 {
		t.Fatalf("expected no wake, got %d", wakes.Load())
	}

	session.emit(speechtotext.NewResultEvent("你好，小鑫！", true))
	if wakes.Load() != 1 {
		t.Fatalf("expected one wake, got %d", wakes.Load())
	}
}

func TestWakeListenerRestartsUnlessSuspended(t *testing.T) {
	session := &recognitionStub{}
	listener := NewWakeListener(session, WithWakePhrases(Phrases{"芝麻开门"}))
	var wakes atomic.Int32
	listener.setOnWake(func() { wakes.Add(1) })

	if err := listener.Start(t.Context()); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	defer listener.Close()

	session.emit(speechtotext.NewEndedEvent())
	if starts, _, _ := session.counts(); starts != 2 {
		t.Fatalf("expected restart after session end, got %d starts", starts)
	}

	listener.Suspend()
	if !listener.Suspended() {
		t.Fatalf("expected listener to be suspended")
	}
	session.emit(speechtotext.NewEndedEvent())
	session.emit(speechtotext.NewResultEvent("芝麻开门", true))
	starts, stops, _ := session.counts()
	if starts != 2 || stops != 1 {
		t.Fatalf("expected suspended listener to stay stopped, got %d starts %d stops", starts, stops)
	}
	if wakes.Load() != 0 {
		t.Fatalf("expected suspended listener to ignore wake phrases")
	}

	listener.Resume()
	session.emit(speechtotext.NewResultEvent("芝麻开门", true))
	if starts, _, _ := session.counts(); starts != 3 {
		t.Fatalf("expected resume to start the session, got %d starts", starts)
	}
	if wakes.Load() != 1 {
		t.Fatalf("expected custom wake phrase to match, got %d wakes", wakes.Load())
	}
}

func TestWakeListenerCloseAbortsSession(t *testing.T) {
	session := &recognitionStub{}
	listener := NewWakeListener(session)
	if err := listener.Start(t.Context()); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	listener.Close()
	listener.Close()
	session.emit(speechtotext.NewEndedEvent())

	starts, _, aborts := session.counts()
	if aborts != 1 || starts != 1 {
		t.Fatalf("expected a single abort and no restart, got %d starts %d aborts", starts, aborts)
	}
}

func TestWakeListenerResumeWaitsForStoppedSessionToEnd(t *testing.T) {
	session := &recognitionStub{}
	listener := NewWakeListener(session)
	if err := listener.Start(t.Context()); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	defer listener.Close()

	listener.Suspend()
	listener.Resume()
	if starts, _, _ := session.counts(); starts != 1 {
		t.Fatalf("expected resume to leave the stopping session alone, got %d starts", starts)
	}

	session.emit(speechtotext.NewEndedEvent())
	if starts, _, _ := session.counts(); starts != 2 {
		t.Fatalf("expected a single restart once the session ended, got %d starts", starts)
	}
}
