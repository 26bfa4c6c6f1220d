package orchestration

import events "github.com/koscakluka/ema-dashboard/core/events"

// eventEmitter delivers engine events to the presentation handler on its own
// goroutine, in emission order, so a slow handler never stalls the engine.
type eventEmitter struct {
	handler func(events.Event)
	runtime *engineRuntime
}

func newEventEmitter(handler func(events.Event)) *eventEmitter {
	return &eventEmitter{handler: handler, runtime: newEngineRuntime()}
}

func (e *eventEmitter) start() {
	if e == nil || e.handler == nil {
		return
	}
	e.runtime.start()
}

func (e *eventEmitter) emit(event events.Event) {
	if e == nil || e.handler == nil {
		return
	}

	handler := e.handler
	e.runtime.post(func() { handler(event) })
}

func (e *eventEmitter) close() {
	if e == nil {
		return
	}
	e.runtime.end()
	e.runtime.waitUntilEnded()
}
