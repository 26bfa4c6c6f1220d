package orchestration

import (
	"sync"
	"sync/atomic"
)

// engineRuntime serialises every state transition of the engine onto a single
// goroutine. Posting never blocks so that callbacks fired synchronously from
// inside a transition can post follow-up work without deadlocking the loop.
// The capture and playback facades run their device calls on runtimes of
// their own.
type engineRuntime struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}

	closeCh chan struct{}
	done    chan struct{}

	startOnce sync.Once
	endOnce   sync.Once

	started atomic.Bool
}

func newEngineRuntime() *engineRuntime {
	return &engineRuntime{
		wake:    make(chan struct{}, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (r *engineRuntime) start() (started bool) {
	if r.isClosed() {
		return false
	}

	r.startOnce.Do(func() {
		if r.isClosed() {
			return
		}

		started = true
		r.started.Store(true)
		go func() {
			defer close(r.done)

			for {
				select {
				case <-r.closeCh:
					return
				case <-r.wake:
				}

				for _, f := range r.drain() {
					if r.isClosed() {
						return
					}
					f()
				}
			}
		}()
	})

	return started
}

func (r *engineRuntime) drain() []func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	queued := r.pending
	r.pending = nil
	return queued
}

// post queues f for the engine goroutine. Work posted before start runs once
// the runtime starts; work posted after end is dropped.
func (r *engineRuntime) post(f func()) bool {
	if r.isClosed() {
		return false
	}

	r.mu.Lock()
	r.pending = append(r.pending, f)
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
	return true
}

// call runs f on the engine goroutine and waits for it to finish. It must not
// be used from the engine goroutine itself.
func (r *engineRuntime) call(f func()) bool {
	if !r.started.Load() {
		return false
	}

	finished := make(chan struct{})
	if !r.post(func() {
		defer close(finished)
		f()
	}) {
		return false
	}

	select {
	case <-finished:
		return true
	case <-r.done:
		return false
	}
}

func (r *engineRuntime) end() {
	r.endOnce.Do(func() {
		close(r.closeCh)
	})
}

// finish ends the runtime once the work queued so far has run and waits for
// it to stop.
func (r *engineRuntime) finish() {
	if r.started.Load() {
		r.post(r.end)
	} else {
		r.end()
	}
	r.waitUntilEnded()
}

func (r *engineRuntime) waitUntilEnded() {
	if r.started.Load() {
		<-r.done
	}
}

func (r *engineRuntime) isClosed() bool {
	select {
	case <-r.closeCh:
		return true
	default:
		return false
	}
}

func (r *engineRuntime) queuedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
