package utils

import "sync"

// Listeners is a concurrency safe set of event handlers. Handlers are called
// in subscription order on the goroutine that emits.
type Listeners[T any] struct {
	mu       sync.Mutex
	nextID   int
	handlers []listener[T]
}

type listener[T any] struct {
	id      int
	handler func(T)
}

// Add registers handler and returns a function that removes it again.
func (l *Listeners[T]) Add(handler func(T)) (remove func()) {
	if handler == nil {
		return func() {}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	id := l.nextID
	l.handlers = append(l.handlers, listener[T]{id: id, handler: handler})

	once := sync.Once{}
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			for i, registered := range l.handlers {
				if registered.id == id {
					l.handlers = append(l.handlers[:i:i], l.handlers[i+1:]...)
					return
				}
			}
		})
	}
}

func (l *Listeners[T]) Emit(event T) {
	l.mu.Lock()
	handlers := make([]listener[T], len(l.handlers))
	copy(handlers, l.handlers)
	l.mu.Unlock()

	for _, registered := range handlers {
		registered.handler(event)
	}
}

func (l *Listeners[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.handlers)
}
