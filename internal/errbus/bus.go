// Package errbus is the process-wide permission-error channel: it
// decouples failed-write detection, which happens deep inside mutation
// call sites, from the single surface that presents denials to the
// user. The bus is constructed once at startup and passed by reference
// into every component that can fail; it lives for the process.
package errbus

import (
	"sync"

	"github.com/taskmaster/gateway/domain"
)

// Handler receives published permission errors.
type Handler func(*domain.PermissionError)

// Bus dispatches permission errors synchronously to whatever
// subscribers are registered at publish time. Fire-and-forget: no
// back-pressure, no delivery guarantee beyond in-process dispatch,
// zero subscribers is fine.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]Handler
}

func New() *Bus {
	return &Bus{subs: make(map[int]Handler)}
}

// Subscribe registers a handler and returns its unsubscribe function.
// Unsubscribing is idempotent.
func (b *Bus) Subscribe(fn Handler) func() {
	if fn == nil {
		return func() {}
	}
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers the error to all current subscribers, synchronously
// and in unspecified order. A nil error is ignored.
func (b *Bus) Publish(perr *domain.PermissionError) {
	if b == nil || perr == nil {
		return
	}
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, fn := range b.subs {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(perr)
	}
}
