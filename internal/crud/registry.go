package crud

import (
	"sync"
	"time"
)

type registryKey struct {
	session string
	scope   string
}

type registryEntry[T any] struct {
	controller *Controller[T]
	lastUsed   time.Time
}

// Registry hands out one controller per session and scope (for example the
// member platform). Controllers are never shared between sessions.
type Registry[T any] struct {
	mu      sync.Mutex
	factory func(scope string) *Controller[T]
	items   map[registryKey]*registryEntry[T]
	now     func() time.Time
}

// NewRegistry creates a registry building controllers with factory
func NewRegistry[T any](factory func(scope string) *Controller[T]) *Registry[T] {
	return &Registry[T]{
		factory: factory,
		items:   make(map[registryKey]*registryEntry[T]),
		now:     time.Now,
	}
}

// For returns the controller of a session and scope, creating it on first use
func (r *Registry[T]) For(session, scope string) *Controller[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := registryKey{session: session, scope: scope}
	e, ok := r.items[k]
	if !ok {
		e = &registryEntry[T]{controller: r.factory(scope)}
		r.items[k] = e
	}
	e.lastUsed = r.now()
	return e.controller
}

// Drop forgets every controller of a session
func (r *Registry[T]) Drop(session string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.items {
		if k.session == session {
			delete(r.items, k)
		}
	}
}

// Sweep forgets controllers not used for longer than idle and returns how many
// were dropped. Sessions that expire without a logout are released this way.
func (r *Registry[T]) Sweep(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-idle)
	dropped := 0
	for k, e := range r.items {
		if e.lastUsed.Before(cutoff) {
			delete(r.items, k)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of live controllers
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
