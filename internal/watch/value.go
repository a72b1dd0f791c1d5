// Package watch provides an observable value: a piece of state that can be
// read at any time and whose changes are pushed to subscribers.
//
// Client state containers (identity, cart, live session) expose their
// snapshots through a Value so presentation code and dependent containers
// react to changes explicitly instead of polling.
package watch

import "sync"

// Value holds a T and notifies subscribers on every change.
//
// Notifications are delivered synchronously, one change at a time, in the
// order the changes were made. A subscriber must not call Set or Update on the
// Value that is notifying it.
type Value[T any] struct {
	notifyMu sync.Mutex

	mu     sync.Mutex
	v      T
	subs   map[uint64]func(T)
	nextID uint64
}

func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{v: initial, subs: make(map[uint64]func(T))}
}

// Get returns the current value.
func (w *Value[T]) Get() T {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.v
}

// Set replaces the value and notifies subscribers.
func (w *Value[T]) Set(v T) {
	w.Update(func(T) T { return v })
}

// Update applies fn to the current value atomically and notifies subscribers
// with the result.
func (w *Value[T]) Update(fn func(T) T) T {
	w.notifyMu.Lock()
	defer w.notifyMu.Unlock()

	w.mu.Lock()
	w.v = fn(w.v)
	v := w.v
	subs := make([]func(T), 0, len(w.subs))
	for _, s := range w.subs {
		subs = append(subs, s)
	}
	w.mu.Unlock()

	for _, s := range subs {
		s(v)
	}
	return v
}

// Subscribe registers fn for future changes. The returned func removes the
// subscription and is safe to call more than once.
func (w *Value[T]) Subscribe(fn func(T)) (cancel func()) {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.subs[id] = fn
	w.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			delete(w.subs, id)
			w.mu.Unlock()
		})
	}
}
