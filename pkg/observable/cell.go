// Package observable provides the lightweight observer primitives the editor
// core is built on: single-value cells, sets of comparable elements and a
// typed multicast event source. Delivery is synchronous and in subscription
// order on the goroutine that performs the mutation; subscribing or
// unsubscribing during delivery only affects subsequent notifications.
package observable

import "sync"

// Observer receives the new value after a cell mutation.
type Observer[T any] func(T)

type subscriber[T any] struct {
	fn Observer[T]
}

// Cell holds a single observable value.
type Cell[T any] struct {
	mu    sync.Mutex
	value T
	subs  []*subscriber[T]
}

// NewCell returns a cell initialised with the given value.
func NewCell[T any](value T) *Cell[T] {
	return &Cell[T]{value: value}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set stores the value and notifies all current observers in subscription
// order before returning.
func (c *Cell[T]) Set(value T) {
	c.mu.Lock()
	c.value = value
	snapshot := make([]*subscriber[T], len(c.subs))
	copy(snapshot, c.subs)
	c.mu.Unlock()

	for _, s := range snapshot {
		s.fn(value)
	}
}

// Subscribe registers an observer and returns a function that removes it.
func (c *Cell[T]) Subscribe(fn Observer[T]) func() {
	c.mu.Lock()
	s := &subscriber[T]{fn: fn}
	c.subs = append(c.subs, s)
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, cur := range c.subs {
			if cur == s {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				break
			}
		}
	}
}
