package observable

import "sync"

// Source is a typed multicast channel. Push delivers the event to every
// subscriber registered at the time of the call, in subscription order, and
// returns only after all of them ran. There is no buffering and no replay;
// late subscribers miss earlier events.
type Source[T any] struct {
	mu   sync.Mutex
	subs []*subscriber[T]
}

// NewSource returns an event source with no subscribers.
func NewSource[T any]() *Source[T] {
	return &Source[T]{}
}

// Push dispatches the event synchronously to all current subscribers.
func (s *Source[T]) Push(event T) {
	s.mu.Lock()
	snapshot := make([]*subscriber[T], len(s.subs))
	copy(snapshot, s.subs)
	s.mu.Unlock()

	for _, sub := range snapshot {
		sub.fn(event)
	}
}

// Subscribe registers a handler and returns a function that removes it.
// Removal during delivery takes effect from the next Push on.
func (s *Source[T]) Subscribe(fn Observer[T]) func() {
	s.mu.Lock()
	sub := &subscriber[T]{fn: fn}
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, cur := range s.subs {
			if cur == sub {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				break
			}
		}
	}
}
