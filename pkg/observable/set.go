package observable

import "sync"

// SetOp describes the kind of mutation a set observer is notified about.
type SetOp int

const (
	SetAdd SetOp = iota
	SetRemove
	SetClear
)

// SetChange carries one set mutation. Elem is the zero value for SetClear.
type SetChange[T comparable] struct {
	Op   SetOp
	Elem T
}

// Set is an observable set of comparable elements. Peer-wrapper relation
// sets use pointer element types, so identity is pointer identity.
type Set[T comparable] struct {
	mu    sync.Mutex
	elems map[T]struct{}
	subs  []*subscriber[SetChange[T]]
}

// NewSet returns an empty observable set.
func NewSet[T comparable]() *Set[T] {
	return &Set[T]{elems: make(map[T]struct{})}
}

// Add inserts the element and notifies observers. Adding an element that is
// already present is a no-op and fires nothing.
func (s *Set[T]) Add(elem T) bool {
	s.mu.Lock()
	if _, ok := s.elems[elem]; ok {
		s.mu.Unlock()
		return false
	}
	s.elems[elem] = struct{}{}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot, SetChange[T]{Op: SetAdd, Elem: elem})
	return true
}

// Remove deletes the element and notifies observers if it was present.
func (s *Set[T]) Remove(elem T) bool {
	s.mu.Lock()
	if _, ok := s.elems[elem]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.elems, elem)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot, SetChange[T]{Op: SetRemove, Elem: elem})
	return true
}

// Clear removes every element. Observers see a single SetClear change.
func (s *Set[T]) Clear() {
	s.mu.Lock()
	if len(s.elems) == 0 {
		s.mu.Unlock()
		return
	}
	s.elems = make(map[T]struct{})
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot, SetChange[T]{Op: SetClear})
}

// Contains reports membership.
func (s *Set[T]) Contains(elem T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.elems[elem]
	return ok
}

// Len returns the number of elements.
func (s *Set[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.elems)
}

// Values returns the elements in unspecified order.
func (s *Set[T]) Values() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, 0, len(s.elems))
	for e := range s.elems {
		out = append(out, e)
	}
	return out
}

// Subscribe registers a change observer and returns its unsubscribe function.
func (s *Set[T]) Subscribe(fn Observer[SetChange[T]]) func() {
	s.mu.Lock()
	sub := &subscriber[SetChange[T]]{fn: fn}
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

func (s *Set[T]) snapshotLocked() []*subscriber[SetChange[T]] {
	snapshot := make([]*subscriber[SetChange[T]], len(s.subs))
	copy(snapshot, s.subs)
	return snapshot
}

func (s *Set[T]) notify(snapshot []*subscriber[SetChange[T]], change SetChange[T]) {
	for _, sub := range snapshot {
		sub.fn(change)
	}
}
