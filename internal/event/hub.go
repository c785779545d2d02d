// Package event provides an in-process fan-out hub. Every subscriber gets
// its own unbounded, order-preserving queue, so a slow or detached listener
// never blocks the publisher or other listeners.
package event

import (
	"sync"

	list "github.com/bahlo/generic-list-go"
	"github.com/google/uuid"
)

// Hub broadcasts values of type T to all current subscribers.
type Hub[T any] struct {
	mu     sync.Mutex
	subs   map[string]*subscriber[T]
	closed bool
}

// NewHub creates an empty hub.
func NewHub[T any]() *Hub[T] {
	return &Hub[T]{subs: map[string]*subscriber[T]{}}
}

type subscriber[T any] struct {
	mu     sync.Mutex
	queue  *list.List[T]
	signal chan struct{}
	out    chan T
	done   chan struct{}
	once   sync.Once
}

// Subscribe registers a listener. The returned channel is closed after cancel
// is called or the hub is closed. Values published before Subscribe are not
// replayed.
func (h *Hub[T]) Subscribe() (string, <-chan T, func()) {
	id := uuid.NewString()
	sub := &subscriber[T]{
		queue:  list.New[T](),
		signal: make(chan struct{}, 1),
		out:    make(chan T),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.out)
		return id, sub.out, func() {}
	}
	h.subs[id] = sub
	h.mu.Unlock()

	go sub.pump()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
		sub.stop()
	}
	return id, sub.out, cancel
}

// Publish enqueues v for every current subscriber. It never blocks on
// listeners.
func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for _, sub := range h.subs {
		sub.enqueue(v)
	}
}

// Len returns the number of current subscribers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close detaches all subscribers. Later publishes are dropped.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = map[string]*subscriber[T]{}
	h.closed = true
	h.mu.Unlock()
	for _, sub := range subs {
		sub.stop()
	}
}

func (s *subscriber[T]) enqueue(v T) {
	s.mu.Lock()
	s.queue.PushBack(v)
	s.mu.Unlock()
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *subscriber[T]) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *subscriber[T]) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		front := s.queue.Front()
		if front == nil {
			s.mu.Unlock()
			select {
			case <-s.signal:
				continue
			case <-s.done:
				return
			}
		}
		v := front.Value
		s.queue.Remove(front)
		s.mu.Unlock()

		select {
		case s.out <- v:
		case <-s.done:
			return
		}
	}
}
