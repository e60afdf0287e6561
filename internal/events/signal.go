// Package events provides a synchronous, ordered observer list used for
// selection, structural and keyframe notifications. Handlers run on the
// caller's goroutine in subscription order; unsubscribing is deterministic.
package events

// Handler receives one message.
type Handler[T any] func(T)

type subscriber[T any] struct {
	id      uint64
	handler Handler[T]
}

// Signal fans one message out to every subscribed handler.
// The zero value is ready to use. A Signal is not safe for concurrent use.
type Signal[T any] struct {
	nextID uint64
	subs   []subscriber[T]
}

// Subscribe registers h and returns the Subscription that removes it.
func (s *Signal[T]) Subscribe(h Handler[T]) *Subscription {
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber[T]{id: id, handler: h})
	return &Subscription{cancel: func() { s.remove(id) }}
}

// Emit calls every handler with msg. Handlers subscribed or removed during
// emission take effect from the next Emit.
func (s *Signal[T]) Emit(msg T) {
	if len(s.subs) == 0 {
		return
	}
	subs := make([]subscriber[T], len(s.subs))
	copy(subs, s.subs)
	for _, sub := range subs {
		sub.handler(msg)
	}
}

// Len returns the number of live subscriptions.
func (s *Signal[T]) Len() int {
	return len(s.subs)
}

// Clear drops every subscription. Outstanding Subscriptions become no-ops.
func (s *Signal[T]) Clear() {
	s.subs = nil
}

func (s *Signal[T]) remove(id uint64) {
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// Subscription detaches one handler from its Signal.
type Subscription struct {
	cancel func()
}

// Unsubscribe removes the handler. Calling it more than once is a no-op.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
}

// Group collects subscriptions so an owner can release them together.
type Group struct {
	subs []*Subscription
}

// Add records sub in the group and returns it.
func (g *Group) Add(sub *Subscription) *Subscription {
	g.subs = append(g.subs, sub)
	return sub
}

// Len returns the number of subscriptions held.
func (g *Group) Len() int {
	return len(g.subs)
}

// Close unsubscribes everything in the group and empties it.
func (g *Group) Close() {
	for _, sub := range g.subs {
		sub.Unsubscribe()
	}
	g.subs = nil
}
