// Package events is a small typed pub/sub, where every subscription is an owned
// handle that has to be closed by the subscriber.
package events

import (
	"slices"
	"sync"

	"github.com/samber/lo"
)

type Handler[T any] func(T)

// Bus delivers published values to all the subscribed handlers, synchronously
// and in the subscription order.
type Bus[T any] struct {
	mu       sync.RWMutex
	handlers map[int]Handler[T]
	nextID   int
}

func NewBus[T any]() *Bus[T] {
	return &Bus[T]{handlers: make(map[int]Handler[T])}
}

// Subscribe registers fn until the returned Subscription gets closed.
func (b *Bus[T]) Subscribe(fn Handler[T]) *Subscription {
	b.mu.Lock()
	if b.handlers == nil {
		b.handlers = make(map[int]Handler[T])
	}
	id := b.nextID
	b.nextID++
	b.handlers[id] = fn
	b.mu.Unlock()

	return &Subscription{release: func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}}
}

// Publish calls every handler with v. Handlers may unsubscribe during delivery.
func (b *Bus[T]) Publish(v T) {
	b.mu.RLock()
	ids := lo.Keys(b.handlers)
	b.mu.RUnlock()

	// keep the subscription order
	slices.Sort(ids)

	for _, id := range ids {
		b.mu.RLock()
		h, ok := b.handlers[id]
		b.mu.RUnlock()
		if ok {
			h(v)
		}
	}
}

// Count returns the number of active subscriptions.
func (b *Bus[T]) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}

// Subscription is an owned handle of a single subscription.
type Subscription struct {
	once    sync.Once
	release func()
}

// Close unsubscribes. It's safe to call many times and on nil.
func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.release != nil {
			s.release()
		}
	})
}

// Group closes many subscriptions at once.
type Group []*Subscription

func (g *Group) Add(subs ...*Subscription) {
	*g = append(*g, subs...)
}

func (g *Group) Close() {
	for _, s := range *g {
		s.Close()
	}
	*g = nil
}
