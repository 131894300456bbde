// Package ui owns the single goroutine allowed to mutate the overlay state.
// Producers on other goroutines hand their work over via Do or Call.
package ui

import (
	"context"
	"errors"
	"sync"
)

var ErrStopped = errors.New("ui dispatcher stopped")

// Executor runs fn on the UI goroutine.
type Executor interface {
	Do(fn func())
}

// Inline runs everything on the calling goroutine.
type Inline struct{}

func (Inline) Do(fn func()) { fn() }

// Dispatcher is a single-consumer queue of UI work.
type Dispatcher struct {
	queue    chan func()
	stopped  chan struct{}
	stopOnce sync.Once
}

func NewDispatcher(size int) *Dispatcher {
	if size < 1 {
		size = 1
	}
	return &Dispatcher{
		queue:   make(chan func(), size),
		stopped: make(chan struct{}),
	}
}

// Do enqueues fn. Work posted after the dispatcher stopped is dropped.
func (d *Dispatcher) Do(fn func()) {
	select {
	case <-d.stopped:
	case d.queue <- fn:
	}
}

// Call runs fn on the UI goroutine and waits for it to finish.
func (d *Dispatcher) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		fn()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-d.stopped:
		return ErrStopped
	case d.queue <- wrapped:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-d.stopped:
		// it may have run just before stopping
		select {
		case <-done:
			return nil
		default:
			return ErrStopped
		}
	case <-done:
		return nil
	}
}

// Run drains the queue on the calling goroutine, until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer d.stopOnce.Do(func() { close(d.stopped) })

	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-d.queue:
			fn()
		}
	}
}

// Stopped is closed after Run returns.
func (d *Dispatcher) Stopped() <-chan struct{} {
	return d.stopped
}
