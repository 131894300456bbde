package ui

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_RunsOnOneGoroutine(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDispatcher(4)
	go func() { _ = d.Run(ctx) }()

	var active, overlaps int32
	counter := 0
	done := make(chan struct{})

	for i := 0; i < 20; i++ {
		go func() {
			d.Do(func() {
				if atomic.AddInt32(&active, 1) > 1 {
					atomic.AddInt32(&overlaps, 1)
				}
				counter++
				atomic.AddInt32(&active, -1)
				if counter == 20 {
					close(done)
				}
			})
		}()
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout")
	}
	assert.Zero(t, atomic.LoadInt32(&overlaps))
}

func TestDispatcher_Call(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDispatcher(1)
	go func() { _ = d.Run(ctx) }()

	value := 0
	err := d.Call(ctx, func() { value = 42 })
	require.NoError(t, err)
	assert.Equal(t, 42, value)
}

func TestDispatcher_Stopped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := NewDispatcher(1)

	runDone := make(chan struct{})
	go func() {
		_ = d.Run(ctx)
		close(runDone)
	}()
	cancel()
	<-runDone

	// dropped, doesn't block
	d.Do(func() { t.Error("should not run") })
	d.Do(func() { t.Error("should not run") })

	err := d.Call(context.Background(), func() {})
	assert.ErrorIs(t, err, ErrStopped)
}

func TestDispatcher_CallContext(t *testing.T) {
	d := NewDispatcher(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// nobody drains the queue
	err := d.Call(ctx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInline(t *testing.T) {
	ran := false
	Inline{}.Do(func() { ran = true })
	assert.True(t, ran)
}
