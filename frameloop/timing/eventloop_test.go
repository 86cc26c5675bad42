package timing_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-frameloop/frameloop/timing"
)

func runLoop(t *testing.T, loop *timing.EventLoop) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})
}

// settle waits until everything the loop had already accepted has run.
func settle(t *testing.T, loop *timing.EventLoop) {
	t.Helper()

	done := make(chan struct{})
	require.True(t, loop.Post(func() { close(done) }))
	<-done
}

func TestEventLoop_AfterFunc(t *testing.T) {
	loop := timing.NewEventLoop()
	runLoop(t, loop)

	var fired atomic.Int32
	loop.AfterFunc(10*time.Millisecond, func() { fired.Add(1) })
	cancelled := loop.AfterFunc(10*time.Millisecond, func() { fired.Add(100) })
	cancelled.Cancel()

	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestEventLoop_Every(t *testing.T) {
	loop := timing.NewEventLoop()
	runLoop(t, loop)

	var fired atomic.Int32
	h := loop.Every(5*time.Millisecond, func() { fired.Add(1) })

	require.Eventually(t, func() bool { return fired.Load() >= 3 }, time.Second, 5*time.Millisecond)

	h.Cancel()
	h.Cancel()
	time.Sleep(20 * time.Millisecond)
	after := fired.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, fired.Load())
}

func TestEventLoop_CallbacksAreSequential(t *testing.T) {
	loop := timing.NewEventLoop()
	runLoop(t, loop)

	var inside, overlaps, calls atomic.Int32
	body := func() {
		if !inside.CompareAndSwap(0, 1) {
			overlaps.Add(1)
		}
		time.Sleep(time.Millisecond)
		calls.Add(1)
		inside.Store(0)
	}

	a := loop.Every(2*time.Millisecond, body)
	b := loop.Every(3*time.Millisecond, body)
	defer a.Cancel()
	defer b.Cancel()

	require.Eventually(t, func() bool { return calls.Load() >= 20 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(0), overlaps.Load())
}

func TestEventLoop_RequestFrame(t *testing.T) {
	t.Run("manual refresh source", func(t *testing.T) {
		src := timing.NewManualRefresh()
		loop := timing.NewEventLoop(timing.WithRefreshSource(src))
		runLoop(t, loop)

		frames := make(chan int, 10)
		loop.RequestFrame(func() { frames <- 1 })
		cancelled := loop.RequestFrame(func() { frames <- 99 })
		loop.RequestFrame(func() { frames <- 2 })
		cancelled.Cancel()

		src.Refresh()
		assert.Equal(t, 1, <-frames)
		assert.Equal(t, 2, <-frames)

		// the refresh is accepted before the batch runs; a second one
		// round-trips through the loop and proves the first batch is done
		src.Refresh()
		assert.Empty(t, frames)
	})

	t.Run("cancel from an earlier callback in the same refresh", func(t *testing.T) {
		src := timing.NewManualRefresh()
		loop := timing.NewEventLoop(timing.WithRefreshSource(src))
		runLoop(t, loop)

		var second timing.Handle
		var ran atomic.Int32
		loop.RequestFrame(func() {
			ran.Add(1)
			second.Cancel()
		})
		second = loop.RequestFrame(func() { ran.Add(10) })

		src.Refresh()
		src.Refresh()
		assert.Equal(t, int32(1), ran.Load())
	})

	t.Run("every refresh", func(t *testing.T) {
		src := timing.NewManualRefresh()
		loop := timing.NewEventLoop(timing.WithRefreshSource(src))
		runLoop(t, loop)

		var calls atomic.Int32
		h := timing.EveryRefresh(loop, func() { calls.Add(1) })

		for i := 0; i < 5; i++ {
			src.Refresh()
		}
		settle(t, loop)
		h.Cancel()
		src.Refresh()
		src.Refresh()
		settle(t, loop)

		assert.Equal(t, int32(5), calls.Load())
	})

	t.Run("fallback timer without a source", func(t *testing.T) {
		loop := timing.NewEventLoop()
		runLoop(t, loop)

		var calls atomic.Int32
		h := timing.EveryRefresh(loop, func() { calls.Add(1) })
		defer h.Cancel()

		require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	})
}

func TestEventLoop_Post(t *testing.T) {
	loop := timing.NewEventLoop(timing.WithQueueSize(4))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = loop.Run(ctx)
	}()

	ran := make(chan struct{})
	assert.True(t, loop.Post(func() { close(ran) }))
	<-ran

	cancel()
	<-done
	assert.False(t, loop.Post(func() {}))
}

func TestEventLoop_DropsWhenBusy(t *testing.T) {
	loop := timing.NewEventLoop(timing.WithQueueSize(1))
	runLoop(t, loop)

	block := make(chan struct{})
	require.True(t, loop.Post(func() { <-block }))

	h := loop.Every(time.Millisecond, func() {})
	require.Eventually(t, func() bool { return loop.Dropped() > 0 }, time.Second, 5*time.Millisecond)
	h.Cancel()
	close(block)
}
