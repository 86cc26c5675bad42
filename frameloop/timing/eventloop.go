package timing

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultQueueSize is the number of timer fires an EventLoop buffers
// before interval fires start being dropped.
const DefaultQueueSize = 256

// EventLoop is a Host that runs every callback sequentially on the goroutine
// calling Run. Timers fire on their own goroutines and post into the loop's
// queue; display refreshes come from an optional RefreshSource. Without one,
// RequestFrame degrades to a one-shot timer of FallbackRefreshInterval.
type EventLoop struct {
	queue   chan dispatch
	refresh RefreshSource
	quit    chan struct{}

	mu     sync.Mutex
	frames map[uint64]func()
	nextID uint64

	dropped atomic.Uint64
}

type dispatch struct {
	handle *timerHandle
	fn     func()
}

// Option configures an EventLoop.
type Option func(*EventLoop)

// WithRefreshSource makes RequestFrame callbacks run on the source's refreshes.
// The loop stops the source when Run returns.
func WithRefreshSource(src RefreshSource) Option {
	return func(l *EventLoop) {
		l.refresh = src
	}
}

// WithQueueSize sets the dispatch queue capacity.
func WithQueueSize(n int) Option {
	return func(l *EventLoop) {
		if n > 0 {
			l.queue = make(chan dispatch, n)
		}
	}
}

func NewEventLoop(opts ...Option) *EventLoop {
	l := &EventLoop{
		queue:  make(chan dispatch, DefaultQueueSize),
		quit:   make(chan struct{}),
		frames: make(map[uint64]func()),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var _ Host = (*EventLoop)(nil)

// Run dispatches callbacks until ctx is done. It must be called at most once.
func (l *EventLoop) Run(ctx context.Context) error {
	var refreshes <-chan time.Time
	if l.refresh != nil {
		refreshes = l.refresh.Refreshes()
		defer l.refresh.Stop()
	}
	defer close(l.quit)

	slog.Debug("Event loop started", "display_synced", l.refresh != nil, "queue_size", cap(l.queue))

	for {
		select {
		case <-ctx.Done():
			slog.Debug("Event loop stopped", "dropped_fires", l.dropped.Load())
			return ctx.Err()
		case d := <-l.queue:
			if d.handle == nil || !d.handle.cancelled.Load() {
				d.fn()
			}
		case <-refreshes:
			l.runFrames()
		}
	}
}

// Post queues fn to run on the loop goroutine. It reports false if the loop
// has already exited.
func (l *EventLoop) Post(fn func()) bool {
	select {
	case <-l.quit:
		return false
	default:
	}

	select {
	case l.queue <- dispatch{fn: fn}:
		return true
	case <-l.quit:
		return false
	}
}

// Dropped returns how many interval fires were discarded because the queue was full.
func (l *EventLoop) Dropped() uint64 {
	return l.dropped.Load()
}

func (l *EventLoop) AfterFunc(d time.Duration, fn func()) Handle {
	h := &timerHandle{}
	t := time.AfterFunc(d, func() {
		select {
		case l.queue <- dispatch{handle: h, fn: fn}:
		case <-l.quit:
		}
	})
	h.stop = func() { t.Stop() }
	return h
}

// Every fires fn every d. A fire that finds the queue full is dropped rather
// than delaying the timer. Non-positive intervals are treated as one nanosecond.
func (l *EventLoop) Every(d time.Duration, fn func()) Handle {
	if d <= 0 {
		d = time.Nanosecond
	}

	stop := make(chan struct{})
	h := &timerHandle{stop: func() { close(stop) }}

	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				select {
				case l.queue <- dispatch{handle: h, fn: fn}:
				default:
					l.dropped.Add(1)
				}
			case <-stop:
				return
			case <-l.quit:
				return
			}
		}
	}()

	return h
}

func (l *EventLoop) RequestFrame(fn func()) Handle {
	if l.refresh == nil {
		return l.AfterFunc(FallbackRefreshInterval, fn)
	}

	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.frames[id] = fn
	l.mu.Unlock()

	return HandleFunc(func() {
		l.mu.Lock()
		delete(l.frames, id)
		l.mu.Unlock()
	})
}

// runFrames runs the frame callbacks requested before this refresh, in
// request order. Callbacks requested while they run wait for the next one.
func (l *EventLoop) runFrames() {
	l.mu.Lock()
	ids := make([]uint64, 0, len(l.frames))
	for id := range l.frames {
		ids = append(ids, id)
	}
	l.mu.Unlock()

	slices.Sort(ids)

	for _, id := range ids {
		l.mu.Lock()
		fn, ok := l.frames[id]
		delete(l.frames, id)
		l.mu.Unlock()

		// cancelled by an earlier callback in this batch
		if !ok {
			continue
		}
		fn()
	}
}

type timerHandle struct {
	cancelled atomic.Bool
	once      sync.Once
	stop      func()
}

func (h *timerHandle) Cancel() {
	h.cancelled.Store(true)
	h.once.Do(h.stop)
}
