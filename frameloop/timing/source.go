package timing

import (
	"sync"
	"time"
)

// RefreshSource signals display refreshes to an EventLoop.
type RefreshSource interface {
	// Refreshes delivers one value per display refresh. Refreshes the
	// consumer is too busy to take may be dropped.
	Refreshes() <-chan time.Time

	// Stop releases the source. No refreshes are delivered afterwards.
	Stop()
}

// TickerRefresh emulates a display refreshing at a fixed rate with a time.Ticker.
type TickerRefresh struct {
	ticker *time.Ticker
}

func NewTickerRefresh(hz float64) *TickerRefresh {
	return &TickerRefresh{ticker: time.NewTicker(FrameDuration(hz))}
}

func (t *TickerRefresh) Refreshes() <-chan time.Time { return t.ticker.C }
func (t *TickerRefresh) Stop()                       { t.ticker.Stop() }

// LimiterRefresh paces refreshes with a Limiter running on its own goroutine.
// A limiter with a Stop method is stopped along with the source.
type LimiterRefresh struct {
	limiter Limiter
	ch      chan time.Time
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func NewLimiterRefresh(limiter Limiter) *LimiterRefresh {
	l := &LimiterRefresh{
		limiter: limiter,
		ch:      make(chan time.Time, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *LimiterRefresh) run() {
	defer close(l.done)
	if s, ok := l.limiter.(interface{ Stop() }); ok {
		defer s.Stop()
	}

	l.limiter.Reset()
	for {
		select {
		case <-l.stop:
			return
		default:
		}

		l.limiter.WaitForNextFrame()

		select {
		case l.ch <- time.Now():
		case <-l.stop:
			return
		default:
			// consumer still busy with the previous refresh
		}
	}
}

func (l *LimiterRefresh) Refreshes() <-chan time.Time { return l.ch }

// Stop halts the pacing goroutine and waits for it to exit.
func (l *LimiterRefresh) Stop() {
	l.once.Do(func() { close(l.stop) })
	<-l.done
}

// ManualRefresh delivers a refresh each time Refresh is called. Backends that
// present frames themselves (and tests) drive an EventLoop with it.
type ManualRefresh struct {
	ch   chan time.Time
	stop chan struct{}
	once sync.Once
}

func NewManualRefresh() *ManualRefresh {
	return &ManualRefresh{
		ch:   make(chan time.Time),
		stop: make(chan struct{}),
	}
}

// Refresh blocks until the consumer accepts the refresh or the source is stopped.
func (m *ManualRefresh) Refresh() {
	select {
	case m.ch <- time.Now():
	case <-m.stop:
	}
}

func (m *ManualRefresh) Refreshes() <-chan time.Time { return m.ch }

func (m *ManualRefresh) Stop() {
	m.once.Do(func() { close(m.stop) })
}
