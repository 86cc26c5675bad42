package timing

import (
	"math"
	"slices"
	"sync"
	"time"
)

// MockHost is a Host running on virtual time, for deterministic tests.
// Timers fire only from Advance, frame callbacks only from Refresh, both on
// the calling goroutine.
type MockHost struct {
	mu      sync.Mutex
	elapsed time.Duration
	nextID  uint64
	timers  map[uint64]*mockTimer
	frames  map[uint64]func()
}

type mockTimer struct {
	due    time.Duration
	period time.Duration
	fn     func()
}

func NewMockHost() *MockHost {
	return &MockHost{
		timers: make(map[uint64]*mockTimer),
		frames: make(map[uint64]func()),
	}
}

var _ Host = (*MockHost)(nil)

func (m *MockHost) AfterFunc(d time.Duration, fn func()) Handle {
	return m.addTimer(d, 0, fn)
}

func (m *MockHost) Every(d time.Duration, fn func()) Handle {
	if d <= 0 {
		d = time.Nanosecond
	}
	return m.addTimer(d, d, fn)
}

func (m *MockHost) addTimer(d, period time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.timers[id] = &mockTimer{due: addSaturating(m.elapsed, d), period: period, fn: fn}

	return HandleFunc(func() {
		m.mu.Lock()
		delete(m.timers, id)
		m.mu.Unlock()
	})
}

func (m *MockHost) RequestFrame(fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.frames[id] = fn

	return HandleFunc(func() {
		m.mu.Lock()
		delete(m.frames, id)
		m.mu.Unlock()
	})
}

// Advance moves virtual time forward by d, firing every timer that comes due
// in time order. Timers scheduled or cancelled by a firing callback are
// honoured within the same call.
func (m *MockHost) Advance(d time.Duration) {
	m.mu.Lock()
	target := addSaturating(m.elapsed, d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		id, t, ok := m.nextDue(target)
		if !ok {
			m.elapsed = target
			m.mu.Unlock()
			return
		}

		m.elapsed = t.due
		if next := addSaturating(t.due, t.period); t.period > 0 && next > t.due {
			t.due = next
		} else {
			// one-shot, or an interval with no representable next fire
			delete(m.timers, id)
		}
		fn := t.fn
		m.mu.Unlock()

		fn()
	}
}

// nextDue returns the earliest timer due at or before target. Ties go to the
// timer scheduled first. m.mu must be held.
func (m *MockHost) nextDue(target time.Duration) (uint64, *mockTimer, bool) {
	var (
		bestID uint64
		best   *mockTimer
	)
	for id, t := range m.timers {
		if t.due > target {
			continue
		}
		if best == nil || t.due < best.due || (t.due == best.due && id < bestID) {
			bestID, best = id, t
		}
	}
	return bestID, best, best != nil
}

// Refresh simulates one display refresh, running the frame callbacks
// requested before it. It returns how many ran.
func (m *MockHost) Refresh() int {
	m.mu.Lock()
	ids := make([]uint64, 0, len(m.frames))
	for id := range m.frames {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	slices.Sort(ids)

	ran := 0
	for _, id := range ids {
		m.mu.Lock()
		fn, ok := m.frames[id]
		delete(m.frames, id)
		m.mu.Unlock()

		if !ok {
			continue
		}
		fn()
		ran++
	}
	return ran
}

// Elapsed returns the virtual time passed so far.
func (m *MockHost) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.elapsed
}

// ActiveIntervals returns the number of armed Every timers.
func (m *MockHost) ActiveIntervals() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, t := range m.timers {
		if t.period > 0 {
			n++
		}
	}
	return n
}

// PendingTimers returns the number of armed timers of any kind.
func (m *MockHost) PendingTimers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// PendingFrames returns the number of callbacks waiting for the next refresh.
func (m *MockHost) PendingFrames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.frames)
}

// addSaturating adds two non-negative durations, stopping at the largest
// representable one.
func addSaturating(a, b time.Duration) time.Duration {
	if b > math.MaxInt64-a {
		return math.MaxInt64
	}
	return a + b
}
