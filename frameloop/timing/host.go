package timing

import "time"

// FallbackRefreshInterval is the period used in place of a display refresh
// when the host has no refresh source.
const FallbackRefreshInterval = time.Second / DefaultRefreshRate

// Handle is a cancellable reference to a scheduled callback.
// Cancel is idempotent.
type Handle interface {
	Cancel()
}

// Host provides the timer primitives a frame loop is driven by.
type Host interface {
	// AfterFunc runs fn once after d.
	AfterFunc(d time.Duration, fn func()) Handle

	// Every runs fn repeatedly, every d.
	Every(d time.Duration, fn func()) Handle

	// RequestFrame runs fn once, on the next display refresh.
	RequestFrame(fn func()) Handle
}

// HandleFunc adapts a plain function to the Handle interface.
type HandleFunc func()

func (f HandleFunc) Cancel() { f() }
