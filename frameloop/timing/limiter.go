package timing

import (
	"math"
	"time"
)

// Limiter paces a loop to a target rate.
type Limiter interface {
	// WaitForNextFrame blocks until it's time for the next frame.
	// Returns immediately if timing is behind schedule.
	WaitForNextFrame()

	// Reset resets the timing state, useful after pauses.
	Reset()
}

// DefaultRefreshRate is the display refresh rate assumed when the real one
// is not known.
const DefaultRefreshRate = 60

// FrameDuration returns the duration of one frame at hz frames per second.
// Rates that are not positive and finite yield the default refresh period.
// The result is clamped to [1ns, math.MaxInt64].
func FrameDuration(hz float64) time.Duration {
	if !(hz > 0) || math.IsInf(hz, 1) {
		return time.Second / DefaultRefreshRate
	}
	f := float64(time.Second) / hz
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	d := time.Duration(f)
	if d < 1 {
		return 1
	}
	return d
}
