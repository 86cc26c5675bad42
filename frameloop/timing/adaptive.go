package timing

import (
	"log/slog"
	"time"
)

// AdaptiveLimiter uses precise timing with drift compensation.
// Combines sleep for efficiency with busy-waiting for accuracy.
type AdaptiveLimiter struct {
	targetFrameTime time.Duration
	nextFrameTime   time.Time
	frameCounter    int64
}

// NewAdaptiveLimiter creates a limiter pacing to hz frames per second.
func NewAdaptiveLimiter(hz float64) *AdaptiveLimiter {
	return &AdaptiveLimiter{
		targetFrameTime: FrameDuration(hz),
		nextFrameTime:   time.Now(),
	}
}

func (a *AdaptiveLimiter) WaitForNextFrame() {
	now := time.Now()
	sleepTime := a.nextFrameTime.Sub(now)

	if sleepTime > 0 {
		if sleepTime < 2*time.Millisecond {
			for time.Now().Before(a.nextFrameTime) {
				// busy-wait for times under 2ms, higher accuracy.
			}
		} else {
			time.Sleep(sleepTime - time.Millisecond)
			for time.Now().Before(a.nextFrameTime) {
			}
		}
	} else if sleepTime < -5*time.Millisecond {
		// too far behind, drop the backlog instead of bursting
		a.nextFrameTime = now
	}

	a.nextFrameTime = a.nextFrameTime.Add(a.targetFrameTime)
	a.frameCounter++

	// correct a fraction of the accumulated drift roughly once a second
	checkEvery := int64(time.Second / a.targetFrameTime)
	if checkEvery < 1 {
		checkEvery = 1
	}
	if a.frameCounter%checkEvery == 0 {
		drift := time.Now().Sub(a.nextFrameTime)

		if drift.Abs() > 10*time.Millisecond {
			a.nextFrameTime = a.nextFrameTime.Add(drift / 10)
			slog.Debug("Refresh timing drift correction",
				"drift_ms", drift.Milliseconds(),
				"frames", a.frameCounter,
				"target", a.targetFrameTime)
		}
	}
}

func (a *AdaptiveLimiter) Reset() {
	a.nextFrameTime = time.Now()
	a.frameCounter = 0
}

// FrameTime returns the target duration of one frame.
func (a *AdaptiveLimiter) FrameTime() time.Duration {
	return a.targetFrameTime
}
