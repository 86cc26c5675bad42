package frameloop

import (
	"math"
	"time"

	"github.com/valerio/go-frameloop/frameloop/timing"
)

// DefaultFramerate is the step rate a new FrameLoop starts with.
const DefaultFramerate = 60

// DisplayRate is the framerate value that steps once per display refresh.
const DisplayRate = 0

// Config holds the settings a FrameLoop can be created with.
type Config struct {
	// Framerate is the number of steps per second. DisplayRate (0) steps
	// on every display refresh instead of on a fixed interval.
	Framerate float64

	// Interpolation requests a RenderInterpolated call on every display
	// refresh between steps. Ignored at DisplayRate.
	Interpolation bool
}

func DefaultConfig() Config {
	return Config{Framerate: DefaultFramerate}
}

// displaySynced reports whether fps selects display-rate stepping. Values
// that are not a usable rate (negative, NaN, infinite) are folded into it.
func displaySynced(fps float64) bool {
	return fps == DisplayRate || !validFramerate(fps)
}

func validFramerate(fps float64) bool {
	return fps >= 0 && !math.IsNaN(fps) && !math.IsInf(fps, 0)
}

// stepTimeFor returns the nominal step interval for fps. Display-rate
// stepping reports the default refresh period, the real one is not queried.
func stepTimeFor(fps float64) time.Duration {
	if displaySynced(fps) {
		return time.Second / timing.DefaultRefreshRate
	}
	return timing.FrameDuration(fps)
}
