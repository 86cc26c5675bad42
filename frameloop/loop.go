package frameloop

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/valerio/go-frameloop/frameloop/timing"
)

var (
	// ErrNilVM is returned when a FrameLoop is created without a VM.
	ErrNilVM = errors.New("frameloop: nil VM")
	// ErrNilHost is returned when a FrameLoop is created without a timer host.
	ErrNilHost = errors.New("frameloop: nil timer host")
)

// State is the scheduling mode of a FrameLoop.
type State int

const (
	Stopped State = iota
	RunningFixed
	RunningDisplaySynced
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case RunningFixed:
		return "running-fixed"
	case RunningDisplaySynced:
		return "running-display-synced"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent view of a FrameLoop's state.
type Snapshot struct {
	State         State
	Framerate     float64
	Interpolation bool
	StepTime      time.Duration

	// Interpolating reports whether the interpolation driver is armed.
	Interpolating bool
}

// FrameLoop calls a VM's Step at a configured rate and, when interpolation
// is enabled, its RenderInterpolated on every display refresh in between.
//
// Step runs on a fixed-interval timer, or on every display refresh when the
// framerate is DisplayRate. Changing the framerate or interpolation while
// running replaces the timers in one critical section.
//
// All methods are safe for concurrent use, including from inside the VM
// callbacks: no lock is held while a callback runs.
type FrameLoop struct {
	host        timing.Host
	step        func()
	interpolate func()

	mu            sync.Mutex
	running       bool
	framerate     float64
	interpolation bool
	stepTime      time.Duration

	stepDriver   driver
	interpDriver driver
}

// New creates a stopped FrameLoop with DefaultConfig.
func New(vm VM, host timing.Host) (*FrameLoop, error) {
	return NewWithConfig(vm, host, DefaultConfig())
}

// NewWithConfig creates a stopped FrameLoop with the given configuration.
func NewWithConfig(vm VM, host timing.Host, cfg Config) (*FrameLoop, error) {
	if vm == nil {
		return nil, ErrNilVM
	}
	if host == nil {
		return nil, ErrNilHost
	}

	warnInvalidFramerate(cfg.Framerate)

	return &FrameLoop{
		host:          host,
		step:          vm.Step,
		interpolate:   vm.RenderInterpolated,
		framerate:     cfg.Framerate,
		interpolation: cfg.Interpolation,
		stepTime:      stepTimeFor(cfg.Framerate),
	}, nil
}

// SetFramerate sets the step rate in steps per second. DisplayRate steps on
// every display refresh. A running loop restarts with the new rate.
func (l *FrameLoop) SetFramerate(fps float64) {
	warnInvalidFramerate(fps)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.framerate = fps
	l.stepTime = stepTimeFor(fps)
	l.restartLocked()
}

// SetInterpolation enables or disables interpolated rendering. A running
// loop restarts with the new setting.
func (l *FrameLoop) SetInterpolation(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.interpolation = enabled
	l.restartLocked()
}

// Start arms the timers for the current configuration. Starting a running
// loop does nothing.
func (l *FrameLoop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		slog.Debug("Frame loop already running")
		return
	}
	l.startLocked()
}

// Stop cancels all timers. No callback is started after Stop returns, but
// one already running completes. Stopping a stopped loop does nothing.
func (l *FrameLoop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stopLocked()
}

// Toggle stops a running loop or starts a stopped one, and reports whether
// the loop is running afterwards.
func (l *FrameLoop) Toggle() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		l.stopLocked()
	} else {
		l.startLocked()
	}
	return l.running
}

func (l *FrameLoop) restartLocked() {
	if !l.running {
		return
	}
	l.stopLocked()
	l.startLocked()
}

func (l *FrameLoop) startLocked() {
	l.running = true
	l.stepTime = stepTimeFor(l.framerate)

	if displaySynced(l.framerate) {
		// a separate interpolation pass would run on the same refreshes as the step
		l.stepDriver = displayDriver(timing.EveryRefresh(l.host, l.step))
	} else {
		l.stepDriver = fixedDriver(l.host.Every(l.stepTime, l.step))
		if l.interpolation {
			l.interpDriver = displayDriver(timing.EveryRefresh(l.host, l.interpolate))
		}
	}

	slog.Debug("Frame loop started",
		"framerate", l.framerate,
		"step_time", l.stepTime,
		"step_driver", l.stepDriver.kind,
		"interpolation_driver", l.interpDriver.kind)
}

func (l *FrameLoop) stopLocked() {
	wasRunning := l.running
	l.running = false

	l.stepDriver.cancel()
	l.interpDriver.cancel()

	if wasRunning {
		slog.Debug("Frame loop stopped")
	}
}

// Running reports whether the loop's timers are armed.
func (l *FrameLoop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Framerate returns the configured steps per second, DisplayRate included.
func (l *FrameLoop) Framerate() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.framerate
}

// Interpolation reports whether interpolated rendering is requested.
func (l *FrameLoop) Interpolation() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.interpolation
}

// StepTime returns the nominal duration of one step at the configured rate.
// At DisplayRate it is the default refresh period.
func (l *FrameLoop) StepTime() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stepTime
}

// Snapshot returns the loop state read under a single lock.
func (l *FrameLoop) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	state := Stopped
	if l.running {
		switch l.stepDriver.kind {
		case driverFixed:
			state = RunningFixed
		case driverDisplay:
			state = RunningDisplaySynced
		}
	}

	return Snapshot{
		State:         state,
		Framerate:     l.framerate,
		Interpolation: l.interpolation,
		StepTime:      l.stepTime,
		Interpolating: l.interpDriver.active(),
	}
}

func warnInvalidFramerate(fps float64) {
	if !validFramerate(fps) {
		slog.Warn("Unusable framerate, stepping at display rate", "framerate", fps)
	}
}
