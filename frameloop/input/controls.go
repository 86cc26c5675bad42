package input

import (
	"log/slog"

	"github.com/valerio/go-frameloop/frameloop/input/action"
	"github.com/valerio/go-frameloop/frameloop/input/event"
)

// FrameratePresets are the rates LoopFramerateUp and LoopFramerateDown move between.
var FrameratePresets = []float64{5, 10, 15, 20, 30, 60, 120, 240}

// LoopControl is the part of a frame loop the controls drive.
type LoopControl interface {
	Running() bool
	Toggle() bool
	Framerate() float64
	SetFramerate(fps float64)
	Interpolation() bool
	SetInterpolation(enabled bool)
}

// BindLoop registers press handlers that drive loop. step runs a single
// step while the loop is paused; onQuit runs on LoopQuit. Either may be nil.
func BindLoop(m *Manager, loop LoopControl, step func(), onQuit func()) {
	m.On(action.LoopPauseToggle, event.Press, func() {
		if loop.Toggle() {
			slog.Info("Resumed")
		} else {
			slog.Info("Paused")
		}
	})

	m.On(action.LoopStepOnce, event.Press, func() {
		if loop.Running() || step == nil {
			return
		}
		step()
	})

	m.On(action.LoopFramerateUp, event.Press, func() {
		setFramerate(loop, NextFramerate(loop.Framerate()))
	})
	m.On(action.LoopFramerateDown, event.Press, func() {
		setFramerate(loop, PrevFramerate(loop.Framerate()))
	})
	m.On(action.LoopDisplayRate, event.Press, func() {
		setFramerate(loop, 0)
	})

	m.On(action.LoopInterpolationToggle, event.Press, func() {
		enabled := !loop.Interpolation()
		loop.SetInterpolation(enabled)
		slog.Info("Interpolation changed", "enabled", enabled)
	})

	if onQuit != nil {
		m.On(action.LoopQuit, event.Press, onQuit)
	}
}

func setFramerate(loop LoopControl, fps float64) {
	if fps == loop.Framerate() {
		return
	}
	loop.SetFramerate(fps)
	slog.Info("Framerate changed", "fps", fps)
}

// NextFramerate returns the smallest preset above fps, or fps itself when
// there is none.
func NextFramerate(fps float64) float64 {
	for _, p := range FrameratePresets {
		if p > fps {
			return p
		}
	}
	return fps
}

// PrevFramerate returns the largest preset below fps, or fps itself when
// there is none. Display rate (0) has no preset below it.
func PrevFramerate(fps float64) float64 {
	for i := len(FrameratePresets) - 1; i >= 0; i-- {
		if p := FrameratePresets[i]; p < fps {
			return p
		}
	}
	return fps
}
