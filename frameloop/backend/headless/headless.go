package headless

import (
	"log/slog"
	"sync"

	"github.com/valerio/go-frameloop/frameloop/backend"
	"github.com/valerio/go-frameloop/frameloop/sim"
)

// Backend implements the Backend interface for automated runs: it counts
// frames, logs progress and asks to quit after a fixed number of steps.
type Backend struct {
	config   backend.BackendConfig
	maxSteps uint64
	logEvery uint64

	mu           sync.Mutex
	steps        uint64
	interpolated uint64
	quitSent     bool
}

// New creates a headless backend that requests quit once maxSteps stepped
// frames were drawn. maxSteps 0 runs until stopped externally.
func New(maxSteps uint64) *Backend {
	return &Backend{
		maxSteps: maxSteps,
		logEvery: 60,
	}
}

func (h *Backend) Init(config backend.BackendConfig) error {
	h.config = config

	slog.Info("Running headless mode", "steps", h.maxSteps)
	return nil
}

// Draw counts the frame and signals completion when the step budget is spent.
func (h *Backend) Draw(frame sim.Frame) error {
	h.mu.Lock()
	if frame.Interpolated {
		h.interpolated++
		h.mu.Unlock()
		return nil
	}

	h.steps++
	steps := h.steps
	done := h.maxSteps > 0 && steps >= h.maxSteps && !h.quitSent
	if done {
		h.quitSent = true
	}
	h.mu.Unlock()

	if steps%h.logEvery == 0 {
		slog.Info("Step progress", "completed", steps, "total", h.maxSteps, "alpha", frame.Alpha)
	}

	if done {
		slog.Info("Headless execution completed", "steps", steps, "interpolated_frames", h.Interpolated())
		h.config.Callbacks.Quit()
	}
	return nil
}

func (h *Backend) Cleanup() error {
	return nil
}

// Steps returns how many stepped frames were drawn.
func (h *Backend) Steps() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.steps
}

// Interpolated returns how many interpolated frames were drawn.
func (h *Backend) Interpolated() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interpolated
}
