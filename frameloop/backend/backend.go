package backend

import (
	"github.com/valerio/go-frameloop/frameloop"
	"github.com/valerio/go-frameloop/frameloop/input"
	"github.com/valerio/go-frameloop/frameloop/sim"
	"github.com/valerio/go-frameloop/frameloop/timing"
)

// Backend is an output for the demo machine (rendering + input).
// Backends are responsible for:
// - Drawing the frames the machine produces
// - Translating platform-specific input events to Actions via InputManager
// - Reporting when the user asks to quit
type Backend interface {
	// Init configures the backend with the provided configuration.
	// This is a required step before calling Draw.
	Init(config BackendConfig) error

	// Draw renders one frame. It is called from the host's event loop,
	// once per step and once per interpolated render.
	Draw(frame sim.Frame) error

	// Cleanup resources when shutting down
	Cleanup() error
}

// RefreshProvider is implemented by backends that know when the display
// refreshes, so the host can synchronize to it.
type RefreshProvider interface {
	RefreshSource() timing.RefreshSource
}

// BackendConfig holds configuration for backends
type BackendConfig struct {
	Title        string
	Callbacks    BackendCallbacks // Callbacks for backend communication
	InputManager *input.Manager   // Shared input manager for unified input handling

	// Status reports the loop state shown by interactive backends. May be nil.
	Status func() frameloop.Snapshot
}

// BackendCallbacks allows backends to communicate with the application
type BackendCallbacks struct {
	// OnQuit is called when the backend requests shutdown (e.g., window close)
	OnQuit func()
}

// Quit calls OnQuit if set.
func (c BackendCallbacks) Quit() {
	if c.OnQuit != nil {
		c.OnQuit()
	}
}
