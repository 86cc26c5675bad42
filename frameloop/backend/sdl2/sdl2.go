//go:build sdl2

package sdl2

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/valerio/go-frameloop/frameloop/backend"
	"github.com/valerio/go-frameloop/frameloop/input"
	"github.com/valerio/go-frameloop/frameloop/input/action"
	"github.com/valerio/go-frameloop/frameloop/input/event"
	"github.com/valerio/go-frameloop/frameloop/sim"
	"github.com/valerio/go-frameloop/frameloop/timing"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	windowWidth  = 960
	windowHeight = 400
	bodySize     = 8
)

// Backend implements the Backend interface using SDL2 bindings.
// Note: building this requires SDL2 development libraries installed.
// Default builds skip this and use a stub, see build tags (sdl2)
//
// SDL is owned by a presenter goroutine locked to its OS thread. It presents
// the latest frame with vsync and reports every present as a display
// refresh, so the backend doubles as a timing.RefreshSource.
type Backend struct {
	config backend.BackendConfig

	window   *sdl.Window
	renderer *sdl.Renderer
	limiter  timing.Limiter // set when the renderer cannot vsync

	mu       sync.Mutex
	frame    sim.Frame
	hasFrame bool

	refreshes chan time.Time
	stop      chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
}

// New creates a new SDL2 backend
func New() *Backend {
	return &Backend{
		refreshes: make(chan time.Time, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

var (
	_ backend.Backend         = (*Backend)(nil)
	_ backend.RefreshProvider = (*Backend)(nil)
)

// Init opens the window on the presenter goroutine and waits for it to be ready
func (s *Backend) Init(config backend.BackendConfig) error {
	s.config = config

	ready := make(chan error, 1)
	go s.present(ready)

	if err := <-ready; err != nil {
		return err
	}

	slog.Info("SDL2 backend initialized", "vsync", s.limiter == nil)
	return nil
}

// Draw stores the frame for the next present.
func (s *Backend) Draw(frame sim.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frame = frame
	s.hasFrame = true
	return nil
}

// Cleanup stops the presenter and waits for SDL to be released
func (s *Backend) Cleanup() error {
	slog.Info("Cleaning up SDL2 backend")
	s.Stop()
	return nil
}

// RefreshSource returns the backend itself: a refresh per present.
func (s *Backend) RefreshSource() timing.RefreshSource {
	return s
}

func (s *Backend) Refreshes() <-chan time.Time {
	return s.refreshes
}

// Stop halts the presenter. Safe to call more than once.
func (s *Backend) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

func (s *Backend) present(ready chan<- error) {
	defer close(s.done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := s.open(); err != nil {
		ready <- err
		return
	}
	defer s.close()
	ready <- nil

	if s.limiter != nil {
		s.limiter.Reset()
	}

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
			s.handleEvent(e)
		}

		s.render()
		if s.limiter != nil {
			s.limiter.WaitForNextFrame()
		}

		select {
		case s.refreshes <- time.Now():
		default:
			// loop still busy with the previous refresh
		}
	}
}

func (s *Backend) open() error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("failed to initialize SDL2: %v", err)
	}

	window, err := sdl.CreateWindow(
		s.config.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		windowWidth,
		windowHeight,
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.Quit()
		return fmt.Errorf("failed to create window: %v", err)
	}
	s.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("failed to create renderer: %v", err)
	}
	s.renderer = renderer

	info, err := renderer.GetInfo()
	if err != nil || info.Flags&sdl.RENDERER_PRESENTVSYNC == 0 {
		slog.Warn("Renderer has no vsync, pacing presents with a limiter")
		s.limiter = timing.NewAdaptiveLimiter(timing.DefaultRefreshRate)
	}

	return nil
}

func (s *Backend) close() {
	if s.renderer != nil {
		s.renderer.Destroy()
	}
	if s.window != nil {
		s.window.Destroy()
	}
	sdl.Quit()
}

func (s *Backend) render() {
	s.mu.Lock()
	frame, ok := s.frame, s.hasFrame
	s.mu.Unlock()

	s.renderer.SetDrawColor(16, 16, 24, 255)
	s.renderer.Clear()

	if ok && frame.Width > 0 && frame.Height > 0 {
		scaleX := float64(windowWidth-bodySize) / float64(frame.Width)
		scaleY := float64(windowHeight-bodySize) / float64(frame.Height)

		if frame.Interpolated {
			s.renderer.SetDrawColor(96, 200, 255, 255)
		} else {
			s.renderer.SetDrawColor(96, 255, 128, 255)
		}
		for _, p := range frame.Positions {
			s.renderer.FillRect(&sdl.Rect{
				X: int32(p.X * scaleX),
				Y: int32(p.Y * scaleY),
				W: bodySize,
				H: bodySize,
			})
		}
	}

	// blocks until the next vblank when vsync is on
	s.renderer.Present()
}

func (s *Backend) handleEvent(e sdl.Event) {
	switch e := e.(type) {
	case *sdl.QuitEvent:
		s.trigger(action.LoopQuit)

	case *sdl.KeyboardEvent:
		if e.Type != sdl.KEYDOWN || e.Repeat != 0 {
			return
		}
		if act, ok := input.GetDefaultMapping(keyName(e.Keysym.Sym)); ok {
			s.trigger(act)
		}
	}
}

func (s *Backend) trigger(act action.Action) {
	if m := s.config.InputManager; m != nil {
		m.Trigger(act, event.Press)
		return
	}
	if act == action.LoopQuit {
		s.config.Callbacks.Quit()
	}
}

// keyName converts an SDL keycode to the names used by the default key map.
// SDL reports letters upper case ("Q").
func keyName(key sdl.Keycode) string {
	name := sdl.GetKeyName(key)
	if len(name) == 1 {
		return strings.ToLower(name)
	}
	return name
}
