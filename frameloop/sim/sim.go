// Package sim is a small demo machine for driving with a FrameLoop: points
// bouncing inside a box, rendered either once per step or interpolated
// between steps.
package sim

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// Point is a position in cell units.
type Point struct {
	X, Y float64
}

// Frame is what the machine hands to its renderer.
type Frame struct {
	Width, Height int
	Positions     []Point

	// Step is the number of steps taken so far.
	Step uint64

	// Alpha is the progress from the previous step toward the current one,
	// 1 for frames rendered by Step itself.
	Alpha        float64
	Interpolated bool
}

// Renderer receives frames.
type Renderer interface {
	Draw(frame Frame) error
}

// StepTimer reports how long one step lasts. A FrameLoop satisfies it.
type StepTimer interface {
	StepTime() time.Duration
}

// Config describes the simulated box.
type Config struct {
	Width, Height int
	Bodies        int

	// Speed is the body speed in cells per second.
	Speed float64
	Seed  uint64
	Clock Clock
}

func DefaultConfig() Config {
	return Config{
		Width:  60,
		Height: 20,
		Bodies: 3,
		Speed:  12,
		Seed:   1,
	}
}

type body struct {
	pos, prev, vel Point
}

// VM is the bouncing-points machine. Step and RenderInterpolated are meant
// to be called from a single goroutine (the host's event loop); the
// counters may be read from anywhere.
type VM struct {
	width, height float64
	bodies        []body
	clock         Clock
	out           Renderer

	timerMu sync.Mutex
	timer   StepTimer

	lastStep time.Time

	statsMu sync.Mutex
	steps   uint64
	renders uint64
}

func New(cfg Config, out Renderer) *VM {
	if cfg.Clock == nil {
		cfg.Clock = DefaultClock()
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	v := &VM{
		width:  float64(cfg.Width),
		height: float64(cfg.Height),
		clock:  cfg.Clock,
		out:    out,
	}

	for i := 0; i < cfg.Bodies; i++ {
		angle := rng.Float64() * 2 * math.Pi
		p := Point{X: rng.Float64() * math.Max(v.width-1, 0), Y: rng.Float64() * math.Max(v.height-1, 0)}
		v.bodies = append(v.bodies, body{
			pos:  p,
			prev: p,
			vel:  Point{X: cfg.Speed * math.Cos(angle), Y: cfg.Speed * math.Sin(angle)},
		})
	}

	return v
}

// Attach sets the source of the step duration, normally the FrameLoop
// driving this machine.
func (v *VM) Attach(timer StepTimer) {
	v.timerMu.Lock()
	defer v.timerMu.Unlock()
	v.timer = timer
}

func (v *VM) stepTime() time.Duration {
	v.timerMu.Lock()
	defer v.timerMu.Unlock()

	if v.timer == nil {
		return time.Second / 60
	}
	return v.timer.StepTime()
}

// Step advances every body by one step's worth of time and renders.
func (v *VM) Step() {
	dt := v.stepTime().Seconds()

	for i := range v.bodies {
		b := &v.bodies[i]
		b.prev = b.pos
		b.pos.X, b.vel.X = bounce(b.pos.X+b.vel.X*dt, b.vel.X, v.width)
		b.pos.Y, b.vel.Y = bounce(b.pos.Y+b.vel.Y*dt, b.vel.Y, v.height)
	}
	v.lastStep = v.clock.Now()

	v.statsMu.Lock()
	v.steps++
	step := v.steps
	v.statsMu.Unlock()

	frame := v.frame(step, 1)
	v.draw(frame)
}

// RenderInterpolated renders positions between the previous and the
// current step, by how much of the current step has elapsed.
func (v *VM) RenderInterpolated() {
	v.statsMu.Lock()
	v.renders++
	step := v.steps
	v.statsMu.Unlock()

	alpha := 1.0
	if !v.lastStep.IsZero() {
		alpha = Progress(v.clock.Now().Sub(v.lastStep), v.stepTime())
	}

	frame := v.frame(step, alpha)
	frame.Interpolated = true
	v.draw(frame)
}

func (v *VM) frame(step uint64, alpha float64) Frame {
	positions := make([]Point, len(v.bodies))
	for i, b := range v.bodies {
		positions[i] = lerp(b.prev, b.pos, alpha)
	}

	return Frame{
		Width:     int(v.width),
		Height:    int(v.height),
		Positions: positions,
		Step:      step,
		Alpha:     alpha,
	}
}

func (v *VM) draw(frame Frame) {
	if v.out == nil {
		return
	}
	if err := v.out.Draw(frame); err != nil {
		slog.Warn("Failed to draw frame", "step", frame.Step, "error", err)
	}
}

// Steps returns how many steps have run.
func (v *VM) Steps() uint64 {
	v.statsMu.Lock()
	defer v.statsMu.Unlock()
	return v.steps
}

// Renders returns how many interpolated renders have run.
func (v *VM) Renders() uint64 {
	v.statsMu.Lock()
	defer v.statsMu.Unlock()
	return v.renders
}

// Progress returns elapsed as a fraction of stepTime, clamped to [0, 1].
func Progress(elapsed, stepTime time.Duration) float64 {
	if stepTime <= 0 {
		return 1
	}
	p := float64(elapsed) / float64(stepTime)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}

func lerp(a, b Point, t float64) Point {
	return Point{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
	}
}

// bounce reflects a coordinate that left [0, limit) back inside and flips
// the velocity.
func bounce(pos, vel, limit float64) (float64, float64) {
	hi := limit - 1
	if hi <= 0 {
		return 0, vel
	}
	for pos < 0 || pos > hi {
		if pos < 0 {
			pos = -pos
		} else {
			pos = 2*hi - pos
		}
		vel = -vel
	}
	return pos, vel
}
