package sim

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-frameloop/frameloop"
	"github.com/valerio/go-frameloop/frameloop/timing"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recorder struct {
	frames []Frame
	err    error
}

func (r *recorder) Draw(frame Frame) error {
	r.frames = append(r.frames, frame)
	return r.err
}

func (r *recorder) last() Frame {
	return r.frames[len(r.frames)-1]
}

type fixedStep time.Duration

func (f fixedStep) StepTime() time.Duration { return time.Duration(f) }

func newTestVM(out Renderer) (*VM, *fakeClock) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	v := New(Config{Width: 100, Height: 100, Clock: clock}, out)
	v.bodies = []body{{pos: Point{10, 10}, prev: Point{10, 10}, vel: Point{X: 10, Y: -5}}}
	return v, clock
}

func TestStep(t *testing.T) {
	rec := &recorder{}
	v, _ := newTestVM(rec)
	v.Attach(fixedStep(100 * time.Millisecond))

	v.Step()

	require.Len(t, rec.frames, 1)
	frame := rec.last()
	assert.Equal(t, uint64(1), frame.Step)
	assert.Equal(t, 1.0, frame.Alpha)
	assert.False(t, frame.Interpolated)
	assert.InDelta(t, 11, frame.Positions[0].X, 1e-9)
	assert.InDelta(t, 9.5, frame.Positions[0].Y, 1e-9)
	assert.Equal(t, uint64(1), v.Steps())
}

func TestStepUsesStepTime(t *testing.T) {
	slow, _ := newTestVM(nil)
	slow.Attach(fixedStep(time.Second))
	fast, _ := newTestVM(nil)
	fast.Attach(fixedStep(100 * time.Millisecond))

	slow.Step()
	for i := 0; i < 10; i++ {
		fast.Step()
	}

	// same wall-clock time covered, same distance travelled
	assert.InDelta(t, slow.bodies[0].pos.X, fast.bodies[0].pos.X, 1e-9)
	assert.InDelta(t, slow.bodies[0].pos.Y, fast.bodies[0].pos.Y, 1e-9)
}

func TestRenderInterpolated(t *testing.T) {
	rec := &recorder{}
	v, clock := newTestVM(rec)
	v.Attach(fixedStep(100 * time.Millisecond))

	v.Step()
	clock.Advance(25 * time.Millisecond)
	v.RenderInterpolated()

	frame := rec.last()
	assert.True(t, frame.Interpolated)
	assert.InDelta(t, 0.25, frame.Alpha, 1e-9)
	assert.InDelta(t, 10.25, frame.Positions[0].X, 1e-9)
	assert.InDelta(t, 9.875, frame.Positions[0].Y, 1e-9)

	clock.Advance(time.Second)
	v.RenderInterpolated()
	assert.Equal(t, 1.0, rec.last().Alpha)
	assert.Equal(t, uint64(2), v.Renders())
}

func TestRenderBeforeFirstStep(t *testing.T) {
	rec := &recorder{}
	v, _ := newTestVM(rec)

	v.RenderInterpolated()

	assert.Equal(t, 1.0, rec.last().Alpha)
	assert.Equal(t, Point{10, 10}, rec.last().Positions[0])
}

func TestDrawErrorsAreNotFatal(t *testing.T) {
	rec := &recorder{err: errors.New("screen gone")}
	v, _ := newTestVM(rec)

	v.Step()
	v.Step()
	assert.Len(t, rec.frames, 2)
}

func TestBounce(t *testing.T) {
	tests := []struct {
		name         string
		pos, vel     float64
		wantPos      float64
		wantVelFlips bool
	}{
		{"inside", 5, 1, 5, false},
		{"below zero", -2, -1, 2, true},
		{"past the edge", 12, 1, 6, true},
		{"far out", 35, 1, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, vel := bounce(tt.pos, tt.vel, 10)
			assert.InDelta(t, tt.wantPos, pos, 1e-9)
			if tt.wantVelFlips {
				assert.Equal(t, -tt.vel, vel)
			} else {
				assert.Equal(t, tt.vel, vel)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 0.5, Progress(50*time.Millisecond, 100*time.Millisecond))
	assert.Equal(t, 0.0, Progress(-time.Millisecond, 100*time.Millisecond))
	assert.Equal(t, 1.0, Progress(time.Second, 100*time.Millisecond))
	assert.Equal(t, 1.0, Progress(time.Second, 0))
}

func TestDrivenByFrameLoop(t *testing.T) {
	rec := &recorder{}
	v, _ := newTestVM(rec)
	host := timing.NewMockHost()

	loop, err := frameloop.NewWithConfig(v, host, frameloop.Config{Framerate: 10, Interpolation: true})
	require.NoError(t, err)
	v.Attach(loop)

	loop.Start()
	host.Advance(time.Second)
	host.Refresh()
	host.Refresh()
	loop.Stop()

	assert.Equal(t, uint64(10), v.Steps())
	assert.Equal(t, uint64(2), v.Renders())
	assert.Len(t, rec.frames, 12)
	assert.True(t, rec.last().Interpolated)
}
