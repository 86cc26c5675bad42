package terminal

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/valerio/go-frameloop/frameloop"
	"github.com/valerio/go-frameloop/frameloop/backend"
	"github.com/valerio/go-frameloop/frameloop/backend/terminal/render"
	"github.com/valerio/go-frameloop/frameloop/input"
	"github.com/valerio/go-frameloop/frameloop/input/action"
	"github.com/valerio/go-frameloop/frameloop/input/event"
	"github.com/valerio/go-frameloop/frameloop/sim"
)

const (
	minTermWidth  = 40
	minTermHeight = 12

	logCapacity = 100
	bodyRune    = '●'
	ghostRune   = '○'
)

// Backend implements the Backend interface using tcell for terminal rendering
type Backend struct {
	newScreen func() (tcell.Screen, error)
	screen    tcell.Screen
	config    backend.BackendConfig

	logBuffer  *render.LogBuffer
	logLevel   *slog.LevelVar
	prevLogger *slog.Logger

	mu      sync.Mutex
	running bool
	pollers sync.WaitGroup
}

// New creates a new terminal backend on the real terminal
func New() *Backend {
	return &Backend{
		newScreen: tcell.NewScreen,
		logLevel:  new(slog.LevelVar),
	}
}

// NewWithScreen creates a terminal backend drawing on screen, which Init
// initializes. Used with tcell's simulation screen in tests.
func NewWithScreen(screen tcell.Screen) *Backend {
	b := New()
	b.newScreen = func() (tcell.Screen, error) { return screen, nil }
	return b
}

// Init initializes the terminal and starts reading input
func (t *Backend) Init(config backend.BackendConfig) error {
	t.config = config

	screen, err := t.newScreen()
	if err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}

	t.screen = screen
	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	// logs go to a ring buffer shown under the box instead of the terminal
	t.logBuffer = render.NewLogBuffer(logCapacity)
	t.logLevel.Set(slog.LevelInfo)
	t.prevLogger = slog.Default()
	slog.SetDefault(slog.New(render.NewLogBufferHandler(t.logBuffer, t.logLevel)))

	if m := config.InputManager; m != nil {
		m.On(action.DebugLogLevelIncrease, event.Press, func() { t.changeLogLevel(1) })
		m.On(action.DebugLogLevelDecrease, event.Press, func() { t.changeLogLevel(-1) })
	}

	t.mu.Lock()
	t.running = true
	t.mu.Unlock()

	t.pollers.Add(1)
	go t.pollEvents()

	slog.Info("Terminal backend initialized")
	return nil
}

// Draw renders a frame of the machine plus status and logs
func (t *Backend) Draw(frame sim.Frame) error {
	t.mu.Lock()
	running := t.running
	t.mu.Unlock()
	if !running {
		return nil
	}

	t.render(frame)
	t.screen.Show()
	return nil
}

// Cleanup restores the terminal and the previous logger
func (t *Backend) Cleanup() error {
	t.mu.Lock()
	wasRunning := t.running
	t.running = false
	t.mu.Unlock()

	if !wasRunning {
		return nil
	}

	slog.Info("Cleaning up terminal backend")
	t.screen.Fini()
	t.pollers.Wait()

	if t.prevLogger != nil {
		slog.SetDefault(t.prevLogger)
	}
	return nil
}

// Logs exposes the captured log entries.
func (t *Backend) Logs() *render.LogBuffer {
	return t.logBuffer
}

func (t *Backend) pollEvents() {
	defer t.pollers.Done()

	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			// screen finalized
			return
		}

		switch ev := ev.(type) {
		case *tcell.EventKey:
			t.processKeyEvent(ev)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}

// tcellKeyNameMap converts tcell keys to key names used in default mappings
var tcellKeyNameMap = map[tcell.Key]string{
	tcell.KeyUp:     "Up",
	tcell.KeyDown:   "Down",
	tcell.KeyEscape: "Escape",
}

func (t *Backend) processKeyEvent(ev *tcell.EventKey) {
	var name string
	switch {
	case ev.Key() == tcell.KeyCtrlC:
		t.trigger(action.LoopQuit)
		return
	case ev.Key() == tcell.KeyRune:
		name = string(ev.Rune())
		if ev.Rune() == ' ' {
			name = "Space"
		}
	default:
		name = tcellKeyNameMap[ev.Key()]
	}

	if act, ok := input.GetDefaultMapping(name); ok {
		slog.Debug("Key event", "key", name, "action", act)
		t.trigger(act)
	}
}

func (t *Backend) trigger(act action.Action) {
	if m := t.config.InputManager; m != nil {
		m.Trigger(act, event.Press)
		return
	}
	if act == action.LoopQuit {
		t.config.Callbacks.Quit()
	}
}

func (t *Backend) changeLogLevel(direction int) {
	levels := []slog.Level{slog.LevelError, slog.LevelWarn, slog.LevelInfo, slog.LevelDebug}

	old := t.logLevel.Level()
	i := 0
	for j, l := range levels {
		if l == old {
			i = j
		}
	}
	i = max(0, min(len(levels)-1, i+direction))

	if levels[i] != old {
		t.logLevel.Set(levels[i])
		slog.Warn("Log filter changed", "from", old, "to", levels[i])
	}
}

func (t *Backend) render(frame sim.Frame) {
	t.screen.Clear()

	termWidth, termHeight := t.screen.Size()
	if termWidth < minTermWidth || termHeight < minTermHeight {
		style := tcell.StyleDefault.Foreground(tcell.ColorRed)
		t.drawText(0, termHeight/2, termWidth, style,
			fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight))
		return
	}

	boxWidth := min(frame.Width+2, termWidth)
	boxHeight := min(frame.Height+2, termHeight-4)

	t.drawBox(0, 1, boxWidth, boxHeight)
	t.drawText(1, 0, termWidth, tcell.StyleDefault.Foreground(tcell.ColorYellow), " "+t.config.Title+" ")

	bodyStyle := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	r := bodyRune
	if frame.Interpolated {
		bodyStyle = tcell.StyleDefault.Foreground(tcell.ColorAqua)
		r = ghostRune
	}
	for _, p := range frame.Positions {
		x := int(math.Round(p.X)) + 1
		y := int(math.Round(p.Y)) + 2
		if x > 0 && x < boxWidth-1 && y > 1 && y < boxHeight {
			t.screen.SetContent(x, y, r, nil, bodyStyle)
		}
	}

	statusY := boxHeight + 1
	t.drawText(0, statusY, termWidth, tcell.StyleDefault, t.statusLine(frame))
	t.drawText(0, statusY+1, termWidth, tcell.StyleDefault.Foreground(tcell.ColorGray),
		" space=pause o=step [/]=rate 0=display rate i=interpolation +/-=logs q=quit")

	logsY := statusY + 2
	for i, entry := range t.logBuffer.Recent(termHeight - logsY) {
		t.drawText(0, logsY+i, termWidth, logStyle(entry.Level), render.FormatLogEntry(entry))
	}
}

func (t *Backend) statusLine(frame sim.Frame) string {
	line := fmt.Sprintf(" step %d  alpha %.2f", frame.Step, frame.Alpha)
	if t.config.Status == nil {
		return line
	}

	s := t.config.Status()
	rate := fmt.Sprintf("%g fps", s.Framerate)
	if s.State == frameloop.RunningDisplaySynced || s.Framerate == frameloop.DisplayRate {
		rate = "display rate"
	}
	interp := "off"
	if s.Interpolating {
		interp = "on"
	}
	return fmt.Sprintf(" %s  step time %v  interpolation %s  [%s] |%s",
		rate, s.StepTime.Round(10*time.Microsecond), interp, s.State, line)
}

func (t *Backend) drawBox(x0, y0, w, h int) {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	x1, y1 := x0+w-1, y0+h-1

	for x := x0 + 1; x < x1; x++ {
		t.screen.SetContent(x, y0, '─', nil, style)
		t.screen.SetContent(x, y1, '─', nil, style)
	}
	for y := y0 + 1; y < y1; y++ {
		t.screen.SetContent(x0, y, '│', nil, style)
		t.screen.SetContent(x1, y, '│', nil, style)
	}
	t.screen.SetContent(x0, y0, '┌', nil, style)
	t.screen.SetContent(x1, y0, '┐', nil, style)
	t.screen.SetContent(x0, y1, '└', nil, style)
	t.screen.SetContent(x1, y1, '┘', nil, style)
}

func (t *Backend) drawText(x, y, maxWidth int, style tcell.Style, text string) {
	i := 0
	for _, ch := range text {
		if x+i >= maxWidth {
			return
		}
		t.screen.SetContent(x+i, y, ch, nil, style)
		i++
	}
}

func logStyle(level slog.Level) tcell.Style {
	switch {
	case level >= slog.LevelError:
		return tcell.StyleDefault.Foreground(tcell.ColorRed)
	case level >= slog.LevelWarn:
		return tcell.StyleDefault.Foreground(tcell.ColorYellow)
	case level >= slog.LevelInfo:
		return tcell.StyleDefault.Foreground(tcell.ColorWhite)
	default:
		return tcell.StyleDefault.Foreground(tcell.ColorGray)
	}
}
