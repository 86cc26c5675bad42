package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"
	"github.com/valerio/go-frameloop/frameloop"
	"github.com/valerio/go-frameloop/frameloop/backend"
	"github.com/valerio/go-frameloop/frameloop/backend/headless"
	"github.com/valerio/go-frameloop/frameloop/backend/sdl2"
	"github.com/valerio/go-frameloop/frameloop/backend/terminal"
	"github.com/valerio/go-frameloop/frameloop/input"
	"github.com/valerio/go-frameloop/frameloop/sim"
	"github.com/valerio/go-frameloop/frameloop/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "frameloop"
	app.Description = "Drives a bouncing-points machine with a frame loop"
	app.Usage = "frameloop [options]"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.Float64Flag{
			Name:  "fps",
			Usage: "Steps per second, 0 steps once per display refresh",
			Value: frameloop.DefaultFramerate,
		},
		cli.BoolFlag{
			Name:  "interpolation",
			Usage: "Render interpolated frames on display refreshes between steps",
		},
		cli.StringFlag{
			Name:  "backend",
			Usage: "Output backend: headless, terminal or sdl2",
			Value: "terminal",
		},
		cli.StringFlag{
			Name:  "refresh",
			Usage: "Display refresh source: auto, ticker, limiter, adaptive or fallback",
			Value: "auto",
		},
		cli.Float64Flag{
			Name:  "refresh-rate",
			Usage: "Emulated display refresh rate in Hz",
			Value: timing.DefaultRefreshRate,
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of steps to run in headless mode",
		},
		cli.DurationFlag{
			Name:  "duration",
			Usage: "Stop after this long (0 = until interrupted)",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	}
	app.Action = runLoop

	err := app.Run(os.Args)
	if err != nil {
		slog.Error("Error running frame loop", "error", err)
		os.Exit(1)
	}
}

func runLoop(c *cli.Context) error {
	if c.Bool("debug") {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
		slog.SetDefault(slog.New(handler))
	}

	out, err := newBackend(c)
	if err != nil {
		return err
	}

	src, err := newRefreshSource(c.String("refresh"), c.Float64("refresh-rate"), out)
	if err != nil {
		return err
	}

	var opts []timing.Option
	if src != nil {
		opts = append(opts, timing.WithRefreshSource(src))
	}
	host := timing.NewEventLoop(opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if d := c.Duration("duration"); d > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, d)
		defer cancelTimeout()
	}
	ctx, quit := context.WithCancel(ctx)
	defer quit()

	vm := sim.New(sim.DefaultConfig(), out)
	loop, err := frameloop.NewWithConfig(vm, host, frameloop.Config{
		Framerate:     c.Float64("fps"),
		Interpolation: c.Bool("interpolation"),
	})
	if err != nil {
		return err
	}
	vm.Attach(loop)

	manager := input.NewManager()
	input.BindLoop(manager, loop, func() { host.Post(vm.Step) }, quit)

	err = out.Init(backend.BackendConfig{
		Title:        "frameloop",
		Callbacks:    backend.BackendCallbacks{OnQuit: quit},
		InputManager: manager,
		Status:       loop.Snapshot,
	})
	if err != nil {
		if src != nil {
			src.Stop()
		}
		return err
	}

	loop.Start()
	slog.Info("Frame loop started", "fps", loop.Framerate(), "interpolation", loop.Interpolation(), "state", loop.Snapshot().State)

	err = host.Run(ctx)
	loop.Stop()

	if cerr := out.Cleanup(); cerr != nil {
		slog.Warn("Backend cleanup failed", "error", cerr)
	}
	slog.Info("Frame loop stopped", "steps", vm.Steps(), "renders", vm.Renders(), "dropped_fires", host.Dropped())

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func newBackend(c *cli.Context) (backend.Backend, error) {
	switch name := c.String("backend"); name {
	case "headless":
		frames := c.Int("frames")
		if frames <= 0 && c.Duration("duration") <= 0 {
			return nil, errors.New("headless mode requires --frames or --duration with a positive value")
		}
		return headless.New(uint64(max(frames, 0))), nil
	case "terminal":
		return terminal.New(), nil
	case "sdl2":
		return sdl2.New(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}

// newRefreshSource picks what drives display refreshes. A nil source makes
// the event loop fall back to one-shot timers.
func newRefreshSource(kind string, hz float64, out backend.Backend) (timing.RefreshSource, error) {
	switch kind {
	case "auto":
		if p, ok := out.(backend.RefreshProvider); ok {
			return p.RefreshSource(), nil
		}
		return timing.NewTickerRefresh(hz), nil
	case "ticker":
		return timing.NewTickerRefresh(hz), nil
	case "limiter":
		return timing.NewLimiterRefresh(timing.NewTickerLimiter(hz)), nil
	case "adaptive":
		return timing.NewLimiterRefresh(timing.NewAdaptiveLimiter(hz)), nil
	case "fallback":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown refresh source %q", kind)
	}
}
