// Command testbed runs the physics test scenes, headless or in the terminal.
//
//	testbed -scene all -frames 600
//	testbed -scene gyro -term
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/akmonengine/testbed"
	"github.com/akmonengine/testbed/instrument"
	"github.com/akmonengine/testbed/physics"
	"github.com/akmonengine/testbed/scene"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var errUsage = errors.New("usage")

type options struct {
	scenes   []string
	frames   int
	workers  int
	terminal bool
	settings testbed.Settings
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "testbed:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("testbed", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		scenes       = fs.String("scene", "all", "comma separated scenes to run, or all ("+strings.Join(scene.Names(), ", ")+")")
		frames       = fs.Int("frames", 600, "frames to run per scene when headless")
		workers      = fs.Int("workers", 1, "physics worker goroutines per world")
		settingsPath = fs.String("settings", "", "YAML settings file")
		hertz        = fs.Float64("hertz", 0, "frame rate, overrides the settings file")
		terminal     = fs.Bool("term", false, "run one scene interactively in the terminal")
		logLevel     = fs.String("log-level", "info", "debug, info, warn or error")
		logJSON      = fs.Bool("log-json", false, "log JSON instead of console lines")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings := testbed.DefaultSettings()
	if *settingsPath != "" {
		var err error
		if settings, err = testbed.LoadSettingsFile(*settingsPath); err != nil {
			return err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "hertz" {
			settings.Hertz = *hertz
		}
	})
	if err := settings.Validate(); err != nil {
		return err
	}

	names, err := scene.Resolve(strings.Split(*scenes, ",")...)
	if err != nil {
		return err
	}
	opts := options{
		scenes:   names,
		frames:   *frames,
		workers:  *workers,
		terminal: *terminal,
		settings: settings,
	}
	if opts.frames < 0 {
		return fmt.Errorf("%w: -frames %d is negative", errUsage, opts.frames)
	}
	if opts.terminal && len(opts.scenes) != 1 {
		return fmt.Errorf("%w: -term runs a single scene, got %d", errUsage, len(opts.scenes))
	}

	logger, err := newLogger(*logLevel, *logJSON, opts.terminal)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if opts.terminal {
		return interactive(ctx, opts.scenes[0], opts, logger)
	}
	return headless(ctx, opts, logger)
}

// newLogger builds a console logger, or a JSON one. The terminal owns the
// screen, so interactive sessions log nothing.
func newLogger(level string, json, terminal bool) (*zap.Logger, error) {
	if terminal {
		return zap.NewNop(), nil
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: -log-level: %v", errUsage, err)
	}
	cfg := zap.NewDevelopmentConfig()
	if json {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = lvl
	return cfg.Build()
}

// headless runs every scene in its own world, concurrently. The first scene
// to fail cancels the others.
func headless(ctx context.Context, opts options, logger *zap.Logger) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range opts.scenes {
		g.Go(func() error {
			return simulate(ctx, name, opts, logger.Named(name))
		})
	}
	return g.Wait()
}

type session struct {
	world    *physics.World
	counters *instrument.Counters
	profiler *instrument.Profiler
	test     *testbed.Test
	scene    scene.Scene
}

// newSession builds the world and the session of one scene. The world and the
// session share the counters and the profiler, so the overlay shows the world
// phases. The settings are copied, sessions never share them.
func newSession(name string, opts options, logger *zap.Logger, extra ...testbed.Option) (*session, error) {
	factory, err := scene.Lookup(name)
	if err != nil {
		return nil, err
	}

	counters := &instrument.Counters{}
	profiler := instrument.NewProfiler()
	cfg := physics.DefaultConfig()
	cfg.Workers = opts.workers
	cfg.Counters = counters
	cfg.Profiler = profiler
	cfg.Logger = logger
	world := physics.New(cfg)

	settings := opts.settings
	testOpts := append([]testbed.Option{
		testbed.WithSettings(&settings),
		testbed.WithCounters(counters),
		testbed.WithProfiler(profiler),
		testbed.WithLogger(logger),
	}, extra...)
	t := testbed.New(world, testOpts...)

	return &session{
		world:    world,
		counters: counters,
		profiler: profiler,
		test:     t,
		scene:    factory(t),
	}, nil
}

func simulate(ctx context.Context, name string, opts options, logger *zap.Logger) (err error) {
	s, err := newSession(name, opts, logger)
	if err != nil {
		return err
	}
	defer s.scene.Close()

	frame := 0
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scene %s: frame %d: %v", name, frame, r)
		}
	}()

	var simulated float64
	for ; frame < opts.frames; frame++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		simulated += s.scene.Step()
	}

	stats := s.counters.Snapshot()
	logger.Info("scene finished",
		zap.Int("frames", frame),
		zap.Float64("simulated_seconds", simulated),
		zap.Int("bodies", s.world.BodyCount()),
		zap.Int("contacts", s.world.ContactCount()),
		zap.Uint32("max_allocs", stats.MaxAllocCalls))
	return nil
}
