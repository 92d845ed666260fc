package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/g3d"
	"github.com/gogpu/g3d/backend"
	"github.com/gogpu/g3d/backend/budget"
	"github.com/gogpu/g3d/backend/recording"
	"github.com/gogpu/g3d/backend/wgpu"
	"github.com/gogpu/g3d/diagnostics"
	"github.com/gogpu/g3d/internal/config"
	"github.com/gogpu/g3d/internal/scenefile"
	"github.com/gogpu/g3d/scene"
)

type runOptions struct {
	configPath string
	scenePath  string
	backend    string
	frames     int
	fps        int
	producers  int
	logLevel   string
	watch      bool
}

func (o *runOptions) bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.configPath, "config", "c", "g3d.yaml", "configuration file")
	fs.StringVarP(&o.scenePath, "scene", "s", "", "scene file, .lz4 for a compressed one (default: built-in scene)")
	fs.StringVarP(&o.backend, "backend", "b", config.DefaultBackend, "backend name, or auto")
	fs.IntVarP(&o.frames, "frames", "n", config.DefaultFrames, "frames to draw, 0 until interrupted")
	fs.IntVar(&o.fps, "fps", config.DefaultFPS, "frame rate cap, 0 for unlimited")
	fs.IntVarP(&o.producers, "producers", "p", 2, "goroutines submitting scene objects")
	fs.StringVar(&o.logLevel, "log-level", "info", "debug, info, warn or error")
	fs.BoolVarP(&o.watch, "watch", "w", false, "reload the scene file when it changes")
}

// apply overrides cfg with the flags set on the command line.
func (o *runOptions) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("scene") {
		cfg.Scene = o.scenePath
	}
	if fs.Changed("backend") {
		cfg.Backend = o.backend
	}
	if fs.Changed("frames") {
		cfg.Frames = o.frames
	}
	if fs.Changed("fps") {
		cfg.FPS = o.fps
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
}

func newRunCommand() *cobra.Command {
	o := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Render a scene and print handler statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(o.configPath)
			if err != nil {
				return err
			}
			o.apply(cmd.Flags(), cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			if o.producers < 1 {
				return fmt.Errorf("--producers must be at least 1, got %d", o.producers)
			}
			if o.watch && cfg.Scene == "" {
				return errors.New("--watch needs a scene file")
			}
			return run(cmd.Context(), cfg, o, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	o.bind(cmd.Flags())
	return cmd
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level, _ := cfg.LogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func newLogrus(cfg *config.Config, w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	if cfg.Log.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	return l
}

// observers builds the diagnostics sinks named in cfg. stats is nil unless
// the stats sink is enabled.
func observers(cfg *config.Config, logger *slog.Logger, w io.Writer) (obs diagnostics.Observer, stats *diagnostics.Stats) {
	var sinks []diagnostics.Observer
	if cfg.HasSink(config.SinkStats) {
		stats = diagnostics.NewStats()
		sinks = append(sinks, stats)
	}
	if cfg.HasSink(config.SinkSlog) {
		sinks = append(sinks, diagnostics.NewSlog(logger))
	}
	if cfg.HasSink(config.SinkLogrus) {
		sinks = append(sinks, diagnostics.NewLogrus(newLogrus(cfg, w)))
	}
	return diagnostics.Multi(sinks...), stats
}

// registerBackends replaces the factories of the built-in backends with
// ones that account against b and log to logger.
func registerBackends(b *budget.Budget, logger *slog.Logger) {
	gpu := func(open func(...wgpu.Option) (*wgpu.Device, error)) backend.Factory {
		return func() (backend.Device, error) {
			d, err := open(wgpu.WithBudget(b), wgpu.WithLogger(logger))
			if err != nil {
				return nil, err
			}
			return d, nil
		}
	}
	backend.Register(backend.BackendWGPU, gpu(func(opts ...wgpu.Option) (*wgpu.Device, error) {
		return wgpu.Open(gputypes.BackendVulkan, opts...)
	}))
	backend.Register(wgpu.BackendNoop, gpu(wgpu.NewNoop))
	backend.Register(backend.BackendRecording, func() (backend.Device, error) {
		return recording.New(recording.WithBudget(b), recording.WithLogger(logger)), nil
	})
}

// openDevice opens the configured backend with the memory budget applied.
// auto picks the first backend that opens, in registry priority order.
func openDevice(cfg *config.Config, logger *slog.Logger) (backend.Device, error) {
	n, err := cfg.BudgetBytes()
	if err != nil {
		return nil, err
	}
	var b *budget.Budget
	if n > 0 {
		b = budget.New(n)
	}
	registerBackends(b, logger)

	if cfg.Backend != config.DefaultBackend {
		return backend.Get(cfg.Backend)
	}
	d, err := backend.Default()
	if err != nil {
		return nil, err
	}
	logger.Info("g3d: backend selected", "backend", d.Name())
	return d, nil
}

func defaultScene() (*scenefile.Scene, error) {
	doc := &scenefile.File{
		Camera: scenefile.Camera{Eye: []float32{2, 2, 4}},
		Objects: []scenefile.Object{
			{
				Name:     "cube",
				Geometry: scenefile.Geometry{Shape: "cube"},
				Tint:     []float32{0.9, 0.4, 0.2, 1},
			},
			{
				Name:      "floor",
				Geometry:  scenefile.Geometry{Shape: "quad", Size: 4},
				Program:   scenefile.ProgramTextured,
				Texture:   &scenefile.Texture{Color: "#4a7a4a", Size: 8},
				Transform: &scenefile.Transform{Translate: []float32{0, -0.5, 0}, Rotate: &scenefile.Rotation{Axis: []float32{1, 0, 0}, Degrees: -90}},
			},
		},
	}
	return doc.Build(".")
}

func loadScene(cfg *config.Config) (*scenefile.Scene, error) {
	if cfg.Scene == "" {
		return defaultScene()
	}
	return scenefile.Load(cfg.Scene)
}

// handleEntry queues e and the uniforms of its program.
func handleEntry(s *g3d.Session, e scenefile.Entry, vp mgl32.Mat4) error {
	if err := s.Handle(e.Object); err != nil {
		return err
	}
	return s.Submit(func() error {
		progs := s.Handlers().Programs()
		p := e.Object.Program
		return errors.Join(
			progs.SetMat4(p, scene.UniformMVP, vp),
			progs.SetVec4(p, scene.UniformTint, e.Tint),
		)
	})
}

// submitScene hands the scene objects to the session from n producer
// goroutines.
func submitScene(s *g3d.Session, sc *scenefile.Scene, n int) error {
	var g errgroup.Group
	for p := range n {
		g.Go(func() error {
			for i := p; i < len(sc.Entries); i += n {
				if err := handleEntry(s, sc.Entries[i], sc.ViewProjection); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func releaseScene(s *g3d.Session, sc *scenefile.Scene) error {
	for _, obj := range sc.Objects() {
		if err := s.Release(obj); err != nil {
			return err
		}
	}
	return nil
}

// watchScene reloads the scene file on change until ctx is done, swapping
// the objects of the previous scene for the new ones.
func watchScene(ctx context.Context, s *g3d.Session, path string, current *scenefile.Scene, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()
	// Editors often replace the file, so watch its directory.
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("g3d: watch error", "error", err)
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			next, err := scenefile.Load(path)
			if err != nil {
				logger.Warn("g3d: scene reload failed", "path", path, "error", err)
				continue
			}
			if err := releaseScene(s, current); err != nil {
				return err
			}
			if err := submitScene(s, next, 1); err != nil {
				return err
			}
			current = next
			logger.Info("g3d: scene reloaded", "path", path, "objects", len(next.Entries))
		}
	}
}

// produce queues the objects of sc and then, with --watch, reloads the
// scene file on change. The watcher starts after every object of sc is
// queued.
func produce(ctx context.Context, s *g3d.Session, sc *scenefile.Scene, path string, o *runOptions, logger *slog.Logger) error {
	if err := submitScene(s, sc, o.producers); err != nil {
		return err
	}
	if !o.watch {
		return nil
	}
	return watchScene(ctx, s, path, sc, logger)
}

func run(parent context.Context, cfg *config.Config, o *runOptions, stdout, stderr io.Writer) error {
	logger := newLogger(cfg, stderr)
	g3d.SetLogger(logger)
	obs, stats := observers(cfg, logger, stderr)

	sc, err := loadScene(cfg)
	if err != nil {
		return err
	}
	dev, err := openDevice(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.Close(); err != nil {
			logger.Warn("g3d: device close", "error", err)
		}
	}()

	s := g3d.NewSession(dev,
		g3d.WithObserver(obs),
		g3d.WithFramesPerSecond(cfg.FPS),
		g3d.WithFrameLimit(uint64(cfg.Frames)), //nolint:gosec // validated non-negative
	)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return produce(gctx, s, sc, cfg.Scene, o, logger) })

	runErr := s.Run(gctx)
	cancel()
	prodErr := g.Wait()
	closeErr := s.Close()
	if err := errors.Join(runErr, prodErr, closeErr); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "backend %s: %d frames, %d objects\n", dev.Name(), s.Frames(), len(sc.Entries))
	if stats != nil {
		fmt.Fprint(stdout, stats)
	}
	return nil
}
