package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/gogpu/g3d"
	"github.com/gogpu/g3d/backend"
	"github.com/gogpu/g3d/backend/recording"
	"github.com/gogpu/g3d/backend/wgpu"
	"github.com/gogpu/g3d/descriptor"
	"github.com/gogpu/g3d/internal/config"
	"github.com/gogpu/g3d/internal/scenefile"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if out != "g3d dev\n" {
		t.Errorf("output = %q", out)
	}
}

func TestBackends(t *testing.T) {
	out, err := execute(t, "backends")
	if err != nil {
		t.Fatalf("backends: %v", err)
	}
	for _, name := range []string{backend.BackendRecording, backend.BackendWGPU} {
		if !strings.Contains(out, name+"\n") {
			t.Errorf("backend %q not listed in %q", name, out)
		}
	}
}

func TestRunBuiltinScene(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "missing.yaml")
	out, err := execute(t, "run", "--config", cfgPath, "--backend", backend.BackendRecording,
		"--frames", "3", "--fps", "0", "--producers", "2", "--log-level", "error")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "backend recording: 3 frames, 2 objects") {
		t.Errorf("summary missing from %q", out)
	}
	// every handled object was released on close
	if !strings.Contains(out, "rendered object") || !strings.Contains(out, "handled=2 released=2 live=0") {
		t.Errorf("stats missing from %q", out)
	}
}

func TestRunSceneFromConfig(t *testing.T) {
	dir := t.TempDir()
	scenePath := filepath.Join(dir, "scene.yaml")
	if err := os.WriteFile(scenePath, []byte("objects: [{name: a, geometry: {shape: cube}}]"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "g3d.yaml")
	cfg := "backend: recording\nframes: 2\nfps: 0\nlog: {level: error}\nbudget: 1MiB\nscene: " + scenePath + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "run", "-c", cfgPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "backend recording: 2 frames, 1 objects") {
		t.Errorf("summary missing from %q", out)
	}
}

func TestRunRejectsBadFlags(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "missing.yaml")
	tests := [][]string{
		{"run", "--config", cfgPath, "--producers", "0"},
		{"run", "--config", cfgPath, "--watch"},
		{"run", "--config", cfgPath, "--fps", "-1"},
		{"run", "--config", cfgPath, "--backend", "nope", "--frames", "1"},
	}
	for _, args := range tests {
		if _, err := execute(t, args...); err == nil {
			t.Errorf("%v succeeded", args)
		}
	}
}

func TestConfigOverrides(t *testing.T) {
	o := &runOptions{}
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	o.bind(fs)
	if err := fs.Parse([]string{"--frames", "7", "--backend", "recording"}); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	o.apply(fs, cfg)
	if cfg.Frames != 7 || cfg.Backend != "recording" || cfg.FPS != config.DefaultFPS {
		t.Errorf("config after overrides = %+v", cfg)
	}
}

func TestProduceWatchReloadsScene(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	writeScene := func(doc string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	writeScene("objects: [{name: a, geometry: {shape: cube}}]")
	sc, err := scenefile.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	s := g3d.NewSession(recording.New())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	o := &runOptions{producers: 2, watch: true}
	go func() { done <- produce(ctx, s, sc, path, o, slog.New(slog.DiscardHandler)) }()

	// the test goroutine renders; Live is read between frames
	live := func() []string {
		s.Frame()
		var names []string
		for _, obj := range s.Handlers().Live() {
			names = append(names, obj.Name)
		}
		slices.Sort(names)
		return names
	}
	deadline := time.Now().Add(5 * time.Second)
	for got := live(); !slices.Equal(got, []string{"a"}); got = live() {
		if time.Now().After(deadline) {
			t.Fatalf("live objects = %v, want [a]", got)
		}
		time.Sleep(10 * time.Millisecond)
	}

	// rewrite until the watcher, which starts after the first submission,
	// picks the change up
	reloaded := "objects: [{name: b, geometry: {shape: quad, size: 1}}, {name: c, geometry: {shape: cube}}]"
	for got := live(); !slices.Equal(got, []string{"b", "c"}); got = live() {
		if time.Now().After(deadline) {
			t.Fatalf("live objects after reload = %v, want [b c]", got)
		}
		writeScene(reloaded)
		time.Sleep(50 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("produce: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if n := s.Handlers().Len(); n != 0 {
		t.Errorf("%d objects live after Close", n)
	}
}

func TestOpenDeviceAppliesBudget(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	tests := []struct {
		backend string
		budget  func(backend.Device) uint64
	}{
		{backend.BackendRecording, func(d backend.Device) uint64 { return d.(*recording.Device).Budget().Stats().TotalBytes }},
		{wgpu.BackendNoop, func(d backend.Device) uint64 { return d.(*wgpu.Device).Budget().Stats().TotalBytes }},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := config.Default()
			cfg.Backend = tt.backend
			cfg.Budget = "64B"
			d, err := openDevice(cfg, logger)
			if err != nil {
				t.Fatalf("openDevice: %v", err)
			}
			t.Cleanup(func() { _ = d.Close() })
			if got := tt.budget(d); got != 64 {
				t.Errorf("budget limit = %d, want 64", got)
			}
			if _, err := d.CreateBuffer(descriptor.Float32, 32, 0); !errors.Is(err, backend.ErrOutOfMemory) {
				t.Errorf("CreateBuffer over budget error = %v, want ErrOutOfMemory", err)
			}
		})
	}

	// registered factories outlive openDevice, so Get opens budgeted devices too
	d, err := backend.Get(backend.BackendRecording)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer func() { _ = d.Close() }()
	if got := d.(*recording.Device).Budget().Stats().TotalBytes; got != 64 {
		t.Errorf("Get budget limit = %d, want 64", got)
	}
}
