package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "g3d.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.yaml")} {
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%q): %v", path, err)
		}
		if diff := cmp.Diff(Default(), cfg); diff != "" {
			t.Errorf("Load(%q) mismatch (-want +got):\n%s", path, diff)
		}
	}
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
backend: recording
fps: 0
frames: 3
log:
  level: debug
  format: json
diagnostics: [slog, stats]
budget: 64MiB
scene: scenes/demo.yaml
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := &Config{
		Backend:     "recording",
		FPS:         0,
		Frames:      3,
		Log:         LogConfig{Level: "debug", Format: "json"},
		Diagnostics: []string{SinkSlog, SinkStats},
		Budget:      "64MiB",
		Scene:       "scenes/demo.yaml",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if l, _ := cfg.LogLevel(); l != slog.LevelDebug {
		t.Errorf("LogLevel() = %v, want debug", l)
	}
	if n, _ := cfg.BudgetBytes(); n != 64<<20 {
		t.Errorf("BudgetBytes() = %d, want %d", n, 64<<20)
	}
	if !cfg.HasSink(SinkStats) || cfg.HasSink(SinkLogrus) {
		t.Errorf("HasSink mismatch for %v", cfg.Diagnostics)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative fps", "fps: -1"},
		{"negative frames", "frames: -5"},
		{"log level", "log: {level: loud}"},
		{"log format", "log: {format: xml}"},
		{"sink", "diagnostics: [prometheus]"},
		{"budget", "budget: lots"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeFile(t, tt.content)); !errors.Is(err, ErrInvalid) {
				t.Errorf("Load error = %v, want ErrInvalid", err)
			}
		})
	}

	if _, err := Load(writeFile(t, "fps: [")); err == nil || errors.Is(err, ErrInvalid) {
		t.Errorf("malformed YAML error = %v, want a parse error", err)
	}
}

func TestBudgetBytes(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{"", 0},
		{"1024", 1024},
		{"512B", 512},
		{"4KiB", 4 << 10},
		{"2 GiB", 2 << 30},
		{"3MB", 3e6},
	}
	for _, tt := range tests {
		c := &Config{Budget: tt.in}
		got, err := c.BudgetBytes()
		if err != nil {
			t.Errorf("BudgetBytes(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("BudgetBytes(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
