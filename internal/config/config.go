// Package config loads the g3d command configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Diagnostics sinks.
const (
	SinkNone   = "none"
	SinkSlog   = "slog"
	SinkLogrus = "logrus"
	SinkStats  = "stats"
)

// Defaults applied by Load and Default.
const (
	DefaultBackend = "auto"
	DefaultFrames  = 60
	DefaultFPS     = 60
)

// ErrInvalid is returned for a configuration that parses but cannot be
// used.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the g3d.yaml file.
type Config struct {
	// Backend names a registered backend, or "auto" for the best available.
	Backend string `yaml:"backend,omitempty"`

	// FPS caps the frame rate. Zero renders as fast as possible.
	FPS int `yaml:"fps"`

	// Frames is the number of frames run draws before exiting. Zero runs
	// until interrupted.
	Frames int `yaml:"frames"`

	// Log configures the slog output of the command.
	Log LogConfig `yaml:"log,omitempty"`

	// Diagnostics lists the observers attached to the handler tree.
	Diagnostics []string `yaml:"diagnostics,omitempty"`

	// Budget limits device memory, e.g. "256MiB". Empty means unlimited.
	Budget string `yaml:"budget,omitempty"`

	// Scene is the path of the scene file, relative to the working
	// directory.
	Scene string `yaml:"scene,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"` // text or json
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Backend:     DefaultBackend,
		FPS:         DefaultFPS,
		Frames:      DefaultFrames,
		Log:         LogConfig{Level: "info", Format: "text"},
		Diagnostics: []string{SinkStats},
	}
}

// Load reads the file at path over the defaults. An empty path or a missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Backend) == "" {
		c.Backend = DefaultBackend
	}
	if c.FPS < 0 {
		return fmt.Errorf("%w: fps %d is negative", ErrInvalid, c.FPS)
	}
	if c.Frames < 0 {
		return fmt.Errorf("%w: frames %d is negative", ErrInvalid, c.Frames)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalid, c.Log.Format)
	}
	for _, s := range c.Diagnostics {
		switch s {
		case SinkNone, SinkSlog, SinkLogrus, SinkStats:
		default:
			return fmt.Errorf("%w: diagnostics sink %q", ErrInvalid, s)
		}
	}
	if _, err := c.BudgetBytes(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses Log.Level. Empty means info.
func (c *Config) LogLevel() (slog.Level, error) {
	var l slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalid, c.Log.Level)
	}
	return l, nil
}

// HasSink reports whether the named diagnostics sink is enabled.
func (c *Config) HasSink(name string) bool {
	for _, s := range c.Diagnostics {
		if s == name {
			return true
		}
	}
	return false
}

var units = []struct {
	suffix string
	mult   uint64
}{
	{"GiB", 1 << 30},
	{"MiB", 1 << 20},
	{"KiB", 1 << 10},
	{"GB", 1e9},
	{"MB", 1e6},
	{"KB", 1e3},
	{"B", 1},
}

// BudgetBytes parses Budget. Zero means unlimited.
func (c *Config) BudgetBytes() (uint64, error) {
	s := strings.TrimSpace(c.Budget)
	if s == "" {
		return 0, nil
	}
	mult := uint64(1)
	for _, u := range units {
		if strings.HasSuffix(s, u.suffix) {
			s, mult = strings.TrimSpace(strings.TrimSuffix(s, u.suffix)), u.mult
			break
		}
	}
	var n uint64
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil || fmt.Sprint(n) != s {
		return 0, fmt.Errorf("%w: budget %q", ErrInvalid, c.Budget)
	}
	return n * mult, nil
}
