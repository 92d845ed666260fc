package g3d

import (
	"image/color"
	"log/slog"

	"github.com/gogpu/g3d/diagnostics"
	"github.com/gogpu/g3d/scene"
)

// Option configures a Session during creation.
//
// Example:
//
//	s := g3d.NewSession(dev,
//	    g3d.WithFramesPerSecond(60),
//	    g3d.WithObserver(diagnostics.NewSlog(slog.Default())),
//	)
type Option func(*sessionOptions)

type sessionOptions struct {
	observer   diagnostics.Observer
	logger     *slog.Logger
	fps        int
	maxFrames  uint64
	onError    func(error)
	target     *scene.FrameBuffer
	clearColor color.Color
}

func defaultOptions() sessionOptions {
	return sessionOptions{
		observer:   diagnostics.Nop(),
		clearColor: color.Black,
	}
}

// WithObserver sets the observer notified by every handler of the session.
func WithObserver(o diagnostics.Observer) Option {
	return func(opts *sessionOptions) {
		if o != nil {
			opts.observer = o
		}
	}
}

// WithLogger sets the session logger. By default the session uses the
// package logger at creation time.
func WithLogger(l *slog.Logger) Option {
	return func(opts *sessionOptions) {
		opts.logger = l
	}
}

// WithFramesPerSecond caps the frame rate of Run. Zero, the default,
// renders as fast as possible.
func WithFramesPerSecond(fps int) Option {
	return func(opts *sessionOptions) {
		opts.fps = max(fps, 0)
	}
}

// WithFrameLimit makes Run return after n frames. Zero, the default, runs
// until the context is done.
func WithFrameLimit(n uint64) Option {
	return func(opts *sessionOptions) {
		opts.maxFrames = n
	}
}

// WithErrorHandler sets the function receiving errors of queued tasks and
// frames. By default they are logged at warn level.
func WithErrorHandler(fn func(error)) Option {
	return func(opts *sessionOptions) {
		opts.onError = fn
	}
}

// WithTarget renders every frame into fb instead of the device's default
// target. The session handles fb for its lifetime.
func WithTarget(fb *scene.FrameBuffer) Option {
	return func(opts *sessionOptions) {
		opts.target = fb
	}
}

// WithClearColor sets the colour each frame starts from. The default is
// opaque black.
func WithClearColor(c color.Color) Option {
	return func(opts *sessionOptions) {
		if c != nil {
			opts.clearColor = c
		}
	}
}
