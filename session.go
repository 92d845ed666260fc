package g3d

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"

	"github.com/gogpu/g3d/backend"
	"github.com/gogpu/g3d/renderloop"
	"github.com/gogpu/g3d/resource"
	"github.com/gogpu/g3d/scene"
)

// Session drives a handler tree on one device from a render goroutine.
//
// Handle, Release and Submit are safe for concurrent use. Frame, Run and
// Close must be called from the render goroutine.
type Session struct {
	dev     backend.Device
	log     *slog.Logger
	objects *resource.RenderedObjectHandler
	queue   *renderloop.Queue
	loop    *renderloop.Loop

	target     *scene.FrameBuffer
	clearColor color.Color
	closed     bool
}

// NewSession creates a session rendering on dev. The caller keeps
// ownership of dev.
func NewSession(dev backend.Device, opts ...Option) *Session {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = Logger()
	}
	log := o.logger.With("backend", dev.Name())
	if o.onError == nil {
		o.onError = func(err error) {
			log.Warn("g3d: task failed", "error", err)
		}
	}

	s := &Session{
		dev:        dev,
		log:        log,
		objects:    resource.NewRenderedObjectHandler(dev, o.observer),
		queue:      renderloop.NewQueue(),
		target:     o.target,
		clearColor: o.clearColor,
	}
	s.loop = renderloop.New(s.queue, renderloop.Config{
		FramesPerSecond: o.fps,
		MaxFrames:       o.maxFrames,
		Frame:           s.draw,
		OnError:         o.onError,
	})
	if s.target != nil {
		fb := s.target
		_ = s.queue.Submit(func() error {
			return s.objects.Textures().FrameBuffers().Handle(fb)
		})
	}
	log.Info("g3d: session created", "fps", o.fps)
	return s
}

// Handlers returns the session's handler tree. It must only be used from
// the render goroutine.
func (s *Session) Handlers() *resource.RenderedObjectHandler { return s.objects }

// Device returns the session's device.
func (s *Session) Device() backend.Device { return s.dev }

// Submit queues a task for the start of the next frame.
func (s *Session) Submit(t renderloop.Task) error {
	return s.queue.Submit(t)
}

// Handle queues a reference to obj. The object is drawn every frame while
// it is handled.
func (s *Session) Handle(obj *scene.RenderedObject) error {
	return s.queue.Submit(func() error {
		s.log.Debug("g3d: handle", "object", obj.Name)
		return s.objects.Handle(obj)
	})
}

// Release queues the release of one reference to obj.
func (s *Session) Release(obj *scene.RenderedObject) error {
	return s.queue.Submit(func() error {
		s.log.Debug("g3d: release", "object", obj.Name)
		return s.objects.Release(obj)
	})
}

// Frame runs the queued tasks and draws one frame on the calling
// goroutine.
func (s *Session) Frame() {
	s.loop.RunFrame()
}

// Frames returns the number of frames drawn.
func (s *Session) Frames() uint64 { return s.loop.Frames() }

// Run draws frames until ctx is done or the frame limit is reached. A
// cancelled context is not an error.
func (s *Session) Run(ctx context.Context) error {
	err := s.loop.Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// draw clears the target and draws every handled object in the order
// they were first handled.
func (s *Session) draw() error {
	if err := s.objects.Clear(s.target, s.clearColor); err != nil {
		return fmt.Errorf("g3d: clear: %w", err)
	}
	var errs []error
	for _, obj := range s.objects.Live() {
		if err := s.objects.RenderTo(s.target, obj); err != nil {
			errs = append(errs, fmt.Errorf("g3d: render %v: %w", obj, err))
		}
	}
	return errors.Join(errs...)
}

// Close rejects further tasks, runs the pending ones and releases every
// object still handled, including the target. It does not close the
// device.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.queue.Close()

	var errs []error
	for _, t := range s.queue.Drain() {
		if err := t(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, obj := range s.objects.Live() {
		for range s.objects.Count(obj) {
			if err := s.objects.Release(obj); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if s.target != nil {
		fbs := s.objects.Textures().FrameBuffers()
		for range fbs.Count(s.target) {
			if err := fbs.Release(s.target); err != nil {
				errs = append(errs, err)
			}
		}
	}
	s.log.Info("g3d: session closed", "frames", s.loop.Frames(), "failed", len(errs))
	return errors.Join(errs...)
}
