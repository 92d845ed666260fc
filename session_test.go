package g3d

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/g3d/backend/recording"
	"github.com/gogpu/g3d/diagnostics"
	"github.com/gogpu/g3d/handler"
	"github.com/gogpu/g3d/resource"
	"github.com/gogpu/g3d/scene"
)

func flatCube(name string) *scene.RenderedObject {
	return scene.NewRenderedObject(name, scene.FlatProgram(name+"-program"), scene.Cube(name, 1))
}

func TestSessionHandleIsDeferred(t *testing.T) {
	dev := recording.New()
	s := NewSession(dev)
	t.Cleanup(func() { _ = s.Close() })

	cube := flatCube("cube")
	if err := s.Handle(cube); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if s.Handlers().Len() != 0 {
		t.Fatal("object handled before the next frame")
	}

	s.Frame()
	if n := s.Handlers().Count(cube); n != 1 {
		t.Errorf("count after frame = %d, want 1", n)
	}
	if n := dev.Count(recording.OpClear); n != 1 {
		t.Errorf("Clear called %d times, want 1", n)
	}
	if n := dev.Count(recording.OpDraw); n != 1 {
		t.Errorf("Draw called %d times, want 1", n)
	}

	if err := s.Release(cube); err != nil {
		t.Fatalf("Release: %v", err)
	}
	s.Frame()
	if s.Handlers().Len() != 0 {
		t.Error("object still handled after release")
	}
	if n := dev.Count(recording.OpDraw); n != 1 {
		t.Errorf("released object drawn: Draw called %d times, want 1", n)
	}
	if s.Frames() != 2 {
		t.Errorf("Frames() = %d, want 2", s.Frames())
	}
}

func TestSessionErrorHandler(t *testing.T) {
	dev := recording.New()
	var errs []error
	s := NewSession(dev, WithErrorHandler(func(err error) { errs = append(errs, err) }))
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Release(flatCube("never handled")); err != nil {
		t.Fatalf("Release: %v", err)
	}
	s.Frame()
	if len(errs) != 1 || !errors.Is(errs[0], handler.ErrNotHandled) {
		t.Errorf("errors = %v, want one ErrNotHandled", errs)
	}
}

func TestSessionTarget(t *testing.T) {
	dev := recording.New()
	fb := scene.NewFrameBuffer("offscreen", 32, 32)
	s := NewSession(dev, WithTarget(fb), WithClearColor(color.White))

	cube := flatCube("cube")
	_ = s.Handle(cube)
	s.Frame()

	want, ok := s.Handlers().Textures().FrameBuffers().Internal(fb)
	if !ok {
		t.Fatal("target not handled")
	}
	if got := dev.LastTarget(); got == nil || *got != want {
		t.Errorf("draw target = %v, want %v", got, want)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if live := dev.Live(); len(live) != 0 {
		t.Errorf("device objects after Close = %v, want none", live)
	}
}

func TestSessionCloseReleasesEverything(t *testing.T) {
	dev := recording.New()
	stats := diagnostics.NewStats()
	s := NewSession(dev, WithObserver(stats))

	a, b := flatCube("a"), flatCube("b")
	_ = s.Handle(a)
	_ = s.Handle(a)
	s.Frame()
	_ = s.Handle(b) // still queued at Close

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if live := dev.Live(); len(live) != 0 {
		t.Errorf("device objects after Close = %v, want none", live)
	}
	if n := stats.Kind(resource.KindRenderedObject).Live(); n != 0 {
		t.Errorf("%d rendered objects live in stats, want 0", n)
	}
	if err := s.Handle(a); err == nil {
		t.Error("Handle after Close succeeded")
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

// TestSessionConcurrentProducers hands objects from several goroutines to
// a running session.
func TestSessionConcurrentProducers(t *testing.T) {
	dev := recording.New()
	var mu sync.Mutex
	var errs []error
	s := NewSession(dev, WithFramesPerSecond(500), WithErrorHandler(func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- s.Run(ctx) }()

	const producers = 4
	objs := make([]*scene.RenderedObject, producers)
	var g errgroup.Group
	for i := range producers {
		objs[i] = flatCube("cube")
		g.Go(func() error {
			for range 10 {
				if err := s.Handle(objs[i]); err != nil {
					return err
				}
				if err := s.Release(objs[i]); err != nil {
					return err
				}
			}
			return s.Handle(objs[i])
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("producers: %v", err)
	}

	// wait for the queue to drain on the render goroutine
	deadline := time.Now().Add(5 * time.Second)
	for s.queue.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-runDone; err != nil {
		t.Fatalf("Run: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(errs) != 0 {
		t.Errorf("task errors: %v", errs)
	}
	for i, obj := range objs {
		if n := s.Handlers().Count(obj); n != 1 {
			t.Errorf("object %d count = %d, want 1", i, n)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
