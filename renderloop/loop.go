// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package renderloop

import (
	"context"
	"runtime"
	"time"
)

// Config configures a Loop.
type Config struct {
	// FramesPerSecond caps the frame rate. Zero renders as fast as possible.
	FramesPerSecond int

	// Frame is called once per frame after the queued tasks have run.
	Frame func() error

	// MaxFrames stops Run after that many frames. Zero runs until the
	// context is done.
	MaxFrames uint64

	// OnError receives task and frame errors. Errors never stop the loop.
	// Nil discards them.
	OnError func(error)
}

// Loop runs queued tasks and frames on one goroutine.
type Loop struct {
	queue  *Queue
	cfg    Config
	frames uint64
}

// New creates a loop draining q.
func New(q *Queue, cfg Config) *Loop {
	if cfg.OnError == nil {
		cfg.OnError = func(error) {}
	}
	return &Loop{queue: q, cfg: cfg}
}

// Queue returns the loop's queue.
func (l *Loop) Queue() *Queue { return l.queue }

// Frames returns the number of frames run so far.
func (l *Loop) Frames() uint64 { return l.frames }

// interval returns the time between frames.
func (l *Loop) interval() time.Duration {
	if l.cfg.FramesPerSecond <= 0 {
		return time.Nanosecond
	}
	return time.Second / time.Duration(l.cfg.FramesPerSecond)
}

// RunFrame runs the pending tasks and one frame on the calling goroutine.
func (l *Loop) RunFrame() {
	l.runPending()
	if l.cfg.Frame != nil {
		if err := l.cfg.Frame(); err != nil {
			l.cfg.OnError(err)
		}
	}
	l.frames++
}

// Run locks the calling goroutine to its OS thread and runs frames until
// ctx is done or MaxFrames is reached, in which case it returns nil. Tasks
// still queued at that point are run before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ticker := time.NewTicker(l.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.runPending()
			return ctx.Err()
		case <-ticker.C:
			l.RunFrame()
			if l.cfg.MaxFrames > 0 && l.frames >= l.cfg.MaxFrames {
				l.runPending()
				return nil
			}
		}
	}
}

func (l *Loop) runPending() {
	for _, t := range l.queue.Drain() {
		if err := t(); err != nil {
			l.cfg.OnError(err)
		}
	}
}
