// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package renderloop hands work from application goroutines to the single
// goroutine that owns the GPU.
//
// Resource handlers are not safe for concurrent use. Producers Submit tasks
// to a Queue from any goroutine; the render goroutine drains the queue once
// per frame, before drawing, and runs the tasks in submission order. Tasks
// submitted by one goroutine run in the order it submitted them, so a
// release can never overtake the handle it pairs with.
package renderloop

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Submit after the queue is closed.
var ErrClosed = errors.New("renderloop: queue closed")

// Task is a unit of work run on the render goroutine.
type Task func() error

// Queue is a FIFO of tasks, safe for concurrent use.
type Queue struct {
	mu     sync.Mutex
	tasks  []Task
	closed bool
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Submit appends a task.
func (q *Queue) Submit(t Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.tasks = append(q.tasks, t)
	return nil
}

// Drain removes and returns all pending tasks in submission order.
func (q *Queue) Drain() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	tasks := q.tasks
	q.tasks = nil
	return tasks
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Close rejects further submissions. Pending tasks can still be drained.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}
