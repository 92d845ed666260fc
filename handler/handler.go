// Package handler implements the reference-counted resource handler engine.
//
// A [Handler] maps scene objects of type T to their allocated GPU-side
// representation of type U. It counts how many owners currently hold each
// object, allocates the representation on the first [Handler.Handle] and
// frees it on the [Handler.Release] that drops the last reference.
//
// Handlers form a tree: an object may depend on child objects managed by
// other handlers. Handling an object handles its children first; releasing
// it frees the object first and then releases its children, so a parent's
// free primitive runs while its children are still live.
//
// What a handler manages is injected through a [Policy]: the child walk,
// the allocate primitive and the free primitive. The engine itself has no
// knowledge of GPU APIs.
//
// # Identity
//
// Objects are keyed by T's == operator. Handlers are meant to be keyed by
// pointers, so two structurally equal objects at different addresses are
// distinct tracked objects with their own allocations.
//
// # Concurrency
//
// A Handler is not safe for concurrent use. All calls must come from the
// goroutine that owns the GPU; other goroutines hand work to it through a
// queue (see package renderloop).
package handler

import (
	"container/list"
	"errors"
	"fmt"
	"iter"

	"github.com/gogpu/g3d/diagnostics"
	"github.com/gogpu/g3d/refcount"
)

// Engine errors.
var (
	// ErrNotHandled is returned when releasing or using an object that has
	// no outstanding reference. It indicates a handle/release mismatch in
	// the caller.
	ErrNotHandled = errors.New("handler: object is not handled")

	// ErrAllocation is wrapped by every error returned when an allocate
	// primitive fails.
	ErrAllocation = errors.New("handler: allocation failed")

	// ErrInvalidObject is returned by Handle when Policy.Validate rejects
	// an object. Nothing is counted for it.
	ErrInvalidObject = errors.New("handler: invalid object")
)

// AllocationError reports a failed allocate primitive. Nothing is stored
// for the object, so it stays unknown to the handler.
type AllocationError struct {
	Kind   string
	Object any
	Err    error
}

// Error implements error.
func (e *AllocationError) Error() string {
	return fmt.Sprintf("handler: allocate %s %v: %v", e.Kind, e.Object, e.Err)
}

// Unwrap returns both ErrAllocation and the primitive's error.
func (e *AllocationError) Unwrap() []error {
	return []error{ErrAllocation, e.Err}
}

// Policy supplies what a handler manages.
type Policy[T comparable, U any] struct {
	// Kind is a short name used in errors and diagnostics.
	Kind string

	// Validate checks t before any reference is taken. Children is only
	// called for objects it accepts. Nil accepts everything.
	Validate func(t T) error

	// Children returns the objects t depends on, in order. It must be a
	// pure function of t and return the same sequence for every call while
	// t is handled. Nil means t is a leaf.
	Children func(t T) []Dependency

	// Allocate creates the internal representation of t. It is called
	// once per transition from unknown to live.
	Allocate func(t T) (U, error)

	// Free destroys the internal representation of t. It is called once
	// per transition from live to unknown, before the children are
	// released. Nil means nothing needs freeing.
	Free func(t T, u U) error
}

// Option configures a Handler.
type Option func(*options)

type options struct {
	observer diagnostics.Observer
}

// WithObserver sets the observer notified on allocate and free events.
func WithObserver(o diagnostics.Observer) Option {
	return func(opts *options) {
		if o != nil {
			opts.observer = o
		}
	}
}

// entry is one live object in the internal table.
type entry[T comparable, U any] struct {
	key      T
	internal U
}

// Handler is the reference-counted cache of internal representations.
type Handler[T comparable, U any] struct {
	policy   Policy[T, U]
	observer diagnostics.Observer

	counter *refcount.Counter[T]

	// Internal table, insertion ordered: the list holds entries, the map
	// indexes them by key.
	order *list.List
	table map[T]*list.Element
}

// New creates a handler for the given policy.
// Policy.Allocate is required.
func New[T comparable, U any](policy Policy[T, U], opts ...Option) *Handler[T, U] {
	if policy.Allocate == nil {
		panic("handler: policy without Allocate")
	}
	o := options{observer: diagnostics.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if policy.Kind == "" {
		policy.Kind = "object"
	}
	return &Handler[T, U]{
		policy:   policy,
		observer: o.observer,
		counter:  refcount.New[T](),
		order:    list.New(),
		table:    make(map[T]*list.Element),
	}
}

// Kind returns the handler's kind name.
func (h *Handler[T, U]) Kind() string { return h.policy.Kind }

// Observer returns the handler's observer.
func (h *Handler[T, U]) Observer() diagnostics.Observer { return h.observer }

// Handle adds a reference to t.
//
// The children of t are handled first, in order. If t is not yet live, its
// internal representation is allocated and stored. Every call adds a
// reference; only the first allocates.
//
// On failure the reference and the children handled so far are given back,
// so a failed Handle leaves the handler as it was.
func (h *Handler[T, U]) Handle(t T) error {
	if h.policy.Validate != nil {
		if err := h.policy.Validate(t); err != nil {
			return fmt.Errorf("%w: %s %v: %w", ErrInvalidObject, h.policy.Kind, t, err)
		}
	}
	h.counter.Increase(t)

	deps := h.children(t)
	for i, d := range deps {
		if err := d.acquire(); err != nil {
			h.rollback(t, deps[:i])
			return fmt.Errorf("handler: %s %v: handle %s: %w", h.policy.Kind, t, d.kind, err)
		}
	}

	if _, ok := h.table[t]; ok {
		return nil
	}

	h.observer.Handling(h.policy.Kind, t)
	u, err := h.policy.Allocate(t)
	if err != nil {
		h.rollback(t, deps)
		return &AllocationError{Kind: h.policy.Kind, Object: t, Err: err}
	}
	h.table[t] = h.order.PushBack(&entry[T, U]{key: t, internal: u})
	return nil
}

// rollback undoes a partially completed Handle. Release errors of children
// are ignored here: those children were handled by this very call and their
// release cannot underflow.
func (h *Handler[T, U]) rollback(t T, acquired []Dependency) {
	for i := len(acquired) - 1; i >= 0; i-- {
		_ = acquired[i].release()
	}
	_, _ = h.counter.Decrease(t)
}

// Release drops a reference to t.
//
// When the last reference is dropped, the internal representation is freed
// and removed. The children of t are released afterwards, whether or not t
// itself was freed.
//
// Releasing an object with no outstanding reference returns an error
// wrapping ErrNotHandled and changes nothing. Errors from the free
// primitive and from children are returned joined; the handler state is
// updated regardless.
func (h *Handler[T, U]) Release(t T) error {
	n, err := h.counter.Decrease(t)
	if err != nil {
		return fmt.Errorf("%w: release %s %v: %w", ErrNotHandled, h.policy.Kind, t, err)
	}

	var errs []error
	if n == 0 {
		if el, ok := h.table[t]; ok {
			e := el.Value.(*entry[T, U])
			h.observer.Releasing(h.policy.Kind, t)
			if h.policy.Free != nil {
				if err := h.policy.Free(t, e.internal); err != nil {
					errs = append(errs, fmt.Errorf("handler: free %s %v: %w", h.policy.Kind, t, err))
				}
			}
			h.order.Remove(el)
			delete(h.table, t)
		}
	}

	for _, d := range h.children(t) {
		if err := d.release(); err != nil {
			errs = append(errs, fmt.Errorf("handler: %s %v: release %s: %w", h.policy.Kind, t, d.kind, err))
		}
	}
	return errors.Join(errs...)
}

// Internal returns the internal representation of t and whether t is
// currently handled. It has no side effects.
func (h *Handler[T, U]) Internal(t T) (U, bool) {
	if el, ok := h.table[t]; ok {
		return el.Value.(*entry[T, U]).internal, true
	}
	var zero U
	return zero, false
}

// MustInternal is like Internal but returns an error wrapping ErrNotHandled
// when t is not handled.
func (h *Handler[T, U]) MustInternal(t T) (U, error) {
	u, ok := h.Internal(t)
	if !ok {
		return u, fmt.Errorf("%w: %s %v", ErrNotHandled, h.policy.Kind, t)
	}
	return u, nil
}

// Count returns the number of outstanding references to t.
func (h *Handler[T, U]) Count(t T) int {
	return h.counter.Count(t)
}

// Len returns the number of live objects.
func (h *Handler[T, U]) Len() int {
	return len(h.table)
}

// Live returns the live objects in the order they were first handled.
func (h *Handler[T, U]) Live() []T {
	out := make([]T, 0, len(h.table))
	for el := h.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*entry[T, U]).key)
	}
	return out
}

// All iterates over live objects and their internal representations in the
// order they were first handled. The handler must not be modified during
// iteration.
func (h *Handler[T, U]) All() iter.Seq2[T, U] {
	return func(yield func(T, U) bool) {
		for el := h.order.Front(); el != nil; el = el.Next() {
			e := el.Value.(*entry[T, U])
			if !yield(e.key, e.internal) {
				return
			}
		}
	}
}

func (h *Handler[T, U]) children(t T) []Dependency {
	if h.policy.Children == nil {
		return nil
	}
	return h.policy.Children(t)
}
