// Package refcount provides an identity-keyed reference counter.
//
// Keys are compared with Go's ==. Using pointers as keys gives identity
// semantics: two structurally equal objects at different addresses are
// counted separately.
//
// A Counter is not safe for concurrent use. It is owned by the goroutine
// that drives the GPU.
package refcount

import (
	"errors"
	"fmt"
)

// ErrUnderflow is returned when an object is released more times than it
// was acquired.
var ErrUnderflow = errors.New("refcount: decrease of an object with no references")

// Counter counts outstanding references per key. Absence of a key means a
// count of zero; a stored count is always strictly positive.
type Counter[K comparable] struct {
	counts map[K]int
}

// New creates an empty counter.
func New[K comparable]() *Counter[K] {
	return &Counter[K]{counts: make(map[K]int)}
}

// Increase adds one reference to k and returns the new count.
func (c *Counter[K]) Increase(k K) int {
	n := c.counts[k] + 1
	c.counts[k] = n
	return n
}

// Decrease removes one reference from k and returns the new count.
// The entry is deleted when the count reaches zero. Decreasing a key with
// no references returns ErrUnderflow and leaves the counter unchanged.
func (c *Counter[K]) Decrease(k K) (int, error) {
	n, ok := c.counts[k]
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrUnderflow, k)
	}
	if n == 1 {
		delete(c.counts, k)
		return 0, nil
	}
	c.counts[k] = n - 1
	return n - 1, nil
}

// IsZero reports whether k has no references.
func (c *Counter[K]) IsZero(k K) bool {
	_, ok := c.counts[k]
	return !ok
}

// Count returns the number of references held on k.
func (c *Counter[K]) Count(k K) int {
	return c.counts[k]
}

// Len returns the number of keys with at least one reference.
func (c *Counter[K]) Len() int {
	return len(c.counts)
}
