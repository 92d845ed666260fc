// Package diagnostics provides passive observers notified when handlers
// allocate or free GPU resources.
//
// Observers are purely informational: they must not panic, block or affect
// the handler that notifies them. Every handler receives its observer at
// construction time; there is no process-wide observer.
package diagnostics

import (
	"fmt"
	"strings"
)

// Observer receives resource lifecycle events.
//
// Kind names the handler ("data buffer", "texture", ...). Obj is the scene
// object being handled; its identity is its address and its textual
// representation is whatever fmt prints for it.
type Observer interface {
	// Handling is called right before an object is allocated.
	Handling(kind string, obj any)

	// Releasing is called right before an object is freed.
	Releasing(kind string, obj any)

	// Skipped is called when part of an object is left out of an
	// allocation, for example an attribute of an unsupported type.
	Skipped(kind string, obj any, reason string)
}

// Nop returns an observer that ignores all events.
func Nop() Observer { return nopObserver{} }

type nopObserver struct{}

func (nopObserver) Handling(string, any)        {}
func (nopObserver) Releasing(string, any)       {}
func (nopObserver) Skipped(string, any, string) {}

// Multi returns an observer that forwards every event to all observers in
// order. Nil observers are ignored.
func Multi(observers ...Observer) Observer {
	m := make(multiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

type multiObserver []Observer

func (m multiObserver) Handling(kind string, obj any) {
	for _, o := range m {
		o.Handling(kind, obj)
	}
}

func (m multiObserver) Releasing(kind string, obj any) {
	for _, o := range m {
		o.Releasing(kind, obj)
	}
}

func (m multiObserver) Skipped(kind string, obj any, reason string) {
	for _, o := range m {
		o.Skipped(kind, obj, reason)
	}
}

// identity formats the address of obj, or its value when obj is not a
// pointer.
func identity(obj any) string {
	if obj == nil {
		return "<nil>"
	}
	s := fmt.Sprintf("%p", obj)
	if strings.HasPrefix(s, "%!") {
		return repr(obj)
	}
	return s
}

// repr returns the textual representation of obj.
func repr(obj any) string {
	return fmt.Sprintf("%v", obj)
}
