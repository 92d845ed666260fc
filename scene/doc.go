// Package scene defines the application-side objects that handlers turn
// into GPU resources: data buffers, textures, framebuffers, programs,
// graphics objects and rendered objects.
//
// Scene objects are always used through pointers. The pointer is the
// object's identity for the handlers in package resource: handling the same
// pointer twice shares one allocation, handling an equal copy allocates a
// second one.
//
// The child structure of an object (the attributes of a graphics object,
// the texture bindings of a rendered object) must not change while the
// object is handled, since releasing walks the same children again.
package scene

import "errors"

// Scene errors.
var (
	// ErrRange is returned when a range lies outside a buffer or texture.
	ErrRange = errors.New("scene: range out of bounds")

	// ErrDuplicateKey is returned when an attribute or texture parameter
	// name is used twice in one object.
	ErrDuplicateKey = errors.New("scene: duplicate key")

	// ErrNilObject is returned when a nil object is bound.
	ErrNilObject = errors.New("scene: nil object")
)
