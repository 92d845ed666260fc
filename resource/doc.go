// Package resource provides the handlers that turn scene objects into GPU
// resources on a backend.Device.
//
// Each handler is a handler.Handler specialised for one kind of scene
// object. The handlers form a tree rooted at the RenderedObjectHandler:
//
//	RenderedObjectHandler
//	├── ProgramHandler
//	├── TextureHandler
//	├── FrameBufferHandler (owned by TextureHandler)
//	└── GraphicsObjectHandler
//	    └── DataBufferHandler
//
// Handling a rendered object handles its program, every bound texture or
// framebuffer and its graphics object, which in turn handles its index buffer and its
// floating point attribute buffers. Attributes of any other element type
// are left out of the vertex array and reported to the observer.
//
// Like the engine, handlers are not safe for concurrent use.
package resource

import (
	"errors"
	"fmt"
)

// Handler kinds, as reported to observers.
const (
	KindDataBuffer     = "data buffer"
	KindTexture        = "texture"
	KindFrameBuffer    = "framebuffer"
	KindProgram        = "program"
	KindGraphicsObject = "graphics object"
	KindRenderedObject = "rendered object"
)

// Resource errors.
var (
	// ErrRange is returned when an update lies outside the allocated
	// resource, or the scene object no longer matches its allocation.
	ErrRange = errors.New("resource: range out of bounds")

	// ErrUniform is returned when setting a uniform the program does not
	// declare, or with a value of another kind.
	ErrUniform = errors.New("resource: bad uniform")

	// ErrUnboundSampler is returned when rendering an object that binds no
	// texture to one of its program's samplers.
	ErrUnboundSampler = errors.New("resource: sampler without texture")

	// ErrIncomplete is returned when handling a nil object, or one that
	// lacks a part it needs to be drawn.
	ErrIncomplete = errors.New("resource: incomplete object")
)

// notNil rejects nil scene objects before they are counted.
func notNil[T any](t *T) error {
	if t == nil {
		return fmt.Errorf("%w: nil %T", ErrIncomplete, t)
	}
	return nil
}
