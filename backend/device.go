package backend

import (
	"errors"
	"image"
	"image/color"

	"github.com/gogpu/g3d/descriptor"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// registered or cannot be created.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrOutOfMemory is wrapped by allocation errors caused by exhausted
	// device memory or budget.
	ErrOutOfMemory = errors.New("backend: out of memory")

	// ErrInvalidRequest is wrapped by errors for requests the device cannot
	// satisfy: bad sizes, unknown IDs, unsupported formats.
	ErrInvalidRequest = errors.New("backend: invalid request")

	// ErrClosed is returned by every primitive after Close.
	ErrClosed = errors.New("backend: device closed")
)

// Buffers allocates and fills data buffers.
type Buffers interface {
	// CreateBuffer allocates room for size elements of typ. Stride is the
	// byte distance between consecutive vertices (0 for tightly packed).
	CreateBuffer(typ descriptor.ElementType, size, stride int) (descriptor.DataBuffer, error)

	// WriteBuffer uploads data at the given byte offset.
	WriteBuffer(buf descriptor.DataBuffer, offset int, data []byte) error

	DeleteBuffer(buf descriptor.DataBuffer) error
}

// Textures allocates and fills textures.
type Textures interface {
	CreateTexture(format descriptor.TextureFormat, width, height int) (descriptor.Texture, error)

	// WriteTexture uploads tightly packed pixels into region.
	WriteTexture(tex descriptor.Texture, region image.Rectangle, pixels []byte) error

	DeleteTexture(tex descriptor.Texture) error
}

// FrameBuffers allocates offscreen render targets.
type FrameBuffers interface {
	CreateFrameBuffer(width, height int) (descriptor.FrameBuffer, error)
	DeleteFrameBuffer(fb descriptor.FrameBuffer) error
}

// ProgramSource is what a device needs to build a program.
type ProgramSource struct {
	Name          string
	Source        string
	VertexEntry   string
	FragmentEntry string

	// Uniforms is the uniform block, in layout order.
	Uniforms []descriptor.Uniform

	// Samplers names the texture parameters, in binding order.
	Samplers []string
}

// Programs compiles programs and stores their uniform values.
type Programs interface {
	CreateProgram(src ProgramSource) (descriptor.Program, error)

	// SetUniform stores the encoded value of a declared uniform. Data uses
	// the layout of descriptor.UniformLayout.
	SetUniform(p descriptor.Program, name string, data []byte) error

	DeleteProgram(p descriptor.Program) error
}

// VertexArrays binds a graphics object's buffers into a vertex layout.
type VertexArrays interface {
	CreateVertexArray(g descriptor.GraphicsObject) (descriptor.VertexArrayID, error)
	DeleteVertexArray(id descriptor.VertexArrayID) error
}

// Pipelines binds a program to a vertex array.
type Pipelines interface {
	CreatePipeline(p descriptor.Program, g descriptor.GraphicsObject) (descriptor.PipelineID, error)
	DeletePipeline(id descriptor.PipelineID) error
}

// Drawer issues draws.
type Drawer interface {
	// Clear fills the colour buffer of target with c and resets its depth
	// buffer. A nil target is the device's default target.
	Clear(target *descriptor.FrameBuffer, c color.Color) error

	// Draw draws obj once into target, or into the device's default target
	// when target is nil. Textures are given in the program's sampler
	// order.
	Draw(target *descriptor.FrameBuffer, obj descriptor.RenderedObject, textures []descriptor.Texture) error
}

// Device is the full set of GPU primitives the resource handlers use.
//
// Every create primitive returns a valid descriptor or an error wrapping
// ErrOutOfMemory or ErrInvalidRequest; it never returns an invalid ID.
// A Device is not safe for concurrent use.
type Device interface {
	Buffers
	Textures
	FrameBuffers
	Programs
	VertexArrays
	Pipelines
	Drawer

	// Name returns the backend identifier (e.g. "wgpu", "recording").
	Name() string

	// Close releases every object still allocated on the device.
	Close() error
}
