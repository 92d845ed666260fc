package descriptor

// Resource IDs
//
// These opaque IDs name GPU objects owned by a backend. Each backend keeps
// the mapping between IDs and its actual resources. IDs are uint64 to
// accommodate various backend handle sizes.

// BufferID is an opaque handle to a GPU buffer.
type BufferID uint64

// TextureID is an opaque handle to a GPU texture.
type TextureID uint64

// FrameBufferID is an opaque handle to a GPU framebuffer.
type FrameBufferID uint64

// RenderBufferID is an opaque handle to a framebuffer attachment.
type RenderBufferID uint64

// ProgramID is an opaque handle to a linked shader program.
type ProgramID uint64

// VertexArrayID is an opaque handle to a vertex array object.
type VertexArrayID uint64

// PipelineID is an opaque handle to the binding of a program and a
// vertex array.
type PipelineID uint64

// InvalidID is the zero value, representing an absent resource.
const InvalidID = 0
