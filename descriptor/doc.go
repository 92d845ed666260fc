// Package descriptor defines immutable value types describing GPU-side
// resources: data buffers, textures and their formats, framebuffers,
// programs, graphics objects and rendered objects.
//
// A descriptor is the internal representation a handler stores for a scene
// object once that object has been allocated on the GPU. Descriptors are
// built by the New* factories, which validate their arguments, and never
// change afterwards.
//
// # Equality
//
// Leaf descriptors ([DataBuffer], [TextureFormat], [Texture], [FrameBuffer],
// [Program]) are comparable structs, so == compares them field by field.
// Composite descriptors ([GraphicsObject], [RenderedObject]) hold slices and
// pointers and provide an Equal method for deep structural comparison.
//
// Structural equality is a property of the values only. Handlers key their
// tables by identity (pointer keys), so two separately built descriptors
// with equal fields are still tracked as two distinct objects.
package descriptor
