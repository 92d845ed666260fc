package descriptor

import (
	"fmt"
	"strings"
)

// Attribute binds a named per-vertex channel to the buffer holding it.
type Attribute struct {
	Key    string
	Buffer DataBuffer
}

// GraphicsObject describes renderable geometry: an optional index buffer,
// the vertex count and an ordered set of vertex attributes.
type GraphicsObject struct {
	indices    *DataBuffer
	vertices   int
	attributes []Attribute
	vao        VertexArrayID
}

// NewGraphicsObject creates a graphics object descriptor. A nil indices
// buffer describes non-indexed geometry. Attribute keys must be unique;
// their order is preserved.
func NewGraphicsObject(indices *DataBuffer, vertices int, attrs ...Attribute) (GraphicsObject, error) {
	if vertices < 0 {
		return GraphicsObject{}, fmt.Errorf("%w: graphics object vertices=%d", ErrInvalidDescriptor, vertices)
	}
	seen := make(map[string]struct{}, len(attrs))
	for _, a := range attrs {
		if _, dup := seen[a.Key]; dup {
			return GraphicsObject{}, fmt.Errorf("%w: duplicate attribute %q", ErrInvalidDescriptor, a.Key)
		}
		seen[a.Key] = struct{}{}
	}
	g := GraphicsObject{vertices: vertices}
	if indices != nil {
		idx := *indices
		g.indices = &idx
	}
	if len(attrs) > 0 {
		g.attributes = append([]Attribute(nil), attrs...)
	}
	return g, nil
}

// WithVertexArray returns a copy of g bound to the given vertex array.
func (g GraphicsObject) WithVertexArray(id VertexArrayID) GraphicsObject {
	g.vao = id
	return g
}

// Indices returns the index buffer and whether the geometry is indexed.
func (g GraphicsObject) Indices() (DataBuffer, bool) {
	if g.indices == nil {
		return DataBuffer{}, false
	}
	return *g.indices, true
}

// Indexed reports whether the geometry has an index buffer.
func (g GraphicsObject) Indexed() bool { return g.indices != nil }

// Vertices returns the number of vertices.
func (g GraphicsObject) Vertices() int { return g.vertices }

// VertexArray returns the vertex array wrapping the buffers, or InvalidID.
func (g GraphicsObject) VertexArray() VertexArrayID { return g.vao }

// Attributes returns a copy of the attributes in insertion order.
func (g GraphicsObject) Attributes() []Attribute {
	return append([]Attribute(nil), g.attributes...)
}

// Attribute returns the buffer bound to key.
func (g GraphicsObject) Attribute(key string) (DataBuffer, bool) {
	for _, a := range g.attributes {
		if a.Key == key {
			return a.Buffer, true
		}
	}
	return DataBuffer{}, false
}

// Len returns the number of attributes.
func (g GraphicsObject) Len() int { return len(g.attributes) }

// Equal reports whether g and o are structurally equal, comparing the index
// buffer by value and the attributes in order.
func (g GraphicsObject) Equal(o GraphicsObject) bool {
	if g.vertices != o.vertices || g.vao != o.vao || len(g.attributes) != len(o.attributes) {
		return false
	}
	if (g.indices == nil) != (o.indices == nil) {
		return false
	}
	if g.indices != nil && *g.indices != *o.indices {
		return false
	}
	for i := range g.attributes {
		if g.attributes[i] != o.attributes[i] {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer.
func (g GraphicsObject) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "GraphicsObject(vertices=%d, vao=%d", g.vertices, g.vao)
	if g.indices != nil {
		fmt.Fprintf(&b, ", indices=%v", *g.indices)
	}
	for _, a := range g.attributes {
		fmt.Fprintf(&b, ", %s=%v", a.Key, a.Buffer)
	}
	b.WriteByte(')')
	return b.String()
}

// RenderedObject describes everything needed to issue a draw call: the
// program, the vertex array, the geometry and the pipeline binding them.
type RenderedObject struct {
	program  Program
	vao      VertexArrayID
	graphics GraphicsObject
	pipeline PipelineID
}

// NewRenderedObject creates a rendered object descriptor. The vertex array
// is taken from the graphics object.
func NewRenderedObject(program Program, graphics GraphicsObject, pipeline PipelineID) RenderedObject {
	return RenderedObject{
		program:  program,
		vao:      graphics.vao,
		graphics: graphics,
		pipeline: pipeline,
	}
}

// Program returns the program.
func (r RenderedObject) Program() Program { return r.program }

// VertexArray returns the vertex array.
func (r RenderedObject) VertexArray() VertexArrayID { return r.vao }

// Graphics returns the geometry.
func (r RenderedObject) Graphics() GraphicsObject { return r.graphics }

// Pipeline returns the program/vertex array binding.
func (r RenderedObject) Pipeline() PipelineID { return r.pipeline }

// Equal reports whether r and o are structurally equal.
func (r RenderedObject) Equal(o RenderedObject) bool {
	return r.program == o.program &&
		r.vao == o.vao &&
		r.pipeline == o.pipeline &&
		r.graphics.Equal(o.graphics)
}

// String implements fmt.Stringer.
func (r RenderedObject) String() string {
	return fmt.Sprintf("RenderedObject(%v, vao=%d, pipeline=%d, %v)", r.program, r.vao, r.pipeline, r.graphics)
}
