package scene

import (
	"fmt"
	"strings"

	"github.com/gogpu/g3d/descriptor"
)

// Standard attribute keys.
const (
	Position = "VERTEX"
	Normal   = "NORMAL"
	TexCoord = "TEXCOORD"
	Color    = "COLOR"
)

// Program is a shader program written in WGSL.
type Program struct {
	Name          string
	Source        string
	VertexEntry   string
	FragmentEntry string

	// Uniforms declares the program's uniform block in layout order.
	Uniforms []descriptor.Uniform

	// Samplers names the texture parameters in binding order. Parameter i
	// is bound to @binding(1+2i) and its sampler to @binding(2+2i).
	Samplers []string
}

// NewProgram creates a program using the conventional vs_main and fs_main
// entry points.
func NewProgram(name, source string, uniforms ...descriptor.Uniform) *Program {
	return &Program{
		Name:          name,
		Source:        source,
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
		Uniforms:      uniforms,
	}
}

// Uniform returns the declaration of the named uniform.
func (p *Program) Uniform(name string) (descriptor.Uniform, bool) {
	for _, u := range p.Uniforms {
		if u.Name == name {
			return u, true
		}
	}
	return descriptor.Uniform{}, false
}

// WithSamplers sets the texture parameters and returns p.
func (p *Program) WithSamplers(names ...string) *Program {
	p.Samplers = names
	return p
}

// String implements fmt.Stringer.
func (p *Program) String() string {
	return fmt.Sprintf("Program(%q)", p.Name)
}

// Attribute binds a per-vertex channel name to its data.
type Attribute struct {
	Key    string
	Buffer *DataBuffer
}

// GraphicsObject is geometry: an optional index buffer, a vertex count and
// an ordered set of attributes with unique keys.
type GraphicsObject struct {
	Name     string
	Indices  *DataBuffer
	Vertices int

	attributes []Attribute
}

// NewGraphicsObject creates a graphics object. A nil indices buffer
// describes non-indexed geometry.
func NewGraphicsObject(name string, indices *DataBuffer, vertices int, attrs ...Attribute) (*GraphicsObject, error) {
	g := &GraphicsObject{Name: name, Indices: indices, Vertices: vertices}
	for _, a := range attrs {
		if err := g.SetAttribute(a.Key, a.Buffer); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// SetAttribute appends an attribute. Keys must be unique.
func (g *GraphicsObject) SetAttribute(key string, buf *DataBuffer) error {
	if _, ok := g.Attribute(key); ok {
		return fmt.Errorf("%w: attribute %q", ErrDuplicateKey, key)
	}
	g.attributes = append(g.attributes, Attribute{Key: key, Buffer: buf})
	return nil
}

// Attribute returns the buffer bound to key.
func (g *GraphicsObject) Attribute(key string) (*DataBuffer, bool) {
	for _, a := range g.attributes {
		if a.Key == key {
			return a.Buffer, true
		}
	}
	return nil, false
}

// Attributes returns the attributes in insertion order.
func (g *GraphicsObject) Attributes() []Attribute {
	return append([]Attribute(nil), g.attributes...)
}

// String implements fmt.Stringer.
func (g *GraphicsObject) String() string {
	keys := make([]string, len(g.attributes))
	for i, a := range g.attributes {
		keys[i] = a.Key
	}
	return fmt.Sprintf("GraphicsObject(%q, vertices=%d, indexed=%v, attributes=[%s])",
		g.Name, g.Vertices, g.Indices != nil, strings.Join(keys, " "))
}

// TextureBinding binds a sampler parameter of a program to a texture or
// to the colour output of a framebuffer. Exactly one of Texture and
// FrameBuffer is set.
type TextureBinding struct {
	Param       string
	Texture     *Texture
	FrameBuffer *FrameBuffer
}

// RenderedObject is a graphics object drawn with a program and a set of
// texture bindings.
type RenderedObject struct {
	Name     string
	Program  *Program
	Graphics *GraphicsObject

	textures []TextureBinding
}

// NewRenderedObject creates a rendered object without texture bindings.
// Program and graphics must be set before the object is handled.
func NewRenderedObject(name string, program *Program, graphics *GraphicsObject) *RenderedObject {
	return &RenderedObject{Name: name, Program: program, Graphics: graphics}
}

// Bind binds tex to the sampler parameter param. Parameter names must be
// unique; the same texture may be bound under several names.
func (r *RenderedObject) Bind(param string, tex *Texture) error {
	if tex == nil {
		return fmt.Errorf("%w: texture for parameter %q", ErrNilObject, param)
	}
	return r.bind(TextureBinding{Param: param, Texture: tex})
}

// BindFrameBuffer binds the colour output of fb to the sampler parameter
// param, so that what was rendered into fb can be sampled.
func (r *RenderedObject) BindFrameBuffer(param string, fb *FrameBuffer) error {
	if fb == nil {
		return fmt.Errorf("%w: framebuffer for parameter %q", ErrNilObject, param)
	}
	return r.bind(TextureBinding{Param: param, FrameBuffer: fb})
}

func (r *RenderedObject) bind(b TextureBinding) error {
	for _, o := range r.textures {
		if o.Param == b.Param {
			return fmt.Errorf("%w: texture parameter %q", ErrDuplicateKey, b.Param)
		}
	}
	r.textures = append(r.textures, b)
	return nil
}

// Textures returns the texture bindings in binding order.
func (r *RenderedObject) Textures() []TextureBinding {
	return append([]TextureBinding(nil), r.textures...)
}

// String implements fmt.Stringer.
func (r *RenderedObject) String() string {
	return fmt.Sprintf("RenderedObject(%q, %v, %v, %d textures)", r.Name, r.Program, r.Graphics, len(r.textures))
}
