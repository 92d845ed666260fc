package descriptor

import "fmt"

// TextureFormat describes how texel data is laid out on the CPU side
// (external) and on the GPU side (internal). It has no GPU handle.
type TextureFormat struct {
	external  PixelFormat
	internal  PixelFormat
	component ElementType
	elements  int
}

// NewTextureFormat creates a texture format descriptor.
// Elements is the number of components per texel and must be in 1..4.
func NewTextureFormat(external, internal PixelFormat, component ElementType, elements int) (TextureFormat, error) {
	if elements < 1 || elements > 4 {
		return TextureFormat{}, fmt.Errorf("%w: texture format elements=%d", ErrInvalidDescriptor, elements)
	}
	if external.Components() == 0 || internal.Components() == 0 || !component.Valid() {
		return TextureFormat{}, fmt.Errorf("%w: texture format %v/%v/%v",
			ErrInvalidDescriptor, external, internal, component)
	}
	return TextureFormat{external: external, internal: internal, component: component, elements: elements}, nil
}

// DefaultTextureFormat returns the 4-component unsigned byte RGBA format
// used for framebuffer colour outputs.
func DefaultTextureFormat() TextureFormat {
	return TextureFormat{external: PixelRGBA, internal: PixelRGBA, component: Uint8, elements: 4}
}

// External returns the CPU-side pixel format.
func (f TextureFormat) External() PixelFormat { return f.external }

// Internal returns the GPU-side pixel format.
func (f TextureFormat) Internal() PixelFormat { return f.internal }

// Component returns the type of each channel.
func (f TextureFormat) Component() ElementType { return f.component }

// Elements returns the number of components per texel.
func (f TextureFormat) Elements() int { return f.elements }

// BytesPerPixel returns the size of one texel in bytes.
func (f TextureFormat) BytesPerPixel() int { return f.elements * f.component.Size() }

// String implements fmt.Stringer.
func (f TextureFormat) String() string {
	return fmt.Sprintf("TextureFormat(%v->%v, %v x%d)", f.external, f.internal, f.component, f.elements)
}

// Texture describes a GPU texture.
type Texture struct {
	id       TextureID
	transfer BufferID
	format   TextureFormat
	width    int
	height   int
}

// NewTexture creates a texture descriptor. Transfer is the optional pixel
// transfer buffer; pass InvalidID when there is none.
func NewTexture(id TextureID, transfer BufferID, format TextureFormat, width, height int) (Texture, error) {
	if width < 0 || height < 0 {
		return Texture{}, fmt.Errorf("%w: texture size %dx%d", ErrInvalidDescriptor, width, height)
	}
	if format.elements == 0 {
		return Texture{}, fmt.Errorf("%w: texture without format", ErrInvalidDescriptor)
	}
	return Texture{id: id, transfer: transfer, format: format, width: width, height: height}, nil
}

// ID returns the GPU texture.
func (t Texture) ID() TextureID { return t.id }

// TransferBuffer returns the pixel transfer buffer, or InvalidID.
func (t Texture) TransferBuffer() BufferID { return t.transfer }

// HasTransferBuffer reports whether the texture has a transfer buffer.
func (t Texture) HasTransferBuffer() bool { return t.transfer != InvalidID }

// Format returns the texture format.
func (t Texture) Format() TextureFormat { return t.format }

// Width returns the width in texels.
func (t Texture) Width() int { return t.width }

// Height returns the height in texels.
func (t Texture) Height() int { return t.height }

// Equal reports whether t and o describe the same texture.
func (t Texture) Equal(o Texture) bool { return t == o }

// String implements fmt.Stringer.
func (t Texture) String() string {
	return fmt.Sprintf("Texture(id=%d, transfer=%d, %dx%d, %v)", t.id, t.transfer, t.width, t.height, t.format)
}

// FrameBuffer describes an offscreen render target with a depth attachment
// and a colour attachment that can also be sampled as a texture.
type FrameBuffer struct {
	id      FrameBufferID
	depth   RenderBufferID
	color   RenderBufferID
	texture Texture
}

// NewFrameBuffer creates a framebuffer descriptor. The colour output is
// described by a texture using DefaultTextureFormat.
func NewFrameBuffer(id FrameBufferID, depth, color RenderBufferID, colorTexture TextureID, width, height int) (FrameBuffer, error) {
	tex, err := NewTexture(colorTexture, InvalidID, DefaultTextureFormat(), width, height)
	if err != nil {
		return FrameBuffer{}, err
	}
	return FrameBuffer{id: id, depth: depth, color: color, texture: tex}, nil
}

// ID returns the GPU framebuffer.
func (f FrameBuffer) ID() FrameBufferID { return f.id }

// DepthBuffer returns the depth attachment.
func (f FrameBuffer) DepthBuffer() RenderBufferID { return f.depth }

// ColorBuffer returns the colour attachment.
func (f FrameBuffer) ColorBuffer() RenderBufferID { return f.color }

// Texture returns the colour output as a sampleable texture.
func (f FrameBuffer) Texture() Texture { return f.texture }

// Width returns the width in pixels.
func (f FrameBuffer) Width() int { return f.texture.width }

// Height returns the height in pixels.
func (f FrameBuffer) Height() int { return f.texture.height }

// Equal reports whether f and o describe the same framebuffer.
func (f FrameBuffer) Equal(o FrameBuffer) bool { return f == o }

// String implements fmt.Stringer.
func (f FrameBuffer) String() string {
	return fmt.Sprintf("FrameBuffer(id=%d, depth=%d, color=%d, %v)", f.id, f.depth, f.color, f.texture)
}

// Program describes a linked shader program.
type Program struct {
	id   ProgramID
	name string
}

// NewProgram creates a program descriptor.
func NewProgram(id ProgramID, name string) Program {
	return Program{id: id, name: name}
}

// ID returns the GPU program.
func (p Program) ID() ProgramID { return p.id }

// Name returns the debug name of the program.
func (p Program) Name() string { return p.name }

// String implements fmt.Stringer.
func (p Program) String() string {
	return fmt.Sprintf("Program(id=%d, %q)", p.id, p.name)
}
