package resource

import (
	"fmt"
	"image/color"
	"slices"

	"github.com/gogpu/g3d/backend"
	"github.com/gogpu/g3d/descriptor"
	"github.com/gogpu/g3d/diagnostics"
	"github.com/gogpu/g3d/handler"
	"github.com/gogpu/g3d/scene"
)

// RenderedObjectHandler allocates pipelines and draws rendered objects.
// Its children are the program, every bound texture or framebuffer in
// binding order and the graphics object. A texture bound under two
// parameters is handled twice.
type RenderedObjectHandler struct {
	*handler.Handler[*scene.RenderedObject, descriptor.RenderedObject]

	dev      backend.Device
	programs *ProgramHandler
	textures *TextureHandler
	graphics *GraphicsObjectHandler
}

// NewRenderedObjectHandler creates the full handler tree on dev. All
// handlers report to obs, which may be nil.
func NewRenderedObjectHandler(dev backend.Device, obs diagnostics.Observer) *RenderedObjectHandler {
	if obs == nil {
		obs = diagnostics.Nop()
	}
	h := &RenderedObjectHandler{
		dev:      dev,
		programs: NewProgramHandler(dev, obs),
		textures: NewTextureHandler(dev, obs),
		graphics: NewGraphicsObjectHandler(dev, NewDataBufferHandler(dev, obs), obs),
	}
	h.Handler = handler.New(handler.Policy[*scene.RenderedObject, descriptor.RenderedObject]{
		Kind:     KindRenderedObject,
		Validate: validateRendered,
		Children: h.children,
		Allocate: h.allocate,
		Free: func(_ *scene.RenderedObject, r descriptor.RenderedObject) error {
			return h.dev.DeletePipeline(r.Pipeline())
		},
	}, handler.WithObserver(obs))
	return h
}

// Programs returns the program handler.
func (h *RenderedObjectHandler) Programs() *ProgramHandler { return h.programs }

// Textures returns the texture handler.
func (h *RenderedObjectHandler) Textures() *TextureHandler { return h.textures }

// Graphics returns the graphics object handler.
func (h *RenderedObjectHandler) Graphics() *GraphicsObjectHandler { return h.graphics }

func validateRendered(r *scene.RenderedObject) error {
	switch {
	case r == nil:
		return fmt.Errorf("%w: nil rendered object", ErrIncomplete)
	case r.Program == nil:
		return fmt.Errorf("%w: %q has no program", ErrIncomplete, r.Name)
	case r.Graphics == nil:
		return fmt.Errorf("%w: %q has no graphics object", ErrIncomplete, r.Name)
	}
	for _, b := range r.Textures() {
		if (b.Texture == nil) == (b.FrameBuffer == nil) {
			return fmt.Errorf("%w: %q binds %q to neither a texture nor a framebuffer", ErrIncomplete, r.Name, b.Param)
		}
	}
	return nil
}

func (h *RenderedObjectHandler) children(r *scene.RenderedObject) []handler.Dependency {
	bindings := r.Textures()
	deps := make([]handler.Dependency, 0, len(bindings)+2)
	deps = append(deps, handler.On(h.programs.Handler, r.Program))
	for _, b := range bindings {
		if b.FrameBuffer != nil {
			deps = append(deps, handler.On(h.textures.FrameBuffers().Handler, b.FrameBuffer))
			continue
		}
		deps = append(deps, handler.On(h.textures.Handler, b.Texture))
	}
	return append(deps, handler.On(h.graphics.Handler, r.Graphics))
}

func (h *RenderedObjectHandler) allocate(r *scene.RenderedObject) (descriptor.RenderedObject, error) {
	prog, err := h.programs.MustInternal(r.Program)
	if err != nil {
		return descriptor.RenderedObject{}, err
	}
	g, err := h.graphics.MustInternal(r.Graphics)
	if err != nil {
		return descriptor.RenderedObject{}, err
	}
	pl, err := h.dev.CreatePipeline(prog, g)
	if err != nil {
		return descriptor.RenderedObject{}, err
	}
	return descriptor.NewRenderedObject(prog, g, pl), nil
}

// Render draws a handled object into the device's default target.
func (h *RenderedObjectHandler) Render(r *scene.RenderedObject) error {
	return h.RenderTo(nil, r)
}

// RenderTo draws a handled object into fb, which must be handled by the
// framebuffer handler. A nil fb is the device's default target.
func (h *RenderedObjectHandler) RenderTo(fb *scene.FrameBuffer, r *scene.RenderedObject) error {
	obj, err := h.MustInternal(r)
	if err != nil {
		return err
	}
	target, err := h.target(fb)
	if err != nil {
		return err
	}
	textures, err := h.samplerTextures(r)
	if err != nil {
		return err
	}
	return h.dev.Draw(target, obj, textures)
}

// Clear clears fb, or the default target when fb is nil.
func (h *RenderedObjectHandler) Clear(fb *scene.FrameBuffer, c color.Color) error {
	target, err := h.target(fb)
	if err != nil {
		return err
	}
	return h.dev.Clear(target, c)
}

func (h *RenderedObjectHandler) target(fb *scene.FrameBuffer) (*descriptor.FrameBuffer, error) {
	if fb == nil {
		return nil, nil
	}
	desc, err := h.textures.FrameBuffers().MustInternal(fb)
	if err != nil {
		return nil, err
	}
	return &desc, nil
}

// samplerTextures returns the allocated textures of r in the order of its
// program's samplers.
func (h *RenderedObjectHandler) samplerTextures(r *scene.RenderedObject) ([]descriptor.Texture, error) {
	if len(r.Program.Samplers) == 0 {
		return nil, nil
	}
	bindings := r.Textures()
	out := make([]descriptor.Texture, 0, len(r.Program.Samplers))
	for _, param := range r.Program.Samplers {
		i := slices.IndexFunc(bindings, func(b scene.TextureBinding) bool { return b.Param == param })
		if i < 0 {
			return nil, fmt.Errorf("%w: %v has no texture for %q", ErrUnboundSampler, r, param)
		}
		desc, err := h.bindingTexture(bindings[i])
		if err != nil {
			return nil, err
		}
		out = append(out, desc)
	}
	return out, nil
}

// bindingTexture resolves a binding to the texture the draw samples. A
// framebuffer is sampled through its colour output.
func (h *RenderedObjectHandler) bindingTexture(b scene.TextureBinding) (descriptor.Texture, error) {
	if b.FrameBuffer != nil {
		fb, err := h.textures.FrameBuffers().MustInternal(b.FrameBuffer)
		if err != nil {
			return descriptor.Texture{}, err
		}
		return fb.Texture(), nil
	}
	return h.textures.MustInternal(b.Texture)
}
