package resource

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/g3d/backend"
	"github.com/gogpu/g3d/descriptor"
	"github.com/gogpu/g3d/diagnostics"
	"github.com/gogpu/g3d/handler"
	"github.com/gogpu/g3d/scene"
)

// TextureDevice is what the texture handlers need from a device.
type TextureDevice interface {
	backend.Textures
	backend.FrameBuffers
}

// TextureHandler allocates sampled textures. It has no children and owns
// the handler for framebuffers rendered into.
type TextureHandler struct {
	*handler.Handler[*scene.Texture, descriptor.Texture]

	dev          backend.Textures
	framebuffers *FrameBufferHandler
}

// NewTextureHandler creates a texture handler and its framebuffer handler
// on dev.
func NewTextureHandler(dev TextureDevice, obs diagnostics.Observer) *TextureHandler {
	h := &TextureHandler{
		dev:          dev,
		framebuffers: NewFrameBufferHandler(dev, obs),
	}
	h.Handler = handler.New(handler.Policy[*scene.Texture, descriptor.Texture]{
		Kind:     KindTexture,
		Validate: notNil[scene.Texture],
		Allocate: h.allocate,
		Free: func(_ *scene.Texture, tex descriptor.Texture) error {
			return h.dev.DeleteTexture(tex)
		},
	}, handler.WithObserver(obs))
	return h
}

// FrameBuffers returns the framebuffer handler.
func (h *TextureHandler) FrameBuffers() *FrameBufferHandler { return h.framebuffers }

func (h *TextureHandler) allocate(t *scene.Texture) (descriptor.Texture, error) {
	tex, err := h.dev.CreateTexture(t.Format, t.Width(), t.Height())
	if err != nil {
		return descriptor.Texture{}, err
	}
	if err := h.upload(t, tex, t.Image().Bounds()); err != nil {
		return descriptor.Texture{}, errors.Join(err, h.dev.DeleteTexture(tex))
	}
	return tex, nil
}

func (h *TextureHandler) upload(t *scene.Texture, tex descriptor.Texture, rect image.Rectangle) error {
	pix, err := t.Pixels(rect)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRange, err)
	}
	return h.dev.WriteTexture(tex, rect, pix)
}

// UpdateImage uploads all pixels of a handled texture. A texture that was
// resized since it was handled must be released and handled again.
func (h *TextureHandler) UpdateImage(t *scene.Texture) error {
	return h.UpdateImageRegion(t, t.Image().Bounds())
}

// UpdateImageRegion uploads the pixels of rect of a handled texture.
func (h *TextureHandler) UpdateImageRegion(t *scene.Texture, rect image.Rectangle) error {
	tex, err := h.MustInternal(t)
	if err != nil {
		return err
	}
	if t.Width() != tex.Width() || t.Height() != tex.Height() {
		return fmt.Errorf("%w: %v resized from %dx%d", ErrRange, t, tex.Width(), tex.Height())
	}
	return h.upload(t, tex, rect)
}

// FrameBufferHandler allocates offscreen render targets. It has no
// children.
type FrameBufferHandler struct {
	*handler.Handler[*scene.FrameBuffer, descriptor.FrameBuffer]

	dev backend.FrameBuffers
}

// NewFrameBufferHandler creates a framebuffer handler on dev.
func NewFrameBufferHandler(dev backend.FrameBuffers, obs diagnostics.Observer) *FrameBufferHandler {
	h := &FrameBufferHandler{dev: dev}
	h.Handler = handler.New(handler.Policy[*scene.FrameBuffer, descriptor.FrameBuffer]{
		Kind:     KindFrameBuffer,
		Validate: notNil[scene.FrameBuffer],
		Allocate: func(fb *scene.FrameBuffer) (descriptor.FrameBuffer, error) {
			return h.dev.CreateFrameBuffer(fb.Width, fb.Height)
		},
		Free: func(_ *scene.FrameBuffer, fb descriptor.FrameBuffer) error {
			return h.dev.DeleteFrameBuffer(fb)
		},
	}, handler.WithObserver(obs))
	return h
}
