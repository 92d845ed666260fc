// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/g3d/backend/budget"
	"github.com/gogpu/g3d/descriptor"
)

const (
	kindTexture     = "texture"
	kindFrameBuffer = "framebuffer"

	colorFormat = gputypes.TextureFormatRGBA8Unorm
	depthFormat = gputypes.TextureFormatDepth24PlusStencil8
)

type gpuTexture struct {
	desc descriptor.Texture
	tex  hal.Texture
	view hal.TextureView
}

type gpuFrameBuffer struct {
	desc      descriptor.FrameBuffer
	color     hal.Texture
	colorView hal.TextureView
	depth     hal.Texture
	depthView hal.TextureView
}

// halTextureFormat maps a texture format to a sampled hal format.
func halTextureFormat(f descriptor.TextureFormat) (gputypes.TextureFormat, error) {
	if f.Component() != descriptor.Uint8 {
		return gputypes.TextureFormatUndefined, invalid("texture component %v", f.Component())
	}
	switch {
	case f.Internal() == descriptor.PixelRGBA && f.Elements() == 4:
		return gputypes.TextureFormatRGBA8Unorm, nil
	case f.Internal() == descriptor.PixelR && f.Elements() == 1:
		return gputypes.TextureFormatR8Unorm, nil
	default:
		return gputypes.TextureFormatUndefined, invalid("texture format %v", f)
	}
}

func extent(w, h int) hal.Extent3D {
	return hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1} //nolint:gosec // sizes validated
}

// createTexture creates a 2D texture and its default view.
func (d *Device) createTexture(label string, format gputypes.TextureFormat, usage gputypes.TextureUsage, w, h int) (hal.Texture, hal.TextureView, error) {
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          extent(w, h),
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, nil, halError("create texture "+label, err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: label + "_view",
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return nil, nil, halError("create texture view "+label, err)
	}
	return tex, view, nil
}

// CreateTexture implements backend.Textures.
func (d *Device) CreateTexture(format descriptor.TextureFormat, width, height int) (descriptor.Texture, error) {
	if err := d.check(); err != nil {
		return descriptor.Texture{}, err
	}
	if width <= 0 || height <= 0 {
		return descriptor.Texture{}, invalid("texture size %dx%d", width, height)
	}
	hf, err := halTextureFormat(format)
	if err != nil {
		return descriptor.Texture{}, err
	}
	id := d.newID()
	desc, err := descriptor.NewTexture(descriptor.TextureID(id), descriptor.InvalidID, format, width, height)
	if err != nil {
		return descriptor.Texture{}, invalid("%v", err)
	}
	key := budget.Key(kindTexture, id)
	if err := d.budget.Reserve(key, uint64(width*height*format.BytesPerPixel())); err != nil { //nolint:gosec // size validated
		return descriptor.Texture{}, err
	}
	tex, view, err := d.createTexture(fmt.Sprintf("g3d_texture_%d", id), hf,
		gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopyDst, width, height)
	if err != nil {
		d.budget.Return(key)
		return descriptor.Texture{}, err
	}
	d.textures[desc.ID()] = &gpuTexture{desc: desc, tex: tex, view: view}
	d.logger.Debug("wgpu: texture created", "id", id, "width", width, "height", height)
	return desc, nil
}

// WriteTexture implements backend.Textures.
func (d *Device) WriteTexture(tex descriptor.Texture, region image.Rectangle, pixels []byte) error {
	if err := d.check(); err != nil {
		return err
	}
	t, ok := d.textures[tex.ID()]
	if !ok {
		return invalid("unknown texture %d", tex.ID())
	}
	bounds := image.Rect(0, 0, t.desc.Width(), t.desc.Height())
	if region.Empty() || !region.In(bounds) {
		return invalid("region %v outside %v", region, bounds)
	}
	row := region.Dx() * t.desc.Format().BytesPerPixel()
	if len(pixels) != row*region.Dy() {
		return invalid("%d bytes for %v region", len(pixels), region)
	}
	//nolint:gosec // region validated against texture bounds
	err := d.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: uint32(region.Min.X), Y: uint32(region.Min.Y)},
		},
		pixels,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(row),
			RowsPerImage: uint32(region.Dy()),
		},
		&hal.Extent3D{Width: uint32(region.Dx()), Height: uint32(region.Dy()), DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("write texture: %w", err)
	}
	return nil
}

// DeleteTexture implements backend.Textures.
func (d *Device) DeleteTexture(tex descriptor.Texture) error {
	if err := d.check(); err != nil {
		return err
	}
	t, ok := d.textures[tex.ID()]
	if !ok {
		return invalid("unknown texture %d", tex.ID())
	}
	d.destroyTexture(t)
	return nil
}

func (d *Device) destroyTexture(t *gpuTexture) {
	d.device.DestroyTextureView(t.view)
	d.device.DestroyTexture(t.tex)
	d.budget.Return(budget.Key(kindTexture, uint64(t.desc.ID())))
	delete(d.textures, t.desc.ID())
}

// CreateFrameBuffer implements backend.FrameBuffers.
func (d *Device) CreateFrameBuffer(width, height int) (descriptor.FrameBuffer, error) {
	if err := d.check(); err != nil {
		return descriptor.FrameBuffer{}, err
	}
	if width <= 0 || height <= 0 {
		return descriptor.FrameBuffer{}, invalid("framebuffer size %dx%d", width, height)
	}
	id := d.newID()
	depthID := descriptor.RenderBufferID(d.newID())
	colorID := descriptor.RenderBufferID(d.newID())
	texID := descriptor.TextureID(d.newID())
	desc, err := descriptor.NewFrameBuffer(descriptor.FrameBufferID(id), depthID, colorID, texID, width, height)
	if err != nil {
		return descriptor.FrameBuffer{}, invalid("%v", err)
	}

	key := budget.Key(kindFrameBuffer, id)
	if err := d.budget.Reserve(key, uint64(width*height*8)); err != nil { //nolint:gosec // size validated
		return descriptor.FrameBuffer{}, err
	}
	label := fmt.Sprintf("g3d_framebuffer_%d", id)
	color, colorView, err := d.createTexture(label+"_color", colorFormat,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopySrc, width, height)
	if err != nil {
		d.budget.Return(key)
		return descriptor.FrameBuffer{}, err
	}
	depth, depthView, err := d.createTexture(label+"_depth", depthFormat,
		gputypes.TextureUsageRenderAttachment, width, height)
	if err != nil {
		d.device.DestroyTextureView(colorView)
		d.device.DestroyTexture(color)
		d.budget.Return(key)
		return descriptor.FrameBuffer{}, err
	}
	d.framebuffers[desc.ID()] = &gpuFrameBuffer{
		desc:      desc,
		color:     color,
		colorView: colorView,
		depth:     depth,
		depthView: depthView,
	}
	d.logger.Debug("wgpu: framebuffer created", "id", id, "width", width, "height", height)
	return desc, nil
}

// DeleteFrameBuffer implements backend.FrameBuffers.
func (d *Device) DeleteFrameBuffer(fb descriptor.FrameBuffer) error {
	if err := d.check(); err != nil {
		return err
	}
	f, ok := d.framebuffers[fb.ID()]
	if !ok {
		return invalid("unknown framebuffer %d", fb.ID())
	}
	d.destroyFrameBuffer(f)
	return nil
}

func (d *Device) destroyFrameBuffer(f *gpuFrameBuffer) {
	d.device.DestroyTextureView(f.depthView)
	d.device.DestroyTexture(f.depth)
	d.device.DestroyTextureView(f.colorView)
	d.device.DestroyTexture(f.color)
	d.budget.Return(budget.Key(kindFrameBuffer, uint64(f.desc.ID())))
	delete(d.framebuffers, f.desc.ID())
}

// defaultTarget returns the framebuffer Draw uses when none is given,
// creating it on first use.
func (d *Device) defaultTarget() (*gpuFrameBuffer, error) {
	if d.target == nil {
		fb, err := d.CreateFrameBuffer(d.targetW, d.targetH)
		if err != nil {
			return nil, err
		}
		d.target = &fb
	}
	return d.framebuffers[d.target.ID()], nil
}

// linearSampler returns the shared sampler, creating it on first use.
func (d *Device) linearSampler() (hal.Sampler, error) {
	if d.sampler != nil {
		return d.sampler, nil
	}
	sampler, err := d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "g3d_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return nil, halError("create sampler", err)
	}
	d.sampler = sampler
	return sampler, nil
}
