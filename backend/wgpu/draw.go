// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"image/color"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/g3d/descriptor"
)

// resolveTarget returns the framebuffer to render into.
func (d *Device) resolveTarget(target *descriptor.FrameBuffer) (*gpuFrameBuffer, error) {
	if target == nil {
		return d.defaultTarget()
	}
	fb, ok := d.framebuffers[target.ID()]
	if !ok {
		return nil, invalid("unknown framebuffer %d", target.ID())
	}
	return fb, nil
}

// Clear implements backend.Drawer.
func (d *Device) Clear(target *descriptor.FrameBuffer, c color.Color) error {
	if err := d.check(); err != nil {
		return err
	}
	fb, err := d.resolveTarget(target)
	if err != nil {
		return err
	}
	r, g, b, a := c.RGBA()
	clearValue := gputypes.Color{
		R: float64(r) / 0xffff,
		G: float64(g) / 0xffff,
		B: float64(b) / 0xffff,
		A: float64(a) / 0xffff,
	}
	return d.submitPass("g3d_clear", fb, gputypes.LoadOpClear, clearValue, nil)
}

// Draw implements backend.Drawer.
func (d *Device) Draw(target *descriptor.FrameBuffer, obj descriptor.RenderedObject, textures []descriptor.Texture) error {
	if err := d.check(); err != nil {
		return err
	}
	pl, ok := d.pipelines[obj.Pipeline()]
	if !ok {
		return invalid("unknown pipeline %d", obj.Pipeline())
	}
	prog, va := d.programs[pl.program], d.vaos[pl.vao]
	if prog == nil || va == nil {
		return invalid("pipeline %d outlived its program or vertex array", obj.Pipeline())
	}
	if pl.vao != obj.VertexArray() || pl.program != obj.Program().ID() {
		return invalid("pipeline %d does not bind program %d and vertex array %d", obj.Pipeline(), obj.Program().ID(), obj.VertexArray())
	}
	if len(textures) != len(prog.src.Samplers) {
		return invalid("%d textures for %d samplers", len(textures), len(prog.src.Samplers))
	}
	fb, err := d.resolveTarget(target)
	if err != nil {
		return err
	}
	for _, t := range textures {
		_, src, ok := d.textureView(t.ID())
		if !ok {
			return invalid("unknown texture %d", t.ID())
		}
		if src == fb {
			return invalid("framebuffer %d sampled while rendered into", fb.desc.ID())
		}
	}

	var vertexBufs []hal.Buffer
	for _, a := range va.graphics.Attributes() {
		b, ok := d.buffers[a.Buffer.ID()]
		if !ok {
			return invalid("attribute %q: unknown buffer %d", a.Key, a.Buffer.ID())
		}
		vertexBufs = append(vertexBufs, b.buf)
	}
	var (
		indexBuf   hal.Buffer
		indexCount uint32
	)
	if idx, ok := va.graphics.Indices(); ok {
		b, ok := d.buffers[idx.ID()]
		if !ok {
			return invalid("unknown index buffer %d", idx.ID())
		}
		indexBuf, indexCount = b.buf, uint32(idx.Size()) //nolint:gosec // buffer sizes fit uint32
	}

	bindGroup, err := d.bindGroup(prog, textures)
	if err != nil {
		return err
	}
	if bindGroup != nil {
		defer d.device.DestroyBindGroup(bindGroup)
	}

	record := func(rp hal.RenderPassEncoder) {
		rp.SetPipeline(pl.pipeline)
		if bindGroup != nil {
			rp.SetBindGroup(0, bindGroup, nil)
		}
		for slot, buf := range vertexBufs {
			rp.SetVertexBuffer(uint32(slot), buf, 0) //nolint:gosec // attribute count is small
		}
		if indexBuf != nil {
			rp.SetIndexBuffer(indexBuf, va.indexFormat, 0)
			rp.DrawIndexed(indexCount, 1, 0, 0, 0)
		} else {
			rp.Draw(uint32(va.graphics.Vertices()), 1, 0, 0) //nolint:gosec // vertex count fits uint32
		}
	}
	return d.submitPass(fmt.Sprintf("g3d_draw_%d", obj.Pipeline()), fb, gputypes.LoadOpLoad, gputypes.Color{}, record)
}

// textureView returns the view a draw samples for id. The colour output
// of a framebuffer is sampled through its colour view; the framebuffer is
// returned with it.
func (d *Device) textureView(id descriptor.TextureID) (hal.TextureView, *gpuFrameBuffer, bool) {
	if t, ok := d.textures[id]; ok {
		return t.view, nil, true
	}
	for _, fb := range d.framebuffers {
		if fb.desc.Texture().ID() == id {
			return fb.colorView, fb, true
		}
	}
	return nil, nil, false
}

// bindGroup builds group 0 for a draw, or returns nil when the program
// binds nothing.
func (d *Device) bindGroup(p *gpuProgram, textures []descriptor.Texture) (hal.BindGroup, error) {
	if p.bindLayout == nil {
		return nil, nil //nolint:nilnil // no bind group needed
	}
	var entries []gputypes.BindGroupEntry
	if p.uniforms != nil {
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  0,
			Resource: gputypes.BufferBinding{Buffer: p.uniforms.NativeHandle(), Offset: 0, Size: uint64(len(p.shadow))},
		})
	}
	if len(textures) > 0 {
		sampler, err := d.linearSampler()
		if err != nil {
			return nil, err
		}
		for i, t := range textures {
			view, _, ok := d.textureView(t.ID())
			if !ok {
				return nil, invalid("unknown texture %d", t.ID())
			}
			base := uint32(1 + 2*i) //nolint:gosec // sampler count is small
			entries = append(entries,
				gputypes.BindGroupEntry{Binding: base, Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()}},
				gputypes.BindGroupEntry{Binding: base + 1, Resource: gputypes.SamplerBinding{Sampler: sampler.NativeHandle()}},
			)
		}
	}
	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   fmt.Sprintf("g3d_bind_group_%d", p.desc.ID()),
		Layout:  p.bindLayout,
		Entries: entries,
	})
	if err != nil {
		return nil, halError("create bind group", err)
	}
	return bg, nil
}

// submitPass encodes one render pass into fb, submits it and waits for
// completion.
func (d *Device) submitPass(label string, fb *gpuFrameBuffer, load gputypes.LoadOp, clearValue gputypes.Color, record func(hal.RenderPassEncoder)) error {
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: label + "_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: label + "_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       fb.colorView,
				LoadOp:     load,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: clearValue,
			},
		},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:              fb.depthView,
			DepthLoadOp:       load,
			DepthStoreOp:      gputypes.StoreOpStore,
			DepthClearValue:   1.0,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpDiscard,
			StencilClearValue: 0,
		},
	})
	if record != nil {
		record(rp)
	}
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	if _, err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if err := d.device.WaitIdle(); err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	return nil
}
