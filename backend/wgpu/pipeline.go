// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/g3d/descriptor"
)

// vertexArray is the vertex layout of a graphics object. Buffers are
// looked up by ID at draw time; they outlive the vertex array.
type vertexArray struct {
	graphics    descriptor.GraphicsObject
	layouts     []gputypes.VertexBufferLayout
	indexFormat gputypes.IndexFormat
}

type gpuPipeline struct {
	program  descriptor.ProgramID
	vao      descriptor.VertexArrayID
	pipeline hal.RenderPipeline
}

// vertexFormat maps a float buffer with the given stride to a vertex
// format. A zero stride means one value per vertex.
func vertexFormat(buf descriptor.DataBuffer) (gputypes.VertexFormat, uint64, error) {
	var none gputypes.VertexFormat
	if !buf.Type().IsFloat() {
		return none, 0, invalid("vertex attribute of type %v", buf.Type())
	}
	stride := buf.Stride()
	if stride == 0 {
		stride = buf.Type().Size()
	}
	switch stride / buf.Type().Size() {
	case 1:
		return gputypes.VertexFormatFloat32, uint64(stride), nil //nolint:gosec // small stride
	case 2:
		return gputypes.VertexFormatFloat32x2, uint64(stride), nil //nolint:gosec // small stride
	case 3:
		return gputypes.VertexFormatFloat32x3, uint64(stride), nil //nolint:gosec // small stride
	case 4:
		return gputypes.VertexFormatFloat32x4, uint64(stride), nil //nolint:gosec // small stride
	default:
		return none, 0, invalid("vertex stride %d", stride)
	}
}

// CreateVertexArray implements backend.VertexArrays.
func (d *Device) CreateVertexArray(g descriptor.GraphicsObject) (descriptor.VertexArrayID, error) {
	if err := d.check(); err != nil {
		return descriptor.InvalidID, err
	}
	va := &vertexArray{graphics: g}
	if idx, ok := g.Indices(); ok {
		if _, live := d.buffers[idx.ID()]; !live {
			return descriptor.InvalidID, invalid("unknown index buffer %d", idx.ID())
		}
		switch idx.Type() {
		case descriptor.Uint16:
			va.indexFormat = gputypes.IndexFormatUint16
		case descriptor.Uint32:
			va.indexFormat = gputypes.IndexFormatUint32
		default:
			return descriptor.InvalidID, invalid("index type %v", idx.Type())
		}
	}
	for i, a := range g.Attributes() {
		if _, live := d.buffers[a.Buffer.ID()]; !live {
			return descriptor.InvalidID, invalid("attribute %q: unknown buffer %d", a.Key, a.Buffer.ID())
		}
		format, stride, err := vertexFormat(a.Buffer)
		if err != nil {
			return descriptor.InvalidID, fmt.Errorf("attribute %q: %w", a.Key, err)
		}
		va.layouts = append(va.layouts, gputypes.VertexBufferLayout{
			ArrayStride: stride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: format, Offset: 0, ShaderLocation: uint32(i)}, //nolint:gosec // attribute count is small
			},
		})
	}
	id := descriptor.VertexArrayID(d.newID())
	d.vaos[id] = va
	return id, nil
}

// DeleteVertexArray implements backend.VertexArrays.
func (d *Device) DeleteVertexArray(id descriptor.VertexArrayID) error {
	if err := d.check(); err != nil {
		return err
	}
	if _, ok := d.vaos[id]; !ok {
		return invalid("unknown vertex array %d", id)
	}
	delete(d.vaos, id)
	return nil
}

// CreatePipeline implements backend.Pipelines.
func (d *Device) CreatePipeline(prog descriptor.Program, g descriptor.GraphicsObject) (descriptor.PipelineID, error) {
	if err := d.check(); err != nil {
		return descriptor.InvalidID, err
	}
	p, ok := d.programs[prog.ID()]
	if !ok {
		return descriptor.InvalidID, invalid("unknown program %d", prog.ID())
	}
	va, ok := d.vaos[g.VertexArray()]
	if !ok {
		return descriptor.InvalidID, invalid("unknown vertex array %d", g.VertexArray())
	}

	id := d.newID()
	pipeline, err := d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  fmt.Sprintf("g3d_pipeline_%d", id),
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.module,
			EntryPoint: p.src.VertexEntry,
			Buffers:    va.layouts,
		},
		Fragment: &hal.FragmentState{
			Module:     p.module,
			EntryPoint: p.src.FragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    colorFormat,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		DepthStencil: &hal.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      gputypes.CompareFunctionLess,
			StencilFront: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
			StencilBack: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
			StencilReadMask:  0x00,
			StencilWriteMask: 0x00,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return descriptor.InvalidID, invalid("create pipeline for program %q: %v", p.src.Name, err)
	}
	d.pipelines[descriptor.PipelineID(id)] = &gpuPipeline{
		program:  prog.ID(),
		vao:      g.VertexArray(),
		pipeline: pipeline,
	}
	return descriptor.PipelineID(id), nil
}

// DeletePipeline implements backend.Pipelines.
func (d *Device) DeletePipeline(id descriptor.PipelineID) error {
	if err := d.check(); err != nil {
		return err
	}
	p, ok := d.pipelines[id]
	if !ok {
		return invalid("unknown pipeline %d", id)
	}
	d.device.DestroyRenderPipeline(p.pipeline)
	delete(d.pipelines, id)
	return nil
}
