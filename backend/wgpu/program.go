// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/g3d/backend"
	"github.com/gogpu/g3d/descriptor"
)

type gpuProgram struct {
	desc descriptor.Program
	src  backend.ProgramSource

	module     hal.ShaderModule
	bindLayout hal.BindGroupLayout // nil when the program binds nothing
	pipeLayout hal.PipelineLayout

	// uniform block, nil when no uniform is declared
	offsets  map[string]int
	ends     map[string]int
	uniforms hal.Buffer
	shadow   []byte
}

// compileWGSL compiles WGSL source to SPIR-V words.
func compileWGSL(src string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, err
	}
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = binary.LittleEndian.Uint32(spirvBytes[4*i:])
	}
	return code, nil
}

// bindGroupLayoutEntries returns the layout of group 0: the uniform block
// at binding 0 and a texture/sampler pair per sampler parameter.
func bindGroupLayoutEntries(hasUniforms bool, samplers int) []gputypes.BindGroupLayoutEntry {
	var entries []gputypes.BindGroupLayoutEntry
	if hasUniforms {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		})
	}
	for i := range samplers {
		base := uint32(1 + 2*i) //nolint:gosec // sampler count is small
		entries = append(entries,
			gputypes.BindGroupLayoutEntry{
				Binding:    base,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			gputypes.BindGroupLayoutEntry{
				Binding:    base + 1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		)
	}
	return entries
}

// CreateProgram implements backend.Programs.
func (d *Device) CreateProgram(src backend.ProgramSource) (descriptor.Program, error) {
	if err := d.check(); err != nil {
		return descriptor.Program{}, err
	}
	if src.VertexEntry == "" || src.FragmentEntry == "" {
		return descriptor.Program{}, invalid("program %q without entry points", src.Name)
	}
	seen := make(map[string]bool, len(src.Uniforms))
	for _, u := range src.Uniforms {
		if u.Kind.Scalars() == 0 {
			return descriptor.Program{}, invalid("uniform %q of kind %v", u.Name, u.Kind)
		}
		if seen[u.Name] {
			return descriptor.Program{}, invalid("uniform %q declared twice", u.Name)
		}
		seen[u.Name] = true
	}
	code, err := compileWGSL(src.Source)
	if err != nil {
		return descriptor.Program{}, invalid("compile program %q: %v", src.Name, err)
	}

	id := d.newID()
	label := fmt.Sprintf("g3d_program_%d", id)
	p := &gpuProgram{desc: descriptor.NewProgram(descriptor.ProgramID(id), src.Name), src: src}
	p.module, err = d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: code},
	})
	if err != nil {
		return descriptor.Program{}, invalid("shader module %q: %v", src.Name, err)
	}

	offsets, size := descriptor.UniformLayout(src.Uniforms)
	var layouts []hal.BindGroupLayout
	if entries := bindGroupLayoutEntries(size > 0, len(src.Samplers)); len(entries) > 0 {
		p.bindLayout, err = d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   label + "_bind_layout",
			Entries: entries,
		})
		if err != nil {
			d.destroyProgram(p)
			return descriptor.Program{}, halError("create bind group layout", err)
		}
		layouts = append(layouts, p.bindLayout)
	}
	p.pipeLayout, err = d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label + "_pipe_layout",
		BindGroupLayouts: layouts,
	})
	if err != nil {
		d.destroyProgram(p)
		return descriptor.Program{}, halError("create pipeline layout", err)
	}

	if size > 0 {
		p.offsets = offsets
		p.ends = make(map[string]int, len(src.Uniforms))
		for i, u := range src.Uniforms {
			end := size
			if i+1 < len(src.Uniforms) {
				end = offsets[src.Uniforms[i+1].Name]
			}
			p.ends[u.Name] = end
		}
		p.shadow = make([]byte, size)
		p.uniforms, err = d.device.CreateBuffer(&hal.BufferDescriptor{
			Label: label + "_uniforms",
			Size:  uint64(size),
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			d.destroyProgram(p)
			return descriptor.Program{}, halError("create uniform buffer", err)
		}
	}

	d.programs[p.desc.ID()] = p
	d.logger.Debug("wgpu: program created", "id", id, "name", src.Name, "uniform_bytes", size)
	return p.desc, nil
}

// SetUniform implements backend.Programs.
func (d *Device) SetUniform(prog descriptor.Program, name string, data []byte) error {
	if err := d.check(); err != nil {
		return err
	}
	p, ok := d.programs[prog.ID()]
	if !ok {
		return invalid("unknown program %d", prog.ID())
	}
	off, ok := p.offsets[name]
	if !ok {
		return invalid("program %q has no uniform %q", p.src.Name, name)
	}
	if off+len(data) > p.ends[name] {
		return invalid("%d bytes for uniform %q", len(data), name)
	}
	copy(p.shadow[off:], data)
	if err := d.queue.WriteBuffer(p.uniforms, uint64(off), p.shadow[off:p.ends[name]]); err != nil { //nolint:gosec // offset from layout
		return fmt.Errorf("write uniform %q: %w", name, err)
	}
	return nil
}

// DeleteProgram implements backend.Programs.
func (d *Device) DeleteProgram(prog descriptor.Program) error {
	if err := d.check(); err != nil {
		return err
	}
	p, ok := d.programs[prog.ID()]
	if !ok {
		return invalid("unknown program %d", prog.ID())
	}
	d.destroyProgram(p)
	return nil
}

func (d *Device) destroyProgram(p *gpuProgram) {
	if p.uniforms != nil {
		d.device.DestroyBuffer(p.uniforms)
	}
	if p.pipeLayout != nil {
		d.device.DestroyPipelineLayout(p.pipeLayout)
	}
	if p.bindLayout != nil {
		d.device.DestroyBindGroupLayout(p.bindLayout)
	}
	if p.module != nil {
		d.device.DestroyShaderModule(p.module)
	}
	delete(d.programs, p.desc.ID())
}
