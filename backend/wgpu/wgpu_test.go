// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/g3d/backend"
	"github.com/gogpu/g3d/backend/budget"
	"github.com/gogpu/g3d/descriptor"
)

const flatWGSL = `
struct Uniforms {
    mvp: mat4x4<f32>,
    tint: vec4<f32>,
}

@group(0) @binding(0) var<uniform> u: Uniforms;

@vertex
fn vs_main(@location(0) position: vec3<f32>) -> @builtin(position) vec4<f32> {
    return u.mvp * vec4<f32>(position, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return u.tint;
}
`

const texturedWGSL = `
struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@group(0) @binding(1) var albedo: texture_2d<f32>;
@group(0) @binding(2) var albedo_sampler: sampler;

@vertex
fn vs_main(@location(0) position: vec3<f32>, @location(1) uv: vec2<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = vec4<f32>(position, 1.0);
    out.uv = uv;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return textureSample(albedo, albedo_sampler, in.uv);
}
`

func flatSource() backend.ProgramSource {
	return backend.ProgramSource{
		Name:          "flat",
		Source:        flatWGSL,
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
		Uniforms: []descriptor.Uniform{
			{Name: "mvp", Kind: descriptor.UniformMat4},
			{Name: "tint", Kind: descriptor.UniformVec4},
		},
	}
}

func texturedSource() backend.ProgramSource {
	return backend.ProgramSource{
		Name:          "textured",
		Source:        texturedWGSL,
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
		Samplers:      []string{"albedo"},
	}
}

// newNoopDevice creates a device on the noop HAL that is closed at the end
// of the test.
func newNoopDevice(t *testing.T, opts ...Option) *Device {
	t.Helper()
	d, err := NewNoop(opts...)
	if err != nil {
		t.Fatalf("NewNoop: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func floatBytes(vals ...float32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}

// triangle creates a position buffer and a non-indexed graphics object.
func triangle(t *testing.T, d *Device) descriptor.GraphicsObject {
	t.Helper()
	pos, err := d.CreateBuffer(descriptor.Float32, 9, 12)
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	if err := d.WriteBuffer(pos, 0, floatBytes(0, 0.5, 0, -0.5, -0.5, 0, 0.5, -0.5, 0)); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}
	g, err := descriptor.NewGraphicsObject(nil, 3, descriptor.Attribute{Key: "VERTEX", Buffer: pos})
	if err != nil {
		t.Fatalf("NewGraphicsObject: %v", err)
	}
	vao, err := d.CreateVertexArray(g)
	if err != nil {
		t.Fatalf("CreateVertexArray: %v", err)
	}
	return g.WithVertexArray(vao)
}

func TestNoopDeviceName(t *testing.T) {
	d := newNoopDevice(t)
	if got := d.Name(); got != backend.BackendWGPU {
		t.Errorf("Name() = %q, want %q", got, backend.BackendWGPU)
	}
	if d.HalDevice() == nil {
		t.Error("HalDevice() = nil")
	}
}

func TestNewRejectsNil(t *testing.T) {
	if _, err := New(nil, nil); !errors.Is(err, backend.ErrBackendNotAvailable) {
		t.Errorf("New(nil, nil) error = %v, want ErrBackendNotAvailable", err)
	}
}

// testProvider is a gpucontext.DeviceProvider without HAL accessors.
type testProvider struct{}

func (testProvider) Device() gpucontext.Device             { return nil }
func (testProvider) Queue() gpucontext.Queue               { return nil }
func (testProvider) Adapter() gpucontext.Adapter           { return nil }
func (testProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{} }
func (testProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }

// halProvider exposes HAL objects the way a host application does.
type halProvider struct {
	testProvider
	device, queue any
}

func (p halProvider) HalDevice() any { return p.device }
func (p halProvider) HalQueue() any  { return p.queue }

func TestNewFromProvider(t *testing.T) {
	host := newNoopDevice(t)

	tests := []struct {
		name     string
		provider gpucontext.DeviceProvider
		wantErr  bool
	}{
		{"no hal accessors", testProvider{}, true},
		{"wrong hal types", halProvider{device: "device", queue: 1}, true},
		{"nil queue", halProvider{device: host.device}, true},
		{"shared hal device", halProvider{device: host.device, queue: host.queue}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewFromProvider(tt.provider)
			if tt.wantErr {
				if !errors.Is(err, backend.ErrBackendNotAvailable) {
					t.Errorf("NewFromProvider error = %v, want ErrBackendNotAvailable", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewFromProvider: %v", err)
			}
			if d.HalDevice() != host.device {
				t.Error("device does not share the host's hal device")
			}
			// the host keeps ownership, so Close must not destroy it
			if err := d.Close(); err != nil {
				t.Errorf("Close: %v", err)
			}
			if _, err := host.CreateBuffer(descriptor.Float32, 1, 0); err != nil {
				t.Errorf("host CreateBuffer after shared Close: %v", err)
			}
		})
	}
}

func TestBufferLifecycle(t *testing.T) {
	b := budget.New(0)
	d := newNoopDevice(t, WithBudget(b))

	buf, err := d.CreateBuffer(descriptor.Uint16, 3, 0)
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	if buf.ID() == descriptor.InvalidID {
		t.Fatal("CreateBuffer returned InvalidID")
	}
	// 6 bytes rounded up to the copy alignment
	if got := b.Stats().UsedBytes; got != 8 {
		t.Errorf("UsedBytes = %d, want 8", got)
	}

	if err := d.WriteBuffer(buf, 2, []byte{1, 2}); err != nil {
		t.Fatalf("unaligned WriteBuffer: %v", err)
	}
	if got := d.buffers[buf.ID()].shadow[:6]; string(got) != string([]byte{0, 0, 1, 2, 0, 0}) {
		t.Errorf("shadow = %v, want [0 0 1 2 0 0]", got)
	}
	if err := d.WriteBuffer(buf, 4, []byte{1, 2, 3}); !errors.Is(err, backend.ErrInvalidRequest) {
		t.Errorf("overflowing WriteBuffer error = %v, want ErrInvalidRequest", err)
	}

	if err := d.DeleteBuffer(buf); err != nil {
		t.Fatalf("DeleteBuffer: %v", err)
	}
	if got := b.Stats().UsedBytes; got != 0 {
		t.Errorf("UsedBytes after delete = %d, want 0", got)
	}
	if err := d.DeleteBuffer(buf); !errors.Is(err, backend.ErrInvalidRequest) {
		t.Errorf("second DeleteBuffer error = %v, want ErrInvalidRequest", err)
	}
}

func TestBufferBudgetExceeded(t *testing.T) {
	d := newNoopDevice(t, WithBudget(budget.New(16)))
	if _, err := d.CreateBuffer(descriptor.Float32, 8, 0); !errors.Is(err, backend.ErrOutOfMemory) {
		t.Fatalf("CreateBuffer over budget error = %v, want ErrOutOfMemory", err)
	}
	if len(d.buffers) != 0 {
		t.Errorf("%d buffers stored after failure, want 0", len(d.buffers))
	}
}

func TestCreateBufferInvalid(t *testing.T) {
	d := newNoopDevice(t)
	if _, err := d.CreateBuffer(descriptor.ElementType(99), 1, 0); !errors.Is(err, backend.ErrInvalidRequest) {
		t.Errorf("unknown type error = %v, want ErrInvalidRequest", err)
	}
	if _, err := d.CreateBuffer(descriptor.Float32, -1, 0); !errors.Is(err, backend.ErrInvalidRequest) {
		t.Errorf("negative size error = %v, want ErrInvalidRequest", err)
	}
}

func TestTextureLifecycle(t *testing.T) {
	d := newNoopDevice(t)
	tex, err := d.CreateTexture(descriptor.DefaultTextureFormat(), 4, 4)
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	if tex.Width() != 4 || tex.Height() != 4 {
		t.Errorf("size = %dx%d, want 4x4", tex.Width(), tex.Height())
	}
	if err := d.WriteTexture(tex, image.Rect(0, 0, 2, 2), make([]byte, 16)); err != nil {
		t.Fatalf("WriteTexture: %v", err)
	}
	if err := d.WriteTexture(tex, image.Rect(3, 3, 5, 5), make([]byte, 16)); !errors.Is(err, backend.ErrInvalidRequest) {
		t.Errorf("out of bounds WriteTexture error = %v, want ErrInvalidRequest", err)
	}
	if err := d.WriteTexture(tex, image.Rect(0, 0, 2, 2), make([]byte, 3)); !errors.Is(err, backend.ErrInvalidRequest) {
		t.Errorf("short WriteTexture error = %v, want ErrInvalidRequest", err)
	}
	if err := d.DeleteTexture(tex); err != nil {
		t.Fatalf("DeleteTexture: %v", err)
	}
}

func TestCreateTextureUnsupportedFormat(t *testing.T) {
	d := newNoopDevice(t)
	f, err := descriptor.NewTextureFormat(descriptor.PixelRGB, descriptor.PixelRGB, descriptor.Float32, 3)
	if err != nil {
		t.Fatalf("NewTextureFormat: %v", err)
	}
	if _, err := d.CreateTexture(f, 2, 2); !errors.Is(err, backend.ErrInvalidRequest) {
		t.Errorf("CreateTexture(%v) error = %v, want ErrInvalidRequest", f, err)
	}
	if _, err := d.CreateTexture(descriptor.DefaultTextureFormat(), 0, 2); !errors.Is(err, backend.ErrInvalidRequest) {
		t.Errorf("zero width error = %v, want ErrInvalidRequest", err)
	}
}

func TestFrameBufferLifecycle(t *testing.T) {
	b := budget.New(0)
	d := newNoopDevice(t, WithBudget(b))
	fb, err := d.CreateFrameBuffer(8, 4)
	if err != nil {
		t.Fatalf("CreateFrameBuffer: %v", err)
	}
	if fb.Width() != 8 || fb.Height() != 4 {
		t.Errorf("size = %dx%d, want 8x4", fb.Width(), fb.Height())
	}
	if got := b.Stats().UsedBytes; got != 8*4*8 {
		t.Errorf("UsedBytes = %d, want %d", got, 8*4*8)
	}
	if err := d.Clear(&fb, color.Black); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := d.DeleteFrameBuffer(fb); err != nil {
		t.Fatalf("DeleteFrameBuffer: %v", err)
	}
	if got := b.Stats().UsedBytes; got != 0 {
		t.Errorf("UsedBytes after delete = %d, want 0", got)
	}
	if err := d.Clear(&fb, color.Black); !errors.Is(err, backend.ErrInvalidRequest) {
		t.Errorf("Clear on deleted framebuffer error = %v, want ErrInvalidRequest", err)
	}
}

func TestProgramUniforms(t *testing.T) {
	d := newNoopDevice(t)
	p, err := d.CreateProgram(flatSource())
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	if p.Name() != "flat" {
		t.Errorf("Name() = %q, want flat", p.Name())
	}
	if err := d.SetUniform(p, "tint", floatBytes(1, 0, 0, 1)); err != nil {
		t.Fatalf("SetUniform(tint): %v", err)
	}
	gp := d.programs[p.ID()]
	if got := gp.shadow[64:80]; string(got) != string(floatBytes(1, 0, 0, 1)) {
		t.Errorf("tint bytes = %v", got)
	}
	if err := d.SetUniform(p, "tint", make([]byte, 20)); !errors.Is(err, backend.ErrInvalidRequest) {
		t.Errorf("oversized SetUniform error = %v, want ErrInvalidRequest", err)
	}
	if err := d.SetUniform(p, "missing", nil); !errors.Is(err, backend.ErrInvalidRequest) {
		t.Errorf("undeclared SetUniform error = %v, want ErrInvalidRequest", err)
	}
	if err := d.DeleteProgram(p); err != nil {
		t.Fatalf("DeleteProgram: %v", err)
	}
}

func TestCreateProgramInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*backend.ProgramSource)
	}{
		{"bad source", func(s *backend.ProgramSource) { s.Source = "this is not wgsl" }},
		{"no entry", func(s *backend.ProgramSource) { s.VertexEntry = "" }},
		{"duplicate uniform", func(s *backend.ProgramSource) {
			s.Uniforms = append(s.Uniforms, descriptor.Uniform{Name: "mvp", Kind: descriptor.UniformMat4})
		}},
		{"invalid uniform kind", func(s *backend.ProgramSource) {
			s.Uniforms = []descriptor.Uniform{{Name: "x", Kind: descriptor.UniformInvalid}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newNoopDevice(t)
			src := flatSource()
			tt.mutate(&src)
			if _, err := d.CreateProgram(src); !errors.Is(err, backend.ErrInvalidRequest) {
				t.Errorf("CreateProgram error = %v, want ErrInvalidRequest", err)
			}
			if len(d.programs) != 0 {
				t.Errorf("%d programs stored after failure, want 0", len(d.programs))
			}
		})
	}
}

func TestVertexArrayRejectsIntegerAttribute(t *testing.T) {
	d := newNoopDevice(t)
	ints, err := d.CreateBuffer(descriptor.Int32, 3, 4)
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	g, err := descriptor.NewGraphicsObject(nil, 3, descriptor.Attribute{Key: "ID", Buffer: ints})
	if err != nil {
		t.Fatalf("NewGraphicsObject: %v", err)
	}
	if _, err := d.CreateVertexArray(g); !errors.Is(err, backend.ErrInvalidRequest) {
		t.Errorf("CreateVertexArray error = %v, want ErrInvalidRequest", err)
	}
	if err := d.DeleteBuffer(ints); err != nil {
		t.Fatalf("DeleteBuffer: %v", err)
	}
}

func TestDrawFlatTriangle(t *testing.T) {
	d := newNoopDevice(t, WithTargetSize(32, 32))
	p, err := d.CreateProgram(flatSource())
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	g := triangle(t, d)
	pl, err := d.CreatePipeline(p, g)
	if err != nil {
		t.Fatalf("CreatePipeline: %v", err)
	}
	obj := descriptor.NewRenderedObject(p, g, pl)

	if err := d.Clear(nil, color.White); err != nil {
		t.Fatalf("Clear(default): %v", err)
	}
	if err := d.Draw(nil, obj, nil); err != nil {
		t.Fatalf("Draw(default): %v", err)
	}
	if err := d.Draw(nil, obj, []descriptor.Texture{{}}); !errors.Is(err, backend.ErrInvalidRequest) {
		t.Errorf("Draw with extra texture error = %v, want ErrInvalidRequest", err)
	}

	if err := d.DeletePipeline(pl); err != nil {
		t.Fatalf("DeletePipeline: %v", err)
	}
	if err := d.Draw(nil, obj, nil); !errors.Is(err, backend.ErrInvalidRequest) {
		t.Errorf("Draw after DeletePipeline error = %v, want ErrInvalidRequest", err)
	}
}

func TestDrawIndexedTextured(t *testing.T) {
	d := newNoopDevice(t)
	p, err := d.CreateProgram(texturedSource())
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	pos, err := d.CreateBuffer(descriptor.Float32, 12, 12)
	if err != nil {
		t.Fatalf("CreateBuffer(pos): %v", err)
	}
	uv, err := d.CreateBuffer(descriptor.Float32, 8, 8)
	if err != nil {
		t.Fatalf("CreateBuffer(uv): %v", err)
	}
	idx, err := d.CreateBuffer(descriptor.Uint16, 6, 0)
	if err != nil {
		t.Fatalf("CreateBuffer(idx): %v", err)
	}
	g, err := descriptor.NewGraphicsObject(&idx, 4,
		descriptor.Attribute{Key: "VERTEX", Buffer: pos},
		descriptor.Attribute{Key: "TEXCOORD", Buffer: uv},
	)
	if err != nil {
		t.Fatalf("NewGraphicsObject: %v", err)
	}
	vao, err := d.CreateVertexArray(g)
	if err != nil {
		t.Fatalf("CreateVertexArray: %v", err)
	}
	g = g.WithVertexArray(vao)
	pl, err := d.CreatePipeline(p, g)
	if err != nil {
		t.Fatalf("CreatePipeline: %v", err)
	}
	tex, err := d.CreateTexture(descriptor.DefaultTextureFormat(), 2, 2)
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	fb, err := d.CreateFrameBuffer(16, 16)
	if err != nil {
		t.Fatalf("CreateFrameBuffer: %v", err)
	}

	obj := descriptor.NewRenderedObject(p, g, pl)
	if err := d.Draw(&fb, obj, []descriptor.Texture{tex}); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if err := d.Draw(&fb, obj, nil); !errors.Is(err, backend.ErrInvalidRequest) {
		t.Errorf("Draw without texture error = %v, want ErrInvalidRequest", err)
	}
	if d.sampler == nil {
		t.Error("sampler not created by textured draw")
	}

	// the framebuffer's colour output is sampled into the default target
	mirror := []descriptor.Texture{fb.Texture()}
	if err := d.Draw(nil, obj, mirror); err != nil {
		t.Fatalf("Draw sampling a framebuffer: %v", err)
	}
	if err := d.Draw(&fb, obj, mirror); !errors.Is(err, backend.ErrInvalidRequest) {
		t.Errorf("Draw into the sampled framebuffer error = %v, want ErrInvalidRequest", err)
	}
	if err := d.DeleteFrameBuffer(fb); err != nil {
		t.Fatalf("DeleteFrameBuffer: %v", err)
	}
	if err := d.Draw(nil, obj, mirror); !errors.Is(err, backend.ErrInvalidRequest) {
		t.Errorf("Draw sampling a deleted framebuffer error = %v, want ErrInvalidRequest", err)
	}
}

func TestCloseReportsLiveObjects(t *testing.T) {
	d, err := NewNoop()
	if err != nil {
		t.Fatalf("NewNoop: %v", err)
	}
	if _, err := d.CreateBuffer(descriptor.Float32, 4, 0); err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	if _, err := d.CreateTexture(descriptor.DefaultTextureFormat(), 1, 1); err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	// the lazily created default target is not a leak
	if err := d.Clear(nil, color.Black); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	err = d.Close()
	if err == nil {
		t.Fatal("Close with live objects returned nil")
	}
	for _, want := range []string{"1 buffer", "1 texture"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Close error %q does not mention %q", err, want)
		}
	}
	if strings.Contains(err.Error(), "framebuffer") {
		t.Errorf("Close error %q reports the default target", err)
	}
	if d.Budget().Stats().UsedBytes != 0 {
		t.Errorf("UsedBytes after Close = %d, want 0", d.Budget().Stats().UsedBytes)
	}

	if _, err := d.CreateBuffer(descriptor.Float32, 1, 0); !errors.Is(err, backend.ErrClosed) {
		t.Errorf("CreateBuffer after Close error = %v, want ErrClosed", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
}

func TestRegistered(t *testing.T) {
	for _, name := range []string{backend.BackendWGPU, BackendNoop} {
		if !backend.IsRegistered(name) {
			t.Errorf("backend %q not registered", name)
		}
	}
	d, err := backend.Get(BackendNoop)
	if err != nil {
		t.Fatalf("Get(%q): %v", BackendNoop, err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
