// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/g3d/backend"
	"github.com/gogpu/g3d/backend/budget"
	"github.com/gogpu/g3d/descriptor"
)

// BackendNoop is the registry name of the wgpu device on the noop HAL.
const BackendNoop = "wgpu-noop"

// Default size of the target used by Draw when no framebuffer is given.
const (
	DefaultTargetWidth  = 640
	DefaultTargetHeight = 480
)

func init() {
	backend.Register(backend.BackendWGPU, func() (backend.Device, error) {
		return Open(gputypes.BackendVulkan)
	})
	backend.Register(BackendNoop, func() (backend.Device, error) {
		return NewNoop()
	})
}

// Option configures a Device.
type Option func(*Device)

// WithBudget accounts buffer, texture and framebuffer memory against b.
func WithBudget(b *budget.Budget) Option {
	return func(d *Device) {
		if b != nil {
			d.budget = b
		}
	}
}

// WithLogger sets the logger for device lifecycle and per-call debug
// records.
func WithLogger(l *slog.Logger) Option {
	return func(d *Device) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithTargetSize sets the size of the default draw target.
func WithTargetSize(width, height int) Option {
	return func(d *Device) {
		if width > 0 && height > 0 {
			d.targetW, d.targetH = width, height
		}
	}
}

// Device is a backend.Device on a hal.Device.
//
// Device is not safe for concurrent use.
type Device struct {
	device hal.Device
	queue  hal.Queue

	// release destroys the hal device and instance when the Device opened
	// them itself.
	release func()

	budget *budget.Budget
	logger *slog.Logger

	nextID uint64
	closed bool

	buffers      map[descriptor.BufferID]*gpuBuffer
	textures     map[descriptor.TextureID]*gpuTexture
	framebuffers map[descriptor.FrameBufferID]*gpuFrameBuffer
	programs     map[descriptor.ProgramID]*gpuProgram
	vaos         map[descriptor.VertexArrayID]*vertexArray
	pipelines    map[descriptor.PipelineID]*gpuPipeline

	sampler hal.Sampler

	targetW, targetH int
	target           *descriptor.FrameBuffer
}

var _ backend.Device = (*Device)(nil)

// New creates a device on an existing hal device and queue. The caller
// keeps ownership of both.
func New(device hal.Device, queue hal.Queue, opts ...Option) (*Device, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("%w: nil hal device or queue", backend.ErrBackendNotAvailable)
	}
	d := &Device{
		device:       device,
		queue:        queue,
		budget:       budget.New(0),
		logger:       slog.New(slog.DiscardHandler),
		buffers:      make(map[descriptor.BufferID]*gpuBuffer),
		textures:     make(map[descriptor.TextureID]*gpuTexture),
		framebuffers: make(map[descriptor.FrameBufferID]*gpuFrameBuffer),
		programs:     make(map[descriptor.ProgramID]*gpuProgram),
		vaos:         make(map[descriptor.VertexArrayID]*vertexArray),
		pipelines:    make(map[descriptor.PipelineID]*gpuPipeline),
		targetW:      DefaultTargetWidth,
		targetH:      DefaultTargetHeight,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// NewFromProvider creates a device sharing the GPU of a host application.
// The provider must implement HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue.
func NewFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: provider does not expose HAL types", backend.ErrBackendNotAvailable)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: provider HalDevice is not hal.Device", backend.ErrBackendNotAvailable)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: provider HalQueue is not hal.Queue", backend.ErrBackendNotAvailable)
	}
	return New(device, queue, opts...)
}

// Open creates a device on the first discrete or integrated GPU of a
// registered HAL backend. The HAL backend package must be imported for
// its init() to register it.
func Open(api gputypes.Backend, opts ...Option) (*Device, error) {
	hb, ok := hal.GetBackend(api)
	if !ok {
		return nil, fmt.Errorf("%w: hal backend %v not registered", backend.ErrBackendNotAvailable, api)
	}
	instance, err := hb.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %w", backend.ErrBackendNotAvailable, err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: no GPU adapters found", backend.ErrBackendNotAvailable)
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("%w: open device: %w", backend.ErrBackendNotAvailable, err)
	}
	d, _ := New(openDev.Device, openDev.Queue, opts...)
	d.release = func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	d.logger.Info("wgpu: device opened", "adapter", selected.Info.Name)
	return d, nil
}

// NewNoop creates a device on the noop HAL.
func NewNoop(opts ...Option) (*Device, error) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: noop instance: %w", backend.ErrBackendNotAvailable, err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: noop HAL has no adapter", backend.ErrBackendNotAvailable)
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("%w: open noop device: %w", backend.ErrBackendNotAvailable, err)
	}
	d, _ := New(openDev.Device, openDev.Queue, opts...)
	d.release = func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	d.logger.Info("wgpu: noop device opened")
	return d, nil
}

// Name implements backend.Device.
func (d *Device) Name() string { return backend.BackendWGPU }

// HalDevice returns the underlying hal device.
func (d *Device) HalDevice() hal.Device { return d.device }

// Budget returns the budget the device accounts against.
func (d *Device) Budget() *budget.Budget { return d.budget }

func (d *Device) newID() uint64 {
	d.nextID++
	return d.nextID
}

func (d *Device) check() error {
	if d.closed {
		return backend.ErrClosed
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", backend.ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// halError wraps an error of a hal create call.
func halError(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", backend.ErrOutOfMemory, what, err)
}

// Close implements backend.Device. Objects still allocated are destroyed
// and reported in the returned error.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}

	if d.target != nil {
		if fb, ok := d.framebuffers[d.target.ID()]; ok {
			d.destroyFrameBuffer(fb)
		}
		d.target = nil
	}

	var leaked []string
	count := func(kind string, n int) {
		if n > 0 {
			leaked = append(leaked, fmt.Sprintf("%d %s", n, kind))
		}
	}
	count("pipeline", len(d.pipelines))
	count("vertexarray", len(d.vaos))
	count("program", len(d.programs))
	count("framebuffer", len(d.framebuffers))
	count("texture", len(d.textures))
	count("buffer", len(d.buffers))

	for _, p := range d.pipelines {
		d.device.DestroyRenderPipeline(p.pipeline)
	}
	for _, p := range d.programs {
		d.destroyProgram(p)
	}
	for _, fb := range d.framebuffers {
		d.destroyFrameBuffer(fb)
	}
	for _, t := range d.textures {
		d.destroyTexture(t)
	}
	for _, b := range d.buffers {
		d.destroyBuffer(b)
	}
	clear(d.pipelines)
	clear(d.vaos)
	clear(d.programs)

	if d.sampler != nil {
		d.device.DestroySampler(d.sampler)
		d.sampler = nil
	}
	d.closed = true
	if d.release != nil {
		d.release()
		d.release = nil
	}
	d.logger.Info("wgpu: device closed")

	if len(leaked) == 0 {
		return nil
	}
	sort.Strings(leaked)
	return errors.New("wgpu: closed with live objects: " + fmt.Sprint(leaked))
}
