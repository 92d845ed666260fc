// Package recording provides an in-memory backend.Device that records every
// primitive it receives.
//
// The recording device keeps buffer, texture and uniform contents in host
// memory, validates every request the way a GPU driver would and can be
// told to fail the next call of a given primitive. It draws nothing. It is
// used by tests and for dry runs of a scene.
package recording

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"slices"
	"sort"

	"github.com/gogpu/g3d/backend"
	"github.com/gogpu/g3d/backend/budget"
	"github.com/gogpu/g3d/descriptor"
)

// Primitive names used in Call.Op and FailNext.
const (
	OpCreateBuffer      = "CreateBuffer"
	OpWriteBuffer       = "WriteBuffer"
	OpDeleteBuffer      = "DeleteBuffer"
	OpCreateTexture     = "CreateTexture"
	OpWriteTexture      = "WriteTexture"
	OpDeleteTexture     = "DeleteTexture"
	OpCreateFrameBuffer = "CreateFrameBuffer"
	OpDeleteFrameBuffer = "DeleteFrameBuffer"
	OpCreateProgram     = "CreateProgram"
	OpSetUniform        = "SetUniform"
	OpDeleteProgram     = "DeleteProgram"
	OpCreateVertexArray = "CreateVertexArray"
	OpDeleteVertexArray = "DeleteVertexArray"
	OpCreatePipeline    = "CreatePipeline"
	OpDeletePipeline    = "DeletePipeline"
	OpClear             = "Clear"
	OpDraw              = "Draw"
)

// Object kinds reported by Live.
const (
	KindBuffer      = "buffer"
	KindTexture     = "texture"
	KindFrameBuffer = "framebuffer"
	KindProgram     = "program"
	KindVertexArray = "vertexarray"
	KindPipeline    = "pipeline"
)

func init() {
	backend.Register(backend.BackendRecording, func() (backend.Device, error) {
		return New(), nil
	})
}

// Call is one recorded primitive.
type Call struct {
	Op string
	// ID is the object created, written, deleted or drawn.
	ID uint64
	// Err is the error returned to the caller, nil on success.
	Err error
}

// String implements fmt.Stringer.
func (c Call) String() string {
	if c.Err != nil {
		return fmt.Sprintf("%s(%d): %v", c.Op, c.ID, c.Err)
	}
	return fmt.Sprintf("%s(%d)", c.Op, c.ID)
}

type buffer struct {
	desc descriptor.DataBuffer
	data []byte
}

type texture struct {
	desc descriptor.Texture
	pix  []byte
}

type program struct {
	desc     descriptor.Program
	src      backend.ProgramSource
	offsets  map[string]int
	kinds    map[string]descriptor.UniformKind
	uniforms []byte
}

type pipeline struct {
	program descriptor.ProgramID
	vao     descriptor.VertexArrayID
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

// WithLogger sets the logger receiving one debug record per call.
func WithLogger(l *slog.Logger) Option {
	return func(d *Device) {
		if l != nil {
			d.logger = l
		}
	}
}

// Device is the recording backend.Device.
type Device struct {
	nextID uint64
	calls  []Call
	fail   map[string][]error
	closed bool

	budget *budget.Budget
	logger *slog.Logger

	buffers      map[descriptor.BufferID]*buffer
	textures     map[descriptor.TextureID]*texture
	framebuffers map[descriptor.FrameBufferID]descriptor.FrameBuffer
	programs     map[descriptor.ProgramID]*program
	vaos         map[descriptor.VertexArrayID]descriptor.GraphicsObject
	pipelines    map[descriptor.PipelineID]pipeline

	target *descriptor.FrameBuffer
}

var _ backend.Device = (*Device)(nil)

// New creates an empty recording device.
func New(opts ...Option) *Device {
	d := &Device{
		fail:         make(map[string][]error),
		budget:       budget.New(0),
		logger:       slog.New(slog.DiscardHandler),
		buffers:      make(map[descriptor.BufferID]*buffer),
		textures:     make(map[descriptor.TextureID]*texture),
		framebuffers: make(map[descriptor.FrameBufferID]descriptor.FrameBuffer),
		programs:     make(map[descriptor.ProgramID]*program),
		vaos:         make(map[descriptor.VertexArrayID]descriptor.GraphicsObject),
		pipelines:    make(map[descriptor.PipelineID]pipeline),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name implements backend.Device.
func (d *Device) Name() string { return backend.BackendRecording }

// FailNext makes the next call of op return err without side effects.
// Several failures for the same op are returned in order.
func (d *Device) FailNext(op string, err error) {
	d.fail[op] = append(d.fail[op], err)
}

// Calls returns the recorded calls in order.
func (d *Device) Calls() []Call {
	return slices.Clone(d.calls)
}

// Ops returns the names of the recorded calls in order.
func (d *Device) Ops() []string {
	ops := make([]string, len(d.calls))
	for i, c := range d.calls {
		ops[i] = c.Op
	}
	return ops
}

// Count returns how many times op was called successfully.
func (d *Device) Count(op string) int {
	n := 0
	for _, c := range d.calls {
		if c.Op == op && c.Err == nil {
			n++
		}
	}
	return n
}

// Reset forgets the recorded calls.
func (d *Device) Reset() { d.calls = d.calls[:0] }

// Live returns the number of allocated objects per kind. Kinds with no
// live object are omitted.
func (d *Device) Live() map[string]int {
	live := map[string]int{
		KindBuffer:      len(d.buffers),
		KindTexture:     len(d.textures),
		KindFrameBuffer: len(d.framebuffers),
		KindProgram:     len(d.programs),
		KindVertexArray: len(d.vaos),
		KindPipeline:    len(d.pipelines),
	}
	for k, n := range live {
		if n == 0 {
			delete(live, k)
		}
	}
	return live
}

// Budget returns the budget the device accounts against.
func (d *Device) Budget() *budget.Budget { return d.budget }

// BufferData returns the contents of a live buffer.
func (d *Device) BufferData(id descriptor.BufferID) ([]byte, bool) {
	b, ok := d.buffers[id]
	if !ok {
		return nil, false
	}
	return slices.Clone(b.data), true
}

// TexturePixels returns the tightly packed pixels of a live texture.
func (d *Device) TexturePixels(id descriptor.TextureID) ([]byte, bool) {
	t, ok := d.textures[id]
	if !ok {
		return nil, false
	}
	return slices.Clone(t.pix), true
}

// Uniform returns the stored bytes of a program's uniform.
func (d *Device) Uniform(id descriptor.ProgramID, name string) ([]byte, bool) {
	p, ok := d.programs[id]
	if !ok {
		return nil, false
	}
	off, ok := p.offsets[name]
	if !ok {
		return nil, false
	}
	n := 4 * p.kinds[name].Scalars()
	if p.kinds[name] == descriptor.UniformMat3 {
		n = 48
	}
	return slices.Clone(p.uniforms[off : off+n]), true
}

// record appends a call, logs it and returns err.
func (d *Device) record(op string, id uint64, err error) error {
	d.calls = append(d.calls, Call{Op: op, ID: id, Err: err})
	if err != nil {
		d.logger.Debug("recording: call failed", "op", op, "id", id, "error", err)
	} else {
		d.logger.Debug("recording: call", "op", op, "id", id)
	}
	return err
}

// begin checks the closed state and injected failures for op.
func (d *Device) begin(op string) error {
	if d.closed {
		return backend.ErrClosed
	}
	if errs := d.fail[op]; len(errs) > 0 {
		d.fail[op] = errs[1:]
		return errs[0]
	}
	return nil
}

func (d *Device) newID() uint64 {
	d.nextID++
	return d.nextID
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", backend.ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// CreateBuffer implements backend.Buffers.
func (d *Device) CreateBuffer(typ descriptor.ElementType, size, stride int) (descriptor.DataBuffer, error) {
	if err := d.begin(OpCreateBuffer); err != nil {
		return descriptor.DataBuffer{}, d.record(OpCreateBuffer, 0, err)
	}
	if !typ.Valid() {
		return descriptor.DataBuffer{}, d.record(OpCreateBuffer, 0, invalid("element type %v", typ))
	}
	id := d.newID()
	desc, err := descriptor.NewDataBuffer(descriptor.BufferID(id), typ, size, 0, stride)
	if err != nil {
		return descriptor.DataBuffer{}, d.record(OpCreateBuffer, 0, invalid("%v", err))
	}
	if err := d.budget.Reserve(budget.Key(KindBuffer, id), uint64(desc.ByteSize())); err != nil { //nolint:gosec // size validated
		return descriptor.DataBuffer{}, d.record(OpCreateBuffer, 0, err)
	}
	d.buffers[desc.ID()] = &buffer{desc: desc, data: make([]byte, desc.ByteSize())}
	return desc, d.record(OpCreateBuffer, id, nil)
}

// WriteBuffer implements backend.Buffers.
func (d *Device) WriteBuffer(buf descriptor.DataBuffer, offset int, data []byte) error {
	id := uint64(buf.ID())
	if err := d.begin(OpWriteBuffer); err != nil {
		return d.record(OpWriteBuffer, id, err)
	}
	b, ok := d.buffers[buf.ID()]
	if !ok {
		return d.record(OpWriteBuffer, id, invalid("unknown buffer %d", id))
	}
	if offset < 0 || offset+len(data) > len(b.data) {
		return d.record(OpWriteBuffer, id, invalid("write [%d, %d) outside buffer of %d bytes", offset, offset+len(data), len(b.data)))
	}
	copy(b.data[offset:], data)
	return d.record(OpWriteBuffer, id, nil)
}

// DeleteBuffer implements backend.Buffers.
func (d *Device) DeleteBuffer(buf descriptor.DataBuffer) error {
	id := uint64(buf.ID())
	if err := d.begin(OpDeleteBuffer); err != nil {
		return d.record(OpDeleteBuffer, id, err)
	}
	if _, ok := d.buffers[buf.ID()]; !ok {
		return d.record(OpDeleteBuffer, id, invalid("unknown buffer %d", id))
	}
	delete(d.buffers, buf.ID())
	d.budget.Return(budget.Key(KindBuffer, id))
	return d.record(OpDeleteBuffer, id, nil)
}

// CreateTexture implements backend.Textures.
func (d *Device) CreateTexture(format descriptor.TextureFormat, width, height int) (descriptor.Texture, error) {
	if err := d.begin(OpCreateTexture); err != nil {
		return descriptor.Texture{}, d.record(OpCreateTexture, 0, err)
	}
	if width <= 0 || height <= 0 {
		return descriptor.Texture{}, d.record(OpCreateTexture, 0, invalid("texture size %dx%d", width, height))
	}
	id := d.newID()
	desc, err := descriptor.NewTexture(descriptor.TextureID(id), descriptor.InvalidID, format, width, height)
	if err != nil {
		return descriptor.Texture{}, d.record(OpCreateTexture, 0, invalid("%v", err))
	}
	size := width * height * format.BytesPerPixel()
	if err := d.budget.Reserve(budget.Key(KindTexture, id), uint64(size)); err != nil { //nolint:gosec // size validated
		return descriptor.Texture{}, d.record(OpCreateTexture, 0, err)
	}
	d.textures[desc.ID()] = &texture{desc: desc, pix: make([]byte, size)}
	return desc, d.record(OpCreateTexture, id, nil)
}

// WriteTexture implements backend.Textures.
func (d *Device) WriteTexture(tex descriptor.Texture, region image.Rectangle, pixels []byte) error {
	id := uint64(tex.ID())
	if err := d.begin(OpWriteTexture); err != nil {
		return d.record(OpWriteTexture, id, err)
	}
	t, ok := d.textures[tex.ID()]
	if !ok {
		return d.record(OpWriteTexture, id, invalid("unknown texture %d", id))
	}
	bounds := image.Rect(0, 0, t.desc.Width(), t.desc.Height())
	if region.Empty() || !region.In(bounds) {
		return d.record(OpWriteTexture, id, invalid("region %v outside %v", region, bounds))
	}
	bpp := t.desc.Format().BytesPerPixel()
	row := region.Dx() * bpp
	if len(pixels) != row*region.Dy() {
		return d.record(OpWriteTexture, id, invalid("%d bytes for %v region", len(pixels), region))
	}
	stride := t.desc.Width() * bpp
	for y := 0; y < region.Dy(); y++ {
		dst := (region.Min.Y+y)*stride + region.Min.X*bpp
		copy(t.pix[dst:dst+row], pixels[y*row:])
	}
	return d.record(OpWriteTexture, id, nil)
}

// DeleteTexture implements backend.Textures.
func (d *Device) DeleteTexture(tex descriptor.Texture) error {
	id := uint64(tex.ID())
	if err := d.begin(OpDeleteTexture); err != nil {
		return d.record(OpDeleteTexture, id, err)
	}
	if _, ok := d.textures[tex.ID()]; !ok {
		return d.record(OpDeleteTexture, id, invalid("unknown texture %d", id))
	}
	delete(d.textures, tex.ID())
	d.budget.Return(budget.Key(KindTexture, id))
	return d.record(OpDeleteTexture, id, nil)
}

// CreateFrameBuffer implements backend.FrameBuffers.
func (d *Device) CreateFrameBuffer(width, height int) (descriptor.FrameBuffer, error) {
	if err := d.begin(OpCreateFrameBuffer); err != nil {
		return descriptor.FrameBuffer{}, d.record(OpCreateFrameBuffer, 0, err)
	}
	if width <= 0 || height <= 0 {
		return descriptor.FrameBuffer{}, d.record(OpCreateFrameBuffer, 0, invalid("framebuffer size %dx%d", width, height))
	}
	id := d.newID()
	depth := descriptor.RenderBufferID(d.newID())
	color := descriptor.RenderBufferID(d.newID())
	tex := descriptor.TextureID(d.newID())
	fb, err := descriptor.NewFrameBuffer(descriptor.FrameBufferID(id), depth, color, tex, width, height)
	if err != nil {
		return descriptor.FrameBuffer{}, d.record(OpCreateFrameBuffer, 0, invalid("%v", err))
	}
	// colour texture plus a 32-bit depth buffer
	size := width*height*fb.Texture().Format().BytesPerPixel() + width*height*4
	if err := d.budget.Reserve(budget.Key(KindFrameBuffer, id), uint64(size)); err != nil { //nolint:gosec // size validated
		return descriptor.FrameBuffer{}, d.record(OpCreateFrameBuffer, 0, err)
	}
	d.framebuffers[fb.ID()] = fb
	return fb, d.record(OpCreateFrameBuffer, id, nil)
}

// DeleteFrameBuffer implements backend.FrameBuffers.
func (d *Device) DeleteFrameBuffer(fb descriptor.FrameBuffer) error {
	id := uint64(fb.ID())
	if err := d.begin(OpDeleteFrameBuffer); err != nil {
		return d.record(OpDeleteFrameBuffer, id, err)
	}
	if _, ok := d.framebuffers[fb.ID()]; !ok {
		return d.record(OpDeleteFrameBuffer, id, invalid("unknown framebuffer %d", id))
	}
	delete(d.framebuffers, fb.ID())
	d.budget.Return(budget.Key(KindFrameBuffer, id))
	return d.record(OpDeleteFrameBuffer, id, nil)
}

// CreateProgram implements backend.Programs. Sources are not compiled;
// only the uniform declarations are checked.
func (d *Device) CreateProgram(src backend.ProgramSource) (descriptor.Program, error) {
	if err := d.begin(OpCreateProgram); err != nil {
		return descriptor.Program{}, d.record(OpCreateProgram, 0, err)
	}
	kinds := make(map[string]descriptor.UniformKind, len(src.Uniforms))
	for _, u := range src.Uniforms {
		if u.Kind.Scalars() == 0 {
			return descriptor.Program{}, d.record(OpCreateProgram, 0, invalid("uniform %q of kind %v", u.Name, u.Kind))
		}
		if _, dup := kinds[u.Name]; dup {
			return descriptor.Program{}, d.record(OpCreateProgram, 0, invalid("uniform %q declared twice", u.Name))
		}
		kinds[u.Name] = u.Kind
	}
	offsets, size := descriptor.UniformLayout(src.Uniforms)
	id := d.newID()
	desc := descriptor.NewProgram(descriptor.ProgramID(id), src.Name)
	d.programs[desc.ID()] = &program{
		desc:     desc,
		src:      src,
		offsets:  offsets,
		kinds:    kinds,
		uniforms: make([]byte, size),
	}
	return desc, d.record(OpCreateProgram, id, nil)
}

// SetUniform implements backend.Programs.
func (d *Device) SetUniform(p descriptor.Program, name string, data []byte) error {
	id := uint64(p.ID())
	if err := d.begin(OpSetUniform); err != nil {
		return d.record(OpSetUniform, id, err)
	}
	prog, ok := d.programs[p.ID()]
	if !ok {
		return d.record(OpSetUniform, id, invalid("unknown program %d", id))
	}
	off, ok := prog.offsets[name]
	if !ok {
		return d.record(OpSetUniform, id, invalid("program %q has no uniform %q", prog.src.Name, name))
	}
	end := len(prog.uniforms)
	for _, o := range prog.offsets {
		if o > off && o < end {
			end = o
		}
	}
	if off+len(data) > end {
		return d.record(OpSetUniform, id, invalid("%d bytes for uniform %q", len(data), name))
	}
	copy(prog.uniforms[off:], data)
	return d.record(OpSetUniform, id, nil)
}

// DeleteProgram implements backend.Programs.
func (d *Device) DeleteProgram(p descriptor.Program) error {
	id := uint64(p.ID())
	if err := d.begin(OpDeleteProgram); err != nil {
		return d.record(OpDeleteProgram, id, err)
	}
	if _, ok := d.programs[p.ID()]; !ok {
		return d.record(OpDeleteProgram, id, invalid("unknown program %d", id))
	}
	delete(d.programs, p.ID())
	return d.record(OpDeleteProgram, id, nil)
}

// CreateVertexArray implements backend.VertexArrays.
func (d *Device) CreateVertexArray(g descriptor.GraphicsObject) (descriptor.VertexArrayID, error) {
	if err := d.begin(OpCreateVertexArray); err != nil {
		return descriptor.InvalidID, d.record(OpCreateVertexArray, 0, err)
	}
	if idx, ok := g.Indices(); ok {
		if _, live := d.buffers[idx.ID()]; !live {
			return descriptor.InvalidID, d.record(OpCreateVertexArray, 0, invalid("unknown index buffer %d", idx.ID()))
		}
	}
	for _, a := range g.Attributes() {
		if _, live := d.buffers[a.Buffer.ID()]; !live {
			return descriptor.InvalidID, d.record(OpCreateVertexArray, 0, invalid("attribute %q: unknown buffer %d", a.Key, a.Buffer.ID()))
		}
	}
	id := d.newID()
	d.vaos[descriptor.VertexArrayID(id)] = g
	return descriptor.VertexArrayID(id), d.record(OpCreateVertexArray, id, nil)
}

// DeleteVertexArray implements backend.VertexArrays.
func (d *Device) DeleteVertexArray(vao descriptor.VertexArrayID) error {
	if err := d.begin(OpDeleteVertexArray); err != nil {
		return d.record(OpDeleteVertexArray, uint64(vao), err)
	}
	if _, ok := d.vaos[vao]; !ok {
		return d.record(OpDeleteVertexArray, uint64(vao), invalid("unknown vertex array %d", vao))
	}
	delete(d.vaos, vao)
	return d.record(OpDeleteVertexArray, uint64(vao), nil)
}

// CreatePipeline implements backend.Pipelines.
func (d *Device) CreatePipeline(p descriptor.Program, g descriptor.GraphicsObject) (descriptor.PipelineID, error) {
	if err := d.begin(OpCreatePipeline); err != nil {
		return descriptor.InvalidID, d.record(OpCreatePipeline, 0, err)
	}
	if _, ok := d.programs[p.ID()]; !ok {
		return descriptor.InvalidID, d.record(OpCreatePipeline, 0, invalid("unknown program %d", p.ID()))
	}
	if _, ok := d.vaos[g.VertexArray()]; !ok {
		return descriptor.InvalidID, d.record(OpCreatePipeline, 0, invalid("unknown vertex array %d", g.VertexArray()))
	}
	id := d.newID()
	d.pipelines[descriptor.PipelineID(id)] = pipeline{program: p.ID(), vao: g.VertexArray()}
	return descriptor.PipelineID(id), d.record(OpCreatePipeline, id, nil)
}

// DeletePipeline implements backend.Pipelines.
func (d *Device) DeletePipeline(pl descriptor.PipelineID) error {
	if err := d.begin(OpDeletePipeline); err != nil {
		return d.record(OpDeletePipeline, uint64(pl), err)
	}
	if _, ok := d.pipelines[pl]; !ok {
		return d.record(OpDeletePipeline, uint64(pl), invalid("unknown pipeline %d", pl))
	}
	delete(d.pipelines, pl)
	return d.record(OpDeletePipeline, uint64(pl), nil)
}

// Clear implements backend.Drawer.
func (d *Device) Clear(target *descriptor.FrameBuffer, _ color.Color) error {
	var id uint64
	if target != nil {
		id = uint64(target.ID())
	}
	if err := d.begin(OpClear); err != nil {
		return d.record(OpClear, id, err)
	}
	if target != nil {
		if _, ok := d.framebuffers[target.ID()]; !ok {
			return d.record(OpClear, id, invalid("unknown framebuffer %d", id))
		}
	}
	return d.record(OpClear, id, nil)
}

// Draw implements backend.Drawer. It validates that every object the draw
// would touch is live.
func (d *Device) Draw(target *descriptor.FrameBuffer, obj descriptor.RenderedObject, textures []descriptor.Texture) error {
	id := uint64(obj.Pipeline())
	if err := d.begin(OpDraw); err != nil {
		return d.record(OpDraw, id, err)
	}
	pl, ok := d.pipelines[obj.Pipeline()]
	if !ok {
		return d.record(OpDraw, id, invalid("unknown pipeline %d", id))
	}
	if pl.vao != obj.VertexArray() || pl.program != obj.Program().ID() {
		return d.record(OpDraw, id, invalid("pipeline %d does not bind program %d and vertex array %d", id, obj.Program().ID(), obj.VertexArray()))
	}
	if target != nil {
		if _, ok := d.framebuffers[target.ID()]; !ok {
			return d.record(OpDraw, id, invalid("unknown framebuffer %d", target.ID()))
		}
	}
	prog, ok := d.programs[pl.program]
	if !ok {
		return d.record(OpDraw, id, invalid("pipeline %d outlived program %d", id, pl.program))
	}
	if want := len(prog.src.Samplers); len(textures) != want {
		return d.record(OpDraw, id, invalid("%d textures for %d samplers", len(textures), want))
	}
	for _, t := range textures {
		src, ok := d.sampled(t.ID())
		if !ok {
			return d.record(OpDraw, id, invalid("unknown texture %d", t.ID()))
		}
		if src != nil && target != nil && src.ID() == target.ID() {
			return d.record(OpDraw, id, invalid("framebuffer %d sampled while rendered into", target.ID()))
		}
	}
	d.target = target
	return d.record(OpDraw, id, nil)
}

// sampled looks up a texture a draw may sample: a live texture, or the
// colour output of a live framebuffer, which is returned.
func (d *Device) sampled(id descriptor.TextureID) (*descriptor.FrameBuffer, bool) {
	if _, ok := d.textures[id]; ok {
		return nil, true
	}
	for _, fb := range d.framebuffers {
		if fb.Texture().ID() == id {
			return &fb, true
		}
	}
	return nil, false
}

// LastTarget returns the target of the last successful draw, nil for the
// default target.
func (d *Device) LastTarget() *descriptor.FrameBuffer { return d.target }

// Close implements backend.Device. Objects still allocated are dropped and
// reported in the returned error.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	live := d.Live()
	for id := range d.buffers {
		d.budget.Return(budget.Key(KindBuffer, uint64(id)))
	}
	for id := range d.textures {
		d.budget.Return(budget.Key(KindTexture, uint64(id)))
	}
	for id := range d.framebuffers {
		d.budget.Return(budget.Key(KindFrameBuffer, uint64(id)))
	}
	clear(d.buffers)
	clear(d.textures)
	clear(d.framebuffers)
	clear(d.programs)
	clear(d.vaos)
	clear(d.pipelines)
	if len(live) == 0 {
		return nil
	}
	kinds := make([]string, 0, len(live))
	for k, n := range live {
		kinds = append(kinds, fmt.Sprintf("%d %s", n, k))
	}
	sort.Strings(kinds)
	return fmt.Errorf("recording: closed with live objects: %v", kinds)
}
