package recording

import (
	"errors"
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/g3d/backend"
	"github.com/gogpu/g3d/backend/budget"
	"github.com/gogpu/g3d/descriptor"
)

func TestBufferLifecycle(t *testing.T) {
	d := New()
	buf, err := d.CreateBuffer(descriptor.Float32, 4, 8)
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	if buf.ID() == descriptor.InvalidID || buf.Size() != 4 || buf.Stride() != 8 {
		t.Fatalf("CreateBuffer = %v", buf)
	}
	if err := d.WriteBuffer(buf, 4, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}
	data, _ := d.BufferData(buf.ID())
	if diff := cmp.Diff([]byte{0, 0, 0, 0, 1, 2, 3, 4, 0, 0, 0, 0, 0, 0, 0, 0}, data); diff != "" {
		t.Errorf("BufferData mismatch (-want +got):\n%s", diff)
	}
	if err := d.WriteBuffer(buf, 14, []byte{1, 2, 3}); !errors.Is(err, backend.ErrInvalidRequest) {
		t.Errorf("out of range WriteBuffer error = %v, want ErrInvalidRequest", err)
	}
	if err := d.DeleteBuffer(buf); err != nil {
		t.Fatalf("DeleteBuffer: %v", err)
	}
	if err := d.DeleteBuffer(buf); !errors.Is(err, backend.ErrInvalidRequest) {
		t.Errorf("double DeleteBuffer error = %v, want ErrInvalidRequest", err)
	}

	want := []string{OpCreateBuffer, OpWriteBuffer, OpWriteBuffer, OpDeleteBuffer, OpDeleteBuffer}
	if diff := cmp.Diff(want, d.Ops()); diff != "" {
		t.Errorf("Ops() mismatch (-want +got):\n%s", diff)
	}
	if d.Count(OpDeleteBuffer) != 1 {
		t.Errorf("Count(DeleteBuffer) = %d, want 1", d.Count(OpDeleteBuffer))
	}
}

func TestSequentialIDs(t *testing.T) {
	d := New()
	a, _ := d.CreateBuffer(descriptor.Uint16, 1, 0)
	b, _ := d.CreateBuffer(descriptor.Uint16, 1, 0)
	if a.ID() != 1 || b.ID() != 2 {
		t.Errorf("IDs = %d, %d, want 1, 2", a.ID(), b.ID())
	}
}

func TestCreateBufferInvalid(t *testing.T) {
	d := New()
	tests := []struct {
		name string
		typ  descriptor.ElementType
		size int
	}{
		{"invalid type", descriptor.ElementInvalid, 1},
		{"negative size", descriptor.Float32, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := d.CreateBuffer(tt.typ, tt.size, 0)
			if !errors.Is(err, backend.ErrInvalidRequest) {
				t.Errorf("CreateBuffer error = %v, want ErrInvalidRequest", err)
			}
			if buf.ID() != descriptor.InvalidID {
				t.Errorf("failed CreateBuffer returned ID %d", buf.ID())
			}
		})
	}
	if len(d.Live()) != 0 {
		t.Errorf("Live() = %v after failures", d.Live())
	}
}

func TestFailNext(t *testing.T) {
	d := New()
	boom := errors.New("boom")
	d.FailNext(OpCreateTexture, boom)

	if _, err := d.CreateTexture(descriptor.DefaultTextureFormat(), 2, 2); !errors.Is(err, boom) {
		t.Fatalf("CreateTexture error = %v, want boom", err)
	}
	if _, err := d.CreateTexture(descriptor.DefaultTextureFormat(), 2, 2); err != nil {
		t.Fatalf("second CreateTexture: %v", err)
	}
	calls := d.Calls()
	if len(calls) != 2 || !errors.Is(calls[0].Err, boom) || calls[1].Err != nil {
		t.Errorf("Calls() = %v", calls)
	}
}

func TestTextureWrite(t *testing.T) {
	d := New()
	tex, err := d.CreateTexture(descriptor.DefaultTextureFormat(), 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	px := []byte{1, 2, 3, 4}
	if err := d.WriteTexture(tex, image.Rect(1, 1, 2, 2), px); err != nil {
		t.Fatalf("WriteTexture: %v", err)
	}
	got, _ := d.TexturePixels(tex.ID())
	want := make([]byte, 16)
	copy(want[12:], px)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("TexturePixels mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		name   string
		region image.Rectangle
		pixels []byte
	}{
		{"outside", image.Rect(1, 1, 3, 2), make([]byte, 8)},
		{"empty", image.Rect(0, 0, 0, 0), nil},
		{"short data", image.Rect(0, 0, 2, 2), make([]byte, 15)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := d.WriteTexture(tex, tt.region, tt.pixels); !errors.Is(err, backend.ErrInvalidRequest) {
				t.Errorf("WriteTexture error = %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestBudgetExceeded(t *testing.T) {
	b := budget.New(64)
	d := New(WithBudget(b))
	if _, err := d.CreateTexture(descriptor.DefaultTextureFormat(), 4, 4); err != nil {
		t.Fatalf("CreateTexture within budget: %v", err)
	}
	_, err := d.CreateBuffer(descriptor.Float32, 1, 0)
	if !errors.Is(err, backend.ErrOutOfMemory) {
		t.Fatalf("CreateBuffer over budget error = %v, want ErrOutOfMemory", err)
	}
	if got := d.Live(); got[KindBuffer] != 0 {
		t.Errorf("Live() = %v, buffer recorded despite budget failure", got)
	}
	if s := b.Stats(); s.UsedBytes != 64 || s.Rejected != 1 {
		t.Errorf("budget Stats() = %+v", s)
	}
}

func TestProgramUniforms(t *testing.T) {
	d := New()
	p, err := d.CreateProgram(backend.ProgramSource{
		Name: "lit",
		Uniforms: []descriptor.Uniform{
			{Name: "alpha", Kind: descriptor.UniformFloat},
			{Name: "tint", Kind: descriptor.UniformVec3},
		},
	})
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	if err := d.SetUniform(p, "tint", []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}); err != nil {
		t.Fatalf("SetUniform: %v", err)
	}
	got, ok := d.Uniform(p.ID(), "tint")
	if !ok || got[0] != 1 || got[11] != 12 {
		t.Errorf("Uniform(tint) = %v, %v", got, ok)
	}
	if err := d.SetUniform(p, "missing", []byte{0}); !errors.Is(err, backend.ErrInvalidRequest) {
		t.Errorf("SetUniform(missing) error = %v, want ErrInvalidRequest", err)
	}
	if err := d.SetUniform(p, "alpha", make([]byte, 20)); !errors.Is(err, backend.ErrInvalidRequest) {
		t.Errorf("oversized SetUniform error = %v, want ErrInvalidRequest", err)
	}

	_, err = d.CreateProgram(backend.ProgramSource{
		Name:     "dup",
		Uniforms: []descriptor.Uniform{{Name: "a", Kind: descriptor.UniformInt}, {Name: "a", Kind: descriptor.UniformInt}},
	})
	if !errors.Is(err, backend.ErrInvalidRequest) {
		t.Errorf("duplicate uniform error = %v, want ErrInvalidRequest", err)
	}
}

func TestDrawValidatesObjects(t *testing.T) {
	d := New()
	buf, _ := d.CreateBuffer(descriptor.Float32, 9, 12)
	g, _ := descriptor.NewGraphicsObject(nil, 3, descriptor.Attribute{Key: "VERTEX", Buffer: buf})
	vao, err := d.CreateVertexArray(g)
	if err != nil {
		t.Fatalf("CreateVertexArray: %v", err)
	}
	g = g.WithVertexArray(vao)
	p, _ := d.CreateProgram(backend.ProgramSource{Name: "flat", Samplers: []string{"albedo"}})
	pl, err := d.CreatePipeline(p, g)
	if err != nil {
		t.Fatalf("CreatePipeline: %v", err)
	}
	obj := descriptor.NewRenderedObject(p, g, pl)

	if err := d.Draw(nil, obj, nil); !errors.Is(err, backend.ErrInvalidRequest) {
		t.Errorf("Draw with missing texture error = %v, want ErrInvalidRequest", err)
	}
	tex, _ := d.CreateTexture(descriptor.DefaultTextureFormat(), 1, 1)
	fb, _ := d.CreateFrameBuffer(4, 4)
	if err := d.Draw(&fb, obj, []descriptor.Texture{tex}); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if got := d.LastTarget(); got == nil || got.ID() != fb.ID() {
		t.Errorf("LastTarget() = %v, want %v", got, fb)
	}

	_ = d.DeletePipeline(pl)
	if err := d.Draw(nil, obj, []descriptor.Texture{tex}); !errors.Is(err, backend.ErrInvalidRequest) {
		t.Errorf("Draw after DeletePipeline error = %v, want ErrInvalidRequest", err)
	}
}

func TestCreateVertexArrayUnknownBuffer(t *testing.T) {
	d := New()
	ghost := descriptor.MustDataBuffer(99, descriptor.Float32, 3, 0, 0)
	g, _ := descriptor.NewGraphicsObject(nil, 1, descriptor.Attribute{Key: "VERTEX", Buffer: ghost})
	if _, err := d.CreateVertexArray(g); !errors.Is(err, backend.ErrInvalidRequest) {
		t.Errorf("CreateVertexArray error = %v, want ErrInvalidRequest", err)
	}
}

func TestClose(t *testing.T) {
	b := budget.New(0)
	d := New(WithBudget(b))
	if _, err := d.CreateFrameBuffer(2, 2); err != nil {
		t.Fatal(err)
	}
	if err := d.Close(); err == nil {
		t.Error("Close with a live framebuffer returned nil")
	}
	if s := b.Stats(); s.UsedBytes != 0 {
		t.Errorf("budget still holds %d bytes after Close", s.UsedBytes)
	}
	if _, err := d.CreateBuffer(descriptor.Float32, 1, 0); !errors.Is(err, backend.ErrClosed) {
		t.Errorf("CreateBuffer after Close error = %v, want ErrClosed", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestRegistered(t *testing.T) {
	if !backend.IsRegistered(backend.BackendRecording) {
		t.Fatal("recording backend is not registered")
	}
	dev, err := backend.Get(backend.BackendRecording)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if dev.Name() != backend.BackendRecording {
		t.Errorf("Name() = %q", dev.Name())
	}
}
