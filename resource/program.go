package resource

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/g3d/backend"
	"github.com/gogpu/g3d/descriptor"
	"github.com/gogpu/g3d/diagnostics"
	"github.com/gogpu/g3d/handler"
	"github.com/gogpu/g3d/scene"
)

// ProgramHandler compiles programs and sets their uniforms. It has no
// children.
type ProgramHandler struct {
	*handler.Handler[*scene.Program, descriptor.Program]

	dev backend.Programs
}

// NewProgramHandler creates a program handler on dev.
func NewProgramHandler(dev backend.Programs, obs diagnostics.Observer) *ProgramHandler {
	h := &ProgramHandler{dev: dev}
	h.Handler = handler.New(handler.Policy[*scene.Program, descriptor.Program]{
		Kind:     KindProgram,
		Validate: notNil[scene.Program],
		Allocate: func(p *scene.Program) (descriptor.Program, error) {
			return h.dev.CreateProgram(backend.ProgramSource{
				Name:          p.Name,
				Source:        p.Source,
				VertexEntry:   p.VertexEntry,
				FragmentEntry: p.FragmentEntry,
				Uniforms:      p.Uniforms,
				Samplers:      p.Samplers,
			})
		},
		Free: func(_ *scene.Program, prog descriptor.Program) error {
			return h.dev.DeleteProgram(prog)
		},
	}, handler.WithObserver(obs))
	return h
}

// SetFloat sets an f32 uniform.
func (h *ProgramHandler) SetFloat(p *scene.Program, name string, v float32) error {
	return h.set(p, name, descriptor.UniformFloat, []float32{v})
}

// SetInt sets an i32 uniform.
func (h *ProgramHandler) SetInt(p *scene.Program, name string, v int32) error {
	u, prog, err := h.lookup(p, name, descriptor.UniformInt)
	if err != nil {
		return err
	}
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, uint32(v)) //nolint:gosec // two's complement bit copy
	return h.dev.SetUniform(prog, u.Name, data)
}

// SetVec2 sets a vec2<f32> uniform.
func (h *ProgramHandler) SetVec2(p *scene.Program, name string, v mgl32.Vec2) error {
	return h.set(p, name, descriptor.UniformVec2, v[:])
}

// SetVec3 sets a vec3<f32> uniform.
func (h *ProgramHandler) SetVec3(p *scene.Program, name string, v mgl32.Vec3) error {
	return h.set(p, name, descriptor.UniformVec3, v[:])
}

// SetVec4 sets a vec4<f32> uniform.
func (h *ProgramHandler) SetVec4(p *scene.Program, name string, v mgl32.Vec4) error {
	return h.set(p, name, descriptor.UniformVec4, v[:])
}

// SetMat3 sets a mat3x3<f32> uniform.
func (h *ProgramHandler) SetMat3(p *scene.Program, name string, m mgl32.Mat3) error {
	return h.set(p, name, descriptor.UniformMat3, m[:])
}

// SetMat4 sets a mat4x4<f32> uniform.
func (h *ProgramHandler) SetMat4(p *scene.Program, name string, m mgl32.Mat4) error {
	return h.set(p, name, descriptor.UniformMat4, m[:])
}

// SetFloats sets a float uniform of any kind from its scalars, matrices in
// column-major order. The number of values must match the declared kind.
func (h *ProgramHandler) SetFloats(p *scene.Program, name string, vals []float32) error {
	u, ok := p.Uniform(name)
	if !ok {
		return fmt.Errorf("%w: %v declares no %q", ErrUniform, p, name)
	}
	return h.set(p, name, u.Kind, vals)
}

// lookup returns the declaration of name, which must be of kind, and the
// program's allocation.
func (h *ProgramHandler) lookup(p *scene.Program, name string, kind descriptor.UniformKind) (descriptor.Uniform, descriptor.Program, error) {
	prog, err := h.MustInternal(p)
	if err != nil {
		return descriptor.Uniform{}, prog, err
	}
	u, ok := p.Uniform(name)
	if !ok {
		return u, prog, fmt.Errorf("%w: %v declares no %q", ErrUniform, p, name)
	}
	if u.Kind != kind {
		return u, prog, fmt.Errorf("%w: %q is %v, not %v", ErrUniform, name, u.Kind, kind)
	}
	return u, prog, nil
}

func (h *ProgramHandler) set(p *scene.Program, name string, kind descriptor.UniformKind, vals []float32) error {
	u, prog, err := h.lookup(p, name, kind)
	if err != nil {
		return err
	}
	if kind == descriptor.UniformInt {
		return fmt.Errorf("%w: %q is %v, not a float kind", ErrUniform, name, kind)
	}
	if len(vals) != kind.Scalars() {
		return fmt.Errorf("%w: %d values for %v %q", ErrUniform, len(vals), kind, name)
	}
	return h.dev.SetUniform(prog, u.Name, encodeFloats(kind, vals))
}

// encodeFloats lays vals out as a uniform of kind: mat3 columns are padded
// to four floats.
func encodeFloats(kind descriptor.UniformKind, vals []float32) []byte {
	if kind == descriptor.UniformMat3 {
		padded := make([]float32, 0, 12)
		for col := range 3 {
			padded = append(padded, vals[3*col:3*col+3]...)
			padded = append(padded, 0)
		}
		vals = padded
	}
	data := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(data[4*i:], math.Float32bits(v))
	}
	return data
}
