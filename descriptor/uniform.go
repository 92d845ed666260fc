package descriptor

import "fmt"

// UniformKind is the shader type of a uniform value.
type UniformKind uint8

// Uniform kinds.
const (
	UniformInvalid UniformKind = iota
	UniformFloat
	UniformInt
	UniformVec2
	UniformVec3
	UniformVec4
	UniformMat3
	UniformMat4
)

// String returns the WGSL spelling of the kind.
func (k UniformKind) String() string {
	switch k {
	case UniformFloat:
		return "f32"
	case UniformInt:
		return "i32"
	case UniformVec2:
		return "vec2<f32>"
	case UniformVec3:
		return "vec3<f32>"
	case UniformVec4:
		return "vec4<f32>"
	case UniformMat3:
		return "mat3x3<f32>"
	case UniformMat4:
		return "mat4x4<f32>"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(k))
	}
}

// Scalars returns the number of 32-bit values the kind holds.
func (k UniformKind) Scalars() int {
	switch k {
	case UniformFloat, UniformInt:
		return 1
	case UniformVec2:
		return 2
	case UniformVec3:
		return 3
	case UniformVec4:
		return 4
	case UniformMat3:
		return 9
	case UniformMat4:
		return 16
	default:
		return 0
	}
}

// slotSize returns the bytes a value of this kind occupies in a uniform
// block. Every value starts on a 16-byte boundary; mat3 columns are padded
// to vec4.
func (k UniformKind) slotSize() int {
	switch k {
	case UniformMat3:
		return 48
	case UniformMat4:
		return 64
	case UniformInvalid:
		return 0
	default:
		return 16
	}
}

// Uniform declares one named value of a program's uniform block.
type Uniform struct {
	Name string
	Kind UniformKind
}

// UniformLayout returns the byte offset of every declared uniform in a
// uniform block and the total block size. Declaration order is layout
// order.
func UniformLayout(decls []Uniform) (offsets map[string]int, size int) {
	offsets = make(map[string]int, len(decls))
	for _, d := range decls {
		offsets[d.Name] = size
		size += d.Kind.slotSize()
	}
	return offsets, size
}
