package scene

import (
	_ "embed"

	"github.com/gogpu/g3d/descriptor"
)

//go:embed shaders/flat.wgsl
var flatShader string

//go:embed shaders/textured.wgsl
var texturedShader string

// Uniform names of the built-in programs.
const (
	UniformMVP  = "mvp"
	UniformTint = "tint"
)

// Texture parameter of TexturedProgram.
const Albedo = "albedo"

// FlatProgram returns a program drawing Position in the tint colour,
// transformed by the mvp matrix.
func FlatProgram(name string) *Program {
	return NewProgram(name, flatShader,
		descriptor.Uniform{Name: UniformMVP, Kind: descriptor.UniformMat4},
		descriptor.Uniform{Name: UniformTint, Kind: descriptor.UniformVec4},
	)
}

// TexturedProgram returns a program sampling the Albedo texture at
// TexCoord, modulated by tint. Position must be the first attribute and
// TexCoord the second.
func TexturedProgram(name string) *Program {
	return NewProgram(name, texturedShader,
		descriptor.Uniform{Name: UniformMVP, Kind: descriptor.UniformMat4},
		descriptor.Uniform{Name: UniformTint, Kind: descriptor.UniformVec4},
	).WithSamplers(Albedo)
}
