package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// cubeFaces lists the outward normal and the two in-plane axes of each
// cube face.
var cubeFaces = [6][3]mgl32.Vec3{
	{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
	{{0, 0, -1}, {-1, 0, 0}, {0, 1, 0}},
	{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
	{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
	{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}},
	{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
}

// Cube returns an indexed cube of edge length size centred on the origin,
// with position, normal and texture coordinate attributes.
func Cube(name string, size float32) *GraphicsObject {
	h := size / 2
	var (
		pos, nrm, uv []float32
		idx          []uint16
	)
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for f, face := range cubeFaces {
		n, u, v := face[0], face[1], face[2]
		for _, c := range corners {
			p := n.Add(u.Mul(c[0])).Add(v.Mul(c[1])).Mul(h)
			pos = append(pos, p[:]...)
			nrm = append(nrm, n[:]...)
			uv = append(uv, (c[0]+1)/2, (1-c[1])/2)
		}
		base := uint16(4 * f) //nolint:gosec // at most 24 vertices
		idx = append(idx, base, base+1, base+2, base, base+2, base+3)
	}
	g, _ := NewGraphicsObject(name, NewUint16Buffer(1, idx), len(pos)/3,
		Attribute{Key: Position, Buffer: NewFloatBuffer(3, pos)},
		Attribute{Key: Normal, Buffer: NewFloatBuffer(3, nrm)},
		Attribute{Key: TexCoord, Buffer: NewFloatBuffer(2, uv)},
	)
	return g
}

// Quad returns a non-indexed w×h rectangle in the XY plane made of two
// triangles, with position and texture coordinate attributes.
func Quad(name string, w, h float32) *GraphicsObject {
	x, y := w/2, h/2
	corners := []mgl32.Vec2{{-x, -y}, {x, -y}, {x, y}, {-x, -y}, {x, y}, {-x, y}}
	pos := make([]float32, 0, 3*len(corners))
	uv := make([]float32, 0, 2*len(corners))
	for _, c := range corners {
		v := c.Vec3(0)
		pos = append(pos, v[:]...)
		uv = append(uv, c.X()/w+0.5, 0.5-c.Y()/h)
	}
	g, _ := NewGraphicsObject(name, nil, len(corners),
		Attribute{Key: Position, Buffer: NewFloatBuffer(3, pos)},
		Attribute{Key: TexCoord, Buffer: NewFloatBuffer(2, uv)},
	)
	return g
}

// Transform applies m to the Position attribute of g in place and to its
// Normal attribute with the inverse transpose of m.
func Transform(g *GraphicsObject, m mgl32.Mat4) {
	if buf, ok := g.Attribute(Position); ok && buf.Components == 3 {
		vals := buf.Floats()
		for i := 0; i+2 < len(vals); i += 3 {
			p := mgl32.TransformCoordinate(mgl32.Vec3{vals[i], vals[i+1], vals[i+2]}, m)
			copy(vals[i:], p[:])
		}
		buf.SetFloats(0, vals)
	}
	if buf, ok := g.Attribute(Normal); ok && buf.Components == 3 {
		nm := m.Mat3().Inv().Transpose()
		vals := buf.Floats()
		for i := 0; i+2 < len(vals); i += 3 {
			n := nm.Mul3x1(mgl32.Vec3{vals[i], vals[i+1], vals[i+2]}).Normalize()
			copy(vals[i:], n[:])
		}
		buf.SetFloats(0, vals)
	}
}
