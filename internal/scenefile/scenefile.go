// Package scenefile loads rendered objects from a YAML scene description.
//
// A scene file looks like:
//
//	camera:
//	  eye: [0, 0, 3]
//	  fov: 60
//	objects:
//	  - name: crate
//	    geometry: {shape: cube, size: 1}
//	    program: textured
//	    texture: {file: crate.png}
//	    tint: [1, 1, 1, 1]
//	    transform:
//	      translate: [0.5, 0, 0]
//	      rotate: {axis: [0, 1, 0], degrees: 30}
//
// Files ending in ".lz4" are decompressed first. Objects referring to the
// same texture file share one *scene.Texture.
package scenefile

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pierrec/lz4"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/g3d/scene"
)

// Program names.
const (
	ProgramFlat     = "flat"
	ProgramTextured = "textured"
)

// ErrInvalid is returned for a scene that parses but describes an object
// that cannot be built.
var ErrInvalid = errors.New("scenefile: invalid scene")

// File is the YAML document.
type File struct {
	Camera  Camera   `yaml:"camera,omitempty"`
	Objects []Object `yaml:"objects"`
}

// Camera is a perspective camera looking at Target from Eye.
type Camera struct {
	Eye    []float32 `yaml:"eye,omitempty"`
	Target []float32 `yaml:"target,omitempty"`
	FOV    float32   `yaml:"fov,omitempty"` // degrees
	Aspect float32   `yaml:"aspect,omitempty"`
}

// Object describes one rendered object.
type Object struct {
	Name      string     `yaml:"name"`
	Geometry  Geometry   `yaml:"geometry"`
	Program   string     `yaml:"program,omitempty"`
	Texture   *Texture   `yaml:"texture,omitempty"`
	Tint      []float32  `yaml:"tint,omitempty"`
	Transform *Transform `yaml:"transform,omitempty"`
}

// Geometry selects a built-in shape.
type Geometry struct {
	Shape  string  `yaml:"shape"` // cube or quad
	Size   float32 `yaml:"size,omitempty"`
	Width  float32 `yaml:"width,omitempty"`
	Height float32 `yaml:"height,omitempty"`
}

// Texture is either an image file or a solid colour.
type Texture struct {
	File  string `yaml:"file,omitempty"`
	Color string `yaml:"color,omitempty"` // #rrggbb or #rrggbbaa
	Size  int    `yaml:"size,omitempty"`
}

// Transform is applied to the geometry in scale, rotate, translate order.
type Transform struct {
	Translate []float32 `yaml:"translate,omitempty"`
	Scale     []float32 `yaml:"scale,omitempty"`
	Rotate    *Rotation `yaml:"rotate,omitempty"`
}

// Rotation is an axis-angle rotation.
type Rotation struct {
	Axis    []float32 `yaml:"axis"`
	Degrees float32   `yaml:"degrees"`
}

// Entry is a built object with the uniform values to set once it is
// handled.
type Entry struct {
	Object *scene.RenderedObject
	Tint   mgl32.Vec4
}

// Scene is a loaded scene file.
type Scene struct {
	// ViewProjection is the camera matrix, identity without a camera.
	ViewProjection mgl32.Mat4
	Entries        []Entry
}

// Objects returns the rendered objects in file order.
func (s *Scene) Objects() []*scene.RenderedObject {
	out := make([]*scene.RenderedObject, len(s.Entries))
	for i, e := range s.Entries {
		out[i] = e.Object
	}
	return out
}

// Load reads and builds the scene at path. Texture files are resolved
// relative to the scene file.
func Load(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scenefile: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".lz4") {
		r = lz4.NewReader(f)
	}
	s, err := Parse(r, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Compress writes src to w lz4-compressed, in the format Load reads for
// ".lz4" files.
func Compress(w io.Writer, src io.Reader) error {
	zw := lz4.NewWriter(w)
	if _, err := io.Copy(zw, src); err != nil {
		return fmt.Errorf("scenefile: compress: %w", err)
	}
	return zw.Close()
}

// Parse decodes a scene document and builds its objects. dir is the base
// of relative texture paths.
func Parse(r io.Reader, dir string) (*Scene, error) {
	var doc File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("scenefile: parse: %w", err)
	}
	return doc.Build(dir)
}

// Build creates the scene objects.
func (doc *File) Build(dir string) (*Scene, error) {
	vp, err := doc.Camera.matrix()
	if err != nil {
		return nil, err
	}
	b := builder{dir: dir, files: make(map[string]*scene.Texture)}
	s := &Scene{ViewProjection: vp}
	seen := make(map[string]bool, len(doc.Objects))
	for i, o := range doc.Objects {
		if o.Name == "" {
			o.Name = fmt.Sprintf("object%d", i)
		}
		if seen[o.Name] {
			return nil, fmt.Errorf("%w: duplicate object name %q", ErrInvalid, o.Name)
		}
		seen[o.Name] = true
		e, err := b.object(o)
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", o.Name, err)
		}
		s.Entries = append(s.Entries, e)
	}
	return s, nil
}

type builder struct {
	dir   string
	files map[string]*scene.Texture
}

func (b *builder) object(o Object) (Entry, error) {
	g, err := geometry(o.Name, o.Geometry)
	if err != nil {
		return Entry{}, err
	}
	if o.Transform != nil {
		m, err := o.Transform.matrix()
		if err != nil {
			return Entry{}, err
		}
		scene.Transform(g, m)
	}

	tint := mgl32.Vec4{1, 1, 1, 1}
	if o.Tint != nil {
		if len(o.Tint) != 4 {
			return Entry{}, fmt.Errorf("%w: tint needs 4 components, got %d", ErrInvalid, len(o.Tint))
		}
		copy(tint[:], o.Tint)
	}

	var obj *scene.RenderedObject
	switch o.Program {
	case "", ProgramFlat:
		if o.Texture != nil {
			return Entry{}, fmt.Errorf("%w: flat program takes no texture", ErrInvalid)
		}
		obj = scene.NewRenderedObject(o.Name, scene.FlatProgram(o.Name), g)
	case ProgramTextured:
		if o.Texture == nil {
			return Entry{}, fmt.Errorf("%w: textured program needs a texture", ErrInvalid)
		}
		tex, err := b.texture(o.Name, *o.Texture)
		if err != nil {
			return Entry{}, err
		}
		obj = scene.NewRenderedObject(o.Name, scene.TexturedProgram(o.Name), g)
		if err := obj.Bind(scene.Albedo, tex); err != nil {
			return Entry{}, err
		}
	default:
		return Entry{}, fmt.Errorf("%w: unknown program %q", ErrInvalid, o.Program)
	}
	return Entry{Object: obj, Tint: tint}, nil
}

func geometry(name string, g Geometry) (*scene.GraphicsObject, error) {
	switch g.Shape {
	case "cube":
		size := g.Size
		if size == 0 {
			size = 1
		}
		if size < 0 {
			return nil, fmt.Errorf("%w: cube size %v", ErrInvalid, size)
		}
		return scene.Cube(name, size), nil
	case "quad":
		w, h := g.Width, g.Height
		if w == 0 && h == 0 {
			w, h = g.Size, g.Size
		}
		if w <= 0 || h <= 0 {
			return nil, fmt.Errorf("%w: quad size %vx%v", ErrInvalid, w, h)
		}
		return scene.Quad(name, w, h), nil
	default:
		return nil, fmt.Errorf("%w: unknown shape %q", ErrInvalid, g.Shape)
	}
}

func (b *builder) texture(name string, t Texture) (*scene.Texture, error) {
	switch {
	case t.File != "" && t.Color != "":
		return nil, fmt.Errorf("%w: texture has both file and color", ErrInvalid)
	case t.File != "":
		path := t.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(b.dir, path)
		}
		if tex, ok := b.files[path]; ok {
			return tex, nil
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("scenefile: texture: %w", err)
		}
		defer f.Close()
		tex, err := scene.LoadTexture(filepath.Base(path), f)
		if err != nil {
			return nil, err
		}
		b.files[path] = tex
		return tex, nil
	default:
		c, err := parseColor(t.Color)
		if err != nil {
			return nil, err
		}
		size := t.Size
		if size == 0 {
			size = 1
		}
		if size < 0 {
			return nil, fmt.Errorf("%w: texture size %d", ErrInvalid, size)
		}
		return scene.NewSolidTexture(name+"-texture", size, size, c), nil
	}
}

func parseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	c := color.NRGBA{A: 0xff}
	var err error
	switch len(hex) {
	case 6:
		_, err = fmt.Sscanf(hex, "%02x%02x%02x", &c.R, &c.G, &c.B)
	case 8:
		_, err = fmt.Sscanf(hex, "%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A)
	default:
		err = errors.New("want #rrggbb or #rrggbbaa")
	}
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: color %q: %v", ErrInvalid, s, err)
	}
	return c, nil
}

func vec3(name string, v []float32, def mgl32.Vec3) (mgl32.Vec3, error) {
	switch len(v) {
	case 0:
		return def, nil
	case 3:
		return mgl32.Vec3{v[0], v[1], v[2]}, nil
	default:
		return mgl32.Vec3{}, fmt.Errorf("%w: %s needs 3 components, got %d", ErrInvalid, name, len(v))
	}
}

func (t *Transform) matrix() (mgl32.Mat4, error) {
	tr, err := vec3("translate", t.Translate, mgl32.Vec3{})
	if err != nil {
		return mgl32.Mat4{}, err
	}
	sc, err := vec3("scale", t.Scale, mgl32.Vec3{1, 1, 1})
	if err != nil {
		return mgl32.Mat4{}, err
	}
	rot := mgl32.Ident4()
	if t.Rotate != nil {
		axis, err := vec3("rotate axis", t.Rotate.Axis, mgl32.Vec3{0, 1, 0})
		if err != nil {
			return mgl32.Mat4{}, err
		}
		if axis.Len() == 0 {
			return mgl32.Mat4{}, fmt.Errorf("%w: zero rotation axis", ErrInvalid)
		}
		rot = mgl32.HomogRotate3D(mgl32.DegToRad(t.Rotate.Degrees), axis.Normalize())
	}
	return mgl32.Translate3D(tr[0], tr[1], tr[2]).Mul4(rot).Mul4(mgl32.Scale3D(sc[0], sc[1], sc[2])), nil
}

func (c Camera) matrix() (mgl32.Mat4, error) {
	if c.Eye == nil && c.FOV == 0 {
		return mgl32.Ident4(), nil
	}
	eye, err := vec3("camera eye", c.Eye, mgl32.Vec3{0, 0, 3})
	if err != nil {
		return mgl32.Mat4{}, err
	}
	target, err := vec3("camera target", c.Target, mgl32.Vec3{})
	if err != nil {
		return mgl32.Mat4{}, err
	}
	if eye == target {
		return mgl32.Mat4{}, fmt.Errorf("%w: camera eye equals target", ErrInvalid)
	}
	fov, aspect := c.FOV, c.Aspect
	if fov == 0 {
		fov = 60
	}
	if aspect == 0 {
		aspect = 4.0 / 3.0
	}
	proj := mgl32.Perspective(mgl32.DegToRad(fov), aspect, 0.1, 100)
	view := mgl32.LookAtV(eye, target, mgl32.Vec3{0, 1, 0})
	return proj.Mul4(view), nil
}
