package scenefile

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/g3d/scene"
)

const demo = `
camera:
  eye: [0, 0, 3]
objects:
  - name: crate
    geometry: {shape: cube, size: 2}
    program: textured
    texture: {file: crate.png}
  - name: floor
    geometry: {shape: quad, width: 4, height: 2}
    program: textured
    texture: {file: crate.png}
  - name: marker
    geometry: {shape: cube}
    tint: [1, 0, 0, 1]
    transform:
      translate: [1, 2, 3]
  - name: sky
    geometry: {shape: quad, size: 1}
    program: textured
    texture: {color: "#336699", size: 2}
`

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
}

func demoDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "crate.png"))
	if err := os.WriteFile(filepath.Join(dir, "scene.yaml"), []byte(demo), 0o600); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoad(t *testing.T) {
	dir := demoDir(t)
	s, err := Load(filepath.Join(dir, "scene.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var names []string
	for _, obj := range s.Objects() {
		names = append(names, obj.Name)
	}
	if diff := cmp.Diff([]string{"crate", "floor", "marker", "sky"}, names); diff != "" {
		t.Errorf("objects mismatch (-want +got):\n%s", diff)
	}

	crate, floor, marker, sky := s.Entries[0].Object, s.Entries[1].Object, s.Entries[2].Object, s.Entries[3].Object
	if crate.Textures()[0].Texture != floor.Textures()[0].Texture {
		t.Error("objects loading the same file do not share the texture")
	}
	if got := crate.Textures()[0].Texture.Image().RGBAAt(0, 0); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("crate pixel = %v", got)
	}
	if got := sky.Textures()[0].Texture.Image().RGBAAt(1, 1); got != (color.RGBA{R: 0x33, G: 0x66, B: 0x99, A: 0xff}) {
		t.Errorf("sky pixel = %v", got)
	}
	if len(marker.Textures()) != 0 || len(marker.Program.Samplers) != 0 {
		t.Error("flat object has texture bindings")
	}
	if s.Entries[2].Tint != (mgl32.Vec4{1, 0, 0, 1}) {
		t.Errorf("marker tint = %v", s.Entries[2].Tint)
	}
	if s.Entries[0].Tint != (mgl32.Vec4{1, 1, 1, 1}) {
		t.Errorf("default tint = %v", s.Entries[0].Tint)
	}
	if s.ViewProjection == mgl32.Ident4() {
		t.Error("camera matrix not computed")
	}

	pos, _ := marker.Graphics.Attribute(scene.Position)
	p := pos.Floats()
	if got, want := (mgl32.Vec3{p[0], p[1], p[2]}), (mgl32.Vec3{0.5, 1.5, 3.5}); !got.ApproxEqual(want) {
		t.Errorf("translated vertex = %v, want %v", got, want)
	}
}

func TestLoadCompressed(t *testing.T) {
	dir := demoDir(t)
	var buf bytes.Buffer
	if err := Compress(&buf, strings.NewReader(demo)); err != nil {
		t.Fatalf("Compress: %v", err)
	}
	path := filepath.Join(dir, "scene.yaml.lz4")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n := len(s.Entries); n != 4 {
		t.Errorf("%d objects, want 4", n)
	}
}

func TestParseEmpty(t *testing.T) {
	s, err := Parse(strings.NewReader(""), ".")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(s.Entries) != 0 || s.ViewProjection != mgl32.Ident4() {
		t.Errorf("empty scene = %+v", s)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"shape", "objects: [{name: a, geometry: {shape: sphere}}]"},
		{"program", "objects: [{name: a, geometry: {shape: cube}, program: pbr}]"},
		{"textured without texture", "objects: [{name: a, geometry: {shape: cube}, program: textured}]"},
		{"flat with texture", "objects: [{name: a, geometry: {shape: cube}, texture: {color: '#fff000'}}]"},
		{"color", "objects: [{name: a, geometry: {shape: cube}, program: textured, texture: {color: red}}]"},
		{"tint", "objects: [{name: a, geometry: {shape: cube}, tint: [1, 0]}]"},
		{"translate", "objects: [{name: a, geometry: {shape: cube}, transform: {translate: [1]}}]"},
		{"axis", "objects: [{name: a, geometry: {shape: cube}, transform: {rotate: {axis: [0, 0, 0], degrees: 9}}}]"},
		{"quad", "objects: [{name: a, geometry: {shape: quad, width: 1}}]"},
		{"duplicate", "objects: [{name: a, geometry: {shape: cube}}, {name: a, geometry: {shape: cube}}]"},
		{"camera", "camera: {eye: [0, 0, 0]}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.doc), "."); !errors.Is(err, ErrInvalid) {
				t.Errorf("Parse error = %v, want ErrInvalid", err)
			}
		})
	}

	if _, err := Parse(strings.NewReader("objects: [{nam: a}]"), "."); err == nil {
		t.Error("unknown field accepted")
	}
}

func TestParseMissingTexture(t *testing.T) {
	doc := "objects: [{name: a, geometry: {shape: cube}, program: textured, texture: {file: nope.png}}]"
	_, err := Parse(strings.NewReader(doc), t.TempDir())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Parse error = %v, want os.ErrNotExist", err)
	}
}
