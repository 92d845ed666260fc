package scene

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/gogpu/g3d/descriptor"
)

// Texture is an RGBA image to be sampled by a program.
type Texture struct {
	Name   string
	Format descriptor.TextureFormat

	img *image.RGBA
}

// NewTexture creates a texture from any image, converting it to RGBA.
func NewTexture(name string, src image.Image) *Texture {
	return &Texture{Name: name, Format: descriptor.DefaultTextureFormat(), img: toRGBA(src)}
}

// NewSolidTexture creates a w×h texture filled with c.
func NewSolidTexture(name string, w, h int, c color.Color) *Texture {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return &Texture{Name: name, Format: descriptor.DefaultTextureFormat(), img: img}
}

// LoadTexture decodes an image (PNG, JPEG, GIF, BMP, TIFF or WebP) into a
// texture.
func LoadTexture(name string, r io.Reader) (*Texture, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("scene: decode texture %q: %w", name, err)
	}
	return NewTexture(name, src), nil
}

// Image returns the texture pixels. The image aliases the texture.
func (t *Texture) Image() *image.RGBA { return t.img }

// Width returns the width in texels.
func (t *Texture) Width() int { return t.img.Bounds().Dx() }

// Height returns the height in texels.
func (t *Texture) Height() int { return t.img.Bounds().Dy() }

// Pixels returns the tightly packed RGBA bytes of rect, which must lie
// within the texture.
func (t *Texture) Pixels(rect image.Rectangle) ([]byte, error) {
	b := t.img.Bounds()
	if !rect.In(b) || rect.Empty() {
		return nil, fmt.Errorf("%w: %v not in %v", ErrRange, rect, b)
	}
	rowBytes := rect.Dx() * 4
	out := make([]byte, 0, rowBytes*rect.Dy())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		off := t.img.PixOffset(rect.Min.X, y)
		out = append(out, t.img.Pix[off:off+rowBytes]...)
	}
	return out, nil
}

// SetPixels overwrites rect with tightly packed RGBA bytes.
func (t *Texture) SetPixels(rect image.Rectangle, pix []byte) error {
	b := t.img.Bounds()
	if !rect.In(b) || rect.Empty() {
		return fmt.Errorf("%w: %v not in %v", ErrRange, rect, b)
	}
	rowBytes := rect.Dx() * 4
	if len(pix) != rowBytes*rect.Dy() {
		return fmt.Errorf("%w: %d bytes for %v", ErrRange, len(pix), rect)
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		off := t.img.PixOffset(rect.Min.X, y)
		copy(t.img.Pix[off:off+rowBytes], pix[(y-rect.Min.Y)*rowBytes:])
	}
	return nil
}

// Draw copies src into the texture with its top-left corner at p.
// Pixels outside the texture are clipped.
func (t *Texture) Draw(p image.Point, src image.Image) image.Rectangle {
	r := image.Rectangle{Min: p, Max: p.Add(src.Bounds().Size())}.Intersect(t.img.Bounds())
	draw.Draw(t.img, r, src, src.Bounds().Min, draw.Src)
	return r
}

// Resize replaces the pixels with a bilinear scaled copy of w×h texels.
// A handled texture must be released and handled again to pick up the new
// size.
func (t *Texture) Resize(w, h int) {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), t.img, t.img.Bounds(), draw.Src, nil)
	t.img = dst
}

// String implements fmt.Stringer.
func (t *Texture) String() string {
	return fmt.Sprintf("Texture(%q, %dx%d)", t.Name, t.Width(), t.Height())
}

func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(dst, image.Point{}, src, b, draw.Src, nil)
	return dst
}

// FrameBuffer is an offscreen render target of a fixed size.
type FrameBuffer struct {
	Name   string
	Width  int
	Height int
}

// NewFrameBuffer creates a framebuffer description.
func NewFrameBuffer(name string, w, h int) *FrameBuffer {
	return &FrameBuffer{Name: name, Width: w, Height: h}
}

// String implements fmt.Stringer.
func (f *FrameBuffer) String() string {
	return fmt.Sprintf("FrameBuffer(%q, %dx%d)", f.Name, f.Width, f.Height)
}
