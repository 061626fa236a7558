package software

import (
	"image"
	"image/draw"

	"github.com/chewxy/math32"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
)

// Texture is premultiplied float RGBA pixel storage.
type Texture struct {
	size  geom.ISize
	label string
	pix   []blend.Color
}

var _ compositor.Texture = (*Texture)(nil)

// Size implements compositor.Texture.
func (t *Texture) Size() geom.ISize { return t.size }

// Label implements compositor.Texture.
func (t *Texture) Label() string { return t.label }

// At returns the premultiplied color at (x, y), or transparent outside the
// texture.
func (t *Texture) At(x, y int) blend.Color {
	if x < 0 || y < 0 || x >= t.size.W || y >= t.size.H {
		return blend.Transparent
	}
	return t.pix[y*t.size.W+x]
}

// Image converts the texture to 8-bit premultiplied RGBA.
func (t *Texture) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, t.size.W, t.size.H))
	for y := range t.size.H {
		row := t.pix[y*t.size.W : (y+1)*t.size.W]
		for x, c := range row {
			img.SetRGBA(x, y, c.ToRGBA8())
		}
	}
	return img
}

// textureFromImage converts img to premultiplied float pixels with its
// bounds moved to the origin.
func textureFromImage(img image.Image, label string) *Texture {
	b := img.Bounds()
	size := geom.ISize{W: b.Dx(), H: b.Dy()}
	rgba, ok := img.(*image.RGBA)
	if !ok || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, size.W, size.H))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	t := &Texture{size: size, label: label, pix: make([]blend.Color, size.Area())}
	for y := range size.H {
		for x := range size.W {
			t.pix[y*size.W+x] = blend.FromRGBA8(rgba.RGBAAt(x, y))
		}
	}
	return t
}

// sample reads the texture at normalized coordinates (u, v).
func (t *Texture) sample(u, v float32, s compositor.Sampling) blend.Color {
	w, h := float32(t.size.W), float32(t.size.H)
	if s.Filter == compositor.FilterNearest {
		return t.fetch(int(math32.Floor(u*w)), int(math32.Floor(v*h)), s.Address)
	}
	fx := u*w - 0.5
	fy := v*h - 0.5
	x0, y0 := math32.Floor(fx), math32.Floor(fy)
	tx, ty := fx-x0, fy-y0
	ix, iy := int(x0), int(y0)
	c00 := t.fetch(ix, iy, s.Address)
	c10 := t.fetch(ix+1, iy, s.Address)
	c01 := t.fetch(ix, iy+1, s.Address)
	c11 := t.fetch(ix+1, iy+1, s.Address)
	return lerp(lerp(c00, c10, tx), lerp(c01, c11, tx), ty)
}

func (t *Texture) fetch(x, y int, mode compositor.AddressMode) blend.Color {
	w, h := t.size.W, t.size.H
	switch mode {
	case compositor.AddressDecal:
		return t.At(x, y)
	case compositor.AddressRepeat:
		x = ((x % w) + w) % w
		y = ((y % h) + h) % h
	default:
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
	}
	return t.pix[y*w+x]
}

func lerp(a, b blend.Color, t float32) blend.Color {
	if t == 0 {
		return a
	}
	return blend.Color{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
		A: a.A + (b.A-a.A)*t,
	}
}
