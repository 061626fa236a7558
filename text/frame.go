package text

import (
	"image"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/vector"

	"github.com/gogpu/compositor/geom"
)

// Glyph is a positioned glyph. Pos is the glyph origin on the baseline,
// relative to the frame origin.
type Glyph struct {
	ID  uint16
	Pos geom.Point
}

// Run is a sequence of glyphs of one face and direction.
type Run struct {
	Face    *Face
	RTL     bool
	Glyphs  []Glyph
	Advance float64
}

// Frame is shaped text ready to draw. Its origin is the start of the
// baseline; y grows downwards.
type Frame struct {
	Runs   []Run
	bounds geom.Rect
}

// Bounds returns the union of the glyph bounds, or an empty rect when the
// frame has no visible glyph.
func (f *Frame) Bounds() geom.Rect {
	if f == nil {
		return geom.Rect{}
	}
	return f.bounds
}

// Advance returns the total horizontal advance of the frame.
func (f *Frame) Advance() float64 {
	var a float64
	for _, r := range f.Runs {
		a += r.Advance
	}
	return a
}

// GlyphCount returns the number of glyphs in all runs.
func (f *Frame) GlyphCount() int {
	n := 0
	for _, r := range f.Runs {
		n += len(r.Glyphs)
	}
	return n
}

func (f *Frame) computeBounds() {
	var buf sfnt.Buffer
	found := false
	for _, r := range f.Runs {
		ppem := toFixed(r.Face.size)
		for _, g := range r.Glyphs {
			b, _, err := r.Face.outline.GlyphBounds(&buf, sfnt.GlyphIndex(g.ID), ppem, font.HintingNone)
			if err != nil || b.Max.X <= b.Min.X || b.Max.Y <= b.Min.Y {
				continue
			}
			gb := geom.MakeLTRB(fromFixed(b.Min.X), fromFixed(b.Min.Y), fromFixed(b.Max.X), fromFixed(b.Max.Y)).Shift(g.Pos)
			if !found {
				f.bounds, found = gb, true
				continue
			}
			f.bounds = f.bounds.Union(gb)
		}
	}
}

// RasterizeMask renders the glyph coverage of the frame at scale device
// pixels per local unit. Each mask pixel is 1/scale local units wide and
// the returned origin is the local position of the mask's top-left corner.
func (f *Frame) RasterizeMask(scale float64) (*image.Alpha, geom.Point) {
	b := f.Bounds()
	if b.IsEmpty() || scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, geom.Point{}
	}
	left := math.Floor(b.Left * scale)
	top := math.Floor(b.Top * scale)
	w := int(math.Ceil(b.Right*scale) - left)
	h := int(math.Ceil(b.Bottom*scale) - top)
	if w <= 0 || h <= 0 {
		return nil, geom.Point{}
	}

	z := vector.NewRasterizer(w, h)
	var buf sfnt.Buffer
	for _, r := range f.Runs {
		ppem := toFixed(r.Face.size * scale)
		for _, g := range r.Glyphs {
			segs, err := r.Face.outline.LoadGlyph(&buf, sfnt.GlyphIndex(g.ID), ppem, nil)
			if err != nil || len(segs) == 0 {
				continue
			}
			ox := float32(g.Pos.X*scale - left)
			oy := float32(g.Pos.Y*scale - top)
			addSegments(z, segs, ox, oy)
		}
	}
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask, geom.Pt(left/scale, top/scale)
}

// addSegments feeds glyph outline segments, offset by (ox, oy), to z.
// Outlines are y-down like the mask.
func addSegments(z *vector.Rasterizer, segs sfnt.Segments, ox, oy float32) {
	pt := func(p [3]fixedPoint, i int) (float32, float32) {
		return float32(p[i].X)/64 + ox, float32(p[i].Y)/64 + oy
	}
	open := false
	for _, s := range segs {
		args := [3]fixedPoint{
			{X: int32(s.Args[0].X), Y: int32(s.Args[0].Y)},
			{X: int32(s.Args[1].X), Y: int32(s.Args[1].Y)},
			{X: int32(s.Args[2].X), Y: int32(s.Args[2].Y)},
		}
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			if open {
				z.ClosePath()
			}
			z.MoveTo(pt(args, 0))
			open = true
		case sfnt.SegmentOpLineTo:
			z.LineTo(pt(args, 0))
		case sfnt.SegmentOpQuadTo:
			bx, by := pt(args, 0)
			cx, cy := pt(args, 1)
			z.QuadTo(bx, by, cx, cy)
		case sfnt.SegmentOpCubeTo:
			bx, by := pt(args, 0)
			cx, cy := pt(args, 1)
			dx, dy := pt(args, 2)
			z.CubeTo(bx, by, cx, cy, dx, dy)
		}
	}
	if open {
		z.ClosePath()
	}
}

type fixedPoint struct{ X, Y int32 }
