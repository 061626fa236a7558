// Package geometry turns shapes into triangle lists that a render pass can
// draw directly or through stencil-then-cover.
//
// Tessellation is deliberately simple: curves are flattened uniformly and
// concave or self-overlapping shapes are emitted as triangle fans that rely
// on the stencil buffer for winding correctness.
package geometry

import (
	"math"

	"github.com/gogpu/compositor/geom"
)

// flattenTolerance is the maximum curve deviation in device pixels.
const flattenTolerance = 0.25

// Tessellation is a triangle list in local coordinates.
type Tessellation struct {
	// Vertices holds three points per triangle.
	Vertices []geom.Point
	// UVs optionally holds one texture coordinate per vertex.
	UVs []geom.Point
	// Stencil is set when the triangles overlap or fold over themselves and
	// must be resolved through the stencil buffer before covering.
	Stencil bool
	// FillRule selects how stencil winding is accumulated.
	FillRule geom.FillRule
	// Inverse fills the area outside the shape.
	Inverse bool
	// FullTarget requests a quad over the whole render target instead of
	// Vertices.
	FullTarget bool
	// Bounds is the local bounding box of Vertices, used as the cover quad.
	Bounds geom.Rect
}

// IsEmpty reports whether the tessellation draws nothing.
func (t Tessellation) IsEmpty() bool {
	return !t.FullTarget && !t.Inverse && len(t.Vertices) < 3
}

// Geometry is a shape that can be tessellated and bounded.
type Geometry interface {
	// Tessellate returns the triangles of the shape. The transform only
	// selects the flattening tolerance; vertices stay in local space.
	Tessellate(m geom.Matrix) Tessellation
	// Coverage returns the device-space bounds under m. The second result
	// is false when the shape draws nothing.
	Coverage(m geom.Matrix) (geom.Rect, bool)
	// CoversArea reports whether the shape under m is known to paint every
	// pixel of the device rectangle r.
	CoversArea(m geom.Matrix, r geom.Rect) bool
}

// tolerance returns the local flattening tolerance for a transform.
func tolerance(m geom.Matrix) float64 {
	s := m.MaxBasisLengthXY()
	if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		return flattenTolerance
	}
	return flattenTolerance / s
}

// boundsCoverage maps local bounds to device space.
func boundsCoverage(r geom.Rect, m geom.Matrix) (geom.Rect, bool) {
	if r.IsEmpty() {
		return geom.Rect{}, false
	}
	return r.TransformBounds(m)
}

// quad appends the two triangles of a rectangle.
func quad(dst []geom.Point, r geom.Rect) []geom.Point {
	return append(dst,
		geom.Pt(r.Left, r.Top), geom.Pt(r.Right, r.Top), geom.Pt(r.Right, r.Bottom),
		geom.Pt(r.Left, r.Top), geom.Pt(r.Right, r.Bottom), geom.Pt(r.Left, r.Bottom),
	)
}

// RectUVs returns texture coordinates matching the vertex order of a rect
// tessellation for the source rectangle src inside a texture of size tex.
func RectUVs(src geom.Rect, tex geom.ISize) []geom.Point {
	w, h := float64(tex.W), float64(tex.H)
	if w <= 0 || h <= 0 {
		return nil
	}
	uv := geom.MakeLTRB(src.Left/w, src.Top/h, src.Right/w, src.Bottom/h)
	return quad(nil, uv)
}

// Cover fills the entire render target.
type Cover struct{}

// Tessellate implements Geometry.
func (Cover) Tessellate(geom.Matrix) Tessellation {
	return Tessellation{FullTarget: true, Bounds: geom.MakeMaximum()}
}

// Coverage implements Geometry.
func (Cover) Coverage(geom.Matrix) (geom.Rect, bool) { return geom.MakeMaximum(), true }

// CoversArea implements Geometry.
func (Cover) CoversArea(geom.Matrix, geom.Rect) bool { return true }

// Rect is an axis-aligned rectangle.
type Rect struct {
	R geom.Rect
}

// NewRect returns a rectangle geometry.
func NewRect(r geom.Rect) *Rect { return &Rect{R: r} }

// Tessellate implements Geometry.
func (g *Rect) Tessellate(geom.Matrix) Tessellation {
	if g.R.IsEmpty() {
		return Tessellation{}
	}
	return Tessellation{Vertices: quad(nil, g.R), Bounds: g.R}
}

// Coverage implements Geometry.
func (g *Rect) Coverage(m geom.Matrix) (geom.Rect, bool) { return boundsCoverage(g.R, m) }

// CoversArea implements Geometry.
func (g *Rect) CoversArea(m geom.Matrix, r geom.Rect) bool {
	if !m.IsTranslationScaleOnly() {
		return false
	}
	mapped, ok := g.R.TransformBounds(m)
	return ok && mapped.Contains(r)
}

// RRect is a rounded rectangle. Ovals and circles are rounded rectangles
// whose radii meet.
type RRect struct {
	RR geom.RRect
}

// NewRRect returns a rounded rectangle geometry.
func NewRRect(rr geom.RRect) *RRect { return &RRect{RR: rr} }

// NewOval returns the ellipse inscribed in r.
func NewOval(r geom.Rect) *RRect { return &RRect{RR: geom.MakeOvalRRect(r)} }

// NewCircle returns a filled circle.
func NewCircle(c geom.Point, radius float64) *RRect {
	return NewOval(geom.MakeLTRB(c.X-radius, c.Y-radius, c.X+radius, c.Y+radius))
}

// Tessellate implements Geometry. Rounded rectangles are convex, so a fan
// around the center never overlaps itself.
func (g *RRect) Tessellate(m geom.Matrix) Tessellation {
	if g.RR.IsEmpty() {
		return Tessellation{}
	}
	if g.RR.IsRect() {
		return Tessellation{Vertices: quad(nil, g.RR.Rect), Bounds: g.RR.Rect}
	}
	p := geom.NewPath()
	p.AddRRect(g.RR)
	polys := p.Flatten(tolerance(m))
	var verts []geom.Point
	c := g.RR.Rect.Center()
	for _, poly := range polys {
		verts = fanAround(verts, c, poly)
	}
	return Tessellation{Vertices: verts, Bounds: g.RR.Rect}
}

// Coverage implements Geometry.
func (g *RRect) Coverage(m geom.Matrix) (geom.Rect, bool) { return boundsCoverage(g.RR.Rect, m) }

// CoversArea implements Geometry. Only the two square inner bands are
// trusted.
func (g *RRect) CoversArea(m geom.Matrix, r geom.Rect) bool {
	if !m.IsTranslationScaleOnly() {
		return false
	}
	h, v := g.RR.SafeInnerRects()
	for _, inner := range [2]geom.Rect{h, v} {
		if mapped, ok := inner.TransformBounds(m); ok && mapped.Contains(r) {
			return true
		}
	}
	return false
}

// Path is a filled path honoring its fill rule and inverse flag.
type Path struct {
	P *geom.Path
}

// NewPath returns a fill geometry for p.
func NewPath(p *geom.Path) *Path { return &Path{P: p} }

// Tessellate implements Geometry.
func (g *Path) Tessellate(m geom.Matrix) Tessellation {
	if g.P == nil {
		return Tessellation{}
	}
	var ft FanTessellator
	ft.TessellateContours(g.P.Flatten(tolerance(m)))
	t := Tessellation{
		Vertices: ft.Vertices(),
		Stencil:  true,
		FillRule: g.P.FillRule(),
		Inverse:  g.P.IsInverseFill(),
		Bounds:   ft.Bounds(),
	}
	return t
}

// Coverage implements Geometry.
func (g *Path) Coverage(m geom.Matrix) (geom.Rect, bool) {
	if g.P == nil {
		return geom.Rect{}, false
	}
	if g.P.IsInverseFill() {
		return geom.MakeMaximum(), true
	}
	b, ok := g.P.Bounds()
	if !ok {
		return geom.Rect{}, false
	}
	return boundsCoverage(b, m)
}

// CoversArea implements Geometry. Paths are never trusted to cover.
func (g *Path) CoversArea(geom.Matrix, geom.Rect) bool { return false }

// fanAround appends a triangle fan from c over the closed polygon poly.
func fanAround(dst []geom.Point, c geom.Point, poly []geom.Point) []geom.Point {
	for i := range poly {
		j := (i + 1) % len(poly)
		dst = append(dst, c, poly[i], poly[j])
	}
	return dst
}
