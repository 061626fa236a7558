package geometry

import "github.com/gogpu/compositor/geom"

// PointMode is the shape drawn at each point of a point field.
type PointMode uint8

const (
	// PointSquare draws a square of side 2*radius.
	PointSquare PointMode = iota
	// PointRound draws a disc of the given radius.
	PointRound
)

// Points is a field of squares or discs.
type Points struct {
	Pts    []geom.Point
	Radius float64
	Mode   PointMode
}

// NewPoints returns a point field geometry.
func NewPoints(pts []geom.Point, radius float64, mode PointMode) *Points {
	return &Points{Pts: pts, Radius: radius, Mode: mode}
}

// Tessellate implements Geometry.
func (g *Points) Tessellate(m geom.Matrix) Tessellation {
	if g.Radius <= 0 || len(g.Pts) == 0 {
		return Tessellation{}
	}
	sb := strokeBuilder{half: g.Radius, tol: tolerance(m)}
	for _, p := range g.Pts {
		if g.Mode == PointRound {
			sb.disc(p)
			continue
		}
		r := g.Radius
		sb.quadPts(geom.Pt(p.X-r, p.Y-r), geom.Pt(p.X+r, p.Y-r), geom.Pt(p.X+r, p.Y+r), geom.Pt(p.X-r, p.Y+r))
	}
	b, _ := geom.MakePointBounds(sb.verts)
	return Tessellation{Vertices: sb.verts, Stencil: len(g.Pts) > 1, FillRule: geom.FillNonZero, Bounds: b}
}

// Coverage implements Geometry.
func (g *Points) Coverage(m geom.Matrix) (geom.Rect, bool) {
	if g.Radius <= 0 {
		return geom.Rect{}, false
	}
	b, ok := geom.MakePointBounds(g.Pts)
	if !ok {
		return geom.Rect{}, false
	}
	return b.Expand(g.Radius).TransformBounds(m)
}

// CoversArea implements Geometry.
func (g *Points) CoversArea(geom.Matrix, geom.Rect) bool { return false }
