package geometry

import (
	"fmt"
	"math"

	"github.com/gogpu/compositor/geom"
)

// LineCap is the shape of stroke endpoints.
type LineCap uint8

const (
	// LineCapButt ends the stroke exactly at the endpoint.
	LineCapButt LineCap = iota
	// LineCapRound adds a semicircle of radius width/2.
	LineCapRound
	// LineCapSquare extends the stroke by width/2.
	LineCapSquare
)

// String returns the string representation of LineCap.
func (c LineCap) String() string {
	switch c {
	case LineCapButt:
		return "Butt"
	case LineCapRound:
		return "Round"
	case LineCapSquare:
		return "Square"
	default:
		return fmt.Sprintf("LineCap(%d)", int(c))
	}
}

// LineJoin is the shape of corners between stroke segments.
type LineJoin uint8

const (
	// LineJoinMiter extends the outer edges to a point, limited by the
	// miter limit.
	LineJoinMiter LineJoin = iota
	// LineJoinRound rounds the corner.
	LineJoinRound
	// LineJoinBevel cuts the corner straight.
	LineJoinBevel
)

// String returns the string representation of LineJoin.
func (j LineJoin) String() string {
	switch j {
	case LineJoinMiter:
		return "Miter"
	case LineJoinRound:
		return "Round"
	case LineJoinBevel:
		return "Bevel"
	default:
		return fmt.Sprintf("LineJoin(%d)", int(j))
	}
}

// StrokeStyle describes how a path outline is widened.
type StrokeStyle struct {
	// Width is the stroke width in local units. Zero draws a one device
	// pixel hairline.
	Width      float64
	Cap        LineCap
	Join       LineJoin
	MiterLimit float64
}

// DefaultStrokeStyle returns a one unit wide butt-capped, miter-joined style.
func DefaultStrokeStyle() StrokeStyle {
	return StrokeStyle{Width: 1, Cap: LineCapButt, Join: LineJoinMiter, MiterLimit: 4}
}

// Stroke is the widened outline of a path.
type Stroke struct {
	P     *geom.Path
	Style StrokeStyle
}

// NewStroke returns a stroke geometry for p.
func NewStroke(p *geom.Path, style StrokeStyle) *Stroke {
	return &Stroke{P: p, Style: style}
}

// NewLine returns the stroke of a single segment.
func NewLine(p0, p1 geom.Point, width float64, lineCap LineCap) *Stroke {
	p := geom.NewPath()
	p.MoveTo(p0.X, p0.Y)
	p.LineTo(p1.X, p1.Y)
	return &Stroke{P: p, Style: StrokeStyle{Width: width, Cap: lineCap, Join: LineJoinMiter, MiterLimit: 4}}
}

// NewStrokedCircle returns a ring of the given stroke width.
func NewStrokedCircle(c geom.Point, radius, width float64) *Stroke {
	p := geom.NewPath()
	p.AddCircle(c, radius)
	return &Stroke{P: p, Style: StrokeStyle{Width: width, Join: LineJoinRound, MiterLimit: 4}}
}

// halfWidth returns half the stroke width in local units.
func (g *Stroke) halfWidth(m geom.Matrix) float64 {
	if g.Style.Width > 0 {
		return g.Style.Width / 2
	}
	s := m.MaxBasisLengthXY()
	if s <= 0 {
		return 0.5
	}
	return 0.5 / s
}

// Tessellate implements Geometry. Segment quads, joins and caps are emitted
// independently with a consistent orientation; the non-zero stencil pass
// merges the overlaps so translucent strokes are not blended twice.
func (g *Stroke) Tessellate(m geom.Matrix) Tessellation {
	if g.P == nil {
		return Tessellation{}
	}
	tol := tolerance(m)
	sb := strokeBuilder{
		half:  g.halfWidth(m),
		style: g.Style,
		tol:   tol,
	}
	for _, c := range g.P.Contours(tol) {
		sb.contour(c)
	}
	if len(sb.verts) == 0 {
		return Tessellation{}
	}
	b, _ := geom.MakePointBounds(sb.verts)
	return Tessellation{Vertices: sb.verts, Stencil: true, FillRule: geom.FillNonZero, Bounds: b}
}

// Coverage implements Geometry. Miter joins can reach past half the width,
// so the outset accounts for the miter limit.
func (g *Stroke) Coverage(m geom.Matrix) (geom.Rect, bool) {
	if g.P == nil {
		return geom.Rect{}, false
	}
	b, ok := g.P.Bounds()
	if !ok {
		return geom.Rect{}, false
	}
	outset := g.halfWidth(m)
	if g.Style.Join == LineJoinMiter {
		outset *= math.Max(g.Style.MiterLimit, 1)
	}
	if g.Style.Cap == LineCapSquare {
		outset *= math.Sqrt2
	}
	return b.Expand(outset).TransformBounds(m)
}

// CoversArea implements Geometry.
func (g *Stroke) CoversArea(geom.Matrix, geom.Rect) bool { return false }

type strokeBuilder struct {
	half  float64
	style StrokeStyle
	tol   float64
	verts []geom.Point
}

// tri appends a counter-clockwise triangle.
func (sb *strokeBuilder) tri(a, b, c geom.Point) {
	if b.Sub(a).Cross(c.Sub(a)) < 0 {
		b, c = c, b
	}
	sb.verts = append(sb.verts, a, b, c)
}

func (sb *strokeBuilder) quadPts(a, b, c, d geom.Point) {
	sb.tri(a, b, c)
	sb.tri(a, c, d)
}

func (sb *strokeBuilder) disc(c geom.Point) {
	poly := circlePolygon(c, sb.half, sb.tol)
	for i := range poly {
		sb.tri(c, poly[i], poly[(i+1)%len(poly)])
	}
}

func (sb *strokeBuilder) contour(c geom.Contour) {
	pts := dedupe(c.Points)
	if c.Closed && len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	if len(pts) == 1 {
		switch sb.style.Cap {
		case LineCapRound:
			sb.disc(pts[0])
		case LineCapSquare:
			h := sb.half
			p := pts[0]
			sb.quadPts(geom.Pt(p.X-h, p.Y-h), geom.Pt(p.X+h, p.Y-h), geom.Pt(p.X+h, p.Y+h), geom.Pt(p.X-h, p.Y+h))
		}
		return
	}
	if len(pts) == 0 {
		return
	}

	n := len(pts) - 1
	if c.Closed {
		n = len(pts)
	}
	for i := 0; i < n; i++ {
		a, b := pts[i], pts[(i+1)%len(pts)]
		sb.segment(a, b, i == 0 && !c.Closed, i == n-1 && !c.Closed)
	}
	for i := 0; i < len(pts); i++ {
		if !c.Closed && (i == 0 || i == len(pts)-1) {
			continue
		}
		prev := pts[(i+len(pts)-1)%len(pts)]
		next := pts[(i+1)%len(pts)]
		sb.join(prev, pts[i], next)
	}
	if !c.Closed && sb.style.Cap == LineCapRound {
		sb.disc(pts[0])
		sb.disc(pts[len(pts)-1])
	}
}

// segment emits the body of one segment, extended for square caps.
func (sb *strokeBuilder) segment(a, b geom.Point, first, last bool) {
	d := unit(b.Sub(a))
	if sb.style.Cap == LineCapSquare {
		if first {
			a = a.Sub(d.Mul(sb.half))
		}
		if last {
			b = b.Add(d.Mul(sb.half))
		}
	}
	nrm := perp(d).Mul(sb.half)
	sb.quadPts(a.Add(nrm), b.Add(nrm), b.Sub(nrm), a.Sub(nrm))
}

// join fills the wedge at p between the segments prev→p and p→next.
func (sb *strokeBuilder) join(prev, p, next geom.Point) {
	d0 := unit(p.Sub(prev))
	d1 := unit(next.Sub(p))
	cross := d0.Cross(d1)
	if math.Abs(cross) < 1e-12 && d0.Dot(d1) > 0 {
		return
	}
	if sb.style.Join == LineJoinRound {
		sb.disc(p)
		return
	}
	side := 1.0
	if cross > 0 {
		side = -1
	}
	n0 := perp(d0).Mul(sb.half * side)
	n1 := perp(d1).Mul(sb.half * side)
	o0, o1 := p.Add(n0), p.Add(n1)

	if sb.style.Join == LineJoinMiter {
		bis := unit(n0.Add(n1))
		cosHalf := bis.Dot(n0.Mul(1 / sb.half))
		if cosHalf > 1e-9 && 1/cosHalf <= sb.style.MiterLimit {
			tip := p.Add(bis.Mul(sb.half / cosHalf))
			sb.tri(p, o0, tip)
			sb.tri(p, tip, o1)
			return
		}
	}
	sb.tri(p, o0, o1)
}

func unit(v geom.Point) geom.Point {
	l := v.Length()
	if l == 0 {
		return geom.Point{}
	}
	return v.Mul(1 / l)
}

func perp(v geom.Point) geom.Point { return geom.Pt(-v.Y, v.X) }

func dedupe(pts []geom.Point) []geom.Point {
	out := make([]geom.Point, 0, len(pts))
	for _, p := range pts {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	return out
}

// circlePolygon returns a polygon approximating a circle within tol.
func circlePolygon(c geom.Point, r, tol float64) []geom.Point {
	n := 8
	if r > tol {
		n = int(math.Ceil(math.Pi / math.Acos(1-tol/r)))
	}
	n = max(8, min(n, 256))
	pts := make([]geom.Point, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = geom.Pt(c.X+r*math.Cos(a), c.Y+r*math.Sin(a))
	}
	return pts
}
