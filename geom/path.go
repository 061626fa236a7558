package geom

import "math"

// PathElement represents a single element in a path.
type PathElement interface {
	isPathElement()
}

// MoveTo moves to a point without drawing.
type MoveTo struct {
	Point Point
}

func (MoveTo) isPathElement() {}

// LineTo draws a line to a point.
type LineTo struct {
	Point Point
}

func (LineTo) isPathElement() {}

// QuadTo draws a quadratic Bezier curve.
type QuadTo struct {
	Control Point
	Point   Point
}

func (QuadTo) isPathElement() {}

// CubicTo draws a cubic Bezier curve.
type CubicTo struct {
	Control1 Point
	Control2 Point
	Point    Point
}

func (CubicTo) isPathElement() {}

// Close closes the current subpath.
type Close struct{}

func (Close) isPathElement() {}

// FillRule selects how overlapping contours decide insideness.
type FillRule uint8

const (
	// FillNonZero fills points with a non-zero winding number.
	FillNonZero FillRule = iota
	// FillEvenOdd fills points crossed an odd number of times.
	FillEvenOdd
)

// String returns the string representation of FillRule.
func (f FillRule) String() string {
	if f == FillEvenOdd {
		return "EvenOdd"
	}
	return "NonZero"
}

// Path represents a vector path with a fill rule. An inverse path fills
// everything outside its contours.
type Path struct {
	elements []PathElement
	start    Point
	current  Point
	fillRule FillRule
	inverse  bool
}

// NewPath creates a new empty path.
func NewPath() *Path {
	return &Path{
		elements: make([]PathElement, 0, 16),
	}
}

// MoveTo moves to a point without drawing.
func (p *Path) MoveTo(x, y float64) {
	pt := Pt(x, y)
	p.elements = append(p.elements, MoveTo{Point: pt})
	p.start = pt
	p.current = pt
}

// LineTo draws a line to a point.
func (p *Path) LineTo(x, y float64) {
	pt := Pt(x, y)
	p.elements = append(p.elements, LineTo{Point: pt})
	p.current = pt
}

// QuadraticTo draws a quadratic Bezier curve.
func (p *Path) QuadraticTo(cx, cy, x, y float64) {
	pt := Pt(x, y)
	p.elements = append(p.elements, QuadTo{Control: Pt(cx, cy), Point: pt})
	p.current = pt
}

// CubicTo draws a cubic Bezier curve.
func (p *Path) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	pt := Pt(x, y)
	p.elements = append(p.elements, CubicTo{Control1: Pt(c1x, c1y), Control2: Pt(c2x, c2y), Point: pt})
	p.current = pt
}

// Close closes the current subpath by drawing a line to the start point.
func (p *Path) Close() {
	p.elements = append(p.elements, Close{})
	p.current = p.start
}

// Elements returns the path elements.
func (p *Path) Elements() []PathElement {
	return p.elements
}

// IsEmpty reports whether the path has no drawing elements.
func (p *Path) IsEmpty() bool {
	return p == nil || len(p.elements) == 0
}

// SetFillRule sets the fill rule.
func (p *Path) SetFillRule(r FillRule) { p.fillRule = r }

// FillRule returns the fill rule.
func (p *Path) FillRule() FillRule { return p.fillRule }

// SetInverseFill marks the path as filling its exterior.
func (p *Path) SetInverseFill(inverse bool) { p.inverse = inverse }

// IsInverseFill reports whether the path fills its exterior.
func (p *Path) IsInverseFill() bool { return p.inverse }

// AddRect appends a closed rectangle contour.
func (p *Path) AddRect(r Rect) {
	p.MoveTo(r.Left, r.Top)
	p.LineTo(r.Right, r.Top)
	p.LineTo(r.Right, r.Bottom)
	p.LineTo(r.Left, r.Bottom)
	p.Close()
}

// kappa is the cubic control distance approximating a quarter circle.
const kappa = 0.5522847498307936

// AddOval appends a closed ellipse contour inscribed in r.
func (p *Path) AddOval(r Rect) {
	p.AddRRect(MakeOvalRRect(r))
}

// AddRRect appends a closed rounded rectangle contour.
func (p *Path) AddRRect(rr RRect) {
	r, rad := rr.Rect, rr.Radii
	p.MoveTo(r.Left+rad.TopLeft.W, r.Top)
	p.LineTo(r.Right-rad.TopRight.W, r.Top)
	if !rad.TopRight.IsEmpty() {
		p.CubicTo(r.Right-rad.TopRight.W*(1-kappa), r.Top,
			r.Right, r.Top+rad.TopRight.H*(1-kappa),
			r.Right, r.Top+rad.TopRight.H)
	}
	p.LineTo(r.Right, r.Bottom-rad.BottomRight.H)
	if !rad.BottomRight.IsEmpty() {
		p.CubicTo(r.Right, r.Bottom-rad.BottomRight.H*(1-kappa),
			r.Right-rad.BottomRight.W*(1-kappa), r.Bottom,
			r.Right-rad.BottomRight.W, r.Bottom)
	}
	p.LineTo(r.Left+rad.BottomLeft.W, r.Bottom)
	if !rad.BottomLeft.IsEmpty() {
		p.CubicTo(r.Left+rad.BottomLeft.W*(1-kappa), r.Bottom,
			r.Left, r.Bottom-rad.BottomLeft.H*(1-kappa),
			r.Left, r.Bottom-rad.BottomLeft.H)
	}
	p.LineTo(r.Left, r.Top+rad.TopLeft.H)
	if !rad.TopLeft.IsEmpty() {
		p.CubicTo(r.Left, r.Top+rad.TopLeft.H*(1-kappa),
			r.Left+rad.TopLeft.W*(1-kappa), r.Top,
			r.Left+rad.TopLeft.W, r.Top)
	}
	p.Close()
}

// AddCircle appends a closed circle contour.
func (p *Path) AddCircle(c Point, radius float64) {
	p.AddOval(Rect{Left: c.X - radius, Top: c.Y - radius, Right: c.X + radius, Bottom: c.Y + radius})
}

// Bounds returns the control-point bounds of the path.
// The second result is false for an empty path.
func (p *Path) Bounds() (Rect, bool) {
	if p.IsEmpty() {
		return Rect{}, false
	}
	pts := make([]Point, 0, len(p.elements)*2)
	for _, e := range p.elements {
		switch el := e.(type) {
		case MoveTo:
			pts = append(pts, el.Point)
		case LineTo:
			pts = append(pts, el.Point)
		case QuadTo:
			pts = append(pts, el.Control, el.Point)
		case CubicTo:
			pts = append(pts, el.Control1, el.Control2, el.Point)
		}
	}
	return MakePointBounds(pts)
}

// Transform returns a copy of the path with every point mapped by m.
func (p *Path) Transform(m Matrix) *Path {
	out := &Path{elements: make([]PathElement, 0, len(p.elements)), fillRule: p.fillRule, inverse: p.inverse}
	for _, e := range p.elements {
		switch el := e.(type) {
		case MoveTo:
			out.elements = append(out.elements, MoveTo{Point: m.TransformPoint(el.Point)})
		case LineTo:
			out.elements = append(out.elements, LineTo{Point: m.TransformPoint(el.Point)})
		case QuadTo:
			out.elements = append(out.elements, QuadTo{Control: m.TransformPoint(el.Control), Point: m.TransformPoint(el.Point)})
		case CubicTo:
			out.elements = append(out.elements, CubicTo{
				Control1: m.TransformPoint(el.Control1),
				Control2: m.TransformPoint(el.Control2),
				Point:    m.TransformPoint(el.Point),
			})
		case Close:
			out.elements = append(out.elements, Close{})
		}
	}
	return out
}

// Clone returns a deep copy of the path.
func (p *Path) Clone() *Path {
	out := *p
	out.elements = append([]PathElement(nil), p.elements...)
	return &out
}

// Contour is one flattened subpath.
type Contour struct {
	Points []Point
	Closed bool
}

// Flatten converts the path into closed polygons, subdividing curves so
// that no segment deviates from the curve by more than tolerance. Contours
// with fewer than three points enclose no area and are dropped.
func (p *Path) Flatten(tolerance float64) [][]Point {
	var polys [][]Point
	for _, c := range p.Contours(tolerance) {
		if len(c.Points) >= 3 {
			polys = append(polys, c.Points)
		}
	}
	return polys
}

// Contours flattens the path into polylines, keeping open subpaths and
// recording which ones were closed. Stroking needs both.
func (p *Path) Contours(tolerance float64) []Contour {
	if tolerance <= 0 {
		tolerance = 0.25
	}
	var (
		contours []Contour
		cur      []Point
		last     Point
	)
	flush := func(closed bool) {
		if len(cur) >= 2 || (closed && len(cur) >= 1) {
			contours = append(contours, Contour{Points: cur, Closed: closed})
		}
		cur = nil
	}
	for _, e := range p.elements {
		switch el := e.(type) {
		case MoveTo:
			flush(false)
			cur = []Point{el.Point}
			last = el.Point
		case LineTo:
			if cur == nil {
				cur = []Point{last}
			}
			cur = append(cur, el.Point)
			last = el.Point
		case QuadTo:
			if cur == nil {
				cur = []Point{last}
			}
			n := curveSegments(last.Sub(el.Control.Mul(2)).Add(el.Point).Length(), tolerance)
			for i := 1; i <= n; i++ {
				t := float64(i) / float64(n)
				mt := 1 - t
				cur = append(cur, last.Mul(mt*mt).Add(el.Control.Mul(2*mt*t)).Add(el.Point.Mul(t*t)))
			}
			last = el.Point
		case CubicTo:
			if cur == nil {
				cur = []Point{last}
			}
			d1 := last.Sub(el.Control1.Mul(2)).Add(el.Control2).Length()
			d2 := el.Control1.Sub(el.Control2.Mul(2)).Add(el.Point).Length()
			n := curveSegments(1.5*math.Max(d1, d2), tolerance)
			for i := 1; i <= n; i++ {
				t := float64(i) / float64(n)
				mt := 1 - t
				cur = append(cur, last.Mul(mt*mt*mt).
					Add(el.Control1.Mul(3*mt*mt*t)).
					Add(el.Control2.Mul(3*mt*t*t)).
					Add(el.Point.Mul(t*t*t)))
			}
			last = el.Point
		case Close:
			if len(cur) > 0 {
				last = cur[0]
			}
			flush(true)
		}
	}
	flush(false)
	return contours
}

// curveSegments returns the number of line segments that keep a curve with
// the given second-difference magnitude within tolerance.
func curveSegments(dd, tolerance float64) int {
	n := int(math.Ceil(math.Sqrt(dd / (8 * tolerance))))
	return max(1, min(n, 100))
}
