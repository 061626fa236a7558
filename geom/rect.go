package geom

import "math"

// Rect is an axis-aligned rectangle stored as left/top/right/bottom edges.
// A rectangle whose right edge is not greater than its left edge (or whose
// bottom is not below its top) is empty.
type Rect struct {
	Left, Top, Right, Bottom float64
}

// MakeLTRB creates a rectangle from its edges.
func MakeLTRB(l, t, r, b float64) Rect {
	return Rect{Left: l, Top: t, Right: r, Bottom: b}
}

// MakeXYWH creates a rectangle from an origin and a size.
func MakeXYWH(x, y, w, h float64) Rect {
	return Rect{Left: x, Top: y, Right: x + w, Bottom: y + h}
}

// MakeSize creates a rectangle at the origin with the given size.
func MakeSize(s Size) Rect {
	return Rect{Right: s.W, Bottom: s.H}
}

// MakeISize creates a rectangle at the origin with the given integral size.
func MakeISize(s ISize) Rect {
	return Rect{Right: float64(s.W), Bottom: float64(s.H)}
}

// MakeMaximum returns the largest representable rectangle, used for
// "unbounded" coverage.
func MakeMaximum() Rect {
	return Rect{Left: -math.MaxFloat32, Top: -math.MaxFloat32, Right: math.MaxFloat32, Bottom: math.MaxFloat32}
}

// MakePointBounds returns the bounds of a set of points.
// The second result is false when pts is empty.
func MakePointBounds(pts []Point) (Rect, bool) {
	if len(pts) == 0 {
		return Rect{}, false
	}
	r := Rect{Left: pts[0].X, Top: pts[0].Y, Right: pts[0].X, Bottom: pts[0].Y}
	for _, p := range pts[1:] {
		r.Left = math.Min(r.Left, p.X)
		r.Top = math.Min(r.Top, p.Y)
		r.Right = math.Max(r.Right, p.X)
		r.Bottom = math.Max(r.Bottom, p.Y)
	}
	return r, true
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Origin returns the top-left corner.
func (r Rect) Origin() Point { return Point{X: r.Left, Y: r.Top} }

// Size returns the width and height.
func (r Rect) Size() Size { return Size{W: r.Width(), H: r.Height()} }

// Center returns the center point.
func (r Rect) Center() Point {
	return Point{X: (r.Left + r.Right) / 2, Y: (r.Top + r.Bottom) / 2}
}

// IsEmpty reports whether the rectangle encloses no area. NaN edges are empty.
func (r Rect) IsEmpty() bool {
	return !(r.Left < r.Right) || !(r.Top < r.Bottom)
}

// IsMaximum reports whether the rectangle is the unbounded rectangle.
func (r Rect) IsMaximum() bool {
	return r == MakeMaximum()
}

// Corners returns the four corners in clockwise order starting top-left.
func (r Rect) Corners() [4]Point {
	return [4]Point{
		{X: r.Left, Y: r.Top},
		{X: r.Right, Y: r.Top},
		{X: r.Right, Y: r.Bottom},
		{X: r.Left, Y: r.Bottom},
	}
}

// ContainsPoint reports whether p lies inside the half-open rectangle.
func (r Rect) ContainsPoint(p Point) bool {
	return p.X >= r.Left && p.X < r.Right && p.Y >= r.Top && p.Y < r.Bottom
}

// Contains reports whether o lies entirely inside r.
// An empty o is contained by any non-empty r.
func (r Rect) Contains(o Rect) bool {
	if r.IsEmpty() {
		return false
	}
	if o.IsEmpty() {
		return true
	}
	return o.Left >= r.Left && o.Top >= r.Top && o.Right <= r.Right && o.Bottom <= r.Bottom
}

// Intersection returns the overlap of two rectangles.
// The second result is false when they do not overlap.
func (r Rect) Intersection(o Rect) (Rect, bool) {
	res := Rect{
		Left:   math.Max(r.Left, o.Left),
		Top:    math.Max(r.Top, o.Top),
		Right:  math.Min(r.Right, o.Right),
		Bottom: math.Min(r.Bottom, o.Bottom),
	}
	if res.IsEmpty() {
		return Rect{}, false
	}
	return res, true
}

// IntersectionOrEmpty is Intersection returning the empty rectangle on miss.
func (r Rect) IntersectionOrEmpty(o Rect) Rect {
	res, _ := r.Intersection(o)
	return res
}

// IntersectsWith reports whether the two rectangles overlap.
func (r Rect) IntersectsWith(o Rect) bool {
	_, ok := r.Intersection(o)
	return ok
}

// Union returns the smallest rectangle enclosing both. Empty inputs are ignored.
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	return Rect{
		Left:   math.Min(r.Left, o.Left),
		Top:    math.Min(r.Top, o.Top),
		Right:  math.Max(r.Right, o.Right),
		Bottom: math.Max(r.Bottom, o.Bottom),
	}
}

// Shift translates the rectangle by d.
func (r Rect) Shift(d Point) Rect {
	return Rect{Left: r.Left + d.X, Top: r.Top + d.Y, Right: r.Right + d.X, Bottom: r.Bottom + d.Y}
}

// Expand grows the rectangle by d on every side. Negative d insets.
func (r Rect) Expand(d float64) Rect {
	return Rect{Left: r.Left - d, Top: r.Top - d, Right: r.Right + d, Bottom: r.Bottom + d}
}

// RoundOut snaps the edges outward to the integer grid.
func (r Rect) RoundOut() Rect {
	return Rect{
		Left:   math.Floor(r.Left),
		Top:    math.Floor(r.Top),
		Right:  math.Ceil(r.Right),
		Bottom: math.Ceil(r.Bottom),
	}
}

// Cutout subtracts o from r when the result is still a rectangle, which
// happens when o spans r fully along one axis and covers one of its ends.
// The second result is false when the difference is not rectangular; in that
// case r is returned unchanged.
func (r Rect) Cutout(o Rect) (Rect, bool) {
	if !r.IntersectsWith(o) {
		return r, true
	}
	if o.Contains(r) {
		return Rect{}, true
	}
	spansX := o.Left <= r.Left && o.Right >= r.Right
	spansY := o.Top <= r.Top && o.Bottom >= r.Bottom
	switch {
	case spansX && o.Top <= r.Top:
		return Rect{Left: r.Left, Top: o.Bottom, Right: r.Right, Bottom: r.Bottom}, true
	case spansX && o.Bottom >= r.Bottom:
		return Rect{Left: r.Left, Top: r.Top, Right: r.Right, Bottom: o.Top}, true
	case spansY && o.Left <= r.Left:
		return Rect{Left: o.Right, Top: r.Top, Right: r.Right, Bottom: r.Bottom}, true
	case spansY && o.Right >= r.Right:
		return Rect{Left: r.Left, Top: r.Top, Right: o.Left, Bottom: r.Bottom}, true
	}
	return r, false
}

// CutoutOrEmpty is Cutout returning r unchanged for non-rectangular
// differences and the empty rectangle when o covers r.
func (r Rect) CutoutOrEmpty(o Rect) Rect {
	res, _ := r.Cutout(o)
	return res
}

// TransformBounds returns the bounds of the rectangle's corners mapped by m.
// The second result is false if any corner lands behind the viewer or maps to
// a non-finite point.
func (r Rect) TransformBounds(m Matrix) (Rect, bool) {
	c := r.Corners()
	for i := range c {
		if m.HasPerspective() {
			if _, _, w := m.TransformHomogeneous(c[i]); w <= 0 {
				return Rect{}, false
			}
		}
		c[i] = m.TransformPoint(c[i])
		if !c[i].IsFinite() {
			return Rect{}, false
		}
	}
	return MakePointBounds(c[:])
}

// IRect is an integral rectangle, used for scissors and texture regions.
type IRect struct {
	Left, Top, Right, Bottom int
}

// MakeIRectXYWH creates an integral rectangle from origin and size.
func MakeIRectXYWH(x, y, w, h int) IRect {
	return IRect{Left: x, Top: y, Right: x + w, Bottom: y + h}
}

// MakeIRectSize creates an integral rectangle at the origin.
func MakeIRectSize(s ISize) IRect {
	return IRect{Right: s.W, Bottom: s.H}
}

// RoundOutRect returns the smallest integral rectangle enclosing r.
func RoundOutRect(r Rect) IRect {
	return IRect{
		Left:   int(math.Floor(r.Left)),
		Top:    int(math.Floor(r.Top)),
		Right:  int(math.Ceil(r.Right)),
		Bottom: int(math.Ceil(r.Bottom)),
	}
}

// Width returns the horizontal extent.
func (r IRect) Width() int { return r.Right - r.Left }

// Height returns the vertical extent.
func (r IRect) Height() int { return r.Bottom - r.Top }

// Size returns the integral size.
func (r IRect) Size() ISize { return ISize{W: r.Width(), H: r.Height()} }

// IsEmpty reports whether the rectangle encloses no pixels.
func (r IRect) IsEmpty() bool { return r.Right <= r.Left || r.Bottom <= r.Top }

// Intersection returns the overlap of two integral rectangles.
func (r IRect) Intersection(o IRect) (IRect, bool) {
	res := IRect{
		Left:   max(r.Left, o.Left),
		Top:    max(r.Top, o.Top),
		Right:  min(r.Right, o.Right),
		Bottom: min(r.Bottom, o.Bottom),
	}
	if res.IsEmpty() {
		return IRect{}, false
	}
	return res, true
}

// ToRect converts to floating point.
func (r IRect) ToRect() Rect {
	return Rect{Left: float64(r.Left), Top: float64(r.Top), Right: float64(r.Right), Bottom: float64(r.Bottom)}
}
