package geom

import "math"

// Radii holds the elliptical corner radii of a rounded rectangle.
type Radii struct {
	TopLeft, TopRight, BottomRight, BottomLeft Size
}

// UniformRadii returns radii with the same rx/ry on every corner.
func UniformRadii(rx, ry float64) Radii {
	s := Size{W: rx, H: ry}
	return Radii{TopLeft: s, TopRight: s, BottomRight: s, BottomLeft: s}
}

// AreAllCornersEmpty reports whether every corner is square.
func (r Radii) AreAllCornersEmpty() bool {
	return r.TopLeft.IsEmpty() && r.TopRight.IsEmpty() && r.BottomRight.IsEmpty() && r.BottomLeft.IsEmpty()
}

// RRect is a rectangle with elliptical corners.
type RRect struct {
	Rect  Rect
	Radii Radii
}

// MakeRRectXY creates a rounded rectangle with uniform corner radii. Radii
// larger than half the rectangle are scaled down.
func MakeRRectXY(r Rect, rx, ry float64) RRect {
	rx = math.Max(0, math.Min(rx, r.Width()/2))
	ry = math.Max(0, math.Min(ry, r.Height()/2))
	return RRect{Rect: r, Radii: UniformRadii(rx, ry)}
}

// MakeOvalRRect returns the oval inscribed in r as a rounded rectangle.
func MakeOvalRRect(r Rect) RRect {
	return RRect{Rect: r, Radii: UniformRadii(r.Width()/2, r.Height()/2)}
}

// IsEmpty reports whether the bounds enclose no area.
func (rr RRect) IsEmpty() bool {
	return rr.Rect.IsEmpty()
}

// IsRect reports whether the rounded rectangle has square corners.
func (rr RRect) IsRect() bool {
	return rr.Radii.AreAllCornersEmpty()
}

// IsOval reports whether the corners meet to form an ellipse.
func (rr RRect) IsOval() bool {
	w, h := rr.Rect.Width()/2, rr.Rect.Height()/2
	want := Size{W: w, H: h}
	return rr.Radii == Radii{TopLeft: want, TopRight: want, BottomRight: want, BottomLeft: want}
}

// ContainsPoint reports whether p lies inside the rounded rectangle.
func (rr RRect) ContainsPoint(p Point) bool {
	r := rr.Rect
	if p.X < r.Left || p.X > r.Right || p.Y < r.Top || p.Y > r.Bottom {
		return false
	}
	type corner struct {
		radius Size
		cx, cy float64
		inX    bool
		inY    bool
	}
	corners := [4]corner{
		{rr.Radii.TopLeft, r.Left + rr.Radii.TopLeft.W, r.Top + rr.Radii.TopLeft.H,
			p.X < r.Left+rr.Radii.TopLeft.W, p.Y < r.Top+rr.Radii.TopLeft.H},
		{rr.Radii.TopRight, r.Right - rr.Radii.TopRight.W, r.Top + rr.Radii.TopRight.H,
			p.X > r.Right-rr.Radii.TopRight.W, p.Y < r.Top+rr.Radii.TopRight.H},
		{rr.Radii.BottomRight, r.Right - rr.Radii.BottomRight.W, r.Bottom - rr.Radii.BottomRight.H,
			p.X > r.Right-rr.Radii.BottomRight.W, p.Y > r.Bottom-rr.Radii.BottomRight.H},
		{rr.Radii.BottomLeft, r.Left + rr.Radii.BottomLeft.W, r.Bottom - rr.Radii.BottomLeft.H,
			p.X < r.Left+rr.Radii.BottomLeft.W, p.Y > r.Bottom-rr.Radii.BottomLeft.H},
	}
	for _, c := range corners {
		if c.radius.IsEmpty() || !c.inX || !c.inY {
			continue
		}
		dx := (p.X - c.cx) / c.radius.W
		dy := (p.Y - c.cy) / c.radius.H
		if dx*dx+dy*dy > 1 {
			return false
		}
	}
	return true
}

// SafeInnerRects returns two rectangles fully inside the rounded rectangle:
// a horizontal band between the corner rows and a vertical band between the
// corner columns. Their union is a conservative interior.
func (rr RRect) SafeInnerRects() (horizontal, vertical Rect) {
	r, rad := rr.Rect, rr.Radii
	horizontal = Rect{
		Left:   r.Left,
		Top:    r.Top + math.Max(rad.TopLeft.H, rad.TopRight.H),
		Right:  r.Right,
		Bottom: r.Bottom - math.Max(rad.BottomLeft.H, rad.BottomRight.H),
	}
	vertical = Rect{
		Left:   r.Left + math.Max(rad.TopLeft.W, rad.BottomLeft.W),
		Top:    r.Top,
		Right:  r.Right - math.Max(rad.TopRight.W, rad.BottomRight.W),
		Bottom: r.Bottom,
	}
	return horizontal, vertical
}

// OvalContainsPoint reports whether p lies inside the ellipse inscribed in r.
func OvalContainsPoint(r Rect, p Point) bool {
	if r.IsEmpty() {
		return false
	}
	c := r.Center()
	dx := (p.X - c.X) / (r.Width() / 2)
	dy := (p.Y - c.Y) / (r.Height() / 2)
	return dx*dx+dy*dy <= 1
}

// OvalInnerRect returns the largest axis-aligned rectangle inscribed in the
// ellipse bounded by r.
func OvalInnerRect(r Rect) Rect {
	c := r.Center()
	hw := r.Width() / 2 / math.Sqrt2
	hh := r.Height() / 2 / math.Sqrt2
	return Rect{Left: c.X - hw, Top: c.Y - hh, Right: c.X + hw, Bottom: c.Y + hh}
}
