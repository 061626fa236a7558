// Package clip tracks the device-space coverage left visible by clip
// operations. It has two parts:
//   - CullTracker is a matrix/clip state with save/restore that keeps a
//     conservative device cull rectangle.
//   - CoverageStack keeps per-subpass coverage layers and the clip replay
//     list used by the canvas.
package clip

import (
	"fmt"
	"math"

	"github.com/gogpu/compositor/geom"
)

// Op is a clip operation.
type Op uint8

const (
	// OpIntersect keeps the inside of the shape.
	OpIntersect Op = iota
	// OpDifference removes the inside of the shape.
	OpDifference
)

// String returns the string representation of Op.
func (o Op) String() string {
	switch o {
	case OpIntersect:
		return "Intersect"
	case OpDifference:
		return "Difference"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// Invert returns the complementary operation.
func (o Op) Invert() Op {
	if o == OpIntersect {
		return OpDifference
	}
	return OpIntersect
}

// ShapeKind identifies the geometry of a clip shape.
type ShapeKind uint8

const (
	ShapeRect ShapeKind = iota
	ShapeOval
	ShapeRRect
	ShapePath
)

// Shape is a clip shape in local coordinates.
type Shape struct {
	Kind  ShapeKind
	RRect geom.RRect // Rect for ShapeRect and the bounds for ShapeOval.
	Path  *geom.Path
}

// RectShape returns a rectangle shape.
func RectShape(r geom.Rect) Shape {
	return Shape{Kind: ShapeRect, RRect: geom.RRect{Rect: r}}
}

// OvalShape returns the ellipse inscribed in r.
func OvalShape(r geom.Rect) Shape {
	return Shape{Kind: ShapeOval, RRect: geom.MakeOvalRRect(r)}
}

// RRectShape returns a rounded rectangle shape, normalized to a rect or
// oval when the radii allow.
func RRectShape(rr geom.RRect) Shape {
	switch {
	case rr.IsRect():
		return RectShape(rr.Rect)
	case rr.IsOval():
		return OvalShape(rr.Rect)
	}
	return Shape{Kind: ShapeRRect, RRect: rr}
}

// PathShape returns a path shape.
func PathShape(p *geom.Path) Shape {
	return Shape{Kind: ShapePath, Path: p}
}

// Bounds returns the local bounds of the shape.
func (s Shape) Bounds() geom.Rect {
	if s.Kind == ShapePath {
		b, _ := s.Path.Bounds()
		return b
	}
	return s.RRect.Rect
}

// IsFinite reports whether the shape bounds are finite numbers.
func (s Shape) IsFinite() bool {
	b := s.Bounds()
	for _, v := range [4]float64{b.Left, b.Top, b.Right, b.Bottom} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// IsAxisAlignedRect reports whether the shape is a rectangle that stays a
// rectangle under m.
func (s Shape) IsAxisAlignedRect(m geom.Matrix) bool {
	return s.Kind == ShapeRect && m.IsAligned()
}

// ContainsInclusive reports whether p lies inside or on the edge of the
// shape. Paths are only tested against their bounds and report false.
func (s Shape) ContainsInclusive(p geom.Point) bool {
	r := s.RRect.Rect
	inBounds := p.X >= r.Left && p.X <= r.Right && p.Y >= r.Top && p.Y <= r.Bottom
	switch s.Kind {
	case ShapeRect:
		return inBounds
	case ShapeOval:
		if !inBounds {
			return false
		}
		c := r.Center()
		dx := (p.X - c.X) * 2 / r.Width()
		dy := (p.Y - c.Y) * 2 / r.Height()
		return dx*dx+dy*dy < 1
	case ShapeRRect:
		return inBounds && s.RRect.ContainsPoint(p)
	default:
		return false
	}
}
