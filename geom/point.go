// Package geom provides the geometry types shared by the compositor and its
// backends: points, sizes, axis-aligned rectangles, rounded rectangles,
// paths and 4x4 transforms.
package geom

import "math"

// Point represents a 2D point or vector.
type Point struct {
	X, Y float64
}

// Pt is a convenience function to create a Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns the sum of two points (vector addition).
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the difference of two points (vector subtraction).
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul returns the point scaled by a scalar.
func (p Point) Mul(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Neg returns the point with both coordinates negated.
func (p Point) Neg() Point {
	return Point{X: -p.X, Y: -p.Y}
}

// Dot returns the dot product of two vectors.
func (p Point) Dot(q Point) float64 {
	return p.X*q.X + p.Y*q.Y
}

// Cross returns the 2D cross product (scalar).
func (p Point) Cross(q Point) float64 {
	return p.X*q.Y - p.Y*q.X
}

// Length returns the length of the vector.
func (p Point) Length() float64 {
	return math.Hypot(p.X, p.Y)
}

// Floor rounds both coordinates down.
func (p Point) Floor() Point {
	return Point{X: math.Floor(p.X), Y: math.Floor(p.Y)}
}

// Round rounds both coordinates to the nearest integer, halves away from zero.
func (p Point) Round() Point {
	return Point{X: math.Round(p.X), Y: math.Round(p.Y)}
}

// IsFinite reports whether both coordinates are finite.
func (p Point) IsFinite() bool {
	return !math.IsInf(p.X, 0) && !math.IsNaN(p.X) && !math.IsInf(p.Y, 0) && !math.IsNaN(p.Y)
}

// Size is a width/height pair in floating point units.
type Size struct {
	W, H float64
}

// IsEmpty reports whether the size has no area.
func (s Size) IsEmpty() bool {
	return !(s.W > 0) || !(s.H > 0)
}

// ISize is an integral width/height pair, used for texture dimensions.
type ISize struct {
	W, H int
}

// IsEmpty reports whether the size has no area.
func (s ISize) IsEmpty() bool {
	return s.W <= 0 || s.H <= 0
}

// Area returns W*H.
func (s ISize) Area() int {
	return s.W * s.H
}

// Min returns the component-wise minimum of two sizes.
func (s ISize) Min(o ISize) ISize {
	return ISize{W: min(s.W, o.W), H: min(s.H, o.H)}
}

// ToSize converts to floating point.
func (s ISize) ToSize() Size {
	return Size{W: float64(s.W), H: float64(s.H)}
}
