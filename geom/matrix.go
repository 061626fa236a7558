package geom

import "math"

// Matrix is a 4x4 transformation matrix stored in column-major order:
//
//	| m[0] m[4] m[8]  m[12] |
//	| m[1] m[5] m[9]  m[13] |
//	| m[2] m[6] m[10] m[14] |
//	| m[3] m[7] m[11] m[15] |
//
// 2D points are mapped as (x, y, 0, 1). Terms m[3], m[7] and m[15] carry
// perspective; a matrix whose bottom row is (0 0 0 1) is affine.
type Matrix struct {
	M [16]float64
}

// Identity returns the identity transformation matrix.
func Identity() Matrix {
	return Matrix{M: [16]float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}}
}

// Affine creates a matrix from the 2D affine coefficients
//
//	x' = a*x + c*y + tx
//	y' = b*x + d*y + ty
func Affine(a, b, c, d, tx, ty float64) Matrix {
	return Matrix{M: [16]float64{
		a, b, 0, 0,
		c, d, 0, 0,
		0, 0, 1, 0,
		tx, ty, 0, 1,
	}}
}

// Translate creates a translation matrix.
func Translate(x, y float64) Matrix {
	return Affine(1, 0, 0, 1, x, y)
}

// TranslatePoint creates a translation matrix by the vector p.
func TranslatePoint(p Point) Matrix {
	return Translate(p.X, p.Y)
}

// Scale creates a scaling matrix.
func Scale(x, y float64) Matrix {
	return Affine(x, 0, 0, y, 0, 0)
}

// Rotate creates a rotation matrix about the Z axis (angle in radians).
func Rotate(angle float64) Matrix {
	cos := math.Cos(angle)
	sin := math.Sin(angle)
	return Affine(cos, sin, -sin, cos, 0, 0)
}

// Skew creates a skew matrix.
func Skew(sx, sy float64) Matrix {
	return Affine(1, sy, sx, 1, 0, 0)
}

// Perspective creates a matrix with the given perspective terms in the
// bottom row, for x and y respectively.
func Perspective(px, py float64) Matrix {
	m := Identity()
	m.M[3] = px
	m.M[7] = py
	return m
}

// Multiply returns m * o, which applies o first and then m.
func (m Matrix) Multiply(o Matrix) Matrix {
	var r Matrix
	for c := 0; c < 4; c++ {
		for row := 0; row < 4; row++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m.M[k*4+row] * o.M[c*4+k]
			}
			r.M[c*4+row] = sum
		}
	}
	return r
}

// TransformPoint maps a 2D point, applying the perspective divide.
func (m Matrix) TransformPoint(p Point) Point {
	x, y, w := m.TransformHomogeneous(p)
	if w != 0 && w != 1 {
		return Point{X: x / w, Y: y / w}
	}
	return Point{X: x, Y: y}
}

// TransformHomogeneous maps a 2D point without dividing by w.
func (m Matrix) TransformHomogeneous(p Point) (x, y, w float64) {
	x = m.M[0]*p.X + m.M[4]*p.Y + m.M[12]
	y = m.M[1]*p.X + m.M[5]*p.Y + m.M[13]
	w = m.M[3]*p.X + m.M[7]*p.Y + m.M[15]
	return x, y, w
}

// TransformVector maps a direction, ignoring translation and perspective.
func (m Matrix) TransformVector(v Point) Point {
	return Point{X: m.M[0]*v.X + m.M[4]*v.Y, Y: m.M[1]*v.X + m.M[5]*v.Y}
}

// Translation returns the 2D translation component.
func (m Matrix) Translation() Point {
	return Point{X: m.M[12], Y: m.M[13]}
}

// IsIdentity reports whether m is the identity.
func (m Matrix) IsIdentity() bool {
	return m == Identity()
}

// HasPerspective reports whether m has perspective terms that affect 2D
// points.
func (m Matrix) HasPerspective() bool {
	return m.M[3] != 0 || m.M[7] != 0 || m.M[11] != 0 || m.M[15] != 1
}

// HasTranslation reports whether m moves the origin in X or Y.
func (m Matrix) HasTranslation() bool {
	return m.M[12] != 0 || m.M[13] != 0
}

// IsTranslationOnly reports whether m is a pure 2D translation.
func (m Matrix) IsTranslationOnly() bool {
	t := Translate(m.M[12], m.M[13])
	t.M[14] = m.M[14]
	return m == t
}

// IsTranslationScaleOnly reports whether m only translates and scales.
func (m Matrix) IsTranslationScaleOnly() bool {
	return !m.HasPerspective() && m.M[1] == 0 && m.M[4] == 0
}

// IsAligned reports whether m maps axis-aligned rectangles onto
// axis-aligned rectangles (translation, scale and quarter-turn rotations).
func (m Matrix) IsAligned() bool {
	if m.HasPerspective() {
		return false
	}
	return (m.M[1] == 0 && m.M[4] == 0) || (m.M[0] == 0 && m.M[5] == 0)
}

// IsInvertible reports whether m has a non-zero, finite determinant.
func (m Matrix) IsInvertible() bool {
	d := m.Determinant()
	return d != 0 && !math.IsNaN(d) && !math.IsInf(d, 0)
}

// Determinant returns the determinant of the full 4x4 matrix.
func (m Matrix) Determinant() float64 {
	a := m.M
	b00 := a[0]*a[5] - a[1]*a[4]
	b01 := a[0]*a[6] - a[2]*a[4]
	b02 := a[0]*a[7] - a[3]*a[4]
	b03 := a[1]*a[6] - a[2]*a[5]
	b04 := a[1]*a[7] - a[3]*a[5]
	b05 := a[2]*a[7] - a[3]*a[6]
	b06 := a[8]*a[13] - a[9]*a[12]
	b07 := a[8]*a[14] - a[10]*a[12]
	b08 := a[8]*a[15] - a[11]*a[12]
	b09 := a[9]*a[14] - a[10]*a[13]
	b10 := a[9]*a[15] - a[11]*a[13]
	b11 := a[10]*a[15] - a[11]*a[14]
	return b00*b11 - b01*b10 + b02*b09 + b03*b08 - b04*b07 + b05*b06
}

// Invert returns the inverse of m. The second result is false when m is
// singular.
func (m Matrix) Invert() (Matrix, bool) {
	a := m.M
	b00 := a[0]*a[5] - a[1]*a[4]
	b01 := a[0]*a[6] - a[2]*a[4]
	b02 := a[0]*a[7] - a[3]*a[4]
	b03 := a[1]*a[6] - a[2]*a[5]
	b04 := a[1]*a[7] - a[3]*a[5]
	b05 := a[2]*a[7] - a[3]*a[6]
	b06 := a[8]*a[13] - a[9]*a[12]
	b07 := a[8]*a[14] - a[10]*a[12]
	b08 := a[8]*a[15] - a[11]*a[12]
	b09 := a[9]*a[14] - a[10]*a[13]
	b10 := a[9]*a[15] - a[11]*a[13]
	b11 := a[10]*a[15] - a[11]*a[14]

	det := b00*b11 - b01*b10 + b02*b09 + b03*b08 - b04*b07 + b05*b06
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return Matrix{}, false
	}
	inv := 1 / det

	var r Matrix
	r.M[0] = (a[5]*b11 - a[6]*b10 + a[7]*b09) * inv
	r.M[1] = (a[2]*b10 - a[1]*b11 - a[3]*b09) * inv
	r.M[2] = (a[13]*b05 - a[14]*b04 + a[15]*b03) * inv
	r.M[3] = (a[10]*b04 - a[9]*b05 - a[11]*b03) * inv
	r.M[4] = (a[6]*b08 - a[4]*b11 - a[7]*b07) * inv
	r.M[5] = (a[0]*b11 - a[2]*b08 + a[3]*b07) * inv
	r.M[6] = (a[14]*b02 - a[12]*b05 - a[15]*b01) * inv
	r.M[7] = (a[8]*b05 - a[10]*b02 + a[11]*b01) * inv
	r.M[8] = (a[4]*b10 - a[5]*b08 + a[7]*b06) * inv
	r.M[9] = (a[1]*b08 - a[0]*b10 - a[3]*b06) * inv
	r.M[10] = (a[12]*b04 - a[13]*b02 + a[15]*b00) * inv
	r.M[11] = (a[9]*b02 - a[8]*b04 - a[11]*b00) * inv
	r.M[12] = (a[5]*b07 - a[4]*b09 - a[6]*b06) * inv
	r.M[13] = (a[0]*b09 - a[1]*b07 + a[2]*b06) * inv
	r.M[14] = (a[13]*b01 - a[12]*b03 - a[14]*b00) * inv
	r.M[15] = (a[8]*b03 - a[9]*b01 + a[10]*b00) * inv
	return r, true
}

// MaxBasisLengthXY returns the larger of the lengths of the X and Y basis
// vectors, the factor by which m scales distances at most (ignoring
// perspective).
func (m Matrix) MaxBasisLengthXY() float64 {
	return math.Max(math.Hypot(m.M[0], m.M[1]), math.Hypot(m.M[4], m.M[5]))
}
