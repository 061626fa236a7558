package clip

import (
	"math"

	"github.com/gogpu/compositor/geom"
)

// AdjustCoverage applies one clip to a device-space coverage rectangle and
// returns the new coverage. The result is conservative: it may be larger
// than the true visible area but never smaller.
//
// Rules:
//   - An empty coverage or a perspective transform leaves coverage unchanged.
//   - Intersect maps the shape bounds, rounds out when antialiased and
//     intersects (empty when disjoint).
//   - Difference first checks whether the shape covers all of the coverage,
//     which empties it. Otherwise only rectangles under rect-to-rect
//     transforms cut coverage; everything else leaves it unchanged.
//   - Difference by a rounded rectangle cuts with its two safe inner bands.
func AdjustCoverage(coverage geom.Rect, s Shape, m geom.Matrix, op Op, antialias bool) geom.Rect {
	if coverage.IsEmpty() || !s.IsFinite() {
		return coverage
	}
	if s.Kind == ShapePath && s.Path != nil && s.Path.IsInverseFill() {
		op = op.Invert()
	}
	if op == OpDifference && ShapeCoversRect(s, m, coverage) {
		return geom.Rect{}
	}

	switch s.Kind {
	case ShapeRect:
		return adjustRect(coverage, s.RRect.Rect, m, op, antialias)
	case ShapeOval:
		if op == OpIntersect {
			return adjustRect(coverage, s.RRect.Rect, m, op, antialias)
		}
		return coverage
	case ShapeRRect:
		if op == OpIntersect {
			return adjustRect(coverage, s.RRect.Rect, m, op, antialias)
		}
		h, v := s.RRect.SafeInnerRects()
		coverage = adjustRect(coverage, h, m, op, antialias)
		return adjustRect(coverage, v, m, op, antialias)
	default:
		if op == OpIntersect {
			return adjustRect(coverage, s.Bounds(), m, op, antialias)
		}
		return coverage
	}
}

func adjustRect(coverage, clip geom.Rect, m geom.Matrix, op Op, antialias bool) geom.Rect {
	if coverage.IsEmpty() || m.HasPerspective() {
		return coverage
	}
	switch op {
	case OpIntersect:
		if clip.IsEmpty() {
			return geom.Rect{}
		}
		r, ok := clip.TransformBounds(m)
		if !ok {
			return coverage
		}
		if antialias {
			r = r.RoundOut()
		}
		return coverage.IntersectionOrEmpty(r)
	case OpDifference:
		if clip.IsEmpty() || !m.IsAligned() {
			return coverage
		}
		r, ok := clip.TransformBounds(m)
		if !ok {
			return coverage
		}
		if antialias {
			r = geom.MakeLTRB(math.Round(r.Left), math.Round(r.Top), math.Round(r.Right), math.Round(r.Bottom))
			if r.IsEmpty() {
				return coverage
			}
		}
		return coverage.CutoutOrEmpty(r)
	}
	return coverage
}

// ShapeCoversRect reports whether the shape, drawn under m, contains every
// corner of the device rectangle r. The corners are mapped back to local
// space through the inverse of m. Paths never cover.
func ShapeCoversRect(s Shape, m geom.Matrix, r geom.Rect) bool {
	if s.Kind == ShapePath || s.Bounds().IsEmpty() {
		return false
	}
	if r.IsEmpty() {
		return true
	}
	if s.Kind == ShapeRect && m.IsAligned() {
		mapped, ok := s.RRect.Rect.TransformBounds(m)
		return ok && mapped.Contains(r)
	}
	inv, ok := m.Invert()
	if !ok {
		return false
	}
	for _, c := range r.Corners() {
		if inv.HasPerspective() {
			if _, _, w := inv.TransformHomogeneous(c); w <= 0 {
				return false
			}
		}
		if !s.ContainsInclusive(inv.TransformPoint(c)) {
			return false
		}
	}
	return true
}

// cullState is one save level of a CullTracker.
type cullState struct {
	matrix geom.Matrix
	cull   geom.Rect
}

// CullTracker tracks a transform and a conservative device-space cull
// rectangle through save/restore scopes. It answers whether content is
// worth drawing at all, before any GPU work.
type CullTracker struct {
	stack []cullState
}

// NewCullTracker creates a tracker with the given device cull rectangle and
// initial transform.
func NewCullTracker(cull geom.Rect, m geom.Matrix) *CullTracker {
	if cull.IsEmpty() {
		cull = geom.Rect{}
	}
	return &CullTracker{stack: []cullState{{matrix: m, cull: cull}}}
}

func (t *CullTracker) top() *cullState { return &t.stack[len(t.stack)-1] }

// Save pushes a copy of the current state.
func (t *CullTracker) Save() {
	t.stack = append(t.stack, *t.top())
}

// Restore pops the current state. The base state is never popped.
func (t *CullTracker) Restore() {
	if len(t.stack) > 1 {
		t.stack = t.stack[:len(t.stack)-1]
	}
}

// Depth returns the number of saved states above the base.
func (t *CullTracker) Depth() int { return len(t.stack) - 1 }

// Matrix returns the current transform.
func (t *CullTracker) Matrix() geom.Matrix { return t.top().matrix }

// Concat post-multiplies the current transform.
func (t *CullTracker) Concat(m geom.Matrix) {
	s := t.top()
	s.matrix = s.matrix.Multiply(m)
}

// SetMatrix replaces the current transform.
func (t *CullTracker) SetMatrix(m geom.Matrix) { t.top().matrix = m }

// Clip applies a clip shape to the cull rectangle.
func (t *CullTracker) Clip(s Shape, op Op, antialias bool) {
	st := t.top()
	st.cull = AdjustCoverage(st.cull, s, st.matrix, op, antialias)
}

// DeviceCullRect returns the current device-space cull rectangle.
func (t *CullTracker) DeviceCullRect() geom.Rect { return t.top().cull }

// LocalCullRect returns the cull rectangle mapped into local space. Under
// perspective it returns the maximum rectangle, which never culls.
func (t *CullTracker) LocalCullRect() geom.Rect {
	st := t.top()
	if st.cull.IsEmpty() {
		return geom.Rect{}
	}
	inv, ok := st.matrix.Invert()
	if !ok {
		return geom.Rect{}
	}
	if st.matrix.HasPerspective() {
		return geom.MakeMaximum()
	}
	r, ok := st.cull.TransformBounds(inv)
	if !ok {
		return geom.MakeMaximum()
	}
	return r
}

// ContentCulled reports whether local content bounds cannot be visible.
func (t *CullTracker) ContentCulled(bounds geom.Rect) bool {
	st := t.top()
	if st.cull.IsEmpty() || bounds.IsEmpty() {
		return true
	}
	if !st.matrix.IsInvertible() {
		return true
	}
	if st.matrix.HasPerspective() {
		return false
	}
	mapped, ok := bounds.TransformBounds(st.matrix)
	if !ok {
		return false
	}
	return !mapped.IntersectsWith(st.cull)
}
