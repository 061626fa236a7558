package compositor

import (
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/geometry"
	"github.com/gogpu/compositor/internal/clip"
)

// ClipOp selects how a clip combines with the current clip.
type ClipOp = clip.Op

// Clip operations.
const (
	// ClipIntersect keeps the inside of the shape.
	ClipIntersect = clip.OpIntersect
	// ClipDifference keeps the outside of the shape.
	ClipDifference = clip.OpDifference
)

// ClipRect clips to a rectangle.
func (c *Canvas) ClipRect(r geom.Rect, op ClipOp, antialias bool) {
	s := clip.RectShape(r)
	c.clipShape(geometry.NewRect(r), &s, op, antialias)
}

// ClipOval clips to the ellipse inscribed in r.
func (c *Canvas) ClipOval(r geom.Rect, op ClipOp, antialias bool) {
	s := clip.OvalShape(r)
	c.clipShape(geometry.NewOval(r), &s, op, antialias)
}

// ClipRRect clips to a rounded rectangle.
func (c *Canvas) ClipRRect(rr geom.RRect, op ClipOp, antialias bool) {
	switch {
	case rr.IsRect():
		c.ClipRect(rr.Rect, op, antialias)
	case rr.IsOval():
		c.ClipOval(rr.Rect, op, antialias)
	default:
		s := clip.RRectShape(rr)
		c.clipShape(geometry.NewRRect(rr), &s, op, antialias)
	}
}

// ClipPath clips to a path. Clipping to an inverse-fill path is clipping to
// the regular path with the opposite op.
func (c *Canvas) ClipPath(p *geom.Path, op ClipOp, antialias bool) {
	if p == nil {
		return
	}
	if p.IsInverseFill() {
		op = op.Invert()
		p = p.Clone()
		p.SetInverseFill(false)
	}
	s := clip.PathShape(p)
	c.clipShape(geometry.NewPath(p), &s, op, antialias)
}

// ClipGeometry clips to an arbitrary geometry. Coverage tracking only uses
// the geometry's bounds.
func (c *Canvas) ClipGeometry(g geometry.Geometry, op ClipOp, antialias bool) {
	if g == nil {
		return
	}
	c.clipShape(g, nil, op, antialias)
}

// clipShape applies a clip. shape, when known, allows exact coverage
// tracking and the covered-intersect shortcut.
func (c *Canvas) clipShape(g geometry.Geometry, shape *clip.Shape, op ClipOp, antialias bool) {
	f := c.top()
	if f.skipping {
		return
	}
	cur := c.coverage.CurrentCoverage()
	if shape != nil && op == clip.OpIntersect && shape.Kind != clip.ShapePath && cur != nil &&
		clip.ShapeCoversRect(*shape, f.transform, *cur) {
		return
	}

	if shape != nil {
		c.cull.Clip(*shape, op, antialias)
	} else if op == clip.OpIntersect {
		if b, ok := g.Coverage(geom.Identity()); ok {
			c.cull.Clip(clip.RectShape(b), op, antialias)
		}
	}

	var next *geom.Rect
	if cur != nil {
		var r geom.Rect
		switch {
		case shape != nil:
			r = clip.AdjustCoverage(*cur, *shape, f.transform, op, antialias)
		case op == clip.OpIntersect:
			if b, ok := g.Coverage(f.transform); ok {
				if antialias {
					b = b.RoundOut()
				}
				r = cur.IntersectionOrEmpty(b)
			}
		case g.CoversArea(f.transform, *cur):
			r = geom.Rect{}
		default:
			r = *cur
		}
		if !r.IsEmpty() {
			next = &r
		}
	}

	isRect := shape != nil && shape.Kind == clip.ShapeRect
	cc := clip.ClipCoverage{
		Coverage:              next,
		DifferenceOrNonSquare: op == clip.OpDifference || !(isRect && f.transform.IsAligned()),
	}
	gpp := c.globalPassPosition()
	e := &Entity{
		Contents:  NewClipContents(g, op),
		Transform: geom.TranslatePoint(gpp.Neg()).Multiply(f.transform),
		ClipDepth: f.clipDepth,
	}
	res := c.coverage.AppendClip(cc, e)
	if res.ClipDidChange {
		c.setClipScissor()
	}
	f.clipHeight++
	f.numClips++
	if res.ShouldRender {
		c.renderEntity("Clip", e)
	}
}
