package compositor

import (
	"math"

	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/geometry"
	"github.com/gogpu/compositor/text"
)

func paintOrDefault(p *Paint) *Paint {
	if p == nil {
		d := NewPaint()
		return &d
	}
	return p
}

// DrawPaint fills the whole clip with p.
func (c *Canvas) DrawPaint(p *Paint) {
	c.drawShape("DrawPaint", geometry.Cover{}, paintOrDefault(p))
}

// DrawGeometry draws an arbitrary geometry with p. The paint style is
// ignored.
func (c *Canvas) DrawGeometry(g geometry.Geometry, p *Paint) {
	if g == nil {
		return
	}
	c.drawShape("DrawGeometry", g, paintOrDefault(p))
}

// DrawRect draws a rectangle.
func (c *Canvas) DrawRect(r geom.Rect, p *Paint) {
	p = paintOrDefault(p)
	if r.IsEmpty() || !finite(r.Left, r.Top, r.Right, r.Bottom) {
		return
	}
	if p.Style == StyleStroke {
		path := geom.NewPath()
		path.AddRect(r)
		c.drawShape("DrawRect", geometry.NewStroke(path, p.strokeStyle()), p)
		return
	}
	rr := geom.RRect{Rect: r}
	if c.attemptDrawBlurredRRect("DrawRect", rr, p) {
		return
	}
	c.drawShape("DrawRect", geometry.NewRect(r), p)
}

// DrawOval draws the ellipse inscribed in r.
func (c *Canvas) DrawOval(r geom.Rect, p *Paint) {
	p = paintOrDefault(p)
	if r.IsEmpty() || !finite(r.Left, r.Top, r.Right, r.Bottom) {
		return
	}
	if r.Width() == r.Height() {
		c.DrawCircle(r.Center(), r.Width()/2, p)
		return
	}
	if p.Style == StyleStroke {
		path := geom.NewPath()
		path.AddOval(r)
		c.drawShape("DrawOval", geometry.NewStroke(path, p.strokeStyle()), p)
		return
	}
	c.drawShape("DrawOval", geometry.NewOval(r), p)
}

// DrawRRect draws a rounded rectangle.
func (c *Canvas) DrawRRect(rr geom.RRect, p *Paint) {
	p = paintOrDefault(p)
	if rr.IsEmpty() {
		return
	}
	if p.Style == StyleStroke {
		path := geom.NewPath()
		path.AddRRect(rr)
		c.drawShape("DrawRRect", geometry.NewStroke(path, p.strokeStyle()), p)
		return
	}
	if c.attemptDrawBlurredRRect("DrawRRect", rr, p) {
		return
	}
	c.drawShape("DrawRRect", geometry.NewRRect(rr), p)
}

// DrawCircle draws a circle. A radius of zero or less draws nothing.
func (c *Canvas) DrawCircle(center geom.Point, radius float64, p *Paint) {
	p = paintOrDefault(p)
	if radius <= 0 || !finite(center.X, center.Y, radius) {
		return
	}
	if p.Style == StyleStroke {
		c.drawShape("DrawCircle", geometry.NewStrokedCircle(center, radius, p.StrokeWidth), p)
		return
	}
	bounds := geom.MakeLTRB(center.X-radius, center.Y-radius, center.X+radius, center.Y+radius)
	if c.attemptDrawBlurredRRect("DrawCircle", geom.MakeOvalRRect(bounds), p) {
		return
	}
	c.drawShape("DrawCircle", geometry.NewCircle(center, radius), p)
}

// DrawLine strokes a segment with the paint's stroke width and cap.
func (c *Canvas) DrawLine(p0, p1 geom.Point, p *Paint) {
	p = paintOrDefault(p)
	if !finite(p0.X, p0.Y, p1.X, p1.Y) {
		return
	}
	c.drawShape("DrawLine", geometry.NewLine(p0, p1, p.StrokeWidth, p.StrokeCap), p)
}

// DrawPath fills or strokes a path.
func (c *Canvas) DrawPath(path *geom.Path, p *Paint) {
	p = paintOrDefault(p)
	if path == nil || (path.IsEmpty() && !path.IsInverseFill()) {
		return
	}
	if p.Style == StyleStroke {
		c.drawShape("DrawPath", geometry.NewStroke(path, p.strokeStyle()), p)
		return
	}
	c.drawShape("DrawPath", geometry.NewPath(path), p)
}

// DrawPoints draws a square or disc of the given radius at every point.
func (c *Canvas) DrawPoints(points []geom.Point, radius float64, mode geometry.PointMode, p *Paint) {
	if radius <= 0 || len(points) == 0 {
		return
	}
	c.drawShape("DrawPoints", geometry.NewPoints(points, radius, mode), paintOrDefault(p))
}

// DrawVertices draws a triangle mesh. Meshes with texture coordinates are
// textured by the paint's image source when it has one.
func (c *Canvas) DrawVertices(v *geometry.Vertices, p *Paint) {
	if v == nil || len(v.Positions) < 3 || !c.canDraw() {
		return
	}
	c.addRenderEntityWithFilters("DrawVertices", v, paintOrDefault(p), false)
}

// DrawImage draws the whole texture with its top-left corner at pos.
func (c *Canvas) DrawImage(tex Texture, pos geom.Point, sampling Sampling, p *Paint) {
	if tex == nil {
		return
	}
	size := tex.Size()
	src := geom.MakeISize(size)
	c.DrawImageRect(tex, src, src.Shift(pos), sampling, p)
}

// DrawImageRect draws the src pixels of tex into the local rect dst. The
// paint's alpha scales the image.
func (c *Canvas) DrawImageRect(tex Texture, src, dst geom.Rect, sampling Sampling, p *Paint) {
	p = paintOrDefault(p)
	if tex == nil || src.IsEmpty() || dst.IsEmpty() || !c.canDraw() {
		return
	}
	bounds := geom.MakeISize(tex.Size())
	clipped, ok := src.Intersection(bounds)
	if !ok {
		return
	}
	if clipped != src {
		// Map the clipped source back through the src to dst mapping.
		sx := dst.Width() / src.Width()
		sy := dst.Height() / src.Height()
		dst = geom.MakeLTRB(
			dst.Left+(clipped.Left-src.Left)*sx,
			dst.Top+(clipped.Top-src.Top)*sy,
			dst.Left+(clipped.Right-src.Left)*sx,
			dst.Top+(clipped.Bottom-src.Top)*sy,
		)
		src = clipped
	}
	tc := NewTextureContents(tex, src, dst)
	tc.SetSampling(sampling)
	tc.SetOpacity(p.Color.A)
	var contents Contents = tc
	if mb := p.MaskBlur; mb != nil && mb.Sigma > 0 {
		contents = newFilterContents(contents, NewBlurImageFilter(mb.Sigma, mb.Sigma))
	}
	c.addRenderEntity("DrawImageRect", &Entity{
		Contents:  p.withFilters(contents),
		Transform: c.top().transform,
		BlendMode: p.BlendMode,
	}, false)
}

// DrawAtlas draws sprites src[i] of tex placed by transforms[i]. colors,
// when not nil, are blended over each sprite with mode. cull, when not
// nil, are the precomputed local bounds of all sprites.
func (c *Canvas) DrawAtlas(tex Texture, transforms []geom.Matrix, src []geom.Rect, colors []blend.Color, mode blend.Mode, sampling Sampling, cull *geom.Rect, p *Paint) {
	p = paintOrDefault(p)
	if tex == nil || len(transforms) == 0 || len(src) == 0 || !c.canDraw() {
		return
	}
	ac := NewAtlasContents(tex, transforms, src, colors, mode, sampling)
	if cull != nil {
		ac.SetCullRect(*cull)
	}
	ac.SetAlpha(p.Color.A)
	c.addRenderEntity("DrawAtlas", &Entity{
		Contents:  p.withFilters(ac),
		Transform: c.top().transform,
		BlendMode: p.BlendMode,
	}, false)
}

// DrawTextFrame draws a shaped text frame with its origin at pos.
func (c *Canvas) DrawTextFrame(frame *text.Frame, pos geom.Point, p *Paint) {
	p = paintOrDefault(p)
	if frame == nil || frame.Bounds().IsEmpty() || !c.canDraw() {
		return
	}
	var contents Contents = NewTextContents(frame, p.Color)
	if mb := p.MaskBlur; mb != nil && mb.Sigma > 0 {
		contents = newFilterContents(contents, NewBlurImageFilter(mb.Sigma, mb.Sigma))
	}
	c.addRenderEntity("DrawTextFrame", &Entity{
		Contents:  p.withFilters(contents),
		Transform: c.top().transform.Multiply(geom.TranslatePoint(pos)),
		BlendMode: p.BlendMode,
	}, false)
}

// attemptDrawBlurredRRect draws a mask-blurred rect, rounded rect or circle
// with the analytic blur. It reports false when the draw does not qualify.
func (c *Canvas) attemptDrawBlurredRRect(op string, rr geom.RRect, p *Paint) bool {
	mb := p.MaskBlur
	if mb == nil || mb.Sigma <= 0 || p.Style != StyleFill || p.Source != nil {
		return false
	}
	if !rr.IsRect() && !uniformRadii(rr.Radii) {
		return false
	}
	if !c.canDraw() {
		return true
	}
	c.drawBlurred(op, geometry.NewRRect(rr), &rr, p)
	return true
}

func uniformRadii(r geom.Radii) bool {
	const eps = 1e-9
	same := func(a, b geom.Size) bool {
		return math.Abs(a.W-b.W) < eps && math.Abs(a.H-b.H) < eps
	}
	return same(r.TopLeft, r.TopRight) && same(r.TopLeft, r.BottomRight) && same(r.TopLeft, r.BottomLeft) &&
		math.Abs(r.TopLeft.W-r.TopLeft.H) < eps
}
