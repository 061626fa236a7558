package compositor

import (
	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/geometry"
)

// canDraw reports whether draws in the current scope can be visible.
func (c *Canvas) canDraw() bool {
	f := c.top()
	return !f.skipping && f.transform.IsInvertible()
}

// addRenderEntity stamps e with the next depth and draws it into the
// current pass. e.Transform is in root space on entry.
//
// Draws that fill the whole pass before anything else is drawn are folded
// into the pass clear color instead. reuseDepth draws at the depth of the
// previous draw, for compound draws that must not be separated by a clip.
func (c *Canvas) addRenderEntity(op string, e *Entity, reuseDepth bool) {
	f := c.top()
	if f.skipping || e.Contents == nil {
		return
	}
	e.Transform = geom.TranslatePoint(c.globalPassPosition().Neg()).Multiply(e.Transform)
	e.SetInheritedOpacity(f.distributedOpacity)
	if e.BlendMode == blend.ModeSourceOver && e.Contents.IsOpaque(e.Transform) {
		e.BlendMode = blend.ModeSource
	}

	lp := c.currentPass()
	if lp.applyingClearColor() {
		if col, ok := e.AsBackgroundColor(lp.target.size()); ok {
			lp.clear = lp.clear.Unpremultiply().Blend(col, e.BlendMode).Premultiply()
			return
		}
	}

	if !reuseDepth {
		c.currentDepth++
	}
	debugAssert(c.opts.strict, c.currentDepth <= f.clipDepth,
		"draw depth exceeds clip depth", "op", op, "depth", c.currentDepth, "clipDepth", f.clipDepth)
	e.ClipDepth = min(c.currentDepth, f.clipDepth)

	clipCov, ok := c.currentCoverageInPass()
	if !ok {
		return
	}
	if cov, ok := e.Coverage(); !ok || !cov.IntersectsWith(clipCov) {
		return
	}

	if e.BlendMode.IsAdvanced() {
		if !c.emulateAdvancedBlend(op, e) {
			return
		}
	}
	c.renderEntity(op, e)
}

// renderEntity draws e into the current pass.
func (c *Canvas) renderEntity(op string, e *Entity) bool {
	pass, err := c.openPass()
	if err != nil {
		c.recordDiagnostic(op, err)
		return false
	}
	if err := e.Render(c.renderer, pass); err != nil {
		c.recordDiagnostic(op, err)
		return false
	}
	return true
}

// drawShape draws g with paint p. Mask blurs go through drawBlurred.
func (c *Canvas) drawShape(op string, g geometry.Geometry, p *Paint) {
	if !c.canDraw() {
		return
	}
	if mb := p.MaskBlur; mb != nil && mb.Sigma > 0 {
		c.drawBlurred(op, g, nil, p)
		return
	}
	c.addRenderEntityWithFilters(op, g, p, false)
}

// addRenderEntityWithFilters draws the paint's color source over g with
// its color and image filters.
func (c *Canvas) addRenderEntityWithFilters(op string, g geometry.Geometry, p *Paint, reuseDepth bool) {
	contents := p.withFilters(c.provider.CreateContents(p, g))
	c.addRenderEntity(op, &Entity{
		Contents:  contents,
		Transform: c.top().transform,
		BlendMode: p.BlendMode,
	}, reuseDepth)
}

// drawBlurred draws g with a mask blur. rr, when not nil, is the rounded
// rectangle g describes and selects the analytic blur.
//
// Solid, outer and inner styles are built from a normal blur plus a sharp
// draw or a clip by the shape, inside their own save level. A layer is
// needed when those parts would not composite correctly one by one.
func (c *Canvas) drawBlurred(op string, g geometry.Geometry, rr *geom.RRect, p *Paint) {
	mb := p.MaskBlur
	color := p.Color
	if rr != nil {
		color = p.filteredColor()
	}
	needsLayer := (mb.Style != BlurNormal && p.ImageFilter != nil) ||
		(mb.Style == BlurSolid && (!color.IsOpaque() || p.BlendMode != blend.ModeSourceOver))

	draw := *p
	draw.MaskBlur = nil
	if rr != nil {
		draw.Color = color
		draw.ColorFilter = nil
	}
	if needsLayer {
		layer := NewColorPaint(blend.RGBA(1, 1, 1, color.A))
		layer.BlendMode = p.BlendMode
		layer.ImageFilter = p.ImageFilter
		var bounds *geom.Rect
		if b, ok := g.Coverage(geom.Identity()); ok {
			if mb.Style != BlurInner {
				b = b.Expand(4 * mb.Sigma)
			}
			bounds = &b
		}
		c.SaveLayer(&layer, bounds, nil, BoundsContainsContents, 1, false)
		draw.Color.A = 1
		draw.BlendMode = blend.ModeSourceOver
		draw.ImageFilter = nil
	} else {
		c.Save(1)
	}

	blurred := func() Contents {
		var bc Contents
		if rr != nil {
			bc = newRRectBlurContents(*rr, mb.Sigma, draw.Color)
		} else {
			bc = newFilterContents(draw.withFilters(c.provider.CreateContents(&draw, g)), NewBlurImageFilter(mb.Sigma, mb.Sigma))
		}
		if draw.ImageFilter != nil {
			bc = newFilterContents(bc, draw.ImageFilter)
		}
		return bc
	}
	addBlurred := func() {
		c.addRenderEntity(op, &Entity{Contents: blurred(), Transform: c.top().transform, BlendMode: draw.BlendMode}, false)
	}

	switch mb.Style {
	case BlurNormal:
		addBlurred()
	case BlurSolid:
		addBlurred()
		sharp := draw
		sharp.ImageFilter = nil
		c.addRenderEntityWithFilters(op, g, &sharp, true)
	case BlurOuter:
		c.ClipGeometry(g, ClipDifference, true)
		addBlurred()
	case BlurInner:
		c.ClipGeometry(g, ClipIntersect, true)
		addBlurred()
	}
	c.Restore()
}
