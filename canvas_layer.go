package compositor

import (
	"fmt"

	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
)

// BoundsPromise describes how the bounds given to SaveLayer relate to the
// layer's contents.
type BoundsPromise uint8

const (
	// BoundsUnknown makes no claim about the contents.
	BoundsUnknown BoundsPromise = iota
	// BoundsContainsContents promises that every draw in the layer lies
	// inside the bounds.
	BoundsContainsContents
	// BoundsMayClipContents warns that the bounds may cut off draws, so the
	// layer cannot be elided.
	BoundsMayClipContents
)

// String returns the string representation of BoundsPromise.
func (b BoundsPromise) String() string {
	switch b {
	case BoundsUnknown:
		return "Unknown"
	case BoundsContainsContents:
		return "ContainsContents"
	case BoundsMayClipContents:
		return "MayClipContents"
	default:
		return fmt.Sprintf("BoundsPromise(%d)", int(b))
	}
}

// SaveLayer pushes a save level whose draws go to an offscreen layer. The
// matching Restore composites the layer with paint's alpha, filters and
// blend mode.
//
// bounds, when not nil, limits the layer in local coordinates. backdrop,
// when not nil, filters the content already drawn under the layer and uses
// it as the layer's initial content. reservedDepth is the number of draws
// and clips inside the layer. canDistributeOpacity reports that the draws
// of the layer do not overlap, which allows an alpha-only layer to be
// replaced by drawing its children with reduced opacity.
func (c *Canvas) SaveLayer(paint *Paint, bounds *geom.Rect, backdrop ImageFilter, promise BoundsPromise, reservedDepth uint32, canDistributeOpacity bool) {
	p := NewPaint()
	if paint != nil {
		p = *paint
	}
	if c.top().skipping {
		c.pushSkipFrame(reservedDepth)
		return
	}
	limit, ok := c.localCoverageLimit()
	if !ok {
		Logger().Debug("compositor: save layer skipped, no coverage")
		c.pushSkipFrame(reservedDepth)
		return
	}

	if canDistributeOpacity && backdrop == nil && p.CanApplyOpacityPeephole() && promise != BoundsMayClipContents {
		c.save(reservedDepth)
		c.top().distributedOpacity *= p.Color.A
		return
	}

	floodInput := backdrop != nil || modifiesTransparentBlack(p.ColorFilter)
	coverage, ok := c.computeSaveLayerCoverage(bounds, limit, p.ImageFilter, p.BlendMode.IsDestructive(), floodInput)
	if !ok {
		Logger().Debug("compositor: save layer skipped, empty coverage")
		c.pushSkipFrame(reservedDepth)
		return
	}

	var size geom.ISize
	didRoundOut := false
	var adjust geom.Point
	if p.ImageFilter != nil {
		size = geom.ISize{W: int(coverage.Width()), H: int(coverage.Height())}
	} else {
		didRoundOut = true
		size = geom.RoundOutRect(coverage).Size()
		adjust = coverage.Origin().Sub(coverage.Origin().Floor())
	}
	if size.IsEmpty() {
		c.pushSkipFrame(reservedDepth)
		return
	}
	size = c.renderer.clampSize(size)

	parent := c.top()
	transform := parent.transform
	gpp := c.globalPassPosition()

	var backdropEntity *Entity
	if backdrop != nil {
		localPosition := layerPosition(coverage.Origin().Sub(adjust), gpp, didRoundOut)
		tex := c.flipBackdrop()
		if tex == nil {
			c.pushSkipFrame(reservedDepth)
			return
		}
		full := geom.MakeISize(tex.Size())
		fc := newFilterContents(NewTextureContents(tex, full, full), backdrop)
		mode := RenderingSubpassAppend
		if transform.HasTranslation() {
			mode = RenderingSubpassPrepend
		}
		fc.setEffect(geom.TranslatePoint(gpp.Neg()).Multiply(transform), mode)
		backdropEntity = &Entity{
			Contents:  fc,
			Transform: geom.TranslatePoint(localPosition.Neg()),
			BlendMode: blend.ModeSource,
			ClipDepth: MaxDepth,
		}
	}

	target, err := c.renderer.newTarget(size, "save layer")
	if err != nil {
		c.recordDiagnostic("SaveLayer", err)
		c.pushSkipFrame(reservedDepth)
		return
	}

	// The layer starts from full opacity; the parent's distributed opacity
	// is folded into the composite.
	p.Color.A *= parent.distributedOpacity
	entry := canvasStackEntry{
		transform:          transform,
		clipDepth:          c.childClipDepth(reservedDepth),
		clipHeight:         parent.clipHeight,
		distributedOpacity: 1,
		mode:               RenderingSubpassAppend,
		didRoundOut:        didRoundOut,
	}
	Logger().Debug("compositor: save layer", "coverage", coverage, "size", size, "blend", p.BlendMode)

	c.passes = append(c.passes, newLazyPass(newPassTarget(target, "layer")))
	c.layers = append(c.layers, saveLayerState{paint: p, coverage: coverage.Shift(adjust.Neg())})
	c.stack = append(c.stack, entry)
	c.cull.Save()
	c.coverage.PushSubpass(&coverage, entry.clipHeight)

	if backdropEntity != nil {
		c.renderEntity("SaveLayer", backdropEntity)
	}
}

// localCoverageLimit is the root-space area a new layer can be visible in:
// the clip coverage within the current pass and the root target.
func (c *Canvas) localCoverageLimit() (geom.Rect, bool) {
	cov := c.coverage.CurrentCoverage()
	if cov == nil {
		return geom.Rect{}, false
	}
	pass := geom.MakeISize(c.currentPass().target.size()).Shift(c.globalPassPosition())
	r, ok := cov.Intersection(pass)
	if !ok {
		return geom.Rect{}, false
	}
	return r.Intersection(geom.MakeISize(c.target.Size()))
}

// computeSaveLayerCoverage returns the root-space area of a new layer.
//
// floodOutput is set when the layer's blend mode affects pixels outside
// its contents; floodInput when the layer's input is not transparent
// outside its contents. Either one grows the layer to the limit.
func (c *Canvas) computeSaveLayerCoverage(bounds *geom.Rect, limit geom.Rect, imageFilter ImageFilter, floodOutput, floodInput bool) (geom.Rect, bool) {
	coverage := geom.MakeMaximum()
	if bounds != nil && !floodInput {
		coverage = *bounds
	}
	m := c.top().transform

	if imageFilter != nil {
		srcLimit, ok := imageFilter.SourceCoverage(m, limit)
		if !ok {
			return geom.Rect{}, false
		}
		if floodOutput || coverage.IsMaximum() {
			return srcLimit, !srcLimit.IsEmpty()
		}
		mapped, ok := coverage.TransformBounds(m)
		if !ok {
			return geom.Rect{}, false
		}
		return mapped.Intersection(srcLimit)
	}

	if floodOutput || coverage.IsMaximum() {
		return limit, !limit.IsEmpty()
	}
	mapped, ok := coverage.TransformBounds(m)
	if !ok {
		return geom.Rect{}, false
	}
	return mapped.Intersection(limit)
}

// layerPosition is where a layer with the root-space origin lands in the
// pass at gpp. The backdrop and the composite must agree on it.
func layerPosition(origin, gpp geom.Point, didRoundOut bool) geom.Point {
	pos := origin.Sub(gpp)
	if didRoundOut {
		return pos.Floor()
	}
	return pos.Round()
}

// restoreLayer closes the current layer and composites it into the parent
// pass.
func (c *Canvas) restoreLayer() bool {
	f := c.stack[len(c.stack)-1]
	lp := c.passes[len(c.passes)-1]
	c.passes = c.passes[:len(c.passes)-1]
	state := c.layers[len(c.layers)-1]
	c.layers = c.layers[:len(c.layers)-1]
	c.stack = c.stack[:len(c.stack)-1]
	c.coverage.PopSubpass()

	if _, err := lp.renderPass(c.renderer); err != nil {
		c.recordDiagnostic("Restore", err)
		return false
	}
	if err := lp.end(); err != nil {
		c.encodeErrs = append(c.encodeErrs, err)
		c.recordDiagnostic("Restore", err)
		return false
	}

	gpp := c.globalPassPosition()
	tex := lp.target.front.ColorTexture()
	full := geom.MakeISize(tex.Size())
	layer := NewTextureContents(tex, full, full)
	layer.SetOpacity(state.paint.Color.A)

	pos := layerPosition(state.coverage.Origin(), gpp, f.didRoundOut)
	effect := geom.TranslatePoint(pos.Neg()).Multiply(geom.TranslatePoint(gpp.Neg())).Multiply(f.transform)
	e := &Entity{
		Contents:  state.paint.withFiltersForSubpass(layer, effect),
		Transform: geom.TranslatePoint(pos),
		BlendMode: state.paint.BlendMode,
	}
	c.currentDepth++
	parent := c.top()
	debugAssert(c.opts.strict, c.currentDepth <= parent.clipDepth,
		"layer depth exceeds clip depth", "depth", c.currentDepth, "clipDepth", parent.clipDepth)
	e.ClipDepth = min(c.currentDepth, parent.clipDepth)

	if e.BlendMode.IsAdvanced() {
		if !c.emulateAdvancedBlend("Restore", e) {
			return false
		}
	}
	return c.renderEntity("Restore", e)
}

// emulateAdvancedBlend rewrites an entity with an advanced blend mode into
// one the fixed-function pipeline can draw with ModeSource. Without
// framebuffer fetch the current pass is flipped to read its backdrop.
func (c *Canvas) emulateAdvancedBlend(op string, e *Entity) bool {
	mode := e.BlendMode
	if c.renderer.caps.SupportsFramebufferFetch {
		e.Contents = NewFramebufferBlendContents(e.Contents, mode)
		e.BlendMode = blend.ModeSource
		return true
	}
	backdrop := c.flipBackdrop()
	if backdrop == nil {
		c.recordDiagnostic(op, fmt.Errorf("%w: %s blend dropped", ErrNoBackdropTexture, mode))
		return false
	}
	bf := NewBlendFilterContents(backdrop, e.Contents, mode)
	if clipCov, ok := c.currentCoverageInPass(); ok {
		hint := clipCov
		if cov, ok := e.Coverage(); ok {
			hint = cov.IntersectionOrEmpty(clipCov)
		}
		bf.SetCoverageHint(hint)
	}
	e.Contents = bf
	e.BlendMode = blend.ModeSource
	return true
}

// flipBackdrop ends the current pass and reopens it on the secondary
// target with the old content copied in and the clips replayed. It returns
// the old content, or nil when the pass could not be flipped.
func (c *Canvas) flipBackdrop() Texture {
	lp := c.currentPass()
	r := c.renderer
	if _, err := c.openPass(); err != nil {
		c.recordDiagnostic("FlipBackdrop", fmt.Errorf("%w: %w", ErrNoBackdropTexture, err))
		return nil
	}
	// The pass stays open until the flip cannot fail for lack of a target.
	if err := lp.target.allocBack(r); err != nil {
		c.recordDiagnostic("FlipBackdrop", fmt.Errorf("%w: %w", ErrNoBackdropTexture, err))
		return nil
	}
	if err := lp.end(); err != nil {
		c.encodeErrs = append(c.encodeErrs, err)
		c.recordDiagnostic("FlipBackdrop", fmt.Errorf("%w: %w", ErrNoBackdropTexture, err))
		return nil
	}
	backdrop := lp.target.front.ColorTexture()
	lp.target.swap()
	lp.clear = blend.Transparent
	lp.load = backdrop

	if _, err := c.openPass(); err != nil {
		// The backdrop stays pending and is copied in when the pass opens.
		c.recordDiagnostic("FlipBackdrop", fmt.Errorf("%w: %w", ErrNoBackdropTexture, err))
		return nil
	}
	Logger().Debug("compositor: flipped pass for backdrop", "target", lp.target.label, "replayed", len(c.coverage.ReplayEntries()))
	return backdrop
}

// openPass returns the current render pass, opening it if needed. A pass
// reopened after a flip gets its old content from renderPass and its clips
// replayed here.
func (c *Canvas) openPass() (RenderPass, error) {
	lp := c.currentPass()
	reopened := lp.load != nil
	pass, err := lp.renderPass(c.renderer)
	if err != nil || !reopened {
		return pass, err
	}

	size := lp.target.size()
	gpp := c.globalPassPosition()
	for _, rp := range c.coverage.ReplayEntries() {
		scissor := geom.IRect{}
		if rp.Coverage != nil {
			scissor = passScissor(*rp.Coverage, gpp, size)
		}
		lp.setScissor(scissor)
		if err := rp.Entry.Render(c.renderer, pass); err != nil {
			c.recordDiagnostic("FlipBackdrop", err)
		}
	}
	c.setClipScissor()
	return pass, nil
}
