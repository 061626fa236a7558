package compositor

import (
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/internal/clip"
)

// canvasStackEntry is one save level.
type canvasStackEntry struct {
	transform geom.Matrix
	// clipDepth is the inclusive ceiling of draw depths in this scope and
	// the depth clips of this scope are written at.
	clipDepth  uint32
	clipHeight int
	numClips   int
	// distributedOpacity is a layer alpha pushed down to the draws of an
	// elided layer.
	distributedOpacity float32
	mode               RenderingMode
	skipping           bool
	didRoundOut        bool
}

// saveLayerState is the paint and pass-space placement of an open layer.
type saveLayerState struct {
	paint    Paint
	coverage geom.Rect
}

// Canvas records drawing operations into render passes.
//
// A Canvas keeps a stack of save levels, each with a transform and a clip.
// Draws are converted to entities and rendered immediately into the current
// pass. SaveLayer opens an offscreen pass that is composited back on the
// matching Restore.
//
// A Canvas is not safe for concurrent use.
type Canvas struct {
	renderer *Renderer
	target   RenderTarget
	opts     canvasOptions
	provider ContentProvider

	root     *passTarget
	stack    []canvasStackEntry
	passes   []*lazyPass
	layers   []saveLayerState
	coverage *clip.CoverageStack[*Entity]
	cull     *clip.CullTracker

	currentDepth uint32
	diagnostics  []Diagnostic
	encodeErrs   []error
}

// NewCanvas creates a canvas drawing into target through ctx.
func NewCanvas(ctx Context, target RenderTarget, opts ...CanvasOption) (*Canvas, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if target == nil {
		return nil, ErrNilTarget
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &Canvas{
		renderer: newRenderer(ctx),
		target:   target,
		opts:     o,
		provider: o.provider,
	}
	if c.provider == nil {
		c.provider = defaultProvider{}
	}
	if err := c.initialize(); err != nil {
		return nil, err
	}
	return c, nil
}

// initialize resets the canvas to a single root save level.
func (c *Canvas) initialize() error {
	size := c.target.Size()
	bounds := geom.MakeISize(size)
	if c.opts.cullRect != nil {
		bounds = bounds.IntersectionOrEmpty(*c.opts.cullRect)
	}

	front := c.target
	if c.opts.requiresReadback {
		t, err := c.renderer.newTarget(size, "root readback")
		if err != nil {
			return err
		}
		front = t
	}
	c.root = newPassTarget(front, "root")
	c.passes = []*lazyPass{newLazyPass(c.root)}
	c.layers = c.layers[:0]
	c.stack = []canvasStackEntry{{
		transform:          c.opts.initialTransform,
		clipDepth:          MaxDepth,
		distributedOpacity: 1,
	}}
	c.coverage = clip.NewCoverageStack[*Entity](bounds)
	c.cull = clip.NewCullTracker(bounds, c.opts.initialTransform)
	c.currentDepth = 0
	c.encodeErrs = nil
	return nil
}

func (c *Canvas) top() *canvasStackEntry { return &c.stack[len(c.stack)-1] }

func (c *Canvas) currentPass() *lazyPass { return c.passes[len(c.passes)-1] }

// globalPassPosition is the root-space origin of the current pass.
func (c *Canvas) globalPassPosition() geom.Point {
	if len(c.layers) == 0 {
		return geom.Point{}
	}
	return c.layers[len(c.layers)-1].coverage.Origin()
}

func (c *Canvas) recordDiagnostic(op string, err error) {
	if err == nil {
		return
	}
	Logger().Warn("compositor: "+op+" failed", "err", err)
	c.diagnostics = append(c.diagnostics, Diagnostic{Op: op, Err: err})
}

// Diagnostics returns the recoverable failures recorded since the last
// ClearDiagnostics.
func (c *Canvas) Diagnostics() []Diagnostic {
	return c.diagnostics
}

// ClearDiagnostics forgets all recorded diagnostics.
func (c *Canvas) ClearDiagnostics() {
	c.diagnostics = nil
}

// GetTransform returns the current transform.
func (c *Canvas) GetTransform() geom.Matrix { return c.top().transform }

// Concat post-multiplies the current transform by m, so m applies to
// coordinates first.
func (c *Canvas) Concat(m geom.Matrix) {
	f := c.top()
	f.transform = f.transform.Multiply(m)
	c.cull.Concat(m)
}

// Transform is an alias of Concat.
func (c *Canvas) Transform(m geom.Matrix) { c.Concat(m) }

// PreConcat pre-multiplies the current transform by m, so m applies after
// the existing transform.
func (c *Canvas) PreConcat(m geom.Matrix) {
	f := c.top()
	f.transform = m.Multiply(f.transform)
	c.cull.SetMatrix(f.transform)
}

// ResetTransform sets the current transform to the identity.
func (c *Canvas) ResetTransform() {
	c.top().transform = geom.Identity()
	c.cull.SetMatrix(geom.Identity())
}

// Translate concatenates a translation.
func (c *Canvas) Translate(x, y float64) { c.Concat(geom.Translate(x, y)) }

// Scale concatenates a scale.
func (c *Canvas) Scale(x, y float64) { c.Concat(geom.Scale(x, y)) }

// Rotate concatenates a rotation in radians.
func (c *Canvas) Rotate(radians float64) { c.Concat(geom.Rotate(radians)) }

// Skew concatenates a skew.
func (c *Canvas) Skew(sx, sy float64) { c.Concat(geom.Skew(sx, sy)) }

// GetSaveCount returns the number of save levels, starting at 1.
func (c *Canvas) GetSaveCount() int { return len(c.stack) }

// Save pushes a save level. reservedDepth is the number of draws and clips
// the scope will issue; it bounds the depth of every draw in the scope.
func (c *Canvas) Save(reservedDepth uint32) {
	if c.top().skipping {
		c.pushSkipFrame(reservedDepth)
		return
	}
	c.save(reservedDepth)
}

func (c *Canvas) save(reservedDepth uint32) {
	parent := c.top()
	entry := canvasStackEntry{
		transform:          parent.transform,
		clipDepth:          c.childClipDepth(reservedDepth),
		clipHeight:         parent.clipHeight,
		distributedOpacity: parent.distributedOpacity,
		mode:               RenderingDirect,
	}
	c.stack = append(c.stack, entry)
	c.cull.Save()
}

// childClipDepth returns the ceiling of a new scope reserving depth.
func (c *Canvas) childClipDepth(reserved uint32) uint32 {
	parent := c.top().clipDepth
	depth := uint64(c.currentDepth) + uint64(reserved)
	debugAssert(c.opts.strict, depth <= uint64(parent),
		"save exceeds parent clip depth", "depth", depth, "parent", parent)
	if depth > uint64(parent) {
		return parent
	}
	return uint32(depth)
}

func (c *Canvas) pushSkipFrame(reservedDepth uint32) {
	parent := c.top()
	entry := *parent
	entry.clipDepth = c.childClipDepth(reservedDepth)
	entry.numClips = 0
	entry.mode = RenderingDirect
	entry.skipping = true
	c.stack = append(c.stack, entry)
	c.cull.Save()
}

// Restore pops the current save level. It returns false when there is
// nothing to restore or when a layer could not be composited.
func (c *Canvas) Restore() bool {
	if len(c.stack) <= 1 {
		return false
	}
	f := c.top()
	debugAssert(c.opts.strict, c.currentDepth <= f.clipDepth,
		"depth exceeds scope clip depth", "depth", c.currentDepth, "clipDepth", f.clipDepth)
	if c.currentDepth < f.clipDepth {
		c.currentDepth = f.clipDepth
	}
	c.cull.Restore()

	if f.skipping {
		c.stack = c.stack[:len(c.stack)-1]
		return true
	}
	if f.mode.IsSubpass() {
		return c.restoreLayer()
	}

	numClips := f.numClips
	c.stack = c.stack[:len(c.stack)-1]
	if numClips > 0 {
		res := c.coverage.RestoreClip(c.top().clipHeight)
		if res.ClipDidChange {
			c.setClipScissor()
		}
	}
	return true
}

// RestoreToCount restores until GetSaveCount equals count.
func (c *Canvas) RestoreToCount(count int) {
	count = max(count, 1)
	for len(c.stack) > count {
		c.Restore()
	}
}

// LocalCullBounds returns the visible area in local coordinates.
func (c *Canvas) LocalCullBounds() geom.Rect { return c.cull.LocalCullRect() }

// DeviceCullBounds returns the visible area in root target pixels.
func (c *Canvas) DeviceCullBounds() geom.Rect { return c.cull.DeviceCullRect() }

// QuickReject reports whether content with the local bounds r is
// certainly invisible.
func (c *Canvas) QuickReject(r geom.Rect) bool {
	return c.top().skipping || c.cull.ContentCulled(r)
}

// EndReplay finishes the frame. It flushes the root pass, copies an
// offscreen root onto the target and releases every transient resource.
// The canvas is then reset for the next frame.
func (c *Canvas) EndReplay() error {
	debugAssert(c.opts.strict, len(c.stack) == 1, "unbalanced save at end of frame", "saveCount", len(c.stack))
	c.RestoreToCount(1)

	root := c.passes[0]
	if _, err := root.renderPass(c.renderer); err != nil {
		c.encodeErrs = append(c.encodeErrs, err)
	}
	if err := root.end(); err != nil {
		c.encodeErrs = append(c.encodeErrs, err)
	}
	if front := c.root.front; front != c.target {
		if err := c.renderer.ctx.Blit(front.ColorTexture(), c.target.ColorTexture()); err != nil {
			c.encodeErrs = append(c.encodeErrs, fmt.Errorf("compositor: blit root: %w", err))
		}
	}
	c.renderer.endFrame()

	err := errors.Join(c.encodeErrs...)
	if initErr := c.initialize(); initErr != nil {
		c.recordDiagnostic("EndReplay", initErr)
		err = errors.Join(err, initErr)
	}
	return err
}

// setClipScissor applies the current clip coverage to the current pass.
// No coverage results in an empty scissor.
func (c *Canvas) setClipScissor() {
	lp := c.currentPass()
	scissor := geom.IRect{}
	if cov := c.coverage.CurrentCoverage(); cov != nil {
		scissor = passScissor(*cov, c.globalPassPosition(), lp.target.size())
	}
	if _, err := c.openPass(); err != nil {
		c.recordDiagnostic("SetClipScissor", err)
	}
	lp.setScissor(scissor)
}

// passScissor converts a root-space coverage into a scissor of a pass at
// origin with the given size.
func passScissor(cov geom.Rect, origin geom.Point, size geom.ISize) geom.IRect {
	local, ok := cov.Shift(origin.Neg()).Intersection(geom.MakeISize(size))
	if !ok {
		return geom.IRect{}
	}
	s, _ := geom.RoundOutRect(local).Intersection(geom.MakeIRectSize(size))
	return s
}

// currentCoverageInPass returns the clip coverage in pass pixels.
func (c *Canvas) currentCoverageInPass() (geom.Rect, bool) {
	cov := c.coverage.CurrentCoverage()
	if cov == nil {
		return geom.Rect{}, false
	}
	return cov.Shift(c.globalPassPosition().Neg()), true
}

// finite reports whether v can be used as a coordinate.
func finite(v ...float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
