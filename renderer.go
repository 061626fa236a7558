package compositor

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/geometry"
	"github.com/gogpu/compositor/internal/cache"
	"github.com/gogpu/compositor/internal/filter"
	"github.com/gogpu/compositor/text"
)

// maskCacheBudget is the number of mask pixels kept across frames.
const maskCacheBudget = 1 << 22

// maskKey identifies a text frame rasterized at one device scale.
type maskKey struct {
	frame *text.Frame
	scale float64
}

// textMask is a rasterized text frame and its local origin.
type textMask struct {
	mask   *image.Alpha
	origin geom.Point
}

// Snapshot is a rendered image placed in pass space.
type Snapshot struct {
	Texture Texture
	// Transform maps texture pixels to pass pixels.
	Transform geom.Matrix
	Sampling  Sampling
	// Opacity is applied when the snapshot is finally drawn.
	Opacity float32
}

// Coverage returns the pass-space bounds of the snapshot.
func (s Snapshot) Coverage() (geom.Rect, bool) {
	if s.Texture == nil {
		return geom.Rect{}, false
	}
	return geom.MakeISize(s.Texture.Size()).TransformBounds(s.Transform)
}

// releaser is implemented by backend resources with explicit lifetimes.
type releaser interface {
	Release()
}

// snapshotter is implemented by contents that can produce a snapshot
// without rasterizing themselves into a new target.
type snapshotter interface {
	snapshot(r *Renderer, e *Entity, limit geom.Rect) (Snapshot, bool, error)
}

// Renderer issues the draws of entities into render passes. It owns the
// transient targets and uploads created while recording a frame and
// releases them when the frame ends.
type Renderer struct {
	ctx       Context
	caps      Capabilities
	transient []releaser
	masks     *cache.Cache[maskKey, textMask]
}

func newRenderer(ctx Context) *Renderer {
	r := &Renderer{ctx: ctx, caps: ctx.Capabilities()}
	r.masks = cache.New[maskKey, textMask](maskCacheBudget, func(m textMask) int64 {
		if m.mask == nil {
			return 1
		}
		return int64(len(m.mask.Pix))
	})
	return r
}

// textMask returns the coverage mask of frame at scale, rasterizing it on
// first use. Masks survive EndReplay so that unchanged text is not
// rasterized every frame.
func (r *Renderer) textMask(frame *text.Frame, scale float64) textMask {
	return r.masks.GetOrCreate(maskKey{frame: frame, scale: scale}, func() textMask {
		mask, origin := frame.RasterizeMask(scale)
		return textMask{mask: mask, origin: origin}
	})
}

func (r *Renderer) maskStats() cache.Stats { return r.masks.Stats() }

// Context returns the backend the renderer draws through.
func (r *Renderer) Context() Context { return r.ctx }

// Capabilities returns the backend capabilities.
func (r *Renderer) Capabilities() Capabilities { return r.caps }

// clampSize limits size to the maximum attachment size.
func (r *Renderer) clampSize(size geom.ISize) geom.ISize {
	if m := r.caps.MaxAttachmentSize; !m.IsEmpty() {
		return size.Min(m)
	}
	return size
}

// newTarget allocates an offscreen target released at the end of the frame.
func (r *Renderer) newTarget(size geom.ISize, label string) (RenderTarget, error) {
	size = r.clampSize(size)
	if size.IsEmpty() {
		return nil, fmt.Errorf("%w: %s: empty size %dx%d", ErrTargetAllocation, label, size.W, size.H)
	}
	t, err := r.ctx.CreateRenderTarget(size, label)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %dx%d: %w", ErrTargetAllocation, label, size.W, size.H, err)
	}
	r.transient = append(r.transient, t)
	return t, nil
}

// uploadImage creates a texture released at the end of the frame.
func (r *Renderer) uploadImage(img image.Image, label string) (Texture, error) {
	tex, err := r.ctx.CreateTextureFromImage(img, label)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTextureUpload, label, err)
	}
	if rel, ok := tex.(releaser); ok {
		r.transient = append(r.transient, rel)
	}
	return tex, nil
}

// endFrame releases every transient resource of the frame.
func (r *Renderer) endFrame() {
	for i, t := range r.transient {
		t.Release()
		r.transient[i] = nil
	}
	r.transient = r.transient[:0]
}

// beginOffscreen opens a pass over a whole offscreen target.
func (r *Renderer) beginOffscreen(t RenderTarget) (RenderPass, error) {
	pass, err := r.ctx.BeginPass(t, blend.Transparent)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPassCreation, err)
	}
	size := t.Size()
	pass.SetViewport(geom.MakeISize(size))
	pass.SetScissor(geom.MakeIRectSize(size))
	return pass, nil
}

// drawCall is the state of one draw besides its vertices.
type drawCall struct {
	pipeline PipelineDescriptor
	uniforms Uniforms
	texture  Texture
	sampling Sampling
	// backdrop is bound to slot 1 for ShaderAdvancedBlend.
	backdrop Texture
	// uvs holds one normalized texture coordinate per vertex.
	uvs []geom.Point
	// uvMatrix maps pass pixels to normalized texture coordinates. It is
	// used for cover quads and whenever uvs is nil.
	uvMatrix *geom.Matrix
}

func (r *Renderer) submit(pass RenderPass, dc drawCall, verts, uvs []geom.Point) error {
	if len(verts) < 3 {
		return nil
	}
	if uvs == nil && dc.uvMatrix != nil {
		uvs = transformPoints(verts, *dc.uvMatrix)
	}
	if err := pass.BindPipeline(dc.pipeline); err != nil {
		return fmt.Errorf("compositor: bind pipeline %s: %w", dc.pipeline, err)
	}
	pass.BindUniforms(dc.uniforms)
	if dc.texture != nil {
		pass.BindTexture(0, dc.texture, dc.sampling)
	}
	if dc.backdrop != nil {
		pass.BindTexture(1, dc.backdrop, SamplingNearest)
	}
	return pass.Draw(verts, uvs)
}

// stencil accumulates the winding of verts into the stencil buffer.
func (r *Renderer) stencil(pass RenderPass, verts []geom.Point, rule geom.FillRule) error {
	desc := PipelineDescriptor{
		Shader:  ShaderSolid,
		Blend:   blend.ModeSource,
		Depth:   DepthAlways,
		Stencil: StencilNonZeroWrite,
		NoColor: true,
	}
	if rule == geom.FillEvenOdd {
		desc.Stencil = StencilEvenOddWrite
	}
	return r.submit(pass, drawCall{pipeline: desc}, verts, nil)
}

// coverRect returns the pass-space cover quad for stenciled triangles.
func coverRect(verts []geom.Point, target geom.Rect) (geom.Rect, bool) {
	b, ok := geom.MakePointBounds(verts)
	if !ok {
		return geom.Rect{}, false
	}
	return b.RoundOut().Intersection(target)
}

// drawTessellation draws t under m. Overlapping tessellations go through
// stencil-then-cover so every pixel is painted once.
func (r *Renderer) drawTessellation(pass RenderPass, t geometry.Tessellation, m geom.Matrix, dc drawCall) error {
	if t.IsEmpty() {
		return nil
	}
	target := geom.MakeISize(pass.Target().Size())
	if t.FullTarget {
		dc.uvs = nil
		return r.submit(pass, dc, rectVertices(target), nil)
	}
	verts := transformPoints(t.Vertices, m)
	if !t.Stencil && !t.Inverse {
		return r.submit(pass, dc, verts, dc.uvs)
	}
	if len(verts) >= 3 {
		if err := r.stencil(pass, verts, t.FillRule); err != nil {
			return err
		}
	}
	cover := target
	dc.pipeline.Stencil = StencilCoverEqual
	if !t.Inverse {
		dc.pipeline.Stencil = StencilCoverNotEqual
		var ok bool
		if cover, ok = coverRect(verts, target); !ok {
			return nil
		}
	}
	return r.submit(pass, dc, rectVertices(cover), nil)
}

// renderToSnapshot renders contents under e into a snapshot covering at
// most limit. The second result is false when nothing would be visible.
func (r *Renderer) renderToSnapshot(c Contents, e *Entity, limit geom.Rect) (Snapshot, bool, error) {
	if s, ok := c.(snapshotter); ok {
		return s.snapshot(r, e, limit)
	}
	return r.rasterizeSnapshot(c, e, limit)
}

// rasterizeSnapshot draws contents into a fresh target sized to their
// coverage.
func (r *Renderer) rasterizeSnapshot(c Contents, e *Entity, limit geom.Rect) (Snapshot, bool, error) {
	cov, ok := c.Coverage(e)
	if !ok {
		return Snapshot{}, false, nil
	}
	cov, ok = cov.Intersection(limit)
	if !ok {
		return Snapshot{}, false, nil
	}
	ir := geom.RoundOutRect(cov)
	if ir.IsEmpty() {
		return Snapshot{}, false, nil
	}
	target, err := r.newTarget(ir.Size(), "snapshot")
	if err != nil {
		return Snapshot{}, false, err
	}
	pass, err := r.beginOffscreen(target)
	if err != nil {
		return Snapshot{}, false, err
	}
	origin := geom.Translate(float64(ir.Left), float64(ir.Top))
	sub := *e
	sub.Transform = geom.Translate(-float64(ir.Left), -float64(ir.Top)).Multiply(e.Transform)
	sub.BlendMode = blend.ModeSourceOver
	sub.ClipDepth = MaxDepth
	renderErr := c.Render(r, &sub, pass)
	if err := pass.Encode(); err != nil {
		renderErr = errors.Join(renderErr, fmt.Errorf("%w: encode snapshot: %w", ErrPassCreation, err))
	}
	snap := Snapshot{
		Texture:   target.ColorTexture(),
		Transform: origin,
		Sampling:  SamplingNearest,
		Opacity:   1,
	}
	return snap, true, renderErr
}

// drawSnapshot draws a snapshot as a textured quad.
func (r *Renderer) drawSnapshot(pass RenderPass, s Snapshot, mode blend.Mode, depth uint32, alpha float32) error {
	size := s.Texture.Size()
	src := geom.MakeISize(size)
	dc := drawCall{
		pipeline: PipelineDescriptor{Shader: ShaderTexture, Blend: mode, Depth: DepthTest},
		uniforms: Uniforms{Depth: depth, Alpha: alpha * s.Opacity},
		texture:  s.Texture,
		sampling: s.Sampling,
	}
	return r.submit(pass, dc, transformPoints(rectVertices(src), s.Transform), geometry.RectUVs(src, size))
}

// blur runs a separable gaussian over a snapshot. sigma is in texels of
// the input. The output grows by the kernel radius on every side.
func (r *Renderer) blur(in Snapshot, sigma geom.Point) (Snapshot, error) {
	rx, ry := filter.KernelRadius(sigma.X), filter.KernelRadius(sigma.Y)
	size := in.Texture.Size()
	out := r.clampSize(geom.ISize{W: size.W + 2*rx, H: size.H + 2*ry})

	horizontal, err := r.newTarget(out, "blur horizontal")
	if err != nil {
		return Snapshot{}, err
	}
	w, h := float64(size.W), float64(size.H)
	uv := geom.MakeLTRB(-float64(rx)/w, -float64(ry)/h, float64(out.W-rx)/w, float64(out.H-ry)/h)
	if err := r.blurPass(horizontal, in.Texture, uv, geom.Pt(1, 0), sigma.X); err != nil {
		return Snapshot{}, err
	}

	vertical, err := r.newTarget(out, "blur vertical")
	if err != nil {
		return Snapshot{}, err
	}
	if err := r.blurPass(vertical, horizontal.ColorTexture(), geom.MakeLTRB(0, 0, 1, 1), geom.Pt(0, 1), sigma.Y); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Texture:   vertical.ColorTexture(),
		Transform: in.Transform.Multiply(geom.Translate(-float64(rx), -float64(ry))),
		Sampling:  in.Sampling,
		Opacity:   in.Opacity,
	}, nil
}

func (r *Renderer) blurPass(target RenderTarget, src Texture, uv geom.Rect, dir geom.Point, sigma float64) error {
	pass, err := r.beginOffscreen(target)
	if err != nil {
		return err
	}
	dc := drawCall{
		pipeline: PipelineDescriptor{Shader: ShaderBlur, Blend: blend.ModeSource, Depth: DepthAlways},
		uniforms: Uniforms{Alpha: 1, BlurDirection: dir, BlurSigma: float32(sigma)},
		texture:  src,
		sampling: SamplingDecal,
	}
	drawErr := r.submit(pass, dc, rectVertices(geom.MakeISize(target.Size())), rectVertices(uv))
	if err := pass.Encode(); err != nil {
		return errors.Join(drawErr, fmt.Errorf("%w: encode blur: %w", ErrPassCreation, err))
	}
	return drawErr
}

// colorFilter redraws a snapshot through a color filter. Opacity stays
// deferred so it applies after the filter.
func (r *Renderer) colorFilter(in Snapshot, cf ColorFilter) (Snapshot, error) {
	size := in.Texture.Size()
	target, err := r.newTarget(size, "color filter")
	if err != nil {
		return Snapshot{}, err
	}
	pass, err := r.beginOffscreen(target)
	if err != nil {
		return Snapshot{}, err
	}
	u := Uniforms{Alpha: 1}
	cf.setUniforms(&u)
	dc := drawCall{
		pipeline: PipelineDescriptor{Shader: ShaderTexture, Blend: blend.ModeSource, Depth: DepthAlways},
		uniforms: u,
		texture:  in.Texture,
		sampling: SamplingNearest,
	}
	drawErr := r.submit(pass, dc, rectVertices(geom.MakeISize(size)), rectVertices(geom.MakeLTRB(0, 0, 1, 1)))
	if err := pass.Encode(); err != nil {
		drawErr = errors.Join(drawErr, fmt.Errorf("%w: encode color filter: %w", ErrPassCreation, err))
	}
	return Snapshot{Texture: target.ColorTexture(), Transform: in.Transform, Sampling: in.Sampling, Opacity: in.Opacity}, drawErr
}

// rectVertices returns the two triangles of r in the order RectUVs uses.
func rectVertices(r geom.Rect) []geom.Point {
	return []geom.Point{
		geom.Pt(r.Left, r.Top), geom.Pt(r.Right, r.Top), geom.Pt(r.Right, r.Bottom),
		geom.Pt(r.Left, r.Top), geom.Pt(r.Right, r.Bottom), geom.Pt(r.Left, r.Bottom),
	}
}

func transformPoints(pts []geom.Point, m geom.Matrix) []geom.Point {
	out := make([]geom.Point, len(pts))
	for i, p := range pts {
		out[i] = m.TransformPoint(p)
	}
	return out
}
