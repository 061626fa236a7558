package compositor

import (
	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
)

// FilterContents applies an image filter to the rendered input contents.
type FilterContents struct {
	input   Contents
	filter  ImageFilter
	effect  geom.Matrix
	mode    RenderingMode
	inherit float32
}

func newFilterContents(input Contents, f ImageFilter) *FilterContents {
	return &FilterContents{input: input, filter: f, effect: geom.Identity(), mode: RenderingDirect, inherit: 1}
}

// NewFilterContents returns input drawn through f. The filter's local
// space is the entity's local space.
func NewFilterContents(input Contents, f ImageFilter) *FilterContents {
	return newFilterContents(input, f)
}

// setEffect places the filter's local space for a subpass rendering mode.
// effect maps filter space into the entity's local space.
func (f *FilterContents) setEffect(effect geom.Matrix, mode RenderingMode) {
	f.effect = effect
	f.mode = mode
}

// effectTransform maps the filter's local space to pass pixels. Append
// and prepend snapshots both resolve to the entity transform followed by
// the effect, since snapshots are kept in pass space.
func (f *FilterContents) effectTransform(e *Entity) geom.Matrix {
	if f.mode == RenderingDirect {
		return e.Transform
	}
	return e.Transform.Multiply(f.effect)
}

// Coverage implements Contents.
func (f *FilterContents) Coverage(e *Entity) (geom.Rect, bool) {
	in, ok := f.input.Coverage(e)
	if !ok {
		return geom.Rect{}, false
	}
	return f.filter.OutputCoverage(f.effectTransform(e), in)
}

// IsOpaque implements Contents.
func (f *FilterContents) IsOpaque(geom.Matrix) bool { return false }

// SetInheritedOpacity implements Contents.
func (f *FilterContents) SetInheritedOpacity(opacity float32) { f.inherit = opacity }

// AsBackgroundColor implements Contents.
func (f *FilterContents) AsBackgroundColor(*Entity, geom.ISize) (blend.Color, bool) {
	return blend.Color{}, false
}

func (f *FilterContents) snapshot(r *Renderer, e *Entity, limit geom.Rect) (Snapshot, bool, error) {
	out, ok := f.Coverage(e)
	if !ok {
		return Snapshot{}, false, nil
	}
	if out, ok = out.Intersection(limit); !ok {
		return Snapshot{}, false, nil
	}
	effect := f.effectTransform(e)
	srcLimit, ok := f.filter.SourceCoverage(effect, out)
	if !ok {
		return Snapshot{}, false, nil
	}
	in, ok, err := r.renderToSnapshot(f.input, e, srcLimit)
	if err != nil || !ok {
		return Snapshot{}, false, err
	}
	res, err := f.filter.apply(r, in, effect)
	if err != nil || res.Texture == nil {
		return Snapshot{}, false, err
	}
	return res, true, nil
}

// Render implements Contents.
func (f *FilterContents) Render(r *Renderer, e *Entity, pass RenderPass) error {
	s, ok, err := f.snapshot(r, e, geom.MakeISize(pass.Target().Size()))
	if err != nil || !ok {
		return err
	}
	return r.drawSnapshot(pass, s, e.BlendMode, e.ClipDepth, f.inherit)
}

// BlendFilterContents emulates an advanced blend by reading the backdrop
// from a texture. The backdrop is aligned with the pass origin and the
// result replaces the destination, so the entity should use ModeSource.
type BlendFilterContents struct {
	backdrop Texture
	src      Contents
	mode     blend.Mode
	hint     *geom.Rect
	inherit  float32
}

// NewBlendFilterContents blends src over backdrop with an advanced mode.
func NewBlendFilterContents(backdrop Texture, src Contents, mode blend.Mode) *BlendFilterContents {
	return &BlendFilterContents{backdrop: backdrop, src: src, mode: mode, inherit: 1}
}

// SetCoverageHint limits the blended area to r in pass space.
func (b *BlendFilterContents) SetCoverageHint(r geom.Rect) { b.hint = &r }

// Coverage implements Contents.
func (b *BlendFilterContents) Coverage(e *Entity) (geom.Rect, bool) {
	cov, ok := b.src.Coverage(e)
	if !ok || b.hint == nil {
		return cov, ok
	}
	return cov.Intersection(*b.hint)
}

// IsOpaque implements Contents.
func (b *BlendFilterContents) IsOpaque(geom.Matrix) bool { return false }

// SetInheritedOpacity implements Contents.
func (b *BlendFilterContents) SetInheritedOpacity(opacity float32) { b.inherit = opacity }

// AsBackgroundColor implements Contents.
func (b *BlendFilterContents) AsBackgroundColor(*Entity, geom.ISize) (blend.Color, bool) {
	return blend.Color{}, false
}

// Render implements Contents.
func (b *BlendFilterContents) Render(r *Renderer, e *Entity, pass RenderPass) error {
	return renderSourceBlend(r, e, pass, b.src, b.hint, b.inherit, ShaderAdvancedBlend, b.mode, b.backdrop)
}

// FramebufferBlendContents blends its source over the destination pixel
// read in the fragment shader.
type FramebufferBlendContents struct {
	src     Contents
	mode    blend.Mode
	inherit float32
}

// NewFramebufferBlendContents blends src with an advanced mode through
// framebuffer fetch.
func NewFramebufferBlendContents(src Contents, mode blend.Mode) *FramebufferBlendContents {
	return &FramebufferBlendContents{src: src, mode: mode, inherit: 1}
}

// Coverage implements Contents.
func (b *FramebufferBlendContents) Coverage(e *Entity) (geom.Rect, bool) {
	return b.src.Coverage(e)
}

// IsOpaque implements Contents.
func (b *FramebufferBlendContents) IsOpaque(geom.Matrix) bool { return false }

// SetInheritedOpacity implements Contents.
func (b *FramebufferBlendContents) SetInheritedOpacity(opacity float32) { b.inherit = opacity }

// AsBackgroundColor implements Contents.
func (b *FramebufferBlendContents) AsBackgroundColor(*Entity, geom.ISize) (blend.Color, bool) {
	return blend.Color{}, false
}

// Render implements Contents.
func (b *FramebufferBlendContents) Render(r *Renderer, e *Entity, pass RenderPass) error {
	return renderSourceBlend(r, e, pass, b.src, nil, b.inherit, ShaderFramebufferBlend, b.mode, nil)
}

// renderSourceBlend draws src through one of the blending shaders. Solid
// colors draw their geometry directly; other contents are snapshotted
// first.
func renderSourceBlend(r *Renderer, e *Entity, pass RenderPass, src Contents, hint *geom.Rect, inherit float32, shader Shader, mode blend.Mode, backdrop Texture) error {
	limit := geom.MakeISize(pass.Target().Size())
	if hint != nil {
		var ok bool
		if limit, ok = limit.Intersection(*hint); !ok {
			return nil
		}
	}
	dc := drawCall{
		pipeline: PipelineDescriptor{Shader: shader, Blend: e.BlendMode, Depth: DepthTest},
		uniforms: Uniforms{Depth: e.ClipDepth, Mode: mode, Alpha: inherit},
		backdrop: backdrop,
	}
	if solid, ok := src.(*SolidColorContents); ok {
		dc.uniforms.SourceIsColor = true
		dc.uniforms.Color = solid.Color().Premultiply().Scale(inherit)
		g := solid.Geometry()
		return r.drawTessellation(pass, g.Tessellate(e.Transform), e.Transform, dc)
	}
	s, ok, err := r.renderToSnapshot(src, e, limit)
	if err != nil || !ok {
		return err
	}
	size := s.Texture.Size()
	dc.texture = s.Texture
	dc.sampling = s.Sampling
	dc.uniforms.Alpha *= s.Opacity
	verts := transformPoints(rectVertices(geom.MakeISize(size)), s.Transform)
	uvs := rectVertices(geom.MakeLTRB(0, 0, 1, 1))
	return r.submit(pass, dc, verts, uvs)
}
