package compositor

import (
	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/geometry"
)

// TextureContents draws a region of a texture into a local rectangle.
type TextureContents struct {
	texture  Texture
	src      geom.Rect
	dst      geom.Rect
	sampling Sampling
	opacity  float32
	inherit  float32
}

// NewTextureContents draws the src pixels of tex into the local rect dst.
func NewTextureContents(tex Texture, src, dst geom.Rect) *TextureContents {
	return &TextureContents{texture: tex, src: src, dst: dst, sampling: SamplingNearest, opacity: 1, inherit: 1}
}

// SetSampling sets the sampler used for the texture.
func (c *TextureContents) SetSampling(s Sampling) { c.sampling = s }

// SetOpacity sets the opacity of the draw. Filters applied on top of the
// contents see the texture at full opacity.
func (c *TextureContents) SetOpacity(opacity float32) { c.opacity = opacity }

// Coverage implements Contents.
func (c *TextureContents) Coverage(e *Entity) (geom.Rect, bool) {
	if c.dst.IsEmpty() {
		return geom.Rect{}, false
	}
	return c.dst.TransformBounds(e.Transform)
}

// IsOpaque implements Contents.
func (c *TextureContents) IsOpaque(geom.Matrix) bool { return false }

// SetInheritedOpacity implements Contents.
func (c *TextureContents) SetInheritedOpacity(opacity float32) { c.inherit = opacity }

// AsBackgroundColor implements Contents.
func (c *TextureContents) AsBackgroundColor(*Entity, geom.ISize) (blend.Color, bool) {
	return blend.Color{}, false
}

// Render implements Contents.
func (c *TextureContents) Render(r *Renderer, e *Entity, pass RenderPass) error {
	if c.texture == nil || c.dst.IsEmpty() || c.src.IsEmpty() {
		return nil
	}
	dc := drawCall{
		pipeline: PipelineDescriptor{Shader: ShaderTexture, Blend: e.BlendMode, Depth: DepthTest},
		uniforms: Uniforms{Depth: e.ClipDepth, Alpha: c.opacity * c.inherit},
		texture:  c.texture,
		sampling: c.sampling,
	}
	verts := transformPoints(rectVertices(c.dst), e.Transform)
	return r.submit(pass, dc, verts, geometry.RectUVs(c.src, c.texture.Size()))
}

// snapshot returns the texture itself when the whole texture is drawn.
func (c *TextureContents) snapshot(r *Renderer, e *Entity, limit geom.Rect) (Snapshot, bool, error) {
	if c.texture == nil || c.dst.IsEmpty() {
		return Snapshot{}, false, nil
	}
	full := geom.MakeISize(c.texture.Size())
	if c.src != full {
		return r.rasterizeSnapshot(c, e, limit)
	}
	place := geom.Translate(c.dst.Left, c.dst.Top).Multiply(
		geom.Scale(c.dst.Width()/full.Width(), c.dst.Height()/full.Height()))
	return Snapshot{
		Texture:   c.texture,
		Transform: e.Transform.Multiply(place),
		Sampling:  c.sampling,
		Opacity:   c.opacity * c.inherit,
	}, true, nil
}

// AtlasContents draws many sprites from one texture.
type AtlasContents struct {
	texture Texture
	// transforms map sprite pixels, with the origin at the top-left of the
	// sprite's source rectangle, to local space.
	transforms []geom.Matrix
	src        []geom.Rect
	colors     []blend.Color
	mode       blend.Mode
	sampling   Sampling
	cull       *geom.Rect
	alpha      float32
	inherit    float32
}

// NewAtlasContents returns sprites src[i] of tex placed by transforms[i].
// colors, when not nil, are blended over each sprite with mode.
func NewAtlasContents(tex Texture, transforms []geom.Matrix, src []geom.Rect, colors []blend.Color, mode blend.Mode, sampling Sampling) *AtlasContents {
	return &AtlasContents{
		texture:    tex,
		transforms: transforms,
		src:        src,
		colors:     colors,
		mode:       mode,
		sampling:   sampling,
		alpha:      1,
		inherit:    1,
	}
}

// SetCullRect sets precomputed local bounds of all sprites.
func (c *AtlasContents) SetCullRect(r geom.Rect) { c.cull = &r }

// SetAlpha sets the opacity of the whole atlas draw.
func (c *AtlasContents) SetAlpha(alpha float32) { c.alpha = alpha }

func (c *AtlasContents) count() int {
	return min(len(c.transforms), len(c.src))
}

func (c *AtlasContents) hasColors() bool {
	return len(c.colors) >= c.count() && c.count() > 0
}

func (c *AtlasContents) localBounds() (geom.Rect, bool) {
	if c.cull != nil {
		return *c.cull, !c.cull.IsEmpty()
	}
	var bounds geom.Rect
	found := false
	for i := range c.count() {
		s := geom.MakeSize(c.src[i].Size())
		b, ok := s.TransformBounds(c.transforms[i])
		if !ok || b.IsEmpty() {
			continue
		}
		if !found {
			bounds, found = b, true
			continue
		}
		bounds = bounds.Union(b)
	}
	return bounds, found
}

// Coverage implements Contents.
func (c *AtlasContents) Coverage(e *Entity) (geom.Rect, bool) {
	b, ok := c.localBounds()
	if !ok {
		return geom.Rect{}, false
	}
	return b.TransformBounds(e.Transform)
}

// IsOpaque implements Contents.
func (c *AtlasContents) IsOpaque(geom.Matrix) bool { return false }

// SetInheritedOpacity implements Contents.
func (c *AtlasContents) SetInheritedOpacity(opacity float32) { c.inherit = opacity }

// AsBackgroundColor implements Contents.
func (c *AtlasContents) AsBackgroundColor(*Entity, geom.ISize) (blend.Color, bool) {
	return blend.Color{}, false
}

// Render implements Contents. Uncolored sprites are batched into a single
// draw; colored sprites need one draw each for their color uniform.
func (c *AtlasContents) Render(r *Renderer, e *Entity, pass RenderPass) error {
	if c.texture == nil || c.count() == 0 {
		return nil
	}
	size := c.texture.Size()
	dc := drawCall{
		pipeline: PipelineDescriptor{Shader: ShaderTexture, Blend: e.BlendMode, Depth: DepthTest},
		uniforms: Uniforms{Depth: e.ClipDepth, Alpha: c.alpha * c.inherit},
		texture:  c.texture,
		sampling: c.sampling,
	}
	var verts, uvs []geom.Point
	for i := range c.count() {
		src := c.src[i]
		if src.IsEmpty() {
			continue
		}
		v := transformPoints(rectVertices(geom.MakeSize(src.Size())), e.Transform.Multiply(c.transforms[i]))
		uv := geometry.RectUVs(src, size)
		if !c.hasColors() {
			verts = append(verts, v...)
			uvs = append(uvs, uv...)
			continue
		}
		sprite := dc
		sprite.uniforms.FilterColor = c.colors[i]
		sprite.uniforms.FilterBlend = c.mode
		sprite.uniforms.HasFilterColor = true
		if err := r.submit(pass, sprite, v, uv); err != nil {
			return err
		}
	}
	return r.submit(pass, dc, verts, uvs)
}
