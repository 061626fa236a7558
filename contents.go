package compositor

import (
	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/geometry"
	"github.com/gogpu/compositor/internal/clip"
)

// Contents is something an entity can draw.
type Contents interface {
	// Coverage returns the pass-space bounds drawn under e. The second
	// result is false when nothing is drawn.
	Coverage(e *Entity) (geom.Rect, bool)
	// IsOpaque reports whether every pixel drawn under m is opaque.
	IsOpaque(m geom.Matrix) bool
	// SetInheritedOpacity sets an opacity multiplier distributed from an
	// enclosing layer.
	SetInheritedOpacity(opacity float32)
	// AsBackgroundColor returns the straight-alpha color painted over a
	// whole target of the given size, if the contents are such a color.
	AsBackgroundColor(e *Entity, target geom.ISize) (blend.Color, bool)
	// Render draws the contents into pass.
	Render(r *Renderer, e *Entity, pass RenderPass) error
}

// ContentProvider creates the color source contents of a shape draw. The
// canvas applies color filters, mask blurs and image filters on top.
type ContentProvider interface {
	CreateContents(p *Paint, g geometry.Geometry) Contents
}

// colorFilterApplier is implemented by contents that can absorb a color
// filter without an extra pass.
type colorFilterApplier interface {
	applyColorFilter(cf ColorFilter) bool
}

// defaultProvider fills with the paint color or its image source.
type defaultProvider struct{}

// CreateContents implements ContentProvider.
func (defaultProvider) CreateContents(p *Paint, g geometry.Geometry) Contents {
	if p.Source != nil && p.Source.Texture != nil {
		return NewTiledTextureContents(g, *p.Source, p.Color.A)
	}
	return NewSolidColorContents(g, p.Color)
}

// SolidColorContents fills a geometry with one color.
type SolidColorContents struct {
	geometry geometry.Geometry
	color    blend.Color
	opacity  float32
}

// NewSolidColorContents returns contents filling g with the straight-alpha
// color c.
func NewSolidColorContents(g geometry.Geometry, c blend.Color) *SolidColorContents {
	return &SolidColorContents{geometry: g, color: c, opacity: 1}
}

// Geometry returns the filled geometry.
func (c *SolidColorContents) Geometry() geometry.Geometry { return c.geometry }

// Color returns the straight-alpha fill color with inherited opacity.
func (c *SolidColorContents) Color() blend.Color {
	return c.color.MultiplyAlpha(c.opacity)
}

// Coverage implements Contents.
func (c *SolidColorContents) Coverage(e *Entity) (geom.Rect, bool) {
	return c.geometry.Coverage(e.Transform)
}

// IsOpaque implements Contents.
func (c *SolidColorContents) IsOpaque(geom.Matrix) bool {
	return c.Color().IsOpaque()
}

// SetInheritedOpacity implements Contents.
func (c *SolidColorContents) SetInheritedOpacity(opacity float32) {
	c.opacity = opacity
}

// AsBackgroundColor implements Contents.
func (c *SolidColorContents) AsBackgroundColor(e *Entity, target geom.ISize) (blend.Color, bool) {
	if !c.geometry.CoversArea(e.Transform, geom.MakeISize(target)) {
		return blend.Color{}, false
	}
	return c.Color(), true
}

// Render implements Contents.
func (c *SolidColorContents) Render(r *Renderer, e *Entity, pass RenderPass) error {
	dc := drawCall{
		pipeline: PipelineDescriptor{Shader: ShaderSolid, Blend: e.BlendMode, Depth: DepthTest},
		uniforms: Uniforms{Depth: e.ClipDepth, Color: c.Color().Premultiply()},
	}
	return r.drawTessellation(pass, c.geometry.Tessellate(e.Transform), e.Transform, dc)
}

func (c *SolidColorContents) applyColorFilter(cf ColorFilter) bool {
	c.color = cf.filterColor(c.color)
	return true
}

// TiledTextureContents fills a geometry with an image.
type TiledTextureContents struct {
	geometry    geometry.Geometry
	source      ImageSource
	alpha       float32
	opacity     float32
	colorFilter ColorFilter
}

// NewTiledTextureContents returns contents filling g with src at the given
// alpha.
func NewTiledTextureContents(g geometry.Geometry, src ImageSource, alpha float32) *TiledTextureContents {
	return &TiledTextureContents{geometry: g, source: src, alpha: alpha, opacity: 1}
}

// Coverage implements Contents.
func (c *TiledTextureContents) Coverage(e *Entity) (geom.Rect, bool) {
	return c.geometry.Coverage(e.Transform)
}

// IsOpaque implements Contents. Image contents are never assumed opaque.
func (c *TiledTextureContents) IsOpaque(geom.Matrix) bool { return false }

// SetInheritedOpacity implements Contents.
func (c *TiledTextureContents) SetInheritedOpacity(opacity float32) { c.opacity = opacity }

// AsBackgroundColor implements Contents.
func (c *TiledTextureContents) AsBackgroundColor(*Entity, geom.ISize) (blend.Color, bool) {
	return blend.Color{}, false
}

// Render implements Contents.
func (c *TiledTextureContents) Render(r *Renderer, e *Entity, pass RenderPass) error {
	size := c.source.Texture.Size()
	if size.IsEmpty() {
		return nil
	}
	t := c.geometry.Tessellate(e.Transform)
	u := Uniforms{Depth: e.ClipDepth, Alpha: c.alpha * c.opacity}
	if c.colorFilter != nil {
		c.colorFilter.setUniforms(&u)
	}
	dc := drawCall{
		pipeline: PipelineDescriptor{Shader: ShaderTexture, Blend: e.BlendMode, Depth: DepthTest},
		uniforms: u,
		texture:  c.source.Texture,
		sampling: c.source.Sampling,
	}
	norm := geom.Scale(1/float64(size.W), 1/float64(size.H))
	if t.UVs != nil {
		dc.uvs = transformPoints(t.UVs, norm)
	}
	inv, ok := e.Transform.Multiply(c.source.Matrix).Invert()
	if !ok {
		return nil
	}
	uvm := norm.Multiply(inv)
	dc.uvMatrix = &uvm
	return r.drawTessellation(pass, t, e.Transform, dc)
}

func (c *TiledTextureContents) applyColorFilter(cf ColorFilter) bool {
	if c.colorFilter != nil {
		return false
	}
	c.colorFilter = cf
	return true
}

// ClipContents writes a clip into the depth buffer. Pixels outside the
// clip get the entity's depth, so later draws at a smaller or equal depth
// fail the depth test there.
type ClipContents struct {
	geometry geometry.Geometry
	op       clip.Op
}

// NewClipContents returns the clip of g with op.
func NewClipContents(g geometry.Geometry, op clip.Op) *ClipContents {
	return &ClipContents{geometry: g, op: op}
}

// Coverage implements Contents.
func (c *ClipContents) Coverage(e *Entity) (geom.Rect, bool) {
	return c.geometry.Coverage(e.Transform)
}

// IsOpaque implements Contents.
func (c *ClipContents) IsOpaque(geom.Matrix) bool { return false }

// SetInheritedOpacity implements Contents. Clips have no color.
func (c *ClipContents) SetInheritedOpacity(float32) {}

// AsBackgroundColor implements Contents.
func (c *ClipContents) AsBackgroundColor(*Entity, geom.ISize) (blend.Color, bool) {
	return blend.Color{}, false
}

// Render implements Contents.
func (c *ClipContents) Render(r *Renderer, e *Entity, pass RenderPass) error {
	target := geom.MakeISize(pass.Target().Size())
	t := c.geometry.Tessellate(e.Transform)
	write := drawCall{
		pipeline: PipelineDescriptor{Shader: ShaderSolid, Blend: blend.ModeSource, Depth: DepthWriteMax, NoColor: true},
		uniforms: Uniforms{Depth: e.ClipDepth},
	}
	full := rectVertices(target)

	switch {
	case t.FullTarget:
		if c.op == clip.OpDifference {
			return r.submit(pass, write, full, nil)
		}
		return nil
	case t.IsEmpty():
		if c.op == clip.OpIntersect {
			return r.submit(pass, write, full, nil)
		}
		return nil
	}

	verts := transformPoints(t.Vertices, e.Transform)
	// Hidden region is the inside of the stencil when the two flags differ.
	hideInside := (c.op == clip.OpDifference) != t.Inverse
	if hideInside && !t.Stencil {
		return r.submit(pass, write, verts, nil)
	}
	if err := r.stencil(pass, verts, t.FillRule); err != nil {
		return err
	}
	if hideInside {
		cover, ok := coverRect(verts, target)
		if !ok {
			return nil
		}
		write.pipeline.Stencil = StencilCoverNotEqual
		return r.submit(pass, write, rectVertices(cover), nil)
	}
	write.pipeline.Stencil = StencilCoverEqual
	return r.submit(pass, write, full, nil)
}
