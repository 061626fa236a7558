package software

import (
	"fmt"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
)

// command is one recorded draw with the state bound when it was issued.
type command struct {
	pipeline compositor.PipelineDescriptor
	uniforms compositor.Uniforms
	textures [2]*Texture
	sampling [2]compositor.Sampling
	clip     geom.IRect
	vertices []geom.Point
	uvs      []geom.Point
}

// Pass records draws into a target and runs them on Encode.
type Pass struct {
	ctx    *Context
	target *Target
	clear  blend.Color

	viewport geom.Rect
	scissor  geom.IRect
	pipeline *compositor.PipelineDescriptor
	uniforms compositor.Uniforms
	textures [2]*Texture
	sampling [2]compositor.Sampling

	commands []command
	ended    bool
}

var _ compositor.RenderPass = (*Pass)(nil)

func newPass(ctx *Context, t *Target, clearColor blend.Color) *Pass {
	full := geom.MakeIRectSize(t.size)
	t.Retain()
	return &Pass{
		ctx:      ctx,
		target:   t,
		clear:    clearColor,
		viewport: full.ToRect(),
		scissor:  full,
	}
}

// Target implements compositor.RenderPass.
func (p *Pass) Target() compositor.RenderTarget { return p.target }

// SetViewport implements compositor.RenderPass. Vertices are already in
// target pixels, so the viewport only bounds rasterization.
func (p *Pass) SetViewport(r geom.Rect) { p.viewport = r }

// SetScissor implements compositor.RenderPass.
func (p *Pass) SetScissor(r geom.IRect) { p.scissor = r }

// BindPipeline implements compositor.RenderPass.
func (p *Pass) BindPipeline(desc compositor.PipelineDescriptor) error {
	if p.ended {
		return ErrPassEnded
	}
	if desc.Shader > compositor.ShaderFramebufferBlend {
		return fmt.Errorf("%w: shader %s", ErrUnsupportedPipeline, desc.Shader)
	}
	if desc.Shader == compositor.ShaderFramebufferBlend && !p.ctx.caps.SupportsFramebufferFetch {
		return fmt.Errorf("%w: %s needs framebuffer fetch", ErrUnsupportedPipeline, desc)
	}
	p.pipeline = &desc
	return nil
}

// BindUniforms implements compositor.RenderPass.
func (p *Pass) BindUniforms(u compositor.Uniforms) { p.uniforms = u }

// BindTexture implements compositor.RenderPass. Textures of other backends
// leave the slot unbound and fail the next draw that samples it.
func (p *Pass) BindTexture(slot int, tex compositor.Texture, sampling compositor.Sampling) {
	if slot < 0 || slot >= len(p.textures) {
		p.ctx.log.Warn("software: texture slot out of range", "slot", slot)
		return
	}
	t, _ := tex.(*Texture)
	p.textures[slot] = t
	p.sampling[slot] = sampling
}

// Draw implements compositor.RenderPass.
func (p *Pass) Draw(vertices, uvs []geom.Point) error {
	if p.ended {
		return ErrPassEnded
	}
	if p.pipeline == nil {
		return ErrNoPipeline
	}
	if len(vertices)%3 != 0 {
		return fmt.Errorf("%w: %d vertices", ErrVertexCount, len(vertices))
	}
	if uvs != nil && len(uvs) != len(vertices) {
		return fmt.Errorf("%w: %d uvs for %d vertices", ErrVertexCount, len(uvs), len(vertices))
	}
	if err := p.checkSlots(uvs != nil); err != nil {
		return err
	}
	if len(vertices) == 0 {
		return nil
	}
	clip, ok := p.scissor.Intersection(geom.RoundOutRect(p.viewport))
	if !ok {
		return nil
	}
	clip, ok = clip.Intersection(geom.MakeIRectSize(p.target.size))
	if !ok {
		return nil
	}
	p.commands = append(p.commands, command{
		pipeline: *p.pipeline,
		uniforms: p.uniforms,
		textures: p.textures,
		sampling: p.sampling,
		clip:     clip,
		vertices: slices.Clone(vertices),
		uvs:      slices.Clone(uvs),
	})
	p.ctx.draws.Add(1)
	return nil
}

// checkSlots verifies the bound textures cover what the pipeline samples.
func (p *Pass) checkSlots(hasUVs bool) error {
	desc := p.pipeline
	if desc.NoColor {
		return nil
	}
	needsSource := false
	switch desc.Shader {
	case compositor.ShaderTexture, compositor.ShaderMask, compositor.ShaderBlur:
		needsSource = true
	case compositor.ShaderAdvancedBlend, compositor.ShaderFramebufferBlend:
		needsSource = !p.uniforms.SourceIsColor
	}
	if needsSource {
		if p.textures[0] == nil {
			return fmt.Errorf("%w: slot 0 for %s", ErrMissingTexture, desc.Shader)
		}
		if !hasUVs {
			return fmt.Errorf("%w: %s without texture coordinates", ErrVertexCount, desc.Shader)
		}
	}
	if desc.Shader == compositor.ShaderAdvancedBlend && p.textures[1] == nil {
		return fmt.Errorf("%w: slot 1 for %s", ErrMissingTexture, desc.Shader)
	}
	return nil
}

// Encode implements compositor.RenderPass. It clears the target and runs
// the recorded draws in order, one row band per task.
func (p *Pass) Encode() error {
	if p.ended {
		return ErrPassEnded
	}
	p.ended = true
	defer p.target.Release()

	store := p.target.store
	store.clear(p.clear)
	if len(p.commands) == 0 {
		return nil
	}
	r := rasterizer{
		width:   p.target.size.W,
		color:   store.color,
		depth:   store.depth,
		stencil: store.stencil,
	}
	height := p.target.size.H
	band := p.ctx.opts.bandHeight
	if height <= band {
		r.run(p.commands, 0, height)
		p.commands = nil
		return nil
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for y0 := 0; y0 < height; y0 += band {
		y1 := min(y0+band, height)
		g.Go(func() error {
			r.run(p.commands, y0, y1)
			return nil
		})
	}
	err := g.Wait()
	p.commands = nil
	return err
}
