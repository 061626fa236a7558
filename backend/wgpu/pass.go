//go:build !nogpu

package wgpu

import (
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/internal/reactor"
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

// Pass records draws and encodes them into one HAL render pass on Encode.
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

// SetViewport implements compositor.RenderPass. The shader maps target
// pixels to clip space itself, so the viewport only bounds the scissor.
func (p *Pass) SetViewport(r geom.Rect) { p.viewport = r }

// SetScissor implements compositor.RenderPass.
func (p *Pass) SetScissor(r geom.IRect) { p.scissor = r }

// BindPipeline implements compositor.RenderPass. Pipelines are validated
// here and created on first use during Encode.
func (p *Pass) BindPipeline(desc compositor.PipelineDescriptor) error {
	if p.ended {
		return ErrPassEnded
	}
	if _, ok := fragmentEntry(desc.Shader); !ok {
		return fmt.Errorf("%w: shader %s", ErrUnsupportedPipeline, desc.Shader)
	}
	if !desc.NoColor {
		if _, ok := desc.Blend.PipelineFactors(); !ok {
			return fmt.Errorf("%w: %s", ErrUnsupportedPipeline, desc)
		}
	}
	p.pipeline = &desc
	return nil
}

// BindUniforms implements compositor.RenderPass.
func (p *Pass) BindUniforms(u compositor.Uniforms) { p.uniforms = u }

// BindTexture implements compositor.RenderPass. Textures of other contexts
// leave the slot unbound and fail the next draw that samples it.
func (p *Pass) BindTexture(slot int, tex compositor.Texture, sampling compositor.Sampling) {
	if slot < 0 || slot >= len(p.textures) {
		p.ctx.log.Warn("wgpu: texture slot out of range", "slot", slot)
		return
	}
	t, ok := tex.(*Texture)
	if !ok || t.ctx != p.ctx {
		t = nil
	}
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
// A pass cannot sample its own target.
func (p *Pass) checkSlots(hasUVs bool) error {
	desc := p.pipeline
	if desc.NoColor {
		return nil
	}
	needsSource := false
	switch desc.Shader {
	case compositor.ShaderTexture, compositor.ShaderMask, compositor.ShaderBlur:
		needsSource = true
	case compositor.ShaderAdvancedBlend:
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
	for slot, t := range p.textures {
		if t != nil && t == p.target.tex {
			return fmt.Errorf("%w: slot %d samples the pass target", ErrUnsupportedPipeline, slot)
		}
	}
	return nil
}

// Encode implements compositor.RenderPass. It submits one render pass that
// clears the target and runs the recorded draws in order.
func (p *Pass) Encode() error {
	if p.ended {
		return ErrPassEnded
	}
	p.ended = true
	defer p.target.Release()
	cmds := p.commands
	p.commands = nil
	return p.ctx.withDevice(func() error {
		return p.ctx.runPass(p.target.att, p.target.tex.label, p.clear, cmds)
	})
}

// drawResources are the per-draw device objects of an encoded pass.
type drawResources struct {
	pipeline hal.RenderPipeline
	vertices hal.Buffer
	uniforms hal.Buffer
	group    hal.BindGroup
	count    uint32
	clip     geom.IRect
}

func (d *drawResources) handles(r *reactor.Reactor[hal.Resource]) []reactor.Handle {
	hs := make([]reactor.Handle, 0, 3)
	if d.group != nil {
		hs = append(hs, r.Adopt(reactor.KindBindGroup, d.group))
	}
	if d.uniforms != nil {
		hs = append(hs, r.Adopt(reactor.KindBuffer, d.uniforms))
	}
	if d.vertices != nil {
		hs = append(hs, r.Adopt(reactor.KindBuffer, d.vertices))
	}
	return hs
}

// runPass clears att and draws cmds into it in one submission. Per-draw
// buffers and bind groups are retired with that submission. It must be
// called with mu held.
func (c *Context) runPass(att *attachments, label string, clearColor blend.Color, cmds []command) error {
	draws := make([]drawResources, 0, len(cmds))
	release := func() {
		for i := range draws {
			c.retire(draws[i].handles(c.objects)...)
		}
	}
	for i := range cmds {
		d, err := c.prepareDraw(att.size, label, &cmds[i])
		draws = append(draws, d)
		if err != nil {
			release()
			return err
		}
	}

	enc, err := c.beginEncoder(c.opts.label + "_" + label)
	if err != nil {
		release()
		return err
	}
	rp := enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: label,
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:          att.renderView(),
			ResolveTarget: att.resolveView(),
			LoadOp:        gputypes.LoadOpClear,
			StoreOp:       gputypes.StoreOpStore,
			ClearValue: gputypes.Color{
				R: float64(clearColor.R),
				G: float64(clearColor.G),
				B: float64(clearColor.B),
				A: float64(clearColor.A),
			},
		}},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:              att.depthView,
			DepthLoadOp:       gputypes.LoadOpClear,
			DepthStoreOp:      gputypes.StoreOpStore,
			DepthClearValue:   0,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpStore,
			StencilClearValue: 0,
		},
	})
	w, h := float32(att.size.W), float32(att.size.H)
	rp.SetViewport(0, 0, w, h, 0, 1)
	rp.SetStencilReference(0)
	for i := range draws {
		d := &draws[i]
		rp.SetPipeline(d.pipeline)
		rp.SetBindGroup(0, d.group, nil)
		rp.SetVertexBuffer(0, d.vertices, 0)
		rp.SetScissorRect(
			uint32(d.clip.Left), uint32(d.clip.Top), //nolint:gosec // clipped to the target
			uint32(d.clip.Width()), uint32(d.clip.Height()), //nolint:gosec // clipped to the target
		)
		rp.Draw(d.count, 1, 0, 0)
	}
	rp.End()

	_, err = c.submit(enc)
	release()
	return err
}

// prepareDraw creates the buffers and bind group of cmd. On error the
// returned resources hold whatever was created.
func (c *Context) prepareDraw(target geom.ISize, label string, cmd *command) (drawResources, error) {
	d := drawResources{
		count: uint32(len(cmd.vertices)), //nolint:gosec // bounded by memory
		clip:  cmd.clip,
	}
	var err error
	d.pipeline, err = c.pipelines.get(cmd.pipeline)
	if err != nil {
		return d, err
	}

	src, backdrop := cmd.textures[0], cmd.textures[1]
	var srcSize, backdropSize geom.ISize
	if src != nil {
		srcSize = src.size
	} else {
		src = c.blank
	}
	if backdrop != nil {
		backdropSize = backdrop.size
	} else {
		backdrop = c.blank
	}

	d.vertices, err = c.createBuffer(label+"_vertices", encodeVertices(cmd.vertices, cmd.uvs), gputypes.BufferUsageVertex)
	if err != nil {
		return d, err
	}
	u := encodeUniforms(&cmd.uniforms, target, srcSize, backdropSize, cmd.sampling[0])
	d.uniforms, err = c.createBuffer(label+"_uniforms", u, gputypes.BufferUsageUniform)
	if err != nil {
		return d, err
	}
	smp, err := c.sampler(cmd.sampling[0])
	if err != nil {
		return d, err
	}
	d.group, err = c.dev.dev.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  label + "_bind",
		Layout: c.pipelines.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: bindingUniforms, Resource: gputypes.BufferBinding{
				Buffer: d.uniforms.NativeHandle(), Offset: 0, Size: uniformSize,
			}},
			{Binding: bindingTexture, Resource: gputypes.TextureViewBinding{TextureView: src.view.NativeHandle()}},
			{Binding: bindingSampler, Resource: gputypes.SamplerBinding{Sampler: smp.NativeHandle()}},
			{Binding: bindingBackdrop, Resource: gputypes.TextureViewBinding{TextureView: backdrop.view.NativeHandle()}},
		},
	})
	if err != nil {
		return d, fmt.Errorf("wgpu: create bind group: %w", err)
	}
	return d, nil
}

// createBuffer creates a buffer of the given usage holding data.
func (c *Context) createBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := c.dev.dev.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create buffer %s: %w", label, err)
	}
	if err := c.dev.queue.WriteBuffer(buf, 0, data); err != nil {
		c.dev.dev.DestroyBuffer(buf)
		return nil, fmt.Errorf("wgpu: write buffer %s: %w", label, err)
	}
	return buf, nil
}
