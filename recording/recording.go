package recording

import (
	"errors"
	"fmt"

	"github.com/gogpu/compositor"
)

// ErrUnknownTexture is returned by Playback for a texture whose pixels were
// not captured.
var ErrUnknownTexture = errors.New("recording: texture not captured")

// Recording is an immutable pass plan produced by Recorder.Finish.
type Recording struct {
	commands  []Command
	resources *ResourcePool
}

// Commands returns the context level commands in submission order. Passes
// appear as *Pass.
func (r *Recording) Commands() []Command { return r.commands }

// Resources returns the targets and textures the commands refer to.
func (r *Recording) Resources() *ResourcePool { return r.resources }

// Passes returns the encoded passes in submission order.
func (r *Recording) Passes() []*Pass {
	var out []*Pass
	for _, c := range r.commands {
		if p, ok := c.(*Pass); ok {
			out = append(out, p)
		}
	}
	return out
}

// Stats summarizes a recording.
type Stats struct {
	Passes  int
	Draws   int
	Targets int
	Uploads int
	Blits   int
	// Pipelines is the number of distinct pipelines bound.
	Pipelines int
	// Stencil counts draws that only write the stencil buffer.
	Stencil int
}

// Stats counts the commands of the recording.
func (r *Recording) Stats() Stats {
	var s Stats
	seen := make(map[compositor.PipelineDescriptor]struct{})
	for _, c := range r.commands {
		switch c := c.(type) {
		case CreateTarget:
			s.Targets++
		case UploadTexture:
			s.Uploads++
		case Blit:
			s.Blits++
		case *Pass:
			s.Passes++
			var bound compositor.PipelineDescriptor
			for _, pc := range c.Commands {
				switch pc := pc.(type) {
				case BindPipeline:
					bound = pc.Pipeline
					seen[bound] = struct{}{}
				case Draw:
					s.Draws++
					if bound.NoColor {
						s.Stencil++
					}
				}
			}
		}
	}
	s.Pipelines = len(seen)
	return s
}

// Replay holds the resources created by Playback.
type Replay struct {
	targets  []compositor.RenderTarget
	textures []compositor.Texture
}

// Target returns the replayed target for ref, or nil.
func (p *Replay) Target(ref TargetRef) compositor.RenderTarget {
	if int(ref) >= len(p.targets) {
		return nil
	}
	return p.targets[ref]
}

// Release drops the reference Playback holds on every target.
func (p *Replay) Release() {
	for i, t := range p.targets {
		if t != nil {
			t.Release()
			p.targets[i] = nil
		}
	}
}

// Playback executes the recording on ctx. Every recorded target, external
// ones included, is allocated on ctx and kept alive until Release. On error
// the partial replay is returned along with it.
func (r *Recording) Playback(ctx compositor.Context) (*Replay, error) {
	out := &Replay{
		targets:  make([]compositor.RenderTarget, r.resources.TargetCount()),
		textures: make([]compositor.Texture, r.resources.TextureCount()),
	}
	for _, c := range r.commands {
		var err error
		switch c := c.(type) {
		case CreateTarget:
			_, err = out.target(ctx, r.resources, c.Target)
		case UploadTexture:
			_, err = out.texture(ctx, r.resources, c.Texture)
		case Blit:
			err = out.blit(ctx, r.resources, c)
		case *Pass:
			err = out.pass(ctx, r.resources, c)
		}
		if err != nil {
			return out, fmt.Errorf("recording: playback %s: %w", c.Type(), err)
		}
	}
	return out, nil
}

func (p *Replay) target(ctx compositor.Context, pool *ResourcePool, ref TargetRef) (compositor.RenderTarget, error) {
	if t := p.Target(ref); t != nil {
		return t, nil
	}
	info, ok := pool.Target(ref)
	if !ok {
		return nil, fmt.Errorf("target %d out of range", ref)
	}
	t, err := ctx.CreateRenderTarget(info.Size, info.Label)
	if err != nil {
		return nil, err
	}
	p.targets[ref] = t
	p.textures[info.Color] = t.ColorTexture()
	return t, nil
}

func (p *Replay) texture(ctx compositor.Context, pool *ResourcePool, ref TextureRef) (compositor.Texture, error) {
	if !ref.IsValid() {
		return nil, nil
	}
	if int(ref) < len(p.textures) && p.textures[ref] != nil {
		return p.textures[ref], nil
	}
	info, ok := pool.Texture(ref)
	switch {
	case !ok:
		return nil, fmt.Errorf("texture %d out of range", ref)
	case info.Target.IsValid():
		t, err := p.target(ctx, pool, info.Target)
		if err != nil {
			return nil, err
		}
		return t.ColorTexture(), nil
	case info.Image == nil:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTexture, info.Label)
	}
	tex, err := ctx.CreateTextureFromImage(info.Image, info.Label)
	if err != nil {
		return nil, err
	}
	p.textures[ref] = tex
	return tex, nil
}

func (p *Replay) blit(ctx compositor.Context, pool *ResourcePool, b Blit) error {
	src, err := p.texture(ctx, pool, b.Src)
	if err != nil {
		return err
	}
	dst, err := p.texture(ctx, pool, b.Dst)
	if err != nil {
		return err
	}
	return ctx.Blit(src, dst)
}

func (p *Replay) pass(ctx compositor.Context, pool *ResourcePool, rec *Pass) error {
	t, err := p.target(ctx, pool, rec.Target)
	if err != nil {
		return err
	}
	pass, err := ctx.BeginPass(t, rec.Clear)
	if err != nil {
		return err
	}
	var drawErr error
	for _, c := range rec.Commands {
		switch c := c.(type) {
		case SetViewport:
			pass.SetViewport(c.Rect)
		case SetScissor:
			pass.SetScissor(c.Rect)
		case BindPipeline:
			drawErr = pass.BindPipeline(c.Pipeline)
		case BindUniforms:
			pass.BindUniforms(c.Uniforms)
		case BindTexture:
			var tex compositor.Texture
			if tex, drawErr = p.texture(ctx, pool, c.Texture); drawErr == nil {
				pass.BindTexture(c.Slot, tex, c.Sampling)
			}
		case Draw:
			drawErr = pass.Draw(c.Vertices, c.UVs)
		}
		if drawErr != nil {
			break
		}
	}
	if err := pass.Encode(); err != nil {
		return errors.Join(drawErr, err)
	}
	if drawErr != nil {
		return fmt.Errorf("pass %d: %w", rec.Index, drawErr)
	}
	return nil
}
