package compositor

import (
	"fmt"

	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
)

// passTarget is the render target of one pass level. Reading the pass as a
// backdrop flips it to a secondary target of the same size.
type passTarget struct {
	front RenderTarget
	back  RenderTarget
	label string
}

func newPassTarget(t RenderTarget, label string) *passTarget {
	return &passTarget{front: t, label: label}
}

// size returns the pixel size of the target.
func (t *passTarget) size() geom.ISize { return t.front.Size() }

// allocBack allocates the back target on first use.
func (t *passTarget) allocBack(r *Renderer) error {
	if t.back != nil {
		return nil
	}
	back, err := r.newTarget(t.front.Size(), t.label+" backdrop")
	if err != nil {
		return err
	}
	t.back = back
	return nil
}

// swap exchanges front and back. The back target must exist.
func (t *passTarget) swap() { t.front, t.back = t.back, t.front }

// lazyPass opens its render pass on first use so that draws covering the
// whole target can be folded into the clear color.
type lazyPass struct {
	target  *passTarget
	pass    RenderPass
	clear   blend.Color // premultiplied
	scissor geom.IRect
	// load is drawn over the clear when the pass opens. It carries the
	// content of a pass that was ended mid-frame.
	load Texture
}

func newLazyPass(t *passTarget) *lazyPass {
	return &lazyPass{target: t, clear: blend.Transparent, scissor: geom.MakeIRectSize(t.size())}
}

// applyingClearColor reports whether nothing has been drawn yet.
func (p *lazyPass) applyingClearColor() bool { return p.pass == nil && p.load == nil }

// renderPass returns the open pass, beginning it if needed.
func (p *lazyPass) renderPass(r *Renderer) (RenderPass, error) {
	if p.pass != nil {
		return p.pass, nil
	}
	pass, err := r.ctx.BeginPass(p.target.front, p.clear)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPassCreation, p.target.label, err)
	}
	size := p.target.size()
	pass.SetViewport(geom.MakeISize(size))
	Logger().Debug("compositor: begin pass", "target", p.target.label, "clear", p.clear)
	p.pass = pass
	if p.load != nil {
		full := geom.MakeISize(size)
		pass.SetScissor(geom.MakeIRectSize(size))
		e := &Entity{
			Contents:  NewTextureContents(p.load, full, full),
			Transform: geom.Identity(),
			BlendMode: blend.ModeSource,
			ClipDepth: MaxDepth,
		}
		if err := e.Render(r, pass); err != nil {
			Logger().Warn("compositor: load pass content", "target", p.target.label, "err", err)
		}
		p.load = nil
	}
	pass.SetScissor(p.scissor)
	return pass, nil
}

func (p *lazyPass) setScissor(s geom.IRect) {
	p.scissor = s
	if p.pass != nil {
		p.pass.SetScissor(s)
	}
}

// end encodes the pass. The next renderPass call opens a new pass over the
// same target, which is cleared again unless load is set.
func (p *lazyPass) end() error {
	if p.pass == nil {
		return nil
	}
	pass := p.pass
	p.pass = nil
	if err := pass.Encode(); err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrPassCreation, p.target.label, err)
	}
	return nil
}
