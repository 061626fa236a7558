//go:build !nogpu

package wgpu

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/internal/reactor"
)

// Usages of sampled images and of target color attachments.
const (
	imageUsage  = gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst | gputypes.TextureUsageCopySrc
	targetUsage = imageUsage | gputypes.TextureUsageRenderAttachment
)

// Texture is a sampled RGBA8 texture holding premultiplied colors.
type Texture struct {
	ctx   *Context
	size  geom.ISize
	label string
	tex   hal.Texture
	view  hal.TextureView
	// image is set for textures created from images, which own tex.
	image     bool
	destroyed atomic.Bool
}

var _ compositor.Texture = (*Texture)(nil)

// Size implements compositor.Texture.
func (t *Texture) Size() geom.ISize { return t.size }

// Label implements compositor.Texture.
func (t *Texture) Label() string { return t.label }

// Destroy releases a texture created by CreateTextureFromImage once the
// GPU is done with it. Target color textures are owned by their target and
// ignore Destroy.
func (t *Texture) Destroy() {
	if !t.image || !t.destroyed.CompareAndSwap(false, true) {
		return
	}
	t.ctx.forgetImage(t)
	t.ctx.retire(
		t.ctx.objects.Adopt(reactor.KindTextureView, t.view),
		t.ctx.objects.Adopt(reactor.KindTexture, t.tex),
	)
}

// attachments are the device textures of a render target. They outlive
// the target and are recycled through the context pool.
type attachments struct {
	size      geom.ISize
	color     hal.Texture
	colorView hal.TextureView
	// msaa is nil without multisampling.
	msaa      hal.Texture
	msaaView  hal.TextureView
	depth     hal.Texture
	depthView hal.TextureView
}

// renderView is the view draws are rasterized into.
func (a *attachments) renderView() hal.TextureView {
	if a.msaaView != nil {
		return a.msaaView
	}
	return a.colorView
}

// resolveView is the multisample resolve destination, or nil.
func (a *attachments) resolveView() hal.TextureView {
	if a.msaaView != nil {
		return a.colorView
	}
	return nil
}

// handles adopts every object into the reactor, views before textures.
func (a *attachments) handles(r *reactor.Reactor[hal.Resource]) []reactor.Handle {
	hs := make([]reactor.Handle, 0, 6)
	add := func(kind reactor.Kind, obj hal.Resource) {
		if obj != nil {
			hs = append(hs, r.Adopt(kind, obj))
		}
	}
	add(reactor.KindTextureView, a.colorView)
	add(reactor.KindTextureView, a.msaaView)
	add(reactor.KindTextureView, a.depthView)
	add(reactor.KindTexture, a.color)
	add(reactor.KindTexture, a.msaa)
	add(reactor.KindTexture, a.depth)
	return hs
}

// createTexture creates a 2D texture and its default view.
func createTexture(dev hal.Device, label string, size geom.ISize, format gputypes.TextureFormat,
	usage gputypes.TextureUsage, samples uint32) (hal.Texture, hal.TextureView, error) {
	tex, err := dev.CreateTexture(&hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              uint32(size.W), //nolint:gosec // sizes are validated positive
			Height:             uint32(size.H), //nolint:gosec // sizes are validated positive
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create texture %s: %w", label, err)
	}
	view, err := dev.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: label + "_view"})
	if err != nil {
		dev.DestroyTexture(tex)
		return nil, nil, fmt.Errorf("create texture view %s: %w", label, err)
	}
	return tex, view, nil
}

// Target is a reference counted render target of a wgpu context.
type Target struct {
	ctx  *Context
	size geom.ISize
	tex  *Texture
	att  *attachments
	refs atomic.Int32
}

var _ compositor.RenderTarget = (*Target)(nil)

// Size implements compositor.RenderTarget.
func (t *Target) Size() geom.ISize { return t.size }

// ColorTexture implements compositor.RenderTarget.
func (t *Target) ColorTexture() compositor.Texture { return t.tex }

// Retain implements compositor.RenderTarget.
func (t *Target) Retain() { t.refs.Add(1) }

// Release implements compositor.RenderTarget. The attachments return to
// the pool with the last reference.
func (t *Target) Release() {
	switch n := t.refs.Add(-1); {
	case n == 0:
		t.ctx.recycle(t)
	case n < 0:
		t.ctx.log.Error("wgpu: target released too often", "label", t.tex.label, "refs", n)
	}
}

// Refs returns the current reference count.
func (t *Target) Refs() int { return int(t.refs.Load()) }
