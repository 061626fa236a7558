package software

import (
	"sync/atomic"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
)

// storage holds the attachments of a target. It outlives the target and
// is recycled through the context pool.
type storage struct {
	color   []blend.Color
	depth   []uint32
	stencil []uint8
}

func newStorage(size geom.ISize) (*storage, error) {
	if size.IsEmpty() {
		return nil, ErrEmptySize
	}
	n := size.Area()
	return &storage{
		color:   make([]blend.Color, n),
		depth:   make([]uint32, n),
		stencil: make([]uint8, n),
	}, nil
}

// clear resets every attachment the way a pass load op does.
func (s *storage) clear(c blend.Color) {
	for i := range s.color {
		s.color[i] = c
	}
	clear(s.depth)
	clear(s.stencil)
}

// Target is a reference counted render target of a software context.
type Target struct {
	ctx   *Context
	size  geom.ISize
	tex   *Texture
	store *storage
	refs  atomic.Int32
}

var _ compositor.RenderTarget = (*Target)(nil)

// Size implements compositor.RenderTarget.
func (t *Target) Size() geom.ISize { return t.size }

// ColorTexture implements compositor.RenderTarget. The texture shares the
// color attachment, so it reflects every encoded pass.
func (t *Target) ColorTexture() compositor.Texture { return t.tex }

// Retain implements compositor.RenderTarget.
func (t *Target) Retain() { t.refs.Add(1) }

// Release implements compositor.RenderTarget. The storage returns to the
// pool with the last reference.
func (t *Target) Release() {
	switch n := t.refs.Add(-1); {
	case n == 0:
		t.ctx.recycle(t)
	case n < 0:
		t.ctx.log.Error("software: target released too often", "label", t.tex.label, "refs", n)
	}
}

// Refs returns the current reference count.
func (t *Target) Refs() int { return int(t.refs.Load()) }

// Stencil returns the stencil value at (x, y). Encoded passes leave
// cover draws with a zero stencil everywhere they touched.
func (t *Target) Stencil(x, y int) uint8 {
	if x < 0 || y < 0 || x >= t.size.W || y >= t.size.H {
		return 0
	}
	return t.store.stencil[y*t.size.W+x]
}

// Depth returns the depth value at (x, y).
func (t *Target) Depth(x, y int) uint32 {
	if x < 0 || y < 0 || x >= t.size.W || y >= t.size.H {
		return 0
	}
	return t.store.depth[y*t.size.W+x]
}
