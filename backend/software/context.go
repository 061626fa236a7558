package software

import (
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/backend"
	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/internal/pool"
)

func init() {
	backend.Register(backend.NameSoftware, func() (compositor.Context, error) {
		return New(), nil
	})
}

// Context is a CPU compositor.Context. It is safe for concurrent use;
// each pass must be driven by one goroutine.
type Context struct {
	opts  options
	log   *slog.Logger
	caps  compositor.Capabilities
	store *pool.Pool[*storage]

	live   atomic.Int64
	passes atomic.Uint64
	draws  atomic.Uint64
}

var _ compositor.Context = (*Context)(nil)

// New creates a software context.
func New(opts ...Option) *Context {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &Context{opts: o, log: o.logger}
	if c.log == nil {
		c.log = compositor.Logger()
	}
	c.caps = compositor.Capabilities{
		SupportsFramebufferFetch: o.framebufferFetch,
		MaxAttachmentSize:        o.maxAttachment,
	}
	var poolOpts []pool.Option[*storage]
	if o.poolLimit >= 0 {
		poolOpts = append(poolOpts, pool.WithBucketLimit[*storage](o.poolLimit))
	}
	c.store = pool.New(newStorage, poolOpts...)
	return c
}

// Capabilities implements compositor.Context.
func (c *Context) Capabilities() compositor.Capabilities { return c.caps }

// CreateRenderTarget implements compositor.Context. The target starts
// transparent with one reference.
func (c *Context) CreateRenderTarget(size geom.ISize, label string) (compositor.RenderTarget, error) {
	if size.IsEmpty() {
		return nil, fmt.Errorf("%w: %s %dx%d", ErrEmptySize, label, size.W, size.H)
	}
	if m := c.caps.MaxAttachmentSize; !m.IsEmpty() && (size.W > m.W || size.H > m.H) {
		return nil, fmt.Errorf("%w: %s %dx%d > %dx%d", ErrTargetTooLarge, label, size.W, size.H, m.W, m.H)
	}
	s, err := c.store.Get(size)
	if err != nil {
		return nil, fmt.Errorf("software: allocate %s: %w", label, err)
	}
	s.clear(blend.Transparent)
	t := &Target{
		ctx:   c,
		size:  size,
		tex:   &Texture{size: size, label: label, pix: s.color},
		store: s,
	}
	t.refs.Store(1)
	c.live.Add(1)
	c.log.Debug("software: target created", "label", label, "w", size.W, "h", size.H)
	return t, nil
}

func (c *Context) recycle(t *Target) {
	c.live.Add(-1)
	c.store.Put(t.size, t.store)
	c.log.Debug("software: target recycled", "label", t.tex.label)
}

// BeginPass implements compositor.Context.
func (c *Context) BeginPass(target compositor.RenderTarget, clearColor blend.Color) (compositor.RenderPass, error) {
	t, ok := target.(*Target)
	if !ok || t.ctx != c {
		return nil, fmt.Errorf("%w: target %T", ErrForeignResource, target)
	}
	if t.refs.Load() <= 0 {
		return nil, fmt.Errorf("software: begin pass on released target %q", t.tex.label)
	}
	c.passes.Add(1)
	return newPass(c, t, clearColor), nil
}

// Blit implements compositor.Context. The overlapping region of src is
// copied onto dst at the origin.
func (c *Context) Blit(src, dst compositor.Texture) error {
	s, ok := src.(*Texture)
	if !ok {
		return fmt.Errorf("%w: blit source %T", ErrForeignResource, src)
	}
	d, ok := dst.(*Texture)
	if !ok {
		return fmt.Errorf("%w: blit destination %T", ErrForeignResource, dst)
	}
	w := min(s.size.W, d.size.W)
	h := min(s.size.H, d.size.H)
	for y := range h {
		copy(d.pix[y*d.size.W:y*d.size.W+w], s.pix[y*s.size.W:y*s.size.W+w])
	}
	return nil
}

// CreateTextureFromImage implements compositor.Context.
func (c *Context) CreateTextureFromImage(img image.Image, label string) (compositor.Texture, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: image %s", ErrEmptySize, label)
	}
	if m := c.caps.MaxAttachmentSize; !m.IsEmpty() {
		b := img.Bounds()
		if b.Dx() > m.W || b.Dy() > m.H {
			return nil, fmt.Errorf("%w: image %s %dx%d", ErrTargetTooLarge, label, b.Dx(), b.Dy())
		}
	}
	return textureFromImage(img, label), nil
}

// ReadPixels returns the pixels of a texture as 8-bit premultiplied RGBA.
func (c *Context) ReadPixels(tex compositor.Texture) (*image.RGBA, error) {
	t, ok := tex.(*Texture)
	if !ok {
		return nil, fmt.Errorf("%w: texture %T", ErrForeignResource, tex)
	}
	return t.Image(), nil
}

// Stats describes the resources of a context.
type Stats struct {
	// LiveTargets is the number of targets with outstanding references.
	LiveTargets int
	Passes      uint64
	Draws       uint64
	Pool        pool.Stats
}

// Stats returns a snapshot of resource counters.
func (c *Context) Stats() Stats {
	return Stats{
		LiveTargets: int(c.live.Load()),
		Passes:      c.passes.Load(),
		Draws:       c.draws.Load(),
		Pool:        c.store.Stats(),
	}
}

// Trim drops every idle pooled target.
func (c *Context) Trim() { c.store.Drain() }
