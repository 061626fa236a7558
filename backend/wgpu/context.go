//go:build !nogpu

package wgpu

import (
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/backend"
	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/internal/pool"
	"github.com/gogpu/compositor/internal/reactor"
)

func init() {
	backend.Register(backend.NameWGPU, func() (compositor.Context, error) {
		c, err := New()
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}

// copyPitchAlignment is the row alignment of texture to buffer copies.
const copyPitchAlignment = 256

// retirement holds objects the GPU may still use until the submission with
// the given index completes.
type retirement struct {
	index   uint64
	handles []reactor.Handle
	cmds    []hal.CommandBuffer
}

// Context is a GPU compositor.Context on a HAL device. It is safe for
// concurrent use; each pass must be driven by one goroutine.
//
// Device work is serialized by one mutex. Objects released while the GPU
// may still read them are adopted by a reactor and destroyed once their
// submission completes.
type Context struct {
	opts      options
	log       *slog.Logger
	dev       *device
	caps      compositor.Capabilities
	pipelines *pipelineCache
	store     *pool.Pool[*attachments]

	// mu serializes device use. owned is set while mu is held and is what
	// the reactor worker reports.
	mu       sync.Mutex
	owned    atomic.Bool
	objects  *reactor.Reactor[hal.Resource]
	worker   *reactor.Worker
	workerID reactor.WorkerID
	samplers map[compositor.Sampling]hal.Sampler
	blank    *Texture

	retireMu  sync.Mutex
	retired   []retirement
	submitted atomic.Uint64

	imagesMu sync.Mutex
	images   map[*Texture]struct{}

	closed atomic.Bool
	live   atomic.Int64
	passes atomic.Uint64
	draws  atomic.Uint64
}

var _ compositor.Context = (*Context)(nil)

// New opens the best available GPU and creates a context on it. It
// returns ErrNoAdapter when no GPU is present.
func New(opts ...Option) (*Context, error) {
	d, err := openDevice()
	if err != nil {
		return nil, err
	}
	c, err := newContext(d, opts)
	if err != nil {
		d.destroy()
		return nil, err
	}
	return c, nil
}

// NewWithDevice creates a context on a device owned by the caller. Close
// releases the context objects but leaves the device open.
func NewWithDevice(dev hal.Device, queue hal.Queue, opts ...Option) (*Context, error) {
	if dev == nil || queue == nil {
		return nil, fmt.Errorf("%w: nil device or queue", ErrNoAdapter)
	}
	return newContext(&device{
		dev:    dev,
		queue:  queue,
		info:   GPUInfo{Name: "external"},
		limits: gputypes.DefaultLimits(),
	}, opts)
}

// NewContextFromProvider creates a context sharing the device of a host
// application. The provider must expose its HAL device and queue.
func NewContextFromProvider(p gpucontext.DeviceProvider, opts ...Option) (*Context, error) {
	d, err := deviceFromProvider(p)
	if err != nil {
		return nil, err
	}
	return newContext(d, opts)
}

func newContext(d *device, opts []Option) (*Context, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &Context{
		opts:     o,
		log:      o.logger,
		dev:      d,
		samplers: make(map[compositor.Sampling]hal.Sampler),
		images:   make(map[*Texture]struct{}),
	}
	if c.log == nil {
		c.log = compositor.Logger()
	}
	maxDim := int(d.limits.MaxTextureDimension2D)
	c.caps = compositor.Capabilities{
		SupportsFramebufferFetch: false,
		MaxAttachmentSize:        geom.ISize{W: maxDim, H: maxDim},
	}

	c.objects = reactor.New[hal.Resource](halObjects{dev: d.dev, log: c.log}, reactor.WithLogger(c.log))
	c.worker = reactor.NewWorker(c.owned.Load)
	c.workerID = c.objects.AddWorker(c.worker)

	pipelines, err := newPipelineCache(d.dev, c.log, o.label, o.sampleCount)
	if err != nil {
		return nil, err
	}
	c.pipelines = pipelines

	poolOpts := []pool.Option[*attachments]{pool.WithEvict(c.evictAttachments)}
	if o.poolLimit >= 0 {
		poolOpts = append(poolOpts, pool.WithBucketLimit[*attachments](o.poolLimit))
	}
	c.store = pool.New(c.allocAttachments, poolOpts...)

	err = c.withDevice(func() error {
		var err error
		c.blank, err = c.uploadTexture(image.NewRGBA(image.Rect(0, 0, 1, 1)), o.label+"_blank")
		return err
	})
	if err != nil {
		pipelines.destroy()
		return nil, err
	}
	c.log.Debug("wgpu: context created", "gpu", d.info.String(), "samples", o.sampleCount)
	return c, nil
}

// withDevice runs fn while owning the device, then destroys whatever
// completed submissions no longer use.
func (c *Context) withDevice(fn func() error) error {
	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		return ErrClosed
	}
	c.owned.Store(true)
	defer func() {
		c.collect(false)
		c.owned.Store(false)
		c.mu.Unlock()
	}()
	return fn()
}

// retire schedules handles for destruction after the latest submission.
func (c *Context) retire(handles ...reactor.Handle) {
	if len(handles) == 0 {
		return
	}
	c.retireMu.Lock()
	c.retired = append(c.retired, retirement{index: c.submitted.Load(), handles: handles})
	c.retireMu.Unlock()
}

// collect hands completed retirements to the reactor and reacts. With
// force set, everything is collected; the caller must have waited for the
// device to go idle. It must be called with mu held.
func (c *Context) collect(force bool) {
	done := c.dev.queue.PollCompleted()
	c.retireMu.Lock()
	var ready []retirement
	pending := c.retired[:0]
	for _, r := range c.retired {
		if force || r.index <= done {
			ready = append(ready, r)
		} else {
			pending = append(pending, r)
		}
	}
	clear(c.retired[len(pending):])
	c.retired = pending
	c.retireMu.Unlock()

	for _, r := range ready {
		for _, h := range r.handles {
			c.objects.CollectHandle(h)
		}
		for _, cmd := range r.cmds {
			c.objects.AddOperation(func(*reactor.Reactor[hal.Resource]) {
				c.dev.dev.FreeCommandBuffer(cmd)
			})
		}
	}
	c.objects.React()
}

// beginEncoder creates a command encoder ready to record.
func (c *Context) beginEncoder(label string) (hal.CommandEncoder, error) {
	enc, err := c.dev.dev.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := enc.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	return enc, nil
}

// submit finishes enc and submits it, returning the submission index.
func (c *Context) submit(enc hal.CommandEncoder) (uint64, error) {
	cmd, err := enc.EndEncoding()
	if err != nil {
		return 0, fmt.Errorf("wgpu: end encoding: %w", err)
	}
	idx, err := c.dev.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		c.dev.dev.FreeCommandBuffer(cmd)
		return 0, fmt.Errorf("wgpu: submit: %w", err)
	}
	c.submitted.Store(idx)
	c.retireMu.Lock()
	c.retired = append(c.retired, retirement{index: idx, cmds: []hal.CommandBuffer{cmd}})
	c.retireMu.Unlock()
	return idx, nil
}

// wait blocks until submission idx completes or the wait timeout passes.
func (c *Context) wait(idx uint64) error {
	if c.dev.queue.PollCompleted() >= idx {
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- c.dev.dev.WaitIdle() }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("wgpu: wait idle: %w", err)
		}
		return nil
	case <-time.After(c.opts.waitTimeout):
		return fmt.Errorf("%w after %s", ErrGPUTimeout, c.opts.waitTimeout)
	}
}

// Capabilities implements compositor.Context. HAL devices cannot read the
// framebuffer in fragment shaders.
func (c *Context) Capabilities() compositor.Capabilities { return c.caps }

// Info describes the GPU of the context.
func (c *Context) Info() GPUInfo { return c.dev.info }

func (c *Context) allocAttachments(size geom.ISize) (*attachments, error) {
	dev := c.dev.dev
	label := fmt.Sprintf("%s_target_%dx%d", c.opts.label, size.W, size.H)
	a := &attachments{size: size}
	var err error
	a.color, a.colorView, err = createTexture(dev, label, size, colorFormat, targetUsage, 1)
	if err != nil {
		return nil, err
	}
	samples := c.opts.sampleCount
	if samples > 1 {
		a.msaa, a.msaaView, err = createTexture(dev, label+"_msaa", size, colorFormat,
			gputypes.TextureUsageRenderAttachment, samples)
		if err != nil {
			c.destroyAttachments(a)
			return nil, err
		}
	}
	a.depth, a.depthView, err = createTexture(dev, label+"_depth", size, depthStencilFormat,
		gputypes.TextureUsageRenderAttachment, samples)
	if err != nil {
		c.destroyAttachments(a)
		return nil, err
	}
	return a, nil
}

// destroyAttachments destroys attachments the GPU never used.
func (c *Context) destroyAttachments(a *attachments) {
	dev := c.dev.dev
	for _, v := range []hal.TextureView{a.colorView, a.msaaView, a.depthView} {
		if v != nil {
			dev.DestroyTextureView(v)
		}
	}
	for _, t := range []hal.Texture{a.color, a.msaa, a.depth} {
		if t != nil {
			dev.DestroyTexture(t)
		}
	}
}

func (c *Context) evictAttachments(a *attachments) {
	c.retire(a.handles(c.objects)...)
}

// CreateRenderTarget implements compositor.Context. The target starts
// transparent with one reference.
func (c *Context) CreateRenderTarget(size geom.ISize, label string) (compositor.RenderTarget, error) {
	if size.IsEmpty() {
		return nil, fmt.Errorf("%w: %s %dx%d", ErrEmptySize, label, size.W, size.H)
	}
	if m := c.caps.MaxAttachmentSize; size.W > m.W || size.H > m.H {
		return nil, fmt.Errorf("%w: %s %dx%d > %dx%d", ErrTargetTooLarge, label, size.W, size.H, m.W, m.H)
	}
	var a *attachments
	err := c.withDevice(func() error {
		var err error
		a, err = c.store.Get(size)
		if err != nil {
			return fmt.Errorf("wgpu: allocate %s: %w", label, err)
		}
		if err := c.runPass(a, label+"_clear", blend.Transparent, nil); err != nil {
			c.store.Put(size, a)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	t := &Target{
		ctx:  c,
		size: size,
		tex:  &Texture{ctx: c, size: size, label: label, tex: a.color, view: a.colorView},
		att:  a,
	}
	t.refs.Store(1)
	c.live.Add(1)
	c.log.Debug("wgpu: target created", "label", label, "w", size.W, "h", size.H)
	return t, nil
}

func (c *Context) recycle(t *Target) {
	c.live.Add(-1)
	c.store.Put(t.size, t.att)
	c.log.Debug("wgpu: target recycled", "label", t.tex.label)
}

// BeginPass implements compositor.Context.
func (c *Context) BeginPass(target compositor.RenderTarget, clearColor blend.Color) (compositor.RenderPass, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	t, ok := target.(*Target)
	if !ok || t.ctx != c {
		return nil, fmt.Errorf("%w: target %T", ErrForeignResource, target)
	}
	if t.refs.Load() <= 0 {
		return nil, fmt.Errorf("wgpu: begin pass on released target %q", t.tex.label)
	}
	c.passes.Add(1)
	return newPass(c, t, clearColor), nil
}

func (c *Context) ownTexture(tex compositor.Texture, role string) (*Texture, error) {
	t, ok := tex.(*Texture)
	if !ok || t.ctx != c {
		return nil, fmt.Errorf("%w: %s %T", ErrForeignResource, role, tex)
	}
	if t.destroyed.Load() {
		return nil, fmt.Errorf("wgpu: %s %q is destroyed", role, t.label)
	}
	return t, nil
}

// Blit implements compositor.Context. The overlapping region of src is
// copied onto dst at the origin.
func (c *Context) Blit(src, dst compositor.Texture) error {
	s, err := c.ownTexture(src, "blit source")
	if err != nil {
		return err
	}
	d, err := c.ownTexture(dst, "blit destination")
	if err != nil {
		return err
	}
	w := min(s.size.W, d.size.W)
	h := min(s.size.H, d.size.H)
	return c.withDevice(func() error {
		enc, err := c.beginEncoder(c.opts.label + "_blit")
		if err != nil {
			return err
		}
		enc.CopyTextureToTexture(s.tex, d.tex, []hal.TextureCopy{{
			SrcBase: hal.ImageCopyTexture{Texture: s.tex, Aspect: gputypes.TextureAspectAll},
			DstBase: hal.ImageCopyTexture{Texture: d.tex, Aspect: gputypes.TextureAspectAll},
			Size: hal.Extent3D{
				Width:              uint32(w), //nolint:gosec // texture sizes are positive
				Height:             uint32(h), //nolint:gosec // texture sizes are positive
				DepthOrArrayLayers: 1,
			},
		}})
		_, err = c.submit(enc)
		return err
	})
}

// CreateTextureFromImage implements compositor.Context. Pixels are stored
// premultiplied.
func (c *Context) CreateTextureFromImage(img image.Image, label string) (compositor.Texture, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: image %s", ErrEmptySize, label)
	}
	b := img.Bounds()
	if m := c.caps.MaxAttachmentSize; b.Dx() > m.W || b.Dy() > m.H {
		return nil, fmt.Errorf("%w: image %s %dx%d", ErrTargetTooLarge, label, b.Dx(), b.Dy())
	}
	rgba, ok := img.(*image.RGBA)
	if !ok || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	var t *Texture
	err := c.withDevice(func() error {
		var err error
		t, err = c.uploadTexture(rgba, label)
		return err
	})
	if err != nil {
		return nil, err
	}
	c.imagesMu.Lock()
	c.images[t] = struct{}{}
	c.imagesMu.Unlock()
	return t, nil
}

// uploadTexture creates a sampled texture holding img. It must be called
// with mu held.
func (c *Context) uploadTexture(img *image.RGBA, label string) (*Texture, error) {
	size := geom.ISize{W: img.Rect.Dx(), H: img.Rect.Dy()}
	tex, view, err := createTexture(c.dev.dev, label, size, colorFormat, imageUsage, 1)
	if err != nil {
		return nil, fmt.Errorf("wgpu: %w", err)
	}
	err = c.dev.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, Aspect: gputypes.TextureAspectAll},
		img.Pix,
		&hal.ImageDataLayout{
			BytesPerRow:  uint32(img.Stride), //nolint:gosec // stride of a valid image
			RowsPerImage: uint32(size.H),     //nolint:gosec // validated positive
		},
		&hal.Extent3D{
			Width:              uint32(size.W), //nolint:gosec // validated positive
			Height:             uint32(size.H), //nolint:gosec // validated positive
			DepthOrArrayLayers: 1,
		},
	)
	if err != nil {
		c.dev.dev.DestroyTextureView(view)
		c.dev.dev.DestroyTexture(tex)
		return nil, fmt.Errorf("wgpu: upload %s: %w", label, err)
	}
	return &Texture{ctx: c, size: size, label: label, tex: tex, view: view, image: true}, nil
}

func (c *Context) forgetImage(t *Texture) {
	c.imagesMu.Lock()
	delete(c.images, t)
	c.imagesMu.Unlock()
}

// ReadPixels copies a texture back as 8-bit premultiplied RGBA. It waits
// for every pass submitted before it.
func (c *Context) ReadPixels(tex compositor.Texture) (*image.RGBA, error) {
	t, err := c.ownTexture(tex, "texture")
	if err != nil {
		return nil, err
	}
	w, h := uint32(t.size.W), uint32(t.size.H) //nolint:gosec // texture sizes are positive
	rowBytes := w * 4
	aligned := (rowBytes + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	bufSize := uint64(aligned) * uint64(h)

	img := image.NewRGBA(image.Rect(0, 0, t.size.W, t.size.H))
	err = c.withDevice(func() error {
		dev := c.dev.dev
		staging, err := dev.CreateBuffer(&hal.BufferDescriptor{
			Label: c.opts.label + "_readback",
			Size:  bufSize,
			Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("wgpu: create staging buffer: %w", err)
		}
		enc, err := c.beginEncoder(c.opts.label + "_readback")
		if err != nil {
			dev.DestroyBuffer(staging)
			return err
		}
		usage := gputypes.TextureUsageRenderAttachment
		if t.image {
			usage = gputypes.TextureUsageTextureBinding
		}
		enc.TransitionTextures([]hal.TextureBarrier{{
			Texture: t.tex,
			Usage:   hal.TextureUsageTransition{OldUsage: usage, NewUsage: gputypes.TextureUsageCopySrc},
		}})
		enc.CopyTextureToBuffer(t.tex, staging, []hal.BufferTextureCopy{{
			BufferLayout: hal.ImageDataLayout{BytesPerRow: aligned, RowsPerImage: h},
			TextureBase:  hal.ImageCopyTexture{Texture: t.tex, Aspect: gputypes.TextureAspectAll},
			Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		}})
		enc.TransitionTextures([]hal.TextureBarrier{{
			Texture: t.tex,
			Usage:   hal.TextureUsageTransition{OldUsage: gputypes.TextureUsageCopySrc, NewUsage: usage},
		}})
		idx, err := c.submit(enc)
		if err != nil {
			dev.DestroyBuffer(staging)
			return err
		}
		if err := c.wait(idx); err != nil {
			c.retire(c.objects.Adopt(reactor.KindBuffer, staging))
			return err
		}
		defer dev.DestroyBuffer(staging)

		mapping, err := dev.MapBuffer(staging, 0, bufSize)
		if err != nil {
			return fmt.Errorf("wgpu: map staging buffer: %w", err)
		}
		data := unsafe.Slice((*byte)(mapping.Ptr), bufSize)
		for y := range int(h) {
			src := data[y*int(aligned) : y*int(aligned)+int(rowBytes)]
			copy(img.Pix[y*img.Stride:], src)
		}
		if err := dev.UnmapBuffer(staging); err != nil {
			return fmt.Errorf("wgpu: unmap staging buffer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}

// sampler returns the cached sampler for s. Decal addressing clamps here
// and discards outside the unit square in the shader. It must be called
// with mu held.
func (c *Context) sampler(s compositor.Sampling) (hal.Sampler, error) {
	if smp, ok := c.samplers[s]; ok {
		return smp, nil
	}
	address := gputypes.AddressModeClampToEdge
	if s.Address == compositor.AddressRepeat {
		address = gputypes.AddressModeRepeat
	}
	filter := gputypes.FilterModeNearest
	if s.Filter == compositor.FilterLinear {
		filter = gputypes.FilterModeLinear
	}
	smp, err := c.dev.dev.CreateSampler(&hal.SamplerDescriptor{
		Label:        fmt.Sprintf("%s_sampler_%d_%d", c.opts.label, s.Filter, s.Address),
		AddressModeU: address,
		AddressModeV: address,
		AddressModeW: address,
		MagFilter:    filter,
		MinFilter:    filter,
		MipmapFilter: gputypes.FilterModeNearest,
		LodMinClamp:  0,
		LodMaxClamp:  32,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create sampler: %w", err)
	}
	c.samplers[s] = smp
	return smp, nil
}

// Stats describes the resources of a context.
type Stats struct {
	// LiveTargets is the number of targets with outstanding references.
	LiveTargets int
	Passes      uint64
	Draws       uint64
	// Submissions is the index of the latest queue submission.
	Submissions uint64
	// Retiring counts batches waiting for their submission to complete.
	Retiring int
	// Handles counts objects owned by the reactor.
	Handles   int
	Pipelines int
	Pool      pool.Stats
}

// Stats returns a snapshot of resource counters.
func (c *Context) Stats() Stats {
	c.retireMu.Lock()
	retiring := len(c.retired)
	c.retireMu.Unlock()
	return Stats{
		LiveTargets: int(c.live.Load()),
		Passes:      c.passes.Load(),
		Draws:       c.draws.Load(),
		Submissions: c.submitted.Load(),
		Retiring:    retiring,
		Handles:     c.objects.Handles(),
		Pipelines:   c.pipelines.len(),
		Pool:        c.store.Stats(),
	}
}

// Trim drops every idle pooled target and destroys whatever completed
// submissions released.
func (c *Context) Trim() error {
	c.store.Drain()
	return c.withDevice(func() error { return nil })
}

// Close waits for the GPU, destroys every object of the context and, for
// contexts from New, the device. Targets still referenced become invalid.
func (c *Context) Close() error {
	c.mu.Lock()
	if c.closed.Swap(true) {
		c.mu.Unlock()
		return nil
	}
	c.owned.Store(true)
	err := c.dev.dev.WaitIdle()
	if err != nil {
		c.log.Warn("wgpu: wait idle on close", "err", err)
	}

	c.store.Drain()
	c.imagesMu.Lock()
	images := make([]*Texture, 0, len(c.images))
	for t := range c.images {
		images = append(images, t)
	}
	c.imagesMu.Unlock()
	for _, t := range images {
		t.Destroy()
	}
	if c.blank != nil {
		c.retire(
			c.objects.Adopt(reactor.KindTextureView, c.blank.view),
			c.objects.Adopt(reactor.KindTexture, c.blank.tex),
		)
	}
	for s, smp := range c.samplers {
		c.retire(c.objects.Adopt(reactor.KindSampler, smp))
		delete(c.samplers, s)
	}
	c.collect(true)
	c.pipelines.destroy()
	c.owned.Store(false)
	c.mu.Unlock()

	c.objects.RemoveWorker(c.workerID)
	c.dev.destroy()
	c.log.Debug("wgpu: context closed", "live_targets", c.live.Load())
	if err != nil {
		return fmt.Errorf("wgpu: close: %w", err)
	}
	return nil
}

// halObjects destroys the HAL objects adopted by the reactor.
type halObjects struct {
	dev hal.Device
	log *slog.Logger
}

func (h halObjects) Destroy(kind reactor.Kind, obj hal.Resource) {
	switch kind {
	case reactor.KindTexture:
		if t, ok := obj.(hal.Texture); ok {
			h.dev.DestroyTexture(t)
			return
		}
	case reactor.KindTextureView:
		if v, ok := obj.(hal.TextureView); ok {
			h.dev.DestroyTextureView(v)
			return
		}
	case reactor.KindBuffer:
		if b, ok := obj.(hal.Buffer); ok {
			h.dev.DestroyBuffer(b)
			return
		}
	case reactor.KindSampler:
		if s, ok := obj.(hal.Sampler); ok {
			h.dev.DestroySampler(s)
			return
		}
	case reactor.KindBindGroup:
		if g, ok := obj.(hal.BindGroup); ok {
			h.dev.DestroyBindGroup(g)
			return
		}
	}
	h.log.Warn("wgpu: destroy object of unexpected kind", "kind", kind, "type", fmt.Sprintf("%T", obj))
}
