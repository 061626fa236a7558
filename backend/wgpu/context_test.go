//go:build !nogpu

package wgpu

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
)

// createNoopDevice opens the noop HAL backend, which records nothing and
// completes every submission immediately.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance() error = %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		t.Fatal("noop backend exposes no adapter")
	}
	open, err := adapters[0].Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return open.Device, open.Queue
}

func newTestContext(t *testing.T, opts ...Option) *Context {
	t.Helper()
	dev, queue := createNoopDevice(t)
	ctx, err := NewWithDevice(dev, queue, opts...)
	if err != nil {
		t.Fatalf("NewWithDevice() error = %v", err)
	}
	t.Cleanup(func() { _ = ctx.Close() })
	return ctx
}

func newTarget(t *testing.T, ctx *Context, w, h int) *Target {
	t.Helper()
	rt, err := ctx.CreateRenderTarget(geom.ISize{W: w, H: h}, "test")
	if err != nil {
		t.Fatalf("CreateRenderTarget() error = %v", err)
	}
	return rt.(*Target)
}

func quad(w, h float64) []geom.Point {
	return []geom.Point{
		{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h},
		{X: 0, Y: 0}, {X: w, Y: h}, {X: 0, Y: h},
	}
}

func unitUVs() []geom.Point {
	return []geom.Point{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1},
		{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
	}
}

func TestNewWithDeviceRejectsNil(t *testing.T) {
	if _, err := NewWithDevice(nil, nil); !errors.Is(err, ErrNoAdapter) {
		t.Errorf("NewWithDevice(nil, nil) error = %v, want ErrNoAdapter", err)
	}
}

func TestNewContextFromProviderRejectsPlainProvider(t *testing.T) {
	if _, err := NewContextFromProvider(nil); !errors.Is(err, ErrNotHALProvider) {
		t.Errorf("NewContextFromProvider(nil) error = %v, want ErrNotHALProvider", err)
	}
}

func TestCapabilities(t *testing.T) {
	ctx := newTestContext(t)
	caps := ctx.Capabilities()
	if caps.SupportsFramebufferFetch {
		t.Error("SupportsFramebufferFetch = true, want false")
	}
	want := int(gputypes.DefaultLimits().MaxTextureDimension2D)
	if caps.MaxAttachmentSize != (geom.ISize{W: want, H: want}) {
		t.Errorf("MaxAttachmentSize = %v, want %dx%d", caps.MaxAttachmentSize, want, want)
	}
}

func TestCreateRenderTargetErrors(t *testing.T) {
	ctx := newTestContext(t)
	limit := ctx.Capabilities().MaxAttachmentSize
	tests := []struct {
		name string
		size geom.ISize
		want error
	}{
		{"empty", geom.ISize{}, ErrEmptySize},
		{"negative", geom.ISize{W: -1, H: 4}, ErrEmptySize},
		{"too wide", geom.ISize{W: limit.W + 1, H: 4}, ErrTargetTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ctx.CreateRenderTarget(tt.size, tt.name); !errors.Is(err, tt.want) {
				t.Errorf("CreateRenderTarget(%v) error = %v, want %v", tt.size, err, tt.want)
			}
		})
	}
}

func TestTargetRefCountingRecycles(t *testing.T) {
	ctx := newTestContext(t)
	a := newTarget(t, ctx, 8, 8)
	a.Retain()
	a.Release()
	if got := ctx.Stats().LiveTargets; got != 1 {
		t.Fatalf("LiveTargets = %d, want 1", got)
	}
	a.Release()
	if got := ctx.Stats().LiveTargets; got != 0 {
		t.Fatalf("LiveTargets = %d after release, want 0", got)
	}
	b := newTarget(t, ctx, 8, 8)
	defer b.Release()
	if b.att != a.att {
		t.Error("released attachments were not reused for a target of the same size")
	}
	if hits := ctx.Stats().Pool.Hits; hits != 1 {
		t.Errorf("Pool.Hits = %d, want 1", hits)
	}
}

func TestEncodeDrawsAndRetiresResources(t *testing.T) {
	ctx := newTestContext(t)
	target := newTarget(t, ctx, 16, 16)
	defer target.Release()
	before := ctx.Stats().Submissions

	rp, err := ctx.BeginPass(target, blend.Transparent)
	if err != nil {
		t.Fatalf("BeginPass() error = %v", err)
	}
	if err := rp.BindPipeline(compositor.PipelineDescriptor{Shader: compositor.ShaderSolid, Blend: blend.ModeSourceOver}); err != nil {
		t.Fatalf("BindPipeline() error = %v", err)
	}
	rp.BindUniforms(compositor.Uniforms{Color: blend.Color{R: 1, A: 1}, Depth: 1})
	if err := rp.Draw(quad(16, 16), nil); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if err := rp.Draw(quad(8, 8), nil); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if err := rp.Encode(); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if err := rp.Encode(); !errors.Is(err, ErrPassEnded) {
		t.Errorf("second Encode() error = %v, want ErrPassEnded", err)
	}

	st := ctx.Stats()
	if st.Submissions != before+1 {
		t.Errorf("Submissions = %d, want %d", st.Submissions, before+1)
	}
	if st.Draws != 2 {
		t.Errorf("Draws = %d, want 2", st.Draws)
	}
	if st.Pipelines != 1 {
		t.Errorf("Pipelines = %d, want 1", st.Pipelines)
	}
	// The noop queue completes submissions at once, so the per-draw
	// buffers and bind groups are gone by the time Encode returns.
	if st.Retiring != 0 || st.Handles != 0 {
		t.Errorf("Retiring = %d, Handles = %d, want 0 and 0", st.Retiring, st.Handles)
	}
	if target.Refs() != 1 {
		t.Errorf("target refs = %d after Encode, want 1", target.Refs())
	}
}

func TestDrawValidation(t *testing.T) {
	ctx := newTestContext(t)
	target := newTarget(t, ctx, 4, 4)
	defer target.Release()
	rp, err := ctx.BeginPass(target, blend.Transparent)
	if err != nil {
		t.Fatalf("BeginPass() error = %v", err)
	}
	defer func() { _ = rp.Encode() }()

	if err := rp.Draw(quad(4, 4), nil); !errors.Is(err, ErrNoPipeline) {
		t.Errorf("Draw() before BindPipeline error = %v, want ErrNoPipeline", err)
	}
	if err := rp.BindPipeline(compositor.PipelineDescriptor{Shader: compositor.ShaderTexture, Blend: blend.ModeSourceOver}); err != nil {
		t.Fatalf("BindPipeline() error = %v", err)
	}
	if err := rp.Draw(quad(4, 4), unitUVs()); !errors.Is(err, ErrMissingTexture) {
		t.Errorf("Draw() without texture error = %v, want ErrMissingTexture", err)
	}
	rp.BindTexture(0, target.ColorTexture(), compositor.SamplingLinear)
	if err := rp.Draw(quad(4, 4), unitUVs()); !errors.Is(err, ErrUnsupportedPipeline) {
		t.Errorf("Draw() sampling its own target error = %v, want ErrUnsupportedPipeline", err)
	}
	if err := rp.Draw(quad(4, 4)[:4], nil); !errors.Is(err, ErrVertexCount) {
		t.Errorf("Draw() with 4 vertices error = %v, want ErrVertexCount", err)
	}
}

func TestBindPipelineRejectsUnsupported(t *testing.T) {
	ctx := newTestContext(t)
	target := newTarget(t, ctx, 4, 4)
	defer target.Release()
	rp, err := ctx.BeginPass(target, blend.Transparent)
	if err != nil {
		t.Fatalf("BeginPass() error = %v", err)
	}
	defer func() { _ = rp.Encode() }()

	tests := []compositor.PipelineDescriptor{
		{Shader: compositor.ShaderFramebufferBlend, Blend: blend.ModeSource},
		{Shader: compositor.ShaderSolid, Blend: blend.ModeMultiply},
	}
	for _, desc := range tests {
		if err := rp.BindPipeline(desc); !errors.Is(err, ErrUnsupportedPipeline) {
			t.Errorf("BindPipeline(%s) error = %v, want ErrUnsupportedPipeline", desc, err)
		}
	}
	// Color writes off: the blend mode is irrelevant.
	desc := compositor.PipelineDescriptor{
		Shader:  compositor.ShaderSolid,
		Blend:   blend.ModeMultiply,
		Stencil: compositor.StencilNonZeroWrite,
		NoColor: true,
	}
	if err := rp.BindPipeline(desc); err != nil {
		t.Errorf("BindPipeline(%s) error = %v", desc, err)
	}
}

func TestAdvancedBlendPass(t *testing.T) {
	ctx := newTestContext(t)
	backdrop, err := ctx.CreateTextureFromImage(image.NewRGBA(image.Rect(0, 0, 8, 8)), "backdrop")
	if err != nil {
		t.Fatalf("CreateTextureFromImage() error = %v", err)
	}
	target := newTarget(t, ctx, 8, 8)
	defer target.Release()

	rp, err := ctx.BeginPass(target, blend.Transparent)
	if err != nil {
		t.Fatalf("BeginPass() error = %v", err)
	}
	if err := rp.BindPipeline(compositor.PipelineDescriptor{Shader: compositor.ShaderAdvancedBlend, Blend: blend.ModeSource}); err != nil {
		t.Fatalf("BindPipeline() error = %v", err)
	}
	rp.BindUniforms(compositor.Uniforms{Color: blend.Color{G: 1, A: 1}, Mode: blend.ModeScreen, SourceIsColor: true})
	rp.BindTexture(1, backdrop, compositor.SamplingNearest)
	if err := rp.Draw(quad(8, 8), nil); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if err := rp.Encode(); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
}

func TestCreateTextureFromImage(t *testing.T) {
	ctx := newTestContext(t)
	img := image.NewNRGBA(image.Rect(2, 3, 7, 5))
	img.Set(2, 3, color.NRGBA{R: 255, A: 128})
	tex, err := ctx.CreateTextureFromImage(img, "photo")
	if err != nil {
		t.Fatalf("CreateTextureFromImage() error = %v", err)
	}
	if tex.Size() != (geom.ISize{W: 5, H: 2}) {
		t.Errorf("Size() = %v, want 5x2", tex.Size())
	}
	if tex.Label() != "photo" {
		t.Errorf("Label() = %q, want photo", tex.Label())
	}
	if _, err := ctx.CreateTextureFromImage(image.NewRGBA(image.Rectangle{}), "empty"); !errors.Is(err, ErrEmptySize) {
		t.Errorf("CreateTextureFromImage(empty) error = %v, want ErrEmptySize", err)
	}

	tex.(*Texture).Destroy()
	if _, err := ctx.ReadPixels(tex); err == nil {
		t.Error("ReadPixels() of a destroyed texture succeeded")
	}
}

func TestReadPixelsSize(t *testing.T) {
	ctx := newTestContext(t)
	target := newTarget(t, ctx, 70, 3)
	defer target.Release()
	img, err := ctx.ReadPixels(target.ColorTexture())
	if err != nil {
		t.Fatalf("ReadPixels() error = %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 70, 3) {
		t.Errorf("bounds = %v, want 70x3", img.Bounds())
	}
}

func TestBlit(t *testing.T) {
	ctx := newTestContext(t)
	src := newTarget(t, ctx, 8, 8)
	defer src.Release()
	dst := newTarget(t, ctx, 4, 4)
	defer dst.Release()
	if err := ctx.Blit(src.ColorTexture(), dst.ColorTexture()); err != nil {
		t.Errorf("Blit() error = %v", err)
	}
	other := newTestContext(t)
	foreign := newTarget(t, other, 4, 4)
	defer foreign.Release()
	if err := ctx.Blit(src.ColorTexture(), foreign.ColorTexture()); !errors.Is(err, ErrForeignResource) {
		t.Errorf("Blit() to foreign texture error = %v, want ErrForeignResource", err)
	}
}

func TestBeginPassForeignTarget(t *testing.T) {
	a := newTestContext(t)
	b := newTestContext(t)
	target := newTarget(t, b, 4, 4)
	defer target.Release()
	if _, err := a.BeginPass(target, blend.Transparent); !errors.Is(err, ErrForeignResource) {
		t.Errorf("BeginPass() error = %v, want ErrForeignResource", err)
	}
}

func TestPoolLimitZeroEvicts(t *testing.T) {
	ctx := newTestContext(t, WithPoolLimit(0))
	newTarget(t, ctx, 4, 4).Release()
	st := ctx.Stats()
	if st.Pool.Idle != 0 || st.Pool.Evictions != 1 {
		t.Errorf("Pool = %+v, want nothing idle and one eviction", st.Pool)
	}
	if err := ctx.Trim(); err != nil {
		t.Fatalf("Trim() error = %v", err)
	}
	if got := ctx.Stats().Handles; got != 0 {
		t.Errorf("Handles = %d after Trim, want 0", got)
	}
}

func TestMultisampledTargets(t *testing.T) {
	ctx := newTestContext(t, WithSampleCount(4))
	target := newTarget(t, ctx, 4, 4)
	defer target.Release()
	if target.att.msaa == nil || target.att.resolveView() == nil {
		t.Fatal("4x context created single-sampled attachments")
	}
	rp, err := ctx.BeginPass(target, blend.Color{A: 1})
	if err != nil {
		t.Fatalf("BeginPass() error = %v", err)
	}
	if err := rp.Encode(); err != nil {
		t.Errorf("Encode() error = %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	dev, queue := createNoopDevice(t)
	ctx, err := NewWithDevice(dev, queue)
	if err != nil {
		t.Fatalf("NewWithDevice() error = %v", err)
	}
	target := newTarget(t, ctx, 4, 4)
	target.Release()
	if err := ctx.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := ctx.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := ctx.CreateRenderTarget(geom.ISize{W: 1, H: 1}, "late"); !errors.Is(err, ErrClosed) {
		t.Errorf("CreateRenderTarget() after Close error = %v, want ErrClosed", err)
	}
	if got := ctx.Stats().Handles; got != 0 {
		t.Errorf("Handles = %d after Close, want 0", got)
	}
}

func TestGPUInfoString(t *testing.T) {
	info := GPUInfo{Name: "Test GPU", DeviceType: gputypes.DeviceTypeDiscreteGPU, Backend: gputypes.BackendVulkan}
	if got := info.String(); got == "" || got[:8] != "Test GPU" {
		t.Errorf("String() = %q", got)
	}
}
