package recording

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/image/draw"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
)

// ErrPassEnded is returned when a recorded pass is used after Encode.
var ErrPassEnded = errors.New("recording: pass already encoded")

// Recorder is a compositor.Context that forwards every call to a wrapped
// context and records it.
//
// Example:
//
//	rec := recording.NewRecorder(ctx)
//	canvas, err := compositor.NewCanvas(rec, target)
//	// ... draw ...
//	err = canvas.EndReplay()
//	plan := rec.Finish()
//
// Targets and textures returned by the Recorder are those of the wrapped
// context, so backend specific calls such as ReadPixels keep working on
// them. Recorder is safe for concurrent use; each pass must be driven by
// one goroutine.
type Recorder struct {
	inner compositor.Context
	log   *slog.Logger

	mu        sync.Mutex
	commands  []Command
	resources *ResourcePool
	targets   map[compositor.RenderTarget]TargetRef
	textures  map[compositor.Texture]TextureRef
	passes    int
	open      int
	// gen counts Finish calls; passes begun before one are dropped.
	gen int
}

var _ compositor.Context = (*Recorder)(nil)

// NewRecorder creates a Recorder over inner.
func NewRecorder(inner compositor.Context) *Recorder {
	r := &Recorder{inner: inner, log: compositor.Logger()}
	r.reset()
	return r
}

func (r *Recorder) reset() {
	r.commands = make([]Command, 0, 64)
	r.resources = NewResourcePool()
	r.targets = make(map[compositor.RenderTarget]TargetRef)
	r.textures = make(map[compositor.Texture]TextureRef)
	r.passes = 0
	r.gen++
}

// Inner returns the wrapped context.
func (r *Recorder) Inner() compositor.Context { return r.inner }

// Capabilities implements compositor.Context.
func (r *Recorder) Capabilities() compositor.Capabilities { return r.inner.Capabilities() }

// CreateRenderTarget implements compositor.Context.
func (r *Recorder) CreateRenderTarget(size geom.ISize, label string) (compositor.RenderTarget, error) {
	t, err := r.inner.CreateRenderTarget(size, label)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ref := r.resources.AddTarget(t.Size(), label, false)
	r.bindTarget(t, ref)
	r.commands = append(r.commands, CreateTarget{Target: ref, Size: t.Size(), Label: label})
	return t, nil
}

// bindTarget maps t and its color texture to ref. Backends may hand out a
// recycled object again, so a later allocation replaces the mapping.
func (r *Recorder) bindTarget(t compositor.RenderTarget, ref TargetRef) {
	r.targets[t] = ref
	info, _ := r.resources.Target(ref)
	if tex := t.ColorTexture(); tex != nil {
		r.textures[tex] = info.Color
	}
}

// targetRef returns the reference of t, adding it as external when it was
// not created through the Recorder. Callers hold r.mu.
func (r *Recorder) targetRef(t compositor.RenderTarget) TargetRef {
	if ref, ok := r.targets[t]; ok {
		return ref
	}
	label := "external"
	if tex := t.ColorTexture(); tex != nil && tex.Label() != "" {
		label = tex.Label()
	}
	ref := r.resources.AddTarget(t.Size(), label, true)
	r.bindTarget(t, ref)
	return ref
}

// textureRef returns the reference of tex, adding it as external when it is
// unknown. Callers hold r.mu.
func (r *Recorder) textureRef(tex compositor.Texture) TextureRef {
	if tex == nil {
		return TextureRef(InvalidRef)
	}
	if ref, ok := r.textures[tex]; ok {
		return ref
	}
	ref := r.resources.AddExternalTexture(tex.Size(), tex.Label())
	r.textures[tex] = ref
	r.log.Warn("recording: texture created outside the recorder", "label", tex.Label())
	return ref
}

// BeginPass implements compositor.Context.
func (r *Recorder) BeginPass(target compositor.RenderTarget, clear blend.Color) (compositor.RenderPass, error) {
	pass, err := r.inner.BeginPass(target, clear)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := &recordedPass{
		rec:   r,
		inner: pass,
		gen:   r.gen,
		pass:  &Pass{Index: r.passes, Target: r.targetRef(target), Clear: clear},
	}
	r.passes++
	r.open++
	return rec, nil
}

// Blit implements compositor.Context.
func (r *Recorder) Blit(src, dst compositor.Texture) error {
	if err := r.inner.Blit(src, dst); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, Blit{Src: r.textureRef(src), Dst: r.textureRef(dst)})
	return nil
}

// CreateTextureFromImage implements compositor.Context. The image is copied
// so that playback sees the pixels of the upload.
func (r *Recorder) CreateTextureFromImage(img image.Image, label string) (compositor.Texture, error) {
	tex, err := r.inner.CreateTextureFromImage(img, label)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	cp := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(cp, cp.Bounds(), img, b.Min, draw.Src)

	r.mu.Lock()
	defer r.mu.Unlock()
	ref := r.resources.AddImage(cp, tex.Size(), label)
	r.textures[tex] = ref
	r.commands = append(r.commands, UploadTexture{Texture: ref, Size: tex.Size(), Label: label})
	return tex, nil
}

// Finish returns the recording so far and starts a new one. Passes still
// open are dropped from both.
func (r *Recorder) Finish() *Recording {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.open > 0 {
		r.log.Warn("recording: finish with open passes", "open", r.open)
	}
	out := &Recording{
		commands:  slices.Clone(r.commands),
		resources: r.resources.Clone(),
	}
	r.reset()
	return out
}

// finishPass appends an encoded pass in submission order.
func (r *Recorder) finishPass(p *Pass, gen int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open--
	if gen == r.gen {
		r.commands = append(r.commands, p)
	}
}

// recordedPass forwards to a backend pass and records its commands.
type recordedPass struct {
	rec   *Recorder
	inner compositor.RenderPass
	gen   int
	pass  *Pass
	ended bool
}

var _ compositor.RenderPass = (*recordedPass)(nil)

func (p *recordedPass) add(c Command) {
	if !p.ended {
		p.pass.Commands = append(p.pass.Commands, c)
	}
}

func (p *recordedPass) Target() compositor.RenderTarget { return p.inner.Target() }

func (p *recordedPass) SetViewport(r geom.Rect) {
	p.inner.SetViewport(r)
	p.add(SetViewport{Rect: r})
}

func (p *recordedPass) SetScissor(r geom.IRect) {
	p.inner.SetScissor(r)
	p.add(SetScissor{Rect: r})
}

func (p *recordedPass) BindPipeline(desc compositor.PipelineDescriptor) error {
	if err := p.inner.BindPipeline(desc); err != nil {
		return err
	}
	p.add(BindPipeline{Pipeline: desc})
	return nil
}

func (p *recordedPass) BindUniforms(u compositor.Uniforms) {
	p.inner.BindUniforms(u)
	p.add(BindUniforms{Uniforms: u})
}

func (p *recordedPass) BindTexture(slot int, tex compositor.Texture, sampling compositor.Sampling) {
	p.inner.BindTexture(slot, tex, sampling)
	p.rec.mu.Lock()
	ref := p.rec.textureRef(tex)
	p.rec.mu.Unlock()
	p.add(BindTexture{Slot: slot, Texture: ref, Sampling: sampling})
}

// Draw copies the vertices, which the canvas may reuse.
func (p *recordedPass) Draw(vertices, uvs []geom.Point) error {
	if err := p.inner.Draw(vertices, uvs); err != nil {
		return err
	}
	p.add(Draw{Vertices: slices.Clone(vertices), UVs: slices.Clone(uvs)})
	return nil
}

func (p *recordedPass) Encode() error {
	if p.ended {
		return fmt.Errorf("%w: pass %d", ErrPassEnded, p.pass.Index)
	}
	p.ended = true
	if err := p.inner.Encode(); err != nil {
		p.rec.finishPass(nil, -1)
		return err
	}
	p.rec.finishPass(p.pass, p.gen)
	return nil
}
