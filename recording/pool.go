package recording

import (
	"image"

	"github.com/gogpu/compositor/geom"
)

// TargetInfo describes a recorded render target.
type TargetInfo struct {
	Size  geom.ISize
	Label string
	// Color is the texture of the target's color attachment.
	Color TextureRef
	// External is set for targets that were not allocated through the
	// Recorder, such as the root target of a canvas.
	External bool
}

// TextureInfo describes a recorded texture.
type TextureInfo struct {
	Size  geom.ISize
	Label string
	// Target is the owning target of a color texture, or InvalidRef.
	Target TargetRef
	// Image holds the pixels of an uploaded texture.
	Image image.Image
}

// External reports whether the texture's pixels are unknown to the
// recording.
func (t TextureInfo) External() bool {
	return !t.Target.IsValid() && t.Image == nil
}

// ResourcePool stores the targets and textures referenced by commands.
//
// ResourcePool is not safe for concurrent use; the Recorder guards it.
type ResourcePool struct {
	targets  []TargetInfo
	textures []TextureInfo
}

// NewResourcePool creates an empty resource pool.
func NewResourcePool() *ResourcePool {
	return &ResourcePool{
		targets:  make([]TargetInfo, 0, 16),
		textures: make([]TextureInfo, 0, 16),
	}
}

// AddTarget adds a target with its color texture and returns the target
// reference.
func (p *ResourcePool) AddTarget(size geom.ISize, label string, external bool) TargetRef {
	// #nosec G115 -- pool size is bounded by available memory, well under uint32 max
	ref := TargetRef(uint32(len(p.targets)))
	color := p.addTexture(TextureInfo{Size: size, Label: label, Target: ref})
	p.targets = append(p.targets, TargetInfo{Size: size, Label: label, Color: color, External: external})
	return ref
}

// AddImage adds an uploaded image and returns its reference.
func (p *ResourcePool) AddImage(img image.Image, size geom.ISize, label string) TextureRef {
	return p.addTexture(TextureInfo{Size: size, Label: label, Target: TargetRef(InvalidRef), Image: img})
}

// AddExternalTexture adds a texture whose pixels are unknown.
func (p *ResourcePool) AddExternalTexture(size geom.ISize, label string) TextureRef {
	return p.addTexture(TextureInfo{Size: size, Label: label, Target: TargetRef(InvalidRef)})
}

func (p *ResourcePool) addTexture(t TextureInfo) TextureRef {
	p.textures = append(p.textures, t)
	// #nosec G115 -- pool size is bounded by available memory, well under uint32 max
	return TextureRef(uint32(len(p.textures) - 1))
}

// Target returns the target for ref.
func (p *ResourcePool) Target(ref TargetRef) (TargetInfo, bool) {
	if int(ref) >= len(p.targets) {
		return TargetInfo{}, false
	}
	return p.targets[ref], true
}

// Texture returns the texture for ref.
func (p *ResourcePool) Texture(ref TextureRef) (TextureInfo, bool) {
	if int(ref) >= len(p.textures) {
		return TextureInfo{}, false
	}
	return p.textures[ref], true
}

// TargetCount returns the number of targets in the pool.
func (p *ResourcePool) TargetCount() int { return len(p.targets) }

// TextureCount returns the number of textures in the pool.
func (p *ResourcePool) TextureCount() int { return len(p.textures) }

// Clone returns a copy of the pool. Images are shared, which is safe because
// the Recorder copies them on upload.
func (p *ResourcePool) Clone() *ResourcePool {
	return &ResourcePool{
		targets:  append([]TargetInfo(nil), p.targets...),
		textures: append([]TextureInfo(nil), p.textures...),
	}
}
