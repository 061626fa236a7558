package compositor

import (
	"fmt"
	"image"

	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
)

// MaxDepth is the largest depth a draw can be stamped with. Depth values map
// to [0, 1] by dividing by MaxDepth, which float32 represents exactly.
const MaxDepth uint32 = 1<<24 - 1

// Texture is a sampled image owned by a backend.
type Texture interface {
	Size() geom.ISize
	Label() string
}

// RenderTarget is a color attachment with its depth and stencil buffers.
//
// Targets are reference counted. CreateRenderTarget returns a target with one
// reference; Release drops it and the backend recycles the storage once the
// count reaches zero.
type RenderTarget interface {
	Size() geom.ISize
	ColorTexture() Texture
	Retain()
	Release()
}

// Capabilities describes what a backend can do natively.
type Capabilities struct {
	// SupportsFramebufferFetch reports whether fragment shaders can read the
	// destination pixel, which lets advanced blends skip backdrop capture.
	SupportsFramebufferFetch bool
	// MaxAttachmentSize bounds offscreen targets. Zero means unlimited.
	MaxAttachmentSize geom.ISize
}

// Context is the device-level capability the canvas renders through.
// Implementations must be safe for use by several canvases at once.
type Context interface {
	Capabilities() Capabilities
	// CreateRenderTarget allocates an offscreen target cleared to nothing.
	CreateRenderTarget(size geom.ISize, label string) (RenderTarget, error)
	// BeginPass opens a pass on target. The color attachment is cleared to
	// clear (premultiplied), depth to 0 and stencil to 0.
	BeginPass(target RenderTarget, clear blend.Color) (RenderPass, error)
	// Blit copies src onto dst at the origin.
	Blit(src, dst Texture) error
	// CreateTextureFromImage uploads an image.
	CreateTextureFromImage(img image.Image, label string) (Texture, error)
}

// RenderPass records draws into one render target. Vertices are given in
// target pixels; Encode submits the pass and invalidates it.
type RenderPass interface {
	Target() RenderTarget
	SetViewport(r geom.Rect)
	SetScissor(r geom.IRect)
	BindPipeline(desc PipelineDescriptor) error
	BindUniforms(u Uniforms)
	BindTexture(slot int, tex Texture, sampling Sampling)
	// Draw rasterizes a triangle list. uvs is nil or has one entry per
	// vertex, in normalized texture coordinates.
	Draw(vertices, uvs []geom.Point) error
	Encode() error
}

// Shader selects the fragment program of a pipeline.
type Shader uint8

const (
	// ShaderSolid outputs Uniforms.Color.
	ShaderSolid Shader = iota
	// ShaderTexture samples slot 0, applies the optional color filter and
	// multiplies by Uniforms.Alpha.
	ShaderTexture
	// ShaderMask outputs Uniforms.Color scaled by the alpha of slot 0.
	ShaderMask
	// ShaderBlur is one direction of a separable gaussian over slot 0.
	ShaderBlur
	// ShaderAdvancedBlend blends the source (slot 0, or Uniforms.Color when
	// SourceIsColor) over the destination read from slot 1 at the fragment
	// position, using Uniforms.Mode.
	ShaderAdvancedBlend
	// ShaderFramebufferBlend blends the source (slot 0, or Uniforms.Color
	// when SourceIsColor) over the current destination pixel using
	// Uniforms.Mode. It requires framebuffer fetch.
	ShaderFramebufferBlend
)

var shaderNames = [...]string{"Solid", "Texture", "Mask", "Blur", "AdvancedBlend", "FramebufferBlend"}

// String returns the string representation of Shader.
func (s Shader) String() string {
	if int(s) < len(shaderNames) {
		return shaderNames[s]
	}
	return fmt.Sprintf("Shader(%d)", int(s))
}

// DepthMode is the depth test configuration of a pipeline.
type DepthMode uint8

const (
	// DepthTest passes where the draw depth is greater than the stored
	// depth and never writes.
	DepthTest DepthMode = iota
	// DepthAlways disables the depth test.
	DepthAlways
	// DepthWriteMax passes where the draw depth is greater than the stored
	// depth and writes it, leaving max(stored, depth) behind.
	DepthWriteMax
)

// String returns the string representation of DepthMode.
func (d DepthMode) String() string {
	switch d {
	case DepthTest:
		return "Test"
	case DepthAlways:
		return "Always"
	case DepthWriteMax:
		return "WriteMax"
	default:
		return fmt.Sprintf("DepthMode(%d)", int(d))
	}
}

// StencilMode is the stencil configuration of a pipeline.
type StencilMode uint8

const (
	// StencilNone leaves the stencil buffer alone.
	StencilNone StencilMode = iota
	// StencilNonZeroWrite increments for counter-clockwise triangles and
	// decrements for clockwise ones, wrapping.
	StencilNonZeroWrite
	// StencilEvenOddWrite inverts the stencil value.
	StencilEvenOddWrite
	// StencilCoverNotEqual passes where the stencil is non-zero.
	StencilCoverNotEqual
	// StencilCoverEqual passes where the stencil is zero.
	StencilCoverEqual
)

// String returns the string representation of StencilMode.
func (s StencilMode) String() string {
	switch s {
	case StencilNone:
		return "None"
	case StencilNonZeroWrite:
		return "NonZeroWrite"
	case StencilEvenOddWrite:
		return "EvenOddWrite"
	case StencilCoverNotEqual:
		return "CoverNotEqual"
	case StencilCoverEqual:
		return "CoverEqual"
	default:
		return fmt.Sprintf("StencilMode(%d)", int(s))
	}
}

// IsCover reports whether the mode tests the stencil. Cover modes reset the
// stencil to zero on every pixel they touch.
func (s StencilMode) IsCover() bool {
	return s == StencilCoverNotEqual || s == StencilCoverEqual
}

// PipelineDescriptor is the fixed-function state of a draw.
type PipelineDescriptor struct {
	Shader  Shader
	Blend   blend.Mode
	Depth   DepthMode
	Stencil StencilMode
	// NoColor disables color writes.
	NoColor bool
}

// String returns a compact description used in pass plans.
func (d PipelineDescriptor) String() string {
	s := fmt.Sprintf("%s/%s/depth=%s", d.Shader, d.Blend, d.Depth)
	if d.Stencil != StencilNone {
		s += "/stencil=" + d.Stencil.String()
	}
	if d.NoColor {
		s += "/nocolor"
	}
	return s
}

// Uniforms are the per-draw shader inputs.
type Uniforms struct {
	// Depth is the draw depth in [0, MaxDepth].
	Depth uint32
	// Color is premultiplied.
	Color blend.Color
	// Alpha scales texture output.
	Alpha float32
	// ColorMatrix is a row-major 4x5 matrix over straight-alpha RGBA, used
	// when HasColorMatrix is set.
	ColorMatrix    [20]float32
	HasColorMatrix bool
	// FilterColor is blended over texture output with FilterBlend when
	// HasFilterColor is set. It has straight alpha.
	FilterColor    blend.Color
	FilterBlend    blend.Mode
	HasFilterColor bool
	// Mode is the advanced blend mode.
	Mode blend.Mode
	// SourceIsColor makes the blending shaders use Color as the source.
	SourceIsColor bool
	// BlurDirection is the unit step in texels; BlurSigma is in texels.
	BlurDirection geom.Point
	BlurSigma     float32
}

// FilterMode is a texture minification and magnification filter.
type FilterMode uint8

const (
	FilterNearest FilterMode = iota
	FilterLinear
)

// AddressMode selects how out-of-range texture coordinates are sampled.
type AddressMode uint8

const (
	AddressClamp AddressMode = iota
	AddressRepeat
	// AddressDecal samples transparent black outside the texture.
	AddressDecal
)

// Sampling is a texture sampler configuration.
type Sampling struct {
	Filter  FilterMode
	Address AddressMode
}

// Common sampler configurations.
var (
	SamplingNearest = Sampling{Filter: FilterNearest, Address: AddressClamp}
	SamplingLinear  = Sampling{Filter: FilterLinear, Address: AddressClamp}
	SamplingDecal   = Sampling{Filter: FilterLinear, Address: AddressDecal}
)
