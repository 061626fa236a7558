package compositor

import (
	"math"

	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/internal/filter"
)

// ColorFilter transforms the color of every pixel independently.
//
// The set of color filters is closed; use NewBlendColorFilter or
// NewMatrixColorFilter.
type ColorFilter interface {
	// filterColor applies the filter to a straight-alpha color on the CPU.
	filterColor(c blend.Color) blend.Color
	// setUniforms configures a ShaderTexture draw to apply the filter.
	setUniforms(u *Uniforms)
}

// modifiesTransparentBlack reports whether the filter turns transparent
// pixels into visible ones, in which case a layer must flood its bounds.
func modifiesTransparentBlack(cf ColorFilter) bool {
	return cf != nil && !cf.filterColor(blend.Transparent).IsTransparent()
}

// BlendColorFilter blends a constant color over its input.
type BlendColorFilter struct {
	// Color has straight alpha.
	Color blend.Color
	Mode  blend.Mode
}

// NewBlendColorFilter returns a filter blending c over the input with mode.
func NewBlendColorFilter(c blend.Color, mode blend.Mode) *BlendColorFilter {
	return &BlendColorFilter{Color: c, Mode: mode}
}

func (f *BlendColorFilter) filterColor(c blend.Color) blend.Color {
	return c.Blend(f.Color, f.Mode)
}

func (f *BlendColorFilter) setUniforms(u *Uniforms) {
	u.FilterColor = f.Color
	u.FilterBlend = f.Mode
	u.HasFilterColor = true
}

// MatrixColorFilter multiplies straight-alpha colors by a 4x5 matrix.
type MatrixColorFilter struct {
	Matrix filter.ColorMatrix
}

// NewMatrixColorFilter returns a color matrix filter. The matrix is row
// major, with the fifth column holding offsets in [0, 1] units.
func NewMatrixColorFilter(m [20]float32) *MatrixColorFilter {
	return &MatrixColorFilter{Matrix: filter.ColorMatrix(m)}
}

// NewBrightnessColorFilter scales the color channels. 0 is black, 1 leaves
// colors unchanged.
func NewBrightnessColorFilter(factor float32) *MatrixColorFilter {
	return &MatrixColorFilter{Matrix: filter.Brightness(factor)}
}

// NewContrastColorFilter scales the color channels around mid-gray.
func NewContrastColorFilter(factor float32) *MatrixColorFilter {
	return &MatrixColorFilter{Matrix: filter.Contrast(factor)}
}

// NewSaturationColorFilter blends between luminance (0) and the color (1).
func NewSaturationColorFilter(factor float32) *MatrixColorFilter {
	return &MatrixColorFilter{Matrix: filter.Saturation(factor)}
}

// NewGrayscaleColorFilter converts colors to their luminance.
func NewGrayscaleColorFilter() *MatrixColorFilter {
	return &MatrixColorFilter{Matrix: filter.Grayscale()}
}

// NewSepiaColorFilter applies a sepia tone.
func NewSepiaColorFilter() *MatrixColorFilter {
	return &MatrixColorFilter{Matrix: filter.Sepia()}
}

// NewInvertColorFilter inverts the color channels and keeps alpha.
func NewInvertColorFilter() *MatrixColorFilter {
	return &MatrixColorFilter{Matrix: filter.Invert()}
}

// NewHueRotateColorFilter rotates hue by degrees.
func NewHueRotateColorFilter(degrees float32) *MatrixColorFilter {
	return &MatrixColorFilter{Matrix: filter.HueRotate(degrees)}
}

// NewOpacityColorFilter scales alpha.
func NewOpacityColorFilter(factor float32) *MatrixColorFilter {
	return &MatrixColorFilter{Matrix: filter.Opacity(factor)}
}

// Then returns a filter that applies f and then next.
func (f *MatrixColorFilter) Then(next *MatrixColorFilter) *MatrixColorFilter {
	return &MatrixColorFilter{Matrix: f.Matrix.Multiply(next.Matrix)}
}

func (f *MatrixColorFilter) filterColor(c blend.Color) blend.Color {
	r, g, b, a := f.Matrix.Apply(c.R, c.G, c.B, c.A)
	return blend.RGBA(r, g, b, a)
}

func (f *MatrixColorFilter) setUniforms(u *Uniforms) {
	u.ColorMatrix = [20]float32(f.Matrix)
	u.HasColorMatrix = true
}

// ImageFilter transforms a rendered image as a whole.
//
// Filters work in a local space that effect maps into the pass the result
// is drawn into. The set of image filters is closed.
type ImageFilter interface {
	// SourceCoverage returns the pass-space input area needed to produce
	// output. The second result is false when no input is needed.
	SourceCoverage(effect geom.Matrix, output geom.Rect) (geom.Rect, bool)
	// OutputCoverage returns the pass-space area affected by input.
	OutputCoverage(effect geom.Matrix, input geom.Rect) (geom.Rect, bool)

	apply(r *Renderer, in Snapshot, effect geom.Matrix) (Snapshot, error)
}

// BlurImageFilter is a separable gaussian blur.
type BlurImageFilter struct {
	// SigmaX and SigmaY are standard deviations in local units.
	SigmaX, SigmaY float64
}

// NewBlurImageFilter returns a gaussian blur filter.
func NewBlurImageFilter(sigmaX, sigmaY float64) *BlurImageFilter {
	return &BlurImageFilter{SigmaX: sigmaX, SigmaY: sigmaY}
}

// passSigma returns the blur radii in pass pixels.
func (f *BlurImageFilter) passSigma(effect geom.Matrix) geom.Point {
	sx := effect.TransformVector(geom.Pt(1, 0)).Length()
	sy := effect.TransformVector(geom.Pt(0, 1)).Length()
	return geom.Pt(math.Max(f.SigmaX, 0)*sx, math.Max(f.SigmaY, 0)*sy)
}

func (f *BlurImageFilter) outset(effect geom.Matrix) geom.Point {
	s := f.passSigma(effect)
	return geom.Pt(float64(filter.KernelRadius(s.X)), float64(filter.KernelRadius(s.Y)))
}

// SourceCoverage implements ImageFilter.
func (f *BlurImageFilter) SourceCoverage(effect geom.Matrix, output geom.Rect) (geom.Rect, bool) {
	if output.IsEmpty() {
		return geom.Rect{}, false
	}
	d := f.outset(effect)
	return geom.MakeLTRB(output.Left-d.X, output.Top-d.Y, output.Right+d.X, output.Bottom+d.Y), true
}

// OutputCoverage implements ImageFilter.
func (f *BlurImageFilter) OutputCoverage(effect geom.Matrix, input geom.Rect) (geom.Rect, bool) {
	return f.SourceCoverage(effect, input)
}

func (f *BlurImageFilter) apply(r *Renderer, in Snapshot, effect geom.Matrix) (Snapshot, error) {
	s := f.passSigma(effect)
	// Convert to texels of the input snapshot.
	tx := in.Transform.TransformVector(geom.Pt(1, 0)).Length()
	ty := in.Transform.TransformVector(geom.Pt(0, 1)).Length()
	if tx > 0 {
		s.X /= tx
	}
	if ty > 0 {
		s.Y /= ty
	}
	if s.X <= 0 && s.Y <= 0 {
		return in, nil
	}
	return r.blur(in, s)
}

// MatrixImageFilter transforms its input by a matrix in local space.
type MatrixImageFilter struct {
	Matrix   geom.Matrix
	Sampling Sampling
}

// NewMatrixImageFilter returns a filter transforming its input by m.
func NewMatrixImageFilter(m geom.Matrix, sampling Sampling) *MatrixImageFilter {
	return &MatrixImageFilter{Matrix: m, Sampling: sampling}
}

// passMatrix conjugates the filter matrix into pass space.
func (f *MatrixImageFilter) passMatrix(effect geom.Matrix) (geom.Matrix, bool) {
	inv, ok := effect.Invert()
	if !ok {
		return geom.Matrix{}, false
	}
	return effect.Multiply(f.Matrix).Multiply(inv), true
}

// SourceCoverage implements ImageFilter.
func (f *MatrixImageFilter) SourceCoverage(effect geom.Matrix, output geom.Rect) (geom.Rect, bool) {
	m, ok := f.passMatrix(effect)
	if !ok {
		return geom.Rect{}, false
	}
	inv, ok := m.Invert()
	if !ok {
		return geom.Rect{}, false
	}
	return output.TransformBounds(inv)
}

// OutputCoverage implements ImageFilter.
func (f *MatrixImageFilter) OutputCoverage(effect geom.Matrix, input geom.Rect) (geom.Rect, bool) {
	m, ok := f.passMatrix(effect)
	if !ok {
		return geom.Rect{}, false
	}
	return input.TransformBounds(m)
}

func (f *MatrixImageFilter) apply(_ *Renderer, in Snapshot, effect geom.Matrix) (Snapshot, error) {
	m, ok := f.passMatrix(effect)
	if !ok {
		return Snapshot{}, nil
	}
	in.Transform = m.Multiply(in.Transform)
	in.Sampling = f.Sampling
	return in, nil
}

// ColorFilterImageFilter applies a color filter to every pixel of its input.
type ColorFilterImageFilter struct {
	Filter ColorFilter
}

// NewColorFilterImageFilter wraps a color filter as an image filter.
func NewColorFilterImageFilter(cf ColorFilter) *ColorFilterImageFilter {
	return &ColorFilterImageFilter{Filter: cf}
}

// SourceCoverage implements ImageFilter.
func (f *ColorFilterImageFilter) SourceCoverage(_ geom.Matrix, output geom.Rect) (geom.Rect, bool) {
	return output, !output.IsEmpty()
}

// OutputCoverage implements ImageFilter.
func (f *ColorFilterImageFilter) OutputCoverage(_ geom.Matrix, input geom.Rect) (geom.Rect, bool) {
	return input, !input.IsEmpty()
}

func (f *ColorFilterImageFilter) apply(r *Renderer, in Snapshot, _ geom.Matrix) (Snapshot, error) {
	return r.colorFilter(in, f.Filter)
}

// ComposeImageFilter applies Inner and then Outer.
type ComposeImageFilter struct {
	Outer, Inner ImageFilter
}

// NewComposeImageFilter returns outer(inner(input)).
func NewComposeImageFilter(outer, inner ImageFilter) *ComposeImageFilter {
	return &ComposeImageFilter{Outer: outer, Inner: inner}
}

// SourceCoverage implements ImageFilter.
func (f *ComposeImageFilter) SourceCoverage(effect geom.Matrix, output geom.Rect) (geom.Rect, bool) {
	mid, ok := f.Outer.SourceCoverage(effect, output)
	if !ok {
		return geom.Rect{}, false
	}
	return f.Inner.SourceCoverage(effect, mid)
}

// OutputCoverage implements ImageFilter.
func (f *ComposeImageFilter) OutputCoverage(effect geom.Matrix, input geom.Rect) (geom.Rect, bool) {
	mid, ok := f.Inner.OutputCoverage(effect, input)
	if !ok {
		return geom.Rect{}, false
	}
	return f.Outer.OutputCoverage(effect, mid)
}

func (f *ComposeImageFilter) apply(r *Renderer, in Snapshot, effect geom.Matrix) (Snapshot, error) {
	mid, err := f.Inner.apply(r, in, effect)
	if err != nil || mid.Texture == nil {
		return mid, err
	}
	return f.Outer.apply(r, mid, effect)
}
