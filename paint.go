package compositor

import (
	"fmt"

	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/geometry"
)

// Style selects whether shapes are filled or stroked.
type Style uint8

const (
	// StyleFill fills the interior of shapes.
	StyleFill Style = iota
	// StyleStroke strokes the outline of shapes.
	StyleStroke
)

// String returns the string representation of Style.
func (s Style) String() string {
	switch s {
	case StyleFill:
		return "Fill"
	case StyleStroke:
		return "Stroke"
	default:
		return fmt.Sprintf("Style(%d)", int(s))
	}
}

// BlurStyle selects how a mask blur combines with the sharp shape.
type BlurStyle uint8

const (
	// BlurNormal blurs inside and outside the shape.
	BlurNormal BlurStyle = iota
	// BlurSolid draws the sharp shape on top of the blur.
	BlurSolid
	// BlurOuter keeps only the blur outside the shape.
	BlurOuter
	// BlurInner keeps only the blur inside the shape.
	BlurInner
)

// String returns the string representation of BlurStyle.
func (s BlurStyle) String() string {
	switch s {
	case BlurNormal:
		return "Normal"
	case BlurSolid:
		return "Solid"
	case BlurOuter:
		return "Outer"
	case BlurInner:
		return "Inner"
	default:
		return fmt.Sprintf("BlurStyle(%d)", int(s))
	}
}

// MaskBlur blurs the coverage of a shape before it is colored.
type MaskBlur struct {
	Style BlurStyle
	// Sigma is the gaussian standard deviation in local units.
	Sigma float64
}

// ImageSource fills shapes with a texture instead of a solid color.
type ImageSource struct {
	Texture  Texture
	Sampling Sampling
	// Matrix maps image pixels into local coordinates.
	Matrix geom.Matrix
}

// Paint describes how a draw is colored and composited.
//
// The zero BlendMode is blend.ModeClear; use NewPaint for the usual
// source-over defaults.
type Paint struct {
	// Color has straight alpha. Its alpha also scales image and layer
	// draws.
	Color     blend.Color
	BlendMode blend.Mode
	Style     Style

	// StrokeWidth of 0 draws a one device pixel hairline.
	StrokeWidth float64
	StrokeMiter float64
	StrokeCap   geometry.LineCap
	StrokeJoin  geometry.LineJoin

	// Source, when set, replaces Color for shape fills. Color's alpha still
	// applies.
	Source *ImageSource

	ColorFilter ColorFilter
	ImageFilter ImageFilter
	MaskBlur    *MaskBlur
}

// NewPaint returns an opaque black source-over fill.
func NewPaint() Paint {
	return Paint{
		Color:       blend.Black,
		BlendMode:   blend.ModeSourceOver,
		Style:       StyleFill,
		StrokeMiter: 4,
		StrokeCap:   geometry.LineCapButt,
		StrokeJoin:  geometry.LineJoinMiter,
	}
}

// NewColorPaint returns a source-over fill with the given color.
func NewColorPaint(c blend.Color) Paint {
	p := NewPaint()
	p.Color = c
	return p
}

// CanApplyOpacityPeephole reports whether a layer drawn with this paint may
// be replaced by distributing its alpha to the layer's children.
func (p *Paint) CanApplyOpacityPeephole() bool {
	return p.BlendMode == blend.ModeSourceOver &&
		p.ColorFilter == nil &&
		p.ImageFilter == nil &&
		p.MaskBlur == nil
}

// HasColorFilter reports whether a color filter is set.
func (p *Paint) HasColorFilter() bool {
	return p.ColorFilter != nil
}

// filteredColor returns the paint color with the color filter applied on
// the CPU.
func (p *Paint) filteredColor() blend.Color {
	if p.ColorFilter == nil {
		return p.Color
	}
	return p.ColorFilter.filterColor(p.Color)
}

// strokeStyle returns the stroke parameters of the paint.
func (p *Paint) strokeStyle() geometry.StrokeStyle {
	return geometry.StrokeStyle{
		Width:      p.StrokeWidth,
		Cap:        p.StrokeCap,
		Join:       p.StrokeJoin,
		MiterLimit: p.StrokeMiter,
	}
}

// withFilters wraps contents with the paint's color filter and image
// filter, in that order. Contents that can apply the color filter
// themselves absorb it.
func (p *Paint) withFilters(c Contents) Contents {
	if p.ColorFilter != nil {
		if a, ok := c.(colorFilterApplier); !ok || !a.applyColorFilter(p.ColorFilter) {
			c = newFilterContents(c, NewColorFilterImageFilter(p.ColorFilter))
		}
	}
	if p.ImageFilter != nil {
		c = newFilterContents(c, p.ImageFilter)
	}
	return c
}

// withFiltersForSubpass wraps the contents of a finished layer. effect maps
// the layer's local space into the pass the layer is composited into.
func (p *Paint) withFiltersForSubpass(c Contents, effect geom.Matrix) Contents {
	if p.ColorFilter != nil {
		c = newFilterContents(c, NewColorFilterImageFilter(p.ColorFilter))
	}
	if p.ImageFilter != nil {
		fc := newFilterContents(c, p.ImageFilter)
		fc.setEffect(effect, RenderingSubpassAppend)
		c = fc
	}
	return c
}
