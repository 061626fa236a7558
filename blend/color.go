package blend

import (
	"fmt"
	"image/color"

	"github.com/chewxy/math32"
)

// Color is an RGBA color with float components in [0, 1]. Whether the
// components are premultiplied depends on context; methods state what they
// expect.
type Color struct {
	R, G, B, A float32
}

// Common colors (straight alpha, which equals premultiplied for these).
var (
	Transparent = Color{}
	Black       = Color{A: 1}
	White       = Color{R: 1, G: 1, B: 1, A: 1}
	Red         = Color{R: 1, A: 1}
	Green       = Color{G: 1, A: 1}
	Blue        = Color{B: 1, A: 1}
)

// RGBA creates a color from components.
func RGBA(r, g, b, a float32) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// Hex parses "#rrggbb" or "#rrggbbaa" into a straight-alpha color.
func Hex(s string) (Color, error) {
	var r, g, b, a uint8
	a = 0xff
	switch len(s) {
	case 7:
		if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
			return Color{}, fmt.Errorf("blend: parse color %q: %w", s, err)
		}
	case 9:
		if _, err := fmt.Sscanf(s, "#%02x%02x%02x%02x", &r, &g, &b, &a); err != nil {
			return Color{}, fmt.Errorf("blend: parse color %q: %w", s, err)
		}
	default:
		return Color{}, fmt.Errorf("blend: parse color %q: want #rrggbb or #rrggbbaa", s)
	}
	return Color{R: float32(r) / 255, G: float32(g) / 255, B: float32(b) / 255, A: float32(a) / 255}, nil
}

// Premultiply multiplies the color channels by alpha.
func (c Color) Premultiply() Color {
	return Color{R: c.R * c.A, G: c.G * c.A, B: c.B * c.A, A: c.A}
}

// Unpremultiply divides the color channels by alpha. A fully transparent
// color unpremultiplies to transparent black.
func (c Color) Unpremultiply() Color {
	if c.A == 0 {
		return Transparent
	}
	return Color{R: c.R / c.A, G: c.G / c.A, B: c.B / c.A, A: c.A}
}

// WithAlpha returns the color with alpha replaced.
func (c Color) WithAlpha(a float32) Color {
	c.A = a
	return c
}

// MultiplyAlpha scales the alpha of a straight-alpha color.
func (c Color) MultiplyAlpha(f float32) Color {
	c.A *= f
	return c
}

// Scale multiplies every component, which applies an opacity to a
// premultiplied color.
func (c Color) Scale(f float32) Color {
	return Color{R: c.R * f, G: c.G * f, B: c.B * f, A: c.A * f}
}

// IsOpaque reports whether alpha is 1.
func (c Color) IsOpaque() bool { return c.A >= 1 }

// IsTransparent reports whether alpha is 0.
func (c Color) IsTransparent() bool { return c.A <= 0 }

// Clamp limits every component to [0, 1].
func (c Color) Clamp() Color {
	return Color{R: clamp01(c.R), G: clamp01(c.G), B: clamp01(c.B), A: clamp01(c.A)}
}

// ToRGBA8 converts a premultiplied color to 8-bit premultiplied RGBA.
func (c Color) ToRGBA8() color.RGBA {
	c = c.Clamp()
	return color.RGBA{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: to8(c.A)}
}

// FromRGBA8 converts 8-bit premultiplied RGBA to a premultiplied color.
func FromRGBA8(c color.RGBA) Color {
	return Color{R: float32(c.R) / 255, G: float32(c.G) / 255, B: float32(c.B) / 255, A: float32(c.A) / 255}
}

// Blend composites src over the receiver using mode, where both colors and
// the result have straight alpha. The receiver is the destination.
func (c Color) Blend(src Color, mode Mode) Color {
	return Composite(src.Premultiply(), c.Premultiply(), mode).Unpremultiply()
}

// Composite blends a premultiplied source into a premultiplied destination
// and returns the premultiplied result.
func Composite(src, dst Color, mode Mode) Color {
	if f, ok := mode.PipelineFactors(); ok {
		return applyFactors(src, dst, f)
	}
	return advanced(src, dst, mode)
}

// applyFactors evaluates out = src*Src + dst*Dst per channel, clamped the way
// a unorm render target clamps.
func applyFactors(src, dst Color, f Factors) Color {
	ch := func(s, d float32) float32 {
		return clamp01(s*factor(f.Src, s, src.A, dst.A) + d*factor(f.Dst, s, src.A, dst.A))
	}
	return Color{R: ch(src.R, dst.R), G: ch(src.G, dst.G), B: ch(src.B, dst.B), A: ch(src.A, dst.A)}
}

func clamp01(v float32) float32 {
	return math32.Max(0, math32.Min(1, v))
}

func to8(v float32) uint8 {
	return uint8(math32.Round(v * 255))
}
