package blend

import "github.com/chewxy/math32"

// advanced blends premultiplied colors with a separable or non-separable
// mode using the W3C general formula:
//
//	Cr = (1 - Sa) * D + (1 - Da) * S + Sa * Da * B(Cs, Cd)
//	Ar = Sa + Da - Sa * Da
func advanced(src, dst Color, mode Mode) Color {
	if src.A == 0 {
		return dst
	}
	if dst.A == 0 {
		return src
	}
	s := src.Unpremultiply()
	d := dst.Unpremultiply()

	var r, g, b float32
	switch mode {
	case ModeHue:
		r, g, b = hslBlendHue(s.R, s.G, s.B, d.R, d.G, d.B)
	case ModeSaturation:
		r, g, b = hslBlendSaturation(s.R, s.G, s.B, d.R, d.G, d.B)
	case ModeColor:
		r, g, b = hslBlendColor(s.R, s.G, s.B, d.R, d.G, d.B)
	case ModeLuminosity:
		r, g, b = hslBlendLuminosity(s.R, s.G, s.B, d.R, d.G, d.B)
	default:
		fn := separableFunc(mode)
		r, g, b = fn(s.R, d.R), fn(s.G, d.G), fn(s.B, d.B)
	}

	sa, da := src.A, dst.A
	both := sa * da
	return Color{
		R: clamp01((1-sa)*dst.R + (1-da)*src.R + both*r),
		G: clamp01((1-sa)*dst.G + (1-da)*src.G + both*g),
		B: clamp01((1-sa)*dst.B + (1-da)*src.B + both*b),
		A: clamp01(sa + da - both),
	}
}

// separableFunc returns B(s, d) for a separable mode on straight channels.
// Unknown modes fall back to normal (B = s), which matches source-over.
func separableFunc(mode Mode) func(s, d float32) float32 {
	switch mode {
	case ModeScreen:
		return screen
	case ModeOverlay:
		return func(s, d float32) float32 { return hardLight(d, s) }
	case ModeDarken:
		return math32.Min
	case ModeLighten:
		return math32.Max
	case ModeColorDodge:
		return colorDodge
	case ModeColorBurn:
		return colorBurn
	case ModeHardLight:
		return hardLight
	case ModeSoftLight:
		return softLight
	case ModeDifference:
		return func(s, d float32) float32 { return math32.Abs(s - d) }
	case ModeExclusion:
		return func(s, d float32) float32 { return s + d - 2*s*d }
	case ModeMultiply:
		return func(s, d float32) float32 { return s * d }
	default:
		return func(s, _ float32) float32 { return s }
	}
}

func screen(s, d float32) float32 {
	return s + d - s*d
}

func hardLight(s, d float32) float32 {
	if s <= 0.5 {
		return 2 * s * d
	}
	return screen(2*s-1, d)
}

func colorDodge(s, d float32) float32 {
	switch {
	case d == 0:
		return 0
	case s >= 1:
		return 1
	default:
		return math32.Min(1, d/(1-s))
	}
}

func colorBurn(s, d float32) float32 {
	switch {
	case d >= 1:
		return 1
	case s <= 0:
		return 0
	default:
		return 1 - math32.Min(1, (1-d)/s)
	}
}

func softLight(s, d float32) float32 {
	if s <= 0.5 {
		return d - (1-2*s)*d*(1-d)
	}
	var dd float32
	if d <= 0.25 {
		dd = ((16*d-12)*d + 4) * d
	} else {
		dd = math32.Sqrt(d)
	}
	return d + (2*s-1)*(dd-d)
}
