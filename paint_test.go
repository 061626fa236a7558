package compositor

import (
	"testing"

	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/geometry"
)

func TestNewPaint(t *testing.T) {
	p := NewPaint()
	if p.Color != blend.Black {
		t.Errorf("Color = %v, want black", p.Color)
	}
	if p.BlendMode != blend.ModeSourceOver {
		t.Errorf("BlendMode = %v, want SourceOver", p.BlendMode)
	}
	if p.Style != StyleFill {
		t.Errorf("Style = %v, want Fill", p.Style)
	}
	if p.StrokeMiter != 4 {
		t.Errorf("StrokeMiter = %v, want 4", p.StrokeMiter)
	}

	var zero Paint
	if zero.BlendMode != blend.ModeClear {
		t.Errorf("zero BlendMode = %v, want Clear", zero.BlendMode)
	}
}

func TestCanApplyOpacityPeephole(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Paint)
		want   bool
	}{
		{"plain", func(*Paint) {}, true},
		{"translucent", func(p *Paint) { p.Color.A = 0.25 }, true},
		{"blend mode", func(p *Paint) { p.BlendMode = blend.ModeMultiply }, false},
		{"source", func(p *Paint) { p.BlendMode = blend.ModeSource }, false},
		{"color filter", func(p *Paint) { p.ColorFilter = NewBlendColorFilter(blend.Black, blend.ModeSourceIn) }, false},
		{"image filter", func(p *Paint) { p.ImageFilter = NewBlurImageFilter(1, 1) }, false},
		{"mask blur", func(p *Paint) { p.MaskBlur = &MaskBlur{Sigma: 2} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPaint()
			tt.modify(&p)
			if got := p.CanApplyOpacityPeephole(); got != tt.want {
				t.Errorf("CanApplyOpacityPeephole() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilteredColor(t *testing.T) {
	p := NewColorPaint(blend.RGBA(1, 0, 0, 1))
	if got := p.filteredColor(); got != p.Color {
		t.Errorf("filteredColor() without filter = %v, want %v", got, p.Color)
	}
	p.ColorFilter = NewBlendColorFilter(blend.RGBA(0, 0, 1, 1), blend.ModeSource)
	if got := p.filteredColor(); got != blend.RGBA(0, 0, 1, 1) {
		t.Errorf("filteredColor() = %v, want blue", got)
	}
	if !p.HasColorFilter() {
		t.Error("HasColorFilter() = false")
	}
}

func TestWithFiltersAbsorbsColorFilter(t *testing.T) {
	p := NewColorPaint(blend.RGBA(1, 0, 0, 1))
	p.ColorFilter = NewBlendColorFilter(blend.RGBA(0, 1, 0, 1), blend.ModeSource)
	c := p.withFilters(NewSolidColorContents(geometry.NewRect(geom.MakeXYWH(0, 0, 1, 1)), p.Color))
	solid, ok := c.(*SolidColorContents)
	if !ok {
		t.Fatalf("withFilters() = %T, want *SolidColorContents", c)
	}
	if solid.Color() != blend.RGBA(0, 1, 0, 1) {
		t.Errorf("Color() = %v, want green", solid.Color())
	}

	p.ImageFilter = NewBlurImageFilter(2, 2)
	if _, ok := p.withFilters(NewSolidColorContents(geometry.NewRect(geom.MakeXYWH(0, 0, 1, 1)), p.Color)).(*FilterContents); !ok {
		t.Error("withFilters() with an image filter did not wrap the contents")
	}
}

func TestStyleStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{StyleFill.String(), "Fill"},
		{StyleStroke.String(), "Stroke"},
		{Style(9).String(), "Style(9)"},
		{BlurNormal.String(), "Normal"},
		{BlurSolid.String(), "Solid"},
		{BlurOuter.String(), "Outer"},
		{BlurInner.String(), "Inner"},
		{BlurStyle(7).String(), "BlurStyle(7)"},
		{BoundsUnknown.String(), "Unknown"},
		{BoundsContainsContents.String(), "ContainsContents"},
		{BoundsMayClipContents.String(), "MayClipContents"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("String() = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestPassScissor(t *testing.T) {
	size := geom.ISize{W: 100, H: 50}
	tests := []struct {
		name   string
		cov    geom.Rect
		origin geom.Point
		want   geom.IRect
	}{
		{"inside", geom.MakeXYWH(10, 10, 20, 20), geom.Point{}, geom.IRect{Left: 10, Top: 10, Right: 30, Bottom: 30}},
		{"rounds out", geom.MakeLTRB(10.5, 10.2, 19.5, 19.8), geom.Point{}, geom.IRect{Left: 10, Top: 10, Right: 20, Bottom: 20}},
		{"clamped", geom.MakeLTRB(-10, -10, 200, 200), geom.Point{}, geom.IRect{Right: 100, Bottom: 50}},
		{"shifted", geom.MakeXYWH(60, 60, 10, 10), geom.Pt(50, 50), geom.IRect{Left: 10, Top: 10, Right: 20, Bottom: 20}},
		{"outside", geom.MakeXYWH(200, 0, 10, 10), geom.Point{}, geom.IRect{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := passScissor(tt.cov, tt.origin, size); got != tt.want {
				t.Errorf("passScissor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatrixColorFilterPresets(t *testing.T) {
	red := blend.RGBA(1, 0, 0, 1)
	tests := []struct {
		name   string
		filter *MatrixColorFilter
		in     blend.Color
		want   blend.Color
	}{
		{"grayscale", NewGrayscaleColorFilter(), red, blend.RGBA(0.2126, 0.2126, 0.2126, 1)},
		{"invert", NewInvertColorFilter(), red, blend.RGBA(0, 1, 1, 1)},
		{"opacity", NewOpacityColorFilter(0.5), red, blend.RGBA(1, 0, 0, 0.5)},
		{"brightness", NewBrightnessColorFilter(0.5), red, blend.RGBA(0.5, 0, 0, 1)},
		{"contrast", NewContrastColorFilter(0), red, blend.RGBA(0.5, 0.5, 0.5, 1)},
		{"saturation", NewSaturationColorFilter(1), red, red},
		{"hue rotate", NewHueRotateColorFilter(0), red, red},
		{"invert twice", NewInvertColorFilter().Then(NewInvertColorFilter()), blend.RGBA(0.25, 0.5, 0.75, 1), blend.RGBA(0.25, 0.5, 0.75, 1)},
		{"invert then darken", NewInvertColorFilter().Then(NewBrightnessColorFilter(0)), red, blend.RGBA(0, 0, 0, 1)},
		{"darken then invert", NewBrightnessColorFilter(0).Then(NewInvertColorFilter()), red, blend.RGBA(1, 1, 1, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.filterColor(tt.in)
			if !closeColor(got, tt.want) {
				t.Errorf("filterColor(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
	if sepia := NewSepiaColorFilter().filterColor(blend.RGBA(1, 1, 1, 1)); sepia.R != 1 || sepia.B >= sepia.R {
		t.Errorf("sepia of white = %v, want a warm tone", sepia)
	}
}

func closeColor(a, b blend.Color) bool {
	near := func(x, y float32) bool { return x-y < 1e-3 && y-x < 1e-3 }
	return near(a.R, b.R) && near(a.G, b.G) && near(a.B, b.B) && near(a.A, b.A)
}
