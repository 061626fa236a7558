package blend

import (
	"math"
	"testing"
)

func colorNear(a, b Color) bool {
	const eps = 1e-5
	return math.Abs(float64(a.R-b.R)) < eps && math.Abs(float64(a.G-b.G)) < eps &&
		math.Abs(float64(a.B-b.B)) < eps && math.Abs(float64(a.A-b.A)) < eps
}

func TestCompositePorterDuff(t *testing.T) {
	src := Color{R: 0.5, A: 0.5} // premultiplied red at 50%
	dst := Color{B: 1, A: 1}
	tests := []struct {
		mode Mode
		want Color
	}{
		{ModeClear, Color{}},
		{ModeSource, src},
		{ModeDestination, dst},
		{ModeSourceOver, Color{R: 0.5, B: 0.5, A: 1}},
		{ModeDestinationOver, dst},
		{ModeSourceIn, src},
		{ModeDestinationIn, Color{B: 0.5, A: 0.5}},
		{ModeSourceOut, Color{}},
		{ModeDestinationOut, Color{B: 0.5, A: 0.5}},
		{ModeSourceATop, Color{R: 0.5, B: 0.5, A: 1}},
		{ModeXor, Color{B: 0.5, A: 0.5}},
		{ModePlus, Color{R: 0.5, B: 1, A: 1}},
		{ModeModulate, Color{A: 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			if got := Composite(src, dst, tt.mode); !colorNear(got, tt.want) {
				t.Errorf("Composite(%v) = %+v, want %+v", tt.mode, got, tt.want)
			}
		})
	}
}

func TestCompositeAdvancedOpaque(t *testing.T) {
	src := Color{R: 0.25, G: 0.5, B: 1, A: 1}
	dst := Color{R: 0.5, G: 0.5, B: 0.5, A: 1}
	tests := []struct {
		mode Mode
		want Color
	}{
		{ModeMultiply, Color{R: 0.125, G: 0.25, B: 0.5, A: 1}},
		{ModeScreen, Color{R: 0.625, G: 0.75, B: 1, A: 1}},
		{ModeDarken, Color{R: 0.25, G: 0.5, B: 0.5, A: 1}},
		{ModeLighten, Color{R: 0.5, G: 0.5, B: 1, A: 1}},
		{ModeDifference, Color{R: 0.25, G: 0, B: 0.5, A: 1}},
		{ModeExclusion, Color{R: 0.5, G: 0.5, B: 0.5, A: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			if got := Composite(src, dst, tt.mode); !colorNear(got, tt.want) {
				t.Errorf("Composite(%v) = %+v, want %+v", tt.mode, got, tt.want)
			}
		})
	}
}

func TestCompositeAdvancedTransparentSource(t *testing.T) {
	dst := Color{G: 0.4, A: 0.8}
	for m := ModeScreen; m <= LastAdvancedMode; m++ {
		if got := Composite(Color{}, dst, m); got != dst {
			t.Errorf("Composite(transparent, %v) = %+v, want %+v", m, got, dst)
		}
	}
}

func TestColorBlendUnpremultiplied(t *testing.T) {
	// Folding an opaque color with Source replaces the clear color.
	clear := Color{R: 0.2, G: 0.2, B: 0.2, A: 0.5}
	got := clear.Unpremultiply().Blend(Red, ModeSource).Premultiply()
	if !colorNear(got, Red) {
		t.Errorf("Blend(Source) = %+v, want %+v", got, Red)
	}

	got = Transparent.Blend(Color{G: 1, A: 0.5}, ModeSourceOver).Premultiply()
	if want := (Color{G: 0.5, A: 0.5}); !colorNear(got, want) {
		t.Errorf("Blend(SourceOver) = %+v, want %+v", got, want)
	}
}

func TestModeClassification(t *testing.T) {
	if ModeModulate.IsAdvanced() {
		t.Error("Modulate.IsAdvanced() = true")
	}
	if !ModeScreen.IsAdvanced() {
		t.Error("Screen.IsAdvanced() = false")
	}
	if ModeSourceOver.IsDestructive() {
		t.Error("SourceOver.IsDestructive() = true")
	}
	if !ModeSourceIn.IsDestructive() {
		t.Error("SourceIn.IsDestructive() = false")
	}
	for m := ModeClear; m <= LastAdvancedMode; m++ {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
}

func TestHex(t *testing.T) {
	c, err := Hex("#ff000080")
	if err != nil {
		t.Fatal(err)
	}
	if c.R != 1 || math.Abs(float64(c.A)-128.0/255) > 1e-6 {
		t.Errorf("Hex() = %+v", c)
	}
	if _, err := Hex("red"); err == nil {
		t.Error("Hex(\"red\") err = nil")
	}
}
