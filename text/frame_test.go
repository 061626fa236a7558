package text

import (
	"errors"
	"testing"
)

func goRegular(t *testing.T, size float64) *Face {
	t.Helper()
	face, err := GoRegular(size)
	if err != nil {
		t.Fatalf("GoRegular() error = %v", err)
	}
	return face
}

func TestNewFaceErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		size float64
		want error
	}{
		{"empty data", nil, 12, ErrEmptyFontData},
		{"zero size", []byte{1}, 0, ErrInvalidSize},
		{"negative size", []byte{1}, -3, ErrInvalidSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFace(tt.data, tt.size)
			if !errors.Is(err, tt.want) {
				t.Errorf("NewFace() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewFaceGarbage(t *testing.T) {
	if _, err := NewFace([]byte("not a font"), 12); err == nil {
		t.Error("NewFace(garbage) error = nil, want parse error")
	}
}

func TestShapeEmpty(t *testing.T) {
	face := goRegular(t, 16)
	f := Shape("", face, DirectionAuto)
	if f.GlyphCount() != 0 {
		t.Errorf("GlyphCount() = %d, want 0", f.GlyphCount())
	}
	if !f.Bounds().IsEmpty() {
		t.Errorf("Bounds() = %v, want empty", f.Bounds())
	}
	if m, _ := f.RasterizeMask(1); m != nil {
		t.Error("RasterizeMask() of empty frame returned a mask")
	}
}

func TestShapeLatin(t *testing.T) {
	face := goRegular(t, 20)
	f := Shape("Hello", face, DirectionAuto)
	if got := f.GlyphCount(); got != 5 {
		t.Fatalf("GlyphCount() = %d, want 5", got)
	}
	if f.Advance() <= 0 {
		t.Errorf("Advance() = %v, want > 0", f.Advance())
	}
	b := f.Bounds()
	if b.IsEmpty() {
		t.Fatal("Bounds() is empty")
	}
	// Cap height sits above the baseline.
	if b.Top >= 0 {
		t.Errorf("Bounds().Top = %v, want < 0", b.Top)
	}
	if b.Width() > f.Advance()+1 {
		t.Errorf("Bounds().Width() = %v exceeds advance %v", b.Width(), f.Advance())
	}

	glyphs := f.Runs[0].Glyphs
	for i := 1; i < len(glyphs); i++ {
		if glyphs[i].Pos.X <= glyphs[i-1].Pos.X {
			t.Errorf("glyph %d x = %v, not after %v", i, glyphs[i].Pos.X, glyphs[i-1].Pos.X)
		}
	}
}

func TestShapeScalesWithSize(t *testing.T) {
	small := Shape("Go", goRegular(t, 10), DirectionAuto)
	large := Shape("Go", goRegular(t, 20), DirectionAuto)
	ratio := large.Advance() / small.Advance()
	if ratio < 1.9 || ratio > 2.1 {
		t.Errorf("advance ratio = %v, want about 2", ratio)
	}
}

func TestVisualRunsBidi(t *testing.T) {
	runs := visualRuns("abc אבג", DirectionLTR)
	if len(runs) < 2 {
		t.Fatalf("visualRuns() = %d runs, want at least 2", len(runs))
	}
	var ltr, rtl bool
	for _, r := range runs {
		if r.rtl {
			rtl = true
		} else {
			ltr = true
		}
	}
	if !ltr || !rtl {
		t.Errorf("visualRuns() directions ltr=%v rtl=%v, want both", ltr, rtl)
	}
}

func TestRasterizeMask(t *testing.T) {
	f := Shape("H", goRegular(t, 32), DirectionAuto)
	for _, scale := range []float64{1, 2} {
		mask, origin := f.RasterizeMask(scale)
		if mask == nil {
			t.Fatalf("RasterizeMask(%v) = nil", scale)
		}
		b := f.Bounds()
		if origin.X > b.Left || origin.Y > b.Top {
			t.Errorf("RasterizeMask(%v) origin = %v, want at or before %v", scale, origin, b.Origin())
		}
		w := float64(mask.Bounds().Dx()) / scale
		if w < b.Width() {
			t.Errorf("RasterizeMask(%v) width = %v, want >= %v", scale, w, b.Width())
		}
		var covered int
		for _, a := range mask.Pix {
			if a > 0 {
				covered++
			}
		}
		if covered == 0 {
			t.Errorf("RasterizeMask(%v) has no coverage", scale)
		}
	}
}

func TestRasterizeMaskInvalidScale(t *testing.T) {
	f := Shape("H", goRegular(t, 12), DirectionAuto)
	for _, scale := range []float64{0, -1} {
		if m, _ := f.RasterizeMask(scale); m != nil {
			t.Errorf("RasterizeMask(%v) = mask, want nil", scale)
		}
	}
}

func TestFaceWithSize(t *testing.T) {
	face := goRegular(t, 12)
	big, err := face.WithSize(24)
	if err != nil {
		t.Fatalf("WithSize() error = %v", err)
	}
	if big.Size() != 24 || face.Size() != 12 {
		t.Errorf("sizes = %v, %v, want 24, 12", big.Size(), face.Size())
	}
	if _, err := face.WithSize(0); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("WithSize(0) error = %v, want %v", err, ErrInvalidSize)
	}
	m := face.Metrics()
	if m.Ascent <= 0 || m.Descent <= 0 {
		t.Errorf("Metrics() = %+v, want positive ascent and descent", m)
	}
}
