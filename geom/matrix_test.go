package geom

import (
	"math"
	"testing"
)

func matrixNear(a, b Matrix, eps float64) bool {
	for i := range a.M {
		if math.Abs(a.M[i]-b.M[i]) > eps {
			return false
		}
	}
	return true
}

func TestIsTranslationOnly(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
		want bool
	}{
		{"identity", Identity(), true},
		{"pure translation", Translate(10, 20), true},
		{"negative translation", Translate(-5, -3), true},
		{"uniform scale", Scale(2, 2), false},
		{"scale 1,1", Scale(1, 1), true},
		{"rotation 45deg", Rotate(math.Pi / 4), false},
		{"skew", Skew(0.5, 0), false},
		{"perspective", Perspective(0.001, 0), false},
		{"zero matrix", Matrix{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.IsTranslationOnly(); got != tt.want {
				t.Errorf("IsTranslationOnly() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsAligned(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
		want bool
	}{
		{"identity", Identity(), true},
		{"scale + translate", Scale(2, 3).Multiply(Translate(10, 20)), true},
		{"quarter turn", Affine(0, 1, -1, 0, 0, 0), true},
		{"rotation 30deg", Rotate(math.Pi / 6), false},
		{"skew", Skew(0.3, 0), false},
		{"perspective", Perspective(0, 0.01), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.IsAligned(); got != tt.want {
				t.Errorf("IsAligned() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMultiplyOrder(t *testing.T) {
	// Scale then translate: the translation is applied in scaled space.
	m := Scale(2, 2).Multiply(Translate(10, 0))
	got := m.TransformPoint(Pt(1, 1))
	want := Pt(22, 2)
	if got != want {
		t.Errorf("TransformPoint() = %v, want %v", got, want)
	}
}

func TestInvert(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
	}{
		{"translate", Translate(5, -7)},
		{"scale", Scale(2, 0.5)},
		{"rotate", Rotate(0.7)},
		{"affine", Affine(1.5, 0.2, -0.3, 0.8, 11, -4)},
		{"perspective", Translate(3, 4).Multiply(Perspective(0.001, 0.002))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, ok := tt.m.Invert()
			if !ok {
				t.Fatal("Invert() ok = false, want true")
			}
			if got := tt.m.Multiply(inv); !matrixNear(got, Identity(), 1e-9) {
				t.Errorf("m * Invert(m) = %v, want identity", got)
			}
		})
	}
}

func TestInvertSingular(t *testing.T) {
	if _, ok := Scale(0, 1).Invert(); ok {
		t.Error("Invert() of singular matrix ok = true, want false")
	}
	if Scale(0, 1).IsInvertible() {
		t.Error("IsInvertible() = true, want false")
	}
}

func TestHasPerspective(t *testing.T) {
	if Identity().HasPerspective() {
		t.Error("Identity().HasPerspective() = true")
	}
	if !Perspective(0.01, 0).HasPerspective() {
		t.Error("Perspective().HasPerspective() = false")
	}
	p := Perspective(0.01, 0)
	got := p.TransformPoint(Pt(100, 0))
	if math.Abs(got.X-50) > 1e-9 {
		t.Errorf("TransformPoint() with w=2 = %v, want x=50", got)
	}
}
