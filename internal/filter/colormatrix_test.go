package filter

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-3
}

func TestColorMatrixApply(t *testing.T) {
	tests := []struct {
		name          string
		m             ColorMatrix
		in            [4]float32
		want          [4]float32
	}{
		{"identity", Identity(), [4]float32{0.2, 0.4, 0.6, 0.8}, [4]float32{0.2, 0.4, 0.6, 0.8}},
		{"brightness", Brightness(2), [4]float32{0.2, 0.4, 0.6, 1}, [4]float32{0.4, 0.8, 1, 1}},
		{"contrast zero is gray", Contrast(0), [4]float32{0.1, 0.9, 0.3, 1}, [4]float32{0.5, 0.5, 0.5, 1}},
		{"invert", Invert(), [4]float32{1, 0, 0.25, 1}, [4]float32{0, 1, 0.75, 1}},
		{"opacity", Opacity(0.5), [4]float32{1, 1, 1, 1}, [4]float32{1, 1, 1, 0.5}},
		{"grayscale white", Grayscale(), [4]float32{1, 1, 1, 1}, [4]float32{1, 1, 1, 1}},
		{"hue rotate zero", HueRotate(0), [4]float32{0.3, 0.6, 0.9, 1}, [4]float32{0.3, 0.6, 0.9, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b, a := tt.m.Apply(tt.in[0], tt.in[1], tt.in[2], tt.in[3])
			got := [4]float32{r, g, b, a}
			for i := range got {
				if !near(got[i], tt.want[i]) {
					t.Errorf("Apply() = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestColorMatrixApplyPremultiplied(t *testing.T) {
	m := Invert()
	r, g, b, a := m.ApplyPremultiplied(0.5, 0, 0, 0.5)
	if !near(r, 0) || !near(g, 0.5) || !near(b, 0.5) || !near(a, 0.5) {
		t.Errorf("ApplyPremultiplied() = %v %v %v %v, want 0 0.5 0.5 0.5", r, g, b, a)
	}

	r, g, b, a = m.ApplyPremultiplied(0, 0, 0, 0)
	if r != 0 || g != 0 || b != 0 || a != 0 {
		t.Errorf("ApplyPremultiplied(transparent) = %v %v %v %v, want zeros", r, g, b, a)
	}
}

func TestColorMatrixMultiply(t *testing.T) {
	combined := Brightness(2).Multiply(Contrast(0.5))
	in := [4]float32{0.2, 0.3, 0.1, 1}

	b := Brightness(2)
	c := Contrast(0.5)
	r1, g1, b1, a1 := b.Apply(in[0], in[1], in[2], in[3])
	r2, g2, b2, a2 := c.Apply(r1, g1, b1, a1)
	r3, g3, b3, a3 := combined.Apply(in[0], in[1], in[2], in[3])

	if !near(r2, r3) || !near(g2, g3) || !near(b2, b3) || !near(a2, a3) {
		t.Errorf("Multiply() applied = %v %v %v %v, sequential = %v %v %v %v", r3, g3, b3, a3, r2, g2, b2, a2)
	}

	id := Identity()
	if got := Sepia().Multiply(id); got != Sepia() {
		t.Errorf("Sepia().Multiply(Identity()) = %v, want Sepia()", got)
	}
}

func BenchmarkColorMatrixApply(b *testing.B) {
	m := Saturation(1.5)
	for i := 0; i < b.N; i++ {
		_, _, _, _ = m.ApplyPremultiplied(0.2, 0.3, 0.4, 0.5)
	}
}
