package clip

import (
	"math"
	"testing"

	"github.com/gogpu/compositor/geom"
)

func TestAdjustCoverage(t *testing.T) {
	full := geom.MakeLTRB(0, 0, 200, 200)
	tests := []struct {
		name  string
		cov   geom.Rect
		shape Shape
		m     geom.Matrix
		op    Op
		aa    bool
		want  geom.Rect
	}{
		{
			name:  "intersect rect",
			cov:   full,
			shape: RectShape(geom.MakeLTRB(10, 20, 110, 120)),
			m:     geom.Identity(),
			op:    OpIntersect,
			want:  geom.MakeLTRB(10, 20, 110, 120),
		},
		{
			name:  "intersect rounds out when antialiased",
			cov:   full,
			shape: RectShape(geom.MakeLTRB(10.5, 20.25, 110.5, 120.75)),
			m:     geom.Identity(),
			op:    OpIntersect,
			aa:    true,
			want:  geom.MakeLTRB(10, 20, 111, 121),
		},
		{
			name:  "intersect disjoint empties",
			cov:   full,
			shape: RectShape(geom.MakeLTRB(300, 300, 400, 400)),
			m:     geom.Identity(),
			op:    OpIntersect,
			want:  geom.Rect{},
		},
		{
			name:  "intersect under translation",
			cov:   full,
			shape: RectShape(geom.MakeLTRB(0, 0, 50, 50)),
			m:     geom.Translate(100, 100),
			op:    OpIntersect,
			want:  geom.MakeLTRB(100, 100, 150, 150),
		},
		{
			name:  "perspective is ignored",
			cov:   full,
			shape: RectShape(geom.MakeLTRB(0, 0, 50, 50)),
			m:     geom.Perspective(0.001, 0),
			op:    OpIntersect,
			want:  full,
		},
		{
			name:  "difference covering coverage empties",
			cov:   geom.MakeLTRB(50, 50, 100, 100),
			shape: RectShape(geom.MakeLTRB(0, 0, 200, 200)),
			m:     geom.Identity(),
			op:    OpDifference,
			want:  geom.Rect{},
		},
		{
			name:  "difference hole leaves coverage",
			cov:   full,
			shape: RectShape(geom.MakeLTRB(50, 50, 100, 100)),
			m:     geom.Identity(),
			op:    OpDifference,
			want:  full,
		},
		{
			name:  "difference band cuts",
			cov:   full,
			shape: RectShape(geom.MakeLTRB(-10, -10, 210, 50)),
			m:     geom.Identity(),
			op:    OpDifference,
			want:  geom.MakeLTRB(0, 50, 200, 200),
		},
		{
			name:  "difference under rotation is conservative",
			cov:   full,
			shape: RectShape(geom.MakeLTRB(-10, -10, 210, 50)),
			m:     geom.Rotate(0.1),
			op:    OpDifference,
			want:  full,
		},
		{
			name:  "rotated difference covering still empties",
			cov:   geom.MakeLTRB(90, 90, 110, 110),
			shape: RectShape(geom.MakeLTRB(-500, -500, 500, 500)),
			m:     geom.Rotate(0.4),
			op:    OpDifference,
			want:  geom.Rect{},
		},
		{
			name:  "oval difference covering empties",
			cov:   geom.MakeLTRB(90, 90, 110, 110),
			shape: OvalShape(geom.MakeLTRB(0, 0, 200, 200)),
			m:     geom.Identity(),
			op:    OpDifference,
			want:  geom.Rect{},
		},
		{
			name:  "oval difference not covering is unchanged",
			cov:   full,
			shape: OvalShape(geom.MakeLTRB(0, 0, 200, 200)),
			m:     geom.Identity(),
			op:    OpDifference,
			want:  full,
		},
		{
			name:  "rrect difference cuts with safe bands",
			cov:   geom.MakeLTRB(0, 0, 200, 100),
			shape: RRectShape(geom.MakeRRectXY(geom.MakeLTRB(-10, 40, 210, 200), 5, 5)),
			m:     geom.Identity(),
			op:    OpDifference,
			want:  geom.MakeLTRB(0, 0, 200, 40),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AdjustCoverage(tt.cov, tt.shape, tt.m, tt.op, tt.aa)
			if got != tt.want {
				t.Errorf("AdjustCoverage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAdjustCoverageInversePath(t *testing.T) {
	p := geom.NewPath()
	p.AddRect(geom.MakeLTRB(0, 0, 300, 300))
	p.SetInverseFill(true)
	// Intersect with an inverse path behaves like a difference: the path is
	// not a covering rect shape, so coverage stays conservative.
	got := AdjustCoverage(geom.MakeLTRB(0, 0, 100, 100), PathShape(p), geom.Identity(), OpIntersect, false)
	if got != geom.MakeLTRB(0, 0, 100, 100) {
		t.Errorf("AdjustCoverage(inverse path) = %v, want unchanged", got)
	}
	// Difference with an inverse path behaves like an intersect.
	got = AdjustCoverage(geom.MakeLTRB(0, 0, 400, 400), PathShape(p), geom.Identity(), OpDifference, false)
	if got != geom.MakeLTRB(0, 0, 300, 300) {
		t.Errorf("AdjustCoverage(difference of inverse path) = %v, want path bounds", got)
	}
}

func TestCullTracker(t *testing.T) {
	ct := NewCullTracker(geom.MakeLTRB(0, 0, 100, 100), geom.Identity())
	ct.Save()
	ct.Concat(geom.Translate(10, 10))
	ct.Clip(RectShape(geom.MakeLTRB(0, 0, 20, 20)), OpIntersect, false)
	if got := ct.DeviceCullRect(); got != geom.MakeLTRB(10, 10, 30, 30) {
		t.Errorf("DeviceCullRect() = %v", got)
	}
	if got := ct.LocalCullRect(); got != geom.MakeLTRB(0, 0, 20, 20) {
		t.Errorf("LocalCullRect() = %v", got)
	}
	if !ct.ContentCulled(geom.MakeLTRB(50, 50, 60, 60)) {
		t.Error("ContentCulled(outside) = false")
	}
	if ct.ContentCulled(geom.MakeLTRB(5, 5, 15, 15)) {
		t.Error("ContentCulled(inside) = true")
	}
	ct.Restore()
	if got := ct.DeviceCullRect(); got != geom.MakeLTRB(0, 0, 100, 100) {
		t.Errorf("DeviceCullRect() after Restore = %v", got)
	}
	ct.Restore()
	if ct.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", ct.Depth())
	}

	ct.SetMatrix(geom.Perspective(0.01, 0))
	if got := ct.LocalCullRect(); got != geom.MakeMaximum() {
		t.Errorf("LocalCullRect() under perspective = %v, want maximum", got)
	}
	ct.SetMatrix(geom.Scale(0, 1))
	if !ct.ContentCulled(geom.MakeLTRB(0, 0, 10, 10)) {
		t.Error("ContentCulled() with singular matrix = false")
	}
}

func TestShapeCoversRect(t *testing.T) {
	rr := RRectShape(geom.MakeRRectXY(geom.MakeLTRB(0, 0, 100, 100), 30, 30))
	if !ShapeCoversRect(rr, geom.Identity(), geom.MakeLTRB(20, 20, 80, 80)) {
		t.Error("rrect should cover its center")
	}
	if ShapeCoversRect(rr, geom.Identity(), geom.MakeLTRB(1, 1, 99, 99)) {
		t.Error("rrect should not cover its corners")
	}
	if ShapeCoversRect(OvalShape(geom.MakeLTRB(0, 0, 100, 100)), geom.Rotate(math.Pi/5), geom.MakeLTRB(200, 200, 210, 210)) {
		t.Error("oval far away covers rect")
	}
}
