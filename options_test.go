package compositor

import (
	"testing"

	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/geometry"
)

// stubProvider is a content provider for option testing.
type stubProvider struct{}

func (stubProvider) CreateContents(p *Paint, g geometry.Geometry) Contents {
	return NewSolidColorContents(g, p.Color)
}

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.cullRect != nil {
		t.Errorf("cullRect = %v, want nil", *o.cullRect)
	}
	if o.initialTransform != geom.Identity() {
		t.Errorf("initialTransform = %v, want identity", o.initialTransform)
	}
	if o.provider != nil {
		t.Error("provider set by default")
	}
	if o.strict || o.requiresReadback {
		t.Error("strict or requiresReadback set by default")
	}
}

func TestCanvasOptions(t *testing.T) {
	cull := geom.MakeXYWH(1, 2, 3, 4)
	m := geom.Translate(5, 6)
	o := defaultOptions()
	for _, opt := range []CanvasOption{
		WithCullRect(cull),
		WithInitialTransform(m),
		WithContentProvider(stubProvider{}),
		WithStrictAsserts(true),
		WithRequiresReadback(true),
	} {
		opt(&o)
	}

	if o.cullRect == nil || *o.cullRect != cull {
		t.Errorf("cullRect = %v, want %v", o.cullRect, cull)
	}
	if o.initialTransform != m {
		t.Errorf("initialTransform = %v, want %v", o.initialTransform, m)
	}
	if _, ok := o.provider.(stubProvider); !ok {
		t.Errorf("provider = %T, want stubProvider", o.provider)
	}
	if !o.strict {
		t.Error("strict = false")
	}
	if !o.requiresReadback {
		t.Error("requiresReadback = false")
	}
}

func TestWithCullRectCopies(t *testing.T) {
	r := geom.MakeXYWH(0, 0, 10, 10)
	opt := WithCullRect(r)
	r.Right = 100
	var o canvasOptions
	opt(&o)
	if o.cullRect.Right != 10 {
		t.Errorf("cullRect.Right = %v, want 10", o.cullRect.Right)
	}
}
