package software

import (
	"math"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
)

// rasterizer runs commands over the attachments of one target. Every
// operation is per pixel, so disjoint row bands can run concurrently.
type rasterizer struct {
	width   int
	color   []blend.Color
	depth   []uint32
	stencil []uint8
}

// run executes cmds in order on rows [y0, y1).
func (r *rasterizer) run(cmds []command, y0, y1 int) {
	for i := range cmds {
		c := &cmds[i]
		clip := c.clip
		clip.Top = max(clip.Top, y0)
		clip.Bottom = min(clip.Bottom, y1)
		if clip.IsEmpty() {
			continue
		}
		for t := 0; t+2 < len(c.vertices); t += 3 {
			r.triangle(c, t, clip)
		}
	}
}

// triangle rasterizes the triangle starting at vertex t. Pixels are
// sampled at their centers; edges use a top-left rule so triangles that
// share an edge never both cover a pixel on it.
func (r *rasterizer) triangle(c *command, t int, clip geom.IRect) {
	i0, i1, i2 := t, t+1, t+2
	a, b, v := c.vertices[i0], c.vertices[i1], c.vertices[i2]
	area := edge(a, b, v)
	if area == 0 || math.IsNaN(area) {
		return
	}
	// Negative area is counter-clockwise on a y-down target.
	ccw := area < 0
	if ccw {
		i1, i2 = i2, i1
		b, v = v, b
		area = -area
	}

	left := max(clip.Left, int(math.Floor(min(a.X, b.X, v.X))))
	right := min(clip.Right, int(math.Ceil(max(a.X, b.X, v.X))))
	top := max(clip.Top, int(math.Floor(min(a.Y, b.Y, v.Y))))
	bottom := min(clip.Bottom, int(math.Ceil(max(a.Y, b.Y, v.Y))))
	if left >= right || top >= bottom {
		return
	}

	bias0 := topLeft(b, v)
	bias1 := topLeft(v, a)
	bias2 := topLeft(a, b)
	inv := 1 / area
	for y := top; y < bottom; y++ {
		py := float64(y) + 0.5
		for x := left; x < right; x++ {
			p := geom.Pt(float64(x)+0.5, py)
			w0 := edge(b, v, p)
			w1 := edge(v, a, p)
			w2 := edge(a, b, p)
			if !inside(w0, bias0) || !inside(w1, bias1) || !inside(w2, bias2) {
				continue
			}
			bary := [3]float64{w0 * inv, w1 * inv, w2 * inv}
			r.fragment(c, x, y, ccw, [3]int{i0, i1, i2}, bary)
		}
	}
}

// fragment applies the stencil, depth and color stages to one pixel.
func (r *rasterizer) fragment(c *command, x, y int, ccw bool, idx [3]int, bary [3]float64) {
	i := y*r.width + x
	pipe := &c.pipeline

	s := r.stencil[i]
	switch pipe.Stencil {
	case compositor.StencilNonZeroWrite:
		if ccw {
			r.stencil[i] = s + 1
		} else {
			r.stencil[i] = s - 1
		}
	case compositor.StencilEvenOddWrite:
		r.stencil[i] = ^s
	case compositor.StencilCoverNotEqual:
		r.stencil[i] = 0
		if s == 0 {
			return
		}
	case compositor.StencilCoverEqual:
		r.stencil[i] = 0
		if s != 0 {
			return
		}
	}

	d := c.uniforms.Depth
	switch pipe.Depth {
	case compositor.DepthTest:
		if d <= r.depth[i] {
			return
		}
	case compositor.DepthWriteMax:
		if d <= r.depth[i] {
			return
		}
		r.depth[i] = d
	}

	if pipe.NoColor {
		return
	}
	dst := r.color[i]
	src := shade(c, x, y, dst, idx, bary)
	r.color[i] = blend.Composite(src, dst, pipe.Blend)
}

// edge is twice the signed area of (a, b, p).
func edge(a, b, p geom.Point) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

// topLeft reports whether pixels exactly on the edge a→b belong to the
// triangle. Of the two directions of a shared edge exactly one qualifies.
func topLeft(a, b geom.Point) bool {
	d := b.Sub(a)
	return d.Y > 0 || (d.Y == 0 && d.X > 0)
}

func inside(w float64, onEdge bool) bool {
	return w > 0 || (w == 0 && onEdge)
}
