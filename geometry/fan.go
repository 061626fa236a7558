package geometry

import "github.com/gogpu/compositor/geom"

// fanInitialVertexCapacity is the initial vertex capacity, enough for about
// forty triangles.
const fanInitialVertexCapacity = 128

// FanTessellator converts closed polygons into triangle fans for stencil
// fill.
//
// For each polygon the first vertex is the fan center and every following
// edge emits the triangle (v0, vi, vi+1). This works for any topology
// (concave, self-intersecting, holes) because the stencil pass resolves the
// winding number; the cover pass then paints only where it is non-zero.
//
// The tessellator can be reused via Reset.
type FanTessellator struct {
	vertices  []geom.Point
	bounds    geom.Rect
	hasBounds bool
}

// NewFanTessellator creates a tessellator with pre-allocated capacity.
func NewFanTessellator() *FanTessellator {
	return &FanTessellator{vertices: make([]geom.Point, 0, fanInitialVertexCapacity)}
}

// Reset clears the tessellator for reuse without releasing memory.
func (ft *FanTessellator) Reset() {
	ft.vertices = ft.vertices[:0]
	ft.bounds = geom.Rect{}
	ft.hasBounds = false
}

// TessellateContours emits fans for every polygon and returns the number
// of vertices written so far.
func (ft *FanTessellator) TessellateContours(polys [][]geom.Point) int {
	for _, poly := range polys {
		if len(poly) < 3 {
			continue
		}
		origin := poly[0]
		ft.updateBounds(origin)
		for i := 1; i+1 < len(poly); i++ {
			ft.updateBounds(poly[i])
			ft.updateBounds(poly[i+1])
			ft.vertices = append(ft.vertices, origin, poly[i], poly[i+1])
		}
	}
	return len(ft.vertices)
}

// Vertices returns the emitted triangle list.
func (ft *FanTessellator) Vertices() []geom.Point { return ft.vertices }

// Bounds returns the bounding box of every vertex seen.
func (ft *FanTessellator) Bounds() geom.Rect { return ft.bounds }

func (ft *FanTessellator) updateBounds(p geom.Point) {
	if !ft.hasBounds {
		ft.bounds = geom.Rect{Left: p.X, Top: p.Y, Right: p.X, Bottom: p.Y}
		ft.hasBounds = true
		return
	}
	ft.bounds.Left = min(ft.bounds.Left, p.X)
	ft.bounds.Top = min(ft.bounds.Top, p.Y)
	ft.bounds.Right = max(ft.bounds.Right, p.X)
	ft.bounds.Bottom = max(ft.bounds.Bottom, p.Y)
}
