package geometry

import (
	"fmt"

	"github.com/gogpu/compositor/geom"
)

// VertexMode describes how a vertex list forms triangles.
type VertexMode uint8

const (
	// Triangles uses each group of three vertices as a triangle.
	Triangles VertexMode = iota
	// TriangleStrip shares two vertices between consecutive triangles.
	TriangleStrip
	// TriangleFan shares the first vertex between all triangles.
	TriangleFan
)

// String returns the string representation of VertexMode.
func (m VertexMode) String() string {
	switch m {
	case Triangles:
		return "Triangles"
	case TriangleStrip:
		return "TriangleStrip"
	case TriangleFan:
		return "TriangleFan"
	default:
		return fmt.Sprintf("VertexMode(%d)", int(m))
	}
}

// Vertices is a caller-supplied mesh with optional texture coordinates.
type Vertices struct {
	Mode      VertexMode
	Positions []geom.Point
	// TexCoords, when set, has one entry per position in texture pixels.
	TexCoords []geom.Point
	// Indices, when set, selects positions by index.
	Indices []uint16
}

// NewVertices returns a mesh geometry.
func NewVertices(mode VertexMode, positions, texCoords []geom.Point, indices []uint16) *Vertices {
	return &Vertices{Mode: mode, Positions: positions, TexCoords: texCoords, Indices: indices}
}

// HasTexCoords reports whether the mesh carries texture coordinates.
func (g *Vertices) HasTexCoords() bool {
	return len(g.TexCoords) == len(g.Positions) && len(g.TexCoords) > 0
}

// triangleIndices expands the mode and index list into a flat triangle list.
func (g *Vertices) triangleIndices() []int {
	order := make([]int, 0, len(g.Positions))
	if len(g.Indices) > 0 {
		for _, i := range g.Indices {
			if int(i) < len(g.Positions) {
				order = append(order, int(i))
			}
		}
	} else {
		for i := range g.Positions {
			order = append(order, i)
		}
	}
	var tris []int
	switch g.Mode {
	case Triangles:
		tris = order[:len(order)/3*3]
	case TriangleStrip:
		for i := 0; i+2 < len(order); i++ {
			if i%2 == 0 {
				tris = append(tris, order[i], order[i+1], order[i+2])
			} else {
				tris = append(tris, order[i+1], order[i], order[i+2])
			}
		}
	case TriangleFan:
		for i := 1; i+1 < len(order); i++ {
			tris = append(tris, order[0], order[i], order[i+1])
		}
	}
	return tris
}

// Tessellate implements Geometry. Texture coordinates are passed through
// unnormalized; the contents that bind a texture divide by its size.
func (g *Vertices) Tessellate(geom.Matrix) Tessellation {
	idx := g.triangleIndices()
	if len(idx) < 3 {
		return Tessellation{}
	}
	t := Tessellation{Vertices: make([]geom.Point, len(idx))}
	if g.HasTexCoords() {
		t.UVs = make([]geom.Point, len(idx))
	}
	for k, i := range idx {
		t.Vertices[k] = g.Positions[i]
		if t.UVs != nil {
			t.UVs[k] = g.TexCoords[i]
		}
	}
	t.Bounds, _ = geom.MakePointBounds(t.Vertices)
	return t
}

// Coverage implements Geometry.
func (g *Vertices) Coverage(m geom.Matrix) (geom.Rect, bool) {
	b, ok := geom.MakePointBounds(g.Positions)
	if !ok {
		return geom.Rect{}, false
	}
	return boundsCoverage(b, m)
}

// CoversArea implements Geometry.
func (g *Vertices) CoversArea(geom.Matrix, geom.Rect) bool { return false }

// TexCoordBounds returns the bounds of the texture coordinates.
func (g *Vertices) TexCoordBounds() (geom.Rect, bool) {
	if !g.HasTexCoords() {
		return geom.Rect{}, false
	}
	return geom.MakePointBounds(g.TexCoords)
}
