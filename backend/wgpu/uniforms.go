//go:build !nogpu

package wgpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
)

// uniformSize is the byte size of the Uniforms block in compositor.wgsl:
// eleven vec4 rows.
const uniformSize = 11 * 16

// vertexStride is position (2 x f32) followed by uv (2 x f32).
const vertexStride = 16

// Flags of Uniforms.modes.z.
const (
	flagMatrix      uint32 = 1
	flagFilterColor uint32 = 2
	flagSourceColor uint32 = 4
	flagDecal       uint32 = 8
)

type uniformWriter struct {
	buf [uniformSize]byte
	off int
}

func (w *uniformWriter) f32(v float32) {
	binary.LittleEndian.PutUint32(w.buf[w.off:], math.Float32bits(v))
	w.off += 4
}

func (w *uniformWriter) u32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.off:], v)
	w.off += 4
}

func (w *uniformWriter) color(c blend.Color) {
	w.f32(c.R)
	w.f32(c.G)
	w.f32(c.B)
	w.f32(c.A)
}

// depthValue maps a draw depth onto the unit range of the depth buffer.
func depthValue(d uint32) float32 {
	return float32(float64(min(d, compositor.MaxDepth)) / float64(compositor.MaxDepth))
}

// encodeUniforms lays u out for a draw into a target of the given size.
// tex and backdrop are the sizes of the bound textures, zero when unbound.
func encodeUniforms(u *compositor.Uniforms, target, tex, backdrop geom.ISize, sampling compositor.Sampling) []byte {
	var w uniformWriter
	w.f32(float32(target.W))
	w.f32(float32(target.H))
	w.f32(depthValue(u.Depth))
	w.f32(u.Alpha)

	w.color(u.Color)
	w.color(u.FilterColor)

	m := &u.ColorMatrix
	for row := range 4 {
		for col := range 4 {
			w.f32(m[row*5+col])
		}
	}
	w.f32(m[4])
	w.f32(m[9])
	w.f32(m[14])
	w.f32(m[19])

	w.f32(float32(u.BlurDirection.X))
	w.f32(float32(u.BlurDirection.Y))
	w.f32(u.BlurSigma)
	w.f32(0)

	w.f32(float32(max(tex.W, 1)))
	w.f32(float32(max(tex.H, 1)))
	w.f32(float32(backdrop.W))
	w.f32(float32(backdrop.H))

	var flags uint32
	if u.HasColorMatrix {
		flags |= flagMatrix
	}
	if u.HasFilterColor {
		flags |= flagFilterColor
	}
	if u.SourceIsColor {
		flags |= flagSourceColor
	}
	if sampling.Address == compositor.AddressDecal {
		flags |= flagDecal
	}
	w.u32(uint32(u.Mode))
	w.u32(uint32(u.FilterBlend))
	w.u32(flags)
	w.u32(0)
	return w.buf[:]
}

// encodeVertices interleaves positions and uvs. Missing uvs are zero.
func encodeVertices(vertices, uvs []geom.Point) []byte {
	out := make([]byte, len(vertices)*vertexStride)
	for i, v := range vertices {
		o := out[i*vertexStride:]
		binary.LittleEndian.PutUint32(o[0:], math.Float32bits(float32(v.X)))
		binary.LittleEndian.PutUint32(o[4:], math.Float32bits(float32(v.Y)))
		if uvs != nil {
			binary.LittleEndian.PutUint32(o[8:], math.Float32bits(float32(uvs[i].X)))
			binary.LittleEndian.PutUint32(o[12:], math.Float32bits(float32(uvs[i].Y)))
		}
	}
	return out
}
