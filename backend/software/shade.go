package software

import (
	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/internal/filter"
)

// shade evaluates the fragment program of c at pixel (x, y). dst is the
// current destination color, read by framebuffer blending.
func shade(c *command, x, y int, dst blend.Color, idx [3]int, bary [3]float64) blend.Color {
	u := &c.uniforms
	switch c.pipeline.Shader {
	case compositor.ShaderSolid:
		return u.Color
	case compositor.ShaderTexture:
		return textureColor(c, idx, bary)
	case compositor.ShaderMask:
		uu, vv := interpolateUV(c, idx, bary)
		return u.Color.Scale(c.textures[0].sample(uu, vv, c.sampling[0]).A)
	case compositor.ShaderBlur:
		return blurColor(c, idx, bary)
	case compositor.ShaderAdvancedBlend:
		backdrop := c.textures[1].At(x, y)
		return blend.Composite(sourceColor(c, idx, bary), backdrop, u.Mode)
	case compositor.ShaderFramebufferBlend:
		return blend.Composite(sourceColor(c, idx, bary), dst, u.Mode)
	}
	return blend.Transparent
}

func interpolateUV(c *command, idx [3]int, bary [3]float64) (float32, float32) {
	if c.uvs == nil {
		return 0, 0
	}
	a, b, v := c.uvs[idx[0]], c.uvs[idx[1]], c.uvs[idx[2]]
	return float32(a.X*bary[0] + b.X*bary[1] + v.X*bary[2]),
		float32(a.Y*bary[0] + b.Y*bary[1] + v.Y*bary[2])
}

// textureColor samples slot 0 and applies the color filter and alpha.
func textureColor(c *command, idx [3]int, bary [3]float64) blend.Color {
	u := &c.uniforms
	uu, vv := interpolateUV(c, idx, bary)
	s := c.textures[0].sample(uu, vv, c.sampling[0])
	if u.HasColorMatrix {
		m := filter.ColorMatrix(u.ColorMatrix)
		s.R, s.G, s.B, s.A = m.ApplyPremultiplied(s.R, s.G, s.B, s.A)
	}
	if u.HasFilterColor {
		s = blend.Composite(u.FilterColor.Premultiply(), s, u.FilterBlend)
	}
	return s.Scale(u.Alpha)
}

// sourceColor is the source of the blending shaders.
func sourceColor(c *command, idx [3]int, bary [3]float64) blend.Color {
	if c.uniforms.SourceIsColor {
		return c.uniforms.Color
	}
	return textureColor(c, idx, bary)
}

// blurColor is one direction of a separable gaussian.
func blurColor(c *command, idx [3]int, bary [3]float64) blend.Color {
	u := &c.uniforms
	tex := c.textures[0]
	uu, vv := interpolateUV(c, idx, bary)
	kernel := filter.CachedGaussianKernel(float64(u.BlurSigma))
	radius := len(kernel) / 2
	du := float32(u.BlurDirection.X) / float32(tex.size.W)
	dv := float32(u.BlurDirection.Y) / float32(tex.size.H)

	var sum blend.Color
	for k, w := range kernel {
		o := float32(k - radius)
		s := tex.sample(uu+o*du, vv+o*dv, c.sampling[0])
		sum.R += s.R * w
		sum.G += s.G * w
		sum.B += s.B * w
		sum.A += s.A * w
	}
	return sum.Scale(u.Alpha)
}
