package compositor

import (
	"image"
	"math"

	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/internal/filter"
	"github.com/gogpu/compositor/text"
)

// maxMaskSize bounds CPU-generated coverage masks per axis.
const maxMaskSize = 4096

// TextContents draws a shaped text frame with one color.
type TextContents struct {
	frame   *text.Frame
	color   blend.Color
	inherit float32
}

// NewTextContents returns contents drawing frame with the straight-alpha
// color c. The frame origin is the local origin.
func NewTextContents(frame *text.Frame, c blend.Color) *TextContents {
	return &TextContents{frame: frame, color: c, inherit: 1}
}

// Coverage implements Contents.
func (c *TextContents) Coverage(e *Entity) (geom.Rect, bool) {
	if c.frame == nil {
		return geom.Rect{}, false
	}
	b := c.frame.Bounds()
	if b.IsEmpty() {
		return geom.Rect{}, false
	}
	return b.TransformBounds(e.Transform)
}

// IsOpaque implements Contents.
func (c *TextContents) IsOpaque(geom.Matrix) bool { return false }

// SetInheritedOpacity implements Contents.
func (c *TextContents) SetInheritedOpacity(opacity float32) { c.inherit = opacity }

// AsBackgroundColor implements Contents.
func (c *TextContents) AsBackgroundColor(*Entity, geom.ISize) (blend.Color, bool) {
	return blend.Color{}, false
}

// Render implements Contents. Glyphs are rasterized at the device scale of
// the transform and drawn as a coverage mask.
func (c *TextContents) Render(r *Renderer, e *Entity, pass RenderPass) error {
	if c.frame == nil {
		return nil
	}
	scale := e.Transform.MaxBasisLengthXY()
	if scale <= 0 || math.IsNaN(scale) {
		return nil
	}
	tm := r.textMask(c.frame, scale)
	mask, origin := tm.mask, tm.origin
	if mask == nil || mask.Rect.Empty() {
		return nil
	}
	size := mask.Rect.Size()
	dst := geom.MakeXYWH(origin.X, origin.Y, float64(size.X)/scale, float64(size.Y)/scale)
	return drawMask(r, e, pass, mask, dst, c.color.MultiplyAlpha(c.inherit).Premultiply())
}

func (c *TextContents) applyColorFilter(cf ColorFilter) bool {
	c.color = cf.filterColor(c.color)
	return true
}

// drawMask uploads an alpha mask and stretches it over the local rect dst
// with a premultiplied color.
func drawMask(r *Renderer, e *Entity, pass RenderPass, mask *image.Alpha, dst geom.Rect, color blend.Color) error {
	tex, err := r.uploadImage(mask, "coverage mask")
	if err != nil {
		return err
	}
	dc := drawCall{
		pipeline: PipelineDescriptor{Shader: ShaderMask, Blend: e.BlendMode, Depth: DepthTest},
		uniforms: Uniforms{Depth: e.ClipDepth, Color: color, Alpha: 1},
		texture:  tex,
		sampling: SamplingLinear,
	}
	verts := transformPoints(rectVertices(dst), e.Transform)
	return r.submit(pass, dc, verts, rectVertices(geom.MakeLTRB(0, 0, 1, 1)))
}

// rrectBlurContents draws a gaussian-blurred rounded rectangle from an
// analytic coverage mask.
type rrectBlurContents struct {
	rrect   geom.RRect
	sigma   float64
	color   blend.Color
	inherit float32
}

func newRRectBlurContents(rr geom.RRect, sigma float64, c blend.Color) *rrectBlurContents {
	return &rrectBlurContents{rrect: rr, sigma: sigma, color: c, inherit: 1}
}

func (c *rrectBlurContents) localBounds() geom.Rect {
	return c.rrect.Rect.Expand(float64(filter.KernelRadius(c.sigma)))
}

// Coverage implements Contents.
func (c *rrectBlurContents) Coverage(e *Entity) (geom.Rect, bool) {
	return c.localBounds().TransformBounds(e.Transform)
}

// IsOpaque implements Contents.
func (c *rrectBlurContents) IsOpaque(geom.Matrix) bool { return false }

// SetInheritedOpacity implements Contents.
func (c *rrectBlurContents) SetInheritedOpacity(opacity float32) { c.inherit = opacity }

// AsBackgroundColor implements Contents.
func (c *rrectBlurContents) AsBackgroundColor(*Entity, geom.ISize) (blend.Color, bool) {
	return blend.Color{}, false
}

// Render implements Contents.
func (c *rrectBlurContents) Render(r *Renderer, e *Entity, pass RenderPass) error {
	scale := e.Transform.MaxBasisLengthXY()
	if scale <= 0 || math.IsNaN(scale) {
		return nil
	}
	bounds := c.localBounds()
	w := min(int(math.Ceil(bounds.Width()*scale)), maxMaskSize)
	h := min(int(math.Ceil(bounds.Height()*scale)), maxMaskSize)
	if w <= 0 || h <= 0 {
		return nil
	}
	// Capped masks are stretched over the bounds.
	sx := float64(w) / bounds.Width()
	sy := float64(h) / bounds.Height()
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	for y := range h {
		py := bounds.Top + (float64(y)+0.5)/sy
		for x := range w {
			px := bounds.Left + (float64(x)+0.5)/sx
			a := c.coverageAt(geom.Pt(px, py))
			mask.Pix[y*mask.Stride+x] = uint8(math.Round(a * 255))
		}
	}
	return drawMask(r, e, pass, mask, bounds, c.color.MultiplyAlpha(c.inherit).Premultiply())
}

func (c *rrectBlurContents) applyColorFilter(cf ColorFilter) bool {
	c.color = cf.filterColor(c.color)
	return true
}

// coverageAt returns the blurred coverage at local point p. Rects use the
// exact separable integral; rounded corners use the blurred signed
// distance.
func (c *rrectBlurContents) coverageAt(p geom.Point) float64 {
	r := c.rrect.Rect
	k := 1 / (c.sigma * math.Sqrt2)
	if c.rrect.IsRect() {
		cx := 0.5 * (math.Erf((p.X-r.Left)*k) - math.Erf((p.X-r.Right)*k))
		cy := 0.5 * (math.Erf((p.Y-r.Top)*k) - math.Erf((p.Y-r.Bottom)*k))
		return cx * cy
	}
	return 0.5 * math.Erfc(roundRectDistance(c.rrect, p)*k)
}

// roundRectDistance is the signed distance from p to a rounded rectangle
// with uniform corners. It is negative inside.
func roundRectDistance(rr geom.RRect, p geom.Point) float64 {
	r := rr.Rect
	c := r.Center()
	rad := math.Min(rr.Radii.TopLeft.W, rr.Radii.TopLeft.H)
	hx := r.Width()/2 - rad
	hy := r.Height()/2 - rad
	qx := math.Abs(p.X-c.X) - hx
	qy := math.Abs(p.Y-c.Y) - hy
	outside := math.Hypot(math.Max(qx, 0), math.Max(qy, 0))
	inside := math.Min(math.Max(qx, qy), 0)
	return outside + inside - rad
}
