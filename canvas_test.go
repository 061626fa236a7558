package compositor_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/backend/software"
	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
	"github.com/gogpu/compositor/text"
)

var (
	white   = blend.RGBA(1, 1, 1, 1)
	black   = blend.RGBA(0, 0, 0, 1)
	red     = blend.RGBA(1, 0, 0, 1)
	blue    = blend.RGBA(0, 0, 1, 1)
	pxWhite = color.RGBA{255, 255, 255, 255}
	pxRed   = color.RGBA{255, 0, 0, 255}
	pxBlue  = color.RGBA{0, 0, 255, 255}
	pxClear = color.RGBA{}
)

// frame is a canvas over a software target.
type frame struct {
	sw     *software.Context
	target compositor.RenderTarget
	canvas *compositor.Canvas
}

func newFrame(t *testing.T, w, h int, opts ...compositor.CanvasOption) *frame {
	t.Helper()
	return newFrameOn(t, software.New(), w, h, opts...)
}

func newFrameOn(t *testing.T, sw *software.Context, w, h int, opts ...compositor.CanvasOption) *frame {
	t.Helper()
	target, err := sw.CreateRenderTarget(geom.ISize{W: w, H: h}, "root")
	if err != nil {
		t.Fatalf("CreateRenderTarget() error = %v", err)
	}
	t.Cleanup(target.Release)
	opts = append([]compositor.CanvasOption{compositor.WithStrictAsserts(true)}, opts...)
	c, err := compositor.NewCanvas(sw, target, opts...)
	if err != nil {
		t.Fatalf("NewCanvas() error = %v", err)
	}
	return &frame{sw: sw, target: target, canvas: c}
}

// end finishes the frame and reads the root target back.
func (f *frame) end(t *testing.T) *image.RGBA {
	t.Helper()
	if err := f.canvas.EndReplay(); err != nil {
		t.Fatalf("EndReplay() error = %v", err)
	}
	if d := f.canvas.Diagnostics(); len(d) > 0 {
		t.Errorf("Diagnostics() = %v, want none", d)
	}
	img, err := f.sw.ReadPixels(f.target.ColorTexture())
	if err != nil {
		t.Fatalf("ReadPixels() error = %v", err)
	}
	return img
}

func paint(c blend.Color) *compositor.Paint {
	p := compositor.NewColorPaint(c)
	return &p
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// checkPixel compares one pixel with a per-channel tolerance.
func checkPixel(t *testing.T, img *image.RGBA, x, y int, want color.RGBA, tol int) {
	t.Helper()
	got := img.RGBAAt(x, y)
	if abs(int(got.R)-int(want.R)) > tol || abs(int(got.G)-int(want.G)) > tol ||
		abs(int(got.B)-int(want.B)) > tol || abs(int(got.A)-int(want.A)) > tol {
		t.Errorf("pixel (%d, %d) = %v, want %v", x, y, got, want)
	}
}

func TestNewCanvasErrors(t *testing.T) {
	sw := software.New()
	target, err := sw.CreateRenderTarget(geom.ISize{W: 4, H: 4}, "root")
	if err != nil {
		t.Fatal(err)
	}
	defer target.Release()

	if _, err := compositor.NewCanvas(nil, target); !errors.Is(err, compositor.ErrNilContext) {
		t.Errorf("NewCanvas(nil, target) error = %v, want ErrNilContext", err)
	}
	if _, err := compositor.NewCanvas(sw, nil); !errors.Is(err, compositor.ErrNilTarget) {
		t.Errorf("NewCanvas(ctx, nil) error = %v, want ErrNilTarget", err)
	}
}

func TestDrawRectTranslated(t *testing.T) {
	f := newFrame(t, 32, 32)
	f.canvas.DrawPaint(paint(white))
	f.canvas.Translate(10, 10)
	f.canvas.DrawRect(geom.MakeXYWH(0, 0, 10, 10), paint(red))
	img := f.end(t)

	checkPixel(t, img, 15, 15, pxRed, 0)
	checkPixel(t, img, 5, 5, pxWhite, 0)
	checkPixel(t, img, 25, 25, pxWhite, 0)
}

func TestClearColorFolding(t *testing.T) {
	f := newFrame(t, 16, 16)
	f.canvas.DrawPaint(paint(red))
	half := paint(blue.WithAlpha(0.5))
	f.canvas.DrawRect(geom.MakeXYWH(-10, -10, 100, 100), half)
	img := f.end(t)

	if got := f.sw.Stats().Draws; got != 0 {
		t.Errorf("Draws = %d, want 0 for draws folded into the clear color", got)
	}
	checkPixel(t, img, 8, 8, color.RGBA{128, 0, 128, 255}, 2)
}

func TestDrawAfterDrawIsNotFolded(t *testing.T) {
	f := newFrame(t, 16, 16)
	f.canvas.DrawRect(geom.MakeXYWH(2, 2, 4, 4), paint(red))
	f.canvas.DrawPaint(paint(blue))
	img := f.end(t)

	if got := f.sw.Stats().Draws; got < 2 {
		t.Errorf("Draws = %d, want at least 2", got)
	}
	checkPixel(t, img, 3, 3, pxBlue, 0)
}

func TestClipIntersectIsScoped(t *testing.T) {
	f := newFrame(t, 32, 32)
	c := f.canvas
	c.DrawPaint(paint(white))
	c.Save(2)
	c.ClipOval(geom.MakeXYWH(0, 0, 32, 32), compositor.ClipIntersect, false)
	c.DrawPaint(paint(red))
	c.Restore()
	img := f.end(t)

	checkPixel(t, img, 16, 16, pxRed, 0)
	checkPixel(t, img, 1, 1, pxWhite, 0)
	checkPixel(t, img, 30, 30, pxWhite, 0)

	// The clip is gone after Restore.
	c.DrawPaint(paint(white))
	c.DrawRect(geom.MakeXYWH(0, 0, 4, 4), paint(blue))
	img = f.end(t)
	checkPixel(t, img, 1, 1, pxBlue, 0)
}

func TestClipRectScissor(t *testing.T) {
	f := newFrame(t, 32, 32)
	c := f.canvas
	c.Save(2)
	c.ClipRect(geom.MakeXYWH(8, 8, 8, 8), compositor.ClipIntersect, false)
	c.DrawPaint(paint(red))
	c.Restore()
	img := f.end(t)

	checkPixel(t, img, 12, 12, pxRed, 0)
	checkPixel(t, img, 4, 4, pxClear, 0)
	checkPixel(t, img, 20, 12, pxClear, 0)
}

func TestClipDifference(t *testing.T) {
	f := newFrame(t, 32, 32)
	c := f.canvas
	c.ClipRect(geom.MakeXYWH(8, 8, 8, 8), compositor.ClipDifference, false)
	c.DrawPaint(paint(blue))
	img := f.end(t)

	checkPixel(t, img, 12, 12, pxClear, 0)
	checkPixel(t, img, 2, 2, pxBlue, 0)
	checkPixel(t, img, 20, 20, pxBlue, 0)
}

func TestNestedClipsRestoreInOrder(t *testing.T) {
	f := newFrame(t, 32, 32)
	c := f.canvas
	c.DrawPaint(paint(white))
	c.Save(4)
	c.ClipRect(geom.MakeXYWH(0, 0, 16, 32), compositor.ClipIntersect, false)
	c.Save(2)
	c.ClipRect(geom.MakeXYWH(0, 0, 32, 16), compositor.ClipIntersect, false)
	c.DrawPaint(paint(red))
	c.Restore()
	c.DrawRect(geom.MakeXYWH(0, 24, 32, 8), paint(blue))
	c.Restore()
	img := f.end(t)

	checkPixel(t, img, 4, 4, pxRed, 0)
	checkPixel(t, img, 20, 4, pxWhite, 0)
	checkPixel(t, img, 4, 20, pxWhite, 0)
	checkPixel(t, img, 4, 28, pxBlue, 0)
	checkPixel(t, img, 20, 28, pxWhite, 0)
}

func TestStrokeRect(t *testing.T) {
	f := newFrame(t, 32, 32)
	p := paint(red)
	p.Style = compositor.StyleStroke
	p.StrokeWidth = 4
	f.canvas.DrawRect(geom.MakeXYWH(8, 8, 16, 16), p)
	img := f.end(t)

	checkPixel(t, img, 8, 16, pxRed, 0)
	checkPixel(t, img, 16, 16, pxClear, 0)
	checkPixel(t, img, 2, 2, pxClear, 0)
}

func TestDrawImage(t *testing.T) {
	f := newFrame(t, 16, 16)
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = 255
		if i%4 == 1 || i%4 == 2 {
			src.Pix[i] = 0
		}
	}
	tex, err := f.sw.CreateTextureFromImage(src, "red")
	if err != nil {
		t.Fatal(err)
	}
	f.canvas.DrawImage(tex, geom.Pt(4, 4), compositor.SamplingNearest, nil)
	img := f.end(t)

	checkPixel(t, img, 5, 5, pxRed, 0)
	checkPixel(t, img, 2, 2, pxClear, 0)
	checkPixel(t, img, 9, 9, pxClear, 0)
}

func TestDrawTextFrame(t *testing.T) {
	f := newFrame(t, 64, 32)
	face, err := text.GoRegular(20)
	if err != nil {
		t.Fatal(err)
	}
	tf := text.NewShaper().Shape("Hi", face, text.DirectionAuto)
	f.canvas.DrawPaint(paint(white))
	f.canvas.DrawTextFrame(tf, geom.Pt(4, 24), paint(black))
	img := f.end(t)

	dark := 0
	for y := range 32 {
		for x := range 64 {
			if img.RGBAAt(x, y).R < 128 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Error("text drew no dark pixels")
	}
	checkPixel(t, img, 60, 2, pxWhite, 0)
}

func TestSaveCount(t *testing.T) {
	f := newFrame(t, 8, 8)
	c := f.canvas
	if c.Restore() {
		t.Error("Restore() at the root = true, want false")
	}
	c.Save(0)
	c.Save(0)
	if got := c.GetSaveCount(); got != 3 {
		t.Errorf("GetSaveCount() = %d, want 3", got)
	}
	c.Translate(2, 3)
	c.RestoreToCount(1)
	if got := c.GetSaveCount(); got != 1 {
		t.Errorf("GetSaveCount() after RestoreToCount(1) = %d, want 1", got)
	}
	if m := c.GetTransform(); m != geom.Identity() {
		t.Errorf("GetTransform() = %v, want identity", m)
	}
	f.end(t)
}

func TestEndReplayPanicsOnUnbalancedSaveWhenStrict(t *testing.T) {
	f := newFrame(t, 8, 8)
	f.canvas.Save(0)
	defer func() {
		if recover() == nil {
			t.Error("EndReplay() with an open save did not panic")
		}
	}()
	_ = f.canvas.EndReplay()
}

func TestQuickRejectWithCullRect(t *testing.T) {
	f := newFrame(t, 32, 32, compositor.WithCullRect(geom.MakeXYWH(0, 0, 10, 10)))
	c := f.canvas
	if !c.QuickReject(geom.MakeXYWH(20, 20, 5, 5)) {
		t.Error("QuickReject(outside cull rect) = false, want true")
	}
	if c.QuickReject(geom.MakeXYWH(2, 2, 5, 5)) {
		t.Error("QuickReject(inside cull rect) = true, want false")
	}
	c.Translate(20, 20)
	if c.QuickReject(geom.MakeXYWH(-15, -15, 5, 5)) {
		t.Error("QuickReject(translated inside) = true, want false")
	}
	c.ResetTransform()
	f.end(t)
}

func TestWithRequiresReadback(t *testing.T) {
	f := newFrame(t, 16, 16, compositor.WithRequiresReadback(true))
	f.canvas.DrawPaint(paint(white))
	f.canvas.DrawRect(geom.MakeXYWH(0, 0, 8, 8), paint(red))
	img := f.end(t)

	checkPixel(t, img, 4, 4, pxRed, 0)
	checkPixel(t, img, 12, 12, pxWhite, 0)
	if got := f.sw.Stats().LiveTargets; got != 2 {
		t.Errorf("LiveTargets = %d, want the root and the next frame's readback target", got)
	}
}

func TestWithInitialTransform(t *testing.T) {
	f := newFrame(t, 16, 16, compositor.WithInitialTransform(geom.Scale(2, 2)))
	f.canvas.DrawRect(geom.MakeXYWH(0, 0, 4, 4), paint(red))
	img := f.end(t)

	checkPixel(t, img, 6, 6, pxRed, 0)
	checkPixel(t, img, 10, 10, pxClear, 0)
}

func TestClearColorFoldingMatchesDraw(t *testing.T) {
	scene := func(fold bool) func(c *compositor.Canvas) {
		return func(c *compositor.Canvas) {
			if !fold {
				// Opens the pass so the full-target rect is drawn.
				c.DrawRect(geom.MakeXYWH(0, 0, 1, 1), paint(blend.Transparent))
			}
			c.DrawRect(geom.MakeXYWH(0, 0, 16, 16), paint(red))
			c.DrawRect(geom.MakeXYWH(4, 4, 8, 8), paint(blue.WithAlpha(0.5)))
		}
	}
	folded, foldedStats := renderScene(t, 16, 16, scene(true))
	drawn, drawnStats := renderScene(t, 16, 16, scene(false))
	if foldedStats.Draws >= drawnStats.Draws {
		t.Errorf("Draws folded = %d, drawn = %d, want fewer draws when folded", foldedStats.Draws, drawnStats.Draws)
	}
	if !bytes.Equal(folded.Pix, drawn.Pix) {
		t.Errorf("folded pixel (6, 6) = %v, drawn = %v; want identical images", folded.RGBAAt(6, 6), drawn.RGBAAt(6, 6))
	}
}

func TestDifferenceClipCutsOnlyItsScope(t *testing.T) {
	green := blend.RGBA(0, 1, 0, 1)
	img, _ := renderScene(t, 200, 200, func(c *compositor.Canvas) {
		c.Save(1)
		c.ClipRect(geom.MakeLTRB(50, 50, 100, 100), compositor.ClipDifference, false)
		c.DrawRect(geom.MakeLTRB(0, 0, 200, 200), paint(red))
		c.Restore()
		c.DrawRect(geom.MakeLTRB(0, 0, 200, 200), paint(green))
	})
	want := color.RGBA{0, 255, 0, 255}
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			if got := img.RGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d, %d) = %v, want green", x, y, got)
			}
		}
	}
}

func TestDifferenceClipCoveringCoverageCullsDraws(t *testing.T) {
	f := newFrame(t, 200, 200)
	c := f.canvas
	c.Save(2)
	c.ClipRect(geom.MakeLTRB(50, 50, 100, 100), compositor.ClipIntersect, false)
	c.ClipRect(geom.MakeLTRB(0, 0, 200, 200), compositor.ClipDifference, false)
	before := f.sw.Stats().Draws
	c.DrawPaint(paint(red))
	c.DrawRect(geom.MakeLTRB(60, 60, 90, 90), paint(red))
	if got := f.sw.Stats().Draws; got != before {
		t.Errorf("Draws = %d, want %d; draws under an empty coverage are culled", got, before)
	}
	c.Restore()
	img := f.end(t)

	checkPixel(t, img, 75, 75, pxClear, 0)
	checkPixel(t, img, 10, 10, pxClear, 0)
}

// depthContext logs the depth of every draw.
type depthContext struct {
	*software.Context
	depths *[]uint32
}

func (c depthContext) BeginPass(target compositor.RenderTarget, clear blend.Color) (compositor.RenderPass, error) {
	pass, err := c.Context.BeginPass(target, clear)
	if err != nil {
		return nil, err
	}
	return depthPass{RenderPass: pass, depths: c.depths}, nil
}

type depthPass struct {
	compositor.RenderPass
	depths *[]uint32
}

func (p depthPass) BindUniforms(u compositor.Uniforms) {
	*p.depths = append(*p.depths, u.Depth)
	p.RenderPass.BindUniforms(u)
}

func TestSiblingDepthsIncreaseWithinScope(t *testing.T) {
	sw := software.New()
	target, err := sw.CreateRenderTarget(geom.ISize{W: 32, H: 32}, "root")
	if err != nil {
		t.Fatal(err)
	}
	defer target.Release()
	var depths []uint32
	c, err := compositor.NewCanvas(depthContext{sw, &depths}, target, compositor.WithStrictAsserts(true))
	if err != nil {
		t.Fatal(err)
	}

	c.DrawRect(geom.MakeXYWH(0, 0, 4, 4), paint(red))
	c.Save(3)
	start := len(depths)
	for i := range 3 {
		c.DrawRect(geom.MakeXYWH(float64(4+i*8), 8, 4, 4), paint(blue))
	}
	siblings := append([]uint32(nil), depths[start:]...)
	c.Restore()
	if err := c.EndReplay(); err != nil {
		t.Fatalf("EndReplay() error = %v", err)
	}

	// The scope starts after depth 1 and reserves 3.
	const clipDepth = 4
	if len(siblings) != 3 {
		t.Fatalf("sibling depths = %v, want 3 draws", siblings)
	}
	for i, d := range siblings {
		if d > clipDepth {
			t.Errorf("depth %d = %d, want <= %d", i, d, clipDepth)
		}
		if i > 0 && d <= siblings[i-1] {
			t.Errorf("depths %v do not strictly increase", siblings)
		}
	}
}
