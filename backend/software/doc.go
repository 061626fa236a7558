// Package software implements compositor.Context on the CPU.
//
// The backend executes render passes the way a GPU would: every target has
// a premultiplied float color attachment, a depth buffer and an 8-bit
// stencil buffer. Pipelines are the fixed set of compositor.Shader programs
// combined with blend, depth and stencil state. A pass records its draws and
// runs them when it is encoded, splitting the target into row bands that
// are rasterized in parallel. Triangles are sampled at pixel centers with a
// top-left fill rule, so shared edges are covered exactly once.
//
// The backend is pixel exact and deterministic, which makes it the reference
// for compositor tests:
//
//	ctx := software.New()
//	target, _ := ctx.CreateRenderTarget(geom.ISize{W: 64, H: 64}, "onscreen")
//	canvas, _ := compositor.NewCanvas(ctx, target)
//	paint := compositor.NewPaint()
//	paint.Color = blend.Red
//	canvas.DrawPaint(&paint)
//	_ = canvas.EndReplay()
//	img, _ := ctx.ReadPixels(target.ColorTexture())
//
// Importing the package registers it with the backend registry under the
// name "software".
package software
