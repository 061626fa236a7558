// Package compositor is an immediate-mode 2D layer compositor over GPU
// render passes.
//
// # Overview
//
// A Canvas turns drawing calls into entities and renders them immediately
// into render passes of a backend Context. It keeps a stack of save
// levels, each with a transform and a clip, and opens an offscreen pass for
// every SaveLayer that cannot be elided. Restore composites the layer back
// with the layer paint's alpha, filters and blend mode.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/compositor"
//	    "github.com/gogpu/compositor/backend/software"
//	    "github.com/gogpu/compositor/blend"
//	    "github.com/gogpu/compositor/geom"
//	)
//
//	ctx := software.New()
//	target, _ := ctx.CreateRenderTarget(geom.ISize{W: 256, H: 256}, "frame")
//	canvas, _ := compositor.NewCanvas(ctx, target)
//
//	bg := compositor.NewColorPaint(blend.RGBA(1, 1, 1, 1))
//	canvas.DrawPaint(&bg)
//
//	layer := compositor.NewColorPaint(blend.RGBA(0, 0, 0, 0.5))
//	layer.ImageFilter = compositor.NewBlurImageFilter(4, 4)
//	canvas.SaveLayer(&layer, nil, nil, compositor.BoundsUnknown, 1, false)
//	red := compositor.NewColorPaint(blend.RGBA(1, 0, 0, 1))
//	canvas.DrawCircle(geom.Pt(128, 128), 64, &red)
//	canvas.Restore()
//
//	if err := canvas.EndReplay(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Depth and clips
//
// Every draw is stamped with a depth one greater than the previous draw.
// Clips write the depth ceiling of their save scope outside the clipped
// area, so depth testing hides later draws of the scope there. Save and
// SaveLayer take the number of draws and clips the scope will issue to
// compute that ceiling. Rectangular clips aligned to the pixel grid only
// narrow the scissor.
//
// # Peepholes
//
// Draws that cover the whole pass before anything else is drawn are folded
// into the pass clear color. Opaque source-over draws are drawn with the
// cheaper source mode. An alpha-only layer whose children do not overlap
// can distribute its alpha to the children instead of allocating a pass.
//
// # Blending
//
// Porter-Duff modes up to blend.LastPipelineMode map to fixed-function
// blending. Advanced modes read the destination: through framebuffer fetch
// when the backend supports it, or by ending the pass and reopening it on a
// second target with the old content copied in.
//
// # Backends
//
// backend/software is a CPU rasterizer used by tests and tools. backend/wgpu
// renders through WebGPU. The recording package wraps any backend to
// capture the pass plan of a frame.
//
// # Errors
//
// Failures inside drawing calls do not abort the frame. They are logged and
// collected as Diagnostics; EndReplay returns encode failures.
package compositor
