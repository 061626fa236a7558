// Package recording captures the pass plan of a compositor.
//
// A Recorder wraps a compositor.Context. Every target it allocates, every
// image it uploads and every render pass opened through it is forwarded to
// the wrapped context and recorded as typed commands. The result is a
// Recording: the physical passes a frame was lowered into, in submission
// order, with the pipeline, uniforms, textures and triangles of each draw.
//
// Recordings serve two purposes. Formatters print them as a readable pass
// plan, which is how pass elision, clear-color folding and backdrop flips
// are inspected. Playback re-executes them on any other context, e.g. to
// render a frame captured on the GPU backend with the software backend.
//
// # Example
//
//	rec := recording.NewRecorder(software.New())
//	target, _ := rec.CreateRenderTarget(geom.ISize{W: 256, H: 256}, "root")
//	canvas, _ := compositor.NewCanvas(rec, target)
//	canvas.DrawRect(geom.MakeXYWH(10, 10, 100, 100), &paint)
//	_ = canvas.EndReplay()
//
//	plan := rec.Finish()
//	f, _ := recording.NewFormatter("text")
//	_ = f.Format(os.Stdout, plan)
//
// # Resources
//
// Targets and textures are referenced by TargetRef and TextureRef, indices
// into the recording's ResourcePool. Uploaded images are kept by the pool so
// that playback can upload them again. Targets and textures that were not
// created through the Recorder are recorded as external: playback creates a
// blank target of the same size for an external target, and fails on an
// external texture because its pixels are unknown.
package recording
