// Package wgpu implements compositor.Context on the gogpu/wgpu hardware
// abstraction layer.
//
// Render targets are RGBA8 color textures paired with a Depth24PlusStencil8
// attachment, optionally multisampled. Every pipeline shares one WGSL module
// (shaders/compositor.wgsl) whose fragment entry points implement the
// compositor shaders: solid fill, textured fill with color filters, alpha
// mask, separable blur and backdrop-reading advanced blends. The module is
// compiled to SPIR-V with naga when the context is created, and both forms
// are handed to the device so every HAL backend can consume it.
//
// Pipelines are created on first use and cached by descriptor. Depth uses a
// greater-than test against a buffer cleared to zero, which matches the
// compositor's increasing draw depths.
//
// # Resource lifetime
//
// Targets are reference counted and recycled through a size-bucketed pool.
// Device objects are never destroyed directly from Release: they are retired
// with the submission index of their last use and collected by an internal
// reactor once the queue reports that submission complete, on the next call
// that owns the device.
//
// # Usage
//
//	ctx, err := wgpu.New()
//	if err != nil {
//		// no adapter: fall back to the software backend
//	}
//	defer ctx.Close()
//
// A host application that already owns a device passes it in through
// NewContextFromProvider. Importing the package registers the backend with
// the backend registry under "wgpu". Build with the nogpu tag to leave it
// out.
package wgpu
