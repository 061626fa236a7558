// Package backend selects a compositor.Context implementation.
//
// Backends register a factory from init() and are selected at runtime.
// Import the backends you want available:
//
//	import (
//		_ "github.com/gogpu/compositor/backend/software"
//		_ "github.com/gogpu/compositor/backend/wgpu"
//	)
//
// # Backend Selection
//
// Use Default to create a context of the best available backend, or Get
// to request one by name:
//
//	ctx, name, err := backend.Default()
//
//	// Or request a specific backend
//	ctx, err := backend.Get(backend.NameSoftware)
//
// InitDefault keeps one shared context for the whole process, which is
// what most applications want since a context may serve many canvases.
//
// # Available Backends
//
//   - "wgpu": GPU rendering on gogpu/wgpu (fails without an adapter)
//   - "software": CPU reference rasterizer (always available)
package backend
