//go:build !nogpu

package wgpu

import "errors"

var (
	// ErrNoAdapter is returned when no HAL backend exposes an adapter.
	ErrNoAdapter = errors.New("wgpu: no GPU adapter available")
	// ErrNotHALProvider is returned when a device provider does not expose
	// HAL device and queue objects.
	ErrNotHALProvider = errors.New("wgpu: provider does not expose HAL types")
	// ErrClosed is returned by operations on a closed context.
	ErrClosed = errors.New("wgpu: context closed")
	// ErrTargetTooLarge is returned when a target exceeds the device limit.
	ErrTargetTooLarge = errors.New("wgpu: render target exceeds max attachment size")
	// ErrEmptySize is returned for targets or images without pixels.
	ErrEmptySize = errors.New("wgpu: empty size")
	// ErrForeignResource is returned for targets or textures created by
	// another context.
	ErrForeignResource = errors.New("wgpu: resource belongs to another context")
	// ErrPassEnded is returned when a pass is used after Encode.
	ErrPassEnded = errors.New("wgpu: pass already encoded")
	// ErrNoPipeline is returned by Draw before BindPipeline.
	ErrNoPipeline = errors.New("wgpu: no pipeline bound")
	// ErrUnsupportedPipeline is returned for pipelines the device cannot
	// express, such as framebuffer fetch or advanced fixed-function blends.
	ErrUnsupportedPipeline = errors.New("wgpu: unsupported pipeline")
	// ErrMissingTexture is returned when a shader needs an unbound slot.
	ErrMissingTexture = errors.New("wgpu: texture slot not bound")
	// ErrVertexCount is returned for vertex lists that are not triangle
	// lists or whose uv count differs.
	ErrVertexCount = errors.New("wgpu: invalid vertex count")
	// ErrGPUTimeout is returned when readback does not complete in time.
	ErrGPUTimeout = errors.New("wgpu: timed out waiting for GPU")
)
