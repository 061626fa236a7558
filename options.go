package compositor

import "github.com/gogpu/compositor/geom"

// CanvasOption configures a Canvas during creation.
//
// Example:
//
//	// Render the whole target
//	c, err := compositor.NewCanvas(ctx, target)
//
//	// Render only a damaged region, asserting on contract violations
//	c, err := compositor.NewCanvas(ctx, target,
//	    compositor.WithCullRect(damage),
//	    compositor.WithStrictAsserts(true))
type CanvasOption func(*canvasOptions)

// canvasOptions holds optional configuration for Canvas creation.
type canvasOptions struct {
	cullRect         *geom.Rect
	initialTransform geom.Matrix
	provider         ContentProvider
	strict           bool
	requiresReadback bool
}

// defaultOptions returns the default canvas options.
func defaultOptions() canvasOptions {
	return canvasOptions{
		initialTransform: geom.Identity(),
		provider:         nil, // Will be set to the built-in provider if nil
	}
}

// WithCullRect limits the initial coverage to r instead of the whole
// target. Content outside r is culled.
func WithCullRect(r geom.Rect) CanvasOption {
	return func(o *canvasOptions) {
		o.cullRect = &r
	}
}

// WithInitialTransform sets the transform of the root save level.
func WithInitialTransform(m geom.Matrix) CanvasOption {
	return func(o *canvasOptions) {
		o.initialTransform = m
	}
}

// WithContentProvider replaces the factory that turns paints and geometry
// into contents. Use this to plug in custom color sources.
func WithContentProvider(p ContentProvider) CanvasOption {
	return func(o *canvasOptions) {
		o.provider = p
	}
}

// WithStrictAsserts makes contract violations panic instead of only being
// logged. Tests run with strict asserts.
func WithStrictAsserts(strict bool) CanvasOption {
	return func(o *canvasOptions) {
		o.strict = strict
	}
}

// WithRequiresReadback renders the root pass into an offscreen target that
// is blitted onto the real target by EndReplay. Use it when the target
// cannot be sampled, e.g. a swapchain image, and the first layer needs a
// backdrop.
func WithRequiresReadback(readback bool) CanvasOption {
	return func(o *canvasOptions) {
		o.requiresReadback = readback
	}
}
