package software

import "errors"

var (
	// ErrTargetTooLarge is returned for targets over the attachment limit.
	ErrTargetTooLarge = errors.New("software: target exceeds max attachment size")

	// ErrEmptySize is returned for targets and textures without pixels.
	ErrEmptySize = errors.New("software: empty size")

	// ErrForeignResource is returned when a target or texture was not
	// created by a software context.
	ErrForeignResource = errors.New("software: resource not created by this backend")

	// ErrPassEnded is returned by operations on an encoded pass.
	ErrPassEnded = errors.New("software: render pass already encoded")

	// ErrNoPipeline is returned by Draw before BindPipeline.
	ErrNoPipeline = errors.New("software: no pipeline bound")

	// ErrUnsupportedPipeline is returned for pipelines the context cannot
	// run, such as framebuffer fetch without WithFramebufferFetch.
	ErrUnsupportedPipeline = errors.New("software: unsupported pipeline")

	// ErrMissingTexture is returned when a shader samples an unbound slot.
	ErrMissingTexture = errors.New("software: texture slot not bound")

	// ErrVertexCount is returned for vertex lists that are not triangles or
	// whose texture coordinates do not match.
	ErrVertexCount = errors.New("software: invalid vertex count")
)
