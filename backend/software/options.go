package software

import (
	"log/slog"

	"github.com/gogpu/compositor/geom"
)

// Option configures a software Context.
//
// Example:
//
//	// Emulate a device limited to 2048x2048 attachments
//	ctx := software.New(software.WithMaxAttachmentSize(geom.ISize{W: 2048, H: 2048}))
//
//	// Let advanced blends read the destination directly
//	ctx := software.New(software.WithFramebufferFetch(true))
type Option func(*options)

type options struct {
	maxAttachment    geom.ISize
	framebufferFetch bool
	logger           *slog.Logger
	bandHeight       int
	poolLimit        int
}

const defaultBandHeight = 32

func defaultOptions() options {
	return options{bandHeight: defaultBandHeight, poolLimit: -1}
}

// WithMaxAttachmentSize limits the size of render targets. Larger requests
// fail with ErrTargetTooLarge. Zero means unlimited.
func WithMaxAttachmentSize(s geom.ISize) Option {
	return func(o *options) {
		o.maxAttachment = s
	}
}

// WithFramebufferFetch makes the context report framebuffer fetch support
// and accept ShaderFramebufferBlend pipelines.
func WithFramebufferFetch(enabled bool) Option {
	return func(o *options) {
		o.framebufferFetch = enabled
	}
}

// WithLogger sets the logger of the context. It defaults to
// compositor.Logger().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithBandHeight sets the number of rows rasterized per parallel task.
func WithBandHeight(rows int) Option {
	return func(o *options) {
		if rows > 0 {
			o.bandHeight = rows
		}
	}
}

// WithPoolLimit sets how many idle targets of each size are kept for reuse.
func WithPoolLimit(n int) Option {
	return func(o *options) {
		o.poolLimit = n
	}
}
