//go:build !nogpu

package wgpu

import (
	"log/slog"
	"time"
)

// Option configures a Context.
type Option func(*options)

type options struct {
	label       string
	sampleCount uint32
	logger      *slog.Logger
	poolLimit   int
	waitTimeout time.Duration
}

const (
	defaultLabel       = "compositor"
	defaultWaitTimeout = 5 * time.Second
)

func defaultOptions() options {
	return options{
		label:       defaultLabel,
		sampleCount: 1,
		poolLimit:   -1,
		waitTimeout: defaultWaitTimeout,
	}
}

// WithLabel sets the prefix of every debug label the context assigns.
func WithLabel(label string) Option {
	return func(o *options) {
		if label != "" {
			o.label = label
		}
	}
}

// WithSampleCount enables multisampling. Color attachments are resolved
// into the target texture at the end of each pass. Counts other than 1 and
// 4 are ignored.
func WithSampleCount(n uint32) Option {
	return func(o *options) {
		if n == 1 || n == 4 {
			o.sampleCount = n
		}
	}
}

// WithLogger sets the context logger. It defaults to compositor.Logger().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithPoolLimit bounds idle targets kept per size. Zero disables pooling.
func WithPoolLimit(n int) Option {
	return func(o *options) { o.poolLimit = n }
}

// WithWaitTimeout bounds how long readback waits for the GPU.
func WithWaitTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.waitTimeout = d
		}
	}
}
