//go:build !nogpu

package main

import (
	"log/slog"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/backend/wgpu"
)

// openGPU opens the wgpu backend.
func openGPU(cfg Config, log *slog.Logger) (compositor.Context, func() error, error) {
	ctx, err := wgpu.New(
		wgpu.WithLabel("passplan"),
		wgpu.WithSampleCount(uint32(cfg.SampleCount)), //nolint:gosec // validated 1 or 4
		wgpu.WithLogger(log),
	)
	if err != nil {
		return nil, nil, err
	}
	log.Info("passplan: gpu backend", "adapter", ctx.Info().String())
	return ctx, ctx.Close, nil
}
