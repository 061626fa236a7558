//go:build nogpu

package main

import (
	"errors"
	"log/slog"

	"github.com/gogpu/compositor"
)

func openGPU(Config, *slog.Logger) (compositor.Context, func() error, error) {
	return nil, nil, errors.New("built with nogpu")
}
