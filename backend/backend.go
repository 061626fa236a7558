package backend

import (
	"errors"

	"github.com/gogpu/compositor"
)

// Backend names.
const (
	// NameSoftware is the CPU backend in backend/software.
	NameSoftware = "software"
	// NameWGPU is the GPU backend on gogpu/wgpu in backend/wgpu.
	NameWGPU = "wgpu"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// registered or none can be created.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Factory creates a compositor context. Factories of GPU backends fail
// when no adapter is present, which lets Default fall back.
type Factory func() (compositor.Context, error)
