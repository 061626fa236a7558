package compositor

import (
	"errors"
	"fmt"
)

// Sentinel errors reported through Diagnostics and wrapped with context.
var (
	// ErrPassCreation is returned when a backend fails to begin or encode a
	// render pass.
	ErrPassCreation = errors.New("compositor: render pass creation failed")

	// ErrNoBackdropTexture is returned when the contents of a pass cannot
	// be captured for a backdrop filter or an emulated blend.
	ErrNoBackdropTexture = errors.New("compositor: backdrop texture unavailable")

	// ErrTargetAllocation is returned when an offscreen render target
	// cannot be allocated.
	ErrTargetAllocation = errors.New("compositor: render target allocation failed")

	// ErrNilContext is returned by NewCanvas without a backend context.
	ErrNilContext = errors.New("compositor: nil context")

	// ErrNilTarget is returned by NewCanvas without a render target.
	ErrNilTarget = errors.New("compositor: nil render target")

	// ErrTextureUpload is returned when image data cannot be uploaded.
	ErrTextureUpload = errors.New("compositor: texture upload failed")
)

// Diagnostic records a recoverable failure of a canvas operation.
type Diagnostic struct {
	// Op names the canvas operation, e.g. "SaveLayer" or "Restore".
	Op  string
	Err error
}

// Error implements error.
func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %v", d.Op, d.Err)
}

// Unwrap returns the underlying error.
func (d Diagnostic) Unwrap() error { return d.Err }
