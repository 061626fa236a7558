package compositor

import (
	"fmt"

	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
)

// RenderingMode describes how a frame's content reaches its pass.
type RenderingMode uint8

const (
	// RenderingDirect draws straight into the current pass.
	RenderingDirect RenderingMode = iota
	// RenderingSubpassAppend draws into a save-layer subpass whose filters
	// apply after the entity transform.
	RenderingSubpassAppend
	// RenderingSubpassPrepend draws into a save-layer subpass whose filters
	// apply before the entity transform. It is chosen when the transform
	// has a translation.
	RenderingSubpassPrepend
)

// String returns the string representation of RenderingMode.
func (m RenderingMode) String() string {
	switch m {
	case RenderingDirect:
		return "Direct"
	case RenderingSubpassAppend:
		return "SubpassAppend"
	case RenderingSubpassPrepend:
		return "SubpassPrepend"
	default:
		return fmt.Sprintf("RenderingMode(%d)", int(m))
	}
}

// IsSubpass reports whether the mode belongs to a save-layer frame.
func (m RenderingMode) IsSubpass() bool {
	return m == RenderingSubpassAppend || m == RenderingSubpassPrepend
}

// Entity is one unit of drawing work: contents placed in the current pass.
// Entities are created per draw and rendered immediately.
type Entity struct {
	Contents Contents
	// Transform maps the contents' local space to pass pixels.
	Transform geom.Matrix
	BlendMode blend.Mode
	// ClipDepth is the depth the entity is stamped with. Clips written at a
	// greater or equal depth hide it.
	ClipDepth uint32
}

// Coverage returns the pass-space area the entity may touch.
func (e *Entity) Coverage() (geom.Rect, bool) {
	if e.Contents == nil {
		return geom.Rect{}, false
	}
	return e.Contents.Coverage(e)
}

// SetInheritedOpacity forwards an opacity multiplier to the contents.
func (e *Entity) SetInheritedOpacity(opacity float32) {
	if e.Contents == nil || opacity >= 1 {
		return
	}
	e.Contents.SetInheritedOpacity(opacity)
}

// AsBackgroundColor returns the straight-alpha color the entity paints over
// a whole target of the given size, if it does.
func (e *Entity) AsBackgroundColor(target geom.ISize) (blend.Color, bool) {
	if e.Contents == nil {
		return blend.Color{}, false
	}
	return e.Contents.AsBackgroundColor(e, target)
}

// Render draws the entity into pass.
func (e *Entity) Render(r *Renderer, pass RenderPass) error {
	if e.Contents == nil {
		return nil
	}
	return e.Contents.Render(r, e, pass)
}

// withTransform returns a copy of the entity with a different transform.
func (e *Entity) withTransform(m geom.Matrix) *Entity {
	c := *e
	c.Transform = m
	return &c
}
