package recording

import (
	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/blend"
	"github.com/gogpu/compositor/geom"
)

// CommandType identifies the type of a command.
type CommandType uint8

const (
	// Context commands
	CmdCreateTarget  CommandType = iota // Allocate an offscreen target
	CmdUploadTexture                    // Upload an image
	CmdPass                             // One encoded render pass
	CmdBlit                             // Copy a texture onto another

	// Pass commands
	CmdSetViewport  // Set the pass viewport
	CmdSetScissor   // Set the pass scissor
	CmdBindPipeline // Select the fixed-function state
	CmdBindUniforms // Set the per-draw shader inputs
	CmdBindTexture  // Bind a texture to a slot
	CmdDraw         // Rasterize a triangle list
)

var commandTypeNames = [...]string{
	CmdCreateTarget:  "CreateTarget",
	CmdUploadTexture: "UploadTexture",
	CmdPass:          "Pass",
	CmdBlit:          "Blit",
	CmdSetViewport:   "SetViewport",
	CmdSetScissor:    "SetScissor",
	CmdBindPipeline:  "BindPipeline",
	CmdBindUniforms:  "BindUniforms",
	CmdBindTexture:   "BindTexture",
	CmdDraw:          "Draw",
}

// String returns the string representation of a CommandType.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// IsPassCommand reports whether the command is recorded inside a pass.
func (c CommandType) IsPassCommand() bool {
	return c >= CmdSetViewport && c <= CmdDraw
}

// Command is the interface implemented by all command types.
type Command interface {
	// Type returns the CommandType for this command.
	Type() CommandType
}

// TargetRef is a reference to a render target in the resource pool.
type TargetRef uint32

// TextureRef is a reference to a texture in the resource pool.
type TextureRef uint32

// InvalidRef marks an absent reference, e.g. an unbound texture slot.
const InvalidRef = ^uint32(0)

// IsValid reports whether the reference is not InvalidRef.
func (r TargetRef) IsValid() bool { return uint32(r) != InvalidRef }

// IsValid reports whether the reference is not InvalidRef.
func (r TextureRef) IsValid() bool { return uint32(r) != InvalidRef }

// --------------------------------------------------------------------------
// Context commands
// --------------------------------------------------------------------------

// CreateTarget records the allocation of an offscreen target.
type CreateTarget struct {
	Target TargetRef
	Size   geom.ISize
	Label  string
}

// Type implements Command.
func (CreateTarget) Type() CommandType { return CmdCreateTarget }

// UploadTexture records an image upload. The image is kept by the pool.
type UploadTexture struct {
	Texture TextureRef
	Size    geom.ISize
	Label   string
}

// Type implements Command.
func (UploadTexture) Type() CommandType { return CmdUploadTexture }

// Blit records a texture copy.
type Blit struct {
	Src, Dst TextureRef
}

// Type implements Command.
func (Blit) Type() CommandType { return CmdBlit }

// Pass is one encoded render pass with the commands recorded into it.
type Pass struct {
	// Index counts passes in the order they were begun.
	Index  int
	Target TargetRef
	// Clear is the premultiplied clear color.
	Clear    blend.Color
	Commands []Command
}

// Type implements Command.
func (*Pass) Type() CommandType { return CmdPass }

// Draws returns the number of draw commands in the pass.
func (p *Pass) Draws() int {
	n := 0
	for _, c := range p.Commands {
		if c.Type() == CmdDraw {
			n++
		}
	}
	return n
}

// Pipelines returns the pipelines bound in the pass, in order.
func (p *Pass) Pipelines() []compositor.PipelineDescriptor {
	var out []compositor.PipelineDescriptor
	for _, c := range p.Commands {
		if b, ok := c.(BindPipeline); ok {
			out = append(out, b.Pipeline)
		}
	}
	return out
}

// --------------------------------------------------------------------------
// Pass commands
// --------------------------------------------------------------------------

// SetViewport records a viewport change.
type SetViewport struct {
	Rect geom.Rect
}

// Type implements Command.
func (SetViewport) Type() CommandType { return CmdSetViewport }

// SetScissor records a scissor change.
type SetScissor struct {
	Rect geom.IRect
}

// Type implements Command.
func (SetScissor) Type() CommandType { return CmdSetScissor }

// BindPipeline records a pipeline change.
type BindPipeline struct {
	Pipeline compositor.PipelineDescriptor
}

// Type implements Command.
func (BindPipeline) Type() CommandType { return CmdBindPipeline }

// BindUniforms records the uniforms of the following draws.
type BindUniforms struct {
	Uniforms compositor.Uniforms
}

// Type implements Command.
func (BindUniforms) Type() CommandType { return CmdBindUniforms }

// BindTexture records a texture binding. Texture is InvalidRef when the
// slot was unbound.
type BindTexture struct {
	Slot     int
	Texture  TextureRef
	Sampling compositor.Sampling
}

// Type implements Command.
func (BindTexture) Type() CommandType { return CmdBindTexture }

// Draw records a triangle list in target pixels. UVs is nil or parallel to
// Vertices.
type Draw struct {
	Vertices []geom.Point
	UVs      []geom.Point
}

// Type implements Command.
func (Draw) Type() CommandType { return CmdDraw }

// Bounds returns the bounding box of the vertices.
func (d Draw) Bounds() (geom.Rect, bool) {
	return geom.MakePointBounds(d.Vertices)
}
