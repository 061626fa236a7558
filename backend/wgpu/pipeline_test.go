//go:build !nogpu

package wgpu

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/blend"
)

func TestBlendState(t *testing.T) {
	tests := []struct {
		mode     blend.Mode
		src, dst gputypes.BlendFactor
	}{
		{blend.ModeSourceOver, gputypes.BlendFactorOne, gputypes.BlendFactorOneMinusSrcAlpha},
		{blend.ModeSource, gputypes.BlendFactorOne, gputypes.BlendFactorZero},
		{blend.ModeDestinationIn, gputypes.BlendFactorZero, gputypes.BlendFactorSrcAlpha},
		{blend.ModeXor, gputypes.BlendFactorOneMinusDstAlpha, gputypes.BlendFactorOneMinusSrcAlpha},
		{blend.ModePlus, gputypes.BlendFactorOne, gputypes.BlendFactorOne},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			bs, ok := blendState(tt.mode)
			if !ok {
				t.Fatalf("blendState(%s) not supported", tt.mode)
			}
			if bs.Color.SrcFactor != tt.src || bs.Color.DstFactor != tt.dst {
				t.Errorf("color factors = %v/%v, want %v/%v", bs.Color.SrcFactor, bs.Color.DstFactor, tt.src, tt.dst)
			}
			if bs.Color.Operation != gputypes.BlendOperationAdd {
				t.Errorf("operation = %v, want add", bs.Color.Operation)
			}
		})
	}
}

func TestBlendStateModulateUsesSourceColor(t *testing.T) {
	bs, ok := blendState(blend.ModeModulate)
	if !ok {
		t.Fatal("modulate not supported")
	}
	if bs.Color.DstFactor != gputypes.BlendFactorSrc {
		t.Errorf("color dst factor = %v, want src color", bs.Color.DstFactor)
	}
	if bs.Alpha.DstFactor != gputypes.BlendFactorSrcAlpha {
		t.Errorf("alpha dst factor = %v, want src alpha", bs.Alpha.DstFactor)
	}
}

func TestBlendStateRejectsAdvanced(t *testing.T) {
	for m := blend.LastPipelineMode + 1; m <= blend.LastAdvancedMode; m++ {
		if _, ok := blendState(m); ok {
			t.Errorf("blendState(%s) supported, want rejected", m)
		}
	}
}

func TestDepthStencilState(t *testing.T) {
	tests := []struct {
		name      string
		desc      compositor.PipelineDescriptor
		compare   gputypes.CompareFunction
		write     bool
		front     hal.StencilFaceState
		backEqual bool
	}{
		{
			name:    "test",
			desc:    compositor.PipelineDescriptor{Depth: compositor.DepthTest},
			compare: gputypes.CompareFunctionGreater,
			front: hal.StencilFaceState{
				Compare: gputypes.CompareFunctionAlways, FailOp: hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep, PassOp: hal.StencilOperationKeep,
			},
			backEqual: true,
		},
		{
			name:    "write max",
			desc:    compositor.PipelineDescriptor{Depth: compositor.DepthWriteMax},
			compare: gputypes.CompareFunctionGreater,
			write:   true,
			front: hal.StencilFaceState{
				Compare: gputypes.CompareFunctionAlways, FailOp: hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep, PassOp: hal.StencilOperationKeep,
			},
			backEqual: true,
		},
		{
			name:    "nonzero write",
			desc:    compositor.PipelineDescriptor{Depth: compositor.DepthAlways, Stencil: compositor.StencilNonZeroWrite},
			compare: gputypes.CompareFunctionAlways,
			front: hal.StencilFaceState{
				Compare: gputypes.CompareFunctionAlways, FailOp: hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationIncrementWrap, PassOp: hal.StencilOperationIncrementWrap,
			},
		},
		{
			name:    "even-odd write",
			desc:    compositor.PipelineDescriptor{Stencil: compositor.StencilEvenOddWrite},
			compare: gputypes.CompareFunctionGreater,
			front: hal.StencilFaceState{
				Compare: gputypes.CompareFunctionAlways, FailOp: hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationInvert, PassOp: hal.StencilOperationInvert,
			},
			backEqual: true,
		},
		{
			name:    "cover not equal",
			desc:    compositor.PipelineDescriptor{Stencil: compositor.StencilCoverNotEqual},
			compare: gputypes.CompareFunctionGreater,
			front: hal.StencilFaceState{
				Compare: gputypes.CompareFunctionNotEqual, FailOp: hal.StencilOperationZero,
				DepthFailOp: hal.StencilOperationZero, PassOp: hal.StencilOperationZero,
			},
			backEqual: true,
		},
		{
			name:    "cover equal",
			desc:    compositor.PipelineDescriptor{Stencil: compositor.StencilCoverEqual},
			compare: gputypes.CompareFunctionGreater,
			front: hal.StencilFaceState{
				Compare: gputypes.CompareFunctionEqual, FailOp: hal.StencilOperationZero,
				DepthFailOp: hal.StencilOperationZero, PassOp: hal.StencilOperationZero,
			},
			backEqual: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := depthStencilState(tt.desc)
			if ds.Format != depthStencilFormat {
				t.Errorf("format = %v, want depth24plus-stencil8", ds.Format)
			}
			if ds.DepthCompare != tt.compare {
				t.Errorf("DepthCompare = %v, want %v", ds.DepthCompare, tt.compare)
			}
			if ds.DepthWriteEnabled != tt.write {
				t.Errorf("DepthWriteEnabled = %v, want %v", ds.DepthWriteEnabled, tt.write)
			}
			if ds.StencilFront != tt.front {
				t.Errorf("StencilFront = %+v, want %+v", ds.StencilFront, tt.front)
			}
			if (ds.StencilBack == ds.StencilFront) != tt.backEqual {
				t.Errorf("StencilBack = %+v, front = %+v, want equal: %v", ds.StencilBack, ds.StencilFront, tt.backEqual)
			}
		})
	}
}

func TestNonZeroWriteDecrementsBackFaces(t *testing.T) {
	ds := depthStencilState(compositor.PipelineDescriptor{Stencil: compositor.StencilNonZeroWrite})
	if ds.StencilBack.PassOp != hal.StencilOperationDecrementWrap {
		t.Errorf("back PassOp = %v, want decrement-wrap", ds.StencilBack.PassOp)
	}
}

func TestPipelineCacheReuses(t *testing.T) {
	dev, _ := createNoopDevice(t)
	pc, err := newPipelineCache(dev, discardLogger(), "test", 1)
	if err != nil {
		t.Fatalf("newPipelineCache() error = %v", err)
	}
	defer pc.destroy()

	desc := compositor.PipelineDescriptor{Shader: compositor.ShaderTexture, Blend: blend.ModeSourceOver}
	a, err := pc.get(desc)
	if err != nil {
		t.Fatalf("get() error = %v", err)
	}
	b, err := pc.get(desc)
	if err != nil {
		t.Fatalf("get() error = %v", err)
	}
	if a != b {
		t.Error("second get() created a new pipeline")
	}
	if _, err := pc.get(compositor.PipelineDescriptor{Shader: compositor.ShaderSolid, NoColor: true}); err != nil {
		t.Fatalf("get(nocolor) error = %v", err)
	}
	if got := pc.len(); got != 2 {
		t.Errorf("len() = %d, want 2", got)
	}
}

func TestDescribeNoColorMasksWrites(t *testing.T) {
	pc := &pipelineCache{label: "test", sampleCount: 4}
	rd, err := pc.describe(compositor.PipelineDescriptor{Shader: compositor.ShaderSolid, Blend: blend.ModeMultiply, NoColor: true})
	if err != nil {
		t.Fatalf("describe() error = %v", err)
	}
	target := rd.Fragment.Targets[0]
	if target.WriteMask != gputypes.ColorWriteMaskNone || target.Blend != nil {
		t.Errorf("target = %+v, want no writes and no blend", target)
	}
	if rd.Multisample.Count != 4 {
		t.Errorf("sample count = %d, want 4", rd.Multisample.Count)
	}
	if rd.Fragment.EntryPoint != "fs_solid" || rd.Vertex.EntryPoint != vertexEntry {
		t.Errorf("entry points = %s/%s", rd.Vertex.EntryPoint, rd.Fragment.EntryPoint)
	}
}
