//go:build !nogpu

package wgpu

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/blend"
)

// Attachment formats of every render target.
const (
	colorFormat        = gputypes.TextureFormatRGBA8Unorm
	depthStencilFormat = gputypes.TextureFormatDepth24PlusStencil8
)

// Bind group 0 layout of compositor.wgsl.
const (
	bindingUniforms = 0
	bindingTexture  = 1
	bindingSampler  = 2
	bindingBackdrop = 3
)

// pipelineCache owns the shader module, the shared layouts and the render
// pipelines created so far, keyed by descriptor.
//
// Pipelines are created on first use. The cache is safe for concurrent use.
type pipelineCache struct {
	device      hal.Device
	log         *slog.Logger
	label       string
	sampleCount uint32

	mu             sync.Mutex
	shader         hal.ShaderModule
	bindLayout     hal.BindGroupLayout
	pipelineLayout hal.PipelineLayout
	pipelines      map[compositor.PipelineDescriptor]hal.RenderPipeline
}

func newPipelineCache(device hal.Device, log *slog.Logger, label string, sampleCount uint32) (*pipelineCache, error) {
	pc := &pipelineCache{
		device:      device,
		log:         log,
		label:       label,
		sampleCount: sampleCount,
		pipelines:   make(map[compositor.PipelineDescriptor]hal.RenderPipeline),
	}
	if err := pc.createShared(); err != nil {
		pc.destroy()
		return nil, err
	}
	return pc, nil
}

func (pc *pipelineCache) createShared() error {
	var err error
	pc.shader, err = pc.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  pc.label + "_shader",
		Source: shaderSource(pc.log),
	})
	if err != nil {
		return fmt.Errorf("wgpu: create shader module: %w", err)
	}

	pc.bindLayout, err = pc.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: pc.label + "_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    bindingUniforms,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    bindingTexture,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    bindingSampler,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
			{
				Binding:    bindingBackdrop,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create bind group layout: %w", err)
	}

	pc.pipelineLayout, err = pc.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            pc.label + "_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{pc.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}
	return nil
}

// get returns the pipeline for desc, creating it on first use.
func (pc *pipelineCache) get(desc compositor.PipelineDescriptor) (hal.RenderPipeline, error) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if p, ok := pc.pipelines[desc]; ok {
		return p, nil
	}
	rd, err := pc.describe(desc)
	if err != nil {
		return nil, err
	}
	p, err := pc.device.CreateRenderPipeline(rd)
	if err != nil {
		return nil, fmt.Errorf("wgpu: create pipeline %s: %w", desc, err)
	}
	pc.pipelines[desc] = p
	return p, nil
}

// len returns the number of cached pipelines.
func (pc *pipelineCache) len() int {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return len(pc.pipelines)
}

// describe translates a compositor pipeline into a HAL descriptor.
func (pc *pipelineCache) describe(desc compositor.PipelineDescriptor) (*hal.RenderPipelineDescriptor, error) {
	entry, ok := fragmentEntry(desc.Shader)
	if !ok {
		return nil, fmt.Errorf("%w: shader %s", ErrUnsupportedPipeline, desc.Shader)
	}
	target := gputypes.ColorTargetState{
		Format:    colorFormat,
		WriteMask: gputypes.ColorWriteMaskAll,
	}
	if desc.NoColor {
		target.WriteMask = gputypes.ColorWriteMaskNone
	} else {
		bs, ok := blendState(desc.Blend)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not a fixed-function blend", ErrUnsupportedPipeline, desc.Blend)
		}
		target.Blend = &bs
	}
	return &hal.RenderPipelineDescriptor{
		Label:  pc.label + "_" + desc.String(),
		Layout: pc.pipelineLayout,
		Vertex: hal.VertexState{
			Module:     pc.shader,
			EntryPoint: vertexEntry,
			Buffers: []gputypes.VertexBufferLayout{{
				ArrayStride: vertexStride,
				StepMode:    gputypes.VertexStepModeVertex,
				Attributes: []gputypes.VertexAttribute{
					{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
				},
			}},
		},
		Fragment: &hal.FragmentState{
			Module:     pc.shader,
			EntryPoint: entry,
			Targets:    []gputypes.ColorTargetState{target},
		},
		DepthStencil: depthStencilState(desc),
		Multisample: gputypes.MultisampleState{
			Count: pc.sampleCount,
			Mask:  0xFFFFFFFF,
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeNone,
		},
	}, nil
}

// blendState maps a Porter-Duff mode onto blend factors. Advanced modes
// have no fixed-function form.
func blendState(m blend.Mode) (gputypes.BlendState, bool) {
	f, ok := m.PipelineFactors()
	if !ok {
		return gputypes.BlendState{}, false
	}
	color := gputypes.BlendComponent{
		SrcFactor: blendFactor(f.Src, false),
		DstFactor: blendFactor(f.Dst, false),
		Operation: gputypes.BlendOperationAdd,
	}
	alpha := gputypes.BlendComponent{
		SrcFactor: blendFactor(f.Src, true),
		DstFactor: blendFactor(f.Dst, true),
		Operation: gputypes.BlendOperationAdd,
	}
	return gputypes.BlendState{Color: color, Alpha: alpha}, true
}

// blendFactor converts a factor. FactorSrcColor multiplies each channel by
// the matching source channel, which for alpha is the source alpha.
func blendFactor(f blend.Factor, alpha bool) gputypes.BlendFactor {
	switch f {
	case blend.FactorOne:
		return gputypes.BlendFactorOne
	case blend.FactorSrcColor:
		if alpha {
			return gputypes.BlendFactorSrcAlpha
		}
		return gputypes.BlendFactorSrc
	case blend.FactorSrcAlpha:
		return gputypes.BlendFactorSrcAlpha
	case blend.FactorOneMinusSrcAlpha:
		return gputypes.BlendFactorOneMinusSrcAlpha
	case blend.FactorDstAlpha:
		return gputypes.BlendFactorDstAlpha
	case blend.FactorOneMinusDstAlpha:
		return gputypes.BlendFactorOneMinusDstAlpha
	default:
		return gputypes.BlendFactorZero
	}
}

// depthStencilState encodes the depth and stencil modes. Depth is cleared
// to zero, so "greater" passes draws stamped after what is stored.
func depthStencilState(desc compositor.PipelineDescriptor) *hal.DepthStencilState {
	ds := &hal.DepthStencilState{
		Format:           depthStencilFormat,
		DepthCompare:     gputypes.CompareFunctionGreater,
		StencilReadMask:  0xFF,
		StencilWriteMask: 0xFF,
	}
	switch desc.Depth {
	case compositor.DepthAlways:
		ds.DepthCompare = gputypes.CompareFunctionAlways
	case compositor.DepthWriteMax:
		ds.DepthWriteEnabled = true
	}

	keep := hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}
	ds.StencilFront, ds.StencilBack = keep, keep
	switch desc.Stencil {
	case compositor.StencilNonZeroWrite:
		ds.StencilFront = writeFace(hal.StencilOperationIncrementWrap)
		ds.StencilBack = writeFace(hal.StencilOperationDecrementWrap)
	case compositor.StencilEvenOddWrite:
		ds.StencilFront = writeFace(hal.StencilOperationInvert)
		ds.StencilBack = ds.StencilFront
	case compositor.StencilCoverNotEqual:
		ds.StencilFront = coverFace(gputypes.CompareFunctionNotEqual)
		ds.StencilBack = ds.StencilFront
	case compositor.StencilCoverEqual:
		ds.StencilFront = coverFace(gputypes.CompareFunctionEqual)
		ds.StencilBack = ds.StencilFront
	}
	return ds
}

// writeFace updates the stencil whether or not the depth test passes.
func writeFace(op hal.StencilOperation) hal.StencilFaceState {
	return hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: op,
		PassOp:      op,
	}
}

// coverFace tests against reference 0 and zeroes every touched pixel.
func coverFace(cmp gputypes.CompareFunction) hal.StencilFaceState {
	return hal.StencilFaceState{
		Compare:     cmp,
		FailOp:      hal.StencilOperationZero,
		DepthFailOp: hal.StencilOperationZero,
		PassOp:      hal.StencilOperationZero,
	}
}

// destroy releases pipelines, layouts and the shader module.
func (pc *pipelineCache) destroy() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	for desc, p := range pc.pipelines {
		pc.device.DestroyRenderPipeline(p)
		delete(pc.pipelines, desc)
	}
	if pc.pipelineLayout != nil {
		pc.device.DestroyPipelineLayout(pc.pipelineLayout)
		pc.pipelineLayout = nil
	}
	if pc.bindLayout != nil {
		pc.device.DestroyBindGroupLayout(pc.bindLayout)
		pc.bindLayout = nil
	}
	if pc.shader != nil {
		pc.device.DestroyShaderModule(pc.shader)
		pc.shader = nil
	}
}
