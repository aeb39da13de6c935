// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package passes

import (
	"fmt"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Fullscreen draws a single fullscreen triangle with a fragment shader that
// samples its inputs.
//
// The fragment source is WGSL with an fs_main entry point taking
// VertexOutput (position, uv). Group 0 holds a filtering sampler at binding
// 0 and the inputs, in order, at bindings 1..N. Pipeline objects are
// created on first Execute; per-frame bind groups are released through the
// graph's deferred deletion queue.
type Fullscreen struct {
	name   string
	spirv  []uint32
	format gputypes.TextureFormat
	inputs []*framegraph.TextureHandle
	output *framegraph.TextureHandle
	create *framegraph.TextureDesc

	device     hal.Device
	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
	sampler    hal.Sampler
	initErr    error
}

// NewFullscreen compiles fragmentWGSL and returns a pass that renders it
// into *output, a texture of the given format, reading *inputs.
func NewFullscreen(name, fragmentWGSL string, format gputypes.TextureFormat,
	output *framegraph.TextureHandle, inputs ...*framegraph.TextureHandle,
) (*Fullscreen, error) {
	words, err := compileFullscreen(fragmentWGSL)
	if err != nil {
		return nil, fmt.Errorf("passes: %s: %w", name, err)
	}
	refs := make([]*framegraph.TextureHandle, len(inputs))
	for i, in := range inputs {
		refs[i] = textureRef(in)
	}
	return &Fullscreen{
		name:   name,
		spirv:  words,
		format: format,
		inputs: refs,
		output: textureRef(output),
	}, nil
}

// CreateOutput makes the pass create its output as a transient texture
// from desc during Setup. The desc format overrides the pipeline format.
func (p *Fullscreen) CreateOutput(desc framegraph.TextureDesc) *Fullscreen {
	p.create = &desc
	p.format = desc.Format
	return p
}

// Name implements framegraph.Pass.
func (p *Fullscreen) Name() string { return p.name }

// Setup implements framegraph.Pass.
func (p *Fullscreen) Setup(b *framegraph.Builder) {
	for _, in := range p.inputs {
		b.ReadTexture(*in)
	}
	if p.create != nil {
		*p.output = b.CreateTexture(p.name, *p.create)
	}
	b.WriteTexture(*p.output)
}

// Execute implements framegraph.Pass.
func (p *Fullscreen) Execute(ctx *framegraph.Context) {
	target := ctx.TextureView(*p.output)
	if target == nil {
		return
	}
	if err := p.ensurePipeline(ctx.Device()); err != nil {
		framegraph.Logger().Warn("passes: fullscreen pipeline unavailable, skipped",
			"pass", p.name, "err", err)
		return
	}

	entries := make([]gputypes.BindGroupEntry, 0, len(p.inputs)+1)
	entries = append(entries, gputypes.BindGroupEntry{
		Binding:  0,
		Resource: gputypes.SamplerBinding{Sampler: p.sampler.NativeHandle()},
	})
	for i, in := range p.inputs {
		view := ctx.TextureView(*in)
		if view == nil {
			return
		}
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  uint32(i + 1),
			Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()},
		})
	}

	device := p.device
	group, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   p.name + "_bind_group",
		Layout:  p.bindLayout,
		Entries: entries,
	})
	if err != nil {
		framegraph.Logger().Warn("passes: create bind group failed, skipped",
			"pass", p.name, "err", err)
		return
	}
	ctx.Defer(p.name+" bind group", func() { device.DestroyBindGroup(group) })

	rp := ctx.Encoder().BeginRenderPass(&hal.RenderPassDescriptor{
		Label: p.name,
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    target,
			LoadOp:  gputypes.LoadOpClear,
			StoreOp: gputypes.StoreOpStore,
		}},
	})
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, group, nil)
	rp.Draw(3, 1, 0, 0)
	rp.End()
}

// ensurePipeline creates the pipeline objects on first use. A failure is
// remembered and not retried.
func (p *Fullscreen) ensurePipeline(device hal.Device) error {
	if p.pipeline != nil {
		return nil
	}
	if p.initErr != nil {
		return p.initErr
	}
	p.device = device
	if err := p.createPipeline(); err != nil {
		p.destroy()
		p.initErr = err
		return err
	}
	return nil
}

func (p *Fullscreen) createPipeline() error {
	shader, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  p.name + "_shader",
		Source: hal.ShaderSource{SPIRV: p.spirv},
	})
	if err != nil {
		return fmt.Errorf("create %s shader: %w", p.name, err)
	}
	p.shader = shader

	entries := make([]gputypes.BindGroupLayoutEntry, 0, len(p.inputs)+1)
	entries = append(entries, gputypes.BindGroupLayoutEntry{
		Binding:    0,
		Visibility: gputypes.ShaderStageFragment,
		Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
	})
	for i := range p.inputs {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    uint32(i + 1),
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		})
	}
	bindLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   p.name + "_bind_layout",
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("create %s bind group layout: %w", p.name, err)
	}
	p.bindLayout = bindLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            p.name + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create %s pipeline layout: %w", p.name, err)
	}
	p.pipeLayout = pipeLayout

	sampler, err := p.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        p.name + "_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return fmt.Errorf("create %s sampler: %w", p.name, err)
	}
	p.sampler = sampler

	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  p.name + "_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    p.format,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create %s pipeline: %w", p.name, err)
	}
	p.pipeline = pipeline
	return nil
}

// Release queues the pipeline objects for deletion on g. Call it when the
// pass is no longer added to frames.
func (p *Fullscreen) Release(g *framegraph.Graph) {
	if p.device == nil {
		return
	}
	owned := *p
	g.QueueDeleteFunc(p.name+" pipeline", owned.destroy)
	p.shader, p.bindLayout, p.pipeLayout, p.pipeline, p.sampler = nil, nil, nil, nil, nil
}

func (p *Fullscreen) destroy() {
	if p.device == nil {
		return
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.sampler != nil {
		p.device.DestroySampler(p.sampler)
		p.sampler = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		p.device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}
