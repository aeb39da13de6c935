// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package passes

import (
	"github.com/gogpu/framegraph"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Clear fills a texture with a solid color using an empty render pass.
type Clear struct {
	name   string
	target *framegraph.TextureHandle
	desc   *framegraph.TextureDesc
	color  gputypes.Color
}

// NewClear returns a pass that clears *target to color.
func NewClear(name string, target *framegraph.TextureHandle, color gputypes.Color) *Clear {
	return &Clear{name: name, target: textureRef(target), color: color}
}

// NewClearTarget returns a pass that creates a transient texture from desc,
// stores its handle in *out during Setup and clears it to color.
func NewClearTarget(name string, desc framegraph.TextureDesc, out *framegraph.TextureHandle, color gputypes.Color) *Clear {
	return &Clear{name: name, target: textureRef(out), desc: &desc, color: color}
}

// Name implements framegraph.Pass.
func (p *Clear) Name() string { return p.name }

// Setup implements framegraph.Pass.
func (p *Clear) Setup(b *framegraph.Builder) {
	if p.desc != nil {
		*p.target = b.CreateTexture(p.name, *p.desc)
	}
	b.WriteTexture(*p.target)
}

// Execute implements framegraph.Pass.
func (p *Clear) Execute(ctx *framegraph.Context) {
	view := ctx.TextureView(*p.target)
	if view == nil {
		return
	}
	rp := ctx.Encoder().BeginRenderPass(&hal.RenderPassDescriptor{
		Label: p.name,
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: p.color,
		}},
	})
	rp.End()
}

// ClearBuffer zeroes a buffer.
type ClearBuffer struct {
	name   string
	target *framegraph.BufferHandle
	size   uint64
}

// NewClearBuffer returns a pass that zeroes *target. The whole buffer is
// cleared for transient buffers; for imported ones use WithSize.
func NewClearBuffer(name string, target *framegraph.BufferHandle) *ClearBuffer {
	return &ClearBuffer{name: name, target: bufferRef(target)}
}

// WithSize limits the clear to the first size bytes.
func (p *ClearBuffer) WithSize(size uint64) *ClearBuffer {
	p.size = size
	return p
}

// Name implements framegraph.Pass.
func (p *ClearBuffer) Name() string { return p.name }

// Setup implements framegraph.Pass.
func (p *ClearBuffer) Setup(b *framegraph.Builder) {
	b.WriteBuffer(*p.target)
}

// Execute implements framegraph.Pass.
func (p *ClearBuffer) Execute(ctx *framegraph.Context) {
	buf := ctx.Buffer(*p.target)
	if buf == nil {
		return
	}
	size := p.size
	if size == 0 {
		desc, ok := ctx.BufferDesc(*p.target)
		if !ok {
			framegraph.Logger().Warn("passes: clear of imported buffer without size, skipped",
				"pass", p.name)
			return
		}
		size = desc.Size
	}
	ctx.Encoder().ClearBuffer(buf, 0, size)
}
