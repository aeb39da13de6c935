// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package passes

import (
	"github.com/gogpu/framegraph"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Copy copies mip level 0 of one texture into another, e.g. to present an
// offscreen target into the imported swap chain image.
type Copy struct {
	name string
	src  *framegraph.TextureHandle
	dst  *framegraph.TextureHandle
	size hal.Extent3D
}

// NewCopy returns a pass that copies *src into *dst. The copy extent is
// taken from whichever side is transient; use WithSize when both are
// imported.
func NewCopy(name string, src, dst *framegraph.TextureHandle) *Copy {
	return &Copy{name: name, src: textureRef(src), dst: textureRef(dst)}
}

// WithSize sets the copy extent explicitly.
func (p *Copy) WithSize(size hal.Extent3D) *Copy {
	p.size = size
	return p
}

// Name implements framegraph.Pass.
func (p *Copy) Name() string { return p.name }

// Setup implements framegraph.Pass.
func (p *Copy) Setup(b *framegraph.Builder) {
	b.ReadTexture(*p.src)
	b.WriteTexture(*p.dst)
}

// Execute implements framegraph.Pass.
func (p *Copy) Execute(ctx *framegraph.Context) {
	src, dst := ctx.Texture(*p.src), ctx.Texture(*p.dst)
	if src == nil || dst == nil {
		return
	}
	size, ok := p.extent(ctx)
	if !ok {
		framegraph.Logger().Warn("passes: copy extent unknown, skipped", "pass", p.name)
		return
	}
	ctx.Encoder().CopyTextureToTexture(src, dst, []hal.TextureCopy{{
		SrcBase: hal.ImageCopyTexture{Texture: src, Aspect: gputypes.TextureAspectAll},
		DstBase: hal.ImageCopyTexture{Texture: dst, Aspect: gputypes.TextureAspectAll},
		Size:    size,
	}})
}

func (p *Copy) extent(ctx *framegraph.Context) (hal.Extent3D, bool) {
	if p.size.Width != 0 {
		return p.size, true
	}
	desc, ok := ctx.TextureDesc(*p.src)
	if !ok {
		desc, ok = ctx.TextureDesc(*p.dst)
	}
	if !ok {
		return hal.Extent3D{}, false
	}
	return hal.Extent3D{
		Width:              desc.Width,
		Height:             desc.Height,
		DepthOrArrayLayers: desc.DepthOrArrayLayers,
	}, true
}

// CopyBuffer copies bytes between two buffers.
type CopyBuffer struct {
	name string
	src  *framegraph.BufferHandle
	dst  *framegraph.BufferHandle
	size uint64
}

// NewCopyBuffer returns a pass that copies *src into *dst. Without WithSize
// the smaller of the two transient sizes is copied.
func NewCopyBuffer(name string, src, dst *framegraph.BufferHandle) *CopyBuffer {
	return &CopyBuffer{name: name, src: bufferRef(src), dst: bufferRef(dst)}
}

// WithSize sets the number of bytes to copy.
func (p *CopyBuffer) WithSize(size uint64) *CopyBuffer {
	p.size = size
	return p
}

// Name implements framegraph.Pass.
func (p *CopyBuffer) Name() string { return p.name }

// Setup implements framegraph.Pass.
func (p *CopyBuffer) Setup(b *framegraph.Builder) {
	b.ReadBuffer(*p.src)
	b.WriteBuffer(*p.dst)
}

// Execute implements framegraph.Pass.
func (p *CopyBuffer) Execute(ctx *framegraph.Context) {
	src, dst := ctx.Buffer(*p.src), ctx.Buffer(*p.dst)
	if src == nil || dst == nil {
		return
	}
	size := p.size
	if size == 0 {
		s, sok := ctx.BufferDesc(*p.src)
		d, dok := ctx.BufferDesc(*p.dst)
		switch {
		case sok && dok:
			size = min(s.Size, d.Size)
		case sok:
			size = s.Size
		case dok:
			size = d.Size
		default:
			framegraph.Logger().Warn("passes: copy size unknown, skipped", "pass", p.name)
			return
		}
	}
	ctx.Encoder().CopyBufferToBuffer(src, dst, []hal.BufferCopy{{Size: size}})
}
