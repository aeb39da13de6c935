// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import "github.com/gogpu/wgpu/hal"

// Builder is the Setup-phase API. It is handed to Pass.Setup and is only
// usable during that call; calls made at any other time are ignored and
// logged.
type Builder struct {
	g       *Graph
	version uint32
	current *passNode
}

// reset invalidates every handle issued so far. The slot counter is the
// length of the resource table, which BeginFrame empties.
func (b *Builder) reset() {
	b.version++
	if b.version == 0 {
		b.version = 1
	}
	b.current = nil
}

func (b *Builder) active(op string) bool {
	if b.current != nil {
		return true
	}
	slogger().Warn("framegraph: builder used outside Setup, ignored", "op", op)
	return false
}

// FrameIndex returns the index passed to the current BeginFrame.
func (b *Builder) FrameIndex() uint64 { return b.g.frame }

// PassName returns the name of the pass being set up.
func (b *Builder) PassName() string {
	if b.current == nil {
		return ""
	}
	return b.current.pass.Name()
}

// CreateTexture declares a transient texture. Backing storage is assigned
// by Compile once every pass has been set up.
func (b *Builder) CreateTexture(name string, desc TextureDesc) TextureHandle {
	if !b.active("CreateTexture") {
		return TextureHandle{}
	}
	return TextureHandle{b.g.addSlot(resource{
		name:     name,
		kind:     KindTexture,
		lifetime: Transient,
		texDesc:  desc.Normalize(),
	})}
}

// CreateBuffer declares a transient buffer.
func (b *Builder) CreateBuffer(name string, desc BufferDesc) BufferHandle {
	if !b.active("CreateBuffer") {
		return BufferHandle{}
	}
	return BufferHandle{b.g.addSlot(resource{
		name:     name,
		kind:     KindBuffer,
		lifetime: Transient,
		bufDesc:  desc,
	})}
}

// ImportTexture registers a caller-owned texture for this frame.
// See Graph.ImportTexture.
func (b *Builder) ImportTexture(name string, texture hal.Texture, view hal.TextureView) TextureHandle {
	if !b.active("ImportTexture") {
		return TextureHandle{}
	}
	return b.g.ImportTexture(name, texture, view)
}

// ImportBuffer registers a caller-owned buffer for this frame.
func (b *Builder) ImportBuffer(name string, buffer hal.Buffer) BufferHandle {
	if !b.active("ImportBuffer") {
		return BufferHandle{}
	}
	return b.g.ImportBuffer(name, buffer)
}

// ReadTexture declares that the current pass reads h. An invalid handle is
// ignored. It returns h.
func (b *Builder) ReadTexture(h TextureHandle) TextureHandle {
	if b.declare("ReadTexture", h.h, KindTexture) {
		b.current.textureReads = append(b.current.textureReads, h.h)
	}
	return h
}

// WriteTexture declares that the current pass writes h. An invalid handle
// is ignored. It returns h.
func (b *Builder) WriteTexture(h TextureHandle) TextureHandle {
	if b.declare("WriteTexture", h.h, KindTexture) {
		b.current.textureWrites = append(b.current.textureWrites, h.h)
	}
	return h
}

// ReadBuffer declares that the current pass reads h.
func (b *Builder) ReadBuffer(h BufferHandle) BufferHandle {
	if b.declare("ReadBuffer", h.h, KindBuffer) {
		b.current.bufferReads = append(b.current.bufferReads, h.h)
	}
	return h
}

// WriteBuffer declares that the current pass writes h.
func (b *Builder) WriteBuffer(h BufferHandle) BufferHandle {
	if b.declare("WriteBuffer", h.h, KindBuffer) {
		b.current.bufferWrites = append(b.current.bufferWrites, h.h)
	}
	return h
}

// TextureDesc returns the descriptor of a transient texture, or the zero
// descriptor and false for imports and unresolvable handles.
func (b *Builder) TextureDesc(h TextureHandle) (TextureDesc, bool) {
	return b.g.TextureDesc(h)
}

// BufferDesc returns the descriptor of a transient buffer.
func (b *Builder) BufferDesc(h BufferHandle) (BufferDesc, bool) {
	return b.g.BufferDesc(h)
}

func (b *Builder) declare(op string, h handle, kind ResourceKind) bool {
	if !h.valid() {
		return false
	}
	if !b.active(op) {
		return false
	}
	if b.g.lookup(h, kind) == nil {
		slogger().Warn("framegraph: stale or unknown handle, dependency ignored",
			"op", op, "pass", b.current.pass.Name(),
			"index", h.index, "version", h.version, "current", b.version)
		return false
	}
	return true
}
