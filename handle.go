// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import "fmt"

// ResourceKind is the type tag of a resource slot.
type ResourceKind uint8

const (
	KindTexture ResourceKind = iota + 1
	KindBuffer
)

func (k ResourceKind) String() string {
	switch k {
	case KindTexture:
		return "texture"
	case KindBuffer:
		return "buffer"
	default:
		return fmt.Sprintf("ResourceKind(%d)", uint8(k))
	}
}

// handle addresses a slot in one frame's resource table. version is the
// builder's stamp at creation; versions start at 1 so the zero handle is
// never valid.
type handle struct {
	index   uint32
	version uint32
}

func (h handle) valid() bool { return h.version != 0 }

// TextureHandle refers to a texture declared in the current frame.
// It is a plain value: copying it is free and it owns nothing.
// The zero value is invalid and is ignored by every Builder declaration.
type TextureHandle struct{ h handle }

// IsValid reports whether h was produced by a Builder or an import.
// A valid handle may still be stale if it came from an earlier frame.
func (h TextureHandle) IsValid() bool { return h.h.valid() }

// Kind returns KindTexture.
func (TextureHandle) Kind() ResourceKind { return KindTexture }

func (h TextureHandle) String() string {
	if !h.IsValid() {
		return "texture(invalid)"
	}
	return fmt.Sprintf("texture(%d v%d)", h.h.index, h.h.version)
}

// BufferHandle refers to a buffer declared in the current frame.
// The zero value is invalid.
type BufferHandle struct{ h handle }

// IsValid reports whether h was produced by a Builder or an import.
func (h BufferHandle) IsValid() bool { return h.h.valid() }

// Kind returns KindBuffer.
func (BufferHandle) Kind() ResourceKind { return KindBuffer }

func (h BufferHandle) String() string {
	if !h.IsValid() {
		return "buffer(invalid)"
	}
	return fmt.Sprintf("buffer(%d v%d)", h.h.index, h.h.version)
}
