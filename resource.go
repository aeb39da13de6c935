// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"github.com/gogpu/framegraph/internal/pool"
	"github.com/gogpu/wgpu/hal"
)

// TextureDesc describes a transient texture. Zero fields default to one
// array layer, one mip level, one sample and a 2D dimension. Two transient
// textures with equal descriptors may share backing storage across frames.
type TextureDesc = pool.TextureDesc

// BufferDesc describes a transient buffer.
type BufferDesc = pool.BufferDesc

// Lifetime is the ownership class of a resource.
type Lifetime uint8

const (
	// Transient resources are backed by the pool for one frame.
	Transient Lifetime = iota
	// Imported resources are owned by the caller and never pooled.
	Imported
)

func (l Lifetime) String() string {
	if l == Imported {
		return "imported"
	}
	return "transient"
}

// resource is one slot of the frame's resource table.
type resource struct {
	name     string
	kind     ResourceKind
	lifetime Lifetime

	texDesc TextureDesc
	bufDesc BufferDesc

	// Backing objects. Nil for transients until Compile allocates them and
	// again after EndFrame.
	texture hal.Texture
	view    hal.TextureView
	buffer  hal.Buffer

	// Pass indices, each at most once, in ascending order.
	readers []int
	writers []int
}

func (r *resource) clearBacking() {
	r.texture = nil
	r.view = nil
	r.buffer = nil
}

// addUnique appends idx unless it is already the last element. Passes are
// visited in index order, so this keeps the list free of duplicates.
func addUnique(list []int, idx int) []int {
	if n := len(list); n > 0 && list[n-1] == idx {
		return list
	}
	return append(list, idx)
}
