// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package passes

import "github.com/gogpu/framegraph"

// A nil handle pointer is replaced by a private unset handle, which the
// graph treats like any other invalid handle.

func textureRef(h *framegraph.TextureHandle) *framegraph.TextureHandle {
	if h == nil {
		return new(framegraph.TextureHandle)
	}
	return h
}

func bufferRef(h *framegraph.BufferHandle) *framegraph.BufferHandle {
	if h == nil {
		return new(framegraph.BufferHandle)
	}
	return h
}
