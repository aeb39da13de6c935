// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pool

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// TextureDesc describes a pooled texture. It is comparable and used directly
// as the pool key, so two descriptors are interchangeable exactly when they
// are equal after Normalize.
type TextureDesc struct {
	Width              uint32
	Height             uint32
	DepthOrArrayLayers uint32
	MipLevelCount      uint32
	SampleCount        uint32
	Dimension          gputypes.TextureDimension
	Format             gputypes.TextureFormat
	Usage              gputypes.TextureUsage
}

// Normalize fills zero fields with their defaults: one layer, one mip level,
// one sample and a 2D dimension.
func (d TextureDesc) Normalize() TextureDesc {
	if d.DepthOrArrayLayers == 0 {
		d.DepthOrArrayLayers = 1
	}
	if d.MipLevelCount == 0 {
		d.MipLevelCount = 1
	}
	if d.SampleCount == 0 {
		d.SampleCount = 1
	}
	if d.Dimension == gputypes.TextureDimensionUndefined {
		d.Dimension = gputypes.TextureDimension2D
	}
	return d
}

// Validate reports whether the descriptor can be allocated.
func (d TextureDesc) Validate() error {
	switch {
	case d.Width == 0 || d.Height == 0:
		return fmt.Errorf("%w: texture size %dx%d", ErrInvalidDescriptor, d.Width, d.Height)
	case d.Format == gputypes.TextureFormatUndefined:
		return fmt.Errorf("%w: texture format undefined", ErrInvalidDescriptor)
	case d.Usage == 0:
		return fmt.Errorf("%w: texture usage is empty", ErrInvalidDescriptor)
	}
	return nil
}

// SizeBytes estimates the memory footprint of the texture, including all mip
// levels and samples. It is used for budget accounting only.
func (d TextureDesc) SizeBytes() uint64 {
	d = d.Normalize()
	texel := uint64(bytesPerTexel(d.Format))
	w, h := uint64(d.Width), uint64(d.Height)
	var total uint64
	for i := uint32(0); i < d.MipLevelCount; i++ {
		total += w * h
		w = max(w/2, 1)
		h = max(h/2, 1)
	}
	return total * texel * uint64(d.DepthOrArrayLayers) * uint64(d.SampleCount)
}

// String returns a compact description such as
// "1920x1080x1 RGBA16Float mips=1 samples=1".
func (d TextureDesc) String() string {
	return fmt.Sprintf("%dx%dx%d %s mips=%d samples=%d",
		d.Width, d.Height, d.DepthOrArrayLayers, d.Format, d.MipLevelCount, d.SampleCount)
}

func (d TextureDesc) halDescriptor(label string) *hal.TextureDescriptor {
	return &hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              d.Width,
			Height:             d.Height,
			DepthOrArrayLayers: d.DepthOrArrayLayers,
		},
		MipLevelCount: d.MipLevelCount,
		SampleCount:   d.SampleCount,
		Dimension:     d.Dimension,
		Format:        d.Format,
		Usage:         d.Usage,
	}
}

func (d TextureDesc) halViewDescriptor(label string) *hal.TextureViewDescriptor {
	dim := gputypes.TextureViewDimension2D
	switch {
	case d.Dimension == gputypes.TextureDimension1D:
		dim = gputypes.TextureViewDimension1D
	case d.Dimension == gputypes.TextureDimension3D:
		dim = gputypes.TextureViewDimension3D
	case d.DepthOrArrayLayers > 1:
		dim = gputypes.TextureViewDimension2DArray
	}
	return &hal.TextureViewDescriptor{
		Label:           label,
		Format:          d.Format,
		Dimension:       dim,
		Aspect:          gputypes.TextureAspectAll,
		BaseMipLevel:    0,
		MipLevelCount:   d.MipLevelCount,
		BaseArrayLayer:  0,
		ArrayLayerCount: d.DepthOrArrayLayers,
	}
}

// BufferDesc describes a pooled buffer.
type BufferDesc struct {
	Size  uint64
	Usage gputypes.BufferUsage
}

// Validate reports whether the descriptor can be allocated.
func (d BufferDesc) Validate() error {
	switch {
	case d.Size == 0:
		return fmt.Errorf("%w: buffer size is zero", ErrInvalidDescriptor)
	case d.Usage == 0:
		return fmt.Errorf("%w: buffer usage is empty", ErrInvalidDescriptor)
	}
	return nil
}

// String returns a compact description of the buffer.
func (d BufferDesc) String() string {
	return fmt.Sprintf("%d bytes usage=%#x", d.Size, uint64(d.Usage))
}

func (d BufferDesc) halDescriptor(label string) *hal.BufferDescriptor {
	return &hal.BufferDescriptor{
		Label: label,
		Size:  d.Size,
		Usage: d.Usage,
	}
}

// sizeClass rounds x up so that only the top numBits+1 bits may be set.
// With numBits = 1, sizes round to 2^n or 3*2^(n-1), which bounds waste at
// 33% while letting nearly equal buffers share a pool slot.
func sizeClass(x uint64, numBits uint32) uint64 {
	if x <= 1<<numBits {
		return 1 << numBits
	}
	a := bits.LeadingZeros64(x - 1)
	b := (x - 1) | (((math.MaxUint64 / 2) >> numBits) >> a)
	return b + 1
}

// bytesPerTexel returns the size of one texel for uncompressed formats.
// Block-compressed and unknown formats fall back to 4.
func bytesPerTexel(f gputypes.TextureFormat) int {
	switch f {
	case gputypes.TextureFormatR8Unorm, gputypes.TextureFormatR8Snorm,
		gputypes.TextureFormatR8Uint, gputypes.TextureFormatR8Sint,
		gputypes.TextureFormatStencil8:
		return 1
	case gputypes.TextureFormatR16Unorm, gputypes.TextureFormatR16Snorm,
		gputypes.TextureFormatR16Uint, gputypes.TextureFormatR16Sint,
		gputypes.TextureFormatR16Float, gputypes.TextureFormatRG8Unorm,
		gputypes.TextureFormatRG8Snorm, gputypes.TextureFormatRG8Uint,
		gputypes.TextureFormatRG8Sint, gputypes.TextureFormatDepth16Unorm:
		return 2
	case gputypes.TextureFormatRG32Float, gputypes.TextureFormatRG32Uint,
		gputypes.TextureFormatRG32Sint, gputypes.TextureFormatRGBA16Unorm,
		gputypes.TextureFormatRGBA16Snorm, gputypes.TextureFormatRGBA16Uint,
		gputypes.TextureFormatRGBA16Sint, gputypes.TextureFormatRGBA16Float,
		gputypes.TextureFormatDepth32FloatStencil8:
		return 8
	case gputypes.TextureFormatRGBA32Float, gputypes.TextureFormatRGBA32Uint,
		gputypes.TextureFormatRGBA32Sint:
		return 16
	default:
		return 4
	}
}
