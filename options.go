// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"github.com/gogpu/framegraph/internal/deletion"
	"github.com/gogpu/framegraph/internal/pool"
)

// Option configures a Graph during creation.
//
// Example:
//
//	// Defaults: 3 frames of deletion latency, no memory budget.
//	g := framegraph.New(device)
//
//	// Triple-buffered swap chain plus one frame of slack, 256 MB budget.
//	g := framegraph.New(device,
//	    framegraph.WithDeferFrames(4),
//	    framegraph.WithMemoryBudget(256<<20))
type Option func(*options)

type options struct {
	deferFrames         uint64
	evictAfterFrames    uint64
	memoryBudget        uint64
	bufferSizeClassBits uint32
}

func defaultOptions() options {
	return options{
		deferFrames:      deletion.DefaultDeferFrames,
		evictAfterFrames: pool.DefaultEvictAfterFrames,
	}
}

// WithDeferFrames sets how many frames a queued deletion waits before the
// object is destroyed. It must be at least the number of frames the device
// keeps in flight. Zero keeps the default of 3.
func WithDeferFrames(n uint64) Option {
	return func(o *options) {
		if n > 0 {
			o.deferFrames = n
		}
	}
}

// WithEvictAfterFrames sets how many frames a pooled transient may go
// unused before it is released. Zero keeps the default of 8.
func WithEvictAfterFrames(n uint64) Option {
	return func(o *options) {
		if n > 0 {
			o.evictAfterFrames = n
		}
	}
}

// WithMemoryBudget caps the estimated bytes held by the transient pool.
// When a new allocation would exceed it, idle pooled objects are released
// oldest first; if that is not enough Compile fails with ErrAllocation.
// Zero means unlimited.
func WithMemoryBudget(bytes uint64) Option {
	return func(o *options) {
		o.memoryBudget = bytes
	}
}

// WithBufferSizeClassBits rounds transient buffer sizes up to a size class
// so buffers of similar size share pool entries. With bits = 1, sizes round
// to 2^n or 3*2^(n-1). Zero keeps exact sizes.
func WithBufferSizeClassBits(bits uint32) Option {
	return func(o *options) {
		o.bufferSizeClassBits = bits
	}
}
