// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package framegraph schedules a frame's GPU work as a graph of passes.
//
// # Overview
//
// Each pass declares, in Setup, which textures and buffers it reads and
// writes. Compile orders the passes so that every writer of a resource runs
// before every reader of it, then backs the transient resources the passes
// created from a pool that is reused frame after frame. Execute calls the
// passes in that order with the caller's command encoder.
//
// # Quick Start
//
//	g := framegraph.New(device)
//	defer g.Close()
//
//	for frame := uint64(1); running; frame++ {
//	    g.BeginFrame(frame)
//	    back := g.ImportTexture("backbuffer", swapTex, swapView)
//
//	    var color framegraph.TextureHandle
//	    g.AddPass(framegraph.NewPass("scene",
//	        func(b *framegraph.Builder) {
//	            color = b.WriteTexture(b.CreateTexture("color", desc))
//	        },
//	        func(ctx *framegraph.Context) { drawScene(ctx.Encoder(), ctx.TextureView(color)) }))
//	    g.AddPass(passes.NewCopy("present", &color, &back))
//
//	    if err := g.Execute(encoder); err != nil {
//	        log.Printf("frame %d skipped: %v", frame, err)
//	    }
//	    g.EndFrame()
//	}
//
// # Handles
//
// TextureHandle and BufferHandle are (index, version) values. The version
// changes at every BeginFrame, so a handle kept from an earlier frame
// resolves to nil instead of to whatever now occupies its slot. The zero
// handle is invalid and every Builder declaration ignores it, which lets
// optional inputs be passed through without branching.
//
// # Ordering
//
// Passes are sorted with Kahn's algorithm over writer-to-reader edges using
// a FIFO ready queue seeded in insertion order. Passes with no dependency
// path between them therefore run in the order they were added. Two passes
// that only write the same resource are not ordered against each other
// beyond that. Add a resource dependency if a specific order is required.
//
// # Resource lifetime
//
// Transient resources are loaned by the pool for one frame and returned at
// EndFrame. Pooled objects that stay idle are evicted and destroyed through
// the deferred deletion queue, which waits a fixed number of frames (3 by
// default, see WithDeferFrames) before destroying anything the GPU may still
// be reading. Imported resources are never pooled or destroyed.
//
// # Errors
//
// A dependency cycle (ErrCycle) or an allocation failure (ErrAllocation)
// fails the frame: no pass executes. Resolving a stale or unknown handle is
// not an error; the resolver returns nil.
package framegraph
