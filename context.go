// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import "github.com/gogpu/wgpu/hal"

// Context is the Execute-phase view of the frame. Resolvers return nil for
// invalid, stale or unbacked handles; a pass should skip the work that
// needed the resource.
type Context struct {
	g       *Graph
	encoder hal.CommandEncoder
	pass    *passNode
}

// Encoder returns the command encoder given to Graph.Execute, unchanged.
func (c *Context) Encoder() hal.CommandEncoder { return c.encoder }

// Device returns the device the graph allocates from.
func (c *Context) Device() hal.Device { return c.g.device }

// FrameIndex returns the current frame index.
func (c *Context) FrameIndex() uint64 { return c.g.frame }

// PassName returns the name of the executing pass.
func (c *Context) PassName() string { return c.pass.pass.Name() }

// Texture resolves h to its backing texture.
func (c *Context) Texture(h TextureHandle) hal.Texture { return c.g.Texture(h) }

// TextureView resolves h to the default view of its backing texture.
func (c *Context) TextureView(h TextureHandle) hal.TextureView { return c.g.TextureView(h) }

// Buffer resolves h to its backing buffer.
func (c *Context) Buffer(h BufferHandle) hal.Buffer { return c.g.Buffer(h) }

// TextureDesc returns the descriptor of a transient texture.
func (c *Context) TextureDesc(h TextureHandle) (TextureDesc, bool) { return c.g.TextureDesc(h) }

// BufferDesc returns the descriptor of a transient buffer.
func (c *Context) BufferDesc(h BufferHandle) (BufferDesc, bool) { return c.g.BufferDesc(h) }

// Defer schedules destroy to run once the GPU can no longer be using
// objects created for this frame, such as bind groups that reference
// transient views.
func (c *Context) Defer(label string, destroy func()) {
	c.g.QueueDeleteFunc(label, destroy)
}
