// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gogpu/framegraph/internal/deletion"
	"github.com/gogpu/framegraph/internal/pool"
	"github.com/gogpu/wgpu/hal"
)

// Graph records, orders and executes one frame of passes at a time.
//
// A frame follows BeginFrame, AddPass and imports, Compile, Execute,
// EndFrame. Compile runs every pass's Setup, builds writer-to-reader edges
// from the declared dependencies, sorts the passes and backs transient
// resources from a pool that persists across frames.
//
// Graph is not safe for concurrent use.
type Graph struct {
	device    hal.Device
	pool      *pool.Pool
	deletions *deletion.Queue
	builder   Builder

	frame   uint64
	started bool

	passes    []*passNode
	resources []resource
	order     []int

	compiling bool
	compiled  bool
	executed  bool
	ended     bool
	closed    bool
}

// New creates a frame graph that allocates transient resources from device.
func New(device hal.Device, opts ...Option) *Graph {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	g := &Graph{device: device}
	g.deletions = deletion.New(deletion.Config{DeferFrames: o.deferFrames})
	g.pool = pool.New(device, pool.Config{
		EvictAfterFrames:    o.evictAfterFrames,
		MaxBytes:            o.memoryBudget,
		BufferSizeClassBits: o.bufferSizeClassBits,
		Retire:              g.deletions.Enqueue,
	})
	g.builder = Builder{g: g, version: 1}
	return g
}

// Device returns the device the graph allocates from.
func (g *Graph) Device() hal.Device { return g.device }

// FrameIndex returns the index passed to the last BeginFrame.
func (g *Graph) FrameIndex() uint64 { return g.frame }

// BeginFrame starts frame frameIndex. Deletions whose deadline has been
// reached are destroyed, idle pooled resources are evicted, and every pass
// and resource of the previous frame is dropped. Handles issued before this
// call no longer resolve.
//
// Frame indices are expected to increase; deletion deadlines are measured
// in them.
func (g *Graph) BeginFrame(frameIndex uint64) {
	if g.started && frameIndex <= g.frame {
		slogger().Warn("framegraph: frame index did not advance",
			"previous", g.frame, "frame", frameIndex)
	}
	if g.compiled && !g.ended {
		slogger().Warn("framegraph: EndFrame was not called, returning transients",
			"frame", g.frame)
		g.releaseTransients()
	}

	g.frame = frameIndex
	g.started = true
	g.deletions.BeginFrame(frameIndex)
	g.pool.BeginFrame(frameIndex)

	clear(g.passes)
	g.passes = g.passes[:0]
	clear(g.resources)
	g.resources = g.resources[:0]
	g.order = g.order[:0]
	g.builder.reset()

	g.compiled = false
	g.executed = false
	g.ended = false
}

// AddPass appends p to the current frame and returns it. Passes run in
// dependency order, with insertion order breaking ties. A pass added after
// Compile is not scheduled this frame.
func (g *Graph) AddPass(p Pass) Pass {
	n := &passNode{pass: p, index: len(g.passes), scheduled: true}
	if g.compiled || g.compiling {
		slogger().Warn("framegraph: pass added after Compile, not scheduled this frame",
			"pass", p.Name(), "frame", g.frame)
		n.scheduled = false
	}
	g.passes = append(g.passes, n)
	return p
}

// Add is AddPass that keeps the concrete pass type.
//
//	blur := framegraph.Add(g, passes.NewBlur(...))
func Add[P Pass](g *Graph, p P) P {
	g.AddPass(p)
	return p
}

// ImportTexture registers a caller-owned texture, such as the swap chain
// image, for the current frame. The graph resolves the handle to exactly
// texture and view and never pools or destroys them. Import before Compile
// so that passes can declare the handle.
func (g *Graph) ImportTexture(name string, texture hal.Texture, view hal.TextureView) TextureHandle {
	g.warnLateImport(name)
	return TextureHandle{g.addSlot(resource{
		name:     name,
		kind:     KindTexture,
		lifetime: Imported,
		texture:  texture,
		view:     view,
	})}
}

// ImportBuffer registers a caller-owned buffer for the current frame.
func (g *Graph) ImportBuffer(name string, buffer hal.Buffer) BufferHandle {
	g.warnLateImport(name)
	return BufferHandle{g.addSlot(resource{
		name:     name,
		kind:     KindBuffer,
		lifetime: Imported,
		buffer:   buffer,
	})}
}

func (g *Graph) warnLateImport(name string) {
	if g.compiled {
		slogger().Warn("framegraph: import after Compile, no pass can depend on it",
			"resource", name, "frame", g.frame)
	}
}

func (g *Graph) addSlot(r resource) handle {
	g.resources = append(g.resources, r)
	return handle{index: uint32(len(g.resources) - 1), version: g.builder.version}
}

// lookup returns the slot h refers to, or nil if h is invalid, from an
// earlier frame, out of range or of another kind. The pointer is only valid
// until the next slot is added.
func (g *Graph) lookup(h handle, kind ResourceKind) *resource {
	if !h.valid() || h.version != g.builder.version || int(h.index) >= len(g.resources) {
		return nil
	}
	r := &g.resources[h.index]
	if r.kind != kind {
		return nil
	}
	return r
}

// Compile sets up every pass, orders them and backs transient resources.
// It is idempotent within a frame.
//
// On a dependency cycle it returns a *CycleError and on a pool failure an
// *AllocationError. In both cases no pass runs this frame unless the caller
// fixes the cause and calls Compile again; the resources declared by the
// failed attempt are discarded first.
func (g *Graph) Compile() error {
	if g.compiled {
		return nil
	}
	if g.ended {
		return ErrFrameEnded
	}

	base := len(g.resources)
	if err := g.compile(); err != nil {
		g.rollback(base)
		return err
	}
	g.compiled = true
	return nil
}

func (g *Graph) compile() error {
	g.setup()
	g.buildLifetimes()

	if err := g.sort(); err != nil {
		return err
	}
	if err := g.allocate(); err != nil {
		return err
	}

	if l := slogger(); l.Enabled(context.Background(), slog.LevelDebug) {
		names := make([]string, len(g.order))
		for i, idx := range g.order {
			names[i] = g.passes[idx].pass.Name()
		}
		l.Debug("framegraph: compiled",
			"frame", g.frame, "passes", len(g.order), "resources", len(g.resources),
			"order", names)
	}
	return nil
}

func (g *Graph) setup() {
	g.compiling = true
	defer func() {
		g.compiling = false
		g.builder.current = nil
	}()

	// Passes added by a Setup land past n and are not scheduled.
	n := len(g.passes)
	for _, node := range g.passes[:n] {
		if !node.scheduled {
			continue
		}
		node.clearDependencies()
		g.builder.current = node
		node.pass.Setup(&g.builder)
	}
	g.builder.current = nil
}

func (g *Graph) buildLifetimes() {
	for i := range g.resources {
		r := &g.resources[i]
		r.readers = r.readers[:0]
		r.writers = r.writers[:0]
	}
	for _, node := range g.passes {
		if !node.scheduled {
			continue
		}
		for _, h := range node.textureReads {
			r := &g.resources[h.index]
			r.readers = addUnique(r.readers, node.index)
		}
		for _, h := range node.bufferReads {
			r := &g.resources[h.index]
			r.readers = addUnique(r.readers, node.index)
		}
		for _, h := range node.textureWrites {
			r := &g.resources[h.index]
			r.writers = addUnique(r.writers, node.index)
		}
		for _, h := range node.bufferWrites {
			r := &g.resources[h.index]
			r.writers = addUnique(r.writers, node.index)
		}
	}
}

// sort orders the scheduled passes with Kahn's algorithm. Every writer of a
// resource precedes every reader of it; writers of the same resource are not
// ordered against each other. The ready queue is FIFO and seeded in
// insertion order, which makes the result deterministic.
func (g *Graph) sort() error {
	count := len(g.passes)
	inDegree := make([]int, count)
	edges := make([][]int, count)

	for i := range g.resources {
		r := &g.resources[i]
		for _, w := range r.writers {
			for _, rd := range r.readers {
				if w == rd {
					continue
				}
				edges[w] = append(edges[w], rd)
				inDegree[rd]++
			}
		}
	}

	scheduled := 0
	queue := make([]int, 0, count)
	for _, node := range g.passes {
		if !node.scheduled {
			continue
		}
		scheduled++
		if inDegree[node.index] == 0 {
			queue = append(queue, node.index)
		}
	}

	g.order = g.order[:0]
	for head := 0; head < len(queue); head++ {
		idx := queue[head]
		g.order = append(g.order, idx)
		for _, next := range edges[idx] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(g.order) == scheduled {
		return nil
	}

	var stuck []string
	for _, node := range g.passes {
		if node.scheduled && inDegree[node.index] > 0 {
			stuck = append(stuck, node.pass.Name())
		}
	}
	err := &CycleError{Passes: stuck}
	slogger().Warn("framegraph: dependency cycle, frame skipped",
		"frame", g.frame, "passes", stuck)
	return err
}

func (g *Graph) allocate() error {
	for i := range g.resources {
		r := &g.resources[i]
		if r.lifetime != Transient {
			continue
		}

		var err error
		switch r.kind {
		case KindTexture:
			r.texture, r.view, err = g.pool.AllocateTexture(r.name, r.texDesc)
		case KindBuffer:
			r.buffer, err = g.pool.AllocateBuffer(r.name, r.bufDesc)
		}
		if err != nil {
			slogger().Warn("framegraph: transient allocation failed, frame skipped",
				"frame", g.frame, "resource", r.name, "err", err)
			return &AllocationError{Resource: r.name, Err: err}
		}
	}
	return nil
}

// rollback undoes a failed compile: loans go back to the pool and the
// resources declared during Setup are dropped.
func (g *Graph) rollback(base int) {
	g.pool.EndFrame()
	clear(g.resources[base:])
	g.resources = g.resources[:base]
	for i := range g.resources {
		r := &g.resources[i]
		r.readers = r.readers[:0]
		r.writers = r.writers[:0]
		if r.lifetime == Transient {
			r.clearBacking()
		}
	}
	g.order = g.order[:0]
}

// Execute compiles the frame if needed, then calls every scheduled pass's
// Execute in sorted order. encoder is handed to the passes unchanged.
//
// If Compile fails no pass runs and the error is returned. A second
// Execute in the same frame returns ErrAlreadyExecuted.
func (g *Graph) Execute(encoder hal.CommandEncoder) error {
	if g.executed {
		return ErrAlreadyExecuted
	}
	if g.ended {
		return ErrFrameEnded
	}
	if err := g.Compile(); err != nil {
		return err
	}
	g.executed = true

	ctx := Context{g: g, encoder: encoder}
	for _, idx := range g.order {
		ctx.pass = g.passes[idx]
		ctx.pass.pass.Execute(&ctx)
	}
	return nil
}

// EndFrame returns the frame's transient resources to the pool. They are
// not destroyed and may back a later frame's resources. Transient handles
// stop resolving; imports still resolve until the next BeginFrame.
func (g *Graph) EndFrame() {
	if g.ended {
		return
	}
	g.releaseTransients()
}

func (g *Graph) releaseTransients() {
	g.pool.EndFrame()
	for i := range g.resources {
		if r := &g.resources[i]; r.lifetime == Transient {
			r.clearBacking()
		}
	}
	g.ended = true
}

// QueueDeleteTexture destroys view and texture once the frames now in
// flight have completed. Either may be nil.
func (g *Graph) QueueDeleteTexture(texture hal.Texture, view hal.TextureView) {
	if texture == nil && view == nil {
		return
	}
	device := g.device
	g.deletions.Enqueue("texture", func() {
		if view != nil {
			device.DestroyTextureView(view)
		}
		if texture != nil {
			device.DestroyTexture(texture)
		}
	})
}

// QueueDeleteBuffer destroys buffer once the frames now in flight have
// completed.
func (g *Graph) QueueDeleteBuffer(buffer hal.Buffer) {
	if buffer == nil {
		return
	}
	device := g.device
	g.deletions.Enqueue("buffer", func() {
		device.DestroyBuffer(buffer)
	})
}

// QueueDelete calls r.Destroy once the frames now in flight have
// completed. Use it for objects without a device-level destroy call, such
// as bind groups or pipelines.
func (g *Graph) QueueDelete(r hal.Resource) {
	if r == nil {
		return
	}
	g.deletions.Enqueue(fmt.Sprintf("%T", r), r.Destroy)
}

// QueueDeleteFunc runs destroy once the frames now in flight have
// completed. label appears in debug logs.
func (g *Graph) QueueDeleteFunc(label string, destroy func()) {
	g.deletions.Enqueue(label, destroy)
}

// Flush destroys everything queued for deletion immediately. Only call it
// when the device is idle. It returns the number of deletions run.
func (g *Graph) Flush() int {
	return g.deletions.Flush()
}

// Close waits for the device to go idle, runs every pending deletion and
// destroys the pooled resources. The graph must not be used afterwards.
func (g *Graph) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true

	var err error
	if g.device != nil {
		if werr := g.device.WaitIdle(); werr != nil {
			err = fmt.Errorf("framegraph: wait idle: %w", werr)
		}
	}
	if g.compiled && !g.ended {
		g.releaseTransients()
	}
	g.deletions.Flush()
	g.pool.Clear()
	g.passes = nil
	g.resources = nil
	g.order = nil
	return err
}

// Order returns the scheduled passes in execution order. It is empty until
// Compile succeeds.
func (g *Graph) Order() []Pass {
	out := make([]Pass, len(g.order))
	for i, idx := range g.order {
		out[i] = g.passes[idx].pass
	}
	return out
}

// Texture resolves h to its backing texture, or nil.
func (g *Graph) Texture(h TextureHandle) hal.Texture {
	if r := g.lookup(h.h, KindTexture); r != nil {
		return r.texture
	}
	return nil
}

// TextureView resolves h to its backing view, or nil.
func (g *Graph) TextureView(h TextureHandle) hal.TextureView {
	if r := g.lookup(h.h, KindTexture); r != nil {
		return r.view
	}
	return nil
}

// Buffer resolves h to its backing buffer, or nil.
func (g *Graph) Buffer(h BufferHandle) hal.Buffer {
	if r := g.lookup(h.h, KindBuffer); r != nil {
		return r.buffer
	}
	return nil
}

// TextureDesc returns the descriptor of a transient texture. It reports
// false for imports and handles that do not resolve.
func (g *Graph) TextureDesc(h TextureHandle) (TextureDesc, bool) {
	r := g.lookup(h.h, KindTexture)
	if r == nil || r.lifetime != Transient {
		return TextureDesc{}, false
	}
	return r.texDesc, true
}

// BufferDesc returns the descriptor of a transient buffer.
func (g *Graph) BufferDesc(h BufferHandle) (BufferDesc, bool) {
	r := g.lookup(h.h, KindBuffer)
	if r == nil || r.lifetime != Transient {
		return BufferDesc{}, false
	}
	return r.bufDesc, true
}
