// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

// Pass is a unit of GPU work with declared resource dependencies.
//
// Setup runs during Compile, once per frame. It declares every resource the
// pass reads or writes through the Builder and may create new transient
// resources. Setup may declare different dependencies each frame.
//
// Execute runs during Graph.Execute in dependency order and records
// commands through the Context. Dependencies are frozen by then.
type Pass interface {
	Name() string
	Setup(b *Builder)
	Execute(ctx *Context)
}

// FuncPass is a Pass built from plain functions.
type FuncPass struct {
	name    string
	setup   func(*Builder)
	execute func(*Context)
}

// NewPass returns a Pass that calls setup and execute. Either may be nil.
//
// Example:
//
//	var color framegraph.TextureHandle
//	g.AddPass(framegraph.NewPass("gbuffer",
//	    func(b *framegraph.Builder) {
//	        color = b.WriteTexture(b.CreateTexture("albedo", desc))
//	    },
//	    func(ctx *framegraph.Context) {
//	        view := ctx.TextureView(color)
//	        // record commands
//	    }))
func NewPass(name string, setup func(*Builder), execute func(*Context)) *FuncPass {
	return &FuncPass{name: name, setup: setup, execute: execute}
}

// Name returns the pass name.
func (p *FuncPass) Name() string { return p.name }

// Setup calls the setup function.
func (p *FuncPass) Setup(b *Builder) {
	if p.setup != nil {
		p.setup(b)
	}
}

// Execute calls the execute function.
func (p *FuncPass) Execute(ctx *Context) {
	if p.execute != nil {
		p.execute(ctx)
	}
}

// passNode is the graph's bookkeeping for an added pass.
type passNode struct {
	pass  Pass
	index int

	textureReads  []handle
	textureWrites []handle
	bufferReads   []handle
	bufferWrites  []handle

	// scheduled is false for passes added after Compile.
	scheduled bool
}

func (n *passNode) clearDependencies() {
	n.textureReads = n.textureReads[:0]
	n.textureWrites = n.textureWrites[:0]
	n.bufferReads = n.bufferReads[:0]
	n.bufferWrites = n.bufferWrites[:0]
}
