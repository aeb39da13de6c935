// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package pool recycles transient GPU textures and buffers across frames.
//
// Objects are keyed by descriptor. A frame borrows an object with
// AllocateTexture or AllocateBuffer and every loan comes back at EndFrame.
// Objects nobody borrows for EvictAfterFrames frames are evicted.
package pool

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/wgpu/hal"
)

// Pool errors.
var (
	// ErrBudgetExceeded is returned when an allocation does not fit in the
	// configured byte budget even after evicting free entries.
	ErrBudgetExceeded = errors.New("pool: memory budget exceeded")

	// ErrInvalidDescriptor is returned for descriptors that cannot be allocated.
	ErrInvalidDescriptor = errors.New("pool: invalid descriptor")

	// ErrPoolClosed is returned when allocating from a cleared pool.
	ErrPoolClosed = errors.New("pool: closed")
)

// DefaultEvictAfterFrames is how long an unused entry stays pooled.
const DefaultEvictAfterFrames = 8

// Config holds configuration for creating a Pool.
type Config struct {
	// EvictAfterFrames is the number of frames an entry may stay unclaimed
	// before BeginFrame evicts it. Defaults to DefaultEvictAfterFrames if zero.
	EvictAfterFrames uint64

	// MaxBytes is the memory budget for pooled and loaned objects together.
	// Zero means unlimited.
	MaxBytes uint64

	// BufferSizeClassBits rounds buffer sizes up to a size class before they
	// are used as pool keys. Zero keeps exact sizes.
	BufferSizeClassBits uint32

	// Retire receives evicted objects. When nil they are destroyed at once.
	// The frame graph routes them through its deferred deletion queue, since
	// an evicted object may still be referenced by in-flight command buffers.
	Retire func(label string, destroy func())
}

// Stats contains pool occupancy and allocation statistics.
type Stats struct {
	// PooledTextures is the number of free textures ready for reuse.
	PooledTextures int
	// InUseTextures is the number of textures loaned this frame.
	InUseTextures int
	// PooledBuffers is the number of free buffers ready for reuse.
	PooledBuffers int
	// InUseBuffers is the number of buffers loaned this frame.
	InUseBuffers int

	// TexturesCreated is the total number of textures created on the device.
	TexturesCreated uint64
	// BuffersCreated is the total number of buffers created on the device.
	BuffersCreated uint64
	// Reused is the total number of allocations served from the pool.
	Reused uint64
	// Evicted is the total number of entries evicted.
	Evicted uint64

	// UsedBytes is the estimated memory held by the pool, free and loaned.
	UsedBytes uint64
	// BudgetBytes is the configured budget, zero if unlimited.
	BudgetBytes uint64
}

// String returns a human-readable string of pool stats.
func (s Stats) String() string {
	return fmt.Sprintf("Pool[tex %d free/%d used, buf %d free/%d used, %d created, %d reused, %d evicted, %d KB]",
		s.PooledTextures, s.InUseTextures,
		s.PooledBuffers, s.InUseBuffers,
		s.TexturesCreated+s.BuffersCreated, s.Reused, s.Evicted,
		s.UsedBytes/1024)
}

type textureEntry struct {
	desc      TextureDesc
	texture   hal.Texture
	view      hal.TextureView
	sizeBytes uint64
	lastUsed  uint64
	inUse     bool
}

type bufferEntry struct {
	desc      BufferDesc
	buffer    hal.Buffer
	sizeBytes uint64
	lastUsed  uint64
	inUse     bool
}

// Pool is a frame-scoped transient resource pool.
//
// Pool is not safe for concurrent use. It is owned by one frame graph.
type Pool struct {
	device hal.Device
	cfg    Config
	frame  uint64

	freeTextures map[TextureDesc][]*textureEntry
	freeBuffers  map[BufferDesc][]*bufferEntry

	loanedTextures []*textureEntry
	loanedBuffers  []*bufferEntry

	usedBytes uint64

	texturesCreated uint64
	buffersCreated  uint64
	reused          uint64
	evicted         uint64

	closed bool
}

// New creates an empty pool that allocates from device.
func New(device hal.Device, cfg Config) *Pool {
	if cfg.EvictAfterFrames == 0 {
		cfg.EvictAfterFrames = DefaultEvictAfterFrames
	}
	return &Pool{
		device:       device,
		cfg:          cfg,
		freeTextures: make(map[TextureDesc][]*textureEntry),
		freeBuffers:  make(map[BufferDesc][]*bufferEntry),
	}
}

// BeginFrame starts a new pool epoch. Loans still outstanding from the
// previous frame are returned, then free entries unclaimed for
// EvictAfterFrames frames are evicted.
func (p *Pool) BeginFrame(frame uint64) {
	if n := len(p.loanedTextures) + len(p.loanedBuffers); n > 0 {
		slogger().Warn("pool: loans outstanding at frame start, returning them",
			"frame", frame, "loans", n)
		p.EndFrame()
	}
	p.frame = frame
	p.evictStale()
}

// AllocateTexture loans a texture matching desc for the current frame,
// reusing a pooled one when possible.
func (p *Pool) AllocateTexture(label string, desc TextureDesc) (hal.Texture, hal.TextureView, error) {
	if p.closed {
		return nil, nil, ErrPoolClosed
	}
	desc = desc.Normalize()
	if err := desc.Validate(); err != nil {
		return nil, nil, err
	}

	if free := p.freeTextures[desc]; len(free) > 0 {
		e := free[len(free)-1]
		p.freeTextures[desc] = free[:len(free)-1]
		p.loanTexture(e)
		p.reused++
		return e.texture, e.view, nil
	}

	size := desc.SizeBytes()
	if err := p.reserve(size); err != nil {
		return nil, nil, err
	}

	slogger().Debug("pool: creating texture", "label", label, "desc", desc.String())
	tex, err := p.device.CreateTexture(desc.halDescriptor(label))
	if err != nil {
		return nil, nil, fmt.Errorf("create texture %q: %w", label, err)
	}
	view, err := p.device.CreateTextureView(tex, desc.halViewDescriptor(label))
	if err != nil {
		p.device.DestroyTexture(tex)
		return nil, nil, fmt.Errorf("create texture view %q: %w", label, err)
	}

	e := &textureEntry{desc: desc, texture: tex, view: view, sizeBytes: size}
	p.usedBytes += size
	p.texturesCreated++
	p.loanTexture(e)
	return tex, view, nil
}

// AllocateBuffer loans a buffer matching desc for the current frame,
// reusing a pooled one when possible. The returned buffer may be larger than
// requested when BufferSizeClassBits is set.
func (p *Pool) AllocateBuffer(label string, desc BufferDesc) (hal.Buffer, error) {
	if p.closed {
		return nil, ErrPoolClosed
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if p.cfg.BufferSizeClassBits > 0 {
		desc.Size = sizeClass(desc.Size, p.cfg.BufferSizeClassBits)
	}

	if free := p.freeBuffers[desc]; len(free) > 0 {
		e := free[len(free)-1]
		p.freeBuffers[desc] = free[:len(free)-1]
		p.loanBuffer(e)
		p.reused++
		return e.buffer, nil
	}

	if err := p.reserve(desc.Size); err != nil {
		return nil, err
	}

	slogger().Debug("pool: creating buffer", "label", label, "desc", desc.String())
	buf, err := p.device.CreateBuffer(desc.halDescriptor(label))
	if err != nil {
		return nil, fmt.Errorf("create buffer %q: %w", label, err)
	}

	e := &bufferEntry{desc: desc, buffer: buf, sizeBytes: desc.Size}
	p.usedBytes += desc.Size
	p.buffersCreated++
	p.loanBuffer(e)
	return buf, nil
}

// EndFrame returns every loan to the free lists. Nothing is destroyed.
func (p *Pool) EndFrame() {
	for _, e := range p.loanedTextures {
		e.inUse = false
		p.freeTextures[e.desc] = append(p.freeTextures[e.desc], e)
	}
	for _, e := range p.loanedBuffers {
		e.inUse = false
		p.freeBuffers[e.desc] = append(p.freeBuffers[e.desc], e)
	}
	clear(p.loanedTextures)
	clear(p.loanedBuffers)
	p.loanedTextures = p.loanedTextures[:0]
	p.loanedBuffers = p.loanedBuffers[:0]
}

// Clear destroys every pooled and loaned object immediately and closes the
// pool. Only call it when the device is idle.
func (p *Pool) Clear() {
	for _, list := range p.freeTextures {
		for _, e := range list {
			p.destroyTexture(e)
		}
	}
	for _, list := range p.freeBuffers {
		for _, e := range list {
			p.destroyBuffer(e)
		}
	}
	for _, e := range p.loanedTextures {
		p.destroyTexture(e)
	}
	for _, e := range p.loanedBuffers {
		p.destroyBuffer(e)
	}
	clear(p.freeTextures)
	clear(p.freeBuffers)
	p.loanedTextures = nil
	p.loanedBuffers = nil
	p.usedBytes = 0
	p.closed = true
}

// Stats returns current pool statistics.
func (p *Pool) Stats() Stats {
	s := Stats{
		InUseTextures:   len(p.loanedTextures),
		InUseBuffers:    len(p.loanedBuffers),
		TexturesCreated: p.texturesCreated,
		BuffersCreated:  p.buffersCreated,
		Reused:          p.reused,
		Evicted:         p.evicted,
		UsedBytes:       p.usedBytes,
		BudgetBytes:     p.cfg.MaxBytes,
	}
	for _, list := range p.freeTextures {
		s.PooledTextures += len(list)
	}
	for _, list := range p.freeBuffers {
		s.PooledBuffers += len(list)
	}
	return s
}

func (p *Pool) loanTexture(e *textureEntry) {
	e.inUse = true
	e.lastUsed = p.frame
	p.loanedTextures = append(p.loanedTextures, e)
}

func (p *Pool) loanBuffer(e *bufferEntry) {
	e.inUse = true
	e.lastUsed = p.frame
	p.loanedBuffers = append(p.loanedBuffers, e)
}

// reserve makes room for size bytes under the budget, evicting free entries
// least recently used first.
func (p *Pool) reserve(size uint64) error {
	budget := p.cfg.MaxBytes
	if budget == 0 || p.usedBytes+size <= budget {
		return nil
	}
	if size > budget {
		return fmt.Errorf("%w: %d KB request exceeds %d KB budget",
			ErrBudgetExceeded, size/1024, budget/1024)
	}

	type candidate struct {
		lastUsed uint64
		evict    func()
	}
	var candidates []candidate
	for _, list := range p.freeTextures {
		for _, e := range list {
			candidates = append(candidates, candidate{e.lastUsed, func() { p.evictTexture(e) }})
		}
	}
	for _, list := range p.freeBuffers {
		for _, e := range list {
			candidates = append(candidates, candidate{e.lastUsed, func() { p.evictBuffer(e) }})
		}
	}
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		switch {
		case a.lastUsed < b.lastUsed:
			return -1
		case a.lastUsed > b.lastUsed:
			return 1
		}
		return 0
	})

	for _, c := range candidates {
		if p.usedBytes+size <= budget {
			break
		}
		c.evict()
	}
	if p.usedBytes+size > budget {
		return fmt.Errorf("%w: need %d KB, %d KB of %d KB in use",
			ErrBudgetExceeded, size/1024, p.usedBytes/1024, budget/1024)
	}
	return nil
}

func (p *Pool) evictStale() {
	limit := p.cfg.EvictAfterFrames
	stale := func(lastUsed uint64) bool {
		return p.frame >= lastUsed && p.frame-lastUsed >= limit
	}

	var victims []*textureEntry
	for _, list := range p.freeTextures {
		for _, e := range list {
			if stale(e.lastUsed) {
				victims = append(victims, e)
			}
		}
	}
	for _, e := range victims {
		p.evictTexture(e)
	}

	var bufVictims []*bufferEntry
	for _, list := range p.freeBuffers {
		for _, e := range list {
			if stale(e.lastUsed) {
				bufVictims = append(bufVictims, e)
			}
		}
	}
	for _, e := range bufVictims {
		p.evictBuffer(e)
	}

	if n := len(victims) + len(bufVictims); n > 0 {
		slogger().Debug("pool: evicted stale entries", "frame", p.frame, "count", n)
	}
}

func (p *Pool) evictTexture(e *textureEntry) {
	list := p.freeTextures[e.desc]
	i := slices.Index(list, e)
	if i < 0 {
		return
	}
	list = slices.Delete(list, i, i+1)
	if len(list) == 0 {
		delete(p.freeTextures, e.desc)
	} else {
		p.freeTextures[e.desc] = list
	}
	p.usedBytes -= e.sizeBytes
	p.evicted++

	device, tex, view := p.device, e.texture, e.view
	p.retire("texture "+e.desc.String(), func() {
		device.DestroyTextureView(view)
		device.DestroyTexture(tex)
	})
}

func (p *Pool) evictBuffer(e *bufferEntry) {
	list := p.freeBuffers[e.desc]
	i := slices.Index(list, e)
	if i < 0 {
		return
	}
	list = slices.Delete(list, i, i+1)
	if len(list) == 0 {
		delete(p.freeBuffers, e.desc)
	} else {
		p.freeBuffers[e.desc] = list
	}
	p.usedBytes -= e.sizeBytes
	p.evicted++

	device, buf := p.device, e.buffer
	p.retire("buffer "+e.desc.String(), func() {
		device.DestroyBuffer(buf)
	})
}

func (p *Pool) retire(label string, destroy func()) {
	if p.cfg.Retire != nil {
		p.cfg.Retire(label, destroy)
		return
	}
	destroy()
}

func (p *Pool) destroyTexture(e *textureEntry) {
	if e.view != nil {
		p.device.DestroyTextureView(e.view)
	}
	if e.texture != nil {
		p.device.DestroyTexture(e.texture)
	}
}

func (p *Pool) destroyBuffer(e *bufferEntry) {
	if e.buffer != nil {
		p.device.DestroyBuffer(e.buffer)
	}
}
