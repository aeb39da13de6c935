// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package passes

import (
	"testing"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// =============================================================================
// Test doubles over the noop backend
// =============================================================================

type testTexture struct{ id int }

func (t *testTexture) Destroy()                            {}
func (t *testTexture) NativeHandle() uintptr               { return uintptr(t.id) }
func (t *testTexture) CurrentUsage() gputypes.TextureUsage { return 0 }
func (t *testTexture) AddPendingRef()                      {}
func (t *testTexture) DecPendingRef()                      {}

type testResource struct{ id int }

func (r *testResource) Destroy()              {}
func (r *testResource) NativeHandle() uintptr { return uintptr(r.id) }

// testDevice gives every texture, view and buffer a distinct identity and
// counts pipeline object lifetimes.
type testDevice struct {
	hal.Device

	nextID int

	bindGroupsCreated   int
	bindGroupsDestroyed int
	pipelinesCreated    int
	pipelinesDestroyed  int
	samplersDestroyed   int
}

func (d *testDevice) id() int {
	d.nextID++
	return d.nextID
}

func (d *testDevice) CreateTexture(*hal.TextureDescriptor) (hal.Texture, error) {
	return &testTexture{id: d.id()}, nil
}

func (d *testDevice) CreateTextureView(hal.Texture, *hal.TextureViewDescriptor) (hal.TextureView, error) {
	return &testResource{id: d.id()}, nil
}

func (d *testDevice) CreateBuffer(*hal.BufferDescriptor) (hal.Buffer, error) {
	return &testResource{id: d.id()}, nil
}

func (d *testDevice) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	d.bindGroupsCreated++
	return d.Device.CreateBindGroup(desc)
}

func (d *testDevice) DestroyBindGroup(hal.BindGroup) { d.bindGroupsDestroyed++ }

func (d *testDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	d.pipelinesCreated++
	return d.Device.CreateRenderPipeline(desc)
}

func (d *testDevice) DestroyRenderPipeline(hal.RenderPipeline) { d.pipelinesDestroyed++ }

func (d *testDevice) DestroySampler(hal.Sampler) { d.samplersDestroyed++ }

func newTestDevice(t *testing.T) *testDevice {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return &testDevice{Device: openDev.Device}
}

// recordingEncoder records the commands the passes issue.
type recordingEncoder struct {
	hal.CommandEncoder

	renderPasses []*hal.RenderPassDescriptor
	draws        []uint32
	bindGroups   int
	bufferClears []uint64
	bufferCopies []hal.BufferCopy
	textureCopy  []textureCopy
}

type textureCopy struct {
	src, dst hal.Texture
	size     hal.Extent3D
}

func newRecordingEncoder(t *testing.T, device hal.Device) *recordingEncoder {
	t.Helper()
	enc, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "test"})
	if err != nil {
		t.Fatalf("CreateCommandEncoder: %v", err)
	}
	return &recordingEncoder{CommandEncoder: enc}
}

func (e *recordingEncoder) ClearBuffer(_ hal.Buffer, _, size uint64) {
	e.bufferClears = append(e.bufferClears, size)
}

func (e *recordingEncoder) CopyBufferToBuffer(_, _ hal.Buffer, regions []hal.BufferCopy) {
	e.bufferCopies = append(e.bufferCopies, regions...)
}

func (e *recordingEncoder) CopyTextureToTexture(src, dst hal.Texture, regions []hal.TextureCopy) {
	for _, r := range regions {
		e.textureCopy = append(e.textureCopy, textureCopy{src: src, dst: dst, size: r.Size})
	}
}

func (e *recordingEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	e.renderPasses = append(e.renderPasses, desc)
	return &recordingRenderPass{RenderPassEncoder: e.CommandEncoder.BeginRenderPass(desc), enc: e}
}

type recordingRenderPass struct {
	hal.RenderPassEncoder
	enc *recordingEncoder
}

func (r *recordingRenderPass) SetBindGroup(index uint32, group hal.BindGroup, offsets []uint32) {
	r.enc.bindGroups++
	r.RenderPassEncoder.SetBindGroup(index, group, offsets)
}

func (r *recordingRenderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	r.enc.draws = append(r.enc.draws, vertexCount)
	r.RenderPassEncoder.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func targetDesc(format gputypes.TextureFormat) framegraph.TextureDesc {
	return framegraph.TextureDesc{
		Width:  16,
		Height: 8,
		Format: format,
		Usage: gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding |
			gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst,
	}
}
