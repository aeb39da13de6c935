// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// =============================================================================
// Mock HAL objects
// =============================================================================

type mockTexture struct{ id int }

func (t *mockTexture) Destroy()                            {}
func (t *mockTexture) NativeHandle() uintptr               { return uintptr(t.id) }
func (t *mockTexture) CurrentUsage() gputypes.TextureUsage { return 0 }
func (t *mockTexture) AddPendingRef()                      {}
func (t *mockTexture) DecPendingRef()                      {}

// mockResource serves as buffer and view.
type mockResource struct {
	id        int
	destroyed int
}

func (r *mockResource) Destroy()              { r.destroyed++ }
func (r *mockResource) NativeHandle() uintptr { return uintptr(r.id) }

// mockDevice wraps a noop device, gives every object a distinct identity
// and counts creations and destructions.
type mockDevice struct {
	hal.Device

	nextID int

	texturesCreated   int
	texturesDestroyed int
	viewsDestroyed    int
	buffersCreated    int
	buffersDestroyed  int
	waitIdleCalls     int

	// failTextures makes the next n CreateTexture calls fail.
	failTextures int
}

var errDeviceOOM = errors.New("device out of memory")

func (d *mockDevice) id() int {
	d.nextID++
	return d.nextID
}

func (d *mockDevice) CreateTexture(*hal.TextureDescriptor) (hal.Texture, error) {
	if d.failTextures > 0 {
		d.failTextures--
		return nil, errDeviceOOM
	}
	d.texturesCreated++
	return &mockTexture{id: d.id()}, nil
}

func (d *mockDevice) DestroyTexture(hal.Texture) { d.texturesDestroyed++ }

func (d *mockDevice) CreateTextureView(hal.Texture, *hal.TextureViewDescriptor) (hal.TextureView, error) {
	return &mockResource{id: d.id()}, nil
}

func (d *mockDevice) DestroyTextureView(hal.TextureView) { d.viewsDestroyed++ }

func (d *mockDevice) CreateBuffer(*hal.BufferDescriptor) (hal.Buffer, error) {
	d.buffersCreated++
	return &mockResource{id: d.id()}, nil
}

func (d *mockDevice) DestroyBuffer(hal.Buffer) { d.buffersDestroyed++ }

func (d *mockDevice) WaitIdle() error {
	d.waitIdleCalls++
	return nil
}

func newMockDevice(t *testing.T) *mockDevice {
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
	return &mockDevice{Device: openDev.Device}
}

// =============================================================================
// Pass helpers
// =============================================================================

func colorTarget(w, h uint32) TextureDesc {
	return TextureDesc{
		Width:  w,
		Height: h,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding,
	}
}

// recorder collects the names of executed passes.
type recorder struct {
	executed []string
}

func (r *recorder) pass(name string, setup func(*Builder)) *FuncPass {
	return NewPass(name, setup, func(*Context) {
		r.executed = append(r.executed, name)
	})
}

func orderNames(ps []Pass) []string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Name()
	}
	return names
}

func positions(ps []Pass) map[string]int {
	pos := make(map[string]int, len(ps))
	for i, p := range ps {
		pos[p.Name()] = i
	}
	return pos
}
