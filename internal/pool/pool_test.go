// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pool

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// =============================================================================
// Mock resources and device
// =============================================================================

type mockTexture struct {
	id    int
	label string
}

func (t *mockTexture) Destroy()                            {}
func (t *mockTexture) NativeHandle() uintptr               { return uintptr(t.id) }
func (t *mockTexture) CurrentUsage() gputypes.TextureUsage { return 0 }
func (t *mockTexture) AddPendingRef()                      {}
func (t *mockTexture) DecPendingRef()                      {}

type mockView struct{ id int }

func (v *mockView) Destroy()              {}
func (v *mockView) NativeHandle() uintptr { return uintptr(v.id) }

type mockBuffer struct {
	id   int
	size uint64
}

func (b *mockBuffer) Destroy()              {}
func (b *mockBuffer) NativeHandle() uintptr { return uintptr(b.id) }

// countingDevice wraps a noop device and counts texture and buffer lifetimes.
type countingDevice struct {
	hal.Device

	nextID int

	texturesCreated   int
	texturesDestroyed int
	viewsDestroyed    int
	buffersCreated    int
	buffersDestroyed  int

	failTextures bool
}

func (d *countingDevice) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	if d.failTextures {
		return nil, errors.New("out of memory")
	}
	d.nextID++
	d.texturesCreated++
	return &mockTexture{id: d.nextID, label: desc.Label}, nil
}

func (d *countingDevice) DestroyTexture(hal.Texture) { d.texturesDestroyed++ }

func (d *countingDevice) CreateTextureView(hal.Texture, *hal.TextureViewDescriptor) (hal.TextureView, error) {
	d.nextID++
	return &mockView{id: d.nextID}, nil
}

func (d *countingDevice) DestroyTextureView(hal.TextureView) { d.viewsDestroyed++ }

func (d *countingDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	d.nextID++
	d.buffersCreated++
	return &mockBuffer{id: d.nextID, size: desc.Size}, nil
}

func (d *countingDevice) DestroyBuffer(hal.Buffer) { d.buffersDestroyed++ }

func newCountingDevice(t *testing.T) *countingDevice {
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
	return &countingDevice{Device: openDev.Device}
}

var colorDesc = TextureDesc{
	Width:  64,
	Height: 32,
	Format: gputypes.TextureFormatRGBA8Unorm,
	Usage:  gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding,
}

// =============================================================================
// Reuse
// =============================================================================

func TestPool_ReusesAcrossFrames(t *testing.T) {
	dev := newCountingDevice(t)
	p := New(dev, Config{})

	var first hal.Texture
	for frame := uint64(1); frame <= 5; frame++ {
		p.BeginFrame(frame)
		tex, view, err := p.AllocateTexture("color", colorDesc)
		if err != nil {
			t.Fatalf("frame %d: AllocateTexture: %v", frame, err)
		}
		if view == nil {
			t.Fatalf("frame %d: nil view", frame)
		}
		if first == nil {
			first = tex
		} else if tex != first {
			t.Errorf("frame %d: got texture %v, want reused %v", frame, tex, first)
		}
		p.EndFrame()
	}

	if dev.texturesCreated != 1 {
		t.Errorf("texturesCreated = %d, want 1", dev.texturesCreated)
	}
	st := p.Stats()
	if st.Reused != 4 {
		t.Errorf("Reused = %d, want 4", st.Reused)
	}
	if st.PooledTextures != 1 || st.InUseTextures != 0 {
		t.Errorf("Stats() = %+v, want 1 pooled texture", st)
	}
}

func TestPool_SameFrameGetsDistinctObjects(t *testing.T) {
	dev := newCountingDevice(t)
	p := New(dev, Config{})
	p.BeginFrame(1)

	a, _, _ := p.AllocateTexture("a", colorDesc)
	b, _, _ := p.AllocateTexture("b", colorDesc)
	if a == b {
		t.Fatal("two loans in one frame returned the same texture")
	}
	p.EndFrame()

	p.BeginFrame(2)
	c, _, _ := p.AllocateTexture("c", colorDesc)
	d, _, _ := p.AllocateTexture("d", colorDesc)
	if dev.texturesCreated != 2 {
		t.Errorf("texturesCreated = %d, want 2", dev.texturesCreated)
	}
	if c == d {
		t.Error("reused textures are not distinct")
	}
}

func TestPool_DescriptorIsKey(t *testing.T) {
	dev := newCountingDevice(t)
	p := New(dev, Config{})
	p.BeginFrame(1)
	_, _, _ = p.AllocateTexture("a", colorDesc)
	p.EndFrame()

	other := colorDesc
	other.Format = gputypes.TextureFormatRGBA16Float

	p.BeginFrame(2)
	_, _, _ = p.AllocateTexture("b", other)
	if dev.texturesCreated != 2 {
		t.Errorf("texturesCreated = %d, want 2 (formats differ)", dev.texturesCreated)
	}

	// Zero fields normalize to the same key.
	explicit := colorDesc
	explicit.DepthOrArrayLayers = 1
	explicit.MipLevelCount = 1
	explicit.SampleCount = 1
	explicit.Dimension = gputypes.TextureDimension2D
	_, _, _ = p.AllocateTexture("c", explicit)
	if dev.texturesCreated != 2 {
		t.Errorf("texturesCreated = %d, want 2 (normalized descriptor reused)", dev.texturesCreated)
	}
}

func TestPool_BufferSizeClass(t *testing.T) {
	dev := newCountingDevice(t)
	p := New(dev, Config{BufferSizeClassBits: 1})

	p.BeginFrame(1)
	buf, err := p.AllocateBuffer("a", BufferDesc{Size: 1000, Usage: gputypes.BufferUsageStorage})
	if err != nil {
		t.Fatalf("AllocateBuffer: %v", err)
	}
	if got := buf.(*mockBuffer).size; got != 1024 {
		t.Errorf("buffer size = %d, want 1024", got)
	}
	p.EndFrame()

	p.BeginFrame(2)
	again, _ := p.AllocateBuffer("b", BufferDesc{Size: 900, Usage: gputypes.BufferUsageStorage})
	if again != buf {
		t.Error("buffer in the same size class was not reused")
	}
	if dev.buffersCreated != 1 {
		t.Errorf("buffersCreated = %d, want 1", dev.buffersCreated)
	}
}

func TestSizeClass(t *testing.T) {
	tests := []struct {
		x    uint64
		bits uint32
		want uint64
	}{
		{1, 1, 2},
		{2, 1, 2},
		{3, 1, 3},
		{5, 1, 6},
		{7, 1, 8},
		{1000, 1, 1024},
		{1025, 1, 1536},
		{1537, 1, 2048},
		{1000, 0, 1024},
	}
	for _, tt := range tests {
		if got := sizeClass(tt.x, tt.bits); got != tt.want {
			t.Errorf("sizeClass(%d, %d) = %d, want %d", tt.x, tt.bits, got, tt.want)
		}
	}
}

// =============================================================================
// Eviction and budget
// =============================================================================

func TestPool_EvictsStaleEntries(t *testing.T) {
	dev := newCountingDevice(t)
	p := New(dev, Config{EvictAfterFrames: 2})

	p.BeginFrame(1)
	_, _, _ = p.AllocateTexture("a", colorDesc)
	p.EndFrame()

	p.BeginFrame(2)
	p.EndFrame()
	if dev.texturesDestroyed != 0 {
		t.Fatalf("evicted after 1 idle frame")
	}

	p.BeginFrame(3)
	if dev.texturesDestroyed != 1 || dev.viewsDestroyed != 1 {
		t.Errorf("destroyed tex=%d view=%d, want 1/1", dev.texturesDestroyed, dev.viewsDestroyed)
	}
	if st := p.Stats(); st.Evicted != 1 || st.PooledTextures != 0 || st.UsedBytes != 0 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestPool_EvictionGoesThroughRetire(t *testing.T) {
	dev := newCountingDevice(t)
	var retired []func()
	p := New(dev, Config{
		EvictAfterFrames: 1,
		Retire: func(label string, destroy func()) {
			if !strings.HasPrefix(label, "buffer") {
				t.Errorf("retire label = %q", label)
			}
			retired = append(retired, destroy)
		},
	})

	p.BeginFrame(1)
	_, _ = p.AllocateBuffer("a", BufferDesc{Size: 256, Usage: gputypes.BufferUsageUniform})
	p.EndFrame()
	p.BeginFrame(2)

	if len(retired) != 1 {
		t.Fatalf("retired %d, want 1", len(retired))
	}
	if dev.buffersDestroyed != 0 {
		t.Fatal("buffer destroyed before retire callback ran")
	}
	retired[0]()
	if dev.buffersDestroyed != 1 {
		t.Errorf("buffersDestroyed = %d, want 1", dev.buffersDestroyed)
	}
}

func TestPool_BudgetEvictsOldestFirst(t *testing.T) {
	dev := newCountingDevice(t)
	size := colorDesc.SizeBytes()
	p := New(dev, Config{MaxBytes: 2 * size})

	small := colorDesc
	other := colorDesc
	other.Usage = gputypes.TextureUsageTextureBinding

	p.BeginFrame(1)
	old, _, _ := p.AllocateTexture("old", small)
	p.EndFrame()
	p.BeginFrame(2)
	_, _, _ = p.AllocateTexture("newer", other)
	p.EndFrame()

	third := colorDesc
	third.Usage = gputypes.TextureUsageCopyDst
	p.BeginFrame(3)
	if _, _, err := p.AllocateTexture("third", third); err != nil {
		t.Fatalf("AllocateTexture: %v", err)
	}
	if dev.texturesDestroyed != 1 {
		t.Fatalf("texturesDestroyed = %d, want 1", dev.texturesDestroyed)
	}

	// The older entry is gone, the newer one is still pooled.
	got, _, _ := p.AllocateTexture("other", other)
	if dev.texturesCreated != 3 {
		t.Errorf("texturesCreated = %d, want 3 (newer entry reused)", dev.texturesCreated)
	}
	if got == old {
		t.Error("got the evicted texture back")
	}
}

func TestPool_BudgetExceeded(t *testing.T) {
	dev := newCountingDevice(t)
	p := New(dev, Config{MaxBytes: colorDesc.SizeBytes()})
	p.BeginFrame(1)

	if _, _, err := p.AllocateTexture("a", colorDesc); err != nil {
		t.Fatalf("first allocation: %v", err)
	}
	// The only entry is loaned, so nothing can be evicted.
	_, _, err := p.AllocateTexture("b", colorDesc)
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Errorf("err = %v, want ErrBudgetExceeded", err)
	}

	big := colorDesc
	big.Width = 4096
	big.Height = 4096
	_, _, err = p.AllocateTexture("big", big)
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Errorf("oversized err = %v, want ErrBudgetExceeded", err)
	}
}

// =============================================================================
// Lifecycle
// =============================================================================

func TestPool_BeginFrameReturnsOutstandingLoans(t *testing.T) {
	dev := newCountingDevice(t)
	p := New(dev, Config{})
	p.BeginFrame(1)
	a, _, _ := p.AllocateTexture("a", colorDesc)

	// EndFrame skipped.
	p.BeginFrame(2)
	b, _, _ := p.AllocateTexture("b", colorDesc)
	if a != b {
		t.Error("outstanding loan was not returned at BeginFrame")
	}
}

func TestPool_InvalidDescriptor(t *testing.T) {
	dev := newCountingDevice(t)
	p := New(dev, Config{})

	tests := []struct {
		name string
		desc TextureDesc
	}{
		{"zero size", TextureDesc{Format: gputypes.TextureFormatRGBA8Unorm, Usage: gputypes.TextureUsageCopyDst}},
		{"no format", TextureDesc{Width: 1, Height: 1, Usage: gputypes.TextureUsageCopyDst}},
		{"no usage", TextureDesc{Width: 1, Height: 1, Format: gputypes.TextureFormatRGBA8Unorm}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := p.AllocateTexture(tt.name, tt.desc)
			if !errors.Is(err, ErrInvalidDescriptor) {
				t.Errorf("err = %v, want ErrInvalidDescriptor", err)
			}
		})
	}

	if _, err := p.AllocateBuffer("empty", BufferDesc{}); !errors.Is(err, ErrInvalidDescriptor) {
		t.Errorf("buffer err = %v, want ErrInvalidDescriptor", err)
	}
	if dev.texturesCreated+dev.buffersCreated != 0 {
		t.Error("device called for invalid descriptors")
	}
}

func TestPool_DeviceErrorWrapped(t *testing.T) {
	dev := newCountingDevice(t)
	dev.failTextures = true
	p := New(dev, Config{})

	_, _, err := p.AllocateTexture("gbuffer", colorDesc)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "gbuffer") {
		t.Errorf("err = %v, want label in message", err)
	}
	if p.Stats().UsedBytes != 0 {
		t.Error("failed allocation counted against budget")
	}
}

func TestPool_Clear(t *testing.T) {
	dev := newCountingDevice(t)
	p := New(dev, Config{})

	p.BeginFrame(1)
	_, _, _ = p.AllocateTexture("a", colorDesc)
	_, _ = p.AllocateBuffer("b", BufferDesc{Size: 64, Usage: gputypes.BufferUsageVertex})
	p.EndFrame()
	p.BeginFrame(2)
	_, _, _ = p.AllocateTexture("loaned", colorDesc)
	_, _, _ = p.AllocateTexture("fresh", colorDesc)

	p.Clear()
	if dev.texturesDestroyed != 2 || dev.viewsDestroyed != 2 || dev.buffersDestroyed != 1 {
		t.Errorf("destroyed tex=%d view=%d buf=%d, want 2/2/1",
			dev.texturesDestroyed, dev.viewsDestroyed, dev.buffersDestroyed)
	}
	if _, _, err := p.AllocateTexture("late", colorDesc); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("err = %v, want ErrPoolClosed", err)
	}
}

func TestTextureDesc_SizeBytes(t *testing.T) {
	tests := []struct {
		name string
		desc TextureDesc
		want uint64
	}{
		{"rgba8", TextureDesc{Width: 4, Height: 4, Format: gputypes.TextureFormatRGBA8Unorm}, 64},
		{"rgba16f", TextureDesc{Width: 4, Height: 4, Format: gputypes.TextureFormatRGBA16Float}, 128},
		{"mips", TextureDesc{Width: 4, Height: 4, MipLevelCount: 3, Format: gputypes.TextureFormatR8Unorm}, 16 + 4 + 1},
		{"msaa", TextureDesc{Width: 2, Height: 2, SampleCount: 4, Format: gputypes.TextureFormatRGBA8Unorm}, 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.desc.SizeBytes(); got != tt.want {
				t.Errorf("SizeBytes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStats_String(t *testing.T) {
	s := Stats{PooledTextures: 2, InUseTextures: 1, PooledBuffers: 3, TexturesCreated: 3, BuffersCreated: 3, Reused: 9, UsedBytes: 4096}
	want := "Pool[tex 2 free/1 used, buf 3 free/0 used, 6 created, 9 reused, 0 evicted, 4 KB]"
	if got := s.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
