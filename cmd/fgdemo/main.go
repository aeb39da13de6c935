// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command fgdemo records a small deferred-shading frame graph on the noop
// HAL backend for a number of frames and reports what the graph did.
//
//	fgdemo -frames 120 -dot frame.dot -v
//	dot -Tsvg frame.dot -o frame.svg
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/passes"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

func main() {
	var (
		frames  = flag.Int("frames", 60, "number of frames to record")
		width   = flag.Int("width", 1280, "backbuffer width")
		height  = flag.Int("height", 720, "backbuffer height")
		defers  = flag.Uint64("defer", 3, "frames a deletion waits before destruction")
		budget  = flag.Uint64("budget", 0, "transient pool budget in MB, 0 for unlimited")
		dotPath = flag.String("dot", "", "write the last frame as a Graphviz file")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		framegraph.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		log.Fatalf("Failed to create instance: %v", err)
	}
	defer instance.Destroy()

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		log.Fatal("No adapters")
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		log.Fatalf("Failed to open device: %v", err)
	}
	device := open.Device
	defer device.Destroy()

	r, err := newRenderer(device, uint32(*width), uint32(*height))
	if err != nil {
		log.Fatalf("Failed to create renderer: %v", err)
	}
	g := framegraph.New(device,
		framegraph.WithDeferFrames(*defers),
		framegraph.WithMemoryBudget(*budget<<20))

	for frame := 1; frame <= *frames; frame++ {
		last := frame == *frames
		if err := r.frame(g, open.Queue, uint64(frame)); err != nil {
			log.Fatalf("Frame %d: %v", frame, err)
		}
		if last && *dotPath != "" {
			writeDOT(g, *dotPath)
		}
		if last {
			slog.Info("last frame", "stats", g.Stats().String())
		}
		g.EndFrame()
	}

	r.release(g)
	if err := g.Close(); err != nil {
		log.Fatalf("Close: %v", err)
	}
	st := g.Stats()
	log.Printf("Recorded %d frames: %d textures, %d buffers created, %d reused, %d deletions",
		*frames, st.Pool.TexturesCreated, st.Pool.BuffersCreated, st.Pool.Reused, st.Deletions.Destroyed)
}

// renderer owns the persistent state of the demo: the backbuffer and the
// fullscreen passes whose pipelines are built once.
type renderer struct {
	width, height uint32

	backbuffer     hal.Texture
	backbufferView hal.TextureView

	lighting *passes.Fullscreen
	tonemap  *passes.Fullscreen

	// Handles rebound by Setup every frame.
	albedo, emissive, lit, ldr, back framegraph.TextureHandle
	params                           framegraph.BufferHandle
}

func newRenderer(device hal.Device, width, height uint32) (*renderer, error) {
	r := &renderer{width: width, height: height}

	var err error
	r.backbuffer, err = device.CreateTexture(&hal.TextureDescriptor{
		Label:         "backbuffer",
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create backbuffer: %w", err)
	}
	r.backbufferView, err = device.CreateTextureView(r.backbuffer, &hal.TextureViewDescriptor{Label: "backbuffer"})
	if err != nil {
		return nil, fmt.Errorf("create backbuffer view: %w", err)
	}

	r.lighting, err = passes.NewFullscreen("lighting", passes.CompositeWGSL,
		gputypes.TextureFormatRGBA16Float, &r.lit, &r.albedo, &r.emissive)
	if err != nil {
		return nil, err
	}
	r.lighting.CreateOutput(r.target(gputypes.TextureFormatRGBA16Float))

	r.tonemap, err = passes.NewFullscreen("tonemap", passes.TonemapWGSL,
		gputypes.TextureFormatBGRA8Unorm, &r.ldr, &r.lit)
	if err != nil {
		return nil, err
	}
	// Same format as the backbuffer so that present is a plain copy.
	r.tonemap.CreateOutput(withCopySrc(r.target(gputypes.TextureFormatBGRA8Unorm)))
	return r, nil
}

func withCopySrc(d framegraph.TextureDesc) framegraph.TextureDesc {
	d.Usage |= gputypes.TextureUsageCopySrc
	return d
}

func (r *renderer) target(format gputypes.TextureFormat) framegraph.TextureDesc {
	return framegraph.TextureDesc{
		Width:  r.width,
		Height: r.height,
		Format: format,
		Usage:  gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding,
	}
}

// frame records and submits one frame. Passes are added producer first;
// the graph orders them by their declared reads and writes.
func (r *renderer) frame(g *framegraph.Graph, queue hal.Queue, index uint64) error {
	g.BeginFrame(index)
	r.back = g.ImportTexture("backbuffer", r.backbuffer, r.backbufferView)

	g.AddPass(passes.NewClearTarget("gbuffer", r.target(gputypes.TextureFormatRGBA8Unorm),
		&r.albedo, gputypes.Color{R: 0.2, G: 0.3, B: 0.4, A: 1}))
	g.AddPass(passes.NewClearTarget("emissive", r.target(gputypes.TextureFormatRGBA16Float),
		&r.emissive, gputypes.Color{}))
	g.AddPass(framegraph.NewPass("light-params", func(b *framegraph.Builder) {
		r.params = b.WriteBuffer(b.CreateBuffer("light params", framegraph.BufferDesc{
			Size:  256,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		}))
	}, nil))
	g.AddPass(passes.NewClearBuffer("zero-params", &r.params))
	g.AddPass(r.lighting)
	g.AddPass(r.tonemap)
	g.AddPass(passes.NewCopy("present", &r.ldr, &r.back))

	device := g.Device()
	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "frame"})
	if err != nil {
		return err
	}
	if err := encoder.BeginEncoding("frame"); err != nil {
		return err
	}
	if err := g.Execute(encoder); err != nil {
		encoder.DiscardEncoding()
		return err
	}
	cmd, err := encoder.EndEncoding()
	if err != nil {
		return err
	}
	if _, err := queue.Submit([]hal.CommandBuffer{cmd}); err != nil {
		return err
	}
	g.QueueDeleteFunc("command buffer", func() { device.FreeCommandBuffer(cmd) })
	return nil
}

func (r *renderer) release(g *framegraph.Graph) {
	r.lighting.Release(g)
	r.tonemap.Release(g)
	g.QueueDeleteTexture(r.backbuffer, r.backbufferView)
}

func writeDOT(g *framegraph.Graph, path string) {
	f, err := os.Create(path)
	if err != nil {
		log.Printf("dot: %v", err)
		return
	}
	defer f.Close()
	if err := g.WriteDOT(f); err != nil {
		log.Printf("dot: %v", err)
		return
	}
	log.Printf("Frame graph written to %s", path)
}
