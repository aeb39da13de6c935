// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package passes

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/framegraph/internal/cache"
	"github.com/gogpu/naga"
)

// modules holds compiled fullscreen shaders keyed by fragment source, so
// passes sharing a shader compile it once per process.
var modules = cache.New[string, []uint32](64)

// fullscreenVertexWGSL draws one triangle covering the viewport. Fragment
// sources are appended to it and receive VertexOutput.
const fullscreenVertexWGSL = `
struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@builtin(vertex_index) idx: u32) -> VertexOutput {
    var positions = array<vec2<f32>, 3>(
        vec2<f32>(-1.0, -1.0),
        vec2<f32>(3.0, -1.0),
        vec2<f32>(-1.0, 3.0)
    );
    var uvs = array<vec2<f32>, 3>(
        vec2<f32>(0.0, 1.0),
        vec2<f32>(2.0, 1.0),
        vec2<f32>(0.0, -1.0)
    );

    var out: VertexOutput;
    out.position = vec4<f32>(positions[idx], 0.0, 1.0);
    out.uv = uvs[idx];
    return out;
}
`

// BlitWGSL samples its single input unchanged.
const BlitWGSL = `
@group(0) @binding(0) var src_sampler: sampler;
@group(0) @binding(1) var src: texture_2d<f32>;

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return textureSample(src, src_sampler, in.uv);
}
`

// TonemapWGSL applies Reinhard tone mapping to an HDR input.
const TonemapWGSL = `
@group(0) @binding(0) var src_sampler: sampler;
@group(0) @binding(1) var src: texture_2d<f32>;

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let hdr = textureSample(src, src_sampler, in.uv);
    let mapped = hdr.rgb / (hdr.rgb + vec3<f32>(1.0, 1.0, 1.0));
    return vec4<f32>(mapped, hdr.a);
}
`

// CompositeWGSL adds its second input on top of its first.
const CompositeWGSL = `
@group(0) @binding(0) var src_sampler: sampler;
@group(0) @binding(1) var base: texture_2d<f32>;
@group(0) @binding(2) var overlay: texture_2d<f32>;

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let a = textureSample(base, src_sampler, in.uv);
    let b = textureSample(overlay, src_sampler, in.uv);
    return vec4<f32>(a.rgb + b.rgb, a.a);
}
`

// compileFullscreen compiles a fragment source together with the fullscreen
// vertex stage into SPIR-V words. The result is shared and must not be
// modified.
func compileFullscreen(fragmentWGSL string) ([]uint32, error) {
	return modules.GetOrCreate(fragmentWGSL, func() ([]uint32, error) {
		return compileSPIRV(fullscreenVertexWGSL + fragmentWGSL)
	})
}

// compileSPIRV runs source through naga and returns the module as SPIR-V
// words.
func compileSPIRV(source string) ([]uint32, error) {
	code, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("compile fullscreen shader: %w", err)
	}
	return spirvWords(code)
}

// spirvWords reinterprets a little-endian SPIR-V byte stream as words.
func spirvWords(code []byte) ([]uint32, error) {
	if len(code)%4 != 0 {
		return nil, fmt.Errorf("spirv: %d bytes is not a whole number of words", len(code))
	}
	words := make([]uint32, 0, len(code)/4)
	for off := 0; off < len(code); off += 4 {
		words = append(words, binary.LittleEndian.Uint32(code[off:]))
	}
	return words, nil
}
