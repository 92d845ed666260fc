// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu implements backend.Device on top of the gogpu/wgpu HAL.
//
// Buffers, textures and framebuffers map to hal buffers and textures,
// programs are WGSL sources compiled to SPIR-V with naga, vertex arrays
// are gputypes vertex layouts and pipelines are hal render pipelines.
// Every Draw encodes one render pass, submits it and waits for the fence.
//
// # Shader Interface
//
// Programs see their inputs at fixed locations:
//
//   - vertex attribute i of the graphics object is @location(i), one vertex
//     buffer per attribute, in attribute order
//   - the uniform block is @group(0) @binding(0), laid out by
//     descriptor.UniformLayout (every member 16-byte aligned)
//   - texture parameter i is a texture_2d<f32> at @group(0) @binding(1+2i)
//     and its sampler at @group(0) @binding(2+2i)
//
// Framebuffers are RGBA8Unorm with a Depth24PlusStencil8 depth buffer;
// pipelines depth-test with CompareFunctionLess.
//
// # Devices
//
// New wraps an existing hal device, NewFromProvider takes it from a
// gpucontext.DeviceProvider, Open creates one from a registered HAL
// backend and NewNoop creates one on the noop HAL, which accepts every
// call and renders nothing.
package wgpu
