// Copyright 2026 The Lamina Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the GPU backend on WebGPU compute shaders.
//
// Example:
//
//	gpu, err := webgpu.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gpu.Release()
//
//	conv := nn.NewConv2D(nn.Conv2DConfig{InChannels: 3, OutChannels: 16, KernelSize: [2]int{3, 3}}, gpu)
package webgpu

import (
	internalwebgpu "github.com/lamina-ml/lamina/internal/backend/webgpu"
	"github.com/lamina-ml/lamina/tensor"
)

// Backend computes tensor operations on the GPU through WebGPU.
type Backend = internalwebgpu.Backend

// MemoryStats is a snapshot of GPU memory usage.
type MemoryStats = internalwebgpu.MemoryStats

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a WebGPU backend. Call Release when done to free GPU
// resources. Returns an error when no compatible GPU or native library is
// available.
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable reports whether WebGPU can be initialized on this system.
// Useful for falling back to the CPU backend:
//
//	var backend tensor.Backend = cpu.New()
//	if webgpu.IsAvailable() {
//	    backend, _ = webgpu.New()
//	}
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
