// Copyright 2026 The Lamina Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/lamina-ml/lamina/internal/tensor"
)

// Backend is the interface compute backends implement. Layers decide shapes
// and parameters; backends do the arithmetic.
//
// Implementations: backend/cpu (reference kernels), backend/webgpu (WGSL
// compute shaders), and MockBackend (naive loops, for cross-checking).
type Backend = tensor.Backend

// ConvParams configures a 2D convolution or cross-correlation.
type ConvParams = tensor.ConvParams

// ConvTransposeParams configures a 2D transposed convolution.
type ConvTransposeParams = tensor.ConvTransposeParams

// PoolParams configures a 2D pooling window.
type PoolParams = tensor.PoolParams

// MockBackend computes every operation with naive loops. It is slow and only
// exists to cross-check real backends in tests.
type MockBackend = tensor.MockBackend

// NewMockBackend creates a mock backend.
func NewMockBackend() *MockBackend {
	return tensor.NewMockBackend()
}

// ConvOutputSize computes one spatial output dimension of a convolution,
// cross-correlation or pooling window sweep:
//
//	out = (in + padLo + padHi - dilation*(k-1) - 1) / stride + 1
func ConvOutputSize(in, kernel, stride, dilation, padLo, padHi int) int {
	return tensor.ConvOutputSize(in, kernel, stride, dilation, padLo, padHi)
}

// ConvTransposeOutputSize computes one spatial output dimension of a
// transposed convolution:
//
//	out = (in-1)*stride - padLo - padHi + dilation*(k-1) + 1 + outputPadding
func ConvTransposeOutputSize(in, kernel, stride, dilation, padLo, padHi, outputPadding int) int {
	return tensor.ConvTransposeOutputSize(in, kernel, stride, dilation, padLo, padHi, outputPadding)
}

// SamePadding returns the low/high padding that preserves the spatial size at
// stride 1 for the given kernel size and dilation. For even kernels the
// extra cell goes on the high side.
func SamePadding(kernel, dilation int) (lo, hi int) {
	return tensor.SamePadding(kernel, dilation)
}

// BroadcastShapes computes the NumPy-style broadcast of two shapes. The bool
// result reports whether any dimension was stretched.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
