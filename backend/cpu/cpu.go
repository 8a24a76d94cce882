// Copyright 2026 The Lamina Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure-Go reference backend.
package cpu

import (
	internalcpu "github.com/lamina-ml/lamina/internal/backend/cpu"
	"github.com/lamina-ml/lamina/tensor"
)

// Backend computes tensor operations in pure Go. It is the delegation target
// every layer works against by default.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
func New() *Backend {
	return internalcpu.New()
}
