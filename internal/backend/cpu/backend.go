// Package cpu implements the reference CPU backend. Kernels are written for
// clarity over speed: the convolution goes through im2col plus a matrix
// multiply, pooling is a plain window loop. This backend exists so layers
// always have a working delegation target.
package cpu

import (
	"github.com/lamina-ml/lamina/internal/tensor"
)

// Verify that CPUBackend implements the Backend interface.
var _ tensor.Backend = (*CPUBackend)(nil)

// CPUBackend computes tensor operations in pure Go.
type CPUBackend struct {
	device tensor.Device
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{device: tensor.CPU}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "cpu"
}

// Device returns the device this backend computes on.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}
