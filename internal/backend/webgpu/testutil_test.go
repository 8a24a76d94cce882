package webgpu

import (
	"math"
	"math/rand"
	"testing"

	"github.com/lamina-ml/lamina/internal/tensor"
)

func rawFromFloat32(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.WebGPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

func randomRaw(t *testing.T, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.WebGPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	data := raw.AsFloat32()
	for i := range data {
		data[i] = rng.Float32()*2 - 1
	}
	return raw
}

func expectFloat32(t *testing.T, want, got []float32) {
	t.Helper()
	expectClose(t, want, got, 1e-5)
}

func expectClose(t *testing.T, want, got []float32, tol float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("length mismatch: want %d, got %d", len(want), len(got))
	}
	for i := range want {
		if math.Abs(float64(want[i]-got[i])) > tol {
			t.Fatalf("element %d: want %v, got %v", i, want[i], got[i])
		}
	}
}
