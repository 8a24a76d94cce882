package cpu

import (
	"testing"

	"github.com/lamina-ml/lamina/internal/tensor"
)

func TestMaxPool2D_BasicForward(t *testing.T) {
	backend := New()

	data := make([]float32, 16)
	for i := range data {
		data[i] = float32(i + 1)
	}
	input := rawFromFloat32(t, data, tensor.Shape{1, 1, 4, 4})

	output := backend.MaxPool2D(input, tensor.PoolParams{Window: [2]int{2, 2}})

	if !output.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("expected shape [1 1 2 2], got %v", output.Shape())
	}
	expected := []float32{6, 8, 14, 16}
	for i, want := range expected {
		if got := output.AsFloat32()[i]; got != want {
			t.Errorf("output[%d] = %.1f, want %.1f", i, got, want)
		}
	}
}

func TestMaxPool2D_OverlappingStride(t *testing.T) {
	backend := New()

	data := make([]float32, 16)
	for i := range data {
		data[i] = float32(i + 1)
	}
	input := rawFromFloat32(t, data, tensor.Shape{1, 1, 4, 4})

	output := backend.MaxPool2D(input, tensor.PoolParams{Window: [2]int{2, 2}, Stride: [2]int{1, 1}})

	if !output.Shape().Equal(tensor.Shape{1, 1, 3, 3}) {
		t.Fatalf("expected shape [1 1 3 3], got %v", output.Shape())
	}
	expected := []float32{6, 7, 8, 10, 11, 12, 14, 15, 16}
	for i, want := range expected {
		if got := output.AsFloat32()[i]; got != want {
			t.Errorf("output[%d] = %.1f, want %.1f", i, got, want)
		}
	}
}

func TestMaxPool2D_PaddingIgnoresPads(t *testing.T) {
	backend := New()

	// All-negative input: padded zeros must not win the max.
	input := rawFromFloat32(t, []float32{-1, -2, -3, -4}, tensor.Shape{1, 1, 2, 2})

	output := backend.MaxPool2D(input, tensor.PoolParams{Window: [2]int{2, 2}, Padding: [4]int{1, 1, 1, 1}})

	if !output.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("expected shape [1 1 2 2], got %v", output.Shape())
	}
	expected := []float32{-1, -2, -3, -4}
	for i, want := range expected {
		if got := output.AsFloat32()[i]; got != want {
			t.Errorf("output[%d] = %.1f, want %.1f", i, got, want)
		}
	}
}

func TestMeanPool2D_BasicForward(t *testing.T) {
	backend := New()

	data := make([]float32, 16)
	for i := range data {
		data[i] = float32(i + 1)
	}
	input := rawFromFloat32(t, data, tensor.Shape{1, 1, 4, 4})

	output := backend.MeanPool2D(input, tensor.PoolParams{Window: [2]int{2, 2}})

	expected := []float32{3.5, 5.5, 11.5, 13.5}
	for i, want := range expected {
		if got := output.AsFloat32()[i]; got != want {
			t.Errorf("output[%d] = %.2f, want %.2f", i, got, want)
		}
	}
}

func TestMeanPool2D_PaddingCountsAsZero(t *testing.T) {
	backend := New()

	input := rawFromFloat32(t, []float32{4, 8, 12, 16}, tensor.Shape{1, 1, 2, 2})

	output := backend.MeanPool2D(input, tensor.PoolParams{Window: [2]int{2, 2}, Padding: [4]int{1, 1, 1, 1}})

	if !output.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("expected shape [1 1 2 2], got %v", output.Shape())
	}
	// Each corner window holds one value and three padded zeros.
	expected := []float32{1, 2, 3, 4}
	for i, want := range expected {
		if got := output.AsFloat32()[i]; got != want {
			t.Errorf("output[%d] = %.2f, want %.2f", i, got, want)
		}
	}
}

func TestPool2D_MultiChannel(t *testing.T) {
	backend := New()

	input := rawFromFloat32(t, []float32{
		1, 2, 3, 4, // channel 0
		40, 30, 20, 10, // channel 1
	}, tensor.Shape{1, 2, 2, 2})

	output := backend.MaxPool2D(input, tensor.PoolParams{Window: [2]int{2, 2}})

	if !output.Shape().Equal(tensor.Shape{1, 2, 1, 1}) {
		t.Fatalf("expected shape [1 2 1 1], got %v", output.Shape())
	}
	if got := output.AsFloat32()[0]; got != 4 {
		t.Errorf("channel 0 max = %.1f, want 4", got)
	}
	if got := output.AsFloat32()[1]; got != 40 {
		t.Errorf("channel 1 max = %.1f, want 40", got)
	}
}

func TestPool2D_Float64(t *testing.T) {
	backend := New()

	raw, err := tensor.NewRaw(tensor.Shape{1, 1, 2, 2}, tensor.Float64, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(raw.AsFloat64(), []float64{1, 2, 3, 4})

	output := backend.MeanPool2D(raw, tensor.PoolParams{Window: [2]int{2, 2}})
	if got := output.AsFloat64()[0]; got != 2.5 {
		t.Errorf("mean = %v, want 2.5", got)
	}
}
