package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamina-ml/lamina/internal/backend/cpu"
	"github.com/lamina-ml/lamina/internal/tensor"
)

func sequentialInput(t *testing.T, backend *cpu.CPUBackend, shape tensor.Shape) *tensor.Tensor[float32, *cpu.CPUBackend] {
	t.Helper()
	data := make([]float32, shape.NumElements())
	for i := range data {
		data[i] = float32(i + 1)
	}
	input, err := tensor.FromSlice[float32](data, shape, backend)
	require.NoError(t, err)
	return input
}

func TestMaxPool2D_BasicForward(t *testing.T) {
	backend := cpu.New()
	pool := NewMaxPool2D(Pool2DConfig{Window: [2]int{2, 2}}, backend)

	input := sequentialInput(t, backend, tensor.Shape{1, 1, 4, 4})
	output := pool.Forward(input)
	require.Equal(t, tensor.Shape{1, 1, 2, 2}, output.Shape())
	assert.InDeltaSlice(t, []float32{6, 8, 14, 16}, output.Data(), 1e-5)
}

func TestMaxPool2D_StrideDefaultsToWindow(t *testing.T) {
	backend := cpu.New()
	pool := NewMaxPool2D(Pool2DConfig{Window: [2]int{3, 3}}, backend)
	assert.Equal(t, [2]int{3, 3}, pool.Params().Stride)
}

func TestMaxPool2D_OverlappingStride(t *testing.T) {
	backend := cpu.New()
	pool := NewMaxPool2D(Pool2DConfig{
		Window: [2]int{2, 2},
		Stride: [2]int{1, 1},
	}, backend)

	input := sequentialInput(t, backend, tensor.Shape{1, 1, 4, 4})
	output := pool.Forward(input)
	require.Equal(t, tensor.Shape{1, 1, 3, 3}, output.Shape())
	assert.InDeltaSlice(t, []float32{6, 7, 8, 10, 11, 12, 14, 15, 16}, output.Data(), 1e-5)
}

func TestMaxPool2D_PaddingIgnoresPaddedCells(t *testing.T) {
	backend := cpu.New()
	pool := NewMaxPool2D(Pool2DConfig{
		Window:  [2]int{2, 2},
		Stride:  [2]int{2, 2},
		Padding: [4]int{1, 1, 1, 1},
	}, backend)

	input, err := tensor.FromSlice[float32]([]float32{
		-1, -2,
		-3, -4,
	}, tensor.Shape{1, 1, 2, 2}, backend)
	require.NoError(t, err)

	// Padded cells never win a max, so the output stays negative.
	output := pool.Forward(input)
	require.Equal(t, tensor.Shape{1, 1, 2, 2}, output.Shape())
	assert.InDeltaSlice(t, []float32{-1, -2, -3, -4}, output.Data(), 1e-5)
}

func TestMeanPool2D_BasicForward(t *testing.T) {
	backend := cpu.New()
	pool := NewMeanPool2D(Pool2DConfig{Window: [2]int{2, 2}}, backend)

	input := sequentialInput(t, backend, tensor.Shape{1, 1, 4, 4})
	output := pool.Forward(input)
	assert.InDeltaSlice(t, []float32{3.5, 5.5, 11.5, 13.5}, output.Data(), 1e-5)
}

func TestMeanPool2D_PaddingCountsAsZero(t *testing.T) {
	backend := cpu.New()
	pool := NewMeanPool2D(Pool2DConfig{
		Window:  [2]int{2, 2},
		Stride:  [2]int{2, 2},
		Padding: [4]int{1, 1, 1, 1},
	}, backend)

	input, err := tensor.FromSlice[float32]([]float32{
		4, 8,
		12, 16,
	}, tensor.Shape{1, 1, 2, 2}, backend)
	require.NoError(t, err)

	// The divisor is the full window size, so each border window averages
	// one value with three zeros.
	output := pool.Forward(input)
	assert.InDeltaSlice(t, []float32{1, 2, 3, 4}, output.Data(), 1e-5)
}

func TestPool2D_SamePadPreservesSize(t *testing.T) {
	backend := cpu.New()
	pool := NewMaxPool2D(Pool2DConfig{
		Window:  [2]int{3, 3},
		SamePad: true,
	}, backend)

	input := Randn(tensor.Shape{2, 3, 7, 9}, backend)
	assert.Equal(t, tensor.Shape{2, 3, 7, 9}, pool.Forward(input).Shape())
	assert.Equal(t, [2]int{1, 1}, pool.Params().Stride)
}

func TestPool2D_InvalidConfig(t *testing.T) {
	backend := cpu.New()
	assert.Panics(t, func() {
		NewMaxPool2D(Pool2DConfig{Window: [2]int{0, 2}}, backend)
	})
	// Padding larger than half the window would create windows that see
	// only padding.
	assert.Panics(t, func() {
		NewMeanPool2D(Pool2DConfig{Window: [2]int{2, 2}, Padding: [4]int{2, 2, 0, 0}}, backend)
	})
}

func TestPool2D_ComputeOutputSize(t *testing.T) {
	backend := cpu.New()
	pool := NewMeanPool2D(Pool2DConfig{Window: [2]int{2, 2}}, backend)
	assert.Equal(t, [2]int{14, 14}, pool.ComputeOutputSize(28, 28))
}

func TestPool2D_String(t *testing.T) {
	backend := cpu.New()
	pool := NewMaxPool2D(Pool2DConfig{Window: [2]int{2, 2}}, backend)
	assert.Equal(t, "MaxPool2D(window=(2, 2), stride=(2, 2), padding=[0 0 0 0])", pool.String())
}
