package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamina-ml/lamina/internal/backend/cpu"
	"github.com/lamina-ml/lamina/internal/tensor"
)

func TestMaxPool1D_BasicForward(t *testing.T) {
	backend := cpu.New()
	pool := NewMaxPool1D(Pool1DConfig{Window: 2}, backend)

	input, err := tensor.FromSlice[float32](
		[]float32{1, 3, 2, 5, 4, 6}, tensor.Shape{1, 1, 6}, backend)
	require.NoError(t, err)

	output := pool.Forward(input)
	require.Equal(t, tensor.Shape{1, 1, 3}, output.Shape())
	assert.InDeltaSlice(t, []float32{3, 5, 6}, output.Data(), 1e-5)
}

func TestMeanPool1D_BasicForward(t *testing.T) {
	backend := cpu.New()
	pool := NewMeanPool1D(Pool1DConfig{Window: 2}, backend)

	input, err := tensor.FromSlice[float32](
		[]float32{1, 3, 2, 5, 4, 6}, tensor.Shape{1, 1, 6}, backend)
	require.NoError(t, err)

	output := pool.Forward(input)
	assert.InDeltaSlice(t, []float32{2, 3.5, 5}, output.Data(), 1e-5)
}

func TestPool1D_StrideAndPadding(t *testing.T) {
	backend := cpu.New()
	pool := NewMaxPool1D(Pool1DConfig{
		Window:  3,
		Stride:  2,
		Padding: [2]int{1, 1},
	}, backend)

	input := Randn(tensor.Shape{2, 4, 16}, backend)
	output := pool.Forward(input)
	assert.Equal(t, tensor.Shape{2, 4, 8}, output.Shape())
	assert.Equal(t, 8, pool.ComputeOutputSize(16))
}

func TestPool1D_RejectsNon3DInput(t *testing.T) {
	backend := cpu.New()
	pool := NewMeanPool1D(Pool1DConfig{Window: 2}, backend)
	bad := Randn(tensor.Shape{1, 1, 4, 4}, backend)
	assert.Panics(t, func() { pool.Forward(bad) })
}
