package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamina-ml/lamina/internal/backend/cpu"
	"github.com/lamina-ml/lamina/internal/tensor"
)

func TestConv1D_BasicForward(t *testing.T) {
	backend := cpu.New()
	conv := NewConv1D(Conv1DConfig{
		InChannels:  1,
		OutChannels: 1,
		KernelSize:  3,
		NoBias:      true,
	}, backend)
	// Applied reversed: a difference filter [-1 0 1] becomes [1 0 -1].
	setData(t, conv.Weight(), []float32{-1, 0, 1})

	input, err := tensor.FromSlice[float32](
		[]float32{1, 2, 4, 7, 11}, tensor.Shape{1, 1, 5}, backend)
	require.NoError(t, err)

	output := conv.Forward(input)
	require.Equal(t, tensor.Shape{1, 1, 3}, output.Shape())
	assert.InDeltaSlice(t, []float32{-3, -5, -7}, output.Data(), 1e-5)
}

func TestConv1D_StrideAndPadding(t *testing.T) {
	backend := cpu.New()
	conv := NewConv1D(Conv1DConfig{
		InChannels:  2,
		OutChannels: 3,
		KernelSize:  3,
		Stride:      2,
		Padding:     [2]int{1, 1},
	}, backend)

	input := Randn(tensor.Shape{4, 2, 16}, backend)
	output := conv.Forward(input)
	assert.Equal(t, tensor.Shape{4, 3, 8}, output.Shape())
	assert.Equal(t, 8, conv.ComputeOutputSize(16))
}

func TestConv1D_SamePad(t *testing.T) {
	backend := cpu.New()
	conv := NewConv1D(Conv1DConfig{
		InChannels:  1,
		OutChannels: 1,
		KernelSize:  5,
		SamePad:     true,
	}, backend)

	input := Randn(tensor.Shape{1, 1, 11}, backend)
	assert.Equal(t, tensor.Shape{1, 1, 11}, conv.Forward(input).Shape())
}

func TestConv1D_RejectsNon3DInput(t *testing.T) {
	backend := cpu.New()
	conv := NewConv1D(Conv1DConfig{InChannels: 1, OutChannels: 1, KernelSize: 3}, backend)
	bad := Randn(tensor.Shape{1, 1, 4, 4}, backend)
	assert.Panics(t, func() { conv.Forward(bad) })
}
