package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamina-ml/lamina/internal/backend/cpu"
	"github.com/lamina-ml/lamina/internal/tensor"
)

func TestDepthwiseConv2D_Creation(t *testing.T) {
	backend := cpu.New()
	conv := NewDepthwiseConv2D(DepthwiseConv2DConfig{
		Channels:   6,
		KernelSize: [2]int{3, 3},
	}, backend)

	// One filter per input channel.
	assert.Equal(t, tensor.Shape{6, 1, 3, 3}, conv.Weight().Shape())
	assert.Equal(t, tensor.Shape{6}, conv.Bias().Shape())
	assert.Equal(t, 1, conv.Multiplier())
}

func TestDepthwiseConv2D_Multiplier(t *testing.T) {
	backend := cpu.New()
	conv := NewDepthwiseConv2D(DepthwiseConv2DConfig{
		Channels:   3,
		Multiplier: 4,
		KernelSize: [2]int{3, 3},
	}, backend)

	assert.Equal(t, tensor.Shape{12, 1, 3, 3}, conv.Weight().Shape())

	input := Randn(tensor.Shape{2, 3, 8, 8}, backend)
	output := conv.Forward(input)
	assert.Equal(t, tensor.Shape{2, 12, 6, 6}, output.Shape())
}

func TestDepthwiseConv2D_ChannelsStayIndependent(t *testing.T) {
	backend := cpu.New()
	conv := NewDepthwiseConv2D(DepthwiseConv2DConfig{
		Channels:   2,
		KernelSize: [2]int{2, 2},
		NoBias:     true,
	}, backend)
	// Channel 0 sums its window, channel 1 doubles the sum.
	setData(t, conv.Weight(), []float32{
		1, 1, 1, 1,
		2, 2, 2, 2,
	})

	input, err := tensor.FromSlice[float32]([]float32{
		// channel 0
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
		// channel 1
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}, tensor.Shape{1, 2, 3, 3}, backend)
	require.NoError(t, err)

	output := conv.Forward(input)
	require.Equal(t, tensor.Shape{1, 2, 2, 2}, output.Shape())
	assert.InDeltaSlice(t, []float32{
		12, 16, 24, 28,
		4, 2, 2, 4,
	}, output.Data(), 1e-5)
}

// A depthwise convolution is exactly a grouped convolution with one group
// per channel.
func TestDepthwiseConv2D_MatchesGroupedConv(t *testing.T) {
	backend := cpu.New()
	dw := NewDepthwiseConv2D(DepthwiseConv2DConfig{
		Channels:   4,
		Multiplier: 2,
		KernelSize: [2]int{3, 3},
		NoBias:     true,
	}, backend)
	grouped := NewConv2D(Conv2DConfig{
		InChannels:  4,
		OutChannels: 8,
		KernelSize:  [2]int{3, 3},
		Groups:      4,
		NoBias:      true,
	}, backend)
	copy(grouped.Weight().Data(), dw.Weight().Data())

	input := Randn(tensor.Shape{1, 4, 7, 7}, backend)
	assert.InDeltaSlice(t, dw.Forward(input).Data(), grouped.Forward(input).Data(), 1e-5)
}

func TestDepthwiseConv2D_InvalidConfig(t *testing.T) {
	backend := cpu.New()
	assert.Panics(t, func() {
		NewDepthwiseConv2D(DepthwiseConv2DConfig{Channels: 0, KernelSize: [2]int{3, 3}}, backend)
	})
	assert.Panics(t, func() {
		NewDepthwiseConv2D(DepthwiseConv2DConfig{Channels: 2, Multiplier: -1, KernelSize: [2]int{3, 3}}, backend)
	})
}
