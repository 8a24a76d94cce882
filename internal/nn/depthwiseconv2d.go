package nn

import (
	"fmt"

	"github.com/lamina-ml/lamina/internal/tensor"
)

// DepthwiseConv2DConfig configures a depthwise convolution layer.
//
// Multiplier is the number of filters applied per input channel; the output
// has Channels*Multiplier channels. A zero Multiplier means 1. The remaining
// fields behave as in Conv2DConfig.
type DepthwiseConv2DConfig struct {
	Channels   int
	Multiplier int
	KernelSize [2]int
	Stride     [2]int
	Padding    [4]int
	SamePad    bool
	Dilation   [2]int
	NoBias     bool
}

// DepthwiseConv2D is a depthwise 2D convolution: a grouped convolution with
// one group per input channel, so each input channel is filtered
// independently. Weight shape is [channels*multiplier, 1, kh, kw].
type DepthwiseConv2D[B tensor.Backend] struct {
	multiplier int
	inner      *Conv2D[B]
}

// NewDepthwiseConv2D creates a depthwise convolution layer. Panics on invalid
// configuration.
func NewDepthwiseConv2D[B tensor.Backend](cfg DepthwiseConv2DConfig, backend B) *DepthwiseConv2D[B] {
	if cfg.Channels <= 0 {
		panic(fmt.Sprintf("depthwise_conv2d: invalid channels %d", cfg.Channels))
	}
	if cfg.Multiplier == 0 {
		cfg.Multiplier = 1
	}
	if cfg.Multiplier < 0 {
		panic(fmt.Sprintf("depthwise_conv2d: invalid multiplier %d", cfg.Multiplier))
	}
	inner := NewConv2D(Conv2DConfig{
		InChannels:  cfg.Channels,
		OutChannels: cfg.Channels * cfg.Multiplier,
		KernelSize:  cfg.KernelSize,
		Stride:      cfg.Stride,
		Padding:     cfg.Padding,
		SamePad:     cfg.SamePad,
		Dilation:    cfg.Dilation,
		Groups:      cfg.Channels,
		NoBias:      cfg.NoBias,
	}, backend)
	return &DepthwiseConv2D[B]{multiplier: cfg.Multiplier, inner: inner}
}

// Forward performs the forward pass.
//
// Input: [batch, channels, height, width]
// Output: [batch, channels*multiplier, out_h, out_w].
func (c *DepthwiseConv2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return c.inner.Forward(input)
}

// Weight returns the kernel tensor [channels*multiplier, 1, kh, kw].
func (c *DepthwiseConv2D[B]) Weight() *tensor.Tensor[float32, B] {
	return c.inner.Weight()
}

// Bias returns the bias tensor, or nil when the layer was built with NoBias.
func (c *DepthwiseConv2D[B]) Bias() *tensor.Tensor[float32, B] {
	return c.inner.Bias()
}

// Multiplier returns the channel multiplier.
func (c *DepthwiseConv2D[B]) Multiplier() int {
	return c.multiplier
}

// ComputeOutputSize computes output spatial dimensions for an input size.
func (c *DepthwiseConv2D[B]) ComputeOutputSize(inputH, inputW int) [2]int {
	return c.inner.ComputeOutputSize(inputH, inputW)
}

// String returns a string representation of the layer.
func (c *DepthwiseConv2D[B]) String() string {
	cfg := c.inner.Config()
	return fmt.Sprintf("DepthwiseConv2D(channels=%d, multiplier=%d, kernel_size=(%d, %d), stride=(%d, %d), padding=%v, bias=%v)",
		cfg.InChannels, c.multiplier,
		cfg.KernelSize[0], cfg.KernelSize[1],
		cfg.Stride[0], cfg.Stride[1],
		cfg.Padding, !cfg.NoBias)
}
