package nn

import (
	"fmt"

	"github.com/lamina-ml/lamina/internal/tensor"
)

// ConvTranspose2DConfig configures a 2D transposed convolution layer.
//
// Zero values mean stride 1, dilation 1, no padding, bias enabled.
// OutputPadding adds rows/columns on the bottom/right of the output and must
// be smaller than the stride; it disambiguates the output size when several
// input sizes map to the same convolution output.
type ConvTranspose2DConfig struct {
	InChannels    int
	OutChannels   int
	KernelSize    [2]int
	Stride        [2]int
	Padding       [4]int
	OutputPadding [2]int
	Dilation      [2]int
	NoBias        bool
}

func (cfg ConvTranspose2DConfig) normalize() ConvTranspose2DConfig {
	if cfg.InChannels <= 0 || cfg.OutChannels <= 0 {
		panic(fmt.Sprintf("conv_transpose2d: invalid channels in=%d, out=%d", cfg.InChannels, cfg.OutChannels))
	}
	if cfg.KernelSize[0] <= 0 || cfg.KernelSize[1] <= 0 {
		panic(fmt.Sprintf("conv_transpose2d: invalid kernel size %v", cfg.KernelSize))
	}
	for i := 0; i < 2; i++ {
		if cfg.Stride[i] == 0 {
			cfg.Stride[i] = 1
		}
		if cfg.Dilation[i] == 0 {
			cfg.Dilation[i] = 1
		}
	}
	return cfg
}

func (cfg ConvTranspose2DConfig) params() tensor.ConvTransposeParams {
	p := tensor.ConvTransposeParams{
		Stride:        cfg.Stride,
		Dilation:      cfg.Dilation,
		Padding:       cfg.Padding,
		OutputPadding: cfg.OutputPadding,
	}
	p.Validate()
	return p
}

// ConvTranspose2D is a 2D transposed convolution layer, the gradient of a
// convolution with respect to its input. Commonly used for learned
// upsampling: stride 2 roughly doubles the spatial dimensions.
//
// Input shape:  [batch, in_channels, height, width]
// Weight shape: [in_channels, out_channels, kh, kw]
// Bias shape:   [out_channels]
// Output shape: [batch, out_channels, out_h, out_w]
//
// Where:
//
//	out = (in-1)*stride - padLo - padHi + dilation*(k-1) + 1 + output_padding
type ConvTranspose2D[B tensor.Backend] struct {
	cfg     ConvTranspose2DConfig
	weight  *tensor.Tensor[float32, B]
	bias    *tensor.Tensor[float32, B]
	backend B
}

// NewConvTranspose2D creates a 2D transposed convolution layer with
// Xavier-initialized weights and a zero bias (unless cfg.NoBias). Panics on
// invalid configuration.
func NewConvTranspose2D[B tensor.Backend](cfg ConvTranspose2DConfig, backend B) *ConvTranspose2D[B] {
	cfg = cfg.normalize()
	cfg.params() // fail fast on bad stride/padding combinations

	kH, kW := cfg.KernelSize[0], cfg.KernelSize[1]
	fanIn := cfg.InChannels * kH * kW
	fanOut := cfg.OutChannels * kH * kW
	weight := Xavier(fanIn, fanOut, tensor.Shape{cfg.InChannels, cfg.OutChannels, kH, kW}, backend)

	var bias *tensor.Tensor[float32, B]
	if !cfg.NoBias {
		bias = Zeros(tensor.Shape{cfg.OutChannels}, backend)
	}
	return &ConvTranspose2D[B]{cfg: cfg, weight: weight, bias: bias, backend: backend}
}

// Forward performs the forward pass.
//
// Input: [batch, in_channels, height, width]
// Output: [batch, out_channels, out_h, out_w].
func (c *ConvTranspose2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("conv_transpose2d: expected 4D input [N,C,H,W], got %dD", len(inputShape)))
	}
	if inputShape[1] != c.cfg.InChannels {
		panic(fmt.Sprintf("conv_transpose2d: input channels %d != expected %d", inputShape[1], c.cfg.InChannels))
	}

	outputRaw := c.backend.ConvTranspose2D(input.Raw(), c.weight.Raw(), c.cfg.params())
	output := tensor.New[float32, B](outputRaw, c.backend)

	if c.bias != nil {
		output = output.Add(c.bias.Reshape(1, c.cfg.OutChannels, 1, 1))
	}
	return output
}

// Weight returns the kernel tensor [in_channels, out_channels, kh, kw].
func (c *ConvTranspose2D[B]) Weight() *tensor.Tensor[float32, B] {
	return c.weight
}

// Bias returns the bias tensor [out_channels], or nil when the layer was
// built with NoBias.
func (c *ConvTranspose2D[B]) Bias() *tensor.Tensor[float32, B] {
	return c.bias
}

// Config returns the normalized layer configuration.
func (c *ConvTranspose2D[B]) Config() ConvTranspose2DConfig {
	return c.cfg
}

// ComputeOutputSize computes output spatial dimensions for an input size.
func (c *ConvTranspose2D[B]) ComputeOutputSize(inputH, inputW int) [2]int {
	return [2]int{
		tensor.ConvTransposeOutputSize(inputH, c.cfg.KernelSize[0], c.cfg.Stride[0], c.cfg.Dilation[0],
			c.cfg.Padding[0], c.cfg.Padding[1], c.cfg.OutputPadding[0]),
		tensor.ConvTransposeOutputSize(inputW, c.cfg.KernelSize[1], c.cfg.Stride[1], c.cfg.Dilation[1],
			c.cfg.Padding[2], c.cfg.Padding[3], c.cfg.OutputPadding[1]),
	}
}

// String returns a string representation of the layer.
func (c *ConvTranspose2D[B]) String() string {
	return fmt.Sprintf("ConvTranspose2D(in_channels=%d, out_channels=%d, kernel_size=(%d, %d), stride=(%d, %d), padding=%v, output_padding=(%d, %d), bias=%v)",
		c.cfg.InChannels, c.cfg.OutChannels,
		c.cfg.KernelSize[0], c.cfg.KernelSize[1],
		c.cfg.Stride[0], c.cfg.Stride[1],
		c.cfg.Padding,
		c.cfg.OutputPadding[0], c.cfg.OutputPadding[1],
		!c.cfg.NoBias)
}
