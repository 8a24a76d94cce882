package nn

import (
	"fmt"

	"github.com/lamina-ml/lamina/internal/tensor"
)

// Conv2DConfig configures a 2D convolution layer.
//
// Zero values mean the usual defaults: stride 1, dilation 1, groups 1, no
// padding, bias enabled. Padding is [top, bottom, left, right]; SamePad
// overrides it with the padding that preserves spatial size at stride 1
// (asymmetric for even kernels, extra cell on the bottom/right).
type Conv2DConfig struct {
	InChannels  int
	OutChannels int
	KernelSize  [2]int
	Stride      [2]int
	Padding     [4]int
	SamePad     bool
	Dilation    [2]int
	Groups      int
	NoBias      bool
}

// normalize fills defaults and panics on invalid configuration.
func (cfg Conv2DConfig) normalize(name string) Conv2DConfig {
	if cfg.InChannels <= 0 || cfg.OutChannels <= 0 {
		panic(fmt.Sprintf("%s: invalid channels in=%d, out=%d", name, cfg.InChannels, cfg.OutChannels))
	}
	if cfg.KernelSize[0] <= 0 || cfg.KernelSize[1] <= 0 {
		panic(fmt.Sprintf("%s: invalid kernel size %v", name, cfg.KernelSize))
	}
	for i := 0; i < 2; i++ {
		if cfg.Stride[i] == 0 {
			cfg.Stride[i] = 1
		}
		if cfg.Dilation[i] == 0 {
			cfg.Dilation[i] = 1
		}
	}
	if cfg.Groups == 0 {
		cfg.Groups = 1
	}
	if cfg.Groups < 0 || cfg.InChannels%cfg.Groups != 0 || cfg.OutChannels%cfg.Groups != 0 {
		panic(fmt.Sprintf("%s: groups %d must divide channels in=%d, out=%d",
			name, cfg.Groups, cfg.InChannels, cfg.OutChannels))
	}
	if cfg.SamePad {
		topLo, topHi := tensor.SamePadding(cfg.KernelSize[0], cfg.Dilation[0])
		leftLo, leftHi := tensor.SamePadding(cfg.KernelSize[1], cfg.Dilation[1])
		cfg.Padding = [4]int{topLo, topHi, leftLo, leftHi}
	}
	return cfg
}

func (cfg Conv2DConfig) convParams(flip bool) tensor.ConvParams {
	p := tensor.ConvParams{
		Stride:     cfg.Stride,
		Dilation:   cfg.Dilation,
		Padding:    cfg.Padding,
		Groups:     cfg.Groups,
		FlipKernel: flip,
	}
	p.Validate()
	return p
}

// Conv2D is a 2D convolution layer in the signal-processing sense: the kernel
// is applied spatially reversed. For the deep-learning convention (no
// reversal) see CrossCor2D; with Xavier-initialized weights the two are
// statistically identical, the distinction matters when weights are loaded
// from elsewhere.
//
// Input shape:  [batch, in_channels, height, width]
// Weight shape: [out_channels, in_channels/groups, kh, kw]
// Bias shape:   [out_channels]
// Output shape: [batch, out_channels, out_h, out_w]
//
// Example:
//
//	conv := nn.NewConv2D(nn.Conv2DConfig{
//		InChannels:  1,
//		OutChannels: 6,
//		KernelSize:  [2]int{5, 5},
//	}, backend)
//	output := conv.Forward(input) // [32, 1, 28, 28] -> [32, 6, 24, 24]
type Conv2D[B tensor.Backend] struct {
	cfg     Conv2DConfig
	weight  *tensor.Tensor[float32, B]
	bias    *tensor.Tensor[float32, B]
	backend B
}

// NewConv2D creates a 2D convolution layer with Xavier-initialized weights
// and a zero bias (unless cfg.NoBias). Panics on invalid configuration.
func NewConv2D[B tensor.Backend](cfg Conv2DConfig, backend B) *Conv2D[B] {
	cfg = cfg.normalize("conv2d")
	weight, bias := newConvWeights(cfg, backend)
	return &Conv2D[B]{cfg: cfg, weight: weight, bias: bias, backend: backend}
}

// newConvWeights allocates the weight and optional bias for a (grouped)
// convolution configuration.
func newConvWeights[B tensor.Backend](cfg Conv2DConfig, backend B) (weight, bias *tensor.Tensor[float32, B]) {
	kH, kW := cfg.KernelSize[0], cfg.KernelSize[1]
	fanIn := cfg.InChannels / cfg.Groups * kH * kW
	fanOut := cfg.OutChannels / cfg.Groups * kH * kW
	weight = Xavier(fanIn, fanOut, tensor.Shape{cfg.OutChannels, cfg.InChannels / cfg.Groups, kH, kW}, backend)
	if !cfg.NoBias {
		bias = Zeros(tensor.Shape{cfg.OutChannels}, backend)
	}
	return weight, bias
}

// Forward performs the forward pass.
//
// Input: [batch, in_channels, height, width]
// Output: [batch, out_channels, out_h, out_w].
func (c *Conv2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return convForward("conv2d", input, c.weight, c.bias, c.cfg, true, c.backend)
}

// convForward validates the input and delegates the convolution and bias to
// the backend. Shared by Conv2D, CrossCor2D and their wrappers.
func convForward[B tensor.Backend](name string, input, weight, bias *tensor.Tensor[float32, B],
	cfg Conv2DConfig, flip bool, backend B,
) *tensor.Tensor[float32, B] {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("%s: expected 4D input [N,C,H,W], got %dD", name, len(inputShape)))
	}
	if inputShape[1] != cfg.InChannels {
		panic(fmt.Sprintf("%s: input channels %d != expected %d", name, inputShape[1], cfg.InChannels))
	}

	outputRaw := backend.Conv2D(input.Raw(), weight.Raw(), cfg.convParams(flip))
	output := tensor.New[float32, B](outputRaw, backend)

	if bias != nil {
		// [out_channels] -> [1, out_channels, 1, 1] for broadcasting.
		output = output.Add(bias.Reshape(1, cfg.OutChannels, 1, 1))
	}
	return output
}

// Weight returns the kernel tensor [out_channels, in_channels/groups, kh, kw].
func (c *Conv2D[B]) Weight() *tensor.Tensor[float32, B] {
	return c.weight
}

// Bias returns the bias tensor [out_channels], or nil when the layer was
// built with NoBias.
func (c *Conv2D[B]) Bias() *tensor.Tensor[float32, B] {
	return c.bias
}

// Config returns the normalized layer configuration.
func (c *Conv2D[B]) Config() Conv2DConfig {
	return c.cfg
}

// ComputeOutputSize computes output spatial dimensions for an input size.
func (c *Conv2D[B]) ComputeOutputSize(inputH, inputW int) [2]int {
	return convOutputSize(c.cfg, inputH, inputW)
}

func convOutputSize(cfg Conv2DConfig, inputH, inputW int) [2]int {
	return [2]int{
		tensor.ConvOutputSize(inputH, cfg.KernelSize[0], cfg.Stride[0], cfg.Dilation[0], cfg.Padding[0], cfg.Padding[1]),
		tensor.ConvOutputSize(inputW, cfg.KernelSize[1], cfg.Stride[1], cfg.Dilation[1], cfg.Padding[2], cfg.Padding[3]),
	}
}

// String returns a string representation of the layer.
func (c *Conv2D[B]) String() string {
	return fmt.Sprintf("Conv2D(in_channels=%d, out_channels=%d, kernel_size=(%d, %d), stride=(%d, %d), padding=%v, dilation=(%d, %d), groups=%d, bias=%v)",
		c.cfg.InChannels, c.cfg.OutChannels,
		c.cfg.KernelSize[0], c.cfg.KernelSize[1],
		c.cfg.Stride[0], c.cfg.Stride[1],
		c.cfg.Padding,
		c.cfg.Dilation[0], c.cfg.Dilation[1],
		c.cfg.Groups, !c.cfg.NoBias)
}
