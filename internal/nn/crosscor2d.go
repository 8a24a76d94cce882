package nn

import (
	"fmt"

	"github.com/lamina-ml/lamina/internal/tensor"
)

// CrossCor2D is a 2D cross-correlation layer: the kernel slides over the
// input without being spatially reversed. This is what most deep-learning
// frameworks call "convolution". Configuration, shapes and defaults are
// identical to Conv2D.
type CrossCor2D[B tensor.Backend] struct {
	cfg     Conv2DConfig
	weight  *tensor.Tensor[float32, B]
	bias    *tensor.Tensor[float32, B]
	backend B
}

// NewCrossCor2D creates a 2D cross-correlation layer with Xavier-initialized
// weights and a zero bias (unless cfg.NoBias). Panics on invalid
// configuration.
func NewCrossCor2D[B tensor.Backend](cfg Conv2DConfig, backend B) *CrossCor2D[B] {
	cfg = cfg.normalize("crosscor2d")
	weight, bias := newConvWeights(cfg, backend)
	return &CrossCor2D[B]{cfg: cfg, weight: weight, bias: bias, backend: backend}
}

// Forward performs the forward pass.
//
// Input: [batch, in_channels, height, width]
// Output: [batch, out_channels, out_h, out_w].
func (c *CrossCor2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return convForward("crosscor2d", input, c.weight, c.bias, c.cfg, false, c.backend)
}

// Weight returns the kernel tensor [out_channels, in_channels/groups, kh, kw].
func (c *CrossCor2D[B]) Weight() *tensor.Tensor[float32, B] {
	return c.weight
}

// Bias returns the bias tensor [out_channels], or nil when the layer was
// built with NoBias.
func (c *CrossCor2D[B]) Bias() *tensor.Tensor[float32, B] {
	return c.bias
}

// Config returns the normalized layer configuration.
func (c *CrossCor2D[B]) Config() Conv2DConfig {
	return c.cfg
}

// ComputeOutputSize computes output spatial dimensions for an input size.
func (c *CrossCor2D[B]) ComputeOutputSize(inputH, inputW int) [2]int {
	return convOutputSize(c.cfg, inputH, inputW)
}

// String returns a string representation of the layer.
func (c *CrossCor2D[B]) String() string {
	return fmt.Sprintf("CrossCor2D(in_channels=%d, out_channels=%d, kernel_size=(%d, %d), stride=(%d, %d), padding=%v, dilation=(%d, %d), groups=%d, bias=%v)",
		c.cfg.InChannels, c.cfg.OutChannels,
		c.cfg.KernelSize[0], c.cfg.KernelSize[1],
		c.cfg.Stride[0], c.cfg.Stride[1],
		c.cfg.Padding,
		c.cfg.Dilation[0], c.cfg.Dilation[1],
		c.cfg.Groups, !c.cfg.NoBias)
}
