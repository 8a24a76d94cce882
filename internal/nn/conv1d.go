package nn

import (
	"fmt"

	"github.com/lamina-ml/lamina/internal/tensor"
)

// Conv1DConfig configures a 1D convolution layer. Padding is [left, right].
type Conv1DConfig struct {
	InChannels  int
	OutChannels int
	KernelSize  int
	Stride      int
	Padding     [2]int
	SamePad     bool
	Dilation    int
	Groups      int
	NoBias      bool
}

// Conv1D is a 1D convolution over [batch, channels, length] inputs. It is
// implemented by lifting the input onto a unit-height spatial axis and
// delegating to the 2D convolution path.
type Conv1D[B tensor.Backend] struct {
	cfg     Conv1DConfig
	inner   *Conv2D[B]
	backend B
}

// NewConv1D creates a 1D convolution layer. Panics on invalid configuration.
func NewConv1D[B tensor.Backend](cfg Conv1DConfig, backend B) *Conv1D[B] {
	if cfg.KernelSize == 0 {
		cfg.KernelSize = 1
	}
	if cfg.Stride == 0 {
		cfg.Stride = 1
	}
	if cfg.Dilation == 0 {
		cfg.Dilation = 1
	}
	inner := NewConv2D(Conv2DConfig{
		InChannels:  cfg.InChannels,
		OutChannels: cfg.OutChannels,
		KernelSize:  [2]int{1, cfg.KernelSize},
		Stride:      [2]int{1, cfg.Stride},
		Padding:     [4]int{0, 0, cfg.Padding[0], cfg.Padding[1]},
		SamePad:     cfg.SamePad,
		Dilation:    [2]int{1, cfg.Dilation},
		Groups:      cfg.Groups,
		NoBias:      cfg.NoBias,
	}, backend)
	return &Conv1D[B]{cfg: cfg, inner: inner, backend: backend}
}

// Forward performs the forward pass.
//
// Input: [batch, in_channels, length]
// Output: [batch, out_channels, out_length].
func (c *Conv1D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("conv1d: expected 3D input [batch, channels, length], got shape %v", shape))
	}
	lifted := input.Reshape(shape[0], shape[1], 1, shape[2])
	out := c.inner.Forward(lifted)
	outShape := out.Shape()
	return out.Reshape(outShape[0], outShape[1], outShape[3])
}

// Weight returns the kernel tensor [out_channels, in_channels/groups, 1, k].
func (c *Conv1D[B]) Weight() *tensor.Tensor[float32, B] {
	return c.inner.Weight()
}

// Bias returns the bias tensor, or nil when the layer was built with NoBias.
func (c *Conv1D[B]) Bias() *tensor.Tensor[float32, B] {
	return c.inner.Bias()
}

// ComputeOutputSize computes the output length for an input length.
func (c *Conv1D[B]) ComputeOutputSize(length int) int {
	return c.inner.ComputeOutputSize(1, length)[1]
}

// String returns a string representation of the layer.
func (c *Conv1D[B]) String() string {
	inner := c.inner.Config()
	return fmt.Sprintf("Conv1D(%d, %d, kernel_size=%d, stride=%d, padding=[%d %d], bias=%v)",
		inner.InChannels, inner.OutChannels, inner.KernelSize[1], inner.Stride[1],
		inner.Padding[2], inner.Padding[3], !inner.NoBias)
}
