package nn

import (
	"fmt"

	"github.com/lamina-ml/lamina/internal/tensor"
)

// AdaptivePool2DConfig configures an adaptive pooling layer: instead of a
// fixed window, the caller names the output spatial size and the window and
// stride are derived from the input at forward time. The input spatial
// dimensions must be divisible by the output size.
type AdaptivePool2DConfig struct {
	OutputSize [2]int
}

func (cfg AdaptivePool2DConfig) validate(name string) {
	if cfg.OutputSize[0] <= 0 || cfg.OutputSize[1] <= 0 {
		panic(fmt.Sprintf("%s: invalid output size %v", name, cfg.OutputSize))
	}
}

// adaptivePoolParams derives the window and stride that tile the input into
// exactly OutputSize windows. Panics when the input does not divide evenly.
func adaptivePoolParams(name string, shape tensor.Shape, outputSize [2]int) tensor.PoolParams {
	if len(shape) != 4 {
		return tensor.PoolParams{} // poolForward reports the shape error
	}
	var p tensor.PoolParams
	for i := 0; i < 2; i++ {
		in, out := shape[2+i], outputSize[i]
		if in%out != 0 {
			panic(fmt.Sprintf("%s: input size %d not divisible by output size %d", name, in, out))
		}
		stride := in / out
		p.Stride[i] = stride
		p.Window[i] = in - (out-1)*stride
	}
	p.Validate()
	return p
}

// AdaptiveMaxPool2D max-pools to a fixed output spatial size regardless of
// the input size.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, out_h, out_w]
type AdaptiveMaxPool2D[B tensor.Backend] struct {
	outputSize [2]int
	backend    B
}

// NewAdaptiveMaxPool2D creates an adaptive max pooling layer. Panics on
// invalid configuration.
func NewAdaptiveMaxPool2D[B tensor.Backend](cfg AdaptivePool2DConfig, backend B) *AdaptiveMaxPool2D[B] {
	cfg.validate("adaptive_maxpool2d")
	return &AdaptiveMaxPool2D[B]{outputSize: cfg.OutputSize, backend: backend}
}

// Forward performs the forward pass.
func (p *AdaptiveMaxPool2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	params := adaptivePoolParams("adaptive_maxpool2d", input.Shape(), p.outputSize)
	return poolForward("adaptive_maxpool2d", input, params, true, p.backend)
}

// OutputSize returns the configured output spatial size.
func (p *AdaptiveMaxPool2D[B]) OutputSize() [2]int {
	return p.outputSize
}

// String returns a string representation of the layer.
func (p *AdaptiveMaxPool2D[B]) String() string {
	return fmt.Sprintf("AdaptiveMaxPool2D(output_size=(%d, %d))", p.outputSize[0], p.outputSize[1])
}

// AdaptiveMeanPool2D mean-pools to a fixed output spatial size regardless of
// the input size.
type AdaptiveMeanPool2D[B tensor.Backend] struct {
	outputSize [2]int
	backend    B
}

// NewAdaptiveMeanPool2D creates an adaptive mean pooling layer. Panics on
// invalid configuration.
func NewAdaptiveMeanPool2D[B tensor.Backend](cfg AdaptivePool2DConfig, backend B) *AdaptiveMeanPool2D[B] {
	cfg.validate("adaptive_meanpool2d")
	return &AdaptiveMeanPool2D[B]{outputSize: cfg.OutputSize, backend: backend}
}

// Forward performs the forward pass.
func (p *AdaptiveMeanPool2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	params := adaptivePoolParams("adaptive_meanpool2d", input.Shape(), p.outputSize)
	return poolForward("adaptive_meanpool2d", input, params, false, p.backend)
}

// OutputSize returns the configured output spatial size.
func (p *AdaptiveMeanPool2D[B]) OutputSize() [2]int {
	return p.outputSize
}

// String returns a string representation of the layer.
func (p *AdaptiveMeanPool2D[B]) String() string {
	return fmt.Sprintf("AdaptiveMeanPool2D(output_size=(%d, %d))", p.outputSize[0], p.outputSize[1])
}
