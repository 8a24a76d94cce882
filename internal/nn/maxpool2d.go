package nn

import (
	"github.com/lamina-ml/lamina/internal/tensor"
)

// MaxPool2D takes the maximum over each pooling window. Padded cells never
// contribute to the maximum, so an all-negative input stays negative.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, out_h, out_w]
type MaxPool2D[B tensor.Backend] struct {
	params  tensor.PoolParams
	backend B
}

// NewMaxPool2D creates a 2D max pooling layer. Panics on invalid
// configuration.
func NewMaxPool2D[B tensor.Backend](cfg Pool2DConfig, backend B) *MaxPool2D[B] {
	cfg = cfg.normalize("maxpool2d")
	return &MaxPool2D[B]{params: cfg.poolParams(), backend: backend}
}

// Forward performs the forward pass.
func (p *MaxPool2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return poolForward("maxpool2d", input, p.params, true, p.backend)
}

// Params returns the normalized pooling parameters.
func (p *MaxPool2D[B]) Params() tensor.PoolParams {
	return p.params
}

// ComputeOutputSize computes output spatial dimensions for an input size.
func (p *MaxPool2D[B]) ComputeOutputSize(inputH, inputW int) [2]int {
	return poolOutputSize(p.params, inputH, inputW)
}

// String returns a string representation of the layer.
func (p *MaxPool2D[B]) String() string {
	return poolString("MaxPool2D", p.params)
}
