package nn

import (
	"github.com/lamina-ml/lamina/internal/tensor"
)

// MeanPool2D averages each pooling window. The divisor is always the full
// window size, so padded cells count as zeros and windows near the border
// are pulled towards zero.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, out_h, out_w]
type MeanPool2D[B tensor.Backend] struct {
	params  tensor.PoolParams
	backend B
}

// NewMeanPool2D creates a 2D mean pooling layer. Panics on invalid
// configuration.
func NewMeanPool2D[B tensor.Backend](cfg Pool2DConfig, backend B) *MeanPool2D[B] {
	cfg = cfg.normalize("meanpool2d")
	return &MeanPool2D[B]{params: cfg.poolParams(), backend: backend}
}

// Forward performs the forward pass.
func (p *MeanPool2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return poolForward("meanpool2d", input, p.params, false, p.backend)
}

// Params returns the normalized pooling parameters.
func (p *MeanPool2D[B]) Params() tensor.PoolParams {
	return p.params
}

// ComputeOutputSize computes output spatial dimensions for an input size.
func (p *MeanPool2D[B]) ComputeOutputSize(inputH, inputW int) [2]int {
	return poolOutputSize(p.params, inputH, inputW)
}

// String returns a string representation of the layer.
func (p *MeanPool2D[B]) String() string {
	return poolString("MeanPool2D", p.params)
}
