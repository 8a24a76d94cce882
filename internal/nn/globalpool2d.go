package nn

import (
	"github.com/lamina-ml/lamina/internal/tensor"
)

// GlobalMaxPool2D takes the maximum over the entire spatial extent, reducing
// [batch, channels, height, width] to [batch, channels, 1, 1]. The window is
// derived from the input, so one layer serves any spatial size.
type GlobalMaxPool2D[B tensor.Backend] struct {
	backend B
}

// NewGlobalMaxPool2D creates a global max pooling layer.
func NewGlobalMaxPool2D[B tensor.Backend](backend B) *GlobalMaxPool2D[B] {
	return &GlobalMaxPool2D[B]{backend: backend}
}

// Forward performs the forward pass.
func (p *GlobalMaxPool2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return poolForward("global_maxpool2d", input, globalPoolParams(input.Shape()), true, p.backend)
}

// String returns a string representation of the layer.
func (p *GlobalMaxPool2D[B]) String() string {
	return "GlobalMaxPool2D()"
}

// GlobalMeanPool2D averages the entire spatial extent, reducing
// [batch, channels, height, width] to [batch, channels, 1, 1].
type GlobalMeanPool2D[B tensor.Backend] struct {
	backend B
}

// NewGlobalMeanPool2D creates a global mean pooling layer.
func NewGlobalMeanPool2D[B tensor.Backend](backend B) *GlobalMeanPool2D[B] {
	return &GlobalMeanPool2D[B]{backend: backend}
}

// Forward performs the forward pass.
func (p *GlobalMeanPool2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return poolForward("global_meanpool2d", input, globalPoolParams(input.Shape()), false, p.backend)
}

// String returns a string representation of the layer.
func (p *GlobalMeanPool2D[B]) String() string {
	return "GlobalMeanPool2D()"
}

func globalPoolParams(shape tensor.Shape) tensor.PoolParams {
	if len(shape) != 4 {
		return tensor.PoolParams{} // poolForward reports the shape error
	}
	p := tensor.PoolParams{Window: [2]int{shape[2], shape[3]}}.Defaults()
	p.Validate()
	return p
}
