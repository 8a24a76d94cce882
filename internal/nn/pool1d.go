package nn

import (
	"fmt"

	"github.com/lamina-ml/lamina/internal/tensor"
)

// Pool1DConfig configures a 1D pooling layer over [batch, channels, length]
// inputs. A zero Stride means the window size; Padding is [left, right].
type Pool1DConfig struct {
	Window  int
	Stride  int
	Padding [2]int
	SamePad bool
}

func (cfg Pool1DConfig) lift() Pool2DConfig {
	return Pool2DConfig{
		Window:  [2]int{1, cfg.Window},
		Stride:  [2]int{1, cfg.Stride},
		Padding: [4]int{0, 0, cfg.Padding[0], cfg.Padding[1]},
		SamePad: cfg.SamePad,
	}
}

// pool1dForward lifts a 3D input onto a unit-height spatial axis, pools it
// with the 2D path and drops the axis again.
func pool1dForward[B tensor.Backend](name string, input *tensor.Tensor[float32, B],
	params tensor.PoolParams, isMax bool, backend B,
) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("%s: expected 3D input [batch, channels, length], got shape %v", name, shape))
	}
	lifted := input.Reshape(shape[0], shape[1], 1, shape[2])
	out := poolForward(name, lifted, params, isMax, backend)
	outShape := out.Shape()
	return out.Reshape(outShape[0], outShape[1], outShape[3])
}

// MaxPool1D takes the maximum over each 1D pooling window.
type MaxPool1D[B tensor.Backend] struct {
	params  tensor.PoolParams
	backend B
}

// NewMaxPool1D creates a 1D max pooling layer. Panics on invalid
// configuration.
func NewMaxPool1D[B tensor.Backend](cfg Pool1DConfig, backend B) *MaxPool1D[B] {
	lifted := cfg.lift().normalize("maxpool1d")
	return &MaxPool1D[B]{params: lifted.poolParams(), backend: backend}
}

// Forward performs the forward pass.
//
// Input: [batch, channels, length]
// Output: [batch, channels, out_length].
func (p *MaxPool1D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return pool1dForward("maxpool1d", input, p.params, true, p.backend)
}

// ComputeOutputSize computes the output length for an input length.
func (p *MaxPool1D[B]) ComputeOutputSize(length int) int {
	return poolOutputSize(p.params, 1, length)[1]
}

// String returns a string representation of the layer.
func (p *MaxPool1D[B]) String() string {
	return fmt.Sprintf("MaxPool1D(window=%d, stride=%d, padding=[%d %d])",
		p.params.Window[1], p.params.Stride[1], p.params.Padding[2], p.params.Padding[3])
}

// MeanPool1D averages each 1D pooling window; the divisor is always the full
// window size.
type MeanPool1D[B tensor.Backend] struct {
	params  tensor.PoolParams
	backend B
}

// NewMeanPool1D creates a 1D mean pooling layer. Panics on invalid
// configuration.
func NewMeanPool1D[B tensor.Backend](cfg Pool1DConfig, backend B) *MeanPool1D[B] {
	lifted := cfg.lift().normalize("meanpool1d")
	return &MeanPool1D[B]{params: lifted.poolParams(), backend: backend}
}

// Forward performs the forward pass.
//
// Input: [batch, channels, length]
// Output: [batch, channels, out_length].
func (p *MeanPool1D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return pool1dForward("meanpool1d", input, p.params, false, p.backend)
}

// ComputeOutputSize computes the output length for an input length.
func (p *MeanPool1D[B]) ComputeOutputSize(length int) int {
	return poolOutputSize(p.params, 1, length)[1]
}

// String returns a string representation of the layer.
func (p *MeanPool1D[B]) String() string {
	return fmt.Sprintf("MeanPool1D(window=%d, stride=%d, padding=[%d %d])",
		p.params.Window[1], p.params.Stride[1], p.params.Padding[2], p.params.Padding[3])
}
