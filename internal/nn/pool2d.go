package nn

import (
	"fmt"

	"github.com/lamina-ml/lamina/internal/tensor"
)

// Pool2DConfig configures a 2D pooling layer.
//
// A zero Stride means the window size, so windows tile the input without
// overlap. Padding is [top, bottom, left, right] and may not exceed half the
// window; SamePad overrides it with the padding that preserves spatial size
// at stride 1.
type Pool2DConfig struct {
	Window  [2]int
	Stride  [2]int
	Padding [4]int
	SamePad bool
}

// normalize fills defaults and panics on invalid configuration.
func (cfg Pool2DConfig) normalize(name string) Pool2DConfig {
	if cfg.Window[0] <= 0 || cfg.Window[1] <= 0 {
		panic(fmt.Sprintf("%s: invalid window %v", name, cfg.Window))
	}
	if cfg.SamePad {
		// SamePad only makes sense with overlapping windows; default the
		// stride to 1 rather than the window size.
		for i := 0; i < 2; i++ {
			if cfg.Stride[i] == 0 {
				cfg.Stride[i] = 1
			}
		}
		topLo, topHi := tensor.SamePadding(cfg.Window[0], 1)
		leftLo, leftHi := tensor.SamePadding(cfg.Window[1], 1)
		cfg.Padding = [4]int{topLo, topHi, leftLo, leftHi}
	}
	return cfg
}

func (cfg Pool2DConfig) poolParams() tensor.PoolParams {
	p := tensor.PoolParams{
		Window:  cfg.Window,
		Stride:  cfg.Stride,
		Padding: cfg.Padding,
	}.Defaults()
	p.Validate()
	return p
}

// poolForward validates the input and delegates the pooling to the backend.
// Shared by the max and mean pooling layers and their wrappers.
func poolForward[B tensor.Backend](name string, input *tensor.Tensor[float32, B],
	params tensor.PoolParams, isMax bool, backend B,
) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("%s: expected 4D input [N,C,H,W], got %dD", name, len(shape)))
	}
	var outputRaw *tensor.RawTensor
	if isMax {
		outputRaw = backend.MaxPool2D(input.Raw(), params)
	} else {
		outputRaw = backend.MeanPool2D(input.Raw(), params)
	}
	return tensor.New[float32, B](outputRaw, backend)
}

func poolOutputSize(params tensor.PoolParams, inputH, inputW int) [2]int {
	return [2]int{
		tensor.ConvOutputSize(inputH, params.Window[0], params.Stride[0], 1, params.Padding[0], params.Padding[1]),
		tensor.ConvOutputSize(inputW, params.Window[1], params.Stride[1], 1, params.Padding[2], params.Padding[3]),
	}
}

func poolString(name string, params tensor.PoolParams) string {
	return fmt.Sprintf("%s(window=(%d, %d), stride=(%d, %d), padding=%v)",
		name, params.Window[0], params.Window[1],
		params.Stride[0], params.Stride[1], params.Padding)
}
