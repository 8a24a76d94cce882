package cpu

import (
	"fmt"
	"math"

	"github.com/lamina-ml/lamina/internal/parallel"
	"github.com/lamina-ml/lamina/internal/tensor"
)

// MaxPool2D performs 2D max pooling over [N, C, H, W] inputs. Padded cells
// never win: the maximum is taken over the in-bounds part of each window.
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, p tensor.PoolParams) *tensor.RawTensor {
	return cpu.pool2d("maxpool2d", input, p, true)
}

// MeanPool2D performs 2D mean pooling over [N, C, H, W] inputs. Padded cells
// count as zeros: each window is averaged over the full window size.
func (cpu *CPUBackend) MeanPool2D(input *tensor.RawTensor, p tensor.PoolParams) *tensor.RawTensor {
	return cpu.pool2d("meanpool2d", input, p, false)
}

func (cpu *CPUBackend) pool2d(name string, input *tensor.RawTensor, p tensor.PoolParams, isMax bool) *tensor.RawTensor {
	p = p.Defaults()
	p.Validate()

	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("%s: expected 4D input [N,C,H,W], got %dD", name, len(inputShape)))
	}
	N, C, H, W := inputShape[0], inputShape[1], inputShape[2], inputShape[3]

	hOut := tensor.ConvOutputSize(H, p.Window[0], p.Stride[0], 1, p.Padding[0], p.Padding[1])
	wOut := tensor.ConvOutputSize(W, p.Window[1], p.Stride[1], 1, p.Padding[2], p.Padding[3])

	output, err := tensor.NewRaw(tensor.Shape{N, C, hOut, wOut}, input.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create output: %v", name, err))
	}

	switch input.DType() {
	case tensor.Float32:
		pool2dKernel(output.AsFloat32(), input.AsFloat32(), N, C, H, W, hOut, wOut, p, isMax, float32(math.Inf(-1)))
	case tensor.Float64:
		pool2dKernel(output.AsFloat64(), input.AsFloat64(), N, C, H, W, hOut, wOut, p, isMax, math.Inf(-1))
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, input.DType()))
	}
	return output
}

func pool2dKernel[T float32 | float64](out, in []T,
	N, C, H, W, hOut, wOut int, p tensor.PoolParams, isMax bool, negInf T,
) {
	windowSize := T(p.Window[0] * p.Window[1])
	parallel.ForPlanes(N, C, parallel.DefaultConfig(), func(n, c int) {
		plane := in[(n*C+c)*H*W : (n*C+c+1)*H*W]
		outPlane := out[(n*C+c)*hOut*wOut : (n*C+c+1)*hOut*wOut]
		for oh := 0; oh < hOut; oh++ {
			hStart := oh*p.Stride[0] - p.Padding[0]
			for ow := 0; ow < wOut; ow++ {
				wStart := ow*p.Stride[1] - p.Padding[2]
				acc := negInf
				if !isMax {
					acc = 0
				}
				for kh := 0; kh < p.Window[0]; kh++ {
					ih := hStart + kh
					if ih < 0 || ih >= H {
						continue
					}
					row := plane[ih*W : (ih+1)*W]
					for kw := 0; kw < p.Window[1]; kw++ {
						iw := wStart + kw
						if iw < 0 || iw >= W {
							continue
						}
						v := row[iw]
						if isMax {
							if v > acc {
								acc = v
							}
						} else {
							acc += v
						}
					}
				}
				if !isMax {
					acc /= windowSize
				}
				outPlane[oh*wOut+ow] = acc
			}
		}
	})
}
