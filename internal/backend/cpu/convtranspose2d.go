package cpu

import (
	"fmt"
	"runtime"

	"github.com/lamina-ml/lamina/internal/parallel"
	"github.com/lamina-ml/lamina/internal/tensor"
)

// ConvTranspose2D performs a 2D transposed convolution by scattering each
// input element through the kernel into the output.
//
// Input shape:  [N, Cin, H, W]
// Kernel shape: [Cin, Cout, Kh, Kw]
// Output shape: [N, Cout, Hout, Wout]
//
// Where, per spatial axis:
//
//	out = (in-1)*stride - padLo - padHi + dilation*(k-1) + 1 + outputPadding
func (cpu *CPUBackend) ConvTranspose2D(input, kernel *tensor.RawTensor, p tensor.ConvTransposeParams) *tensor.RawTensor {
	p = p.Defaults()
	p.Validate()

	inputShape := input.Shape()
	kernelShape := kernel.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("conv transpose2d: input must be 4D [N,C,H,W], got %dD", len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("conv transpose2d: kernel must be 4D [Cin,Cout,Kh,Kw], got %dD", len(kernelShape)))
	}

	N, cIn, H, W := inputShape[0], inputShape[1], inputShape[2], inputShape[3]
	cOut, kH, kW := kernelShape[1], kernelShape[2], kernelShape[3]
	if kernelShape[0] != cIn {
		panic(fmt.Sprintf("conv transpose2d: input channels %d != kernel channels %d", cIn, kernelShape[0]))
	}

	hOut := tensor.ConvTransposeOutputSize(H, kH, p.Stride[0], p.Dilation[0], p.Padding[0], p.Padding[1], p.OutputPadding[0])
	wOut := tensor.ConvTransposeOutputSize(W, kW, p.Stride[1], p.Dilation[1], p.Padding[2], p.Padding[3], p.OutputPadding[1])

	output, err := tensor.NewRaw(tensor.Shape{N, cOut, hOut, wOut}, input.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("conv transpose2d: failed to create output tensor: %v", err))
	}

	switch input.DType() {
	case tensor.Float32:
		convTranspose2dKernel(output.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(),
			N, cIn, H, W, cOut, kH, kW, hOut, wOut, p)
	case tensor.Float64:
		convTranspose2dKernel(output.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(),
			N, cIn, H, W, cOut, kH, kW, hOut, wOut, p)
	default:
		panic(fmt.Sprintf("conv transpose2d: unsupported dtype %s", input.DType()))
	}
	return output
}

func convTranspose2dKernel[T float32 | float64](out, in, kernel []T,
	N, cIn, H, W, cOut, kH, kW, hOut, wOut int, p tensor.ConvTransposeParams,
) {
	// Parallel over the batch only: all input channels scatter into the same
	// output plane, so a finer split would race on the accumulation.
	parallel.For(N, parallel.Config{Workers: runtime.NumCPU(), MinPerWorker: 1}, func(n int) {
		for ic := 0; ic < cIn; ic++ {
			plane := (n*cIn + ic) * H * W
			for ih := 0; ih < H; ih++ {
				for iw := 0; iw < W; iw++ {
					val := in[plane+ih*W+iw]
					if val == 0 {
						continue
					}
					for oc := 0; oc < cOut; oc++ {
						kBase := (ic*cOut + oc) * kH * kW
						outPlane := (n*cOut + oc) * hOut * wOut
						for kh := 0; kh < kH; kh++ {
							oh := ih*p.Stride[0] - p.Padding[0] + kh*p.Dilation[0]
							if oh < 0 || oh >= hOut {
								continue
							}
							for kw := 0; kw < kW; kw++ {
								ow := iw*p.Stride[1] - p.Padding[2] + kw*p.Dilation[1]
								if ow < 0 || ow >= wOut {
									continue
								}
								out[outPlane+oh*wOut+ow] += val * kernel[kBase+kh*kW+kw]
							}
						}
					}
				}
			}
		}
	})
}
