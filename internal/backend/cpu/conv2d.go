package cpu

import (
	"fmt"

	"github.com/lamina-ml/lamina/internal/parallel"
	"github.com/lamina-ml/lamina/internal/tensor"
)

// Conv2D performs 2D convolution (or cross-correlation) using im2col.
//
// Input shape:  [N, Cin, H, W]
// Kernel shape: [Cout, Cin/groups, Kh, Kw]
// Output shape: [N, Cout, Hout, Wout]
//
// Algorithm: patches of the (padded, dilated) input are unrolled into columns,
// the kernel is viewed as a [Cout/groups, Cin/groups*Kh*Kw] matrix per group,
// and the convolution becomes a matrix multiply. When p.FlipKernel is set the
// kernel is read spatially reversed, which turns the cross-correlation into a
// true convolution.
//
// Reference: "High Performance Convolutional Neural Networks for Document
// Processing" (Chellapilla et al., 2006).
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, p tensor.ConvParams) *tensor.RawTensor {
	p = p.Defaults()
	p.Validate()

	inputShape := input.Shape()
	kernelShape := kernel.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [Cout,Cin/g,Kh,Kw], got %dD", len(kernelShape)))
	}

	N, cIn, H, W := inputShape[0], inputShape[1], inputShape[2], inputShape[3]
	cOut, cInPerGroup, kH, kW := kernelShape[0], kernelShape[1], kernelShape[2], kernelShape[3]

	if cIn != cInPerGroup*p.Groups {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d x %d groups", cIn, cInPerGroup, p.Groups))
	}
	if cOut%p.Groups != 0 {
		panic(fmt.Sprintf("conv2d: output channels %d not divisible by %d groups", cOut, p.Groups))
	}

	hOut := tensor.ConvOutputSize(H, kH, p.Stride[0], p.Dilation[0], p.Padding[0], p.Padding[1])
	wOut := tensor.ConvOutputSize(W, kW, p.Stride[1], p.Dilation[1], p.Padding[2], p.Padding[3])

	output, err := tensor.NewRaw(tensor.Shape{N, cOut, hOut, wOut}, input.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("conv2d: failed to create output tensor: %v", err))
	}

	switch input.DType() {
	case tensor.Float32:
		conv2dKernel(output.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(),
			N, cIn, H, W, cOut, kH, kW, hOut, wOut, p)
	case tensor.Float64:
		conv2dKernel(output.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(),
			N, cIn, H, W, cOut, kH, kW, hOut, wOut, p)
	default:
		panic(fmt.Sprintf("conv2d: unsupported dtype %s", input.DType()))
	}
	return output
}

// conv2dKernel runs im2col + matmul once per group.
func conv2dKernel[T float32 | float64](out, in, kernel []T,
	N, cIn, H, W, cOut, kH, kW, hOut, wOut int, p tensor.ConvParams,
) {
	cInPerGroup := cIn / p.Groups
	cOutPerGroup := cOut / p.Groups
	colWidth := cInPerGroup * kH * kW
	colHeight := N * hOut * wOut
	colBuf := make([]T, colHeight*colWidth)
	kernelMat := make([]T, cOutPerGroup*colWidth)

	for g := 0; g < p.Groups; g++ {
		im2col(colBuf, in, N, cIn, g*cInPerGroup, cInPerGroup, H, W, kH, kW, hOut, wOut, p)

		// View this group's kernel as [CoutPerGroup, colWidth], reversing the
		// spatial axes when a true convolution was requested.
		for oc := 0; oc < cOutPerGroup; oc++ {
			base := (g*cOutPerGroup + oc) * colWidth
			for ic := 0; ic < cInPerGroup; ic++ {
				for kh := 0; kh < kH; kh++ {
					for kw := 0; kw < kW; kw++ {
						src := base + (ic*kH+kh)*kW + kw
						dst := oc*colWidth + (ic*kH+kh)*kW + kw
						if p.FlipKernel {
							dst = oc*colWidth + (ic*kH+(kH-1-kh))*kW + (kW - 1 - kw)
						}
						kernelMat[dst] = kernel[src]
					}
				}
			}
		}

		// out[n, g*CoutPerGroup+oc, oh, ow] = kernelMat[oc] . colBuf[n*hOut*wOut + oh*wOut + ow]
		parallel.For(colHeight, parallel.DefaultConfig(), func(j int) {
			col := colBuf[j*colWidth : (j+1)*colWidth]
			n := j / (hOut * wOut)
			rest := j % (hOut * wOut)
			for oc := 0; oc < cOutPerGroup; oc++ {
				kRow := kernelMat[oc*colWidth : (oc+1)*colWidth]
				var sum T
				for k, kv := range kRow {
					sum += kv * col[k]
				}
				out[((n*cOut+g*cOutPerGroup+oc)*hOut*wOut)+rest] = sum
			}
		})
	}
}

// im2col unrolls input patches of channels [chStart, chStart+chCount) into
// rows of colBuf. Out-of-bounds (padding) positions stay zero.
func im2col[T float32 | float64](colBuf, in []T,
	N, cIn, chStart, chCount, H, W, kH, kW, hOut, wOut int, p tensor.ConvParams,
) {
	colWidth := chCount * kH * kW
	for n := 0; n < N; n++ {
		for oh := 0; oh < hOut; oh++ {
			for ow := 0; ow < wOut; ow++ {
				row := ((n*hOut+oh)*wOut + ow) * colWidth
				for ic := 0; ic < chCount; ic++ {
					plane := (n*cIn + chStart + ic) * H * W
					for kh := 0; kh < kH; kh++ {
						ih := oh*p.Stride[0] - p.Padding[0] + kh*p.Dilation[0]
						for kw := 0; kw < kW; kw++ {
							iw := ow*p.Stride[1] - p.Padding[2] + kw*p.Dilation[1]
							dst := row + (ic*kH+kh)*kW + kw
							if ih < 0 || ih >= H || iw < 0 || iw >= W {
								colBuf[dst] = 0
								continue
							}
							colBuf[dst] = in[plane+ih*W+iw]
						}
					}
				}
			}
		}
	}
}
