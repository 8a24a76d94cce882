package tensor

import "fmt"

// This file holds the closed-form geometry of convolutions and pooling:
// parameter structs passed to backends, and the output-size arithmetic layers
// use for shape inference. Padding is always [top, bottom, left, right];
// per-axis pairs are {height, width}.

// ConvParams configures a 2D convolution or cross-correlation.
//
// The kernel is laid out as [out_channels, in_channels/groups, kh, kw].
// FlipKernel selects true convolution (kernel spatially reversed); without it
// the operation is a cross-correlation, the usual deep-learning convention.
type ConvParams struct {
	Stride     [2]int
	Dilation   [2]int
	Padding    [4]int
	Groups     int
	FlipKernel bool
}

// Defaults returns a copy of p with zero values replaced by the standard
// defaults: stride 1, dilation 1, groups 1.
func (p ConvParams) Defaults() ConvParams {
	for i := 0; i < 2; i++ {
		if p.Stride[i] == 0 {
			p.Stride[i] = 1
		}
		if p.Dilation[i] == 0 {
			p.Dilation[i] = 1
		}
	}
	if p.Groups == 0 {
		p.Groups = 1
	}
	return p
}

// Validate panics if the parameters are not usable.
func (p ConvParams) Validate() {
	for i := 0; i < 2; i++ {
		if p.Stride[i] < 1 {
			panic(fmt.Sprintf("conv: stride must be >= 1, got %v", p.Stride))
		}
		if p.Dilation[i] < 1 {
			panic(fmt.Sprintf("conv: dilation must be >= 1, got %v", p.Dilation))
		}
	}
	for i, pad := range p.Padding {
		if pad < 0 {
			panic(fmt.Sprintf("conv: padding[%d] must be >= 0, got %d", i, pad))
		}
	}
	if p.Groups < 1 {
		panic(fmt.Sprintf("conv: groups must be >= 1, got %d", p.Groups))
	}
}

// ConvTransposeParams configures a 2D transposed convolution.
//
// The kernel is laid out as [in_channels, out_channels, kh, kw].
// OutputPadding adds extra cells on the bottom/right of the output to
// disambiguate the output size when stride > 1.
type ConvTransposeParams struct {
	Stride        [2]int
	Dilation      [2]int
	Padding       [4]int
	OutputPadding [2]int
}

// Defaults returns a copy of p with zero values replaced by stride 1 and
// dilation 1.
func (p ConvTransposeParams) Defaults() ConvTransposeParams {
	for i := 0; i < 2; i++ {
		if p.Stride[i] == 0 {
			p.Stride[i] = 1
		}
		if p.Dilation[i] == 0 {
			p.Dilation[i] = 1
		}
	}
	return p
}

// Validate panics if the parameters are not usable.
func (p ConvTransposeParams) Validate() {
	for i := 0; i < 2; i++ {
		if p.Stride[i] < 1 {
			panic(fmt.Sprintf("conv transpose: stride must be >= 1, got %v", p.Stride))
		}
		if p.Dilation[i] < 1 {
			panic(fmt.Sprintf("conv transpose: dilation must be >= 1, got %v", p.Dilation))
		}
		if p.OutputPadding[i] < 0 || p.OutputPadding[i] >= p.Stride[i] {
			panic(fmt.Sprintf("conv transpose: output padding must be in [0, stride), got %v with stride %v",
				p.OutputPadding, p.Stride))
		}
	}
	for i, pad := range p.Padding {
		if pad < 0 {
			panic(fmt.Sprintf("conv transpose: padding[%d] must be >= 0, got %d", i, pad))
		}
	}
}

// PoolParams configures a 2D pooling window.
type PoolParams struct {
	Window  [2]int
	Stride  [2]int
	Padding [4]int
}

// Defaults returns a copy of p with a zero stride replaced by the window size
// (non-overlapping pooling).
func (p PoolParams) Defaults() PoolParams {
	for i := 0; i < 2; i++ {
		if p.Stride[i] == 0 {
			p.Stride[i] = p.Window[i]
		}
	}
	return p
}

// Validate panics if the parameters are not usable. Padding may not exceed
// half the window, so every window covers at least one input cell.
func (p PoolParams) Validate() {
	for i := 0; i < 2; i++ {
		if p.Window[i] < 1 {
			panic(fmt.Sprintf("pool: window must be >= 1, got %v", p.Window))
		}
		if p.Stride[i] < 1 {
			panic(fmt.Sprintf("pool: stride must be >= 1, got %v", p.Stride))
		}
	}
	for i, pad := range p.Padding {
		if pad < 0 {
			panic(fmt.Sprintf("pool: padding[%d] must be >= 0, got %d", i, pad))
		}
		if pad > p.Window[i/2]/2 {
			panic(fmt.Sprintf("pool: padding[%d]=%d larger than half the window %v", i, pad, p.Window))
		}
	}
}

// ConvOutputSize computes one spatial output dimension of a convolution,
// cross-correlation or pooling:
//
//	out = (in + padLo + padHi - dilation*(k-1) - 1) / stride + 1
//
// Panics if the result is not positive.
func ConvOutputSize(in, kernel, stride, dilation, padLo, padHi int) int {
	effective := dilation*(kernel-1) + 1
	out := (in+padLo+padHi-effective)/stride + 1
	if out <= 0 {
		panic(fmt.Sprintf("conv: input %d with kernel %d, stride %d, dilation %d, padding (%d,%d) yields empty output",
			in, kernel, stride, dilation, padLo, padHi))
	}
	return out
}

// ConvTransposeOutputSize computes one spatial output dimension of a
// transposed convolution:
//
//	out = (in-1)*stride - padLo - padHi + dilation*(k-1) + 1 + outputPadding
//
// Panics if the result is not positive.
func ConvTransposeOutputSize(in, kernel, stride, dilation, padLo, padHi, outputPadding int) int {
	out := (in-1)*stride - padLo - padHi + dilation*(kernel-1) + 1 + outputPadding
	if out <= 0 {
		panic(fmt.Sprintf("conv transpose: input %d with kernel %d, stride %d, dilation %d, padding (%d,%d) yields empty output",
			in, kernel, stride, dilation, padLo, padHi))
	}
	return out
}

// SamePadding returns the (low, high) padding that keeps the spatial size
// unchanged under stride-1 convolution with the given kernel size and
// dilation. The total padding is dilation*(kernel-1); for even totals it
// splits evenly, otherwise the extra cell goes on the high side.
func SamePadding(kernel, dilation int) (lo, hi int) {
	total := dilation * (kernel - 1)
	lo = total / 2
	hi = total - lo
	return lo, hi
}
