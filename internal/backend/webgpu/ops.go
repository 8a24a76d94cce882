package webgpu

import (
	"fmt"

	"github.com/lamina-ml/lamina/internal/tensor"
)

// isChannelBias reports whether y is a [1, C, 1, 1] bias broadcastable over
// the NCHW tensor x.
func isChannelBias(x, y *tensor.RawTensor) bool {
	xs, ys := x.Shape(), y.Shape()
	return len(xs) == 4 && len(ys) == 4 &&
		ys[0] == 1 && ys[1] == xs[1] && ys[2] == 1 && ys[3] == 1
}

// Add performs element-wise addition on GPU. Besides same-shaped operands it
// supports the one broadcast the layers need, a per-channel bias [1, C, 1, 1]
// over an NCHW tensor.
func (b *Backend) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	var result *tensor.RawTensor
	var err error
	if isChannelBias(x, y) {
		result, err = b.runBiasAdd(x, y)
	} else {
		result, err = b.runBinaryOp(x, y, "add", binaryShader("+"))
	}
	if err != nil {
		panic("webgpu: Add: " + err.Error())
	}
	return result
}

// Sub performs element-wise subtraction on GPU.
func (b *Backend) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBinaryOp(x, y, "sub", binaryShader("-"))
	if err != nil {
		panic("webgpu: Sub: " + err.Error())
	}
	return result
}

// Mul performs element-wise multiplication on GPU.
func (b *Backend) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBinaryOp(x, y, "mul", binaryShader("*"))
	if err != nil {
		panic("webgpu: Mul: " + err.Error())
	}
	return result
}

// Div performs element-wise division on GPU.
func (b *Backend) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBinaryOp(x, y, "div", binaryShader("/"))
	if err != nil {
		panic("webgpu: Div: " + err.Error())
	}
	return result
}

// AddScalar adds a scalar to every element on GPU.
func (b *Backend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result, err := b.runScalarOp(x, scalarToFloat32(scalar), "add_scalar", scalarShader("+"))
	if err != nil {
		panic("webgpu: AddScalar: " + err.Error())
	}
	return result
}

// MulScalar multiplies every element by a scalar on GPU.
func (b *Backend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result, err := b.runScalarOp(x, scalarToFloat32(scalar), "mul_scalar", scalarShader("*"))
	if err != nil {
		panic("webgpu: MulScalar: " + err.Error())
	}
	return result
}

func scalarToFloat32(scalar any) float32 {
	switch v := scalar.(type) {
	case float32:
		return v
	case float64:
		return float32(v)
	case int:
		return float32(v)
	default:
		panic(fmt.Sprintf("webgpu: unsupported scalar type %T", scalar))
	}
}

// MatMul performs matrix multiplication on GPU.
func (b *Backend) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runMatMul(x, y)
	if err != nil {
		panic("webgpu: MatMul: " + err.Error())
	}
	return result
}

// Conv2D performs a grouped 2D convolution or cross-correlation on GPU.
func (b *Backend) Conv2D(input, kernel *tensor.RawTensor, p tensor.ConvParams) *tensor.RawTensor {
	result, err := b.runConv2D(input, kernel, p)
	if err != nil {
		panic("webgpu: Conv2D: " + err.Error())
	}
	return result
}

// ConvTranspose2D performs a 2D transposed convolution on GPU.
func (b *Backend) ConvTranspose2D(input, kernel *tensor.RawTensor, p tensor.ConvTransposeParams) *tensor.RawTensor {
	result, err := b.runConvTranspose2D(input, kernel, p)
	if err != nil {
		panic("webgpu: ConvTranspose2D: " + err.Error())
	}
	return result
}

// MaxPool2D performs 2D max pooling on GPU; padded cells never contribute.
func (b *Backend) MaxPool2D(input *tensor.RawTensor, p tensor.PoolParams) *tensor.RawTensor {
	result, err := b.runPool2D(input, p, "maxpool2d", maxPool2dShader)
	if err != nil {
		panic("webgpu: MaxPool2D: " + err.Error())
	}
	return result
}

// MeanPool2D performs 2D mean pooling on GPU over the full window size.
func (b *Backend) MeanPool2D(input *tensor.RawTensor, p tensor.PoolParams) *tensor.RawTensor {
	result, err := b.runPool2D(input, p, "meanpool2d", meanPool2dShader)
	if err != nil {
		panic("webgpu: MeanPool2D: " + err.Error())
	}
	return result
}

// Reshape returns a tensor with a new shape. Data stays on the CPU side of
// the raw tensor, so this is a plain copy with new metadata.
func (b *Backend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("webgpu: reshape: cannot reshape %v into %v", t.Shape(), newShape))
	}
	result, err := tensor.NewRaw(newShape, t.DType(), tensor.WebGPU)
	if err != nil {
		panic("webgpu: reshape: " + err.Error())
	}
	copy(result.Data(), t.Data())
	return result
}

// Cast converts between data types. The GPU kernels only run float32, so
// casts are not supported here; convert on a CPU backend instead.
func (b *Backend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if x.DType() == dtype {
		return x.Clone()
	}
	panic(fmt.Sprintf("webgpu: Cast %s -> %s not supported", x.DType(), dtype))
}
