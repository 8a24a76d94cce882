package cpu

import (
	"fmt"

	"github.com/lamina-ml/lamina/internal/tensor"
)

// Add performs element-wise addition with broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("add", a, b,
		func(x, y float32) float32 { return x + y },
		func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("sub", a, b,
		func(x, y float32) float32 { return x - y },
		func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("mul", a, b,
		func(x, y float32) float32 { return x * y },
		func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("div", a, b,
		func(x, y float32) float32 { return x / y },
		func(x, y float64) float64 { return x / y })
}

func (cpu *CPUBackend) binaryOp(name string, a, b *tensor.RawTensor,
	op32 func(float32, float32) float32, op64 func(float64, float64) float64,
) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch: %s vs %s", name, a.DType(), b.DType()))
	}
	outShape, broadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}
	output, err := tensor.NewRaw(outShape, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	switch a.DType() {
	case tensor.Float32:
		if broadcast {
			broadcastLoop(output.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape, op32)
		} else {
			directLoop(output.AsFloat32(), a.AsFloat32(), b.AsFloat32(), op32)
		}
	case tensor.Float64:
		if broadcast {
			broadcastLoop(output.AsFloat64(), a.AsFloat64(), b.AsFloat64(), a.Shape(), b.Shape(), outShape, op64)
		} else {
			directLoop(output.AsFloat64(), a.AsFloat64(), b.AsFloat64(), op64)
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}
	return output
}

func directLoop[T float32 | float64](out, a, b []T, op func(T, T) T) {
	for i := range out {
		out[i] = op(a[i], b[i])
	}
}

func broadcastLoop[T float32 | float64](out, a, b []T, aShape, bShape, outShape tensor.Shape, op func(T, T) T) {
	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)
	for i := range out {
		out[i] = op(a[flatIndex(i, outStrides, aStrides)], b[flatIndex(i, outStrides, bStrides)])
	}
}

// broadcastStrides computes read strides for a tensor broadcast to outShape:
// stretched dimensions get stride 0.
func broadcastStrides(inShape, outShape tensor.Shape) []int {
	strides := make([]int, len(outShape))
	offset := len(outShape) - len(inShape)
	origStrides := inShape.ComputeStrides()
	for i := range outShape {
		inIdx := i - offset
		if inIdx < 0 || inShape[inIdx] == 1 {
			strides[i] = 0
		} else {
			strides[i] = origStrides[inIdx]
		}
	}
	return strides
}

// flatIndex maps a flat output index to the flat index in a broadcast input.
func flatIndex(outIdx int, outStrides, inStrides []int) int {
	flat := 0
	for i := range outStrides {
		coord := outIdx / outStrides[i]
		outIdx %= outStrides[i]
		flat += coord * inStrides[i]
	}
	return flat
}

// AddScalar adds a scalar to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("add scalar", x, scalar,
		func(v, s float32) float32 { return v + s },
		func(v, s float64) float64 { return v + s })
}

// MulScalar multiplies every element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("mul scalar", x, scalar,
		func(v, s float32) float32 { return v * s },
		func(v, s float64) float64 { return v * s })
}

func (cpu *CPUBackend) scalarOp(name string, x *tensor.RawTensor, scalar any,
	op32 func(float32, float32) float32, op64 func(float64, float64) float64,
) *tensor.RawTensor {
	output, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}
	s := scalarToFloat64(name, scalar)
	switch x.DType() {
	case tensor.Float32:
		in, out := x.AsFloat32(), output.AsFloat32()
		for i := range in {
			out[i] = op32(in[i], float32(s))
		}
	case tensor.Float64:
		in, out := x.AsFloat64(), output.AsFloat64()
		for i := range in {
			out[i] = op64(in[i], s)
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}
	return output
}

func scalarToFloat64(name string, scalar any) float64 {
	switch v := scalar.(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	case int:
		return float64(v)
	default:
		panic(fmt.Sprintf("%s: unsupported scalar type %T", name, scalar))
	}
}

// MatMul multiplies two 2D matrices: [M, K] @ [K, N] -> [M, N].
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: requires 2D tensors, got %v and %v", aShape, bShape))
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("matmul: shape mismatch: %v @ %v", aShape, bShape))
	}
	output, err := tensor.NewRaw(tensor.Shape{aShape[0], bShape[1]}, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("matmul: %v", err))
	}
	switch a.DType() {
	case tensor.Float32:
		matmulKernel(output.AsFloat32(), a.AsFloat32(), b.AsFloat32(), aShape[0], aShape[1], bShape[1])
	case tensor.Float64:
		matmulKernel(output.AsFloat64(), a.AsFloat64(), b.AsFloat64(), aShape[0], aShape[1], bShape[1])
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s", a.DType()))
	}
	return output
}

// matmulKernel computes C = A @ B in the ikj order for cache-friendly access
// to B's rows.
func matmulKernel[T float32 | float64](c, a, b []T, M, K, N int) {
	for i := 0; i < M; i++ {
		cRow := c[i*N : (i+1)*N]
		for k := 0; k < K; k++ {
			aik := a[i*K+k]
			if aik == 0 {
				continue
			}
			bRow := b[k*N : (k+1)*N]
			for j := range cRow {
				cRow[j] += aik * bRow[j]
			}
		}
	}
}

// Reshape returns a view of t with a new shape.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	return t.WithShape(newShape)
}
