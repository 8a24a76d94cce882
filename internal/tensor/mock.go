package tensor

import (
	"fmt"

	"github.com/x448/float16"
)

// Verify that MockBackend implements Backend.
var _ Backend = (*MockBackend)(nil)

// MockBackend is a simple backend for testing. Every operation is written as
// the most direct loop possible, so optimized backends can be cross-checked
// against it. Float32 only, except Cast.
type MockBackend struct{}

// NewMockBackend creates a new MockBackend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// Name returns the backend name.
func (m *MockBackend) Name() string {
	return "mock"
}

// Device returns the device type.
func (m *MockBackend) Device() Device {
	return CPU
}

// Add performs element-wise addition with broadcasting.
func (m *MockBackend) Add(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (m *MockBackend) Sub(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float32) float32 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (m *MockBackend) Mul(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float32) float32 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (m *MockBackend) Div(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float32) float32 { return x / y })
}

func (m *MockBackend) elementWise(a, b *RawTensor, op func(float32, float32) float32) *RawTensor {
	outShape, _, err := BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(err)
	}
	result := m.newFloat32(outShape)

	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(a.Shape(), outShape)
	bStrides := broadcastStrides(b.Shape(), outShape)
	aData, bData, outData := a.AsFloat32(), b.AsFloat32(), result.AsFloat32()
	for i := range outData {
		outData[i] = op(aData[flatIndexFor(i, outStrides, aStrides)],
			bData[flatIndexFor(i, outStrides, bStrides)])
	}
	return result
}

// broadcastStrides computes strides for reading a tensor of shape inShape as
// if it had been broadcast to outShape: stretched dimensions get stride 0.
func broadcastStrides(inShape, outShape Shape) []int {
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

// flatIndexFor maps a flat output index to the flat index in a (possibly
// broadcast) input, given the output strides and the input's broadcast
// strides.
func flatIndexFor(outIdx int, outStrides, inStrides []int) int {
	flat := 0
	for i := range outStrides {
		coord := outIdx / outStrides[i]
		outIdx %= outStrides[i]
		flat += coord * inStrides[i]
	}
	return flat
}

// AddScalar adds a scalar to every element.
func (m *MockBackend) AddScalar(x *RawTensor, scalar any) *RawTensor {
	s := toFloat32(scalar)
	return m.unary(x, func(v float32) float32 { return v + s })
}

// MulScalar multiplies every element by a scalar.
func (m *MockBackend) MulScalar(x *RawTensor, scalar any) *RawTensor {
	s := toFloat32(scalar)
	return m.unary(x, func(v float32) float32 { return v * s })
}

func (m *MockBackend) unary(x *RawTensor, op func(float32) float32) *RawTensor {
	result := m.newFloat32(x.Shape())
	in, out := x.AsFloat32(), result.AsFloat32()
	for i := range in {
		out[i] = op(in[i])
	}
	return result
}

func toFloat32(scalar any) float32 {
	switch v := scalar.(type) {
	case float32:
		return v
	case float64:
		return float32(v)
	case int:
		return float32(v)
	default:
		panic(fmt.Sprintf("mock: unsupported scalar type %T", scalar))
	}
}

// MatMul multiplies two 2D matrices.
func (m *MockBackend) MatMul(a, b *RawTensor) *RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 || aShape[1] != bShape[0] {
		panic(fmt.Sprintf("mock: matmul shape mismatch: %v @ %v", aShape, bShape))
	}
	M, K, N := aShape[0], aShape[1], bShape[1]
	result := m.newFloat32(Shape{M, N})
	aData, bData, outData := a.AsFloat32(), b.AsFloat32(), result.AsFloat32()
	for i := 0; i < M; i++ {
		for j := 0; j < N; j++ {
			var sum float32
			for k := 0; k < K; k++ {
				sum += aData[i*K+k] * bData[k*N+j]
			}
			outData[i*N+j] = sum
		}
	}
	return result
}

// Conv2D computes a convolution as a direct gather loop over every output
// element.
func (m *MockBackend) Conv2D(input, kernel *RawTensor, p ConvParams) *RawTensor {
	p = p.Defaults()
	p.Validate()
	inShape, kShape := input.Shape(), kernel.Shape()
	N, cIn, H, W := inShape[0], inShape[1], inShape[2], inShape[3]
	cOut, cInPerGroup, kH, kW := kShape[0], kShape[1], kShape[2], kShape[3]
	if cIn != cInPerGroup*p.Groups {
		panic(fmt.Sprintf("mock: conv2d channel mismatch: input %d, kernel %d x %d groups", cIn, cInPerGroup, p.Groups))
	}
	hOut := ConvOutputSize(H, kH, p.Stride[0], p.Dilation[0], p.Padding[0], p.Padding[1])
	wOut := ConvOutputSize(W, kW, p.Stride[1], p.Dilation[1], p.Padding[2], p.Padding[3])
	cOutPerGroup := cOut / p.Groups

	result := m.newFloat32(Shape{N, cOut, hOut, wOut})
	in, k, out := input.AsFloat32(), kernel.AsFloat32(), result.AsFloat32()
	for n := 0; n < N; n++ {
		for oc := 0; oc < cOut; oc++ {
			g := oc / cOutPerGroup
			for oh := 0; oh < hOut; oh++ {
				for ow := 0; ow < wOut; ow++ {
					var sum float32
					for ic := 0; ic < cInPerGroup; ic++ {
						for kh := 0; kh < kH; kh++ {
							for kw := 0; kw < kW; kw++ {
								ekh, ekw := kh, kw
								if p.FlipKernel {
									ekh, ekw = kH-1-kh, kW-1-kw
								}
								ih := oh*p.Stride[0] - p.Padding[0] + ekh*p.Dilation[0]
								iw := ow*p.Stride[1] - p.Padding[2] + ekw*p.Dilation[1]
								if ih < 0 || ih >= H || iw < 0 || iw >= W {
									continue
								}
								inIdx := ((n*cIn+g*cInPerGroup+ic)*H+ih)*W + iw
								kIdx := ((oc*cInPerGroup+ic)*kH+kh)*kW + kw
								sum += in[inIdx] * k[kIdx]
							}
						}
					}
					out[((n*cOut+oc)*hOut+oh)*wOut+ow] = sum
				}
			}
		}
	}
	return result
}

// ConvTranspose2D computes a transposed convolution by scattering each input
// element through the kernel.
func (m *MockBackend) ConvTranspose2D(input, kernel *RawTensor, p ConvTransposeParams) *RawTensor {
	p = p.Defaults()
	p.Validate()
	inShape, kShape := input.Shape(), kernel.Shape()
	N, cIn, H, W := inShape[0], inShape[1], inShape[2], inShape[3]
	cOut, kH, kW := kShape[1], kShape[2], kShape[3]
	if kShape[0] != cIn {
		panic(fmt.Sprintf("mock: conv transpose channel mismatch: input %d, kernel %d", cIn, kShape[0]))
	}
	hOut := ConvTransposeOutputSize(H, kH, p.Stride[0], p.Dilation[0], p.Padding[0], p.Padding[1], p.OutputPadding[0])
	wOut := ConvTransposeOutputSize(W, kW, p.Stride[1], p.Dilation[1], p.Padding[2], p.Padding[3], p.OutputPadding[1])

	result := m.newFloat32(Shape{N, cOut, hOut, wOut})
	in, k, out := input.AsFloat32(), kernel.AsFloat32(), result.AsFloat32()
	for n := 0; n < N; n++ {
		for ic := 0; ic < cIn; ic++ {
			for ih := 0; ih < H; ih++ {
				for iw := 0; iw < W; iw++ {
					val := in[((n*cIn+ic)*H+ih)*W+iw]
					for oc := 0; oc < cOut; oc++ {
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
								kIdx := ((ic*cOut+oc)*kH+kh)*kW + kw
								out[((n*cOut+oc)*hOut+oh)*wOut+ow] += val * k[kIdx]
							}
						}
					}
				}
			}
		}
	}
	return result
}

// MaxPool2D takes the maximum over each window, ignoring padded cells.
func (m *MockBackend) MaxPool2D(input *RawTensor, p PoolParams) *RawTensor {
	return m.pool(input, p, true)
}

// MeanPool2D averages each window, counting padded cells as zeros.
func (m *MockBackend) MeanPool2D(input *RawTensor, p PoolParams) *RawTensor {
	return m.pool(input, p, false)
}

func (m *MockBackend) pool(input *RawTensor, p PoolParams, isMax bool) *RawTensor {
	p = p.Defaults()
	p.Validate()
	inShape := input.Shape()
	N, C, H, W := inShape[0], inShape[1], inShape[2], inShape[3]
	hOut := ConvOutputSize(H, p.Window[0], p.Stride[0], 1, p.Padding[0], p.Padding[1])
	wOut := ConvOutputSize(W, p.Window[1], p.Stride[1], 1, p.Padding[2], p.Padding[3])

	result := m.newFloat32(Shape{N, C, hOut, wOut})
	in, out := input.AsFloat32(), result.AsFloat32()
	windowSize := float32(p.Window[0] * p.Window[1])
	for n := 0; n < N; n++ {
		for c := 0; c < C; c++ {
			plane := in[(n*C+c)*H*W : (n*C+c+1)*H*W]
			for oh := 0; oh < hOut; oh++ {
				for ow := 0; ow < wOut; ow++ {
					var acc float32
					first := true
					for kh := 0; kh < p.Window[0]; kh++ {
						ih := oh*p.Stride[0] - p.Padding[0] + kh
						if ih < 0 || ih >= H {
							continue
						}
						for kw := 0; kw < p.Window[1]; kw++ {
							iw := ow*p.Stride[1] - p.Padding[2] + kw
							if iw < 0 || iw >= W {
								continue
							}
							v := plane[ih*W+iw]
							switch {
							case !isMax:
								acc += v
							case first || v > acc:
								acc = v
								first = false
							}
						}
					}
					if !isMax {
						acc /= windowSize
					}
					out[((n*C+c)*hOut+oh)*wOut+ow] = acc
				}
			}
		}
	}
	return result
}

// Reshape returns a view with a new shape.
func (m *MockBackend) Reshape(t *RawTensor, newShape Shape) *RawTensor {
	return t.WithShape(newShape)
}

// Cast converts between float16, float32 and float64.
func (m *MockBackend) Cast(x *RawTensor, dtype DataType) *RawTensor {
	result, err := NewRaw(x.Shape(), dtype, m.Device())
	if err != nil {
		panic(err)
	}
	read := func(i int) float64 {
		switch x.DType() {
		case Float16:
			return float64(float16.Frombits(x.AsFloat16Bits()[i]).Float32())
		case Float32:
			return float64(x.AsFloat32()[i])
		case Float64:
			return x.AsFloat64()[i]
		default:
			panic(fmt.Sprintf("mock: cast from %s not supported", x.DType()))
		}
	}
	for i := 0; i < x.NumElements(); i++ {
		v := read(i)
		switch dtype {
		case Float16:
			result.AsFloat16Bits()[i] = float16.Fromfloat32(float32(v)).Bits()
		case Float32:
			result.AsFloat32()[i] = float32(v)
		case Float64:
			result.AsFloat64()[i] = v
		default:
			panic(fmt.Sprintf("mock: cast to %s not supported", dtype))
		}
	}
	return result
}

func (m *MockBackend) newFloat32(shape Shape) *RawTensor {
	result, err := NewRaw(shape, Float32, m.Device())
	if err != nil {
		panic(err)
	}
	return result
}
