package tensor

// Backend is the contract compute backends implement. It is the delegation
// target for every piece of tensor arithmetic in this module; the layer types
// in internal/nn only decide shapes and parameters and hand the work off here.
//
// Implementations:
//   - backend/cpu: reference kernels in pure Go
//   - backend/webgpu: WGSL compute shaders via go-webgpu
//   - tensor.MockBackend: naive loops, used to cross-check other backends
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Scalar operations.
	AddScalar(x *RawTensor, scalar any) *RawTensor
	MulScalar(x *RawTensor, scalar any) *RawTensor

	// MatMul multiplies two 2D matrices: [M, K] @ [K, N] -> [M, N].
	MatMul(a, b *RawTensor) *RawTensor

	// Conv2D computes a 2D convolution (or cross-correlation, depending on
	// p.FlipKernel) of input [N, Cin, H, W] with kernel
	// [Cout, Cin/groups, Kh, Kw], producing [N, Cout, Hout, Wout].
	Conv2D(input, kernel *RawTensor, p ConvParams) *RawTensor

	// ConvTranspose2D computes a 2D transposed convolution of input
	// [N, Cin, H, W] with kernel [Cin, Cout, Kh, Kw].
	ConvTranspose2D(input, kernel *RawTensor, p ConvTransposeParams) *RawTensor

	// Pooling over [N, C, H, W] inputs. MaxPool2D ignores padded cells;
	// MeanPool2D counts them as zeros over the full window.
	MaxPool2D(input *RawTensor, p PoolParams) *RawTensor
	MeanPool2D(input *RawTensor, p PoolParams) *RawTensor

	// Shape and type operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Cast(x *RawTensor, dtype DataType) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
