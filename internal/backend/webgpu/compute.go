package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/lamina-ml/lamina/internal/tensor"
)

const (
	storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc
	resultUsage  = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst
	stagingUsage = wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst
)

// compileShader compiles WGSL into a ShaderModule, cached by name.
func (b *Backend) compileShader(name, code string) *wgpu.ShaderModule {
	b.mu.RLock()
	if shader, ok := b.shaders[name]; ok {
		b.mu.RUnlock()
		return shader
	}
	b.mu.RUnlock()

	shader := b.device.CreateShaderModuleWGSL(code)

	b.mu.Lock()
	b.shaders[name] = shader
	b.mu.Unlock()
	return shader
}

// getOrCreatePipeline returns a cached ComputePipeline or creates one with an
// auto layout.
func (b *Backend) getOrCreatePipeline(name string, shader *wgpu.ShaderModule) *wgpu.ComputePipeline {
	b.mu.RLock()
	if pipeline, ok := b.pipelines[name]; ok {
		b.mu.RUnlock()
		return pipeline
	}
	b.mu.RUnlock()

	pipeline := b.device.CreateComputePipelineSimple(nil, shader, "main")

	b.mu.Lock()
	b.pipelines[name] = pipeline
	b.mu.Unlock()
	return pipeline
}

// uploadBuffer creates a storage buffer pre-filled with data. Upload buffers
// are created mapped, so they bypass the buffer pool.
func (b *Backend) uploadBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            storageUsage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	b.trackAllocation(size)

	mapped := unsafe.Slice((*byte)(buffer.GetMappedRange(0, size)), size)
	copy(mapped, data)
	buffer.Unmap()
	return buffer
}

// createUniformBuffer creates a uniform buffer holding data, padded to the
// 16-byte alignment uniform bindings require.
func (b *Backend) createUniformBuffer(data []byte) *wgpu.Buffer {
	size := (uint64(len(data)) + 15) &^ 15
	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	b.trackAllocation(size)

	mapped := unsafe.Slice((*byte)(buffer.GetMappedRange(0, size)), size)
	copy(mapped, data)
	buffer.Unmap()
	return buffer
}

// readBuffer copies a GPU buffer back to CPU memory through a pooled staging
// buffer, since storage buffers cannot be mapped directly.
func (b *Backend) readBuffer(src *wgpu.Buffer, size uint64) ([]byte, error) {
	staging := b.pool.acquire(size, stagingUsage)
	defer b.pool.release(staging, size, stagingUsage)

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	b.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("failed to map staging buffer: %w", err)
	}
	defer staging.Unmap()

	mapped := unsafe.Slice((*byte)(staging.GetMappedRange(0, size)), size)
	result := make([]byte, size)
	copy(result, mapped)
	return result, nil
}

// bindBuffer is one storage entry of a dispatch bind group.
type bindBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
}

// dispatch binds the storage buffers plus a trailing uniform params buffer,
// runs one compute pass and submits it. Buffer bindings are assigned in
// order.
func (b *Backend) dispatch(name, code string, buffers []bindBuffer, params []byte, wgX, wgY uint32) {
	shader := b.compileShader(name, code)
	pipeline := b.getOrCreatePipeline(name, shader)

	paramsBuffer := b.createUniformBuffer(params)
	defer b.releaseBuffer(paramsBuffer, (uint64(len(params))+15)&^15)

	paramsSize := (uint64(len(params)) + 15) &^ 15
	entries := make([]wgpu.BindGroupEntry, 0, len(buffers)+1)
	for i, buf := range buffers {
		entries = append(entries, wgpu.BufferBindingEntry(uint32(i), buf.buffer, 0, buf.size))
	}
	entries = append(entries, wgpu.BufferBindingEntry(uint32(len(buffers)), paramsBuffer, 0, paramsSize))

	layout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(layout, entries)
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(wgX, wgY, 1)
	pass.End()
	b.queue.Submit(encoder.Finish(nil))
}

// releaseBuffer frees a non-pooled buffer and updates the memory stats.
func (b *Backend) releaseBuffer(buffer *wgpu.Buffer, size uint64) {
	buffer.Release()
	b.trackRelease(size)
}

// workgroups1D computes the number of workgroups covering n elements.
func workgroups1D(n int) uint32 {
	return uint32((n + workgroupSize - 1) / workgroupSize)
}

// runElementwise executes a shader with one or two float32 inputs and a
// same-sized or explicitly shaped output, then reads the result back.
func (b *Backend) runElementwise(name, code string, inputs []*tensor.RawTensor,
	outShape tensor.Shape, params []byte, wgX, wgY uint32,
) (*tensor.RawTensor, error) {
	for _, in := range inputs {
		if in.DType() != tensor.Float32 {
			return nil, fmt.Errorf("webgpu: only float32 is supported, got %s", in.DType())
		}
	}

	buffers := make([]bindBuffer, 0, len(inputs)+1)
	for _, in := range inputs {
		buf := b.uploadBuffer(in.Data())
		defer b.releaseBuffer(buf, uint64(in.ByteSize()))
		buffers = append(buffers, bindBuffer{buffer: buf, size: uint64(in.ByteSize())})
	}

	resultSize := uint64(outShape.NumElements() * tensor.Float32.Size())
	resultBuffer := b.pool.acquire(resultSize, resultUsage)
	defer b.pool.release(resultBuffer, resultSize, resultUsage)
	buffers = append(buffers, bindBuffer{buffer: resultBuffer, size: resultSize})

	b.dispatch(name, code, buffers, params, wgX, wgY)

	data, err := b.readBuffer(resultBuffer, resultSize)
	if err != nil {
		return nil, err
	}

	result, err := tensor.NewRaw(outShape, tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, err
	}
	copy(result.Data(), data)
	return result, nil
}

// runBinaryOp executes an element-wise binary operation on two same-shaped
// tensors.
func (b *Backend) runBinaryOp(x, y *tensor.RawTensor, name, code string) (*tensor.RawTensor, error) {
	if !x.Shape().Equal(y.Shape()) {
		return nil, fmt.Errorf("webgpu: shape mismatch: %v vs %v", x.Shape(), y.Shape())
	}

	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], uint32(x.NumElements()))
	return b.runElementwise(name, code, []*tensor.RawTensor{x, y},
		x.Shape().Clone(), params, workgroups1D(x.NumElements()), 1)
}

// runBiasAdd adds a per-channel bias [1, C, 1, 1] to an NCHW tensor.
func (b *Backend) runBiasAdd(x, bias *tensor.RawTensor) (*tensor.RawTensor, error) {
	shape := x.Shape()
	channels := shape[1]
	spatial := shape[2] * shape[3]

	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], uint32(x.NumElements()))
	binary.LittleEndian.PutUint32(params[4:8], uint32(channels))
	binary.LittleEndian.PutUint32(params[8:12], uint32(spatial))
	return b.runElementwise("bias_add", biasAddShader, []*tensor.RawTensor{x, bias},
		shape.Clone(), params, workgroups1D(x.NumElements()), 1)
}

// runScalarOp executes an element-wise op against a scalar carried in the
// uniform buffer.
func (b *Backend) runScalarOp(x *tensor.RawTensor, value float32, name, code string) (*tensor.RawTensor, error) {
	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], uint32(x.NumElements()))
	binary.LittleEndian.PutUint32(params[4:8], math.Float32bits(value))
	return b.runElementwise(name, code, []*tensor.RawTensor{x},
		x.Shape().Clone(), params, workgroups1D(x.NumElements()), 1)
}

// runMatMul executes C = A @ B with A [M, K] and B [K, N].
func (b *Backend) runMatMul(x, y *tensor.RawTensor) (*tensor.RawTensor, error) {
	if len(x.Shape()) != 2 || len(y.Shape()) != 2 {
		return nil, fmt.Errorf("webgpu: matmul requires 2D tensors, got %v and %v", x.Shape(), y.Shape())
	}
	m, k, n := x.Shape()[0], x.Shape()[1], y.Shape()[1]
	if y.Shape()[0] != k {
		return nil, fmt.Errorf("webgpu: matmul shape mismatch: %v @ %v", x.Shape(), y.Shape())
	}

	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], uint32(m))
	binary.LittleEndian.PutUint32(params[4:8], uint32(k))
	binary.LittleEndian.PutUint32(params[8:12], uint32(n))

	// 16x16 tiles: x covers columns, y covers rows.
	wgX := uint32((n + 15) / 16)
	wgY := uint32((m + 15) / 16)
	return b.runElementwise("matmul", matmulShader, []*tensor.RawTensor{x, y},
		tensor.Shape{m, n}, params, wgX, wgY)
}

// runConv2D executes a grouped convolution or cross-correlation.
func (b *Backend) runConv2D(input, kernel *tensor.RawTensor, p tensor.ConvParams) (*tensor.RawTensor, error) {
	p = p.Defaults()
	p.Validate()

	in, kn := input.Shape(), kernel.Shape()
	if len(in) != 4 || len(kn) != 4 {
		return nil, fmt.Errorf("webgpu: conv2d requires 4D tensors, got %v and %v", in, kn)
	}
	if in[1] != kn[1]*p.Groups {
		return nil, fmt.Errorf("webgpu: conv2d channel mismatch: input %d, kernel %d x %d groups", in[1], kn[1], p.Groups)
	}
	if kn[0]%p.Groups != 0 {
		return nil, fmt.Errorf("webgpu: conv2d output channels %d not divisible by %d groups", kn[0], p.Groups)
	}

	outH := tensor.ConvOutputSize(in[2], kn[2], p.Stride[0], p.Dilation[0], p.Padding[0], p.Padding[1])
	outW := tensor.ConvOutputSize(in[3], kn[3], p.Stride[1], p.Dilation[1], p.Padding[2], p.Padding[3])
	outShape := tensor.Shape{in[0], kn[0], outH, outW}

	flip := uint32(0)
	if p.FlipKernel {
		flip = 1
	}
	fields := []uint32{
		uint32(in[0]), uint32(in[1]), uint32(in[2]), uint32(in[3]),
		uint32(kn[0]), uint32(kn[2]), uint32(kn[3]),
		uint32(outH), uint32(outW),
		uint32(p.Stride[0]), uint32(p.Stride[1]),
		uint32(p.Dilation[0]), uint32(p.Dilation[1]),
		uint32(p.Padding[0]), uint32(p.Padding[2]),
		uint32(p.Groups), flip,
	}
	return b.runElementwise("conv2d", conv2dShader, []*tensor.RawTensor{input, kernel},
		outShape, packUint32(fields), workgroups1D(outShape.NumElements()), 1)
}

// runConvTranspose2D executes a transposed convolution in gather form.
func (b *Backend) runConvTranspose2D(input, kernel *tensor.RawTensor, p tensor.ConvTransposeParams) (*tensor.RawTensor, error) {
	p = p.Defaults()
	p.Validate()

	in, kn := input.Shape(), kernel.Shape()
	if len(in) != 4 || len(kn) != 4 {
		return nil, fmt.Errorf("webgpu: conv_transpose2d requires 4D tensors, got %v and %v", in, kn)
	}
	if in[1] != kn[0] {
		return nil, fmt.Errorf("webgpu: conv_transpose2d channel mismatch: input %d, kernel %d", in[1], kn[0])
	}

	outH := tensor.ConvTransposeOutputSize(in[2], kn[2], p.Stride[0], p.Dilation[0], p.Padding[0], p.Padding[1], p.OutputPadding[0])
	outW := tensor.ConvTransposeOutputSize(in[3], kn[3], p.Stride[1], p.Dilation[1], p.Padding[2], p.Padding[3], p.OutputPadding[1])
	outShape := tensor.Shape{in[0], kn[1], outH, outW}

	fields := []uint32{
		uint32(in[0]), uint32(in[1]), uint32(in[2]), uint32(in[3]),
		uint32(kn[1]), uint32(kn[2]), uint32(kn[3]),
		uint32(outH), uint32(outW),
		uint32(p.Stride[0]), uint32(p.Stride[1]),
		uint32(p.Dilation[0]), uint32(p.Dilation[1]),
		uint32(p.Padding[0]), uint32(p.Padding[2]),
	}
	return b.runElementwise("conv_transpose2d", convTranspose2dShader, []*tensor.RawTensor{input, kernel},
		outShape, packUint32(fields), workgroups1D(outShape.NumElements()), 1)
}

// runPool2D executes max or mean pooling.
func (b *Backend) runPool2D(input *tensor.RawTensor, p tensor.PoolParams, name, code string) (*tensor.RawTensor, error) {
	p = p.Defaults()
	p.Validate()

	in := input.Shape()
	if len(in) != 4 {
		return nil, fmt.Errorf("webgpu: %s requires a 4D tensor, got %v", name, in)
	}

	outH := tensor.ConvOutputSize(in[2], p.Window[0], p.Stride[0], 1, p.Padding[0], p.Padding[1])
	outW := tensor.ConvOutputSize(in[3], p.Window[1], p.Stride[1], 1, p.Padding[2], p.Padding[3])
	outShape := tensor.Shape{in[0], in[1], outH, outW}

	fields := []uint32{
		uint32(in[0]), uint32(in[1]), uint32(in[2]), uint32(in[3]),
		uint32(outH), uint32(outW),
		uint32(p.Window[0]), uint32(p.Window[1]),
		uint32(p.Stride[0]), uint32(p.Stride[1]),
		uint32(p.Padding[0]), uint32(p.Padding[2]),
	}
	return b.runElementwise(name, code, []*tensor.RawTensor{input},
		outShape, packUint32(fields), workgroups1D(outShape.NumElements()), 1)
}

// packUint32 serializes uniform fields in little-endian order, padded to 16
// bytes.
func packUint32(fields []uint32) []byte {
	size := (len(fields)*4 + 15) &^ 15
	out := make([]byte, size)
	for i, f := range fields {
		binary.LittleEndian.PutUint32(out[i*4:], f)
	}
	return out
}
