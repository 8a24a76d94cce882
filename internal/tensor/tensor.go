package tensor

import (
	"fmt"
	"unsafe"
)

// Tensor is the typed, backend-aware tensor. T is the element type, B the
// compute backend. Operations delegate to the backend and wrap the resulting
// RawTensor.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)
type Tensor[T DType, B Backend] struct {
	raw     *RawTensor
	backend B
}

// New wraps a RawTensor in a typed Tensor.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	var dummy T
	if dtype := inferDataType(dummy); raw.DType() != dtype {
		panic(fmt.Sprintf("cannot wrap %s tensor as %s", raw.DType(), dtype))
	}
	return &Tensor[T, B]{raw: raw, backend: b}
}

// FromSlice creates a tensor from a flat slice of data in row-major order.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, shape.NumElements())
	}
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		return nil, err
	}
	t := &Tensor[T, B]{raw: raw, backend: b}
	copy(t.Data(), data)
	return t, nil
}

// Shape returns the tensor's shape.
func (t *Tensor[T, B]) Shape() Shape {
	return t.raw.Shape()
}

// DType returns the tensor's data type.
func (t *Tensor[T, B]) DType() DataType {
	return t.raw.DType()
}

// Device returns the tensor's compute device.
func (t *Tensor[T, B]) Device() Device {
	return t.raw.Device()
}

// NumElements returns the total number of elements.
func (t *Tensor[T, B]) NumElements() int {
	return t.raw.NumElements()
}

// Raw returns the underlying RawTensor.
func (t *Tensor[T, B]) Raw() *RawTensor {
	return t.raw
}

// Backend returns the tensor's backend.
func (t *Tensor[T, B]) Backend() B {
	return t.backend
}

// Data returns the tensor's elements as a typed slice sharing the underlying
// memory.
func (t *Tensor[T, B]) Data() []T {
	data := t.raw.Data()
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), t.raw.NumElements())
}

// At returns the element at the given indices.
func (t *Tensor[T, B]) At(indices ...int) T {
	return t.Data()[t.flatIndex(indices)]
}

// Set stores value at the given indices.
func (t *Tensor[T, B]) Set(value T, indices ...int) {
	t.Data()[t.flatIndex(indices)] = value
}

func (t *Tensor[T, B]) flatIndex(indices []int) int {
	shape := t.raw.Shape()
	if len(indices) != len(shape) {
		panic(fmt.Sprintf("expected %d indices for shape %v, got %d", len(shape), shape, len(indices)))
	}
	flat := 0
	for i, idx := range indices {
		if idx < 0 || idx >= shape[i] {
			panic(fmt.Sprintf("index %d out of range for dimension %d of shape %v", idx, i, shape))
		}
		flat += idx * t.raw.Strides()[i]
	}
	return flat
}

// Item returns the single element of a one-element tensor.
func (t *Tensor[T, B]) Item() T {
	if t.NumElements() != 1 {
		panic(fmt.Sprintf("Item requires a one-element tensor, shape is %v", t.Shape()))
	}
	return t.Data()[0]
}

// Clone returns a deep copy of the tensor.
func (t *Tensor[T, B]) Clone() *Tensor[T, B] {
	return &Tensor[T, B]{raw: t.raw.Clone(), backend: t.backend}
}

// Reshape returns a view of the tensor with a new shape. The number of
// elements must match.
func (t *Tensor[T, B]) Reshape(dims ...int) *Tensor[T, B] {
	raw := t.backend.Reshape(t.raw, Shape(dims))
	return &Tensor[T, B]{raw: raw, backend: t.backend}
}

// Add returns t + other, broadcasting if needed.
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	raw := t.backend.Add(t.raw, other.raw)
	return &Tensor[T, B]{raw: raw, backend: t.backend}
}

// Mul returns the element-wise product t * other, broadcasting if needed.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	raw := t.backend.Mul(t.raw, other.raw)
	return &Tensor[T, B]{raw: raw, backend: t.backend}
}

// String returns a short description of the tensor.
func (t *Tensor[T, B]) String() string {
	return fmt.Sprintf("Tensor[%s](shape=%v, device=%s)", t.DType(), t.Shape(), t.Device())
}
