package cpu

import (
	"fmt"

	"github.com/x448/float16"

	"github.com/lamina-ml/lamina/internal/tensor"
)

// Cast converts a tensor to a different data type. Float16 values are stored
// as IEEE 754 half-precision bit patterns and converted through
// github.com/x448/float16.
func (cpu *CPUBackend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if x.DType() == dtype {
		return x.Clone()
	}
	output, err := tensor.NewRaw(x.Shape(), dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("cast: %v", err))
	}
	n := x.NumElements()
	for i := 0; i < n; i++ {
		writeAs(output, i, readAs(x, i))
	}
	return output
}

func readAs(x *tensor.RawTensor, i int) float64 {
	switch x.DType() {
	case tensor.Float16:
		return float64(float16.Frombits(x.AsFloat16Bits()[i]).Float32())
	case tensor.Float32:
		return float64(x.AsFloat32()[i])
	case tensor.Float64:
		return x.AsFloat64()[i]
	case tensor.Int32:
		return float64(x.AsInt32()[i])
	case tensor.Int64:
		return float64(x.AsInt64()[i])
	case tensor.Uint8:
		return float64(x.AsUint8()[i])
	default:
		panic(fmt.Sprintf("cast: cannot read dtype %s", x.DType()))
	}
}

func writeAs(x *tensor.RawTensor, i int, v float64) {
	switch x.DType() {
	case tensor.Float16:
		x.AsFloat16Bits()[i] = float16.Fromfloat32(float32(v)).Bits()
	case tensor.Float32:
		x.AsFloat32()[i] = float32(v)
	case tensor.Float64:
		x.AsFloat64()[i] = v
	case tensor.Int32:
		x.AsInt32()[i] = int32(v)
	case tensor.Int64:
		x.AsInt64()[i] = int64(v)
	case tensor.Uint8:
		x.AsUint8()[i] = uint8(v)
	default:
		panic(fmt.Sprintf("cast: cannot write dtype %s", x.DType()))
	}
}
