package cpu

import (
	"math"
	"testing"

	"github.com/lamina-ml/lamina/internal/tensor"
)

func rawFromFloat32(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

// TestConv2D_BasicForward checks a single 2x2 cross-correlation over a 3x3
// input against hand-computed values.
func TestConv2D_BasicForward(t *testing.T) {
	backend := New()

	// 1 2 3
	// 4 5 6
	// 7 8 9
	input := rawFromFloat32(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, tensor.Shape{1, 1, 3, 3})
	// 1 0
	// 0 1
	kernel := rawFromFloat32(t, []float32{1, 0, 0, 1}, tensor.Shape{1, 1, 2, 2})

	output := backend.Conv2D(input, kernel, tensor.ConvParams{})

	expectedShape := tensor.Shape{1, 1, 2, 2}
	if !output.Shape().Equal(expectedShape) {
		t.Fatalf("expected shape %v, got %v", expectedShape, output.Shape())
	}

	// Diagonal sums: 1+5, 2+6, 4+8, 5+9.
	expected := []float32{6, 8, 12, 14}
	for i, want := range expected {
		if got := output.AsFloat32()[i]; got != want {
			t.Errorf("output[%d]: expected %.1f, got %.1f", i, want, got)
		}
	}
}

// TestConv2D_FlipKernel checks that FlipKernel turns the cross-correlation
// into a true convolution (kernel spatially reversed).
func TestConv2D_FlipKernel(t *testing.T) {
	backend := New()

	input := rawFromFloat32(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, tensor.Shape{1, 1, 3, 3})
	// 1 2
	// 3 4
	kernel := rawFromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})

	crossCor := backend.Conv2D(input, kernel, tensor.ConvParams{})
	// Window [1,2;4,5]: 1*1 + 2*2 + 4*3 + 5*4 = 37.
	if got := crossCor.AsFloat32()[0]; got != 37 {
		t.Errorf("cross-correlation[0] = %.1f, want 37", got)
	}

	conv := backend.Conv2D(input, kernel, tensor.ConvParams{FlipKernel: true})
	// Same window against the reversed kernel [4,3;2,1]: 4 + 6 + 8 + 5 = 23.
	if got := conv.AsFloat32()[0]; got != 23 {
		t.Errorf("convolution[0] = %.1f, want 23", got)
	}
}

func TestConv2D_WithPadding(t *testing.T) {
	backend := New()

	input := rawFromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	kernel := rawFromFloat32(t, []float32{1, 1, 1, 1, 1, 1, 1, 1, 1}, tensor.Shape{1, 1, 3, 3})

	output := backend.Conv2D(input, kernel, tensor.ConvParams{Padding: [4]int{1, 1, 1, 1}})

	if !output.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("expected shape [1 1 2 2], got %v", output.Shape())
	}
	// Every 3x3 window covers the whole 2x2 input.
	for i, got := range output.AsFloat32() {
		if got != 10 {
			t.Errorf("output[%d] = %.1f, want 10", i, got)
		}
	}
}

func TestConv2D_WithStride(t *testing.T) {
	backend := New()

	data := make([]float32, 16)
	for i := range data {
		data[i] = float32(i + 1)
	}
	input := rawFromFloat32(t, data, tensor.Shape{1, 1, 4, 4})
	kernel := rawFromFloat32(t, []float32{1, 0, 0, 0}, tensor.Shape{1, 1, 2, 2})

	output := backend.Conv2D(input, kernel, tensor.ConvParams{Stride: [2]int{2, 2}})

	if !output.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("expected shape [1 1 2 2], got %v", output.Shape())
	}
	// Top-left corner of each stride-2 window: 1, 3, 9, 11.
	expected := []float32{1, 3, 9, 11}
	for i, want := range expected {
		if got := output.AsFloat32()[i]; got != want {
			t.Errorf("output[%d] = %.1f, want %.1f", i, got, want)
		}
	}
}

func TestConv2D_WithDilation(t *testing.T) {
	backend := New()

	data := make([]float32, 25)
	for i := range data {
		data[i] = float32(i + 1)
	}
	input := rawFromFloat32(t, data, tensor.Shape{1, 1, 5, 5})
	kernel := rawFromFloat32(t, []float32{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2})

	output := backend.Conv2D(input, kernel, tensor.ConvParams{Dilation: [2]int{2, 2}})

	// Effective kernel extent 3: output is 3x3.
	if !output.Shape().Equal(tensor.Shape{1, 1, 3, 3}) {
		t.Fatalf("expected shape [1 1 3 3], got %v", output.Shape())
	}
	// out(0,0) gathers positions (0,0), (0,2), (2,0), (2,2): 1+3+11+13.
	if got := output.AsFloat32()[0]; got != 28 {
		t.Errorf("output[0] = %.1f, want 28", got)
	}
	// out(2,2) gathers (2,2), (2,4), (4,2), (4,4): 13+15+23+25.
	if got := output.AsFloat32()[8]; got != 76 {
		t.Errorf("output[8] = %.1f, want 76", got)
	}
}

func TestConv2D_Grouped(t *testing.T) {
	backend := New()

	// Two channels, groups=2: each output channel sees only its own input
	// channel.
	input := rawFromFloat32(t, []float32{
		1, 2, 3, 4, // channel 0
		10, 20, 30, 40, // channel 1
	}, tensor.Shape{1, 2, 2, 2})
	kernel := rawFromFloat32(t, []float32{2, 3}, tensor.Shape{2, 1, 1, 1})

	output := backend.Conv2D(input, kernel, tensor.ConvParams{Groups: 2})

	if !output.Shape().Equal(tensor.Shape{1, 2, 2, 2}) {
		t.Fatalf("expected shape [1 2 2 2], got %v", output.Shape())
	}
	expected := []float32{2, 4, 6, 8, 30, 60, 90, 120}
	for i, want := range expected {
		if got := output.AsFloat32()[i]; got != want {
			t.Errorf("output[%d] = %.1f, want %.1f", i, got, want)
		}
	}
}

func TestConv2D_MultiChannelBatch(t *testing.T) {
	backend := New()

	// Two batches, two input channels, summing 1x1 kernel: output is the
	// channel sum.
	input := rawFromFloat32(t, []float32{
		1, 2, 3, 4, // n=0 c=0
		5, 6, 7, 8, // n=0 c=1
		-1, -2, -3, -4, // n=1 c=0
		1, 2, 3, 4, // n=1 c=1
	}, tensor.Shape{2, 2, 2, 2})
	kernel := rawFromFloat32(t, []float32{1, 1}, tensor.Shape{1, 2, 1, 1})

	output := backend.Conv2D(input, kernel, tensor.ConvParams{})

	if !output.Shape().Equal(tensor.Shape{2, 1, 2, 2}) {
		t.Fatalf("expected shape [2 1 2 2], got %v", output.Shape())
	}
	expected := []float32{6, 8, 10, 12, 0, 0, 0, 0}
	for i, want := range expected {
		if got := output.AsFloat32()[i]; got != want {
			t.Errorf("output[%d] = %.1f, want %.1f", i, got, want)
		}
	}
}

// TestConv2D_MatchesMockBackend cross-checks the im2col implementation
// against the mock backend's direct gather loops over a grid of geometries.
func TestConv2D_MatchesMockBackend(t *testing.T) {
	backend := New()
	mock := tensor.NewMockBackend()

	cases := []tensor.ConvParams{
		{},
		{Stride: [2]int{2, 2}},
		{Padding: [4]int{1, 1, 2, 2}},
		{Dilation: [2]int{2, 2}, Padding: [4]int{2, 2, 2, 2}},
		{Stride: [2]int{2, 1}, Padding: [4]int{0, 1, 1, 0}},
		{Groups: 2},
		{FlipKernel: true, Padding: [4]int{1, 1, 1, 1}},
	}

	input := tensor.Rand[float32](tensor.Shape{2, 4, 9, 8}, backend)
	for i, p := range cases {
		kernelShape := tensor.Shape{6, 4, 3, 3}
		if p.Groups == 2 {
			kernelShape = tensor.Shape{6, 2, 3, 3}
		}
		kernel := tensor.Rand[float32](kernelShape, backend)

		got := backend.Conv2D(input.Raw(), kernel.Raw(), p)
		want := mock.Conv2D(input.Raw(), kernel.Raw(), p)

		if !got.Shape().Equal(want.Shape()) {
			t.Fatalf("case %d: shape %v vs mock %v", i, got.Shape(), want.Shape())
		}
		gotData, wantData := got.AsFloat32(), want.AsFloat32()
		for j := range gotData {
			if diff := math.Abs(float64(gotData[j] - wantData[j])); diff > 1e-4 {
				t.Fatalf("case %d: output[%d] = %v, mock %v", i, j, gotData[j], wantData[j])
			}
		}
	}
}

func TestConv2D_ChannelMismatchPanics(t *testing.T) {
	backend := New()
	input := rawFromFloat32(t, make([]float32, 2*3*3), tensor.Shape{1, 2, 3, 3})
	kernel := rawFromFloat32(t, make([]float32, 3*2*2), tensor.Shape{1, 3, 2, 2})

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for channel mismatch")
		}
	}()
	backend.Conv2D(input, kernel, tensor.ConvParams{})
}
