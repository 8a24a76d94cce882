package cpu

import (
	"math"
	"testing"

	"github.com/lamina-ml/lamina/internal/tensor"
)

func TestConvTranspose2D_BasicForward(t *testing.T) {
	backend := New()

	// 1 2
	// 3 4
	input := rawFromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	kernel := rawFromFloat32(t, []float32{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2})

	output := backend.ConvTranspose2D(input, kernel, tensor.ConvTransposeParams{})

	if !output.Shape().Equal(tensor.Shape{1, 1, 3, 3}) {
		t.Fatalf("expected shape [1 1 3 3], got %v", output.Shape())
	}
	// Overlapping scatter of each input cell through the 2x2 ones kernel.
	expected := []float32{
		1, 3, 2,
		4, 10, 6,
		3, 7, 4,
	}
	for i, want := range expected {
		if got := output.AsFloat32()[i]; got != want {
			t.Errorf("output[%d] = %.1f, want %.1f", i, got, want)
		}
	}
}

func TestConvTranspose2D_Stride2Upsamples(t *testing.T) {
	backend := New()

	input := rawFromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	kernel := rawFromFloat32(t, []float32{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2})

	output := backend.ConvTranspose2D(input, kernel, tensor.ConvTransposeParams{Stride: [2]int{2, 2}})

	if !output.Shape().Equal(tensor.Shape{1, 1, 4, 4}) {
		t.Fatalf("expected shape [1 1 4 4], got %v", output.Shape())
	}
	// Non-overlapping windows: each input value fills a 2x2 block.
	expected := []float32{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 4, 4,
		3, 3, 4, 4,
	}
	for i, want := range expected {
		if got := output.AsFloat32()[i]; got != want {
			t.Errorf("output[%d] = %.1f, want %.1f", i, got, want)
		}
	}
}

func TestConvTranspose2D_OutputPadding(t *testing.T) {
	backend := New()

	input := rawFromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	kernel := rawFromFloat32(t, []float32{1}, tensor.Shape{1, 1, 1, 1})

	output := backend.ConvTranspose2D(input, kernel, tensor.ConvTransposeParams{
		Stride:        [2]int{2, 2},
		OutputPadding: [2]int{1, 1},
	})

	// (2-1)*2 + 1 + 1 = 4 per axis; the extra row/column stays zero.
	if !output.Shape().Equal(tensor.Shape{1, 1, 4, 4}) {
		t.Fatalf("expected shape [1 1 4 4], got %v", output.Shape())
	}
	data := output.AsFloat32()
	if data[0] != 1 || data[2] != 2 || data[8] != 3 || data[10] != 4 {
		t.Errorf("unexpected scatter positions: %v", data)
	}
	for _, idx := range []int{3, 7, 12, 13, 14, 15} {
		if data[idx] != 0 {
			t.Errorf("output[%d] = %.1f, want 0 (output padding)", idx, data[idx])
		}
	}
}

func TestConvTranspose2D_MatchesMockBackend(t *testing.T) {
	backend := New()
	mock := tensor.NewMockBackend()

	cases := []tensor.ConvTransposeParams{
		{},
		{Stride: [2]int{2, 2}},
		{Stride: [2]int{2, 2}, Padding: [4]int{1, 1, 1, 1}, OutputPadding: [2]int{1, 0}},
		{Dilation: [2]int{2, 2}},
	}

	input := tensor.Rand[float32](tensor.Shape{2, 3, 5, 6}, backend)
	kernel := tensor.Rand[float32](tensor.Shape{3, 4, 3, 3}, backend)

	for i, p := range cases {
		got := backend.ConvTranspose2D(input.Raw(), kernel.Raw(), p)
		want := mock.ConvTranspose2D(input.Raw(), kernel.Raw(), p)

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
