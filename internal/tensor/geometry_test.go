package tensor

import "testing"

func TestConvOutputSize(t *testing.T) {
	tests := []struct {
		name                                 string
		in, kernel, stride, dilation, lo, hi int
		want                                 int
	}{
		{"basic 3x3 on 28", 28, 3, 1, 1, 0, 0, 26},
		{"5x5 on 28", 28, 5, 1, 1, 0, 0, 24},
		{"stride 2", 28, 3, 2, 1, 0, 0, 13},
		{"padding 1 keeps size", 28, 3, 1, 1, 1, 1, 28},
		{"asymmetric padding", 28, 2, 1, 1, 0, 1, 28},
		{"dilation 2", 28, 3, 1, 2, 0, 0, 24},
		{"dilation 2 padded", 28, 3, 1, 2, 2, 2, 28},
		{"kernel equals input", 7, 7, 1, 1, 0, 0, 1},
		{"stride larger than kernel", 10, 2, 3, 1, 0, 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvOutputSize(tt.in, tt.kernel, tt.stride, tt.dilation, tt.lo, tt.hi)
			if got != tt.want {
				t.Errorf("ConvOutputSize(%d, k=%d, s=%d, d=%d, pad=%d/%d) = %d, want %d",
					tt.in, tt.kernel, tt.stride, tt.dilation, tt.lo, tt.hi, got, tt.want)
			}
		})
	}
}

func TestConvOutputSize_EmptyOutputPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for kernel larger than padded input")
		}
	}()
	ConvOutputSize(2, 5, 1, 1, 0, 0)
}

func TestConvTransposeOutputSize(t *testing.T) {
	tests := []struct {
		name                                      string
		in, kernel, stride, dilation, lo, hi, out int
		want                                      int
	}{
		{"basic", 4, 3, 1, 1, 0, 0, 0, 6},
		{"stride 2 doubles", 4, 2, 2, 1, 0, 0, 0, 8},
		{"stride 2 with output padding", 4, 3, 2, 1, 1, 1, 1, 8},
		{"padding shrinks", 4, 3, 1, 1, 1, 1, 0, 4},
		{"dilation 2", 4, 3, 1, 2, 0, 0, 0, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvTransposeOutputSize(tt.in, tt.kernel, tt.stride, tt.dilation, tt.lo, tt.hi, tt.out)
			if got != tt.want {
				t.Errorf("ConvTransposeOutputSize(%d, k=%d, s=%d, d=%d, pad=%d/%d, out=%d) = %d, want %d",
					tt.in, tt.kernel, tt.stride, tt.dilation, tt.lo, tt.hi, tt.out, got, tt.want)
			}
		})
	}
}

// Transposed convolution inverts the shape arithmetic of the forward
// convolution for every geometry where stride divides evenly.
func TestConvTransposeOutputSize_InvertsConv(t *testing.T) {
	for _, in := range []int{7, 8, 16, 28} {
		for _, kernel := range []int{1, 2, 3, 5} {
			for _, stride := range []int{1, 2, 3} {
				fwd := ConvOutputSize(in, kernel, stride, 1, 0, 0)
				// The information lost to integer division comes back as
				// output padding.
				remainder := in - ((fwd-1)*stride + kernel)
				if remainder >= stride {
					continue
				}
				back := ConvTransposeOutputSize(fwd, kernel, stride, 1, 0, 0, remainder)
				if back != in {
					t.Errorf("in=%d k=%d s=%d: conv gives %d, transpose gives back %d",
						in, kernel, stride, fwd, back)
				}
			}
		}
	}
}

func TestSamePadding(t *testing.T) {
	tests := []struct {
		kernel, dilation, lo, hi int
	}{
		{1, 1, 0, 0},
		{3, 1, 1, 1},
		{5, 1, 2, 2},
		{2, 1, 0, 1}, // even kernel: extra cell on the high side
		{4, 1, 1, 2},
		{3, 2, 2, 2},
		{3, 3, 3, 3},
		{2, 2, 1, 1},
	}
	for _, tt := range tests {
		lo, hi := SamePadding(tt.kernel, tt.dilation)
		if lo != tt.lo || hi != tt.hi {
			t.Errorf("SamePadding(%d, %d) = (%d, %d), want (%d, %d)",
				tt.kernel, tt.dilation, lo, hi, tt.lo, tt.hi)
		}
		// The defining property: stride-1 convolution preserves size.
		for _, in := range []int{7, 8, 28} {
			if got := ConvOutputSize(in, tt.kernel, 1, tt.dilation, lo, hi); got != in {
				t.Errorf("SamePadding(%d, %d) does not preserve size %d, got %d",
					tt.kernel, tt.dilation, in, got)
			}
		}
	}
}

func TestConvParamsDefaults(t *testing.T) {
	p := ConvParams{}.Defaults()
	if p.Stride != [2]int{1, 1} || p.Dilation != [2]int{1, 1} || p.Groups != 1 {
		t.Errorf("unexpected defaults: %+v", p)
	}

	p = ConvParams{Stride: [2]int{2, 3}, Groups: 4}.Defaults()
	if p.Stride != [2]int{2, 3} || p.Groups != 4 {
		t.Errorf("Defaults clobbered explicit values: %+v", p)
	}
}

func TestConvParamsValidate(t *testing.T) {
	bad := []ConvParams{
		{Stride: [2]int{0, 1}, Dilation: [2]int{1, 1}, Groups: 1},
		{Stride: [2]int{1, 1}, Dilation: [2]int{1, -1}, Groups: 1},
		{Stride: [2]int{1, 1}, Dilation: [2]int{1, 1}, Groups: 1, Padding: [4]int{-1, 0, 0, 0}},
		{Stride: [2]int{1, 1}, Dilation: [2]int{1, 1}, Groups: -2},
	}
	for i, p := range bad {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("case %d: expected panic for %+v", i, p)
				}
			}()
			p.Validate()
		}()
	}
}

func TestConvTransposeParamsValidate_OutputPaddingBounds(t *testing.T) {
	p := ConvTransposeParams{Stride: [2]int{2, 2}, OutputPadding: [2]int{2, 0}}.Defaults()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for output padding >= stride")
		}
	}()
	p.Validate()
}

func TestPoolParamsDefaults(t *testing.T) {
	p := PoolParams{Window: [2]int{2, 3}}.Defaults()
	if p.Stride != [2]int{2, 3} {
		t.Errorf("pool stride should default to window, got %v", p.Stride)
	}
	p = PoolParams{Window: [2]int{2, 2}, Stride: [2]int{1, 1}}.Defaults()
	if p.Stride != [2]int{1, 1} {
		t.Errorf("explicit pool stride clobbered: %v", p.Stride)
	}
}

func TestPoolParamsValidate_PaddingBound(t *testing.T) {
	p := PoolParams{Window: [2]int{2, 2}, Padding: [4]int{2, 0, 0, 0}}.Defaults()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for padding larger than half the window")
		}
	}()
	p.Validate()
}
