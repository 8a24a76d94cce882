// Copyright 2026 The Lamina Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the public layer API of Lamina: convolution,
// cross-correlation, transposed convolution and pooling layers over NCHW
// tensors. Layers hold configuration and weights and delegate all arithmetic
// to a tensor.Backend.
//
// Example:
//
//	backend := cpu.New()
//	conv := nn.NewConv2D(nn.Conv2DConfig{
//		InChannels:  1,
//		OutChannels: 6,
//		KernelSize:  [2]int{5, 5},
//	}, backend)
//	output := conv.Forward(input) // [32, 1, 28, 28] -> [32, 6, 24, 24]
package nn

import (
	"github.com/lamina-ml/lamina/internal/nn"
	"github.com/lamina-ml/lamina/internal/tensor"
)

// Convolution layers

// Conv2DConfig configures Conv2D and CrossCor2D layers.
type Conv2DConfig = nn.Conv2DConfig

// Conv2D is a 2D convolution layer: the kernel is applied spatially reversed.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a 2D convolution layer with Xavier-initialized weights.
func NewConv2D[B tensor.Backend](cfg Conv2DConfig, backend B) *Conv2D[B] {
	return nn.NewConv2D(cfg, backend)
}

// CrossCor2D is a 2D cross-correlation layer: the kernel slides without
// being reversed, the convention most deep-learning frameworks call
// "convolution".
type CrossCor2D[B tensor.Backend] = nn.CrossCor2D[B]

// NewCrossCor2D creates a 2D cross-correlation layer.
func NewCrossCor2D[B tensor.Backend](cfg Conv2DConfig, backend B) *CrossCor2D[B] {
	return nn.NewCrossCor2D(cfg, backend)
}

// ConvTranspose2DConfig configures a ConvTranspose2D layer.
type ConvTranspose2DConfig = nn.ConvTranspose2DConfig

// ConvTranspose2D is a 2D transposed convolution layer, commonly used for
// learned upsampling.
type ConvTranspose2D[B tensor.Backend] = nn.ConvTranspose2D[B]

// NewConvTranspose2D creates a 2D transposed convolution layer.
func NewConvTranspose2D[B tensor.Backend](cfg ConvTranspose2DConfig, backend B) *ConvTranspose2D[B] {
	return nn.NewConvTranspose2D(cfg, backend)
}

// DepthwiseConv2DConfig configures a DepthwiseConv2D layer.
type DepthwiseConv2DConfig = nn.DepthwiseConv2DConfig

// DepthwiseConv2D filters every input channel independently.
type DepthwiseConv2D[B tensor.Backend] = nn.DepthwiseConv2D[B]

// NewDepthwiseConv2D creates a depthwise 2D convolution layer.
func NewDepthwiseConv2D[B tensor.Backend](cfg DepthwiseConv2DConfig, backend B) *DepthwiseConv2D[B] {
	return nn.NewDepthwiseConv2D(cfg, backend)
}

// Conv1DConfig configures a Conv1D layer.
type Conv1DConfig = nn.Conv1DConfig

// Conv1D is a 1D convolution over [batch, channels, length] inputs.
type Conv1D[B tensor.Backend] = nn.Conv1D[B]

// NewConv1D creates a 1D convolution layer.
func NewConv1D[B tensor.Backend](cfg Conv1DConfig, backend B) *Conv1D[B] {
	return nn.NewConv1D(cfg, backend)
}

// Pooling layers

// Pool2DConfig configures 2D pooling layers.
type Pool2DConfig = nn.Pool2DConfig

// MaxPool2D takes the maximum over each pooling window.
type MaxPool2D[B tensor.Backend] = nn.MaxPool2D[B]

// NewMaxPool2D creates a 2D max pooling layer.
func NewMaxPool2D[B tensor.Backend](cfg Pool2DConfig, backend B) *MaxPool2D[B] {
	return nn.NewMaxPool2D(cfg, backend)
}

// MeanPool2D averages each pooling window over the full window size.
type MeanPool2D[B tensor.Backend] = nn.MeanPool2D[B]

// NewMeanPool2D creates a 2D mean pooling layer.
func NewMeanPool2D[B tensor.Backend](cfg Pool2DConfig, backend B) *MeanPool2D[B] {
	return nn.NewMeanPool2D(cfg, backend)
}

// Pool1DConfig configures 1D pooling layers.
type Pool1DConfig = nn.Pool1DConfig

// MaxPool1D takes the maximum over each 1D pooling window.
type MaxPool1D[B tensor.Backend] = nn.MaxPool1D[B]

// NewMaxPool1D creates a 1D max pooling layer.
func NewMaxPool1D[B tensor.Backend](cfg Pool1DConfig, backend B) *MaxPool1D[B] {
	return nn.NewMaxPool1D(cfg, backend)
}

// MeanPool1D averages each 1D pooling window.
type MeanPool1D[B tensor.Backend] = nn.MeanPool1D[B]

// NewMeanPool1D creates a 1D mean pooling layer.
func NewMeanPool1D[B tensor.Backend](cfg Pool1DConfig, backend B) *MeanPool1D[B] {
	return nn.NewMeanPool1D(cfg, backend)
}

// GlobalMaxPool2D reduces the whole spatial extent to [batch, channels, 1, 1]
// by maximum.
type GlobalMaxPool2D[B tensor.Backend] = nn.GlobalMaxPool2D[B]

// NewGlobalMaxPool2D creates a global max pooling layer.
func NewGlobalMaxPool2D[B tensor.Backend](backend B) *GlobalMaxPool2D[B] {
	return nn.NewGlobalMaxPool2D(backend)
}

// GlobalMeanPool2D reduces the whole spatial extent to [batch, channels, 1, 1]
// by mean.
type GlobalMeanPool2D[B tensor.Backend] = nn.GlobalMeanPool2D[B]

// NewGlobalMeanPool2D creates a global mean pooling layer.
func NewGlobalMeanPool2D[B tensor.Backend](backend B) *GlobalMeanPool2D[B] {
	return nn.NewGlobalMeanPool2D(backend)
}

// AdaptivePool2DConfig configures adaptive pooling layers. The input spatial
// dimensions must be divisible by OutputSize; Forward panics otherwise.
type AdaptivePool2DConfig = nn.AdaptivePool2DConfig

// AdaptiveMaxPool2D max-pools to a fixed output spatial size. The input
// spatial dimensions must be divisible by the output size.
type AdaptiveMaxPool2D[B tensor.Backend] = nn.AdaptiveMaxPool2D[B]

// NewAdaptiveMaxPool2D creates an adaptive max pooling layer.
func NewAdaptiveMaxPool2D[B tensor.Backend](cfg AdaptivePool2DConfig, backend B) *AdaptiveMaxPool2D[B] {
	return nn.NewAdaptiveMaxPool2D(cfg, backend)
}

// AdaptiveMeanPool2D mean-pools to a fixed output spatial size. The input
// spatial dimensions must be divisible by the output size.
type AdaptiveMeanPool2D[B tensor.Backend] = nn.AdaptiveMeanPool2D[B]

// NewAdaptiveMeanPool2D creates an adaptive mean pooling layer.
func NewAdaptiveMeanPool2D[B tensor.Backend](cfg AdaptivePool2DConfig, backend B) *AdaptiveMeanPool2D[B] {
	return nn.NewAdaptiveMeanPool2D(cfg, backend)
}

// Initialization

// Xavier returns a tensor with Xavier/Glorot uniform values.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(fanIn, fanOut, shape, backend)
}
