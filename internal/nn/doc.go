// Package nn provides convolution and pooling layers.
//
// Layers are thin objects: they hold configuration and weights, compute
// output shapes in closed form, and delegate all arithmetic to a
// tensor.Backend. There is no training machinery here; weights are created by
// the constructors and can be read or replaced through plain accessors.
package nn
