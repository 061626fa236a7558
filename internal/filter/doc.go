// Package filter holds the numeric building blocks of the compositor's
// filters: gaussian kernels for separable blurs and 4x5 color matrices.
//
// Kernels are sized from a standard deviation and cached, since blur passes
// with the same sigma repeat within a frame. Color matrices operate on
// straight-alpha RGBA in [0, 1], with the fifth column as a bias.
package filter
