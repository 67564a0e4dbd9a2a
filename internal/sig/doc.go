// Package sig builds an ImgData signature from a 128x128 RGB image plane,
// per spec.md §4.1: RGB -> YIQ, a two-dimensional Haar wavelet decomposition
// per channel, and selection of the 40 largest-magnitude non-DC coefficients
// per channel.
package sig
