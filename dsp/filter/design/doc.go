// Package design turns EQ band settings into filter sections.
//
// A [Plan] is built from [Params] (type, order, frequency, gain, Q) and can
// produce two views of the same band: digital biquad coefficients via the
// bilinear transform (RBJ cookbook for second-order sections, prewarped
// first-order sections, Butterworth Q distribution for steep pass filters),
// and the magnitude of the analog prototype, which has no frequency cramping
// near Nyquist and serves as the target for correction filters.
package design
