// Package biquad provides second-order IIR runtime primitives.
//
// A [Section] runs Direct Form II Transposed processing for one set of
// [Coefficients]. An [SVF] realizes the same transfer function as a
// topology-preserving state-variable filter, which tolerates per-block
// coefficient modulation without zipper noise. A [Cascade] chains sections
// of either topology and keeps its state across coefficient updates.
//
// Coefficient design lives in dsp/filter/design.
package biquad
