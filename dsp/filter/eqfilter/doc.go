// Package eqfilter is the runtime of a single EQ band: a design plan, the
// per-channel section cascades that realize it, and the bookkeeping that
// keeps the two in sync while gain and Q are modulated block by block.
//
// A Filter can run in one of three structures. IIR runs direct-form
// biquads, SVF runs state-variable sections derived from the same
// coefficients, and Parallel realizes boost/cut types as the dry signal plus
// a scaled band contribution so several bands can share one input.
//
// Parameter setters only mark the coefficient set dirty. The coefficients are
// rebuilt once, on the audio goroutine, before the next processed block.
package eqfilter
