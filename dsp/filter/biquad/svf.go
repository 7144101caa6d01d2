package biquad

import "math"

// SVF is a topology-preserving-transform state-variable filter.
//
// SetCoefficients maps any stable biquad transfer function onto the SVF
// integrator structure plus an output mix, so the SVF and a [Section] with
// equal coefficients produce the same response. Unlike Direct Form, the SVF
// state stays well behaved when coefficients change every block.
type SVF struct {
	a1, a2, a3 float64
	m0, m1, m2 float64

	ic1, ic2 float64
}

// NewSVF returns an SVF realizing c with zero state.
func NewSVF(c Coefficients) *SVF {
	f := &SVF{}
	f.SetCoefficients(c)

	return f
}

// SetCoefficients updates the transfer function and keeps the state.
// Coefficient sets that have no SVF realization (poles on or outside the
// unit circle) fall back to passthrough.
func (f *SVF) SetCoefficients(c Coefficients) {
	den := 1 - c.A1 + c.A2
	g2 := (1 + c.A1 + c.A2) / den

	if !(den > 0) || !(g2 > 0) || math.IsInf(g2, 0) {
		c = Passthrough()
		den = 1
		g2 = 1
	}

	g := math.Sqrt(g2)
	d := 4 / den
	gk := 2 * (1 - c.A2) / den
	k := gk / g

	f.m0 = (c.B0 - c.B1 + c.B2) * d / 4
	f.m2 = (c.B1*d - f.m0*(2*g2-2)) / (2 * g2)
	f.m1 = ((c.B0-c.B2)*d - 2*gk*f.m0) / (2 * g)

	f.a1 = 1 / (1 + g*(g+k))
	f.a2 = g * f.a1
	f.a3 = g * f.a2
}

// ProcessSample filters one sample.
func (f *SVF) ProcessSample(x float64) float64 {
	v3 := x - f.ic2
	v1 := f.a1*f.ic1 + f.a2*v3
	v2 := f.ic2 + f.a2*f.ic1 + f.a3*v3
	f.ic1 = 2*v1 - f.ic1
	f.ic2 = 2*v2 - f.ic2

	return f.m0*x + f.m1*v1 + f.m2*v2
}

// ProcessBlock filters buf in place. Zero-alloc.
func (f *SVF) ProcessBlock(buf []float64) {
	a1, a2, a3 := f.a1, f.a2, f.a3
	m0, m1, m2 := f.m0, f.m1, f.m2
	ic1, ic2 := f.ic1, f.ic2

	for i, x := range buf {
		v3 := x - ic2
		v1 := a1*ic1 + a2*v3
		v2 := ic2 + a2*ic1 + a3*v3
		ic1 = 2*v1 - ic1
		ic2 = 2*v2 - ic2
		buf[i] = m0*x + m1*v1 + m2*v2
	}

	f.ic1, f.ic2 = ic1, ic2
}

// Reset clears the integrator state.
func (f *SVF) Reset() {
	f.ic1, f.ic2 = 0, 0
}
