package biquad

import (
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-dyneq/dsp/core"
)

// Response computes the complex frequency response H(e^jw) at freqHz.
func (c *Coefficients) Response(freqHz, sampleRate float64) complex128 {
	w := 2 * math.Pi * freqHz / sampleRate
	ejw := cmplx.Exp(complex(0, -w))
	ej2w := cmplx.Exp(complex(0, -2*w))

	num := complex(c.B0, 0) + complex(c.B1, 0)*ejw + complex(c.B2, 0)*ej2w
	den := complex(1, 0) + complex(c.A1, 0)*ejw + complex(c.A2, 0)*ej2w

	return num / den
}

// MagnitudeSquared returns |H(f)|^2 using a closed-form expression that
// avoids complex exponentials.
func (c *Coefficients) MagnitudeSquared(freqHz, sampleRate float64) float64 {
	cw := 2 * math.Cos(2*math.Pi*freqHz/sampleRate)
	b0, b1, b2 := c.B0, c.B1, c.B2
	a1, a2 := c.A1, c.A2

	num := (b0-b2)*(b0-b2) + b1*b1 + (b1*(b0+b2)+b0*b2*cw)*cw
	den := (1-a2)*(1-a2) + a1*a1 + (a1*(a2+1)+cw*a2)*cw

	return num / den
}

// MagnitudeDB returns 10*log10(|H(f)|^2), floored at core.MinusInfinityDB.
func (c *Coefficients) MagnitudeDB(freqHz, sampleRate float64) float64 {
	return core.LinearPowerToDB(c.MagnitudeSquared(freqHz, sampleRate))
}

// CascadeMagnitudeDB returns the summed magnitude response of coeffs in dB.
func CascadeMagnitudeDB(coeffs []Coefficients, freqHz, sampleRate float64) float64 {
	db := 0.0
	for i := range coeffs {
		db += coeffs[i].MagnitudeDB(freqHz, sampleRate)
	}

	return math.Max(db, core.MinusInfinityDB)
}

// ImpulseResponse feeds an impulse through a fresh cascade built from coeffs
// and returns n output samples.
func ImpulseResponse(coeffs []Coefficients, topology Topology, n int) []float64 {
	if n <= 0 {
		return nil
	}

	c := NewCascade(len(coeffs), topology)
	c.SetCoefficients(coeffs)

	ir := make([]float64, n)
	ir[0] = 1
	c.ProcessBlock(ir)

	return ir
}
