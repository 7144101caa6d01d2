package design

import (
	"math"

	"github.com/cwbudde/algo-dyneq/dsp/filter/biquad"
)

func (s section) coefficients(sampleRate float64) biquad.Coefficients {
	w0 := normalizedW0(s.freq, sampleRate)
	a := math.Pow(10, s.gain/40)

	switch s.kind {
	case lowPass1, highPass1, lowShelf1, highShelf1, tiltShelf1:
		return firstOrder(s.kind, math.Tan(w0/2), a)
	}

	q := s.q
	if !(q > 0) {
		q = DefaultQ
	}

	cw := math.Cos(w0)
	sw := math.Sin(w0)
	alpha := sw / (2 * q)

	switch s.kind {
	case lowPass2:
		return normalize((1-cw)/2, 1-cw, (1-cw)/2, 1+alpha, -2*cw, 1-alpha)
	case highPass2:
		return normalize((1+cw)/2, -(1 + cw), (1+cw)/2, 1+alpha, -2*cw, 1-alpha)
	case bandPass2:
		return normalize(alpha, 0, -alpha, 1+alpha, -2*cw, 1-alpha)
	case notch2:
		return normalize(1, -2*cw, 1, 1+alpha, -2*cw, 1-alpha)
	case peak2:
		return normalize(1+alpha*a, -2*cw, 1-alpha*a, 1+alpha/a, -2*cw, 1-alpha/a)
	case lowShelf2:
		beta := 2 * math.Sqrt(a) * alpha
		return normalize(
			a*((a+1)-(a-1)*cw+beta),
			2*a*((a-1)-(a+1)*cw),
			a*((a+1)-(a-1)*cw-beta),
			(a+1)+(a-1)*cw+beta,
			-2*((a-1)+(a+1)*cw),
			(a+1)+(a-1)*cw-beta,
		)
	case highShelf2, tiltShelf2:
		beta := 2 * math.Sqrt(a) * alpha
		c := normalize(
			a*((a+1)+(a-1)*cw+beta),
			-2*a*((a-1)+(a+1)*cw),
			a*((a+1)+(a-1)*cw-beta),
			(a+1)-(a-1)*cw+beta,
			2*((a-1)-(a+1)*cw),
			(a+1)-(a-1)*cw-beta,
		)
		if s.kind == tiltShelf2 {
			c = c.Scale(1 / a)
		}
		return c
	}

	return biquad.Passthrough()
}

// firstOrder designs prewarped bilinear first-order sections. k = tan(w0/2),
// a is the square root of the linear shelf gain.
func firstOrder(kind sectionKind, k, a float64) biquad.Coefficients {
	switch kind {
	case lowPass1:
		return biquad.Coefficients{B0: k / (k + 1), B1: k / (k + 1), A1: (k - 1) / (k + 1)}
	case highPass1:
		return biquad.Coefficients{B0: 1 / (k + 1), B1: -1 / (k + 1), A1: (k - 1) / (k + 1)}
	case lowShelf1:
		return biquad.Coefficients{
			B0: a * (1 + a*k) / (a + k),
			B1: a * (a*k - 1) / (a + k),
			A1: (k - a) / (a + k),
		}
	case highShelf1, tiltShelf1:
		c := biquad.Coefficients{
			B0: a * (a + k) / (1 + a*k),
			B1: a * (k - a) / (1 + a*k),
			A1: (a*k - 1) / (1 + a*k),
		}
		if kind == tiltShelf1 {
			c = c.Scale(1 / a)
		}
		return c
	}

	return biquad.Passthrough()
}

// normalizedW0 clamps freq into (0, Nyquist) so that a band dragged to the
// edge of the audio range still yields a usable section.
func normalizedW0(freq, sampleRate float64) float64 {
	if math.IsNaN(freq) {
		freq = 1000
	}

	freq = math.Min(math.Max(freq, 1), 0.499*sampleRate)

	return 2 * math.Pi * freq / sampleRate
}

func normalize(b0, b1, b2, a0, a1, a2 float64) biquad.Coefficients {
	if a0 == 0 || math.IsNaN(a0) || math.IsInf(a0, 0) {
		return biquad.Passthrough()
	}

	return biquad.Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}
