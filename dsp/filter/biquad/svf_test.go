package biquad

import (
	"math"
	"testing"
)

func TestSVFMatchesSection(t *testing.T) {
	tests := []struct {
		name string
		c    Coefficients
	}{
		{"passthrough", Passthrough()},
		{"lowpass", rbjLowpass(1000, 0.707, 48000)},
		{"lowpass resonant", rbjLowpass(3000, 8, 48000)},
		{"peak boost", rbjPeak(250, 12, 2, 48000)},
		{"peak cut", rbjPeak(8000, -18, 0.5, 44100)},
		{"first order", Coefficients{B0: 0.2, B1: 0.2, A1: -0.6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			df := ImpulseResponse([]Coefficients{tt.c}, DirectForm, 256)
			sv := ImpulseResponse([]Coefficients{tt.c}, StateVariable, 256)

			for i := range df {
				if !almostEqual(df[i], sv[i], 1e-9) {
					t.Fatalf("h[%d]: direct form %v, svf %v", i, df[i], sv[i])
				}
			}
		})
	}
}

func TestSVFUnstableFallsBackToPassthrough(t *testing.T) {
	f := NewSVF(Coefficients{B0: 1, A1: 2, A2: 1})
	for i, x := range []float64{1, 0.5, -0.25} {
		if y := f.ProcessSample(x); !almostEqual(y, x, 1e-12) {
			t.Fatalf("sample %d: got %v, want %v", i, y, x)
		}
	}
}

func TestSVFModulationStaysBounded(t *testing.T) {
	f := NewSVF(rbjPeak(1000, 0, 1, 48000))

	buf := make([]float64, 32)
	for block := range 500 {
		gain := 18 * math.Sin(float64(block)*0.05)
		f.SetCoefficients(rbjPeak(1000, gain, 1, 48000))

		for i := range buf {
			buf[i] = math.Sin(2 * math.Pi * 1000 * float64(block*len(buf)+i) / 48000)
		}
		f.ProcessBlock(buf)

		for _, y := range buf {
			if math.IsNaN(y) || math.Abs(y) > 20 {
				t.Fatalf("block %d: unbounded output %v", block, y)
			}
		}
	}
}
