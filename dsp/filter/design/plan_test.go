package design

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-dyneq/dsp/filter/biquad"
)

const sr = 48000.0

func digitalDB(p Plan, freq float64) float64 {
	return biquad.CascadeMagnitudeDB(p.Coefficients(sr), freq, sr)
}

func TestPlanSectionCounts(t *testing.T) {
	tests := []struct {
		params Params
		want   int
	}{
		{Params{Type: Peak, Order: 2, Freq: 1000, Gain: 6, Q: 1}, 1},
		{Params{Type: Peak, Order: 8, Freq: 1000, Gain: 6, Q: 1}, 4},
		{Params{Type: LowPass, Order: 1, Freq: 1000}, 1},
		{Params{Type: LowPass, Order: 5, Freq: 1000, Q: DefaultQ}, 3},
		{Params{Type: HighShelf, Order: 3, Freq: 1000, Gain: 6}, 2},
		{Params{Type: BandShelf, Order: 2, Freq: 1000, Gain: 6, Q: 1}, 2},
		{Params{Type: BandShelf, Order: 8, Freq: 1000, Gain: 6, Q: 1}, 8},
		{Params{Type: Notch, Order: 0, Freq: 1000, Q: 1}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.params.Type.String(), func(t *testing.T) {
			p := NewPlan(tt.params)
			if p.Len() != tt.want {
				t.Fatalf("sections = %d, want %d", p.Len(), tt.want)
			}
		})
	}
}

func TestPlanDigitalMatchesIdealAtLowFrequencies(t *testing.T) {
	tests := []Params{
		{Type: Peak, Order: 2, Freq: 1000, Gain: 9, Q: 2},
		{Type: Peak, Order: 4, Freq: 500, Gain: -12, Q: 0.7},
		{Type: LowShelf, Order: 1, Freq: 200, Gain: 6},
		{Type: LowShelf, Order: 2, Freq: 200, Gain: -6, Q: DefaultQ},
		{Type: HighShelf, Order: 2, Freq: 2000, Gain: 6, Q: DefaultQ},
		{Type: HighShelf, Order: 3, Freq: 2000, Gain: 9, Q: DefaultQ},
		{Type: TiltShelf, Order: 2, Freq: 1000, Gain: 6, Q: DefaultQ},
		{Type: TiltShelf, Order: 1, Freq: 1000, Gain: -6},
		{Type: LowPass, Order: 4, Freq: 3000, Q: DefaultQ},
		{Type: HighPass, Order: 2, Freq: 100, Q: 1},
		{Type: BandPass, Order: 2, Freq: 1000, Q: 4},
		{Type: BandShelf, Order: 2, Freq: 1000, Gain: 6, Q: 1},
	}

	for _, params := range tests {
		t.Run(params.Type.String(), func(t *testing.T) {
			p := NewPlan(params)
			for _, f := range []float64{50, 200, 1000, 2000} {
				got := digitalDB(p, f)
				want := p.IdealDB(f)
				if math.Abs(got-want) > 0.5 {
					t.Fatalf("%v Hz: digital %.3f dB, ideal %.3f dB", f, got, want)
				}
			}
		})
	}
}

func TestPlanCenterGains(t *testing.T) {
	peak := NewPlan(Params{Type: Peak, Order: 2, Freq: 1000, Gain: 6, Q: 1})
	if got := digitalDB(peak, 1000); math.Abs(got-6) > 1e-6 {
		t.Fatalf("peak center = %v dB, want 6", got)
	}

	lp := NewPlan(Params{Type: LowPass, Order: 4, Freq: 1000, Q: DefaultQ})
	if got := digitalDB(lp, 1000); math.Abs(got+3.0103) > 0.01 {
		t.Fatalf("butterworth cutoff = %v dB, want -3.01", got)
	}

	tilt := NewPlan(Params{Type: TiltShelf, Order: 2, Freq: 1000, Gain: 12, Q: DefaultQ})
	if got := tilt.IdealDB(1); math.Abs(got+6) > 0.01 {
		t.Fatalf("tilt low end = %v dB, want -6", got)
	}
	if got := tilt.IdealDB(1e6); math.Abs(got-6) > 0.01 {
		t.Fatalf("tilt high end = %v dB, want +6", got)
	}

	ls := NewPlan(Params{Type: LowShelf, Order: 1, Freq: 100, Gain: 12})
	if got := ls.IdealDB(100); math.Abs(got-6) > 1e-9 {
		t.Fatalf("first-order shelf midpoint = %v dB, want 6", got)
	}
}

func TestPlanIdealFloor(t *testing.T) {
	hp := NewPlan(Params{Type: HighPass, Order: 2, Freq: 100, Q: DefaultQ})
	if got := hp.IdealDB(0); got != minusInfinityDB {
		t.Fatalf("high-pass at DC = %v, want floor", got)
	}

	notch := NewPlan(Params{Type: Notch, Order: 2, Freq: 1000, Q: 1})
	if got := notch.IdealDB(1000); got != minusInfinityDB {
		t.Fatalf("notch center = %v, want floor", got)
	}
}

func TestPlanZeroGainIsFlat(t *testing.T) {
	for _, ft := range []FilterType{Peak, LowShelf, HighShelf, TiltShelf, BandShelf} {
		p := NewPlan(Params{Type: ft, Order: 2, Freq: 1000, Q: 1})
		for _, f := range []float64{20, 1000, 15000} {
			if got := digitalDB(p, f); math.Abs(got) > 1e-9 {
				t.Fatalf("%v at %v Hz = %v dB, want 0", ft, f, got)
			}
		}
	}
}

func TestPlanFrequencyClamp(t *testing.T) {
	p := NewPlan(Params{Type: Peak, Order: 2, Freq: 30000, Gain: 6, Q: 1})
	for _, c := range p.Coefficients(sr) {
		for _, v := range []float64{c.B0, c.B1, c.B2, c.A1, c.A2} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("invalid coefficient %v", v)
			}
		}
	}
}

func TestAppendCoefficientsReusesCapacity(t *testing.T) {
	p := NewPlan(Params{Type: Peak, Order: 4, Freq: 1000, Gain: 3, Q: 1})
	buf := make([]biquad.Coefficients, 0, MaxSections)

	out := p.AppendCoefficients(buf, sr)
	if len(out) != 2 || &out[:1][0] != &buf[:1][0] {
		t.Fatal("AppendCoefficients did not reuse the buffer")
	}
}

func TestFilterTypeNames(t *testing.T) {
	for ft := Peak; ft <= BandShelf; ft++ {
		got, ok := ParseFilterType(ft.String())
		if !ok || got != ft {
			t.Fatalf("ParseFilterType(%q) = %v, %v", ft.String(), got, ok)
		}
	}

	if FilterType(99).String() != "unknown" {
		t.Fatal("out of range type should be unknown")
	}
}
