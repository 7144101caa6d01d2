package design

import (
	"math"

	"github.com/cwbudde/algo-dyneq/dsp/filter/biquad"
)

type sectionKind uint8

const (
	lowPass1 sectionKind = iota
	highPass1
	lowShelf1
	highShelf1
	tiltShelf1
	lowPass2
	highPass2
	bandPass2
	notch2
	peak2
	lowShelf2
	highShelf2
	tiltShelf2
)

type section struct {
	kind sectionKind
	freq float64
	gain float64
	q    float64
}

// Plan is the section layout of one band. It is a value type so it can be
// stored in parameter snapshots and rebuilt without allocation.
type Plan struct {
	params   Params
	sections [MaxSections]section
	n        int
}

// NewPlan lays out the sections that realize p.
func NewPlan(p Params) Plan {
	p = p.Normalized()
	plan := Plan{params: p}

	switch p.Type {
	case LowPass, HighPass:
		plan.addPass(p)
	case LowShelf, HighShelf, TiltShelf:
		plan.addShelf(p.Type, p.Freq, p.Gain, p.Q, p.Order)
	case BandShelf:
		bw := 2 / math.Ln2 * math.Asinh(1/(2*p.Q))
		plan.addShelf(HighShelf, p.Freq*math.Pow(2, -bw/2), p.Gain, DefaultQ, p.Order)
		plan.addShelf(HighShelf, p.Freq*math.Pow(2, bw/2), -p.Gain, DefaultQ, p.Order)
	default:
		plan.addRepeated(p)
	}

	return plan
}

// Params returns the normalized band parameters.
func (p *Plan) Params() Params {
	return p.params
}

// Len returns the number of sections.
func (p *Plan) Len() int {
	return p.n
}

func (p *Plan) add(s section) {
	if p.n < MaxSections {
		p.sections[p.n] = s
		p.n++
	}
}

func (p *Plan) addPass(params Params) {
	order := params.Order
	first, second := lowPass1, lowPass2
	if params.Type == HighPass {
		first, second = highPass1, highPass2
	}

	if order%2 == 1 {
		p.add(section{kind: first, freq: params.Freq})
	}

	pairs := order / 2
	if pairs == 0 {
		return
	}

	// Butterworth pole angles, with the resonance of the band spread evenly
	// over the pairs so that order 2 uses Q unchanged.
	scale := math.Pow(params.Q/DefaultQ, 1/float64(pairs))
	for k := range pairs {
		theta := math.Pi * float64(2*k+1) / float64(2*order)
		p.add(section{kind: second, freq: params.Freq, q: scale / (2 * math.Cos(theta))})
	}
}

func (p *Plan) addShelf(t FilterType, freq, gain, q float64, order int) {
	first, second := lowShelf1, lowShelf2
	switch t {
	case HighShelf:
		first, second = highShelf1, highShelf2
	case TiltShelf:
		first, second = tiltShelf1, tiltShelf2
	}

	unit := gain / float64(order)
	if order%2 == 1 {
		p.add(section{kind: first, freq: freq, gain: unit})
	}

	for range order / 2 {
		p.add(section{kind: second, freq: freq, gain: 2 * unit, q: q})
	}
}

func (p *Plan) addRepeated(params Params) {
	kind := peak2
	switch params.Type {
	case Notch:
		kind = notch2
	case BandPass:
		kind = bandPass2
	}

	count := max(1, params.Order/2)
	for range count {
		p.add(section{kind: kind, freq: params.Freq, gain: params.Gain / float64(count), q: params.Q})
	}
}

// AppendCoefficients appends the digital sections at sampleRate to dst.
// With enough capacity in dst it does not allocate.
func (p *Plan) AppendCoefficients(dst []biquad.Coefficients, sampleRate float64) []biquad.Coefficients {
	for i := range p.n {
		dst = append(dst, p.sections[i].coefficients(sampleRate))
	}

	return dst
}

// Coefficients returns the digital sections at sampleRate.
func (p *Plan) Coefficients(sampleRate float64) []biquad.Coefficients {
	return p.AppendCoefficients(make([]biquad.Coefficients, 0, p.n), sampleRate)
}

// IdealMagnitude returns the linear magnitude of the analog prototype at freq.
func (p *Plan) IdealMagnitude(freq float64) float64 {
	mag := 1.0
	for i := range p.n {
		mag *= p.sections[i].idealMagnitude(freq)
	}

	return mag
}

// IdealDB returns the analog prototype magnitude in dB, floored at -480 dB.
func (p *Plan) IdealDB(freq float64) float64 {
	mag := p.IdealMagnitude(freq)
	if !(mag > 0) {
		return minusInfinityDB
	}

	return math.Max(20*math.Log10(mag), minusInfinityDB)
}

const minusInfinityDB = -480.0
