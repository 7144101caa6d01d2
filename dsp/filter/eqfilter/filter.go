package eqfilter

import (
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-dyneq/dsp/core"
	"github.com/cwbudde/algo-dyneq/dsp/filter/biquad"
	"github.com/cwbudde/algo-dyneq/dsp/filter/design"
	"github.com/cwbudde/algo-dyneq/internal/recompute"
)

// Structure selects how a Filter realizes its plan.
type Structure int

const (
	IIR Structure = iota
	SVF
	Parallel
)

// String returns the structure name.
func (s Structure) String() string {
	switch s {
	case IIR:
		return "iir"
	case SVF:
		return "svf"
	case Parallel:
		return "parallel"
	default:
		return "unknown"
	}
}

// RestParams is the pass-through configuration a filter returns to on
// SetToRest.
var RestParams = design.Params{Type: design.Peak, Order: 2, Freq: 1000, Gain: 0, Q: design.DefaultQ}

// Filter is one band filter for up to maxChannels channels.
type Filter struct {
	params     design.Params
	plan       design.Plan
	structure  Structure
	sampleRate float64

	dirty recompute.Flag

	coeffs     []biquad.Coefficients
	bandCoeffs []biquad.Coefficients
	cascades   []*biquad.Cascade

	// parallel holds the band-only signal of the last ProcessParallel call.
	parallel     [][]float64
	parallelGain float64
}

// New returns a filter for maxChannels channels and blocks of up to maxBlock
// samples. A filter with zero channels only models responses.
func New(maxChannels, maxBlock int) *Filter {
	f := &Filter{
		params:     RestParams,
		sampleRate: 48000,
		coeffs:     make([]biquad.Coefficients, 0, design.MaxSections),
		bandCoeffs: make([]biquad.Coefficients, 0, design.MaxSections),
		cascades:   make([]*biquad.Cascade, maxChannels),
		parallel:   core.AllocChannels(maxChannels, maxBlock),
	}
	for i := range f.cascades {
		f.cascades[i] = biquad.NewCascade(design.MaxSections, biquad.DirectForm)
	}
	f.plan = design.NewPlan(f.params)
	f.dirty.MarkDirty()

	return f
}

// Prepare sets the sample rate and clears the state.
func (f *Filter) Prepare(sampleRate float64) {
	f.sampleRate = sampleRate
	f.dirty.MarkDirty()
	f.Reset()
}

// SampleRate returns the prepared sample rate.
func (f *Filter) SampleRate() float64 { return f.sampleRate }

// Params returns the current band parameters.
func (f *Filter) Params() design.Params { return f.params }

// SetParams replaces every band parameter.
func (f *Filter) SetParams(p design.Params) {
	p = p.Normalized()
	if p == f.params {
		return
	}

	f.params = p
	f.dirty.MarkDirty()
}

// Gain returns the band gain in dB.
func (f *Filter) Gain() float64 { return f.params.Gain }

// Q returns the band quality factor.
func (f *Filter) Q() float64 { return f.params.Q }

// SetGain sets the band gain in dB.
func (f *Filter) SetGain(db float64) {
	if db == f.params.Gain {
		return
	}

	f.params.Gain = db
	f.dirty.MarkDirty()
}

// SetQ sets the band quality factor.
func (f *Filter) SetQ(q float64) {
	if q == f.params.Q || !(q > 0) {
		return
	}

	f.params.Q = q
	f.dirty.MarkDirty()
}

// Structure returns the active structure.
func (f *Filter) Structure() Structure { return f.structure }

// SetStructure switches the realization. The state is cleared when the
// cascade topology changes.
func (f *Filter) SetStructure(s Structure) {
	if s == f.structure {
		return
	}

	f.structure = s
	topology := biquad.DirectForm
	if s == SVF {
		topology = biquad.StateVariable
	}
	for _, c := range f.cascades {
		c.SetTopology(topology)
	}
	f.dirty.MarkDirty()
}

// ShouldBeParallel reports whether the filter contributes through the
// parallel path rather than processing serially.
func (f *Filter) ShouldBeParallel() bool {
	return f.structure == Parallel && f.params.Type.Parallelizable()
}

// Coefficients returns the sections currently realizing the filter.
func (f *Filter) Coefficients() []biquad.Coefficients {
	f.update()
	return f.coeffs
}

func (f *Filter) update() {
	f.dirty.Run(f.rebuild)
}

func (f *Filter) rebuild() {
	f.plan = design.NewPlan(f.params)
	f.coeffs = f.plan.AppendCoefficients(f.coeffs[:0], f.sampleRate)

	active := f.coeffs
	if f.ShouldBeParallel() {
		band := design.NewPlan(parallelBand(f.params))
		f.bandCoeffs = band.AppendCoefficients(f.bandCoeffs[:0], f.sampleRate)
		f.parallelGain = core.DBToLinear(f.params.Gain) - 1
		active = f.bandCoeffs
	}

	for _, c := range f.cascades {
		c.SetCoefficients(active)
	}
}

// parallelBand maps a boost/cut type to the band shape it adds to the dry
// signal.
func parallelBand(p design.Params) design.Params {
	band := p
	band.Gain = 0
	switch p.Type {
	case design.LowShelf:
		band.Type = design.LowPass
	case design.HighShelf:
		band.Type = design.HighPass
	default:
		band.Type = design.BandPass
	}

	return band
}

// Process filters bufs in place. In the parallel structure parallelizable
// types are skipped here; use ProcessParallel and AddParallel instead.
func (f *Filter) Process(bufs [][]float64) {
	f.update()
	if f.ShouldBeParallel() {
		return
	}

	for ch, buf := range bufs {
		if ch >= len(f.cascades) {
			break
		}
		f.cascades[ch].ProcessBlock(buf)
	}
}

// ProcessParallel filters a copy of bufs through the band shape and keeps it
// for AddParallel. bufs is not modified.
func (f *Filter) ProcessParallel(bufs [][]float64) {
	f.update()
	if !f.ShouldBeParallel() {
		return
	}

	for ch, buf := range bufs {
		if ch >= len(f.cascades) {
			break
		}
		dst := f.parallel[ch][:len(buf)]
		copy(dst, buf)
		f.cascades[ch].ProcessBlock(dst)
	}
}

// AddParallel mixes the band signal of the last ProcessParallel call into
// bufs, scaled by the linear gain minus one.
func (f *Filter) AddParallel(bufs [][]float64) {
	if !f.ShouldBeParallel() || f.parallelGain == 0 {
		return
	}

	for ch, buf := range bufs {
		if ch >= len(f.parallel) {
			break
		}
		band := f.parallel[ch][:len(buf)]
		vecmath.ScaleBlock(band, band, f.parallelGain)
		vecmath.AddBlockInPlace(buf, band)
	}
}

// AddResponseDB adds the magnitude response of the realized sections at
// freqs (Hz) to out.
func (f *Filter) AddResponseDB(freqs, out []float64) {
	f.update()
	for i, freq := range freqs {
		out[i] += biquad.CascadeMagnitudeDB(f.coeffs, freq, f.sampleRate)
	}
}

// AddIdealDB adds the analog prototype magnitude at freqs (Hz) to out.
func (f *Filter) AddIdealDB(freqs, out []float64) {
	f.update()
	for i, freq := range freqs {
		out[i] += f.plan.IdealDB(freq)
	}
}

// MeanIdealDB averages the prototype magnitude over freqs.
func (f *Filter) MeanIdealDB(freqs []float64) float64 {
	if len(freqs) == 0 {
		return 0
	}

	f.update()
	sum := 0.0
	for _, freq := range freqs {
		sum += math.Max(f.plan.IdealDB(freq), -240)
	}

	return sum / float64(len(freqs))
}

// SetToRest returns the filter to a pass-through configuration and clears
// the state.
func (f *Filter) SetToRest() {
	f.SetParams(RestParams)
	f.Reset()
}

// Reset clears the filter state.
func (f *Filter) Reset() {
	for _, c := range f.cascades {
		c.Reset()
	}
	core.ZeroChannels(f.parallel)
}
