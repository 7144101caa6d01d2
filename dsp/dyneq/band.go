package dyneq

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-dyneq/dsp/core"
	"github.com/cwbudde/algo-dyneq/dsp/dynamics"
	"github.com/cwbudde/algo-dyneq/dsp/filter/eqfilter"
)

// Epsilons below which a dynamic gain or Q change does not rebuild the
// correction filters.
const (
	correctionGainEpsilon = 1e-3
	correctionQEpsilon    = 1e-4
)

// bandChange flags what a snapshot transition touched.
type bandChange uint8

const (
	changeRouting bandChange = 1 << iota
	changeBypass
	changeDynamic
	changeStatic
)

// band is the audio-side state of one band.
type band struct {
	index int

	// static holds the user filter for compensation and solo.
	static *eqfilter.Filter
	// main is the dynamic filter that processes the signal.
	main *eqfilter.Filter
	side *eqfilter.Filter

	sideBuf  [][]float64
	sideView [][]float64

	comp      *dynamics.Compressor
	hist      *dynamics.Histogram
	fast      *dynamics.Histogram
	threshold float64
	// learning is the Learn flag last applied; it outlives Prepare.
	learning  bool

	compensation float64
	corrGain     float64
	corrQ        float64

	// Published for the control goroutine.
	dynGain atomic.Uint64
	learned atomic.Uint64
}

func newBand(index int) *band {
	return &band{
		index:        index,
		comp:         dynamics.NewCompressor(2),
		hist:         dynamics.NewHistogram(dynamics.SlowDecay),
		fast:         dynamics.NewHistogram(dynamics.FastDecay),
		compensation: 1,
		threshold:    math.NaN(),
	}
}

// prepare allocates the filters for blocks of up to maxBlock samples. The
// histograms survive.
func (b *band) prepare(sampleRate, maxRMSSeconds float64, maxBlock int) error {
	if err := b.comp.Prepare(sampleRate, maxRMSSeconds); err != nil {
		return fmt.Errorf("dyneq: band %d: %w", b.index, err)
	}

	b.static = eqfilter.New(0, 0)
	b.main = eqfilter.New(2, maxBlock)
	b.side = eqfilter.New(2, maxBlock)
	b.static.Prepare(sampleRate)
	b.main.Prepare(sampleRate)
	b.side.Prepare(sampleRate)

	b.sideBuf = core.AllocChannels(2, maxBlock)
	b.sideView = make([][]float64, 2)
	b.threshold = math.NaN()
	b.corrGain, b.corrQ = 0, 0

	return nil
}

// apply moves the band from prev to next and reports what changed.
func (b *band) apply(prev, next *BandParams, first bool, grid []float64) bandChange {
	var ch bandChange

	if first || next.Active != prev.Active || next.Group != prev.Group ||
		next.Dynamic != prev.Dynamic || next.Relative != prev.Relative {
		ch |= changeRouting
	}
	if first || next.Bypass != prev.Bypass {
		ch |= changeBypass
	}

	if first || next.Filter != prev.Filter {
		b.static.SetParams(next.Filter)
		b.main.SetParams(next.Filter)
		b.compensation = staticCompensation(b.static, grid)
		ch |= changeStatic
	}

	if side := next.sideParams(); first || side != prev.sideParams() {
		b.side.SetParams(side)
	}

	if first || next.Dynamic != prev.Dynamic {
		b.holdStatic(next)
		ch |= changeDynamic
	}

	knee := b.comp.Knee()
	if first || next.Ratio != prev.Ratio {
		knee.SetRatio(next.Ratio)
	}
	if first || next.Knee != prev.Knee {
		knee.SetKneeW(next.Knee)
	}
	if first || next.Bound != prev.Bound {
		knee.SetBound(next.Bound)
	}
	if first || next.Attack != prev.Attack {
		b.comp.SetAttack(next.Attack / 1000)
	}
	if first || next.Release != prev.Release {
		b.comp.SetRelease(next.Release / 1000)
	}

	if next.Learn && !b.learning {
		b.hist.Reset(0)
		b.fast.Reset(12.5)
	}
	b.learning = next.Learn

	return ch
}

// staticCompensation is the linear gain that cancels the average boost or
// cut of f over grid. Types without gain are not compensated.
func staticCompensation(f *eqfilter.Filter, grid []float64) float64 {
	if !f.Params().Type.HasGain() {
		return 1
	}

	db := core.Clamp(-f.MeanIdealDB(grid), -MaxAutoGainDB, MaxAutoGainDB)
	return core.DBToLinear(db)
}

// holdStatic puts the dynamic filter back on the static gain and Q.
func (b *band) holdStatic(p *BandParams) {
	b.main.SetGain(p.Filter.Gain)
	b.main.SetQ(p.Filter.Q)
	b.publishGain(p.Filter.Gain)
}

func (b *band) publishGain(db float64) {
	b.dynGain.Store(math.Float64bits(db))
}

// updateThreshold applies the configured or learned threshold before the
// band processes.
func (b *band) updateThreshold(p *BandParams) {
	thr := p.Threshold
	if p.Learn {
		thr = autoThreshold(thr, b.fast)
	}

	if thr != b.threshold {
		b.threshold = thr
		b.comp.Knee().SetThreshold(thr)
		b.learned.Store(math.Float64bits(thr))
	}
}

// process runs the band over its group view. main is filtered in place (or
// into the parallel buffer); side is only read. bypassed is the engine
// bypass; p.Bypass leaves main untouched but keeps the detector running.
func (b *band) process(main, side [][]float64, p *BandParams, baseline float64, bypassed, parallel bool) {
	if p.Relative {
		b.comp.SetBaseline(baseline)
	} else {
		b.comp.SetBaseline(0)
	}

	if bypassed || !p.Dynamic {
		b.holdStatic(p)
		if !bypassed && !p.Bypass {
			b.filter(main, parallel)
		}
		return
	}

	// A bypassed band still runs its detector so learning follows the input.
	sv := b.sideCopy(side)
	b.side.Process(sv)
	portion := b.comp.Process(sv)
	if p.Bypass {
		b.holdStatic(p)
		return
	}

	gain := p.Filter.Gain + portion*(p.TargetGain-p.Filter.Gain)
	q := p.Filter.Q + portion*(p.TargetQ-p.Filter.Q)
	b.main.SetGain(gain)
	b.main.SetQ(q)
	b.publishGain(gain)

	b.filter(main, parallel)
}

func (b *band) filter(main [][]float64, parallel bool) {
	if parallel {
		b.main.ProcessParallel(main)
		return
	}

	b.main.Process(main)
}

// post runs the parallel structure's second stage: parallel bands add their
// contribution, serial bands filter in place.
func (b *band) post(main [][]float64, wantParallel, bypassed bool) {
	if bypassed || b.main.ShouldBeParallel() != wantParallel {
		return
	}

	if wantParallel {
		b.main.AddParallel(main)
		return
	}

	b.main.Process(main)
}

// learn records the distance between baseline and loudness.
func (b *band) learn(p *BandParams) {
	if !p.Learn {
		return
	}

	if bucket, ok := learningBucket(b.comp.Baseline() - b.comp.Loudness()); ok {
		b.hist.Push(bucket)
		b.fast.Push(bucket)
	}
}

// correctionMoved reports whether the dynamic gain or Q moved far enough to
// rebuild the corrections, and remembers the new values if so.
func (b *band) correctionMoved() bool {
	g, q := b.main.Gain(), b.main.Q()
	if math.Abs(g-b.corrGain) <= correctionGainEpsilon && math.Abs(q-b.corrQ) <= correctionQEpsilon {
		return false
	}

	b.corrGain, b.corrQ = g, q
	return true
}

func (b *band) sideCopy(side [][]float64) [][]float64 {
	n := len(side)
	for ch := range n {
		b.sideView[ch] = b.sideBuf[ch][:len(side[ch])]
		copy(b.sideView[ch], side[ch])
	}

	return b.sideView[:n]
}

func (b *band) reset() {
	b.main.Reset()
	b.side.Reset()
	b.comp.Reset()
}
