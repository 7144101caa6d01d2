package dyneq

import (
	"fmt"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-dyneq/dsp/core"
	"github.com/cwbudde/algo-dyneq/measure/loudness"
)

const (
	// MaxAutoGainDB bounds the automatic make-up gain.
	MaxAutoGainDB = 24.0

	autoGainWindowSeconds = 1.0
	compensationPoints    = 128
)

// rampGain applies a linear gain that glides to a new target over one
// block instead of jumping.
type rampGain struct {
	current float64
	target  float64
}

func newRampGain() rampGain {
	return rampGain{current: 1, target: 1}
}

func (g *rampGain) setTarget(linear float64) {
	g.target = linear
}

// snap jumps to the target without a ramp.
func (g *rampGain) snap() {
	g.current = g.target
}

func (g *rampGain) process(bufs [][]float64) {
	if len(bufs) == 0 {
		return
	}

	if g.current == g.target {
		if g.target != 1 {
			for _, buf := range bufs {
				vecmath.ScaleBlock(buf, buf, g.target)
			}
		}
		return
	}

	n := len(bufs[0])
	step := (g.target - g.current) / float64(n)
	for _, buf := range bufs {
		gain := g.current
		for i := range buf {
			gain += step
			buf[i] *= gain
		}
	}
	g.current = g.target
}

// autoGain matches the loudness after processing to the loudness before it.
type autoGain struct {
	pre, post *loudness.Tracker
	gain      rampGain
}

func newAutoGain() *autoGain {
	return &autoGain{
		pre:  loudness.NewTracker(loudness.WithChannels(2)),
		post: loudness.NewTracker(loudness.WithChannels(2)),
		gain: newRampGain(),
	}
}

func (a *autoGain) prepare(sampleRate float64) error {
	if err := a.pre.Prepare(sampleRate, autoGainWindowSeconds); err != nil {
		return fmt.Errorf("dyneq: auto gain: %w", err)
	}
	if err := a.post.Prepare(sampleRate, autoGainWindowSeconds); err != nil {
		return fmt.Errorf("dyneq: auto gain: %w", err)
	}
	a.reset()

	return nil
}

func (a *autoGain) processPre(main [][]float64) {
	a.pre.Process(main)
}

func (a *autoGain) processPost(main [][]float64, bypassed bool) {
	a.post.Process(main)
	if bypassed {
		a.gain.setTarget(1)
		a.gain.snap()
		return
	}

	a.gain.setTarget(autoGainValue(a.pre.MeanSquare(), a.post.MeanSquare()))
	a.gain.process(main)
}

// value returns the gain that will be applied to the next block.
func (a *autoGain) value() float64 {
	return a.gain.target
}

func (a *autoGain) reset() {
	a.pre.Reset()
	a.post.Reset()
	a.gain = newRampGain()
}

// autoGainValue returns sqrt(pre/post) clamped to +-MaxAutoGainDB, or unity
// when either side is silent.
func autoGainValue(preMS, postMS float64) float64 {
	if preMS <= 1e-24 || postMS <= 1e-24 {
		return 1
	}

	limit := core.DBToLinear(MaxAutoGainDB)
	return core.Clamp(math.Sqrt(preMS/postMS), 1/limit, limit)
}

// compensationGrid returns n log-spaced frequencies from 20 Hz to 20 kHz.
func compensationGrid(n int) []float64 {
	grid := make([]float64, n)
	lo, hi := math.Log(20), math.Log(20000)
	for i := range grid {
		grid[i] = math.Exp(lo + (hi-lo)*float64(i)/float64(n-1))
	}

	return grid
}
