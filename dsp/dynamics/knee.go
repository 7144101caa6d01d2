package dynamics

import (
	"math"
	"sync"

	"github.com/cwbudde/algo-dyneq/dsp/core"
	"github.com/cwbudde/algo-dyneq/internal/recompute"
)

const (
	defaultKneeThresholdDB = -20.0
	defaultKneeRatio       = 4.0
	defaultKneeWidthDB     = 6.0
	defaultKneeBoundDB     = 60.0

	minKneeRatio = 1.0
	maxKneeRatio = 100.0
	maxKneeWidth = 30.0
)

// KneeComputer maps an input level x (dB) to an output level (dB) with a
// quadratic soft knee of half-width W around threshold T, slope 1/R above it
// and the output never more than B dB away from the input.
//
//	x <= T-W        y = x
//	x >= T+W        y = clamp(T + (x-T)/R, x-B, x+B)
//	otherwise       y = clamp(x + a*(x+b)^2/c, x-B, x+B)
//
// with a = 1/R - 1, b = W - T, c = 4W. The curve is continuous and
// non-decreasing for R >= 1.
//
// Setters may be called from any goroutine; evaluation picks up the new
// coefficients on the next call.
type KneeComputer struct {
	mu    sync.Mutex
	dirty recompute.Flag

	threshold float64
	ratio     float64
	kneeW     float64
	bound     float64

	lowEdge, highEdge float64
	slope             float64
	a, b, c           float64
	reductionAtKnee   float64
}

// NewKneeComputer returns a computer with T=-20 dB, R=4, W=6 dB, B=60 dB.
func NewKneeComputer() *KneeComputer {
	k := &KneeComputer{
		threshold: defaultKneeThresholdDB,
		ratio:     defaultKneeRatio,
		kneeW:     defaultKneeWidthDB,
		bound:     defaultKneeBoundDB,
	}
	k.Interpolate()

	return k
}

// SetThreshold sets T in dB.
func (k *KneeComputer) SetThreshold(dB float64) {
	if math.IsNaN(dB) || math.IsInf(dB, 0) {
		return
	}

	k.mu.Lock()
	k.threshold = dB
	k.mu.Unlock()
	k.dirty.MarkDirty()
}

// SetRatio sets R, clamped to [1, 100].
func (k *KneeComputer) SetRatio(ratio float64) {
	if math.IsNaN(ratio) {
		return
	}

	k.mu.Lock()
	k.ratio = core.Clamp(ratio, minKneeRatio, maxKneeRatio)
	k.mu.Unlock()
	k.dirty.MarkDirty()
}

// SetKneeW sets the knee half-width W in dB, clamped to [0, 30].
func (k *KneeComputer) SetKneeW(dB float64) {
	if math.IsNaN(dB) {
		return
	}

	k.mu.Lock()
	k.kneeW = core.Clamp(dB, 0, maxKneeWidth)
	k.mu.Unlock()
	k.dirty.MarkDirty()
}

// SetBound sets the maximum deviation B in dB.
func (k *KneeComputer) SetBound(dB float64) {
	if math.IsNaN(dB) || dB < 0 {
		return
	}

	k.mu.Lock()
	k.bound = dB
	k.mu.Unlock()
	k.dirty.MarkDirty()
}

// Threshold returns T.
func (k *KneeComputer) Threshold() float64 {
	k.mu.Lock()
	defer k.mu.Unlock()

	return k.threshold
}

// Ratio returns R.
func (k *KneeComputer) Ratio() float64 {
	k.mu.Lock()
	defer k.mu.Unlock()

	return k.ratio
}

// KneeW returns W.
func (k *KneeComputer) KneeW() float64 {
	k.mu.Lock()
	defer k.mu.Unlock()

	return k.kneeW
}

// Interpolate recomputes the cached coefficients immediately.
func (k *KneeComputer) Interpolate() {
	k.mu.Lock()
	k.dirty.Begin()
	k.interpolate()
	k.dirty.End()
	k.mu.Unlock()
}

func (k *KneeComputer) interpolate() {
	k.lowEdge = k.threshold - k.kneeW
	k.highEdge = k.threshold + k.kneeW
	k.slope = 1 / k.ratio
	k.a = k.slope - 1
	k.b = k.kneeW - k.threshold
	k.c = 4 * k.kneeW
	k.reductionAtKnee = k.eval(k.highEdge) - k.highEdge
}

// refresh must be called with mu held.
func (k *KneeComputer) refresh() {
	k.dirty.Run(k.interpolate)
}

func (k *KneeComputer) eval(x float64) float64 {
	switch {
	case x <= k.lowEdge:
		return x
	case x >= k.highEdge:
		return core.Clamp(k.threshold+(x-k.threshold)*k.slope, x-k.bound, x+k.bound)
	default:
		d := x + k.b
		return core.Clamp(x+k.a*d*d/k.c, x-k.bound, x+k.bound)
	}
}

// Eval returns the output level for input level x.
func (k *KneeComputer) Eval(x float64) float64 {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.refresh()

	return k.eval(x)
}

// Process returns the gain change Eval(x) - x, which is <= 0 for R >= 1.
func (k *KneeComputer) Process(x float64) float64 {
	return k.Eval(x) - x
}

// ReductionAtKnee returns Process(T+W), the gain change at the top of the knee.
func (k *KneeComputer) ReductionAtKnee() float64 {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.refresh()

	return k.reductionAtKnee
}

// Portion maps x to a modulation depth in [0, 1]: 0 at or below the knee,
// growing through the knee and reaching 1 at its top. With a hard knee the
// depth switches from 0 to 1 at the threshold.
func (k *KneeComputer) Portion(x float64) float64 {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.refresh()

	if k.ratio <= minKneeRatio {
		return 0
	}

	if k.reductionAtKnee > -1e-12 {
		if x > k.threshold {
			return 1
		}
		return 0
	}

	if x <= k.lowEdge {
		return 0
	}

	return core.Clamp((k.eval(x)-x)/k.reductionAtKnee, 0, 1)
}
