package dyneq

import (
	"math"

	"github.com/cwbudde/algo-dyneq/dsp/core"
	"github.com/cwbudde/algo-dyneq/dsp/dynamics"
)

// AutoThresholdOffset is added to the configured threshold together with the
// learned level while a band is learning. It is a tuning constant, not a
// structural property of the engine.
const AutoThresholdOffset = 40.0

// learnedPercentile is the fast-histogram percentile the learned threshold
// follows.
const learnedPercentile = 0.5

// snapThreshold clamps x to the threshold range and rounds it to 0.1 dB.
func snapThreshold(x float64) float64 {
	x = core.Clamp(x, MinThresholdDB, MaxThresholdDB)
	return math.Round(x*10) / 10
}

// autoThreshold is the threshold a learning band runs with.
func autoThreshold(threshold float64, fast *dynamics.Histogram) float64 {
	return threshold + AutoThresholdOffset + snapThreshold(-fast.Percentile(learnedPercentile))
}

// learningBucket maps the distance between baseline and loudness to a
// histogram bucket. Distances outside [0, 100) dB are not recorded.
func learningBucket(diff float64) (int, bool) {
	if !(diff >= 0 && diff < 100) {
		return 0, false
	}

	return core.ClampInt(int(math.Round(diff)), 0, dynamics.HistogramBuckets-1), true
}
