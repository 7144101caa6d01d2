package dyneq

import (
	"math"

	"github.com/cwbudde/algo-dyneq/dsp/core"
	"github.com/cwbudde/algo-dyneq/dsp/filter/design"
)

const (
	soloMinFreq = 10.0
	soloMaxFreq = 20000.0
	soloMinQ    = 0.025
	soloMaxQ    = 25.0
	soloMinBW   = 0.01
)

// soloParams maps a band to the frequency and Q of the band-pass filter that
// auditions it. Pass and shelf types are probed between their corner and the
// edge of the spectrum they affect, using the geometric center of that span
// and a bandwidth covering it.
func soloParams(t design.FilterType, freq, q, sampleRate float64) (soloFreq, soloQ float64) {
	switch t {
	case design.HighPass, design.LowShelf:
		center := math.Sqrt(freq)
		return soloSpan(center, center)
	case design.LowPass, design.HighShelf:
		center := math.Sqrt(sampleRate/2) * math.Sqrt(freq)
		return soloSpan(center, center/freq)
	case design.TiltShelf:
		return freq, soloMinQ
	default:
		return freq, q
	}
}

// soloSpan turns a center frequency and the ratio between center and span
// edge into a clamped frequency and Q.
func soloSpan(center, ratio float64) (float64, float64) {
	bw := math.Max(2*math.Log2(ratio), soloMinBW)
	q := 1 / (2 * math.Sinh(math.Ln2/2*bw))

	return core.Clamp(center, soloMinFreq, soloMaxFreq), core.Clamp(q, soloMinQ, soloMaxQ)
}
