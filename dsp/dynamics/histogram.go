package dynamics

import "math"

// HistogramBuckets is the number of 1 dB buckets in a Histogram.
const HistogramBuckets = 80

const (
	// SlowDecay is the per-push decay of the long-term display histogram.
	SlowDecay = 0.99999
	// FastDecay is the per-push decay of the histogram that drives the
	// learned threshold.
	FastDecay = 0.9995
)

// Histogram is a decaying count of levels in 1 dB buckets. Each Push ages
// every bucket by the decay factor and adds one hit, so old material fades
// out with a half-life of ln(0.5)/ln(decay) pushes.
type Histogram struct {
	hits  [HistogramBuckets]float64
	decay float64
}

// NewHistogram returns an empty histogram with the given per-push decay.
func NewHistogram(decay float64) *Histogram {
	return &Histogram{decay: decay}
}

// Push records one hit in bucket i. Out-of-range buckets are clamped.
func (h *Histogram) Push(i int) {
	i = max(0, min(i, HistogramBuckets-1))

	for k := range h.hits {
		h.hits[k] *= h.decay
	}

	h.hits[i]++
}

// Percentile returns the bucket position below which the fraction p of the
// hits lies, interpolated within the bucket. Bucket centers sit on integers,
// so a histogram holding hits in a single bucket returns that bucket.
func (h *Histogram) Percentile(p float64) float64 {
	total := 0.0
	for _, v := range h.hits {
		total += v
	}

	if total <= 0 || math.IsNaN(p) {
		return 0
	}

	target := p * total
	cum := 0.0

	for i, v := range h.hits {
		if v > 0 && cum+v >= target {
			return float64(i) - 0.5 + (target-cum)/v
		}
		cum += v
	}

	return HistogramBuckets - 1
}

// Hits returns a copy of the bucket counts.
func (h *Histogram) Hits() [HistogramBuckets]float64 {
	return h.hits
}

// Reset fills every bucket with fill.
func (h *Histogram) Reset(fill float64) {
	for i := range h.hits {
		h.hits[i] = fill
	}
}
