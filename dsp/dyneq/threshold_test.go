package dyneq

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cwbudde/algo-dyneq/dsp/dynamics"
)

func TestSnapThreshold(t *testing.T) {
	assert.Equal(t, MinThresholdDB, snapThreshold(-85.03))
	assert.Equal(t, MaxThresholdDB, snapThreshold(5))
	assert.InDelta(t, -12.3, snapThreshold(-12.34), 1e-12)
	assert.InDelta(t, -12.4, snapThreshold(-12.36), 1e-12)
}

func TestAutoThreshold(t *testing.T) {
	h := dynamics.NewHistogram(dynamics.FastDecay)
	for range 100 {
		h.Push(20)
	}

	assert.InDelta(t, -10, autoThreshold(-30, h), 1e-9)

	// Freshly reset for learning: a flat distribution centered at 39.5.
	h.Reset(12.5)
	assert.InDelta(t, -29.5, autoThreshold(-30, h), 1e-9)
}

func TestLearningBucket(t *testing.T) {
	tests := []struct {
		diff   float64
		bucket int
		ok     bool
	}{
		{diff: -1},
		{diff: 0, bucket: 0, ok: true},
		{diff: 20.4, bucket: 20, ok: true},
		{diff: 20.6, bucket: 21, ok: true},
		{diff: 85, bucket: dynamics.HistogramBuckets - 1, ok: true},
		{diff: 99.9, bucket: dynamics.HistogramBuckets - 1, ok: true},
		{diff: 100},
		{diff: math.NaN()},
	}

	for _, tt := range tests {
		bucket, ok := learningBucket(tt.diff)
		assert.Equal(t, tt.ok, ok, "diff %v", tt.diff)
		if tt.ok {
			assert.Equal(t, tt.bucket, bucket, "diff %v", tt.diff)
		}
	}
}
