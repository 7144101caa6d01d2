package loudness

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-dyneq/dsp/filter/biquad"
	"github.com/cwbudde/algo-dyneq/dsp/filter/design"
)

// MinusInfinityDB is the level reported for a silent window.
const MinusInfinityDB = -240.0

const (
	// K-weighting filter parameters from BS.1770.
	kWeightingShelfFreq = 1500.0
	kWeightingShelfGain = 4.0
	kWeightingHpfFreq   = 38.0
	kWeightingOffset    = -0.691
)

// ErrInvalidWindow is returned by Prepare for a non-positive maximum window.
var ErrInvalidWindow = errors.New("loudness: invalid window")

// Tracker measures momentary loudness over a sliding window whose length can
// change at run time up to the maximum given to Prepare.
//
// Channels are averaged, so a stereo signal and its mono fold report the
// same level. Tracker is not safe for concurrent use.
type Tracker struct {
	cfg        TrackerConfig
	sampleRate float64

	shelf []biquad.Section
	hpf   []biquad.Section

	history []float64 // per-frame mean power, ring of len maxWindow
	pos     int
	window  int
	sum     float64
}

// NewTracker returns an unprepared tracker.
func NewTracker(opts ...TrackerOption) *Tracker {
	return &Tracker{cfg: ApplyTrackerOptions(opts...)}
}

// Prepare sizes the history for windows up to maxSeconds and resets state.
// The window is set to the maximum.
func (t *Tracker) Prepare(sampleRate, maxSeconds float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("loudness: sample rate must be positive and finite: %v", sampleRate)
	}

	maxWindow := int(math.Round(maxSeconds * sampleRate))
	if maxWindow < 1 {
		return fmt.Errorf("%w: %v s", ErrInvalidWindow, maxSeconds)
	}

	t.sampleRate = sampleRate
	t.history = make([]float64, maxWindow)
	t.window = maxWindow

	t.shelf = make([]biquad.Section, t.cfg.Channels)
	t.hpf = make([]biquad.Section, t.cfg.Channels)

	if t.cfg.KWeighting {
		shelfPlan := design.NewPlan(design.Params{
			Type: design.HighShelf, Order: 2, Freq: kWeightingShelfFreq,
			Gain: kWeightingShelfGain, Q: design.DefaultQ,
		})
		hpfPlan := design.NewPlan(design.Params{
			Type: design.HighPass, Order: 2, Freq: kWeightingHpfFreq, Q: design.DefaultQ,
		})
		shelf := shelfPlan.Coefficients(sampleRate)[0]
		hpf := hpfPlan.Coefficients(sampleRate)[0]

		for ch := range t.cfg.Channels {
			t.shelf[ch].Coefficients = shelf
			t.hpf[ch].Coefficients = hpf
		}
	}

	t.Reset()

	return nil
}

// SetWindowSeconds changes the integration window, clamped to
// [1 sample, prepared maximum].
func (t *Tracker) SetWindowSeconds(seconds float64) {
	if len(t.history) == 0 {
		return
	}

	n := int(math.Round(seconds * t.sampleRate))
	n = max(1, min(n, len(t.history)))
	if n == t.window {
		return
	}

	t.window = n
	t.resum()
}

// WindowSamples returns the current window length.
func (t *Tracker) WindowSamples() int {
	return t.window
}

func (t *Tracker) resum() {
	size := len(t.history)
	t.sum = 0

	for i := 1; i <= t.window; i++ {
		t.sum += t.history[(t.pos-i+size)%size]
	}
}

// Process feeds one block. All channels must have the same length; channels
// beyond the configured count are ignored.
func (t *Tracker) Process(bufs [][]float64) {
	if len(bufs) == 0 || len(t.history) == 0 {
		return
	}

	channels := min(len(bufs), t.cfg.Channels)
	norm := 1 / float64(channels)
	size := len(t.history)

	for i := range bufs[0] {
		p := 0.0
		for ch := range channels {
			x := bufs[ch][i]
			if t.cfg.KWeighting {
				x = t.hpf[ch].ProcessSample(t.shelf[ch].ProcessSample(x))
			}
			p += x * x
		}
		p *= norm

		old := t.history[(t.pos-t.window+size)%size]
		t.history[t.pos] = p
		t.pos = (t.pos + 1) % size

		t.sum += p - old
		if t.sum < 0 {
			t.sum = 0
		}
	}
}

// MeanSquare returns the mean power over the window.
func (t *Tracker) MeanSquare() float64 {
	if t.window == 0 {
		return 0
	}

	return t.sum / float64(t.window)
}

// Momentary returns the windowed loudness in dB, MinusInfinityDB for silence.
func (t *Tracker) Momentary() float64 {
	ms := t.MeanSquare()
	if ms <= 1e-24 {
		return MinusInfinityDB
	}

	db := 10 * math.Log10(ms)
	if t.cfg.KWeighting {
		db += kWeightingOffset
	}

	return math.Max(db, MinusInfinityDB)
}

// Reset clears the window and filter state.
func (t *Tracker) Reset() {
	clear(t.history)
	t.pos = 0
	t.sum = 0

	for ch := range t.shelf {
		t.shelf[ch].Reset()
		t.hpf[ch].Reset()
	}
}
