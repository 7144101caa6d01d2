package dynamics

import (
	"fmt"

	"github.com/cwbudde/algo-dyneq/measure/loudness"
)

const (
	defaultAttackSeconds  = 0.05
	defaultReleaseSeconds = 0.1
	defaultRMSSeconds     = 0.01

	ln10 = 2.302585092994045684017991454684
)

// Compressor is the detector of a dynamic band. It measures the loudness of
// its sidechain input over the RMS window, subtracts a baseline, smooths the
// result with attack and release times and maps it through a KneeComputer.
//
// Rather than a gain, Process returns a modulation depth in [0, 1] that
// the band uses to move its filter from the static towards the target
// setting.
type Compressor struct {
	tracker  *loudness.Tracker
	follower Follower
	knee     *KneeComputer

	baseline float64
	loudness float64
	level    float64
	portion  float64
}

// NewCompressor returns a compressor for channels sidechain channels.
func NewCompressor(channels int) *Compressor {
	c := &Compressor{
		tracker:  loudness.NewTracker(loudness.WithChannels(channels)),
		knee:     NewKneeComputer(),
		loudness: loudness.MinusInfinityDB,
	}
	c.follower.SetAttack(defaultAttackSeconds)
	c.follower.SetRelease(defaultReleaseSeconds)

	return c
}

// Prepare sizes the RMS tracker for windows up to maxRMSSeconds.
func (c *Compressor) Prepare(sampleRate, maxRMSSeconds float64) error {
	if err := c.tracker.Prepare(sampleRate, maxRMSSeconds); err != nil {
		return fmt.Errorf("dynamics: compressor: %w", err)
	}

	c.tracker.SetWindowSeconds(defaultRMSSeconds)
	c.follower.Prepare(sampleRate)
	c.Reset()

	return nil
}

// Knee returns the gain computer.
func (c *Compressor) Knee() *KneeComputer {
	return c.knee
}

// SetAttack sets the attack half-life in seconds.
func (c *Compressor) SetAttack(seconds float64) {
	c.follower.SetAttack(seconds)
}

// SetRelease sets the release half-life in seconds.
func (c *Compressor) SetRelease(seconds float64) {
	c.follower.SetRelease(seconds)
}

// SetRMS sets the detector window in seconds.
func (c *Compressor) SetRMS(seconds float64) {
	c.tracker.SetWindowSeconds(seconds)
}

// SetBaseline sets the level in dB the detector measures against.
func (c *Compressor) SetBaseline(dB float64) {
	c.baseline = dB
}

// Baseline returns the current baseline in dB.
func (c *Compressor) Baseline() float64 {
	return c.baseline
}

// Loudness returns the most recent detector loudness in dB.
func (c *Compressor) Loudness() float64 {
	return c.loudness
}

// Level returns the smoothed level relative to the baseline.
func (c *Compressor) Level() float64 {
	return c.level
}

// Portion returns the most recent modulation depth.
func (c *Compressor) Portion() float64 {
	return c.portion
}

// Process feeds one sidechain block and returns the modulation depth.
func (c *Compressor) Process(side [][]float64) float64 {
	if len(side) == 0 {
		return c.portion
	}

	c.tracker.Process(side)
	c.loudness = powerToDB(c.tracker.MeanSquare())
	c.level = c.follower.Process(c.loudness-c.baseline, len(side[0]))
	c.portion = c.knee.Portion(c.level)

	return c.portion
}

// Reset clears detector state.
func (c *Compressor) Reset() {
	c.tracker.Reset()
	c.follower.Reset()
	c.loudness = loudness.MinusInfinityDB
	c.level = 0
	c.portion = 0
}

func powerToDB(power float64) float64 {
	if power <= 1e-24 {
		return loudness.MinusInfinityDB
	}

	return max(10*mathLog(power)/ln10, loudness.MinusInfinityDB)
}
