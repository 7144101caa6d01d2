package dyneq

import (
	"math"

	"github.com/cwbudde/algo-dyneq/dsp/core"
	"github.com/cwbudde/algo-dyneq/dsp/filter/design"
)

// NumBands is the number of bands every controller owns.
const NumBands = 16

// RoutingGroup is the channel view a band processes.
type RoutingGroup int

const (
	Stereo RoutingGroup = iota
	Left
	Right
	Mid
	Side

	numGroups = 5
)

var groupNames = [numGroups]string{"stereo", "left", "right", "mid", "side"}

// String returns the group name.
func (g RoutingGroup) String() string {
	if g < 0 || g >= numGroups {
		return "unknown"
	}

	return groupNames[g]
}

// ParseRoutingGroup resolves a group name as printed by String.
func ParseRoutingGroup(name string) (RoutingGroup, bool) {
	for i, n := range groupNames {
		if n == name {
			return RoutingGroup(i), true
		}
	}

	return Stereo, false
}

// Structure is the filter structure of the whole engine. Exactly one is
// active at a time.
type Structure int

const (
	MinimumPhase Structure = iota
	StateVariable
	Parallel
	MatchedPhase
	MixedPhase
	LinearPhase

	numStructures = 6
)

var structureNames = [numStructures]string{"minimum", "svf", "parallel", "matched", "mixed", "linear"}

// String returns the structure name.
func (s Structure) String() string {
	if s < 0 || s >= numStructures {
		return "unknown"
	}

	return structureNames[s]
}

// ParseStructure resolves a structure name as printed by String.
func ParseStructure(name string) (Structure, bool) {
	for i, n := range structureNames {
		if n == name {
			return Structure(i), true
		}
	}

	return MinimumPhase, false
}

// Parameter ranges the snapshot is clamped to.
const (
	MinThresholdDB = -80.0
	MaxThresholdDB = 0.0
	MaxRatio       = 100.0
	MaxKneeDB      = 30.0
	MaxBoundDB     = 60.0
	MaxGainDB      = 30.0
	MinQ           = 0.025
	MaxQ           = 25.0
	MinFreq        = 10.0
	MaxFreq        = 20000.0
	MaxTimeMS      = 5000.0
	MaxOutputDB    = 24.0
)

// BandParams is the control state of one band.
type BandParams struct {
	Active   bool
	Group    RoutingGroup
	Bypass   bool
	Dynamic  bool
	Relative bool
	Learn    bool

	// Filter is the static filter. The dynamic filter shares its type,
	// order and frequency.
	Filter design.Params

	// TargetGain and TargetQ are reached when the compressor is fully
	// engaged.
	TargetGain float64
	TargetQ    float64

	// Side is the sidechain filter. With SideLink set it follows the
	// static filter's frequency and Q.
	Side     design.Params
	SideLink bool

	Threshold float64 // dB
	Ratio     float64
	Knee      float64 // dB, half-width
	Bound     float64 // dB
	Attack    float64 // ms
	Release   float64 // ms
}

// SoloRequest selects the band being auditioned.
type SoloRequest struct {
	Active bool
	Band   int
	Side   bool
}

// Params is an immutable snapshot of every control value. The control
// goroutine publishes a fresh copy on each change; the audio goroutine reads
// it once per sub-buffer.
type Params struct {
	Bands [NumBands]BandParams

	Structure   Structure
	EffectOn    bool
	SideChain   bool
	ZeroLatency bool

	Lookahead float64 // ms
	RMS       float64 // ms

	SmoothStaticGain bool
	AutoGain         bool
	OutputGain       float64 // dB
	PhaseFlip        bool

	Solo SoloRequest
}

// DefaultBandParams returns an inactive peak band at 1 kHz.
func DefaultBandParams() BandParams {
	return BandParams{
		Group:      Stereo,
		Filter:     design.Params{Type: design.Peak, Order: 2, Freq: 1000, Gain: 0, Q: design.DefaultQ},
		TargetGain: 0,
		TargetQ:    design.DefaultQ,
		Side:       design.Params{Type: design.BandPass, Order: 2, Freq: 1000, Q: design.DefaultQ},
		SideLink:   true,
		Threshold:  -20,
		Ratio:      4,
		Knee:       6,
		Bound:      MaxBoundDB,
		Attack:     50,
		Release:    100,
	}
}

// DefaultParams returns a snapshot with every band at its default and the
// effect on.
func DefaultParams() Params {
	p := Params{
		Structure: MinimumPhase,
		EffectOn:  true,
		RMS:       10,
	}
	for i := range p.Bands {
		p.Bands[i] = DefaultBandParams()
	}

	return p
}

// sideParams returns the effective sidechain filter parameters.
func (b *BandParams) sideParams() design.Params {
	side := b.Side
	if b.SideLink {
		side.Freq = b.Filter.Freq
		side.Q = b.Filter.Q
	}

	return side
}

func clampFinite(x, lo, hi, fallback float64) float64 {
	if math.IsNaN(x) {
		return fallback
	}

	return core.Clamp(x, lo, hi)
}

func normalizeFilter(p design.Params) design.Params {
	p = p.Normalized()
	p.Freq = clampFinite(p.Freq, MinFreq, MaxFreq, 1000)
	p.Gain = core.Clamp(p.Gain, -MaxGainDB, MaxGainDB)
	p.Q = core.Clamp(p.Q, MinQ, MaxQ)

	return p
}

// normalize clamps every value to its legal range, so the audio goroutine
// can trust a published snapshot.
func (p *Params) normalize(maxLookaheadMS, maxRMSMS float64) {
	if p.Structure < 0 || p.Structure >= numStructures {
		p.Structure = MinimumPhase
	}

	p.Lookahead = clampFinite(p.Lookahead, 0, maxLookaheadMS, 0)
	p.RMS = clampFinite(p.RMS, 0, maxRMSMS, 10)
	p.OutputGain = clampFinite(p.OutputGain, -MaxOutputDB, MaxOutputDB, 0)

	if p.Solo.Band < 0 || p.Solo.Band >= NumBands {
		p.Solo = SoloRequest{}
	}

	for i := range p.Bands {
		b := &p.Bands[i]
		if b.Group < 0 || b.Group >= numGroups {
			b.Group = Stereo
		}

		b.Filter = normalizeFilter(b.Filter)
		b.Side = normalizeFilter(b.Side)
		b.TargetGain = clampFinite(b.TargetGain, -MaxGainDB, MaxGainDB, 0)
		b.TargetQ = clampFinite(b.TargetQ, MinQ, MaxQ, design.DefaultQ)

		b.Threshold = clampFinite(b.Threshold, MinThresholdDB, MaxThresholdDB, -20)
		b.Ratio = clampFinite(b.Ratio, 1, MaxRatio, 1)
		b.Knee = clampFinite(b.Knee, 0, MaxKneeDB, 0)
		b.Bound = clampFinite(b.Bound, 0, MaxBoundDB, MaxBoundDB)
		b.Attack = clampFinite(b.Attack, 0, MaxTimeMS, 0)
		b.Release = clampFinite(b.Release, 0, MaxTimeMS, 0)
	}
}
