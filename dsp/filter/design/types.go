package design

import "math"

// FilterType is the shape of an EQ band.
type FilterType int

const (
	Peak FilterType = iota
	LowShelf
	LowPass
	HighShelf
	HighPass
	Notch
	BandPass
	TiltShelf
	BandShelf
)

const (
	// MaxOrder is the steepest supported slope (6 dB/oct per order).
	MaxOrder = 8
	// MaxSections bounds the number of sections any plan produces.
	MaxSections = 8

	// DefaultQ is the Butterworth quality factor.
	DefaultQ = 1 / math.Sqrt2
)

var filterTypeNames = [...]string{
	Peak:      "peak",
	LowShelf:  "low-shelf",
	LowPass:   "low-pass",
	HighShelf: "high-shelf",
	HighPass:  "high-pass",
	Notch:     "notch",
	BandPass:  "band-pass",
	TiltShelf: "tilt-shelf",
	BandShelf: "band-shelf",
}

// String returns the type name.
func (t FilterType) String() string {
	if t < 0 || int(t) >= len(filterTypeNames) {
		return "unknown"
	}

	return filterTypeNames[t]
}

// HasGain reports whether the gain parameter affects this filter type.
func (t FilterType) HasGain() bool {
	switch t {
	case Peak, LowShelf, HighShelf, TiltShelf, BandShelf:
		return true
	default:
		return false
	}
}

// Parallelizable reports whether the band can be realized as a unity path
// plus a scaled band contribution, which is how the parallel structure
// processes it.
func (t FilterType) Parallelizable() bool {
	switch t {
	case Peak, LowShelf, HighShelf, BandShelf:
		return true
	default:
		return false
	}
}

// ParseFilterType resolves a type name as printed by String.
func ParseFilterType(name string) (FilterType, bool) {
	for i, n := range filterTypeNames {
		if n == name {
			return FilterType(i), true
		}
	}

	return Peak, false
}

// Params describes one EQ band.
type Params struct {
	Type  FilterType
	Order int
	Freq  float64 // Hz
	Gain  float64 // dB
	Q     float64
}

// Normalized returns p with the order and Q folded into supported values.
func (p Params) Normalized() Params {
	if p.Order < 1 {
		p.Order = 2
	}

	if p.Order > MaxOrder {
		p.Order = MaxOrder
	}

	if !(p.Q > 0) || math.IsInf(p.Q, 0) {
		p.Q = DefaultQ
	}

	if math.IsNaN(p.Gain) || math.IsInf(p.Gain, 0) {
		p.Gain = 0
	}

	return p
}
