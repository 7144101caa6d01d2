// Package spatial provides stereo-field decompositions used to route EQ
// bands to left/right or mid/side components.
package spatial

import vecmath "github.com/cwbudde/algo-vecmath"

// Mode selects the decomposition of a Splitter.
type Mode int

const (
	// LeftRight splits a stereo pair into its two channels.
	LeftRight Mode = iota
	// MidSide encodes mid = (L+R)/2 and side = (L-R)/2.
	MidSide
)

// String returns the mode name.
func (m Mode) String() string {
	if m == MidSide {
		return "mid-side"
	}

	return "left-right"
}

// Splitter decomposes a stereo block into two mono components held in its
// own scratch storage and recombines them. Combine(Split(x)) reproduces x.
// The input block is never modified by Split.
type Splitter struct {
	mode   Mode
	a, b   []float64
	n      int
	va, vb [1][]float64
}

// NewSplitter returns a splitter for blocks of up to maxBlock frames.
func NewSplitter(mode Mode, maxBlock int) *Splitter {
	return &Splitter{
		mode: mode,
		a:    make([]float64, maxBlock),
		b:    make([]float64, maxBlock),
	}
}

// Mode returns the decomposition mode.
func (s *Splitter) Mode() Mode {
	return s.mode
}

// Split decomposes the first two channels of src.
func (s *Splitter) Split(src [][]float64) {
	s.n = len(src[0])
	a, b := s.a[:s.n], s.b[:s.n]
	l, r := src[0], src[1]

	if s.mode == LeftRight {
		copy(a, l)
		copy(b, r)
	} else {
		copy(a, l)
		vecmath.AddBlockInPlace(a, r)
		vecmath.ScaleBlock(a, a, 0.5)

		vecmath.ScaleBlock(b, r, -1)
		vecmath.AddBlockInPlace(b, l)
		vecmath.ScaleBlock(b, b, 0.5)
	}

	s.va[0], s.vb[0] = a, b
}

// Combine writes the recombined components into the first two channels of dst.
func (s *Splitter) Combine(dst [][]float64) {
	a, b := s.a[:s.n], s.b[:s.n]
	l, r := dst[0][:s.n], dst[1][:s.n]

	if s.mode == LeftRight {
		copy(l, a)
		copy(r, b)

		return
	}

	copy(l, a)
	vecmath.AddBlockInPlace(l, b)

	vecmath.ScaleBlock(r, b, -1)
	vecmath.AddBlockInPlace(r, a)
}

// A returns the first component (left or mid) as a one-channel view.
func (s *Splitter) A() [][]float64 {
	return s.va[:]
}

// B returns the second component (right or side) as a one-channel view.
func (s *Splitter) B() [][]float64 {
	return s.vb[:]
}

// Component returns A for i == 0 and B otherwise.
func (s *Splitter) Component(i int) [][]float64 {
	if i == 0 {
		return s.A()
	}

	return s.B()
}
