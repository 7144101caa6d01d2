package biquad

// Topology selects the runtime realization of a [Cascade].
type Topology int

const (
	// DirectForm runs every section as a DF-II-T biquad.
	DirectForm Topology = iota
	// StateVariable runs every section as a TPT state-variable filter.
	StateVariable
)

// Cascade is an ordered chain of second-order sections with a selectable
// topology. Storage for maxSections is allocated up front so coefficient
// updates on the audio thread never allocate.
type Cascade struct {
	topology Topology
	coeffs   []Coefficients
	df       []Section
	svf      []SVF
}

// NewCascade returns an empty cascade able to hold maxSections sections.
func NewCascade(maxSections int, topology Topology) *Cascade {
	return &Cascade{
		topology: topology,
		coeffs:   make([]Coefficients, 0, maxSections),
		df:       make([]Section, maxSections),
		svf:      make([]SVF, maxSections),
	}
}

// SetCoefficients replaces the section coefficients. When the section count is
// unchanged the filter state is kept; otherwise it is cleared. Sections beyond
// the capacity given to NewCascade are ignored.
func (c *Cascade) SetCoefficients(coeffs []Coefficients) {
	if len(coeffs) > cap(c.coeffs) {
		coeffs = coeffs[:cap(c.coeffs)]
	}

	if len(coeffs) != len(c.coeffs) {
		c.coeffs = c.coeffs[:len(coeffs)]
		c.Reset()
	}

	copy(c.coeffs, coeffs)

	for i, k := range c.coeffs {
		c.df[i].Coefficients = k
		c.svf[i].SetCoefficients(k)
	}
}

// Coefficients returns the active section coefficients.
func (c *Cascade) Coefficients() []Coefficients {
	return c.coeffs
}

// Len returns the number of active sections.
func (c *Cascade) Len() int {
	return len(c.coeffs)
}

// Topology returns the active topology.
func (c *Cascade) Topology() Topology {
	return c.topology
}

// SetTopology switches the realization. State is cleared on change.
func (c *Cascade) SetTopology(t Topology) {
	if t == c.topology {
		return
	}

	c.topology = t
	c.Reset()
}

// ProcessBlock filters buf in place through every section.
func (c *Cascade) ProcessBlock(buf []float64) {
	n := len(c.coeffs)
	if c.topology == StateVariable {
		for i := range n {
			c.svf[i].ProcessBlock(buf)
		}

		return
	}

	for i := range n {
		c.df[i].ProcessBlock(buf)
	}
}

// Reset clears the state of every section.
func (c *Cascade) Reset() {
	for i := range c.df {
		c.df[i].Reset()
		c.svf[i].Reset()
	}
}
