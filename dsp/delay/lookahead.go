package delay

import "fmt"

// Lookahead delays a fixed set of channels by a common, adjustable number of
// samples. The capacity is fixed at construction so SetDelay never allocates.
type Lookahead struct {
	lines []*Line
	max   int
	delay int
}

// NewLookahead returns a delay for channels channels of up to maxDelay samples.
func NewLookahead(channels, maxDelay int) (*Lookahead, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("delay: lookahead channels must be > 0: %d", channels)
	}

	l := &Lookahead{lines: make([]*Line, channels), max: max(maxDelay, 0)}
	for ch := range l.lines {
		line, err := New(l.max + 1)
		if err != nil {
			return nil, err
		}
		l.lines[ch] = line
	}

	return l, nil
}

// SetDelay sets the delay in samples, clamped to [0, MaxDelay].
func (l *Lookahead) SetDelay(samples int) {
	l.delay = max(0, min(samples, l.max))
}

// Delay returns the current delay in samples.
func (l *Lookahead) Delay() int {
	return l.delay
}

// MaxDelay returns the capacity in samples.
func (l *Lookahead) MaxDelay() int {
	return l.max
}

// Process delays every channel of bufs in place. Extra channels are ignored.
func (l *Lookahead) Process(bufs [][]float64) {
	for ch := range min(len(bufs), len(l.lines)) {
		l.lines[ch].ProcessBlock(bufs[ch], l.delay)
	}
}

// Reset clears all lines.
func (l *Lookahead) Reset() {
	for _, line := range l.lines {
		line.Reset()
	}
}
