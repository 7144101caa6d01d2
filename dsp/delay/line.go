// Package delay provides integer-sample delay lines used for lookahead and
// latency alignment.
package delay

import (
	"errors"
	"fmt"
)

// ErrInvalidSize is returned for non-positive delay capacities.
var ErrInvalidSize = errors.New("delay: size must be > 0")

// Line is a circular single-channel delay line.
type Line struct {
	buffer   []float64
	writePos int
}

// New returns a delay line that can delay by up to size-1 samples.
func New(size int) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	return &Line{buffer: make([]float64, size)}, nil
}

// Len returns the internal buffer size.
func (d *Line) Len() int {
	return len(d.buffer)
}

// Write writes one sample.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = sample
	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Read returns the sample written delay samples before the most recent one.
func (d *Line) Read(delay int) float64 {
	size := len(d.buffer)
	readPos := (d.writePos - 1 - delay + 2*size) % size

	return d.buffer[readPos]
}

// ProcessBlock delays buf in place by delay samples.
func (d *Line) ProcessBlock(buf []float64, delay int) {
	if delay <= 0 {
		for _, x := range buf {
			d.Write(x)
		}
		return
	}

	for i, x := range buf {
		d.Write(x)
		buf[i] = d.Read(delay)
	}
}

// Reset clears the line.
func (d *Line) Reset() {
	clear(d.buffer)
	d.writePos = 0
}
