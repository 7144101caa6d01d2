package core

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSpec is returned when a ProcessSpec cannot be used to prepare a
// processor.
var ErrInvalidSpec = errors.New("core: invalid process spec")

// ProcessSpec describes the stream a processor is prepared for.
// Everything that allocates is sized from it, so processing never allocates.
type ProcessSpec struct {
	SampleRate   float64
	MaxBlockSize int
	Channels     int
}

// ProcessOption mutates a ProcessSpec.
type ProcessOption func(*ProcessSpec)

// DefaultProcessSpec returns sensible defaults for real-time use.
func DefaultProcessSpec() ProcessSpec {
	return ProcessSpec{
		SampleRate:   48000,
		MaxBlockSize: 1024,
		Channels:     2,
	}
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) ProcessOption {
	return func(spec *ProcessSpec) {
		if sampleRate > 0 {
			spec.SampleRate = sampleRate
		}
	}
}

// WithMaxBlockSize sets the largest block the host will ever pass.
func WithMaxBlockSize(blockSize int) ProcessOption {
	return func(spec *ProcessSpec) {
		if blockSize > 0 {
			spec.MaxBlockSize = blockSize
		}
	}
}

// WithChannels sets the channel count.
func WithChannels(channels int) ProcessOption {
	return func(spec *ProcessSpec) {
		if channels > 0 {
			spec.Channels = channels
		}
	}
}

// ApplyProcessOptions applies zero or more options to the default spec.
func ApplyProcessOptions(opts ...ProcessOption) ProcessSpec {
	spec := DefaultProcessSpec()
	for _, opt := range opts {
		if opt != nil {
			opt(&spec)
		}
	}

	return spec
}

// Validate reports whether the spec can be used to prepare a processor.
func (s ProcessSpec) Validate() error {
	if s.SampleRate <= 0 || math.IsNaN(s.SampleRate) || math.IsInf(s.SampleRate, 0) {
		return fmt.Errorf("%w: sample rate %v", ErrInvalidSpec, s.SampleRate)
	}

	if s.MaxBlockSize <= 0 {
		return fmt.Errorf("%w: max block size %d", ErrInvalidSpec, s.MaxBlockSize)
	}

	if s.Channels <= 0 {
		return fmt.Errorf("%w: channels %d", ErrInvalidSpec, s.Channels)
	}

	return nil
}

// Samples converts a duration in seconds to a whole number of samples.
func (s ProcessSpec) Samples(seconds float64) int {
	if seconds <= 0 {
		return 0
	}

	return int(math.Round(seconds * s.SampleRate))
}
