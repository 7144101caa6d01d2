// Package signal generates deterministic test material for driving the
// equalizer offline.
package signal

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-dyneq/dsp/core"
)

// Generator creates deterministic signals at a fixed sample rate.
type Generator struct {
	spec core.ProcessSpec
	seed int64
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed sets the random seed used for noise.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// NewGenerator returns a generator for the sample rate in spec.
func NewGenerator(spec core.ProcessSpec, opts ...Option) (*Generator, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("signal: %w", err)
	}

	g := &Generator{spec: spec, seed: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g, nil
}

// SampleRate returns the generator sample rate.
func (g *Generator) SampleRate() float64 {
	return g.spec.SampleRate
}

// Sine generates a sine wave with the given peak amplitude.
func (g *Generator) Sine(freqHz, amplitude float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("signal: sine samples must be > 0: %d", samples)
	}

	out := make([]float64, samples)
	step := 2 * math.Pi * freqHz / g.spec.SampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out, nil
}

// WhiteNoise generates deterministic white noise in [-amplitude, amplitude].
func (g *Generator) WhiteNoise(amplitude float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("signal: noise samples must be > 0: %d", samples)
	}
	if amplitude < 0 {
		return nil, fmt.Errorf("signal: noise amplitude must be >= 0: %f", amplitude)
	}

	out := make([]float64, samples)
	rng := rand.New(rand.NewSource(g.seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}

	return out, nil
}

// LevelSteps generates a phase-continuous sine whose peak level walks
// through levelsDB (dBFS), holding each level for stepSamples samples.
func (g *Generator) LevelSteps(freqHz float64, levelsDB []float64, stepSamples int) ([]float64, error) {
	if len(levelsDB) == 0 {
		return nil, fmt.Errorf("signal: no levels")
	}
	if stepSamples <= 0 {
		return nil, fmt.Errorf("signal: step samples must be > 0: %d", stepSamples)
	}

	out := make([]float64, len(levelsDB)*stepSamples)
	step := 2 * math.Pi * freqHz / g.spec.SampleRate
	for i := range out {
		amp := core.DBToLinear(levelsDB[i/stepSamples])
		out[i] = amp * math.Sin(step*float64(i))
	}

	return out, nil
}
