// Package correction implements the fixed-latency FIR stages that follow or
// replace the minimum-phase filter bank: a matched-phase correction, a
// mixed-phase correction that only acts above a crossover region, and a
// linear-phase bank that realizes the ideal responses directly.
//
// Each stage designs a zero-phase FIR of length L from a target magnitude
// sampled on L/2+1 bins, shifts it by L/2 and windows it. The latency of a
// stage is therefore L/2 samples whatever the bands contribute. Kernels are
// rebuilt lazily: SetToUpdate marks the stage dirty and the next Process
// call rebuilds once before filtering.
package correction

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-dyneq/dsp/conv"
	"github.com/cwbudde/algo-dyneq/dsp/core"
	"github.com/cwbudde/algo-dyneq/dsp/window"
	"github.com/cwbudde/algo-dyneq/internal/recompute"
)

// ErrNotPrepared is returned when a stage is used before Prepare.
var ErrNotPrepared = errors.New("correction: stage not prepared")

// Kind selects what a stage corrects towards.
type Kind int

const (
	// Matched corrects the full band towards the ideal response.
	Matched Kind = iota
	// Mixed leaves low frequencies minimum-phase and corrects above them.
	Mixed
	// Linear realizes the ideal responses without any IIR stage.
	Linear
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Matched:
		return "matched"
	case Mixed:
		return "mixed"
	case Linear:
		return "linear"
	default:
		return "unknown"
	}
}

const (
	// MaxCorrectionDB bounds the boost or cut a matched or mixed stage
	// applies per bin.
	MaxCorrectionDB = 40.0
	// MinLinearDB floors the linear-phase target.
	MinLinearDB = -240.0
)

// Band is the response model of one contributing EQ band.
type Band interface {
	// AddResponseDB adds the achieved minimum-phase response at freqs to out.
	AddResponseDB(freqs, out []float64)
	// AddIdealDB adds the ideal prototype response at freqs to out.
	AddIdealDB(freqs, out []float64)
}

// Length returns the FIR length used by kind at sampleRate.
func Length(kind Kind, sampleRate float64) int {
	base := 8192
	if kind == Mixed {
		base = 4096
	}

	scale := 1
	for sampleRate > 50000*float64(scale) {
		scale *= 2
	}

	return base * scale
}

// Stage is one correction instance for a fixed number of channels.
type Stage struct {
	kind       Kind
	channels   int
	sampleRate float64
	length     int

	bands []Band
	dirty recompute.Flag

	// bypassed records whether the current kernel is the pure delay.
	bypassed bool

	plan     *algofft.Plan[complex128]
	freqs    []float64
	targetDB []float64
	scratch  []float64
	spectrum []complex128
	kernel   []float64
	win      []float64
	convs    []*conv.Streaming
}

// New returns an unprepared stage.
func New(kind Kind, channels int) *Stage {
	return &Stage{kind: kind, channels: channels}
}

// Prepare sizes the stage for sampleRate and blocks of up to maxBlock
// samples. It allocates; call it off the audio path.
func (s *Stage) Prepare(sampleRate float64, maxBlock int) error {
	if !(sampleRate > 0) {
		return fmt.Errorf("%w: sample rate %v", core.ErrInvalidSpec, sampleRate)
	}

	length := Length(s.kind, sampleRate)
	plan, err := algofft.NewPlan64(length)
	if err != nil {
		return fmt.Errorf("correction: failed to create FFT plan: %w", err)
	}

	win, err := window.Generate(window.TypeHann, length, window.WithPeriodic())
	if err != nil {
		return fmt.Errorf("correction: %w", err)
	}

	convs := make([]*conv.Streaming, s.channels)
	for ch := range convs {
		convs[ch], err = conv.NewStreaming(length, maxBlock)
		if err != nil {
			return fmt.Errorf("correction: %w", err)
		}
	}

	bins := length/2 + 1
	s.sampleRate = sampleRate
	s.length = length
	s.plan = plan
	s.win = win
	s.convs = convs
	s.freqs = make([]float64, bins)
	s.targetDB = make([]float64, bins)
	s.scratch = make([]float64, bins)
	s.spectrum = make([]complex128, length)
	s.kernel = make([]float64, length)
	for k := range s.freqs {
		s.freqs[k] = float64(k) * sampleRate / float64(length)
	}

	s.bypassed = false
	s.dirty.MarkDirty()

	return nil
}

// Kind returns the stage kind.
func (s *Stage) Kind() Kind { return s.kind }

// Len returns the FIR length, or 0 before Prepare.
func (s *Stage) Len() int { return s.length }

// Latency returns the delay the stage adds, in samples.
func (s *Stage) Latency() int { return s.length / 2 }

// Freqs returns the bin frequencies the target is sampled at.
func (s *Stage) Freqs() []float64 { return s.freqs }

// SetBands replaces the contributing bands and marks the stage dirty. The
// slice is copied into storage reused across calls.
func (s *Stage) SetBands(bands []Band) {
	s.bands = append(s.bands[:0], bands...)
	s.dirty.MarkDirty()
}

// SetToUpdate requests a kernel rebuild before the next block.
func (s *Stage) SetToUpdate() {
	s.dirty.MarkDirty()
}

// Pending reports whether a rebuild is scheduled.
func (s *Stage) Pending() bool {
	return s.dirty.IsDirty()
}

// Process filters bufs in place. With bypass set the stage acts as a pure
// delay of Latency samples, so switching it never changes the latency.
// Block lengths must not exceed the maxBlock given to Prepare.
func (s *Stage) Process(bufs [][]float64, bypass bool) {
	if s.plan == nil {
		return
	}

	if bypass != s.bypassed {
		s.bypassed = bypass
		s.dirty.MarkDirty()
	}
	s.dirty.Run(s.rebuild)

	for ch, buf := range bufs {
		if ch >= len(s.convs) {
			break
		}
		// Block sizes are bounded by Prepare.
		_ = s.convs[ch].ProcessBlock(buf, buf)
	}
}

// Reset clears the convolution tails.
func (s *Stage) Reset() {
	for _, c := range s.convs {
		c.Reset()
	}
}

func (s *Stage) rebuild() {
	if s.bypassed {
		core.Zero(s.kernel)
		s.kernel[s.length/2] = 1
		s.setKernel()
		return
	}

	s.computeTarget()
	s.designKernel()
	s.setKernel()
}

func (s *Stage) computeTarget() {
	core.Zero(s.targetDB)
	for _, b := range s.bands {
		b.AddIdealDB(s.freqs, s.targetDB)
	}

	if s.kind == Linear {
		for k, v := range s.targetDB {
			s.targetDB[k] = math.Max(v, MinLinearDB)
		}
		return
	}

	core.Zero(s.scratch)
	for _, b := range s.bands {
		b.AddResponseDB(s.freqs, s.scratch)
	}

	for k := range s.targetDB {
		diff := core.Clamp(s.targetDB[k]-s.scratch[k], -MaxCorrectionDB, MaxCorrectionDB)
		if s.kind == Mixed {
			diff *= mixedFade(s.freqs[k], s.sampleRate)
		}
		s.targetDB[k] = diff
	}
}

// mixedFade is 0 below fs/64, 1 above fs/16 and rises linearly in octaves
// in between.
func mixedFade(freq, sampleRate float64) float64 {
	lo := sampleRate / 64
	if freq <= lo {
		return 0
	}

	return core.Clamp(math.Log2(freq/lo)/2, 0, 1)
}

func (s *Stage) designKernel() {
	n := s.length
	for k, db := range s.targetDB {
		s.spectrum[k] = complex(core.DBToLinear(db), 0)
	}
	for k := n/2 + 1; k < n; k++ {
		s.spectrum[k] = s.spectrum[n-k]
	}

	// The plans only fail on length mismatches, which Prepare rules out.
	_ = s.plan.Inverse(s.spectrum, s.spectrum)

	half := n / 2
	for i := range s.kernel {
		s.kernel[i] = real(s.spectrum[(i+half)%n]) * s.win[i]
	}
}

func (s *Stage) setKernel() {
	for _, c := range s.convs {
		_ = c.SetKernel(s.kernel)
	}
}
