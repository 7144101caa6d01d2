package spectrum

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	algofft "github.com/MeKo-Christian/algo-fft"
	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-dyneq/dsp/buffer"
	"github.com/cwbudde/algo-dyneq/dsp/core"
	"github.com/cwbudde/algo-dyneq/dsp/delay"
	"github.com/cwbudde/algo-dyneq/dsp/window"
)

// Errors returned by the analyzer.
var (
	ErrInvalidFFTSize = errors.New("spectrum: FFT size must be a power of two >= 16")
	ErrRunning        = errors.New("spectrum: analyzer already running")
)

// Tap identifies one observed signal.
type Tap int

const (
	Pre Tap = iota
	Post
	Side

	numTaps = 3
)

// String returns the tap name.
func (t Tap) String() string {
	switch t {
	case Pre:
		return "pre"
	case Post:
		return "post"
	case Side:
		return "side"
	default:
		return "unknown"
	}
}

// Option configures an Analyzer.
type Option func(*config)

type config struct {
	fftSize  int
	decay    float64
	maxDelay int
}

// WithFFTSize sets the analysis frame length. Default 4096.
func WithFFTSize(n int) Option {
	return func(c *config) { c.fftSize = n }
}

// WithDecay sets the exponential averaging factor in [0, 1). Zero disables
// averaging. Default 0.8.
func WithDecay(decay float64) Option {
	return func(c *config) { c.decay = core.Clamp(decay, 0, 0.999) }
}

// WithMaxTapDelay bounds the delay SetTapDelay can apply to the pre and side
// taps. Default 0.
func WithMaxTapDelay(samples int) Option {
	return func(c *config) { c.maxDelay = max(samples, 0) }
}

// Spectrum is one analyzer result in dB per bin.
type Spectrum struct {
	Freqs []float64
	Pre   []float64
	Post  []float64
	Side  []float64
}

// Tap returns the bins of t.
func (s *Spectrum) Tap(t Tap) []float64 {
	switch t {
	case Pre:
		return s.Pre
	case Post:
		return s.Post
	default:
		return s.Side
	}
}

func (s *Spectrum) ensure(bins int) {
	s.Freqs = core.EnsureLen(s.Freqs, bins)
	s.Pre = core.EnsureLen(s.Pre, bins)
	s.Post = core.EnsureLen(s.Post, bins)
	s.Side = core.EnsureLen(s.Side, bins)
}

// Analyzer computes averaged power spectra of the pre, post and side taps.
type Analyzer struct {
	cfg  config
	bins int

	// Audio goroutine only.
	mono    []float64
	monoBuf [][]float64
	delays  [numTaps]*delay.Lookahead
	rings   [numTaps]*buffer.FIFO

	// handoff guards frames and fresh.
	handoff sync.Mutex
	frames  [numTaps][][]float64
	fresh   bool
	wake    chan struct{}

	// Worker goroutine only.
	plan    *algofft.Plan[complex128]
	win     []float64
	work    [numTaps][][]float64
	spec    []complex128
	re, im  []float64
	power   []float64
	average [numTaps][]float64

	// result guards snapshot.
	result   sync.Mutex
	snapshot Spectrum

	frameCount atomic.Uint64
	running    atomic.Bool
}

// New returns an analyzer. Call Prepare before pushing audio.
func New(opts ...Option) (*Analyzer, error) {
	cfg := config{fftSize: 4096, decay: 0.8}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	n := cfg.fftSize
	if n < 16 || n&(n-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFFTSize, n)
	}

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("spectrum: failed to create FFT plan: %w", err)
	}

	win, err := window.Generate(window.TypeBlackmanHarris, n, window.WithPeriodic())
	if err != nil {
		return nil, fmt.Errorf("spectrum: %w", err)
	}

	// Normalize so a full-scale sine reads 0 dB.
	vecmath.ScaleBlock(win, win, 2/(window.CoherentGain(win)*float64(n)))

	bins := n/2 + 1
	a := &Analyzer{
		cfg:   cfg,
		bins:  bins,
		wake:  make(chan struct{}, 1),
		plan:  plan,
		win:   win,
		spec:  make([]complex128, n),
		re:    make([]float64, bins),
		im:    make([]float64, bins),
		power: make([]float64, bins),
	}
	for t := range numTaps {
		a.rings[t] = buffer.NewFIFO(1, n)
		a.frames[t] = core.AllocChannels(1, n)
		a.work[t] = core.AllocChannels(1, n)
		a.average[t] = make([]float64, bins)
		for k := range a.average[t] {
			a.average[t][k] = core.MinusInfinityDB
		}
		line, err := delay.NewLookahead(1, cfg.maxDelay)
		if err != nil {
			return nil, fmt.Errorf("spectrum: %w", err)
		}
		a.delays[t] = line
	}
	a.snapshot.ensure(bins)

	return a, nil
}

// Prepare sets the sample rate and the largest block a push may carry.
func (a *Analyzer) Prepare(sampleRate float64, maxBlock int) error {
	if !(sampleRate > 0) || maxBlock <= 0 {
		return fmt.Errorf("%w: sample rate %v, block %d", core.ErrInvalidSpec, sampleRate, maxBlock)
	}

	a.mono = make([]float64, maxBlock)
	a.monoBuf = [][]float64{a.mono}

	a.result.Lock()
	for k := range a.snapshot.Freqs {
		a.snapshot.Freqs[k] = float64(k) * sampleRate / float64(a.cfg.fftSize)
	}
	a.result.Unlock()

	a.Reset()

	return nil
}

// FFTSize returns the analysis frame length.
func (a *Analyzer) FFTSize() int { return a.cfg.fftSize }

// Bins returns the number of bins per tap.
func (a *Analyzer) Bins() int { return a.bins }

// Frames returns how many frames the worker has analyzed.
func (a *Analyzer) Frames() uint64 { return a.frameCount.Load() }

// SetTapDelay delays the pre and side taps so they line up with the post
// tap when the signal path adds latency. Audio goroutine only.
func (a *Analyzer) SetTapDelay(samples int) {
	a.delays[Pre].SetDelay(samples)
	a.delays[Side].SetDelay(samples)
}

// PushPre records the signal before processing.
func (a *Analyzer) PushPre(bufs [][]float64) { a.push(Pre, bufs) }

// PushPost records the processed signal.
func (a *Analyzer) PushPost(bufs [][]float64) { a.push(Post, bufs) }

// PushSide records the sidechain signal.
func (a *Analyzer) PushSide(bufs [][]float64) { a.push(Side, bufs) }

func (a *Analyzer) push(t Tap, bufs [][]float64) {
	if len(bufs) == 0 || a.mono == nil {
		return
	}

	n := min(len(bufs[0]), len(a.mono))
	mono := a.mono[:n]
	copy(mono, bufs[0][:n])
	for _, ch := range bufs[1:] {
		vecmath.AddBlockInPlace(mono, ch[:n])
	}
	if len(bufs) > 1 {
		vecmath.ScaleBlock(mono, mono, 1/float64(len(bufs)))
	}

	a.monoBuf[0] = mono
	a.delays[t].Process(a.monoBuf)
	a.rings[t].Overwrite(a.monoBuf)
}

// Process offers the latest frames to the worker. It never blocks: when the
// worker is copying the previous handoff the frame is skipped.
func (a *Analyzer) Process() {
	if !a.handoff.TryLock() {
		return
	}
	for t := range numTaps {
		a.rings[t].Latest(a.frames[t])
	}
	a.fresh = true
	a.handoff.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// Run analyzes handed-off frames until ctx is done. Only one Run may be
// active at a time.
func (a *Analyzer) Run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer a.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.wake:
			a.analyze()
		}
	}
}

// analyze runs one worker iteration.
func (a *Analyzer) analyze() {
	a.handoff.Lock()
	fresh := a.fresh
	if fresh {
		for t := range numTaps {
			copy(a.work[t][0], a.frames[t][0])
		}
		a.fresh = false
	}
	a.handoff.Unlock()

	if !fresh {
		return
	}

	for t := range numTaps {
		a.transform(a.work[t][0], a.average[t])
	}

	a.result.Lock()
	copy(a.snapshot.Pre, a.average[Pre])
	copy(a.snapshot.Post, a.average[Post])
	copy(a.snapshot.Side, a.average[Side])
	a.result.Unlock()

	a.frameCount.Add(1)
}

func (a *Analyzer) transform(frame, average []float64) {
	for i, v := range frame {
		a.spec[i] = complex(v*a.win[i], 0)
	}

	// Plans only fail on length mismatches.
	_ = a.plan.Forward(a.spec, a.spec)

	for k := range a.bins {
		a.re[k] = real(a.spec[k])
		a.im[k] = imag(a.spec[k])
	}
	vecmath.Power(a.power, a.re, a.im)

	decay := a.cfg.decay
	for k, p := range a.power {
		db := core.LinearPowerToDB(p)
		if average[k] <= core.MinusInfinityDB || decay == 0 {
			average[k] = db
			continue
		}
		average[k] = decay*average[k] + (1-decay)*db
	}
}

// TrySnapshot copies the latest result into dst. It returns false without
// waiting when the worker is publishing; the caller skips that frame.
func (a *Analyzer) TrySnapshot(dst *Spectrum) bool {
	if !a.result.TryLock() {
		return false
	}
	defer a.result.Unlock()

	dst.ensure(a.bins)
	copy(dst.Freqs, a.snapshot.Freqs)
	copy(dst.Pre, a.snapshot.Pre)
	copy(dst.Post, a.snapshot.Post)
	copy(dst.Side, a.snapshot.Side)

	return true
}

// PeakFrequency returns the frequency of the loudest bin of tap t in s.
func (s *Spectrum) PeakFrequency(t Tap) float64 {
	bins := s.Tap(t)
	best, at := math.Inf(-1), 0
	for k, v := range bins {
		if v > best {
			best, at = v, k
		}
	}
	if at >= len(s.Freqs) {
		return 0
	}

	return s.Freqs[at]
}

// Reset clears the rings and delays. Audio goroutine only.
func (a *Analyzer) Reset() {
	for t := range numTaps {
		a.rings[t].Reset()
		a.delays[t].Reset()
	}
}
