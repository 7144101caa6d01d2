package dyneq

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-dyneq/dsp/buffer"
	"github.com/cwbudde/algo-dyneq/dsp/core"
	"github.com/cwbudde/algo-dyneq/dsp/delay"
	"github.com/cwbudde/algo-dyneq/dsp/filter/correction"
	"github.com/cwbudde/algo-dyneq/dsp/filter/design"
	"github.com/cwbudde/algo-dyneq/dsp/filter/eqfilter"
	"github.com/cwbudde/algo-dyneq/dsp/spectrum"
	"github.com/cwbudde/algo-dyneq/measure/loudness"
)

var (
	// ErrNotPrepared is returned by readouts before Prepare.
	ErrNotPrepared = errors.New("dyneq: controller not prepared")
	// ErrBandIndex is returned for band indices outside [0, NumBands).
	ErrBandIndex = errors.New("dyneq: band index out of range")
)

const (
	defaultSubBuffer    = 5 * time.Millisecond
	defaultMaxLookahead = 20 * time.Millisecond
	defaultMaxRMS       = 40 * time.Millisecond

	numKinds = 3
)

// Option configures a Controller.
type Option func(*config)

type config struct {
	subBuffer    time.Duration
	maxLookahead time.Duration
	maxRMS       time.Duration
	onLatency    func(samples int)
	analyzer     *spectrum.Analyzer
}

// WithSubBufferDuration sets the length of the fixed sub-buffers the engine
// processes. It is also the latency the scheduler adds.
func WithSubBufferDuration(d time.Duration) Option {
	return func(c *config) { c.subBuffer = d }
}

// WithLatencyCallback registers fn to receive the total latency in samples
// whenever it changes. fn runs on a goroutine owned by the controller.
func WithLatencyCallback(fn func(samples int)) Option {
	return func(c *config) { c.onLatency = fn }
}

// WithAnalyzer feeds the pre, post and side taps into a. Prepare prepares
// the analyzer too. The pre and side taps are delayed by the correction
// latency, up to the analyzer's WithMaxTapDelay.
func WithAnalyzer(a *spectrum.Analyzer) Option {
	return func(c *config) { c.analyzer = a }
}

// WithMaxLookahead bounds the lookahead parameter.
func WithMaxLookahead(d time.Duration) Option {
	return func(c *config) { c.maxLookahead = d }
}

// WithMaxRMS bounds the detector window parameter.
func WithMaxRMS(d time.Duration) Option {
	return func(c *config) { c.maxRMS = d }
}

// Controller is the dynamic equalizer engine.
//
// Parameters are changed through Update and the setters from any number of
// control goroutines. Process, Prepare and Reset belong to the audio
// goroutine; Prepare and Reset must not overlap Process.
type Controller struct {
	cfg config

	mu     sync.Mutex
	params atomic.Pointer[Params]

	prepared   atomic.Bool
	rate       atomic.Uint64
	latency    atomic.Int64
	notifier   *latencyNotifier
	sampleRate float64
	maxBlock   int
	subSize    int

	// Audio goroutine state.
	current     *Params
	ops         *structureOps
	bypassed    bool
	zeroLatency bool
	fn          groupFuncs

	bands       [NumBands]*band
	routing     routingTable
	router      groupRouter
	trackers    [numGroups]*loudness.Tracker
	sgc         [numGroups]rampGain
	autoGain    *autoGain
	output      rampGain
	corrections [numKinds][numGroups]*correction.Stage
	bound       []correction.Band
	solo        *eqfilter.Filter
	grid        []float64

	lookahead *delay.Lookahead
	sub       *buffer.SubBuffer

	sideBuf              [][]float64
	block                [][]float64
	mainView, sideView   [][]float64
	chunkMain, chunkSide [][]float64
}

var zeroParams Params

// New returns a controller holding DefaultParams. Call Prepare before
// Process.
func New(opts ...Option) (*Controller, error) {
	cfg := config{
		subBuffer:    defaultSubBuffer,
		maxLookahead: defaultMaxLookahead,
		maxRMS:       defaultMaxRMS,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.subBuffer <= 0 {
		return nil, fmt.Errorf("%w: sub-buffer duration %v", core.ErrInvalidSpec, cfg.subBuffer)
	}
	if cfg.maxLookahead < 0 || cfg.maxRMS <= 0 {
		return nil, fmt.Errorf("%w: max lookahead %v, max rms %v", core.ErrInvalidSpec, cfg.maxLookahead, cfg.maxRMS)
	}

	c := &Controller{
		cfg:       cfg,
		routing:   newRoutingTable(),
		autoGain:  newAutoGain(),
		output:    newRampGain(),
		bound:     make([]correction.Band, 0, NumBands),
		grid:      compensationGrid(compensationPoints),
		block:     make([][]float64, 4),
		mainView:  make([][]float64, 2),
		sideView:  make([][]float64, 2),
		chunkMain: make([][]float64, 2),
		chunkSide: make([][]float64, 2),
	}
	for i := range c.bands {
		c.bands[i] = newBand(i)
	}
	for g := range c.trackers {
		c.trackers[g] = loudness.NewTracker(loudness.WithChannels(2))
		c.sgc[g] = newRampGain()
	}
	c.bindGroupFuncs()

	p := DefaultParams()
	p.normalize(milliseconds(cfg.maxLookahead), milliseconds(cfg.maxRMS))
	c.params.Store(&p)

	if cfg.onLatency != nil {
		c.notifier = newLatencyNotifier(cfg.onLatency)
	}

	return c, nil
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Prepare allocates every buffer for sampleRate and host blocks of up to
// maxBlock frames. Larger blocks are processed in maxBlock chunks.
func (c *Controller) Prepare(sampleRate float64, maxBlock int) error {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) || maxBlock <= 0 {
		return fmt.Errorf("%w: sample rate %v, block %d", core.ErrInvalidSpec, sampleRate, maxBlock)
	}

	c.prepared.Store(false)

	subSize := max(1, int(math.Round(c.cfg.subBuffer.Seconds()*sampleRate)))
	maxRMS := c.cfg.maxRMS.Seconds()

	for _, b := range c.bands {
		if err := b.prepare(sampleRate, maxRMS, subSize); err != nil {
			return err
		}
	}
	for _, t := range c.trackers {
		if err := t.Prepare(sampleRate, maxRMS); err != nil {
			return fmt.Errorf("dyneq: tracker: %w", err)
		}
	}
	if err := c.autoGain.prepare(sampleRate); err != nil {
		return err
	}

	for kind := range numKinds {
		for g := range numGroups {
			channels := 1
			if RoutingGroup(g) == Stereo {
				channels = 2
			}
			st := correction.New(correction.Kind(kind), channels)
			if err := st.Prepare(sampleRate, subSize); err != nil {
				return fmt.Errorf("dyneq: %v correction: %w", correction.Kind(kind), err)
			}
			c.corrections[kind][g] = st
		}
	}

	lookahead, err := delay.NewLookahead(2, int(math.Round(c.cfg.maxLookahead.Seconds()*sampleRate)))
	if err != nil {
		return fmt.Errorf("dyneq: %w", err)
	}
	sub, err := buffer.NewSubBuffer(4, subSize, maxBlock)
	if err != nil {
		return fmt.Errorf("dyneq: %w", err)
	}

	if a := c.cfg.analyzer; a != nil {
		if err := a.Prepare(sampleRate, subSize); err != nil {
			return fmt.Errorf("dyneq: analyzer: %w", err)
		}
	}

	c.solo = eqfilter.New(2, subSize)
	c.solo.SetStructure(eqfilter.SVF)
	c.solo.Prepare(sampleRate)

	c.router = newGroupRouter(subSize)
	c.lookahead = lookahead
	c.sub = sub
	c.sideBuf = core.AllocChannels(2, maxBlock)
	c.sampleRate = sampleRate
	c.maxBlock = maxBlock
	c.subSize = subSize
	c.rate.Store(math.Float64bits(sampleRate))

	c.current = nil
	c.zeroLatency = false
	c.output = newRampGain()
	c.latency.Store(-1)
	c.sync(c.params.Load())
	c.zeroLatency = c.current.ZeroLatency

	c.prepared.Store(true)

	return nil
}

// Process runs the engine over buf in place. Channels 0 and 1 carry the
// main signal, channels 2 and 3 the external sidechain. Without sidechain
// channels, or with SideChain off, the main signal drives the detectors.
func (c *Controller) Process(buf [][]float64) {
	if !c.prepared.Load() || len(buf) < 2 {
		return
	}

	n := len(buf[0])
	for off := 0; off < n; off += c.maxBlock {
		c.processBlock(buf, off, min(c.maxBlock, n-off))
	}
}

func (c *Controller) processBlock(buf [][]float64, off, n int) {
	c.sync(c.params.Load())
	p := c.current

	main := core.Slice(c.mainView, buf[:2], off, n)
	var side [][]float64
	if len(buf) >= 4 {
		side = core.Slice(c.sideView, buf[2:4], off, n)
	} else {
		side = core.Slice(c.sideView, c.sideBuf, 0, n)
	}
	if !p.SideChain || len(buf) < 4 {
		core.CopyChannels(side, main)
	}

	c.lookahead.Process(main)

	if p.ZeroLatency != c.zeroLatency {
		c.zeroLatency = p.ZeroLatency
		c.sub.Reset()
	}

	if c.zeroLatency {
		for o := 0; o < n; o += c.subSize {
			k := min(c.subSize, n-o)
			c.processSub(core.Slice(c.chunkMain, main, o, k), core.Slice(c.chunkSide, side, o, k))
		}
	} else {
		c.block[0], c.block[1], c.block[2], c.block[3] = main[0], main[1], side[0], side[1]
		c.sub.Push(c.block)
		for c.sub.Ready() {
			s := c.sub.Next()
			c.processSub(s[:2], s[2:4])
			c.sub.Commit()
		}
		c.sub.Pop(c.block)
	}

	if p.PhaseFlip {
		for _, ch := range main {
			vecmath.ScaleBlock(ch, ch, -1)
		}
	}
}

func (c *Controller) processSub(main, side [][]float64) {
	c.sync(c.params.Load())
	p := c.current
	a := c.cfg.analyzer

	// Solo auditions the band on an otherwise bypassed path.
	c.bypassed = !p.EffectOn || p.Solo.Active

	if a != nil {
		a.PushPre(main)
	}

	c.ops.path(c, main, side)

	if !c.bypassed {
		c.output.process(main)
	}
	if p.EffectOn && p.Solo.Active {
		c.processSolo(main, side)
	}

	if a != nil {
		a.PushSide(side)
		a.PushPost(main)
		a.Process()
	}
}

func (c *Controller) processSolo(main, side [][]float64) {
	s := c.current.Solo
	if s.Side {
		core.CopyChannels(main, side)
	}

	own, other, split := c.router.view(c.current.Bands[s.Band].Group, main)
	c.solo.Process(own)
	if split != nil {
		core.ZeroChannels(other)
		split.Combine(main)
	}
}

// groupBaseline measures the sidechain loudness of group g. Silence maps to
// half the tracker floor so relative bands stay below their threshold.
func (c *Controller) groupBaseline(g RoutingGroup, side [][]float64) float64 {
	t := c.trackers[g]
	t.Process(side)

	db := t.Momentary()
	if db <= loudness.MinusInfinityDB+1 {
		return loudness.MinusInfinityDB * 0.5
	}

	return db
}

// sync applies the snapshot p if it differs from the one in effect.
func (c *Controller) sync(p *Params) {
	if p == c.current {
		return
	}

	first := c.current == nil
	prev := c.current
	if first {
		prev = &zeroParams
	}

	rebind := first
	if first || p.Structure != prev.Structure {
		c.setStructure(p.Structure)
		rebind = true
	}

	var touched [numGroups]bool
	routingDirty, sgcDirty := first, first
	for i, b := range c.bands {
		ch := b.apply(&prev.Bands[i], &p.Bands[i], first, c.grid)
		if ch&changeRouting != 0 {
			routingDirty = true
		}
		if ch&(changeRouting|changeBypass) != 0 {
			rebind = true
			sgcDirty = true
		}
		if ch&(changeStatic|changeDynamic) != 0 {
			touched[p.Bands[i].Group] = true
			sgcDirty = true
		}
	}

	if routingDirty {
		c.routing.rebuild(p)
	}
	if rebind {
		c.bindCorrections(p)
	} else {
		for g, t := range touched {
			if t {
				for kind := range numKinds {
					c.corrections[kind][g].SetToUpdate()
				}
			}
		}
	}

	if sgcDirty || p.SmoothStaticGain != prev.SmoothStaticGain {
		c.updateCompensation(p)
	}

	if first || p.RMS != prev.RMS {
		window := p.RMS / 1000
		for _, b := range c.bands {
			b.comp.SetRMS(window)
		}
		for _, t := range c.trackers {
			t.SetWindowSeconds(window)
		}
	}

	if !first && p.AutoGain != prev.AutoGain {
		c.autoGain.reset()
	}

	c.output.setTarget(core.DBToLinear(p.OutputGain))
	if first {
		c.output.snap()
	}

	c.lookahead.SetDelay(int(math.Round(p.Lookahead * c.sampleRate / 1000)))

	if first || p.Solo.Active || prev.Solo.Active {
		c.updateSolo(p, prev)
	}

	c.current = p
	c.updateLatency()
}

func (c *Controller) setStructure(s Structure) {
	c.ops = &structures[s]
	for _, b := range c.bands {
		b.main.SetStructure(c.ops.filter)
	}

	if c.ops.corrected {
		for _, st := range c.corrections[c.ops.kind] {
			st.Reset()
		}
	}
}

// bindCorrections hands every stage the non-bypassed bands of its group.
// The linear bank follows the static filters, the others the dynamic ones.
func (c *Controller) bindCorrections(p *Params) {
	for g := range numGroups {
		for kind := range numKinds {
			c.bound = c.bound[:0]
			for _, i := range c.routing.groups[g] {
				if p.Bands[i].Bypass {
					continue
				}
				if correction.Kind(kind) == correction.Linear {
					c.bound = append(c.bound, c.bands[i].static)
				} else {
					c.bound = append(c.bound, c.bands[i].main)
				}
			}
			c.corrections[kind][g].SetBands(c.bound)
		}
	}
}

// updateCompensation sets each group's static gain compensation to the
// product over its non-bypassed bands.
func (c *Controller) updateCompensation(p *Params) {
	for g := range numGroups {
		if !p.SmoothStaticGain {
			c.sgc[g] = newRampGain()
			continue
		}

		gain := 1.0
		for _, i := range c.routing.groups[g] {
			if !p.Bands[i].Bypass {
				gain *= c.bands[i].compensation
			}
		}
		c.sgc[g].setTarget(gain)
	}
}

func (c *Controller) updateSolo(p, prev *Params) {
	s := p.Solo
	if !s.Active {
		if prev.Solo.Active || prev == &zeroParams {
			c.solo.SetToRest()
		}
		return
	}

	b := &p.Bands[s.Band]
	fp := b.Filter
	if s.Side {
		fp = b.sideParams()
	}

	if s != prev.Solo {
		c.solo.Reset()
	}

	freq, q := soloParams(fp.Type, fp.Freq, fp.Q, c.sampleRate)
	c.solo.SetParams(design.Params{Type: design.BandPass, Order: 2, Freq: freq, Q: q})
}

// updateLatency recomputes the reported latency and notifies the host when
// it changed.
func (c *Controller) updateLatency() {
	lat := c.lookahead.Delay()
	if !c.current.ZeroLatency {
		lat += c.sub.Latency()
	}

	corr := 0
	if c.ops.corrected {
		corr = c.routing.activeGroups() * c.corrections[c.ops.kind][Stereo].Latency()
	}
	lat += corr

	if a := c.cfg.analyzer; a != nil {
		a.SetTapDelay(corr)
	}

	if old := c.latency.Swap(int64(lat)); old != int64(lat) && c.notifier != nil {
		c.notifier.post(lat)
	}
}

// Reset clears every signal state. Parameters and learned histograms are
// kept.
func (c *Controller) Reset() {
	if !c.prepared.Load() {
		return
	}

	for _, b := range c.bands {
		b.reset()
	}
	for _, t := range c.trackers {
		t.Reset()
	}
	for _, stages := range c.corrections {
		for _, st := range stages {
			st.Reset()
		}
	}
	c.autoGain.reset()
	c.solo.Reset()
	c.lookahead.Reset()
	c.sub.Reset()
}

// Latency returns the total latency in samples, or 0 before Prepare.
func (c *Controller) Latency() int {
	return int(max(c.latency.Load(), 0))
}

// SampleRate returns the prepared sample rate.
func (c *Controller) SampleRate() (float64, error) {
	if !c.prepared.Load() {
		return 0, ErrNotPrepared
	}

	return math.Float64frombits(c.rate.Load()), nil
}

// Close stops the latency notifier.
func (c *Controller) Close() error {
	if c.notifier != nil {
		c.notifier.close()
	}

	return nil
}
