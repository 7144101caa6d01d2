package dyneq

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/cwbudde/algo-dyneq/dsp/filter/correction"
	"github.com/cwbudde/algo-dyneq/dsp/filter/design"
	"github.com/cwbudde/algo-dyneq/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	testRate  = 48000.0
	testBlock = 512
	// 5 ms at 48 kHz.
	testSub = 240
)

var blockSizes = []int{testBlock, 100, 333, 1}

func newController(t *testing.T, opts ...Option) *Controller {
	t.Helper()

	c, err := New(opts...)
	require.NoError(t, err)
	require.NoError(t, c.Prepare(testRate, testBlock))
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	return c
}

// settle runs one tiny block so the audio side applies the latest snapshot.
func settle(c *Controller) {
	c.Process([][]float64{{0}, {0}})
}

func run(c *Controller, bufs [][]float64) {
	testutil.ForEachBlock(bufs, blockSizes, c.Process)
}

func stereoNoise(n int) [][]float64 {
	return [][]float64{
		testutil.DeterministicNoise(1, 0.5, n),
		testutil.DeterministicNoise(2, 0.5, n),
	}
}

func clone(bufs [][]float64) [][]float64 {
	out := make([][]float64, len(bufs))
	for ch := range bufs {
		out[ch] = append([]float64(nil), bufs[ch]...)
	}

	return out
}

// requireDelayed checks that got is want delayed by lat samples.
func requireDelayed(t *testing.T, got, want [][]float64, lat int, eps float64) {
	t.Helper()

	for ch := range want {
		n := len(want[ch])
		require.Greater(t, n, lat)
		for i := range lat {
			require.InDelta(t, 0, got[ch][i], eps, "ch %d index %d", ch, i)
		}
		testutil.RequireSliceNearlyEqual(t, got[ch][lat:], want[ch][:n-lat], eps)
	}
}

func activeBand(group RoutingGroup, gain float64) BandParams {
	b := DefaultBandParams()
	b.Active = true
	b.Group = group
	b.Filter.Gain = gain
	return b
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New(WithSubBufferDuration(0))
	require.Error(t, err)

	_, err = New(WithMaxRMS(0))
	require.Error(t, err)
}

func TestPrepareRejectsBadSpec(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	defer c.Close()

	require.Error(t, c.Prepare(0, testBlock))
	require.Error(t, c.Prepare(testRate, 0))
}

func TestProcessBeforePrepare(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	defer c.Close()

	buf := stereoNoise(64)
	want := clone(buf)
	c.Process(buf)
	assert.Equal(t, want, buf)

	_, err = c.SampleRate()
	require.ErrorIs(t, err, ErrNotPrepared)
	_, err = c.DynamicGain(0)
	require.ErrorIs(t, err, ErrNotPrepared)
	assert.Equal(t, 0, c.Latency())
}

func TestDefaultLatencyIsSubBuffer(t *testing.T) {
	c := newController(t)

	assert.Equal(t, testSub, c.Latency())

	rate, err := c.SampleRate()
	require.NoError(t, err)
	assert.Equal(t, testRate, rate)
}

func TestLatencyPerStructure(t *testing.T) {
	matched := correction.Length(correction.Matched, testRate) / 2
	mixed := correction.Length(correction.Mixed, testRate) / 2
	linear := correction.Length(correction.Linear, testRate) / 2

	tests := []struct {
		name      string
		structure Structure
		groups    []RoutingGroup
		want      int
	}{
		{name: "minimum", structure: MinimumPhase, groups: []RoutingGroup{Stereo, Left, Mid}, want: testSub},
		{name: "svf", structure: StateVariable, groups: []RoutingGroup{Side}, want: testSub},
		{name: "parallel", structure: Parallel, groups: []RoutingGroup{Right}, want: testSub},
		{name: "matched stereo", structure: MatchedPhase, groups: []RoutingGroup{Stereo}, want: testSub + matched},
		{name: "matched idle", structure: MatchedPhase, want: testSub + matched},
		{name: "mixed all groups", structure: MixedPhase, groups: []RoutingGroup{Stereo, Left, Mid}, want: testSub + 3*mixed},
		{name: "linear left right", structure: LinearPhase, groups: []RoutingGroup{Left, Right}, want: testSub + 2*linear},
		{name: "linear mid side", structure: LinearPhase, groups: []RoutingGroup{Mid, Side}, want: testSub + 2*linear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newController(t)
			c.Update(func(p *Params) {
				p.Structure = tt.structure
				for i, g := range tt.groups {
					p.Bands[i] = activeBand(g, 3)
				}
			})
			settle(c)

			assert.Equal(t, tt.want, c.Latency())
		})
	}
}

func TestStructureSwitchRestoresLatency(t *testing.T) {
	c := newController(t)
	require.NoError(t, c.SetBand(0, activeBand(Left, 6)))
	settle(c)
	before := c.Latency()

	c.SetStructure(MixedPhase)
	settle(c)
	assert.Equal(t, before+2*correction.Length(correction.Mixed, testRate)/2, c.Latency())

	c.SetStructure(MinimumPhase)
	settle(c)
	assert.Equal(t, before, c.Latency())
}

func TestLookaheadAndZeroLatency(t *testing.T) {
	c := newController(t)

	c.Update(func(p *Params) { p.Lookahead = 10 })
	settle(c)
	assert.Equal(t, testSub+480, c.Latency())

	c.Update(func(p *Params) { p.ZeroLatency = true })
	settle(c)
	assert.Equal(t, 480, c.Latency())

	// Clamped to the configured maximum of 20 ms.
	c.Update(func(p *Params) { p.Lookahead = 100 })
	settle(c)
	assert.Equal(t, 960, c.Latency())
}

func TestLatencyCallback(t *testing.T) {
	got := make(chan int, 16)
	c := newController(t, WithLatencyCallback(func(samples int) { got <- samples }))

	require.Equal(t, testSub, <-got)

	c.SetStructure(MatchedPhase)
	settle(c)
	require.Equal(t, testSub+correction.Length(correction.Matched, testRate)/2, <-got)
}

func TestEffectOffIsDelayedIdentity(t *testing.T) {
	for _, s := range []Structure{MinimumPhase, Parallel, MatchedPhase, LinearPhase} {
		t.Run(s.String(), func(t *testing.T) {
			c := newController(t)
			c.Update(func(p *Params) {
				p.Structure = s
				p.SmoothStaticGain = true
				p.AutoGain = true
				p.OutputGain = 6
				p.Bands[0] = activeBand(Stereo, 12)
				p.Bands[1] = activeBand(Left, -6)
				p.Bands[2] = activeBand(Mid, 3)
			})
			settle(c)
			on := c.Latency()

			c.SetEffect(false)
			settle(c)
			lat := c.Latency()
			assert.Equal(t, on, lat)

			in := stereoNoise(lat + 4096)
			out := clone(in)
			run(c, out)

			requireDelayed(t, out, in, lat, 1e-9)
		})
	}
}

func TestBypassedBandIgnoresSidechain(t *testing.T) {
	c := newController(t)

	b := activeBand(Stereo, 9)
	b.Dynamic = true
	b.Bypass = true
	b.TargetGain = -20
	b.Threshold = -60
	require.NoError(t, c.SetBand(0, b))
	c.Update(func(p *Params) { p.SideChain = true })

	n := 8192
	main := stereoNoise(n)
	buf := [][]float64{
		append([]float64(nil), main[0]...),
		append([]float64(nil), main[1]...),
		testutil.DeterministicNoise(3, 0.9, n),
		testutil.DeterministicNoise(4, 0.9, n),
	}
	run(c, buf)

	requireDelayed(t, buf[:2], main, testSub, 1e-12)

	gain, err := c.DynamicGain(0)
	require.NoError(t, err)
	assert.Equal(t, 9.0, gain)
}

func TestZeroLatencyPassesThrough(t *testing.T) {
	c := newController(t)
	c.Update(func(p *Params) { p.ZeroLatency = true })

	in := stereoNoise(4000)
	out := clone(in)
	run(c, out)

	testutil.RequireSliceNearlyEqual(t, out[0], in[0], 0)
	testutil.RequireSliceNearlyEqual(t, out[1], in[1], 0)
}

func TestPhaseFlip(t *testing.T) {
	c := newController(t)
	c.Update(func(p *Params) {
		p.ZeroLatency = true
		p.PhaseFlip = true
	})

	in := stereoNoise(1000)
	out := clone(in)
	run(c, out)

	for i := range in[0] {
		require.Equal(t, -in[0][i], out[0][i])
	}
}

func TestStaticPeakPerStructure(t *testing.T) {
	for _, s := range []Structure{MinimumPhase, StateVariable, Parallel, MatchedPhase, MixedPhase, LinearPhase} {
		t.Run(s.String(), func(t *testing.T) {
			c := newController(t)
			b := activeBand(Stereo, 6)
			b.Filter.Q = 1
			require.NoError(t, c.SetBand(0, b))
			c.SetStructure(s)

			n := 48000
			sine := testutil.DeterministicSine(1000, testRate, math.Sqrt2*0.1, n)
			buf := testutil.Planar(2, sine)
			run(c, buf)

			testutil.RequireFinite(t, buf[0])
			tail := buf[0][n-9600:]
			assert.InDelta(t, -14, testutil.RMSDB(tail), 0.5)
		})
	}
}

func TestDynamicGainFollowsLevel(t *testing.T) {
	band := func() BandParams {
		b := activeBand(Stereo, 0)
		b.Dynamic = true
		b.Filter.Q = 1
		b.TargetGain = -12
		b.TargetQ = 1
		b.Threshold = -40
		return b
	}

	t.Run("loud", func(t *testing.T) {
		c := newController(t)
		require.NoError(t, c.SetBand(0, band()))

		n := 48000
		buf := testutil.Planar(2, testutil.DeterministicSine(1000, testRate, math.Sqrt2*0.1, n))
		run(c, buf)

		gain, err := c.DynamicGain(0)
		require.NoError(t, err)
		assert.InDelta(t, -12, gain, 0.1)
		assert.InDelta(t, -32, testutil.RMSDB(buf[0][n-9600:]), 0.5)
	})

	t.Run("quiet", func(t *testing.T) {
		c := newController(t)
		require.NoError(t, c.SetBand(0, band()))

		buf := testutil.Planar(2, testutil.DeterministicSine(1000, testRate, 1e-4, 48000))
		run(c, buf)

		gain, err := c.DynamicGain(0)
		require.NoError(t, err)
		assert.InDelta(t, 0, gain, 1e-6)
	})
}

func TestLearningRaisesThreshold(t *testing.T) {
	c := newController(t)

	b := activeBand(Stereo, 0)
	b.Dynamic = true
	b.Filter.Q = 1
	b.Threshold = -40
	b.Learn = true
	require.NoError(t, c.SetBand(0, b))

	// A steady -20 dB tone lands in bucket 20, so the learned threshold
	// moves towards -40 + 40 - 20.
	buf := testutil.Planar(2, testutil.DeterministicSine(1000, testRate, math.Sqrt2*0.1, 2*48000))
	run(c, buf)

	learned, err := c.LearnedThreshold(0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, learned, -25.0)
	assert.LessOrEqual(t, learned, -19.5)

	require.NoError(t, c.SetLearning(0, false))
	settle(c)
	run(c, testutil.Planar(2, make([]float64, testSub)))
	learned, err = c.LearnedThreshold(0)
	require.NoError(t, err)
	assert.Equal(t, -40.0, learned)
}

func TestBypassedBandKeepsLearning(t *testing.T) {
	c := newController(t)

	b := activeBand(Stereo, 0)
	b.Dynamic = true
	b.Bypass = true
	b.Filter.Q = 1
	b.Threshold = -40
	b.TargetGain = -12
	b.Learn = true
	require.NoError(t, c.SetBand(0, b))

	tone := testutil.Planar(2, testutil.DeterministicSine(1000, testRate, math.Sqrt2*0.1, 2*48000))
	buf := clone(tone)
	run(c, buf)

	requireDelayed(t, buf, tone, testSub, 1e-12)

	learned, err := c.LearnedThreshold(0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, learned, -25.0)
	assert.LessOrEqual(t, learned, -19.5)

	gain, err := c.DynamicGain(0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, gain)
}

func TestPrepareKeepsLearnedDistribution(t *testing.T) {
	c := newController(t)

	b := activeBand(Stereo, 0)
	b.Dynamic = true
	b.Filter.Q = 1
	b.Threshold = -40
	b.Learn = true
	require.NoError(t, c.SetBand(0, b))

	run(c, testutil.Planar(2, testutil.DeterministicSine(1000, testRate, math.Sqrt2*0.1, 2*48000)))
	before, err := c.LearnedThreshold(0)
	require.NoError(t, err)

	require.NoError(t, c.Prepare(testRate, testBlock))
	// Silence is outside the learning range, so nothing new is pushed.
	run(c, testutil.Planar(2, make([]float64, 4*testSub)))

	after, err := c.LearnedThreshold(0)
	require.NoError(t, err)
	assert.InDelta(t, before, after, 0.2)
	// A restarted distribution would read -40 + 40 - 39.5.
	assert.Less(t, after, -30.0)
}

func TestSoloSilencesOtherComponent(t *testing.T) {
	t.Run("left", func(t *testing.T) {
		c := newController(t)
		require.NoError(t, c.SetBand(3, activeBand(Left, 0)))
		require.NoError(t, c.SetSolo(3, false))

		buf := stereoNoise(8192)
		run(c, buf)

		for i, v := range buf[1] {
			require.Zero(t, v, "right index %d", i)
		}
		assert.Greater(t, testutil.RMSDB(buf[0][testSub:]), -40.0)
	})

	t.Run("mid", func(t *testing.T) {
		c := newController(t)
		require.NoError(t, c.SetBand(3, activeBand(Mid, 0)))
		require.NoError(t, c.SetSolo(3, true))

		buf := stereoNoise(8192)
		run(c, buf)

		assert.Equal(t, buf[0], buf[1])
	})
}

func TestClearSoloOnlyMatching(t *testing.T) {
	c := newController(t)

	require.NoError(t, c.SetSolo(2, true))
	require.NoError(t, c.ClearSolo(2, false))
	assert.True(t, c.Params().Solo.Active)

	require.NoError(t, c.ClearSolo(2, true))
	assert.False(t, c.Params().Solo.Active)
}

func TestSettersValidateAndClamp(t *testing.T) {
	c := newController(t)

	require.ErrorIs(t, c.SetThreshold(NumBands, -10), ErrBandIndex)
	require.ErrorIs(t, c.SetBypass(-1, true), ErrBandIndex)
	require.ErrorIs(t, c.SetSolo(99, false), ErrBandIndex)
	_, err := c.DynamicGain(NumBands)
	require.ErrorIs(t, err, ErrBandIndex)

	require.NoError(t, c.SetThreshold(0, 12))
	require.NoError(t, c.SetFilter(1, design.Params{Type: design.Peak, Order: 2, Freq: 1e6, Gain: 99, Q: 0.001}))
	require.NoError(t, c.SetGroup(2, RoutingGroup(42)))

	p := c.Params()
	assert.Equal(t, MaxThresholdDB, p.Bands[0].Threshold)
	assert.Equal(t, MaxFreq, p.Bands[1].Filter.Freq)
	assert.Equal(t, MaxGainDB, p.Bands[1].Filter.Gain)
	assert.Equal(t, MinQ, p.Bands[1].Filter.Q)
	assert.Equal(t, Stereo, p.Bands[2].Group)
}

func TestResetKeepsLatency(t *testing.T) {
	c := newController(t)
	c.SetStructure(MatchedPhase)
	settle(c)
	lat := c.Latency()

	run(c, stereoNoise(4096))
	c.Reset()
	assert.Equal(t, lat, c.Latency())

	in := stereoNoise(lat + 2048)
	out := clone(in)
	c.SetEffect(false)
	run(c, out)
	requireDelayed(t, out, in, lat, 1e-9)
}
