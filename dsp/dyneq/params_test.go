package dyneq

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cwbudde/algo-dyneq/dsp/filter/design"
)

func TestStructureNames(t *testing.T) {
	for s := range Structure(numStructures) {
		got, ok := ParseStructure(s.String())
		assert.True(t, ok, s.String())
		assert.Equal(t, s, got)
	}

	_, ok := ParseStructure("warp")
	assert.False(t, ok)
	assert.Equal(t, "unknown", Structure(-1).String())
}

func TestRoutingGroupNames(t *testing.T) {
	for g := range RoutingGroup(numGroups) {
		got, ok := ParseRoutingGroup(g.String())
		assert.True(t, ok, g.String())
		assert.Equal(t, g, got)
	}

	_, ok := ParseRoutingGroup("surround")
	assert.False(t, ok)
}

func TestSideParamsFollowLink(t *testing.T) {
	b := DefaultBandParams()
	b.Filter.Freq = 3000
	b.Filter.Q = 2
	b.Side.Freq = 200
	b.Side.Q = 0.5

	linked := b.sideParams()
	assert.Equal(t, 3000.0, linked.Freq)
	assert.Equal(t, 2.0, linked.Q)
	assert.Equal(t, design.BandPass, linked.Type)

	b.SideLink = false
	free := b.sideParams()
	assert.Equal(t, 200.0, free.Freq)
	assert.Equal(t, 0.5, free.Q)
}

func TestNormalizeClamps(t *testing.T) {
	p := DefaultParams()
	p.Structure = Structure(17)
	p.Lookahead = 50
	p.RMS = math.NaN()
	p.OutputGain = -100
	p.Solo = SoloRequest{Active: true, Band: NumBands}
	p.Bands[0].Ratio = 0.5
	p.Bands[0].Attack = -3
	p.Bands[0].Threshold = math.NaN()
	p.Bands[0].TargetQ = 1000

	p.normalize(20, 40)

	assert.Equal(t, MinimumPhase, p.Structure)
	assert.Equal(t, 20.0, p.Lookahead)
	assert.Equal(t, 10.0, p.RMS)
	assert.Equal(t, -MaxOutputDB, p.OutputGain)
	assert.False(t, p.Solo.Active)
	assert.Equal(t, 1.0, p.Bands[0].Ratio)
	assert.Equal(t, 0.0, p.Bands[0].Attack)
	assert.Equal(t, -20.0, p.Bands[0].Threshold)
	assert.Equal(t, MaxQ, p.Bands[0].TargetQ)
}
