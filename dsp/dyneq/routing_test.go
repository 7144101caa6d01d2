package dyneq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutingTableRebuild(t *testing.T) {
	p := DefaultParams()
	p.Bands[0] = activeBand(Stereo, 0)
	p.Bands[3] = activeBand(Left, 0)
	p.Bands[5] = activeBand(Side, 0)
	p.Bands[5].Dynamic = true
	p.Bands[5].Relative = true
	p.Bands[7] = activeBand(Stereo, 0)
	p.Bands[7].Dynamic = true
	// Inactive bands are not routed, whatever their group.
	p.Bands[9].Group = Mid

	r := newRoutingTable()
	r.rebuild(&p)

	assert.Equal(t, []int{0, 7}, r.groups[Stereo])
	assert.Equal(t, []int{3}, r.groups[Left])
	assert.Empty(t, r.groups[Right])
	assert.Empty(t, r.groups[Mid])
	assert.Equal(t, []int{5}, r.groups[Side])
	assert.Equal(t, []int{5, 7}, r.dynamic)

	assert.True(t, r.useLR)
	assert.True(t, r.useMS)
	assert.True(t, r.tracker[Side])
	assert.False(t, r.tracker[Stereo])
	assert.Equal(t, 3, r.activeGroups())

	p.Bands[3].Active = false
	p.Bands[5].Active = false
	r.rebuild(&p)

	assert.Empty(t, r.groups[Left])
	assert.False(t, r.useLR)
	assert.False(t, r.useMS)
	assert.False(t, r.tracker[Side])
	assert.Equal(t, 1, r.activeGroups())
}

func TestGroupRouterVisitsUsedGroups(t *testing.T) {
	r := newRoutingTable()
	p := DefaultParams()
	p.Bands[0] = activeBand(Right, 0)
	r.rebuild(&p)

	gr := newGroupRouter(4)
	main := [][]float64{{1, 2, 3, 4}, {5, 6, 7, 8}}

	var seen []RoutingGroup
	gr.each(&r, main, nil, func(g RoutingGroup, m, s [][]float64) {
		seen = append(seen, g)
		assert.Nil(t, s)
		if g == Right {
			require.Len(t, m, 1)
			assert.Equal(t, []float64{5, 6, 7, 8}, m[0])
			m[0][0] = 0
		}
	})

	assert.Equal(t, []RoutingGroup{Stereo, Left, Right}, seen)
	assert.Equal(t, [][]float64{{1, 2, 3, 4}, {0, 6, 7, 8}}, main)
}

func TestGroupRouterView(t *testing.T) {
	gr := newGroupRouter(2)
	main := [][]float64{{3, 1}, {1, 1}}

	own, other, split := gr.view(Stereo, main)
	assert.Nil(t, split)
	assert.Nil(t, other)
	assert.Equal(t, main, own)

	own, other, split = gr.view(Side, main)
	require.NotNil(t, split)
	assert.Equal(t, []float64{1, 0}, own[0])
	assert.Equal(t, []float64{2, 1}, other[0])
}
