package spatial

import (
	"testing"

	"github.com/cwbudde/algo-dyneq/internal/testutil"
)

func TestSplitCombineRoundTrip(t *testing.T) {
	for _, mode := range []Mode{LeftRight, MidSide} {
		t.Run(mode.String(), func(t *testing.T) {
			l := testutil.DeterministicNoise(1, 1, 257)
			r := testutil.DeterministicNoise(2, 1, 257)
			src := [][]float64{append([]float64(nil), l...), append([]float64(nil), r...)}

			s := NewSplitter(mode, 512)
			s.Split(src)

			dst := [][]float64{make([]float64, 257), make([]float64, 257)}
			s.Combine(dst)

			testutil.RequireSliceNearlyEqual(t, dst[0], l, 1e-14)
			testutil.RequireSliceNearlyEqual(t, dst[1], r, 1e-14)
			testutil.RequireSliceNearlyEqual(t, src[0], l, 0)
		})
	}
}

func TestMidSideComponents(t *testing.T) {
	s := NewSplitter(MidSide, 4)
	s.Split([][]float64{{1, 0, 0.5}, {1, 0, -0.5}})

	testutil.RequireSliceNearlyEqual(t, s.A()[0], []float64{1, 0, 0}, 1e-15)
	testutil.RequireSliceNearlyEqual(t, s.B()[0], []float64{0, 0, 0.5}, 1e-15)
}

func TestComponentEditsSurviveCombine(t *testing.T) {
	s := NewSplitter(MidSide, 8)
	s.Split([][]float64{{1, 1}, {-1, -1}})

	// Silence the side component: the result collapses to mono.
	clear(s.Component(1)[0])

	dst := [][]float64{make([]float64, 2), make([]float64, 2)}
	s.Combine(dst)
	testutil.RequireSliceNearlyEqual(t, dst[0], []float64{0, 0}, 1e-15)
	testutil.RequireSliceNearlyEqual(t, dst[1], []float64{0, 0}, 1e-15)
}
