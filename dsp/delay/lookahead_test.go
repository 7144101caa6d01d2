package delay

import (
	"testing"

	"github.com/cwbudde/algo-dyneq/internal/testutil"
)

func TestLookaheadDelaysAllChannels(t *testing.T) {
	l, err := NewLookahead(2, 16)
	if err != nil {
		t.Fatal(err)
	}
	l.SetDelay(3)

	src := testutil.DeterministicNoise(7, 1, 64)
	bufs := testutil.Planar(2, src)

	testutil.ForEachBlock(bufs, []int{5, 11, 2}, l.Process)

	for ch := range bufs {
		for i := range src {
			want := 0.0
			if i >= 3 {
				want = src[i-3]
			}
			if bufs[ch][i] != want {
				t.Fatalf("ch %d sample %d: got %v, want %v", ch, i, bufs[ch][i], want)
			}
		}
	}
}

func TestLookaheadClamp(t *testing.T) {
	l, err := NewLookahead(1, 10)
	if err != nil {
		t.Fatal(err)
	}

	l.SetDelay(50)
	if l.Delay() != 10 || l.MaxDelay() != 10 {
		t.Fatalf("Delay() = %d, MaxDelay() = %d", l.Delay(), l.MaxDelay())
	}

	l.SetDelay(-1)
	if l.Delay() != 0 {
		t.Fatalf("Delay() = %d, want 0", l.Delay())
	}

	buf := []float64{1, 2, 3}
	l.Process([][]float64{buf})
	testutil.RequireSliceNearlyEqual(t, buf, []float64{1, 2, 3}, 0)
}

func TestNewLookaheadValidation(t *testing.T) {
	if _, err := NewLookahead(0, 10); err == nil {
		t.Fatal("expected error for zero channels")
	}
}
