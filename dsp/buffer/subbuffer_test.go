package buffer

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-dyneq/internal/testutil"
)

func TestSubBufferDelaysByLatency(t *testing.T) {
	const size = 16

	s, err := NewSubBuffer(2, size, 100)
	if err != nil {
		t.Fatal(err)
	}

	src := testutil.DeterministicNoise(11, 1, 600)
	bufs := testutil.Planar(2, src)

	subs := 0
	testutil.ForEachBlock(bufs, []int{7, 100, 1, 33, 64}, func(block [][]float64) {
		s.Push(block)
		for s.Ready() {
			sub := s.Next()
			if len(sub[0]) != size {
				t.Fatalf("sub-buffer length %d, want %d", len(sub[0]), size)
			}
			for ch := range sub {
				for i := range sub[ch] {
					sub[ch][i] *= 2
				}
			}
			s.Commit()
			subs++
		}
		s.Pop(block)
	})

	if subs != len(src)/size {
		t.Fatalf("processed %d sub-buffers, want %d", subs, len(src)/size)
	}

	for ch := range bufs {
		for i := range src {
			want := 0.0
			if i >= s.Latency() {
				want = 2 * src[i-s.Latency()]
			}
			if bufs[ch][i] != want {
				t.Fatalf("ch %d sample %d: got %v, want %v", ch, i, bufs[ch][i], want)
			}
		}
	}
}

func TestSubBufferValidation(t *testing.T) {
	if _, err := NewSubBuffer(2, 0, 64); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("err = %v, want ErrInvalidSize", err)
	}
}
