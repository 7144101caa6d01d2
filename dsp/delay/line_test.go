package delay

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-dyneq/internal/testutil"
)

func TestNewValidation(t *testing.T) {
	for _, size := range []int{0, -1} {
		if _, err := New(size); !errors.Is(err, ErrInvalidSize) {
			t.Fatalf("New(%d) = %v, want ErrInvalidSize", size, err)
		}
	}
}

func TestLineRead(t *testing.T) {
	d, err := New(4)
	if err != nil {
		t.Fatal(err)
	}

	for _, x := range []float64{1, 2, 3} {
		d.Write(x)
	}

	if got := d.Read(0); got != 3 {
		t.Fatalf("Read(0) = %v, want 3", got)
	}
	if got := d.Read(2); got != 1 {
		t.Fatalf("Read(2) = %v, want 1", got)
	}
	if got := d.Read(3); got != 0 {
		t.Fatalf("Read(3) = %v, want 0", got)
	}
}

func TestLineProcessBlock(t *testing.T) {
	d, err := New(8)
	if err != nil {
		t.Fatal(err)
	}

	buf := []float64{1, 2, 3, 4, 5}
	d.ProcessBlock(buf, 2)
	testutil.RequireSliceNearlyEqual(t, buf, []float64{0, 0, 1, 2, 3}, 0)

	next := []float64{6, 7}
	d.ProcessBlock(next, 2)
	testutil.RequireSliceNearlyEqual(t, next, []float64{4, 5}, 0)

	d.Reset()
	again := []float64{1}
	d.ProcessBlock(again, 1)
	testutil.RequireSliceNearlyEqual(t, again, []float64{0}, 0)
}
