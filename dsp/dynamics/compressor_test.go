package dynamics

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-dyneq/internal/testutil"
	"github.com/cwbudde/algo-dyneq/measure/loudness"
)

func newTestCompressor(t *testing.T) *Compressor {
	t.Helper()

	c := NewCompressor(1)
	if err := c.Prepare(48000, 0.04); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	c.SetAttack(0)
	c.SetRelease(0)

	return c
}

func processBlocks(c *Compressor, sig []float64, block int) float64 {
	portion := 0.0
	for pos := 0; pos+block <= len(sig); pos += block {
		portion = c.Process([][]float64{sig[pos : pos+block]})
	}

	return portion
}

func TestCompressorQuietSignalDoesNotModulate(t *testing.T) {
	c := newTestCompressor(t)
	c.Knee().SetThreshold(-20)

	// -40 dBFS sine, well below the knee.
	sig := testutil.DeterministicSine(1000, 48000, 0.01*math.Sqrt2, 4800)
	if got := processBlocks(c, sig, 48); got != 0 {
		t.Fatalf("portion = %v, want 0", got)
	}

	if math.Abs(c.Loudness()+40) > 0.1 {
		t.Fatalf("Loudness() = %v, want about -40", c.Loudness())
	}
}

func TestCompressorLoudSignalFullyModulates(t *testing.T) {
	c := newTestCompressor(t)
	c.Knee().SetThreshold(-20)

	// 0 dB RMS sine, above the knee top at -14 dB.
	sig := testutil.DeterministicSine(1000, 48000, math.Sqrt2, 4800)
	if got := processBlocks(c, sig, 48); math.Abs(got-1) > 1e-9 {
		t.Fatalf("portion = %v, want 1", got)
	}
}

func TestCompressorBaselineShiftsThreshold(t *testing.T) {
	c := newTestCompressor(t)
	c.Knee().SetThreshold(-20)
	c.SetBaseline(30)

	// 0 dB RMS is 30 dB below the baseline, far under the knee.
	sig := testutil.DeterministicSine(1000, 48000, math.Sqrt2, 4800)
	if got := processBlocks(c, sig, 48); got != 0 {
		t.Fatalf("portion = %v, want 0", got)
	}
	if c.Baseline() != 30 {
		t.Fatalf("Baseline() = %v, want 30", c.Baseline())
	}
}

func TestCompressorSilence(t *testing.T) {
	c := newTestCompressor(t)
	c.Process([][]float64{make([]float64, 64)})

	if c.Loudness() != loudness.MinusInfinityDB {
		t.Fatalf("Loudness() = %v, want floor", c.Loudness())
	}
	if c.Portion() != 0 {
		t.Fatalf("Portion() = %v, want 0", c.Portion())
	}
}

func TestCompressorPrepareError(t *testing.T) {
	c := NewCompressor(1)
	if err := c.Prepare(48000, 0); err == nil {
		t.Fatal("expected error for zero RMS window")
	}
}
