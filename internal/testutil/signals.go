package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// Ones returns a slice of length n filled with 1.0.
func Ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

// Planar builds a multi-channel buffer where every channel is a copy of src.
func Planar(channels int, src []float64) [][]float64 {
	out := make([][]float64, channels)
	for ch := range out {
		out[ch] = append([]float64(nil), src...)
	}
	return out
}

// ForEachBlock walks bufs in consecutive blocks whose sizes cycle through
// sizes, calling fn with per-channel views of each block.
func ForEachBlock(bufs [][]float64, sizes []int, fn func(block [][]float64)) {
	if len(bufs) == 0 || len(sizes) == 0 {
		return
	}

	views := make([][]float64, len(bufs))
	total := len(bufs[0])
	for pos, k := 0, 0; pos < total; k++ {
		n := min(sizes[k%len(sizes)], total-pos)
		for ch := range bufs {
			views[ch] = bufs[ch][pos : pos+n]
		}
		fn(views)
		pos += n
	}
}
