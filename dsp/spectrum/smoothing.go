package spectrum

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidInput is returned for malformed smoothing inputs.
var ErrInvalidInput = errors.New("spectrum: invalid input")

// SmoothFractionalOctave applies 1/N-octave smoothing to linear-domain
// values using the arithmetic mean over each fractional-octave band.
//
// freqHz must be strictly increasing and positive, with len(freqHz) ==
// len(values). The result is written to dst, which must not alias values.
func SmoothFractionalOctave(dst, freqHz, values []float64, fraction int) error {
	if len(freqHz) == 0 || len(freqHz) != len(values) || len(dst) != len(values) {
		return fmt.Errorf("%w: lengths %d/%d/%d", ErrInvalidInput, len(dst), len(freqHz), len(values))
	}
	if fraction <= 0 {
		return fmt.Errorf("%w: fraction %d", ErrInvalidInput, fraction)
	}
	for i := range freqHz {
		if freqHz[i] <= 0 || (i > 0 && !(freqHz[i] > freqHz[i-1])) {
			return fmt.Errorf("%w: frequency at index %d", ErrInvalidInput, i)
		}
	}

	halfBand := math.Pow(2, 1/(2*float64(fraction)))
	for i, f := range freqHz {
		i0 := sort.SearchFloat64s(freqHz, f/halfBand)
		i1 := sort.Search(len(freqHz), func(k int) bool { return freqHz[k] > f*halfBand })
		if i0 >= i1 {
			dst[i] = values[i]
			continue
		}

		sum := 0.0
		for j := i0; j < i1; j++ {
			sum += values[j]
		}
		dst[i] = sum / float64(i1-i0)
	}

	return nil
}
