package conv

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// Streaming convolves a signal block by block with a replaceable kernel
// using FFT overlap-add.
//
// The FFT size is fixed at construction to fit maxBlock+maxKernel-1 so that
// SetKernel and ProcessBlock never allocate.
type Streaming struct {
	plan *algofft.Plan[complex128]

	fftSize   int
	maxBlock  int
	maxKernel int
	kernelLen int

	kernelFFT []complex128
	work      []complex128

	// tail holds the maxKernel-1 samples that spill past the current block.
	tail []float64
}

// NewStreaming creates a convolver for kernels of up to maxKernel taps and
// blocks of up to maxBlock samples. The initial kernel is a unit impulse.
func NewStreaming(maxKernel, maxBlock int) (*Streaming, error) {
	if maxKernel <= 0 {
		return nil, fmt.Errorf("%w: max kernel %d", ErrEmptyKernel, maxKernel)
	}
	if maxBlock <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, maxBlock)
	}

	fftSize := nextPowerOf2(maxBlock + maxKernel - 1)
	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create FFT plan: %w", err)
	}

	s := &Streaming{
		plan:      plan,
		fftSize:   fftSize,
		maxBlock:  maxBlock,
		maxKernel: maxKernel,
		kernelFFT: make([]complex128, fftSize),
		work:      make([]complex128, fftSize),
		tail:      make([]float64, maxKernel-1),
	}
	for i := range s.kernelFFT {
		s.kernelFFT[i] = 1
	}
	s.kernelLen = 1

	return s, nil
}

// FFTSize returns the FFT size used internally.
func (s *Streaming) FFTSize() int { return s.fftSize }

// MaxBlock returns the largest block ProcessBlock accepts.
func (s *Streaming) MaxBlock() int { return s.maxBlock }

// MaxKernel returns the longest kernel SetKernel accepts.
func (s *Streaming) MaxKernel() int { return s.maxKernel }

// KernelLen returns the length of the current kernel.
func (s *Streaming) KernelLen() int { return s.kernelLen }

// SetKernel replaces the kernel. The pending tail is kept, so output from
// the previous kernel decays naturally.
func (s *Streaming) SetKernel(kernel []float64) error {
	if len(kernel) == 0 {
		return ErrEmptyKernel
	}
	if len(kernel) > s.maxKernel {
		return fmt.Errorf("%w: %d > %d", ErrKernelTooLong, len(kernel), s.maxKernel)
	}

	for i := range s.kernelFFT {
		s.kernelFFT[i] = 0
	}
	for i, v := range kernel {
		s.kernelFFT[i] = complex(v, 0)
	}
	if err := s.plan.Forward(s.kernelFFT, s.kernelFFT); err != nil {
		return fmt.Errorf("conv: failed to compute kernel FFT: %w", err)
	}
	s.kernelLen = len(kernel)

	return nil
}

// ProcessBlock convolves src into dst. Both must have the same length, no
// larger than MaxBlock. dst may alias src.
func (s *Streaming) ProcessBlock(dst, src []float64) error {
	n := len(src)
	if len(dst) != n {
		return fmt.Errorf("%w: dst %d, src %d", ErrLengthMismatch, len(dst), n)
	}
	if n > s.maxBlock {
		return fmt.Errorf("%w: %d > %d", ErrInvalidBlockSize, n, s.maxBlock)
	}
	if n == 0 {
		return nil
	}

	for i := range s.work {
		s.work[i] = 0
	}
	for i, v := range src {
		s.work[i] = complex(v, 0)
	}

	if err := s.plan.Forward(s.work, s.work); err != nil {
		return fmt.Errorf("conv: forward FFT failed: %w", err)
	}
	for i := range s.work {
		s.work[i] *= s.kernelFFT[i]
	}
	if err := s.plan.Inverse(s.work, s.work); err != nil {
		return fmt.Errorf("conv: inverse FFT failed: %w", err)
	}

	// tail[i] is read at step i and written at step i+n, so a single pass
	// can shift it in place.
	tl := len(s.tail)
	for i := 0; i < n+tl; i++ {
		v := real(s.work[i])
		if i < tl {
			v += s.tail[i]
		}
		if i < n {
			dst[i] = v
		} else {
			s.tail[i-n] = v
		}
	}

	return nil
}

// Reset clears the convolution tail.
func (s *Streaming) Reset() {
	for i := range s.tail {
		s.tail[i] = 0
	}
}
