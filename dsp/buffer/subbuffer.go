package buffer

import (
	"errors"
	"fmt"
)

// ErrInvalidSize is returned for non-positive sub-buffer or block sizes.
var ErrInvalidSize = errors.New("buffer: invalid size")

// SubBuffer cuts a stream of arbitrarily sized host blocks into fixed-size
// sub-buffers.
//
// Usage per host block:
//
//	s.Push(block)
//	for s.Ready() {
//		sub := s.Next()
//		process(sub)
//		s.Commit()
//	}
//	s.Pop(block)
//
// The output is the processed stream delayed by Latency() samples, which is
// the sub-buffer size.
type SubBuffer struct {
	in, out *FIFO
	sub     [][]float64
	size    int
}

// NewSubBuffer returns a scheduler for sub-buffers of size frames and host
// blocks of at most maxBlock frames.
func NewSubBuffer(channels, size, maxBlock int) (*SubBuffer, error) {
	if channels <= 0 || size <= 0 || maxBlock <= 0 {
		return nil, fmt.Errorf("%w: channels=%d size=%d maxBlock=%d", ErrInvalidSize, channels, size, maxBlock)
	}

	s := &SubBuffer{
		in:   NewFIFO(channels, size+maxBlock),
		out:  NewFIFO(channels, 2*size+maxBlock),
		sub:  make([][]float64, channels),
		size: size,
	}
	for ch := range s.sub {
		s.sub[ch] = make([]float64, size)
	}

	s.Reset()

	return s, nil
}

// Size returns the sub-buffer length.
func (s *SubBuffer) Size() int {
	return s.size
}

// Latency returns the delay between Push and Pop in samples.
func (s *SubBuffer) Latency() int {
	return s.size
}

// Push queues a host block.
func (s *SubBuffer) Push(block [][]float64) {
	s.in.Push(block)
}

// Ready reports whether a full sub-buffer is queued.
func (s *SubBuffer) Ready() bool {
	return s.in.Len() >= s.size
}

// Next dequeues the next sub-buffer and returns it for in-place processing.
func (s *SubBuffer) Next() [][]float64 {
	s.in.Pop(s.sub)
	return s.sub
}

// Commit queues the processed sub-buffer returned by Next for output.
func (s *SubBuffer) Commit() {
	s.out.Push(s.sub)
}

// Pop fills block with processed output.
func (s *SubBuffer) Pop(block [][]float64) {
	s.out.Pop(block)
}

// Reset clears both queues and primes the output with Latency() zeros.
func (s *SubBuffer) Reset() {
	s.in.Reset()
	s.out.Reset()
	s.out.PushZeros(s.size)
}
