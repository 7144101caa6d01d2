package buffer

// FIFO is a fixed-capacity multi-channel sample queue. All channels advance
// together. Storage is allocated once in NewFIFO.
type FIFO struct {
	data  [][]float64
	read  int
	count int
}

// NewFIFO returns an empty FIFO holding up to capacity frames.
func NewFIFO(channels, capacity int) *FIFO {
	capacity = max(capacity, 1)

	f := &FIFO{data: make([][]float64, channels)}
	for ch := range f.data {
		f.data[ch] = make([]float64, capacity)
	}

	return f
}

// Len returns the number of queued frames.
func (f *FIFO) Len() int {
	return f.count
}

// Cap returns the capacity in frames.
func (f *FIFO) Cap() int {
	if len(f.data) == 0 {
		return 0
	}

	return len(f.data[0])
}

// Free returns the number of frames that can be pushed without dropping.
func (f *FIFO) Free() int {
	return f.Cap() - f.count
}

// Push appends len(src[0]) frames and returns how many fit.
func (f *FIFO) Push(src [][]float64) int {
	if len(src) == 0 {
		return 0
	}

	n := min(len(src[0]), f.Free())
	size := f.Cap()
	write := (f.read + f.count) % size

	for ch := range f.data {
		first := min(n, size-write)
		if ch < len(src) {
			copy(f.data[ch][write:write+first], src[ch][:first])
			copy(f.data[ch][:n-first], src[ch][first:n])
		} else {
			clear(f.data[ch][write : write+first])
			clear(f.data[ch][:n-first])
		}
	}

	f.count += n

	return n
}

// PushZeros appends n silent frames and returns how many fit.
func (f *FIFO) PushZeros(n int) int {
	n = min(n, f.Free())
	size := f.Cap()
	write := (f.read + f.count) % size

	for ch := range f.data {
		first := min(n, size-write)
		clear(f.data[ch][write : write+first])
		clear(f.data[ch][:n-first])
	}

	f.count += n

	return n
}

// Pop removes up to len(dst[0]) frames into dst and returns how many were
// available. Frames missing from a short FIFO are left untouched in dst.
func (f *FIFO) Pop(dst [][]float64) int {
	if len(dst) == 0 {
		return 0
	}

	n := f.peek(dst, min(len(dst[0]), f.count))
	f.read = (f.read + n) % f.Cap()
	f.count -= n

	return n
}

// Overwrite appends src, discarding the oldest frames when full. It keeps
// the most recent Cap() frames.
func (f *FIFO) Overwrite(src [][]float64) {
	if len(src) == 0 {
		return
	}

	n := len(src[0])
	size := f.Cap()
	if n >= size {
		for ch := range f.data {
			if ch < len(src) {
				copy(f.data[ch], src[ch][n-size:])
			} else {
				clear(f.data[ch])
			}
		}
		f.read, f.count = 0, size

		return
	}

	if drop := n - f.Free(); drop > 0 {
		f.read = (f.read + drop) % size
		f.count -= drop
	}

	f.Push(src)
}

// Latest copies the most recent len(dst[0]) frames into dst without removing
// them, oldest first. It returns the number of frames copied.
func (f *FIFO) Latest(dst [][]float64) int {
	if len(dst) == 0 {
		return 0
	}

	n := min(len(dst[0]), f.count)
	size := f.Cap()
	start := (f.read + f.count - n) % size

	for ch := range min(len(dst), len(f.data)) {
		first := min(n, size-start)
		copy(dst[ch][:first], f.data[ch][start:start+first])
		copy(dst[ch][first:n], f.data[ch][:n-first])
	}

	return n
}

func (f *FIFO) peek(dst [][]float64, n int) int {
	size := f.Cap()

	for ch := range min(len(dst), len(f.data)) {
		first := min(n, size-f.read)
		copy(dst[ch][:first], f.data[ch][f.read:f.read+first])
		copy(dst[ch][first:n], f.data[ch][:n-first])
	}

	return n
}

// Reset empties the FIFO.
func (f *FIFO) Reset() {
	f.read = 0
	f.count = 0

	for ch := range f.data {
		clear(f.data[ch])
	}
}
