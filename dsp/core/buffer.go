package core

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]float64, n)
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	clear(buf)
}

// CopyInto copies src into dst and returns the number of copied elements.
func CopyInto(dst, src []float64) int {
	return copy(dst, src)
}

// AllocChannels allocates channels planar buffers of n samples each.
func AllocChannels(channels, n int) [][]float64 {
	out := make([][]float64, channels)
	for i := range out {
		out[i] = make([]float64, n)
	}

	return out
}

// Slice returns views of the first n samples of every channel, written into
// views so that no allocation happens on the audio path.
func Slice(views, bufs [][]float64, offset, n int) [][]float64 {
	views = views[:len(bufs)]
	for ch := range bufs {
		views[ch] = bufs[ch][offset : offset+n]
	}

	return views
}

// CopyChannels copies every channel of src into dst.
func CopyChannels(dst, src [][]float64) {
	for ch := range dst {
		copy(dst[ch], src[ch])
	}
}

// ZeroChannels clears every channel of bufs.
func ZeroChannels(bufs [][]float64) {
	for _, ch := range bufs {
		clear(ch)
	}
}
