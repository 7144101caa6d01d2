package host

import (
	"encoding/binary"
	"fmt"
	"math"
)

// bytesPerSample is the size of one 32-bit float sample.
const bytesPerSample = 4

// Converter moves interleaved stereo float32 frames in and out of the
// planar four-channel buffer the engine processes. Channels 2 and 3 carry
// a copy of the input so the engine can use them as its sidechain.
type Converter struct {
	planar [][]float64
	views  [][]float64
}

// NewConverter returns a converter for up to maxFrames frames per call.
func NewConverter(maxFrames int) (*Converter, error) {
	if maxFrames <= 0 {
		return nil, fmt.Errorf("host: max frames must be > 0: %d", maxFrames)
	}

	c := &Converter{
		planar: make([][]float64, 4),
		views:  make([][]float64, 4),
	}
	for ch := range c.planar {
		c.planar[ch] = make([]float64, maxFrames)
	}

	return c, nil
}

// MaxFrames returns the largest frame count per call.
func (c *Converter) MaxFrames() int {
	return len(c.planar[0])
}

// Deinterleave decodes frames stereo frames from in, starting at frame
// offset, and returns planar views of them. frames must not exceed
// MaxFrames.
func (c *Converter) Deinterleave(in []byte, offset, frames int) [][]float64 {
	for ch := range c.views {
		c.views[ch] = c.planar[ch][:frames]
	}

	l, r := c.views[0], c.views[1]
	base := offset * 2 * bytesPerSample
	for i := range frames {
		p := base + i*2*bytesPerSample
		if p+2*bytesPerSample > len(in) {
			l[i], r[i] = 0, 0
			continue
		}
		l[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(in[p:])))
		r[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(in[p+bytesPerSample:])))
	}

	copy(c.views[2], l)
	copy(c.views[3], r)

	return c.views
}

// Interleave encodes the first two planar channels into out at frame
// offset.
func (c *Converter) Interleave(out []byte, offset int, planar [][]float64) {
	l, r := planar[0], planar[1]
	base := offset * 2 * bytesPerSample
	for i := range l {
		p := base + i*2*bytesPerSample
		if p+2*bytesPerSample > len(out) {
			return
		}
		binary.LittleEndian.PutUint32(out[p:], math.Float32bits(float32(l[i])))
		binary.LittleEndian.PutUint32(out[p+bytesPerSample:], math.Float32bits(float32(r[i])))
	}
}
