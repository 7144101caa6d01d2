package dyneq

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dyneq/dsp/filter/design"
)

// Params returns a copy of the most recently published snapshot.
func (c *Controller) Params() Params {
	return *c.params.Load()
}

// Update applies fn to a copy of the current snapshot, clamps the result to
// the legal ranges and publishes it. The audio goroutine picks it up at the
// start of its next sub-buffer. Update never blocks Process.
func (c *Controller) Update(fn func(p *Params)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := *c.params.Load()
	fn(&next)
	next.normalize(milliseconds(c.cfg.maxLookahead), milliseconds(c.cfg.maxRMS))
	c.params.Store(&next)
}

func (c *Controller) updateBand(i int, fn func(b *BandParams)) error {
	if i < 0 || i >= NumBands {
		return fmt.Errorf("%w: %d", ErrBandIndex, i)
	}

	c.Update(func(p *Params) { fn(&p.Bands[i]) })
	return nil
}

// SetBand replaces every parameter of band i.
func (c *Controller) SetBand(i int, b BandParams) error {
	return c.updateBand(i, func(dst *BandParams) { *dst = b })
}

// SetActive adds band i to or removes it from its routing group.
func (c *Controller) SetActive(i int, active bool) error {
	return c.updateBand(i, func(b *BandParams) { b.Active = active })
}

// SetFilter sets the static filter of band i.
func (c *Controller) SetFilter(i int, f design.Params) error {
	return c.updateBand(i, func(b *BandParams) { b.Filter = f })
}

// SetTarget sets the gain and Q band i reaches when fully compressed.
func (c *Controller) SetTarget(i int, gainDB, q float64) error {
	return c.updateBand(i, func(b *BandParams) {
		b.TargetGain = gainDB
		b.TargetQ = q
	})
}

// SetThreshold sets the detector threshold of band i in dB.
func (c *Controller) SetThreshold(i int, db float64) error {
	return c.updateBand(i, func(b *BandParams) { b.Threshold = db })
}

// SetGroup routes band i to group g.
func (c *Controller) SetGroup(i int, g RoutingGroup) error {
	return c.updateBand(i, func(b *BandParams) { b.Group = g })
}

// SetBypass bypasses band i. A bypassed band keeps its state warm but leaves
// the signal untouched.
func (c *Controller) SetBypass(i int, bypass bool) error {
	return c.updateBand(i, func(b *BandParams) { b.Bypass = bypass })
}

// SetDynamic turns the dynamics of band i on or off.
func (c *Controller) SetDynamic(i int, on bool) error {
	return c.updateBand(i, func(b *BandParams) { b.Dynamic = on })
}

// SetRelative makes band i measure its sidechain against the loudness of
// its group instead of 0 dBFS.
func (c *Controller) SetRelative(i int, on bool) error {
	return c.updateBand(i, func(b *BandParams) { b.Relative = on })
}

// SetLearning turns threshold learning of band i on or off. Turning it on
// restarts the learned distribution.
func (c *Controller) SetLearning(i int, on bool) error {
	return c.updateBand(i, func(b *BandParams) { b.Learn = on })
}

// SetSolo auditions band i, or its sidechain filter when side is set.
func (c *Controller) SetSolo(i int, side bool) error {
	if i < 0 || i >= NumBands {
		return fmt.Errorf("%w: %d", ErrBandIndex, i)
	}

	c.Update(func(p *Params) { p.Solo = SoloRequest{Active: true, Band: i, Side: side} })
	return nil
}

// ClearSolo ends the solo if it is the one SetSolo(i, side) started.
func (c *Controller) ClearSolo(i int, side bool) error {
	if i < 0 || i >= NumBands {
		return fmt.Errorf("%w: %d", ErrBandIndex, i)
	}

	c.Update(func(p *Params) {
		if p.Solo.Active && p.Solo.Band == i && p.Solo.Side == side {
			p.Solo = SoloRequest{}
		}
	})
	return nil
}

// SetStructure switches the filter structure.
func (c *Controller) SetStructure(s Structure) {
	c.Update(func(p *Params) { p.Structure = s })
}

// SetEffect turns the whole effect on or off. Off keeps the latency.
func (c *Controller) SetEffect(on bool) {
	c.Update(func(p *Params) { p.EffectOn = on })
}

// DynamicGain returns the gain in dB the dynamic filter of band i used for
// the last sub-buffer.
func (c *Controller) DynamicGain(i int) (float64, error) {
	if i < 0 || i >= NumBands {
		return 0, fmt.Errorf("%w: %d", ErrBandIndex, i)
	}
	if !c.prepared.Load() {
		return 0, ErrNotPrepared
	}

	return math.Float64frombits(c.bands[i].dynGain.Load()), nil
}

// LearnedThreshold returns the threshold band i currently runs with. While
// learning this differs from the configured threshold.
func (c *Controller) LearnedThreshold(i int) (float64, error) {
	if i < 0 || i >= NumBands {
		return 0, fmt.Errorf("%w: %d", ErrBandIndex, i)
	}
	if !c.prepared.Load() {
		return 0, ErrNotPrepared
	}

	return math.Float64frombits(c.bands[i].learned.Load()), nil
}
