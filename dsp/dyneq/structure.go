package dyneq

import (
	"github.com/cwbudde/algo-dyneq/dsp/filter/correction"
	"github.com/cwbudde/algo-dyneq/dsp/filter/eqfilter"
)

// structureOps describes how one Structure runs. The paths read the active
// entry through Controller.ops.
type structureOps struct {
	filter    eqfilter.Structure
	corrected bool
	kind      correction.Kind
	path      func(c *Controller, main, side [][]float64)
}

var structures = [numStructures]structureOps{
	MinimumPhase:  {filter: eqfilter.IIR, path: (*Controller).defaultPath},
	StateVariable: {filter: eqfilter.SVF, path: (*Controller).defaultPath},
	Parallel:      {filter: eqfilter.Parallel, path: (*Controller).defaultPath},
	MatchedPhase:  {filter: eqfilter.IIR, corrected: true, kind: correction.Matched, path: (*Controller).defaultPath},
	MixedPhase:    {filter: eqfilter.IIR, corrected: true, kind: correction.Mixed, path: (*Controller).defaultPath},
	LinearPhase:   {filter: eqfilter.IIR, corrected: true, kind: correction.Linear, path: (*Controller).linearPath},
}

type groupFunc = func(g RoutingGroup, main, side [][]float64)

// groupFuncs holds the per-group steps as method values bound once, so the
// audio path does not allocate closures.
type groupFuncs struct {
	dynamic        groupFunc
	parallelAdd    groupFunc
	parallelSerial groupFunc
	correct        groupFunc
	linear         groupFunc
}

func (c *Controller) bindGroupFuncs() {
	c.fn = groupFuncs{
		dynamic:        c.dynamicGroup,
		parallelAdd:    c.parallelAddGroup,
		parallelSerial: c.parallelSerialGroup,
		correct:        c.correctGroup,
		linear:         c.linearGroup,
	}
}

// defaultPath runs the band filters, followed by the parallel mix and the
// correction stage when the structure has them.
func (c *Controller) defaultPath(main, side [][]float64) {
	p := c.current
	ops := c.ops

	if p.AutoGain {
		c.autoGain.processPre(main)
	}

	if !c.bypassed {
		for _, i := range c.routing.dynamic {
			c.bands[i].updateThreshold(&p.Bands[i])
		}
	}

	c.router.each(&c.routing, main, side, c.fn.dynamic)

	if p.Structure == Parallel {
		c.router.each(&c.routing, main, nil, c.fn.parallelAdd)
		c.router.each(&c.routing, main, nil, c.fn.parallelSerial)
	}

	if !c.bypassed {
		c.afterDynamics(ops)
	}

	if p.AutoGain {
		c.autoGain.processPost(main, c.bypassed)
	}

	if ops.corrected {
		c.router.each(&c.routing, main, nil, c.fn.correct)
	}
}

// linearPath replaces the band filters by the fixed ideal FIR bank of each
// group. Dynamics do not run.
func (c *Controller) linearPath(main, _ [][]float64) {
	c.router.each(&c.routing, main, nil, c.fn.linear)
}

func (c *Controller) dynamicGroup(g RoutingGroup, main, side [][]float64) {
	p := c.current
	parallel := p.Structure == Parallel

	baseline := 0.0
	if c.routing.tracker[g] {
		baseline = c.groupBaseline(g, side)
	}

	for _, i := range c.routing.groups[g] {
		bp := &p.Bands[i]
		c.bands[i].process(main, side, bp, baseline, c.bypassed, parallel)
	}

	if !parallel {
		c.compensate(g, main)
	}
}

func (c *Controller) parallelAddGroup(g RoutingGroup, main, _ [][]float64) {
	p := c.current
	for _, i := range c.routing.groups[g] {
		c.bands[i].post(main, true, c.bypassed || p.Bands[i].Bypass)
	}
}

func (c *Controller) parallelSerialGroup(g RoutingGroup, main, _ [][]float64) {
	p := c.current
	for _, i := range c.routing.groups[g] {
		c.bands[i].post(main, false, c.bypassed || p.Bands[i].Bypass)
	}

	c.compensate(g, main)
}

func (c *Controller) correctGroup(g RoutingGroup, main, _ [][]float64) {
	c.corrections[c.ops.kind][g].Process(main, c.bypassed)
}

func (c *Controller) linearGroup(g RoutingGroup, main, _ [][]float64) {
	c.corrections[correction.Linear][g].Process(main, c.bypassed)
	c.compensate(g, main)
}

// compensate applies the static gain compensation of group g.
func (c *Controller) compensate(g RoutingGroup, main [][]float64) {
	if c.bypassed || !c.current.SmoothStaticGain {
		return
	}

	c.sgc[g].process(main)
}

// afterDynamics records learning and schedules correction rebuilds for
// dynamic bands whose filter moved.
func (c *Controller) afterDynamics(ops *structureOps) {
	p := c.current
	for _, i := range c.routing.dynamic {
		bp := &p.Bands[i]
		b := c.bands[i]
		b.learn(bp)

		if bp.Bypass {
			continue
		}
		if b.correctionMoved() && ops.corrected {
			c.corrections[ops.kind][bp.Group].SetToUpdate()
		}
	}
}
