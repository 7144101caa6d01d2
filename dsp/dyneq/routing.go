package dyneq

import "github.com/cwbudde/algo-dyneq/dsp/spatial"

// routingTable maps each routing group to the active bands assigned to it.
// It is rebuilt on the audio goroutine only when an assignment changes.
type routingTable struct {
	groups  [numGroups][]int
	dynamic []int

	useLR bool
	useMS bool

	// tracker marks groups with at least one relative band, which need the
	// group loudness as their baseline.
	tracker [numGroups]bool
}

func newRoutingTable() routingTable {
	var r routingTable
	for g := range r.groups {
		r.groups[g] = make([]int, 0, NumBands)
	}
	r.dynamic = make([]int, 0, NumBands)

	return r
}

func (r *routingTable) rebuild(p *Params) {
	for g := range r.groups {
		r.groups[g] = r.groups[g][:0]
		r.tracker[g] = false
	}
	r.dynamic = r.dynamic[:0]
	r.useLR, r.useMS = false, false

	for i := range p.Bands {
		b := &p.Bands[i]
		if !b.Active {
			continue
		}

		r.groups[b.Group] = append(r.groups[b.Group], i)
		switch b.Group {
		case Left, Right:
			r.useLR = true
		case Mid, Side:
			r.useMS = true
		}

		if b.Dynamic {
			r.dynamic = append(r.dynamic, i)
			if b.Relative {
				r.tracker[b.Group] = true
			}
		}
	}
}

// activeGroups returns how many independent correction paths run: the
// stereo path always, plus one for left/right and one for mid/side.
func (r *routingTable) activeGroups() int {
	n := 1
	if r.useLR {
		n++
	}
	if r.useMS {
		n++
	}

	return n
}

// groupRouter runs a per-group operation over the stereo view and, when
// used, the left/right and mid/side component views.
type groupRouter struct {
	lrMain, lrSide *spatial.Splitter
	msMain, msSide *spatial.Splitter
}

func newGroupRouter(maxBlock int) groupRouter {
	return groupRouter{
		lrMain: spatial.NewSplitter(spatial.LeftRight, maxBlock),
		lrSide: spatial.NewSplitter(spatial.LeftRight, maxBlock),
		msMain: spatial.NewSplitter(spatial.MidSide, maxBlock),
		msSide: spatial.NewSplitter(spatial.MidSide, maxBlock),
	}
}

// each calls fn for every group in use. main is recombined after each
// split; side is only read. side may be nil.
func (gr *groupRouter) each(r *routingTable, main, side [][]float64, fn groupFunc) {
	fn(Stereo, main, side)

	if r.useLR {
		gr.pair(gr.lrMain, gr.lrSide, Left, Right, main, side, fn)
	}
	if r.useMS {
		gr.pair(gr.msMain, gr.msSide, Mid, Side, main, side, fn)
	}
}

func (gr *groupRouter) pair(mainSplit, sideSplit *spatial.Splitter, a, b RoutingGroup,
	main, side [][]float64, fn groupFunc,
) {
	mainSplit.Split(main)

	var sideA, sideB [][]float64
	if side != nil {
		sideSplit.Split(side)
		sideA, sideB = sideSplit.A(), sideSplit.B()
	}

	fn(a, mainSplit.A(), sideA)
	fn(b, mainSplit.B(), sideB)
	mainSplit.Combine(main)
}

// view returns the component of main that group g sees, the splitter that
// produced it, and the sibling component. For Stereo the splitter is nil.
func (gr *groupRouter) view(g RoutingGroup, main [][]float64) (own, other [][]float64, split *spatial.Splitter) {
	switch g {
	case Left, Right:
		split = gr.lrMain
	case Mid, Side:
		split = gr.msMain
	default:
		return main, nil, nil
	}

	split.Split(main)
	if g == Left || g == Mid {
		return split.A(), split.B(), split
	}

	return split.B(), split.A(), split
}
