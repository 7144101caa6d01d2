// Command dyneqinfo prints offline views of the equalizer: the static
// compression curve, the magnitude response of a band, the latency of every
// filter structure and the gain a band applies to a level staircase.
//
// Examples:
//
//	dyneqinfo knee --threshold -30 --ratio 4 --knee 6
//	dyneqinfo response --type low-shelf --freq 120 --gain 6
//	dyneqinfo latency --lookahead 5
//	dyneqinfo render --freq 2000 --target -12 --threshold -30
package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"

	"github.com/cwbudde/algo-dyneq/dsp/core"
	"github.com/cwbudde/algo-dyneq/dsp/dynamics"
	"github.com/cwbudde/algo-dyneq/dsp/dyneq"
	"github.com/cwbudde/algo-dyneq/dsp/filter/design"
	"github.com/cwbudde/algo-dyneq/dsp/filter/eqfilter"
	"github.com/cwbudde/algo-dyneq/dsp/signal"
)

// CLI defines the command-line interface.
type CLI struct {
	Knee     KneeCmd     `cmd:"" help:"Print the static compression curve"`
	Response ResponseCmd `cmd:"" help:"Print the magnitude response of one band"`
	Latency  LatencyCmd  `cmd:"" help:"Print the latency of every structure"`
	Render   RenderCmd   `cmd:"" help:"Run a level staircase through one dynamic band"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("dyneqinfo"),
		kong.Description("Inspect dynamic equalizer curves and latencies"),
		kong.UsageOnError(),
		kong.BindTo(os.Stdout, (*io.Writer)(nil)),
	)
	ctx.FatalIfErrorf(ctx.Run())
}

// KneeCmd sweeps the detector level through the knee computer.
type KneeCmd struct {
	Threshold float64 `default:"-20" help:"Threshold in dB"`
	Ratio     float64 `default:"4" help:"Compression ratio"`
	Knee      float64 `default:"6" help:"Knee half-width in dB"`
	Bound     float64 `default:"60" help:"Maximum gain reduction in dB"`
	From      float64 `default:"-60" help:"First input level in dB"`
	To        float64 `default:"0" help:"Last input level in dB"`
	Step      float64 `default:"2" help:"Input level step in dB"`
}

func (c *KneeCmd) Run(w io.Writer) error {
	if !(c.Step > 0) || c.To < c.From {
		return fmt.Errorf("invalid sweep %v..%v step %v", c.From, c.To, c.Step)
	}

	k := dynamics.NewKneeComputer()
	k.SetThreshold(c.Threshold)
	k.SetRatio(c.Ratio)
	k.SetKneeW(c.Knee)
	k.SetBound(c.Bound)
	k.Interpolate()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "In [dB]\tOut [dB]\tGain [dB]\tPortion\t\n")
	for x := c.From; x <= c.To+1e-9; x += c.Step {
		fmt.Fprintf(tw, "%.1f\t%.2f\t%.2f\t%.3f\t\n", x, k.Eval(x), k.Process(x), k.Portion(x))
	}

	return tw.Flush()
}

// ResponseCmd evaluates one band on a log-spaced frequency grid.
type ResponseCmd struct {
	Type       string  `default:"peak" help:"Filter type"`
	Order      int     `default:"2" help:"Filter order"`
	Freq       float64 `default:"1000" help:"Frequency in Hz"`
	Gain       float64 `default:"6" help:"Gain in dB"`
	Q          float64 `default:"0.7071" help:"Quality factor"`
	SampleRate float64 `default:"48000" help:"Sample rate in Hz"`
	Points     int     `default:"31" help:"Number of grid points"`
}

func (c *ResponseCmd) Run(w io.Writer) error {
	typ, ok := design.ParseFilterType(c.Type)
	if !ok {
		return fmt.Errorf("unknown filter type %q", c.Type)
	}
	if c.Points < 2 || !(c.SampleRate > 0) {
		return fmt.Errorf("invalid grid: %d points at %v Hz", c.Points, c.SampleRate)
	}

	f := eqfilter.New(0, 1)
	f.Prepare(c.SampleRate)
	f.SetParams(design.Params{Type: typ, Order: c.Order, Freq: c.Freq, Gain: c.Gain, Q: c.Q})

	lo, hi := math.Log(20.0), math.Log(math.Min(20000, 0.49*c.SampleRate))
	freqs := make([]float64, c.Points)
	for i := range freqs {
		freqs[i] = math.Exp(lo + (hi-lo)*float64(i)/float64(c.Points-1))
	}
	digital := make([]float64, c.Points)
	analog := make([]float64, c.Points)
	f.AddResponseDB(freqs, digital)
	f.AddIdealDB(freqs, analog)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Freq [Hz]\tDigital [dB]\tAnalog [dB]\tError [dB]\t\n")
	for i, freq := range freqs {
		fmt.Fprintf(tw, "%.1f\t%.2f\t%.2f\t%.3f\t\n", freq, digital[i], analog[i], digital[i]-analog[i])
	}

	return tw.Flush()
}

// LatencyCmd prepares a controller per structure and routing group and
// reports its latency.
type LatencyCmd struct {
	SampleRate  float64       `default:"48000" help:"Sample rate in Hz"`
	Block       int           `default:"512" help:"Largest host block"`
	Lookahead   float64       `default:"0" help:"Lookahead in ms"`
	SubBuffer   time.Duration `default:"5ms" help:"Sub-buffer duration"`
	ZeroLatency bool          `help:"Process without the sub-buffer FIFO"`
}

var latencyGroups = []dyneq.RoutingGroup{dyneq.Stereo, dyneq.Left, dyneq.Mid}

func (c *LatencyCmd) Run(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Structure")
	for _, g := range latencyGroups {
		fmt.Fprintf(tw, "\t%s", g)
	}
	fmt.Fprintf(tw, "\tall groups\n")

	for s := dyneq.MinimumPhase; s <= dyneq.LinearPhase; s++ {
		fmt.Fprintf(tw, "%s", s)
		for _, g := range latencyGroups {
			samples, err := c.measure(s, g)
			if err != nil {
				return fmt.Errorf("%s/%s: %w", s, g, err)
			}
			fmt.Fprintf(tw, "\t%d", samples)
		}
		samples, err := c.measure(s, latencyGroups...)
		if err != nil {
			return fmt.Errorf("%s: %w", s, err)
		}
		fmt.Fprintf(tw, "\t%d (%.2f ms)\n", samples, 1000*float64(samples)/c.SampleRate)
	}

	return tw.Flush()
}

// measure activates one band per group and returns the settled latency.
func (c *LatencyCmd) measure(s dyneq.Structure, groups ...dyneq.RoutingGroup) (int, error) {
	eq, err := dyneq.New(dyneq.WithSubBufferDuration(c.SubBuffer))
	if err != nil {
		return 0, err
	}
	defer eq.Close()

	if err := eq.Prepare(c.SampleRate, c.Block); err != nil {
		return 0, err
	}

	eq.Update(func(p *dyneq.Params) {
		p.Structure = s
		p.Lookahead = c.Lookahead
		p.ZeroLatency = c.ZeroLatency
		for i, g := range groups {
			p.Bands[i].Active = true
			p.Bands[i].Group = g
		}
	})

	// The audio side picks up the snapshot on its next block.
	eq.Process([][]float64{{0}, {0}})

	return eq.Latency(), nil
}

// RenderCmd drives one dynamic peak band with a sine whose level steps up
// and reports what the band did at every step.
type RenderCmd struct {
	SampleRate float64       `default:"48000" help:"Sample rate in Hz"`
	Block      int           `default:"512" help:"Host block size"`
	Structure  string        `default:"minimum" enum:"minimum,svf,parallel,matched,mixed,linear" help:"Filter structure"`
	Freq       float64       `default:"1000" help:"Band and tone frequency in Hz"`
	Q          float64       `default:"1" help:"Band quality factor"`
	Target     float64       `default:"-12" help:"Target gain in dB"`
	Threshold  float64       `default:"-30" help:"Threshold in dB"`
	Ratio      float64       `default:"4" help:"Compression ratio"`
	From       float64       `default:"-60" help:"First tone level in dBFS"`
	To         float64       `default:"0" help:"Last tone level in dBFS"`
	Step       float64       `default:"6" help:"Level step in dB"`
	Hold       time.Duration `default:"250ms" help:"Duration of every step"`
}

func (c *RenderCmd) Run(w io.Writer) error {
	structure, ok := dyneq.ParseStructure(c.Structure)
	if !ok {
		return fmt.Errorf("unknown structure %q", c.Structure)
	}
	if !(c.Step > 0) || c.To < c.From {
		return fmt.Errorf("invalid staircase %v..%v step %v", c.From, c.To, c.Step)
	}

	spec := core.ApplyProcessOptions(core.WithSampleRate(c.SampleRate), core.WithMaxBlockSize(c.Block))
	gen, err := signal.NewGenerator(spec)
	if err != nil {
		return err
	}

	var levels []float64
	for db := c.From; db <= c.To+1e-9; db += c.Step {
		levels = append(levels, db)
	}
	hold := spec.Samples(c.Hold.Seconds())
	tone, err := gen.LevelSteps(c.Freq, levels, hold)
	if err != nil {
		return err
	}

	eq, err := dyneq.New()
	if err != nil {
		return err
	}
	defer eq.Close()

	if err := eq.Prepare(spec.SampleRate, spec.MaxBlockSize); err != nil {
		return err
	}
	eq.Update(func(p *dyneq.Params) {
		p.Structure = structure
		b := &p.Bands[0]
		b.Active = true
		b.Dynamic = true
		b.Filter = design.Params{Type: design.Peak, Order: 2, Freq: c.Freq, Q: c.Q}
		b.TargetGain = c.Target
		b.TargetQ = c.Q
		b.Threshold = c.Threshold
		b.Ratio = c.Ratio
	})

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "In [dBFS]\tOut [dBFS]\tBand gain [dB]\t\n")

	buf := core.AllocChannels(2, hold)
	for i, level := range levels {
		step := tone[i*hold : (i+1)*hold]
		copy(buf[0], step)
		copy(buf[1], step)
		eq.Process(buf)

		gain, err := eq.DynamicGain(0)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%.1f\t%.2f\t%.2f\t\n", level, peakDB(buf[0][hold/2:]), gain)
	}

	return tw.Flush()
}

// peakDB returns the peak level of x in dBFS.
func peakDB(x []float64) float64 {
	peak := 0.0
	for _, v := range x {
		peak = math.Max(peak, math.Abs(v))
	}

	return core.LinearToDB(peak)
}
